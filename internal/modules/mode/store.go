// Package mode manages the LOCAL/VPS admin routing mode and resolves it
// into a concrete broker back-end target.
package mode

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/events"
)

// Mode selects which broker back-end receives proxied traffic
type Mode string

const (
	ModeLocal Mode = "LOCAL"
	ModeVPS   Mode = "VPS"
)

// ErrInvalidMode is returned when a mode value is neither LOCAL nor VPS
var ErrInvalidMode = errors.New("invalid mode")

// Target is a resolved broker back-end
type Target struct {
	Mode  Mode   `json:"mode"`
	Host  string `json:"host"`
	Port  int    `json:"port"`
	Label string `json:"label"`
}

// BaseURL returns the http base URL for the target
func (t Target) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", t.Host, t.Port)
}

// ResolveTarget maps a mode to its static back-end target
func ResolveTarget(m Mode) Target {
	switch m {
	case ModeVPS:
		return Target{Mode: ModeVPS, Host: "127.0.0.1", Port: 6002, Label: "VPS IB gateway"}
	default:
		return Target{Mode: ModeLocal, Host: "127.0.0.1", Port: 6001, Label: "PC over SSH reverse tunnel"}
	}
}

// modeFile is the on-disk shape of the persisted mode
type modeFile struct {
	Mode      string `json:"mode"`
	UpdatedAt string `json:"updated_at"`
}

// Store persists the admin mode to a small JSON file under the data dir.
// Reads go through a cache that is refreshed when the backing file changes
// on disk, so out-of-band edits are picked up. A missing or corrupt file
// resolves to LOCAL rather than failing the request.
type Store struct {
	mu       sync.Mutex
	path     string
	cached   Mode
	loadedAt time.Time
	loaded   bool
	bus      *events.Bus
	log      zerolog.Logger
}

// NewStore creates a mode store backed by admin_mode.json in dataDir
func NewStore(dataDir string, bus *events.Bus, log zerolog.Logger) *Store {
	return &Store{
		path: filepath.Join(dataDir, "admin_mode.json"),
		bus:  bus,
		log:  log.With().Str("component", "mode_store").Logger(),
	}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Get returns the current mode, re-reading the file when it changed on disk
func (s *Store) Get() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked()
}

func (s *Store) getLocked() Mode {
	info, err := os.Stat(s.path)
	if err != nil {
		// A missing file is always LOCAL, even when a mode was loaded
		// before; out-of-band deletion resets the mode
		s.cached = ModeLocal
		s.loaded = true
		s.loadedAt = time.Time{}
		return ModeLocal
	}

	if s.loaded && !info.ModTime().After(s.loadedAt) {
		return s.cached
	}

	mode := s.readFile()
	s.cached = mode
	s.loadedAt = info.ModTime()
	s.loaded = true
	return mode
}

// readFile parses the backing file, falling back to LOCAL on any failure
func (s *Store) readFile() Mode {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read mode file, defaulting to LOCAL")
		return ModeLocal
	}

	var f modeFile
	if err := json.Unmarshal(data, &f); err != nil {
		s.log.Warn().Err(err).Msg("Corrupt mode file, defaulting to LOCAL")
		return ModeLocal
	}

	mode, err := Parse(f.Mode)
	if err != nil {
		s.log.Warn().Str("mode", f.Mode).Msg("Unknown mode in file, defaulting to LOCAL")
		return ModeLocal
	}
	return mode
}

// Parse validates and canonicalizes a mode string
func Parse(raw string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(raw))) {
	case ModeLocal:
		return ModeLocal, nil
	case ModeVPS:
		return ModeVPS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// Set validates, persists and returns the resolved target for a new mode.
// The write is atomic: the file is staged alongside the target and renamed
// into place, so a crash never leaves a torn mode file.
func (s *Store) Set(raw string) (Target, error) {
	mode, err := Parse(raw)
	if err != nil {
		return Target{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.getLocked()

	f := modeFile{
		Mode:      string(mode),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return Target{}, fmt.Errorf("failed to marshal mode file: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return Target{}, fmt.Errorf("failed to stage mode file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return Target{}, fmt.Errorf("failed to replace mode file: %w", err)
	}

	s.cached = mode
	s.loaded = true
	if info, err := os.Stat(s.path); err == nil {
		s.loadedAt = info.ModTime()
	}

	target := ResolveTarget(mode)
	s.log.Info().
		Str("mode", string(mode)).
		Str("target", target.BaseURL()).
		Msg("Admin mode updated")

	if s.bus != nil && previous != mode {
		s.bus.Emit(events.ModeChanged, "mode", map[string]interface{}{
			"mode":   string(mode),
			"host":   target.Host,
			"port":   target.Port,
			"label":  target.Label,
			"ts":     f.UpdatedAt,
			"before": string(previous),
		})
	}

	return target, nil
}

// Resolve returns the back-end target for the current mode
func (s *Store) Resolve() Target {
	return ResolveTarget(s.Get())
}
