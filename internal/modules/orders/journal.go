package orders

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/domain"
)

// DefaultHistoryLimit caps journal read-back; ReadRecent never returns more
const DefaultHistoryLimit = 200

// Journal is the append-only NDJSON order journal. One marshaled record per
// line, written with a single O_APPEND write so concurrent appends never
// interleave. The journal is the audit trail of every accepted signal, not
// a query store; read-back is bounded and newest-first.
type Journal struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
}

// NewJournal creates a journal backed by orders.jsonl in dataDir
func NewJournal(dataDir string, log zerolog.Logger) *Journal {
	return &Journal{
		path: filepath.Join(dataDir, "orders.jsonl"),
		log:  log.With().Str("component", "journal").Logger(),
	}
}

// Path returns the backing file path
func (j *Journal) Path() string {
	return j.path
}

// Append writes one record as a single NDJSON line
func (j *Journal) Append(record domain.JournalRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal journal record: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append journal record: %w", err)
	}
	return nil
}

// ReadRecent returns up to limit records, newest first. Corrupt lines are
// skipped with a warning rather than failing the whole read. A limit of 0
// or anything above DefaultHistoryLimit falls back to the default cap.
func (j *Journal) ReadRecent(limit int) ([]domain.JournalRecord, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.JournalRecord{}, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	var records []domain.JournalRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record domain.JournalRecord
		if err := json.Unmarshal(line, &record); err != nil {
			j.log.Warn().
				Int("line", lineNo).
				Err(err).
				Msg("Skipping corrupt journal line")
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan journal: %w", err)
	}

	// Newest first; ties keep file order stable
	sort.SliceStable(records, func(i, k int) bool {
		return records[i].Timestamp > records[k].Timestamp
	})

	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []domain.JournalRecord{}
	}
	return records, nil
}
