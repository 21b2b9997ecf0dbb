package mode

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/events"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), nil, zerolog.Nop())
}

func TestGetDefaultsToLocal(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, ModeLocal, store.Get())
}

func TestSetPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	store := NewStore(dir, nil, zerolog.Nop())
	target, err := store.Set("VPS")
	require.NoError(t, err)
	assert.Equal(t, ModeVPS, target.Mode)
	assert.Equal(t, 6002, target.Port)

	// A fresh store over the same directory sees the persisted value
	restarted := NewStore(dir, nil, zerolog.Nop())
	assert.Equal(t, ModeVPS, restarted.Get())
}

func TestSetLowercaseIsCanonicalized(t *testing.T) {
	store := newTestStore(t)

	target, err := store.Set("vps")
	require.NoError(t, err)
	assert.Equal(t, ModeVPS, target.Mode)
	assert.Equal(t, ModeVPS, store.Get())
}

func TestSetRejectsUnknownMode(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Set("BOGUS")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMode)

	// No file written, mode unchanged
	assert.Equal(t, ModeLocal, store.Get())
	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestCorruptFileDefaultsToLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "admin_mode.json"), []byte("{not json"), 0644))

	store := NewStore(dir, nil, zerolog.Nop())
	assert.Equal(t, ModeLocal, store.Get())
}

func TestGetPicksUpExternalFileChange(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil, zerolog.Nop())

	_, err := store.Set("LOCAL")
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, store.Get())

	// Simulate an out-of-band edit with a newer mtime
	path := filepath.Join(dir, "admin_mode.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mode":"VPS","updated_at":"2026-01-01T00:00:00Z"}`), 0644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Equal(t, ModeVPS, store.Get())
}

func TestGetDefaultsToLocalAfterFileRemoved(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil, zerolog.Nop())

	_, err := store.Set("VPS")
	require.NoError(t, err)
	assert.Equal(t, ModeVPS, store.Get())

	// Out-of-band deletion resets the mode, it never sticks to the cache
	require.NoError(t, os.Remove(store.Path()))
	assert.Equal(t, ModeLocal, store.Get())

	// A recreated file is picked up again
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"mode":"VPS","updated_at":"2026-01-01T00:00:00Z"}`), 0644))
	assert.Equal(t, ModeVPS, store.Get())
}

func TestResolveTargetTable(t *testing.T) {
	local := ResolveTarget(ModeLocal)
	assert.Equal(t, "127.0.0.1", local.Host)
	assert.Equal(t, 6001, local.Port)
	assert.Equal(t, "http://127.0.0.1:6001", local.BaseURL())

	vps := ResolveTarget(ModeVPS)
	assert.Equal(t, 6002, vps.Port)
	assert.Equal(t, "VPS IB gateway", vps.Label)
}

func TestSetEmitsModeChanged(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	var received *events.Event
	bus.Subscribe(events.ModeChanged, func(event *events.Event) {
		received = event
	})

	store := NewStore(t.TempDir(), bus, zerolog.Nop())

	_, err := store.Set("VPS")
	require.NoError(t, err)
	require.NotNil(t, received)
	assert.Equal(t, "VPS", received.Data["mode"])

	// Setting the same mode again does not re-emit
	received = nil
	_, err = store.Set("VPS")
	require.NoError(t, err)
	assert.Nil(t, received)
}
