package orders

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/domain"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	return NewJournal(t.TempDir(), zerolog.Nop())
}

func testRecord(id, symbol, ts string) domain.JournalRecord {
	return domain.JournalRecord{
		ID: id,
		OrderIntent: domain.OrderIntent{
			Symbol:    symbol,
			Side:      domain.SideBuy,
			Source:    "webhook",
			Timestamp: ts,
		},
	}
}

func TestJournalAppendAndReadBack(t *testing.T) {
	journal := newTestJournal(t)

	require.NoError(t, journal.Append(testRecord("1", "AAPL", "2026-08-01T10:00:00Z")))
	require.NoError(t, journal.Append(testRecord("2", "MSFT", "2026-08-01T11:00:00Z")))

	records, err := journal.ReadRecent(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first
	assert.Equal(t, "MSFT", records[0].Symbol)
	assert.Equal(t, "AAPL", records[1].Symbol)
}

func TestJournalReadRecentEmptyWhenMissing(t *testing.T) {
	journal := newTestJournal(t)

	records, err := journal.ReadRecent(10)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestJournalSkipsCorruptLines(t *testing.T) {
	journal := newTestJournal(t)

	require.NoError(t, journal.Append(testRecord("1", "AAPL", "2026-08-01T10:00:00Z")))

	// Inject a torn line between valid records
	f, err := os.OpenFile(journal.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"id\":\"torn\",\"sym\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, journal.Append(testRecord("2", "MSFT", "2026-08-01T11:00:00Z")))

	records, err := journal.ReadRecent(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "MSFT", records[0].Symbol)
}

func TestJournalReadRecentCap(t *testing.T) {
	journal := newTestJournal(t)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultHistoryLimit+30; i++ {
		ts := base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339)
		require.NoError(t, journal.Append(testRecord(fmt.Sprintf("%d", i), "AAPL", ts)))
	}

	// Limit 0 and oversized limits both clamp to the default cap
	records, err := journal.ReadRecent(0)
	require.NoError(t, err)
	assert.Len(t, records, DefaultHistoryLimit)

	records, err = journal.ReadRecent(10000)
	require.NoError(t, err)
	assert.Len(t, records, DefaultHistoryLimit)

	// Newest record is the last appended
	assert.Equal(t, fmt.Sprintf("%d", DefaultHistoryLimit+29), records[0].ID)
}

func TestJournalOneLinePerRecord(t *testing.T) {
	journal := newTestJournal(t)

	require.NoError(t, journal.Append(testRecord("1", "AAPL", "2026-08-01T10:00:00Z")))
	require.NoError(t, journal.Append(testRecord("2", "MSFT", "2026-08-01T11:00:00Z")))

	data, err := os.ReadFile(journal.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "{"))
		assert.True(t, strings.HasSuffix(line, "}"))
	}
}

func TestJournalConcurrentAppends(t *testing.T) {
	journal := newTestJournal(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = journal.Append(testRecord(fmt.Sprintf("%d", n), "AAPL", "2026-08-01T10:00:00Z"))
		}(i)
	}
	wg.Wait()

	records, err := journal.ReadRecent(50)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}
