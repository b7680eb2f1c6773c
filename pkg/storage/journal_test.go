package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJournalAppendsAndResumes(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop().Sugar()

	j, err := OpenJournal(dir, log)
	require.NoError(t, err)

	ctx := context.Background()
	j.Announce(ctx, "BTC-USDT", "orderBookUpdate", map[string]string{"k": "v"})
	j.Announce(ctx, "BTC-USDT", "trade", map[string]string{"k": "v"})
	assert.Equal(t, uint64(2), j.Len())
	require.NoError(t, j.Close())

	// Reopen resumes the sequence instead of overwriting old records.
	j, err = OpenJournal(dir, log)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), j.Len())
	j.Announce(ctx, "BTC-USDT", "trade", nil)
	assert.Equal(t, uint64(3), j.Len())
	require.NoError(t, j.Close())
}

func TestJournalSwallowsUnmarshalableEvent(t *testing.T) {
	j, err := OpenJournal(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)
	defer j.Close()

	// Channels cannot be marshaled; the append is dropped, not fatal.
	j.Announce(context.Background(), "BTC-USDT", "trade", make(chan int))
	assert.Equal(t, uint64(0), j.Len())
}

func TestJournalDroppedAppendLeavesNoGap(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop().Sugar()

	j, err := OpenJournal(dir, log)
	require.NoError(t, err)

	ctx := context.Background()
	j.Announce(ctx, "BTC-USDT", "trade", map[string]string{"k": "v"})
	j.Announce(ctx, "BTC-USDT", "trade", make(chan int)) // dropped
	j.Announce(ctx, "BTC-USDT", "trade", map[string]string{"k": "v"})
	assert.Equal(t, uint64(2), j.Len())
	require.NoError(t, j.Close())

	// The sequence counts only durable records, so reopening lands on the
	// same value and the key space has no holes.
	j, err = OpenJournal(dir, log)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), j.Len())
	require.NoError(t, j.Close())
}
