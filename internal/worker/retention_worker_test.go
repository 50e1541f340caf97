package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemiadeola/openbanking-pisp/internal/idempotency"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedRecords(t *testing.T, store idempotency.Store, n int, lockedAt time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := store.Insert(context.Background(), &idempotency.Record{
			Endpoint:    "domestic-payments",
			APIClientID: "tpp-1",
			Key:         fmt.Sprintf("key-%d-%d", lockedAt.UnixNano(), i),
			RequestHash: "hash",
			LockedAt:    lockedAt,
		}, lockedAt.Add(-time.Hour))
		require.NoError(t, err)
	}
}

func TestPurgeExpired_RemovesOnlyAgedRecords(t *testing.T) {
	store := idempotency.NewMemoryStore()
	retention := time.Hour

	seedRecords(t, store, 3, time.Now().Add(-2*time.Hour))
	seedRecords(t, store, 2, time.Now())

	w := NewRetentionWorker(store, retention, time.Minute, testLogger())
	require.NoError(t, w.purgeExpired(context.Background()))

	// A second pass finds nothing left to delete.
	deleted, err := store.DeleteExpired(context.Background(), time.Now().Add(-retention), purgeBatchSize)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	// The fresh records survive.
	remaining, err := store.DeleteExpired(context.Background(), time.Now().Add(time.Minute), purgeBatchSize)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestPurgeExpired_DrainsInBatches(t *testing.T) {
	store := idempotency.NewMemoryStore()

	seedRecords(t, store, purgeBatchSize+25, time.Now().Add(-2*time.Hour))

	w := NewRetentionWorker(store, time.Hour, time.Minute, testLogger())
	require.NoError(t, w.purgeExpired(context.Background()))

	deleted, err := store.DeleteExpired(context.Background(), time.Now(), purgeBatchSize)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	store := idempotency.NewMemoryStore()
	w := NewRetentionWorker(store, time.Hour, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
