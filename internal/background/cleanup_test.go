package background

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockExpiredEntryStore struct {
	calls   atomic.Int32
	deleted int64
}

func (m *mockExpiredEntryStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	m.calls.Add(1)
	return m.deleted, nil
}

func TestBlacklistSweeper_PermanentEntriesSkipSweeping(t *testing.T) {
	store := &mockExpiredEntryStore{}
	sweeper := NewBlacklistSweeper(store, slog.Default(), 0, time.Minute)

	done := make(chan struct{})
	go func() {
		sweeper.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper should return immediately when TTL is zero")
	}
	assert.Equal(t, int32(0), store.calls.Load())
}

func TestBlacklistSweeper_SweepsOnStartup(t *testing.T) {
	store := &mockExpiredEntryStore{deleted: 3}
	sweeper := NewBlacklistSweeper(store, slog.Default(), time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	// The first sweep runs before the first tick
	assert.Eventually(t, func() bool {
		return store.calls.Load() >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestBlacklistSweeper_StopTerminates(t *testing.T) {
	store := &mockExpiredEntryStore{}
	sweeper := NewBlacklistSweeper(store, slog.Default(), time.Hour, time.Hour)

	done := make(chan struct{})
	go func() {
		sweeper.Start(context.Background())
		close(done)
	}()

	// Give the startup sweep a moment, then stop
	assert.Eventually(t, func() bool {
		return store.calls.Load() >= 1
	}, time.Second, 10*time.Millisecond)
	sweeper.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
