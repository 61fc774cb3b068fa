package background

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredEntryStore is the slice of the blacklist store the sweeper needs
type ExpiredEntryStore interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// BlacklistSweeper periodically removes blacklist entries that have outlived
// the configured TTL. The login gate already treats expired entries as
// absent, so the sweeper is housekeeping, not enforcement.
type BlacklistSweeper struct {
	store    ExpiredEntryStore
	logger   *slog.Logger
	ttl      time.Duration
	interval time.Duration
	stopCh   chan struct{}
}

// NewBlacklistSweeper creates a new sweeper. A zero TTL means entries are
// permanent and the sweeper should not be started at all.
func NewBlacklistSweeper(
	store ExpiredEntryStore,
	logger *slog.Logger,
	ttl time.Duration,
	interval time.Duration,
) *BlacklistSweeper {
	return &BlacklistSweeper{
		store:    store,
		logger:   logger,
		ttl:      ttl,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (s *BlacklistSweeper) Start(ctx context.Context) {
	if s.ttl <= 0 {
		s.logger.Info("blacklist entries are permanent, sweeper not running")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on startup
	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopCh:
			s.logger.Info("blacklist sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("blacklist sweeper context cancelled")
			return
		}
	}
}

// runSweep removes entries added before now minus the TTL
func (s *BlacklistSweeper) runSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.ttl)
	rowsDeleted, err := s.store.DeleteExpired(sweepCtx, cutoff)
	if err != nil {
		s.logger.Error("failed to sweep expired blacklist entries", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		s.logger.Info("expired blacklist entries removed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the sweeper to stop
func (s *BlacklistSweeper) Stop() {
	close(s.stopCh)
}
