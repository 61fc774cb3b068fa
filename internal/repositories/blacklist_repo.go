package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ghakobyan/contactdesk/internal/database"
	"github.com/ghakobyan/contactdesk/internal/models"
)

// BlacklistRepository handles database operations for the IP blacklist
type BlacklistRepository struct {
	db *database.DB
}

// NewBlacklistRepository creates a new BlacklistRepository
func NewBlacklistRepository(db *database.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Get returns the blacklist entry for an IP, or nil when the IP is not
// blacklisted. Expiry policy is owned by the caller; the store is pure I/O.
func (r *BlacklistRepository) Get(ctx context.Context, ip string) (*models.BlacklistEntry, error) {
	query := `
		SELECT ip_address, added_at FROM ip_blacklist WHERE ip_address = $1
	`

	var entry models.BlacklistEntry
	err := r.db.Pool.QueryRow(ctx, query, ip).Scan(&entry.IPAddress, &entry.AddedAt)
	if err != nil {
		if mapped := database.MapPostgresError(err); errors.Is(mapped, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Add blacklists an IP, refreshing added_at when a row already exists. The
// gate only triggers an add when no live entry covered the IP at check time,
// so a conflicting row is an expired leftover the sweeper has not removed
// yet; keeping its stale timestamp would make the new ban dead on arrival.
func (r *BlacklistRepository) Add(ctx context.Context, ip string, at time.Time) error {
	query := `
		INSERT INTO ip_blacklist (ip_address, added_at)
		VALUES ($1, $2)
		ON CONFLICT (ip_address) DO UPDATE SET added_at = EXCLUDED.added_at
	`

	_, err := r.db.Pool.Exec(ctx, query, ip, at)
	return database.MapPostgresError(err)
}

// DeleteExpired removes entries added before the cutoff. Only the background
// sweeper calls this, and only when a blacklist TTL is configured.
func (r *BlacklistRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM ip_blacklist WHERE added_at < $1`

	tag, err := r.db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
