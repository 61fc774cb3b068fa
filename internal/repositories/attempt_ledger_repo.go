package repositories

import (
	"context"
	"time"

	"github.com/ghakobyan/contactdesk/internal/database"
	"github.com/ghakobyan/contactdesk/internal/models"
	"github.com/google/uuid"
)

// AttemptLedgerRepository handles database operations for the per-(IP, device)
// login attempt ledger. The table has a unique key on (ip_address, device),
// so every mutation here is a single-row upsert.
type AttemptLedgerRepository struct {
	db *database.DB
}

// NewAttemptLedgerRepository creates a new AttemptLedgerRepository
func NewAttemptLedgerRepository(db *database.DB) *AttemptLedgerRepository {
	return &AttemptLedgerRepository{db: db}
}

func scanAttemptRow(scanner rowScanner) (*models.LoginAttempt, error) {
	var a models.LoginAttempt
	err := scanner.Scan(&a.ID, &a.ManagerID, &a.Device, &a.IPAddress, &a.AttemptedAt, &a.FailureCount)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &a, nil
}

// Get returns the ledger record for an (IP, device) pair, or ErrNotFound.
func (r *AttemptLedgerRepository) Get(ctx context.Context, ip, device string) (*models.LoginAttempt, error) {
	query := `
		SELECT id, manager_id, device, ip_address, attempted_at, failure_count
		FROM login_attempts
		WHERE ip_address = $1 AND device = $2
	`

	return scanAttemptRow(r.db.Pool.QueryRow(ctx, query, ip, device))
}

// Touch records that an attempt was seen from the pair: it creates the
// record with a zero failure count if absent, and updates the last-seen
// timestamp and resolved manager id either way.
func (r *AttemptLedgerRepository) Touch(ctx context.Context, ip, device string, managerID *string, at time.Time) (*models.LoginAttempt, error) {
	query := `
		INSERT INTO login_attempts (id, manager_id, device, ip_address, attempted_at, failure_count)
		VALUES ($1, $2, $3, $4, $5, 0)
		ON CONFLICT (ip_address, device) DO UPDATE SET
			attempted_at = EXCLUDED.attempted_at,
			manager_id = COALESCE(EXCLUDED.manager_id, login_attempts.manager_id)
		RETURNING id, manager_id, device, ip_address, attempted_at, failure_count
	`

	return scanAttemptRow(r.db.Pool.QueryRow(ctx, query,
		uuid.New().String(), managerID, device, ip, at,
	))
}

// RecordFailure increments the pair's consecutive-failure count and returns
// the incremented value. The increment runs as a single conditional upsert
// so concurrent failures from the same pair cannot lose updates.
func (r *AttemptLedgerRepository) RecordFailure(ctx context.Context, ip, device string, at time.Time) (int, error) {
	query := `
		INSERT INTO login_attempts (id, device, ip_address, attempted_at, failure_count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (ip_address, device) DO UPDATE SET
			failure_count = login_attempts.failure_count + 1,
			attempted_at = EXCLUDED.attempted_at
		RETURNING failure_count
	`

	var count int
	err := r.db.Pool.QueryRow(ctx, query, uuid.New().String(), device, ip, at).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// ResetFailures zeroes the pair's consecutive-failure count after a
// successful login. The record itself is kept as an audit trail.
func (r *AttemptLedgerRepository) ResetFailures(ctx context.Context, ip, device string, at time.Time) error {
	query := `
		UPDATE login_attempts
		SET failure_count = 0, attempted_at = $3
		WHERE ip_address = $1 AND device = $2
	`

	_, err := r.db.Pool.Exec(ctx, query, ip, device, at)
	return database.MapPostgresError(err)
}
