package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ghakobyan/contactdesk/internal/database"
	"github.com/ghakobyan/contactdesk/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ManagerRepository handles database operations for manager accounts
type ManagerRepository struct {
	db *database.DB
}

// NewManagerRepository creates a new ManagerRepository
func NewManagerRepository(db *database.DB) *ManagerRepository {
	return &ManagerRepository{db: db}
}

// rowScanner interface for scanning manager rows (single row or result set)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanManagerRow(scanner rowScanner) (*models.Manager, error) {
	var m models.Manager
	err := scanner.Scan(&m.ID, &m.Login, &m.PasswordHash, &m.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &m, nil
}

// GetByLogin resolves a manager identity by login name
func (r *ManagerRepository) GetByLogin(ctx context.Context, login string) (*models.Manager, error) {
	query := `
		SELECT id, login, password_hash, created_at
		FROM managers WHERE login = $1
	`

	return scanManagerRow(r.db.Pool.QueryRow(ctx, query, login))
}

// List returns all managers ordered by creation time
func (r *ManagerRepository) List(ctx context.Context) ([]*models.Manager, error) {
	query := `
		SELECT id, login, password_hash, created_at
		FROM managers ORDER BY created_at
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query managers: %w", err)
	}

	return scanManagerRows(rows)
}

func scanManagerRows(rows pgx.Rows) ([]*models.Manager, error) {
	defer rows.Close()

	managers := make([]*models.Manager, 0)

	for rows.Next() {
		m, err := scanManagerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manager: %w", err)
		}
		managers = append(managers, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return managers, nil
}

// Create provisions a manager account. Used only by the bootstrap path;
// there is no public registration endpoint.
func (r *ManagerRepository) Create(ctx context.Context, manager *models.Manager) (*models.Manager, error) {
	manager.ID = uuid.New().String()
	manager.CreatedAt = time.Now()

	query := `
		INSERT INTO managers (id, login, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, login, password_hash, created_at
	`

	return scanManagerRow(r.db.Pool.QueryRow(ctx, query,
		manager.ID, manager.Login, manager.PasswordHash, manager.CreatedAt,
	))
}
