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

// ContactRepository handles database operations for contact records
type ContactRepository struct {
	db *database.DB
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *database.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func scanContactRow(scanner rowScanner) (*models.Contact, error) {
	var c models.Contact
	err := scanner.Scan(&c.ID, &c.Name, &c.Phone, &c.SentAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func scanContactRows(rows pgx.Rows) ([]*models.Contact, error) {
	defer rows.Close()

	contacts := make([]*models.Contact, 0)

	for rows.Next() {
		c, err := scanContactRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return contacts, nil
}

// List returns contacts ordered by submission time, newest first
func (r *ContactRepository) List(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	query := `
		SELECT id, name, phone, sent_at, notes, created_at, updated_at
		FROM contacts ORDER BY sent_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}

	return scanContactRows(rows)
}

// GetByPhone returns the contact holding a phone number, or ErrNotFound
func (r *ContactRepository) GetByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	query := `
		SELECT id, name, phone, sent_at, notes, created_at, updated_at
		FROM contacts WHERE phone = $1
	`

	return scanContactRow(r.db.Pool.QueryRow(ctx, query, phone))
}

// Create inserts a new contact. The unique index on phone turns duplicate
// submissions into ErrConflict.
func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	contact.ID = uuid.New().String()

	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	query := `
		INSERT INTO contacts (id, name, phone, sent_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, phone, sent_at, notes, created_at, updated_at
	`

	return scanContactRow(r.db.Pool.QueryRow(ctx, query,
		contact.ID, contact.Name, contact.Phone, contact.SentAt, contact.Notes,
		contact.CreatedAt, contact.UpdatedAt,
	))
}

// UpdateBatch applies a set of contact updates in one transaction, so a
// partial bulk update never persists.
func (r *ContactRepository) UpdateBatch(ctx context.Context, contacts []*models.Contact) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE contacts
			SET name = $1, phone = $2, sent_at = COALESCE($3, sent_at), notes = $4, updated_at = $5
			WHERE id = $6
		`

		now := time.Now()
		for _, c := range contacts {
			// A zero SentAt means the update leaves the submission time alone
			var sentAt interface{}
			if !c.SentAt.IsZero() {
				sentAt = c.SentAt
			}

			tag, err := tx.Exec(ctx, query, c.Name, c.Phone, sentAt, c.Notes, now, c.ID)
			if err != nil {
				return database.MapPostgresError(err)
			}
			if tag.RowsAffected() == 0 {
				return models.ErrNotFound
			}
		}
		return nil
	})
}

// Delete removes a contact by ID
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM contacts WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
