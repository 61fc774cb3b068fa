package database

import (
	"context"
	"errors"

	"github.com/ghakobyan/contactdesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapPostgresError translates pgx errors into the sentinel errors the
// service layer matches on. Anything unmapped passes through untouched.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	if pgErr, ok := err.(*pgconn.PgError); ok {
		switch pgErr.Code {
		case "23505":
			// unique_violation: a duplicate contact phone, manager login,
			// or (ip_address, device) ledger key
			return models.ErrConflict
		case "23503":
			// foreign_key_violation: a ledger write stamped with a manager
			// id that was deleted between resolution and the upsert
			return models.ErrBadRequest
		}
	}

	return err
}

// WithTransaction runs fn inside a transaction, rolling back on error or
// panic. Bulk contact updates go through this so a partial batch never lands.
func (db *DB) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}
