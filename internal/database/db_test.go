package database

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/ghakobyan/contactdesk/internal/models"
)

func TestMapPostgresError(t *testing.T) {
	passthrough := errors.New("connection reset by peer")
	unmappedPg := &pgconn.PgError{Code: "53300"} // too_many_connections

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "no rows", in: pgx.ErrNoRows, want: models.ErrNotFound},
		{name: "unique violation", in: &pgconn.PgError{Code: "23505"}, want: models.ErrConflict},
		{name: "foreign key violation", in: &pgconn.PgError{Code: "23503"}, want: models.ErrBadRequest},
		{name: "unmapped pg error passes through", in: unmappedPg, want: unmappedPg},
		{name: "non-pg error passes through", in: passthrough, want: passthrough},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapPostgresError(tt.in))
		})
	}
}
