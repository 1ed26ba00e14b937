// Package storage holds the Postgres repositories of the site-service.
// Repositories return pgx errors unchanged; callers classify them with the
// helpers in libs/db.
package storage

import (
	"context"
	_ "embed"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var Schema string

const (
	ConstraintSlug       = "businesses_slug_key"
	ConstraintActiveSlot = "appointments_active_slot_key"
	ConstraintUserEmail  = "users_email_key"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
