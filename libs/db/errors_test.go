package db

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifiesWrappedErrors(t *testing.T) {
	uniq := fmt.Errorf("insert business: %w", &pgconn.PgError{Code: "23505", ConstraintName: "businesses_slug_key"})
	if !IsUniqueViolation(uniq) {
		t.Fatalf("expected unique violation")
	}
	if ConstraintName(uniq) != "businesses_slug_key" {
		t.Fatalf("unexpected constraint %q", ConstraintName(uniq))
	}
	if IsForeignKeyViolation(uniq) {
		t.Fatalf("unique violation misclassified")
	}
	if !IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)) {
		t.Fatalf("expected not found")
	}
	if ConstraintName(pgx.ErrNoRows) != "" {
		t.Fatalf("expected empty constraint name")
	}
}
