// Package repository implements persistence over Postgres. It is the
// only layer that sees SQL or driver error codes; everything above it
// works with the canonical model types and the ledger error taxonomy.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bluewater/fleet-reservation/internal/ledger"
)

// ErrEmailExists is returned when inserting a user whose email is
// already registered. Handlers translate it into an HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// SQLSTATE codes we pattern-match. Everything else is passed through
// untouched so the handler layer logs it and answers with a generic
// server error.
const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

// mapWriteError translates constraint violations into the ledger's
// sentinels. The range-exclusion constraints on reservations are the
// real enforcement of the non-overlap invariant; the ledger's
// pre-checks only catch the common case.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeExclusionViolation:
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, ledger.ErrRangeConflict)
	case codeUniqueViolation:
		if pgErr.ConstraintName == "users_email_key" {
			return ErrEmailExists
		}
	}
	return err
}
