package errors

// Postgres-specific helpers for mapping pgx errors to project ErrorCode

import (
	stderrs "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Common SQLSTATE codes we care about
const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
	pgErrNotNullViolation    = "23502"
	pgErrCheckViolation      = "23514"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError.
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsNoRows reports whether the error is a no-rows scan result
func IsNoRows(err error) bool { return stderrs.Is(Root(err), pgx.ErrNoRows) }

// IsDuplicateKey reports whether the error is a unique constraint violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, pgErrUniqueViolation) }

// IsForeignKeyViolation reports whether the error is a foreign key constraint violation
func IsForeignKeyViolation(err error) bool { return IsSQLState(err, pgErrForeignKeyViolation) }

// FromPG maps a Postgres error into a project *Error
// non-PG errors are wrapped as generic DB errors
func FromPG(err error) error {
	if err == nil {
		return nil
	}
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return Wrap(err, ErrorCodeDB, "database error")
	}
	switch pgErr.Code {
	case pgErrUniqueViolation:
		return Wrap(err, ErrorCodeDuplicateKey, "duplicate key")
	case pgErrForeignKeyViolation, pgErrNotNullViolation, pgErrCheckViolation:
		return Wrap(err, ErrorCodeValidation, pgErr.Message)
	default:
		return Wrap(err, ErrorCodeDB, pgErr.Message)
	}
}
