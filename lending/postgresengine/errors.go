package postgresengine

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/liblend/library-lending-go/lending"
)

// SQLSTATE codes the store reacts to; everything else surfaces as internal.
const (
	sqlstateUniqueViolation     = "23505"
	sqlstateForeignKeyViolation = "23503"
)

// translateStoreError is the single boundary mapping store-native errors to
// the typed error kinds of the lending package. Unique violations become
// field-specific conflicts, foreign key violations become in-use conflicts,
// anything else is internal. Both driver families are handled since the
// store supports pgx and lib/pq backed connections.
func translateStoreError(err error) error {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return translateSQLState(pgxErr.Code, pgxErr.ConstraintName, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return translateSQLState(string(pqErr.Code), pqErr.Constraint, err)
	}

	return errors.Join(lending.ErrInternal, err)
}

func translateSQLState(code string, constraint string, cause error) error {
	switch code {
	case sqlstateUniqueViolation:
		return lending.DuplicateFieldError(fieldFromConstraint(constraint))

	case sqlstateForeignKeyViolation:
		return lending.ErrRecordInUse

	default:
		return errors.Join(lending.ErrInternal, cause)
	}
}

// fieldFromConstraint derives the offending column from a default Postgres
// constraint name such as "books_isbn_key" or "users_email_key".
func fieldFromConstraint(constraint string) string {
	trimmed := strings.TrimSuffix(constraint, "_key")

	if idx := strings.Index(trimmed, "_"); idx >= 0 && idx+1 < len(trimmed) {
		return trimmed[idx+1:]
	}

	return "value"
}
