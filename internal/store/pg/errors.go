package pg

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"jobsearch.app/internal/jobboard"
)

const pgErrUniqueViolation = "23505"

// uniqueFields maps unique index names from the migrations to the field
// names reported in conflicts.
var uniqueFields = map[string]struct{ entity, field string }{
	"users_email_key":         {"user", "email"},
	"users_mobile_number_key": {"user", "mobileNumber"},
	"companies_name_key":      {"company", "companyName"},
	"companies_email_key":     {"company", "companyEmail"},
	"jobs_title_key":          {"job", "jobTitle"},
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// translate turns driver errors into jobboard errors: no rows becomes
// ErrNotFound and unique violations become *ConflictError.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return jobboard.ErrNotFound
	}
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
		if f, ok := uniqueFields[pgErr.ConstraintName]; ok {
			return &jobboard.ConflictError{Entity: f.entity, Fields: []string{f.field}}
		}
		return &jobboard.ConflictError{Entity: pgErr.TableName}
	}
	return err
}
