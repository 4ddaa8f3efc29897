// Package pg implements jobboard.Store on PostgreSQL through database/sql and
// the pgx stdlib driver. Unique fields are backed by unique indexes; the
// reference lists (company job ids, job application ids) are text[] columns
// maintained with array_append/array_remove.
package pg

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"jobsearch.app/internal/jobboard"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ jobboard.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db), nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Users(context.Context) jobboard.UserStore { return users{s} }

func (s *Store) Companies(context.Context) jobboard.CompanyStore { return companies{s} }

func (s *Store) Jobs(context.Context) jobboard.JobStore { return jobs{s} }

func (s *Store) Applications(context.Context) jobboard.ApplicationStore { return applications{s} }

func (s *Store) stamp() time.Time { return s.now().UTC() }

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func rowsAffected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
