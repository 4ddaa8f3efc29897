// Package migrate applies the embedded SQL schema with golang-migrate.
package migrate

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"jobsearch.app/internal/obs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

const defaultMigrationsTable = "schema_migrations"

// Manager runs schema migrations against a database it does not own: it
// never closes db.
type Manager struct {
	db              *sql.DB
	migrationsTable string
}

// Option configures Manager.
type Option func(*Manager)

// WithMigrationsTable overrides the default migrations bookkeeping table.
func WithMigrationsTable(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.migrationsTable = name
		}
	}
}

func NewManager(db *sql.DB, opts ...Option) *Manager {
	m := &Manager{db: db, migrationsTable: defaultMigrationsTable}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status describes the schema version of a database.
type Status struct {
	Version uint
	Dirty   bool
	Latest  uint
}

func (s Status) String() string {
	switch {
	case s.Dirty:
		return fmt.Sprintf("version %d (dirty, latest %d)", s.Version, s.Latest)
	case s.Version == s.Latest:
		return fmt.Sprintf("version %d (up to date)", s.Version)
	default:
		return fmt.Sprintf("version %d (latest %d, %d pending)", s.Version, s.Latest, s.Latest-s.Version)
	}
}

func (m *Manager) instance() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("open migration files: %w", err)
	}
	driver, err := pgx.WithInstance(m.db, &pgx.Config{MigrationsTable: m.migrationsTable})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("create database driver: %w", err)
	}
	mg, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	mg.Log = migrateLogger{}
	return mg, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (m *Manager) Up() error {
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back n migrations, or all of them when n <= 0.
func (m *Manager) Down(n int) error {
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if n <= 0 {
		err = mg.Down()
	} else {
		err = mg.Steps(-n)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Force records version as applied and clears the dirty flag.
func (m *Manager) Force(version int) error {
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if err := mg.Force(version); err != nil {
		return fmt.Errorf("migrate force %d: %w", version, err)
	}
	return nil
}

// Status reports the applied and latest available versions. A database with
// no migrations applied has version 0.
func (m *Manager) Status() (Status, error) {
	latest, err := Latest()
	if err != nil {
		return Status{}, err
	}
	mg, err := m.instance()
	if err != nil {
		return Status{}, err
	}
	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, fmt.Errorf("read schema version: %w", err)
	}
	return Status{Version: version, Dirty: dirty, Latest: latest}, nil
}

// Check fails unless the database is exactly at the latest version.
func (m *Manager) Check() error {
	st, err := m.Status()
	if err != nil {
		return err
	}
	if st.Dirty || st.Version != st.Latest {
		return fmt.Errorf("schema not current: %s", st)
	}
	return nil
}

// Latest returns the highest migration version embedded in the binary.
func Latest() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("open migration files: %w", err)
	}
	defer src.Close()
	return latestVersion(src)
}

func latestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(version)
		if err != nil {
			return version, nil
		}
		version = next
	}
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	obs.Logger().WithField("component", "migrate").Infof(format, v...)
}

func (migrateLogger) Verbose() bool { return false }
