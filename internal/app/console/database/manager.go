// Package database opens the local cache database and keeps its schema
// migrated. SQLite is the default; a shared Postgres database can be used
// when several operators should see the same discovery history.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed goose/*.sql
var embedMigrations embed.FS

// Driver represents a supported database driver
type Driver string

const (
	DriverSQLite   Driver = "sqlite3"
	DriverPostgres Driver = "pgx"
)

// Config holds database connection configuration
type Config struct {
	Driver Driver
	DSN    string
}

// Manager handles database connections and migrations
type Manager struct {
	db      *sql.DB
	driver  Driver
	queries Queries
}

// NewManager creates a new database manager and runs migrations.
func NewManager(cfg Config) (*Manager, error) {
	db, err := sql.Open(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	configureConnectionPool(db, cfg.Driver)

	if err := runMigrations(db, cfg.Driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	queries, err := newQueries(cfg.Driver, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Manager{
		db:      db,
		driver:  cfg.Driver,
		queries: queries,
	}, nil
}

func configureConnectionPool(db *sql.DB, driver Driver) {
	switch driver {
	case DriverSQLite:
		// SQLite does not handle multiple concurrent writers well.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(time.Hour)
	case DriverPostgres:
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
}

func runMigrations(db *sql.DB, driver Driver) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(gooseDialect(driver)); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "goose"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func gooseDialect(driver Driver) string {
	switch driver {
	case DriverPostgres:
		return "postgres"
	default:
		return "sqlite3"
	}
}

// Queries returns the driver-specific queries.
func (m *Manager) Queries() Queries {
	return m.queries
}

// Driver returns the driver the manager was opened with.
func (m *Manager) Driver() Driver {
	return m.driver
}

// DB returns the underlying database connection
func (m *Manager) DB() *sql.DB {
	return m.db
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
