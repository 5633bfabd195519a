package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Database drivers. SQLite is the development default, Postgres the
	// production target.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL flavor used for schema creation and query
// construction.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Placeholder returns the bind marker for the n-th parameter (1-based).
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// DB is the subset of *sql.DB the repository needs. Satisfied by *sql.DB and
// *sql.Tx.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// OpenOptions holds connection settings for Open.
type OpenOptions struct {
	Dialect         Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens a database connection for the given dialect.
func Open(opts OpenOptions) (*sql.DB, error) {
	var driver string
	switch opts.Dialect {
	case DialectSQLite:
		driver = "sqlite3"
	case DialectPostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database dialect: %s", opts.Dialect)
	}

	db, err := sql.Open(driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return db, nil
}

// EnsureSchema creates the movies table if it does not exist.
func EnsureSchema(ctx context.Context, db DB, dialect Dialect) error {
	var ddl string
	switch dialect {
	case DialectPostgres:
		ddl = `
			CREATE TABLE IF NOT EXISTS movies (
				id BIGINT PRIMARY KEY,
				title TEXT NOT NULL,
				overview TEXT,
				release_date DATE,
				popularity DOUBLE PRECISION NOT NULL DEFAULT 0,
				vote_average DOUBLE PRECISION NOT NULL DEFAULT 0,
				adult BOOLEAN NOT NULL DEFAULT FALSE,
				original_language TEXT NOT NULL DEFAULT ''
			)`
	case DialectSQLite:
		ddl = `
			CREATE TABLE IF NOT EXISTS movies (
				id INTEGER PRIMARY KEY,
				title TEXT NOT NULL,
				overview TEXT,
				release_date DATE,
				popularity REAL NOT NULL DEFAULT 0,
				vote_average REAL NOT NULL DEFAULT 0,
				adult BOOLEAN NOT NULL DEFAULT 0,
				original_language TEXT NOT NULL DEFAULT ''
			)`
	default:
		return fmt.Errorf("unsupported database dialect: %s", dialect)
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create movies table: %w", err)
	}
	return nil
}
