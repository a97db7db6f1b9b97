// Package sqldb is the relational staging store, backed by Postgres in
// production and SQLite for local runs.
package sqldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"joconde_watcher/internal/config"
)

func init() {
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// Open connects and pings the configured database.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// One connection: SQLite serializes writers and the batch
		// transaction must not wait on a second pooled connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	return db, nil
}

// EnsureSchema creates the staging table (and its Postgres schema) if missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB, table string) error {
	var stmts []string

	switch db.DriverName() {
	case config.DriverSQLite:
		stmts = append(stmts, fmt.Sprintf(sqliteTableDDL, table))
	default:
		if schema, _, ok := strings.Cut(table, "."); ok {
			stmts = append(stmts, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema))
		}
		stmts = append(stmts, fmt.Sprintf(postgresTableDDL, table))
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema for %s: %w", table, err)
		}
	}
	return nil
}

const postgresTableDDL = `
	CREATE TABLE IF NOT EXISTS %s (
		id                 BIGSERIAL PRIMARY KEY,
		reference          TEXT NOT NULL,
		appellation        TEXT,
		auteur             TEXT,
		date_creation      TEXT,
		denomination       TEXT,
		region             TEXT,
		departement        TEXT,
		ville              TEXT,
		description        TEXT,
		source_file        TEXT,
		run_id             TEXT,
		source_system      TEXT,
		load_process       TEXT,
		load_timestamp_utc TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

const sqliteTableDDL = `
	CREATE TABLE IF NOT EXISTS %s (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		reference          TEXT NOT NULL,
		appellation        TEXT,
		auteur             TEXT,
		date_creation      TEXT,
		denomination       TEXT,
		region             TEXT,
		departement        TEXT,
		ville              TEXT,
		description        TEXT,
		source_file        TEXT,
		run_id             TEXT,
		source_system      TEXT,
		load_process       TEXT,
		load_timestamp_utc TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
