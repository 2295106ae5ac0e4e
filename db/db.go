package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type DB struct {
	*sql.DB

	driver string
}

type Config struct {
	// Driver is "sqlite" (default) or "pgx".
	Driver  string `yaml:"driver"`
	ConnStr string `yaml:"conn_str"`
}

func New(ctx context.Context, cfg *Config) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	conn, err := sql.Open(driver, cfg.ConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if driver == DriverSQLite {
		// one writer, the rest wait on busy_timeout
		conn.SetMaxOpenConns(1)
	}

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	db := &DB{
		DB:     conn,
		driver: driver,
	}

	if err := db.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	if db.driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, `
			PRAGMA busy_timeout = 10000;
			PRAGMA journal_mode = WAL;
			PRAGMA synchronous  = NORMAL;
		`); err != nil {
			return fmt.Errorf("failed to set sqlite pragmas: %w", err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}

	return nil
}

var schema = []string{`
	create table if not exists viseme_requests (
		id             text primary key,
		language       text not null,
		audio_filename text not null,
		alignment_key  text not null,
		transcript     text not null,
		status         text not null,
		error          text not null default '',
		cached         integer not null default 0,
		processing_ms  bigint not null default 0,
		created_at     bigint not null,
		finished_at    bigint
	)`, `
	create index if not exists viseme_requests_created_at on viseme_requests (created_at)`, `
	create table if not exists alignments (
		cache_key  text primary key,
		language   text not null,
		alignment  text not null,
		created_at bigint not null
	)`,
}
