package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens (creating if necessary) the on-device sqlite database and
// initializes the schema. Use ":memory:" for an in-memory database in tests.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single-writer storage; one connection also keeps ":memory:" databases
	// from splitting across pool connections.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return db, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS completion_ledger (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		delivery_id  TEXT NOT NULL,
		amount       REAL NOT NULL,
		completed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_completed_at ON completion_ledger(completed_at);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}
