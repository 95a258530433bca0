package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

const (
	itemsTable   = "items"
	storesTable  = "stores"
	recordsTable = "records"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id BIGSERIAL PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS items_owner_id_idx ON items (owner_id)`,
	`CREATE TABLE IF NOT EXISTS stores (
		id BIGSERIAL PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS stores_owner_id_idx ON stores (owner_id)`,
	`CREATE TABLE IF NOT EXISTS records (
		id BIGSERIAL PRIMARY KEY,
		owner_id TEXT NOT NULL,
		item_id BIGINT NOT NULL REFERENCES items (id),
		store_id BIGINT NOT NULL REFERENCES stores (id),
		price NUMERIC(14, 2) NOT NULL CHECK (price > 0),
		purchase_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS records_owner_item_idx ON records (owner_id, item_id)`,
	`CREATE INDEX IF NOT EXISTS records_owner_date_idx ON records (owner_id, purchase_date)`,
}

// SQLite keeps prices and dates as text; both round-trip through decimal and
// YYYY-MM-DD without loss and compare correctly as strings.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS items_owner_id_idx ON items (owner_id)`,
	`CREATE TABLE IF NOT EXISTS stores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS stores_owner_id_idx ON stores (owner_id)`,
	`CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		item_id INTEGER NOT NULL REFERENCES items (id),
		store_id INTEGER NOT NULL REFERENCES stores (id),
		price TEXT NOT NULL,
		purchase_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS records_owner_item_idx ON records (owner_id, item_id)`,
	`CREATE INDEX IF NOT EXISTS records_owner_date_idx ON records (owner_id, purchase_date)`,
}

// Migrate creates the tables when they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	var stmts []string
	switch db.Dialect() {
	case dialect.Postgres:
		stmts = postgresSchema
	case dialect.SQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("no schema for dialect %q", db.Dialect())
	}
	for _, stmt := range stmts {
		if err := db.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			db.logger.Error("failed to apply schema", "dialect", db.Dialect(), "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	db.logger.Info("schema ready", "dialect", db.Dialect(), "statements", len(stmts))
	return nil
}

// Tables lists the tables Migrate manages.
func Tables() []string {
	return []string{itemsTable, storesTable, recordsTable}
}
