package store

import (
	"context"
	"fmt"

	"listmgmt/internal/platform/database"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS lists (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		type VARCHAR(255) NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS list_items (
		id BIGSERIAL PRIMARY KEY,
		list_id BIGINT NOT NULL REFERENCES lists(id),
		value VARCHAR(255) NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_by VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_by VARCHAR(255) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_list_items_value_list ON list_items (value, list_id)`,
	`CREATE INDEX IF NOT EXISTS idx_list_items_deleted_list ON list_items (is_deleted, list_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS lists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(255) NOT NULL UNIQUE,
		type VARCHAR(255) NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS list_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		list_id INTEGER NOT NULL REFERENCES lists(id),
		value VARCHAR(255) NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_by VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_by VARCHAR(255) NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_list_items_value_list ON list_items (value, list_id)`,
	`CREATE INDEX IF NOT EXISTS idx_list_items_deleted_list ON list_items (is_deleted, list_id)`,
}

// Migrate creates the tables and indexes if they do not exist. Statements run
// one at a time because not every driver accepts multi-statement strings.
func (s *SQLStore) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if s.dialect == database.DialectSQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", database.Classify(err))
		}
	}
	return nil
}
