package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = map[string][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS sample_plugin_coursearchivestatus (
	id BIGSERIAL PRIMARY KEY,
	course_id VARCHAR(255) NOT NULL,
	user_id BIGINT NOT NULL,
	is_archived BOOLEAN NOT NULL DEFAULT FALSE,
	archive_date TIMESTAMPTZ NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT sample_plugin_coursearchivestatus_course_user_uniq UNIQUE (course_id, user_id)
)`,
		`CREATE INDEX IF NOT EXISTS sample_plugin_coursearchivestatus_user_idx ON sample_plugin_coursearchivestatus (user_id)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS sample_plugin_coursearchivestatus (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	course_id TEXT NOT NULL,
	user_id INTEGER NOT NULL,
	is_archived BOOLEAN NOT NULL DEFAULT 0,
	archive_date TIMESTAMP NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE (course_id, user_id)
)`,
		`CREATE INDEX IF NOT EXISTS sample_plugin_coursearchivestatus_user_idx ON sample_plugin_coursearchivestatus (user_id)`,
	},
}

// Migrate creates the plugin tables for the connected driver.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements, ok := schema[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
