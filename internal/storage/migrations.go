package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT NOT NULL UNIQUE,
					email TEXT NOT NULL UNIQUE,
					role TEXT NOT NULL DEFAULT 'citizen',
					points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
					created_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS waste_classifications (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					waste_type TEXT NOT NULL UNIQUE,
					decomposition_time_days INTEGER NOT NULL CHECK (decomposition_time_days >= 0),
					priority_level INTEGER NOT NULL CHECK (priority_level IN (1, 2, 3)),
					description TEXT
				)`,

				`CREATE TABLE IF NOT EXISTS reports (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER REFERENCES users(id),
					latitude REAL NOT NULL,
					longitude REAL NOT NULL,
					address TEXT,
					image_url TEXT,
					waste_type TEXT NOT NULL,
					manual_classification TEXT,
					confidence_score REAL NOT NULL DEFAULT 0 CHECK (confidence_score >= 0 AND confidence_score <= 100),
					description TEXT,
					status TEXT NOT NULL DEFAULT 'pending',
					priority INTEGER NOT NULL CHECK (priority IN (1, 2, 3)),
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					resolved_at DATETIME
				)`,
				`CREATE INDEX idx_reports_status ON reports(status)`,
				`CREATE INDEX idx_reports_priority ON reports(priority)`,
				`CREATE INDEX idx_reports_user ON reports(user_id)`,

				`CREATE TABLE IF NOT EXISTS rewards (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					description TEXT,
					points_required INTEGER NOT NULL CHECK (points_required > 0),
					image_url TEXT,
					created_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS reward_redemptions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id),
					reward_id INTEGER NOT NULL REFERENCES rewards(id),
					point_cost INTEGER NOT NULL CHECK (point_cost > 0),
					redemption_code TEXT UNIQUE,
					redeemed_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_redemptions_user ON reward_redemptions(user_id)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add point ledger",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS point_ledger (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id),
					report_id INTEGER REFERENCES reports(id),
					event TEXT NOT NULL,
					waste_type TEXT,
					points INTEGER NOT NULL CHECK (points >= 0),
					balance_after INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					UNIQUE (report_id, event)
				)`,
				`CREATE INDEX idx_point_ledger_user ON point_ledger(user_id)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add notifications",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS notifications (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id),
					report_id INTEGER REFERENCES reports(id),
					type TEXT NOT NULL,
					title TEXT NOT NULL,
					message TEXT NOT NULL,
					extra_data TEXT,
					is_read INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					read_at DATETIME
				)`,
				`CREATE INDEX idx_notifications_user_read ON notifications(user_id, is_read)`,
			})
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the schema version stored in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
