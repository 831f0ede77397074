package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"k8s.io/klog/v2"
)

// Migration represents one step of the run journal schema
type Migration struct {
	Version     int
	Description string
	Up          func(*sqlx.DB) error
	Down        func(*sqlx.DB) error
}

// Migrator applies journal migrations in version order
type Migrator struct {
	db         *sqlx.DB
	migrations []Migration
}

// NewMigrator creates a new journal migrator
func NewMigrator(db *sqlx.DB) *Migrator {
	migrator := &Migrator{
		db:         db,
		migrations: []Migration{},
	}
	migrator.addMigrations()
	return migrator
}

func execAll(db *sqlx.DB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) addMigrations() {
	m.migrations = append(m.migrations, Migration{
		Version:     1,
		Description: "Create schema_migrations table",
		Up: func(db *sqlx.DB) error {
			return execAll(db, `
				CREATE TABLE IF NOT EXISTS schema_migrations (
					version INTEGER PRIMARY KEY,
					description TEXT NOT NULL,
					applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
		},
		Down: func(db *sqlx.DB) error {
			return execAll(db, "DROP TABLE IF EXISTS schema_migrations")
		},
	})

	m.migrations = append(m.migrations, Migration{
		Version:     2,
		Description: "Create runs table",
		Up: func(db *sqlx.DB) error {
			return execAll(db, `
				CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					command TEXT NOT NULL,
					dry_run BOOLEAN NOT NULL DEFAULT FALSE,
					status TEXT NOT NULL,
					error_message TEXT,
					counters TEXT,
					errors TEXT,
					start_time DATETIME NOT NULL,
					end_time DATETIME,
					last_updated DATETIME NOT NULL
				)`,
				"CREATE INDEX IF NOT EXISTS idx_runs_command ON runs(command)",
				"CREATE INDEX IF NOT EXISTS idx_runs_start_time ON runs(start_time)",
			)
		},
		Down: func(db *sqlx.DB) error {
			return execAll(db, "DROP TABLE IF EXISTS runs")
		},
	})

	m.migrations = append(m.migrations, Migration{
		Version:     3,
		Description: "Create run_actions table",
		Up: func(db *sqlx.DB) error {
			return execAll(db, `
				CREATE TABLE IF NOT EXISTS run_actions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
					action TEXT NOT NULL,
					target TEXT NOT NULL,
					detail TEXT,
					at DATETIME NOT NULL
				)`,
				"CREATE INDEX IF NOT EXISTS idx_run_actions_run_id ON run_actions(run_id)",
			)
		},
		Down: func(db *sqlx.DB) error {
			return execAll(db, "DROP TABLE IF EXISTS run_actions")
		},
	})
}

// Run applies every migration newer than the recorded schema version
func (m *Migrator) Run(ctx context.Context) error {
	klog.Info("🔄 Starting journal migrations...")

	currentVersion, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	klog.V(1).Infof("📊 Current schema version: %d", currentVersion)

	for _, migration := range m.Pending(currentVersion) {
		if err := ctx.Err(); err != nil {
			return err
		}
		klog.Infof("⬆️  Applying migration %d: %s", migration.Version, migration.Description)

		if err := migration.Up(m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.recordMigration(migration.Version, migration.Description); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		klog.V(1).Infof("✅ Migration %d completed", migration.Version)
	}

	newVersion, _ := m.Version()
	klog.Infof("🎉 Journal migrations completed. Schema version: %d", newVersion)
	return nil
}

// Rollback reverts the most recent migration and returns the resulting
// schema version. A fresh database is left untouched.
func (m *Migrator) Rollback(ctx context.Context) (int, error) {
	currentVersion, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	if currentVersion == 0 {
		klog.Info("ℹ️  Nothing to roll back")
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return currentVersion, err
	}

	var migration *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == currentVersion {
			migration = &m.migrations[i]
			break
		}
	}
	if migration == nil {
		return currentVersion, fmt.Errorf("no migration registered for schema version %d", currentVersion)
	}

	klog.Infof("⬇️  Reverting migration %d: %s", migration.Version, migration.Description)
	if err := migration.Down(m.db); err != nil {
		return currentVersion, fmt.Errorf("rollback of migration %d failed: %w", migration.Version, err)
	}
	// version 1 drops schema_migrations itself
	if migration.Version > 1 {
		if _, err := m.db.Exec("DELETE FROM schema_migrations WHERE version = ?", migration.Version); err != nil {
			return currentVersion, fmt.Errorf("failed to unrecord migration %d: %w", migration.Version, err)
		}
	}
	return m.Version()
}

// Pending lists migrations newer than version
func (m *Migrator) Pending(version int) []Migration {
	var pending []Migration
	for _, migration := range m.migrations {
		if migration.Version > version {
			pending = append(pending, migration)
		}
	}
	return pending
}

// Version returns the current schema version, 0 for a fresh database
func (m *Migrator) Version() (int, error) {
	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || strings.Contains(err.Error(), "no such table: schema_migrations") {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

func (m *Migrator) recordMigration(version int, description string) error {
	_, err := m.db.Exec("INSERT INTO schema_migrations (version, description) VALUES (?, ?)", version, description)
	return err
}

// BackupDatabase writes a consistent copy of the journal to backupPath
func (m *Migrator) BackupDatabase(backupPath string) error {
	klog.Infof("💾 Creating journal backup: %s", backupPath)

	query := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(backupPath, "'", "''"))
	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create database backup: %w", err)
	}

	klog.V(1).Info("✅ Journal backup created")
	return nil
}
