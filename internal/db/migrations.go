package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_item_tables",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "create_sequence_counters",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "create_item_identifiers_and_backfill",
		Up:      migrationV3,
	},
}

// RunMigrations executes all pending migrations
func RunMigrations(db *sql.DB) error {
	if err := ensureVersionTable(db); err != nil {
		return err
	}

	// Get current schema version
	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// Run pending migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// CurrentVersion returns the highest applied migration version.
func CurrentVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}

func ensureVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// migrationV1 creates one table per item kind
func migrationV1(tx *sql.Tx) error {
	for _, stmt := range []string{
		sqliteItemTable("tools", "'serial'"),
		sqliteItemTable("chemicals", "'lot'"),
		sqliteItemTable("kit_expendables", "'serial', 'lot'"),
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrationV2 adds the per-day lot counters
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(sqliteSequenceCounters)
	return err
}

// migrationV3 adds the cross-kind identifier index and backfills it from the
// item tables. A legacy cross-kind collision aborts the migration.
func migrationV3(tx *sql.Tx) error {
	if _, err := tx.Exec(sqliteIdentifierIndex); err != nil {
		return err
	}
	for kind, table := range ItemTables {
		_, err := tx.Exec(fmt.Sprintf(`
			INSERT INTO item_identifiers (part_number, tracking_type, identifier, item_kind, item_id)
			SELECT part_number, tracking_type, COALESCE(serial_number, lot_number), ?, id FROM %s
		`, table), kind)
		if err != nil {
			return fmt.Errorf("backfill identifiers from %s: %w", table, err)
		}
	}
	return nil
}
