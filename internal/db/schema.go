package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// SchemaSQL is the complete SQLite schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the SQLite schema. Adapter tests load it
// via GetSchemaSQL() instead of hardcoding CREATE TABLE statements, so a
// repository referencing a missing column fails immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update the table builders here
//  3. Update PostgresSchemaSQL to match
var SchemaSQL = buildSQLiteSchema()

// ItemTables maps every item kind to its table.
var ItemTables = map[string]string{
	"tool":       "tools",
	"chemical":   "chemicals",
	"expendable": "kit_expendables",
}

// sqliteItemTable renders one kind table. trackingCheck restricts which
// tracking types the kind may hold.
func sqliteItemTable(table, trackingCheck string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id TEXT PRIMARY KEY,
	part_number TEXT NOT NULL,
	serial_number TEXT,
	lot_number TEXT,
	tracking_type TEXT NOT NULL CHECK(tracking_type IN (%[2]s)),
	quantity TEXT NOT NULL,
	unit TEXT NOT NULL DEFAULT 'each',
	status TEXT NOT NULL CHECK(status IN ('available', 'issued', 'depleted', 'expired', 'maintenance', 'retired')) DEFAULT 'available',
	location_ref TEXT,
	parent_identifier TEXT,
	child_sequence_count INTEGER NOT NULL DEFAULT 0 CHECK(child_sequence_count >= 0),
	description TEXT,
	manufacturer TEXT,
	category TEXT,
	expiration_date DATETIME,
	minimum_stock TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	CHECK ((serial_number IS NULL) <> (lot_number IS NULL)),
	CHECK ((tracking_type = 'serial' AND serial_number IS NOT NULL) OR (tracking_type = 'lot' AND lot_number IS NOT NULL)),
	UNIQUE (part_number, serial_number),
	UNIQUE (part_number, lot_number)
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_parent ON %[1]s(part_number, parent_identifier);
CREATE INDEX IF NOT EXISTS idx_%[1]s_status ON %[1]s(status);
`, table, trackingCheck)
}

const sqliteIdentifierIndex = `
-- Cross-kind identifier index. The primary key is the database authority for
-- (part_number, identifier) uniqueness across every item table.
CREATE TABLE IF NOT EXISTS item_identifiers (
	part_number TEXT NOT NULL,
	tracking_type TEXT NOT NULL CHECK(tracking_type IN ('serial', 'lot')),
	identifier TEXT NOT NULL,
	item_kind TEXT NOT NULL,
	item_id TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (part_number, tracking_type, identifier),
	UNIQUE (item_kind, item_id)
);
`

const sqliteSequenceCounters = `
CREATE TABLE IF NOT EXISTS sequence_counters (
	date_key TEXT PRIMARY KEY,
	counter INTEGER NOT NULL DEFAULT 0 CHECK(counter >= 0),
	last_generated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

func buildSQLiteSchema() string {
	var b strings.Builder
	b.WriteString(sqliteItemTable("tools", "'serial'"))
	b.WriteString(sqliteItemTable("chemicals", "'lot'"))
	b.WriteString(sqliteItemTable("kit_expendables", "'serial', 'lot'"))
	b.WriteString(sqliteIdentifierIndex)
	b.WriteString(sqliteSequenceCounters)
	return b.String()
}

// InitSchema brings the SQLite database up to date.
func InitSchema(db *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(db)
	}

	var itemTableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('tools', 'chemicals', 'kit_expendables')").Scan(&itemTableCount)
	if err != nil {
		return err
	}
	if itemTableCount > 0 {
		// Pre-versioning database - let migrations bring it forward
		return RunMigrations(db)
	}

	// Completely fresh install - create modern schema directly and mark every
	// migration as applied
	if _, err := db.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := ensureVersionTable(db); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
