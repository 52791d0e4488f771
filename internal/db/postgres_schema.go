package db

import (
	"fmt"
	"strings"
)

// PostgresSchemaSQL mirrors SchemaSQL for Postgres deployments. Quantities are
// NUMERIC so fractional chemical volumes stay exact.
var PostgresSchemaSQL = buildPostgresSchema()

func postgresItemTable(table, trackingCheck string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id TEXT PRIMARY KEY,
	part_number TEXT NOT NULL,
	serial_number TEXT,
	lot_number TEXT,
	tracking_type TEXT NOT NULL CHECK (tracking_type IN (%[2]s)),
	quantity NUMERIC NOT NULL CHECK (quantity >= 0),
	unit TEXT NOT NULL DEFAULT 'each',
	status TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'issued', 'depleted', 'expired', 'maintenance', 'retired')),
	location_ref TEXT,
	parent_identifier TEXT,
	child_sequence_count INTEGER NOT NULL DEFAULT 0 CHECK (child_sequence_count >= 0),
	description TEXT,
	manufacturer TEXT,
	category TEXT,
	expiration_date TIMESTAMPTZ,
	minimum_stock NUMERIC,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK ((serial_number IS NULL) <> (lot_number IS NULL)),
	CHECK ((tracking_type = 'serial' AND serial_number IS NOT NULL) OR (tracking_type = 'lot' AND lot_number IS NOT NULL)),
	UNIQUE (part_number, serial_number),
	UNIQUE (part_number, lot_number)
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_parent ON %[1]s (part_number, parent_identifier);
CREATE INDEX IF NOT EXISTS idx_%[1]s_status ON %[1]s (status);
`, table, trackingCheck)
}

const postgresShared = `
CREATE TABLE IF NOT EXISTS item_identifiers (
	part_number TEXT NOT NULL,
	tracking_type TEXT NOT NULL CHECK (tracking_type IN ('serial', 'lot')),
	identifier TEXT NOT NULL,
	item_kind TEXT NOT NULL,
	item_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT item_identifiers_pkey PRIMARY KEY (part_number, tracking_type, identifier),
	CONSTRAINT item_identifiers_item_key UNIQUE (item_kind, item_id)
);

CREATE TABLE IF NOT EXISTS sequence_counters (
	date_key TEXT PRIMARY KEY,
	counter INTEGER NOT NULL DEFAULT 0 CHECK (counter >= 0),
	last_generated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func buildPostgresSchema() string {
	var b strings.Builder
	b.WriteString(postgresItemTable("tools", "'serial'"))
	b.WriteString(postgresItemTable("chemicals", "'lot'"))
	b.WriteString(postgresItemTable("kit_expendables", "'serial', 'lot'"))
	b.WriteString(postgresShared)
	return b.String()
}

// SplitStatements splits a schema script into individual statements.
func SplitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(stmt))
	}
	return out
}
