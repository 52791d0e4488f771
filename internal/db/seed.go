package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with development fixtures covering each
// item kind and both tracking types.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC().Format(time.RFC3339)

	fixtures := []struct {
		kind, id, part, serial, lot, tracking, qty, unit, location, desc string
	}{
		{"tool", "TOOL-0001", "TQ-250", "SN-10001", "", "serial", "1", "each", "WH-A", "Torque wrench 250 in-lb"},
		{"tool", "TOOL-0002", "TQ-250", "SN-10002", "", "serial", "1", "each", "WH-A", "Torque wrench 250 in-lb"},
		{"chemical", "CHEM-0001", "IPA-99", "", "LOT-001", "lot", "100", "ml", "WH-B", "Isopropyl alcohol 99%"},
		{"chemical", "CHEM-0002", "SEAL-PR1", "", "LOT-7731", "lot", "12.5", "oz", "WH-B", "PR-1422 sealant"},
		{"expendable", "EXP-0001", "SFT-032", "", "LOT-4410", "lot", "500", "ft", "KIT-01", "Safety wire .032"},
		{"expendable", "EXP-0002", "FLT-LIGHT", "FL-88", "", "serial", "1", "each", "KIT-01", "Flashlight"},
	}

	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range fixtures {
		table := ItemTables[f.kind]
		var serial, lot sql.NullString
		if f.serial != "" {
			serial = sql.NullString{String: f.serial, Valid: true}
		}
		if f.lot != "" {
			lot = sql.NullString{String: f.lot, Valid: true}
		}
		if _, err := tx.Exec(
			fmt.Sprintf("INSERT INTO %s (id, part_number, serial_number, lot_number, tracking_type, quantity, unit, status, location_ref, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, 'available', ?, ?, ?, ?)", table),
			f.id, f.part, serial, lot, f.tracking, f.qty, f.unit, f.location, f.desc, now, now,
		); err != nil {
			return fmt.Errorf("seed %s: %w", table, err)
		}
		identifier := f.serial + f.lot
		if _, err := tx.Exec(
			"INSERT INTO item_identifiers (part_number, tracking_type, identifier, item_kind, item_id) VALUES (?, ?, ?, ?, ?)",
			f.part, f.tracking, identifier, f.kind, f.id,
		); err != nil {
			return fmt.Errorf("seed identifiers: %w", err)
		}
	}

	return tx.Commit()
}
