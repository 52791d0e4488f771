// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/lotledger/internal/db"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const itemColumns = "id, part_number, serial_number, lot_number, tracking_type, quantity, unit, status, location_ref, parent_identifier, child_sequence_count, description, manufacturer, category, expiration_date, minimum_stock, created_at, updated_at"

// ItemRepository implements secondary.ItemStore for one kind table.
type ItemRepository struct {
	db    DBTX
	kind  models.ItemKind
	table string
}

// NewItemRepository creates a new SQLite item repository for the given kind.
func NewItemRepository(db DBTX, kind models.ItemKind) (*ItemRepository, error) {
	table, ok := tableFor(kind)
	if !ok {
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
	return &ItemRepository{db: db, kind: kind, table: table}, nil
}

func tableFor(kind models.ItemKind) (string, bool) {
	table, ok := db.ItemTables[string(kind)]
	return table, ok
}

// Kind returns the item kind held by this repository.
func (r *ItemRepository) Kind() models.ItemKind { return r.kind }

// GetByID retrieves an item by its ID.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM "+r.table+" WHERE id = ?", id)
	item, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", r.kind, id, models.ErrNotFound)
	}
	if err != nil {
		return nil, translate("failed to get "+string(r.kind), err)
	}
	return item, nil
}

// GetForUpdate retrieves an item by ID. SQLite transactions are opened
// IMMEDIATE, so the write lock is already held for the whole unit of work.
func (r *ItemRepository) GetForUpdate(ctx context.Context, id string) (*models.Item, error) {
	return r.GetByID(ctx, id)
}

// FindByIdentifier retrieves the item holding (partNumber, identifier).
func (r *ItemRepository) FindByIdentifier(ctx context.Context, partNumber, identifier string, tt models.TrackingType) (*models.Item, error) {
	column := "lot_number"
	if tt == models.TrackingSerial {
		column = "serial_number"
	}
	row := r.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM "+r.table+" WHERE part_number = ? AND "+column+" = ?",
		partNumber, identifier,
	)
	item, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s/%s: %w", r.kind, partNumber, identifier, models.ErrNotFound)
	}
	if err != nil {
		return nil, translate("failed to find "+string(r.kind), err)
	}
	return item, nil
}

// FindChildren retrieves items split from the given parent lot.
func (r *ItemRepository) FindChildren(ctx context.Context, partNumber, parentIdentifier string) ([]*models.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM "+r.table+" WHERE part_number = ? AND parent_identifier = ? ORDER BY created_at, id",
		partNumber, parentIdentifier,
	)
	if err != nil {
		return nil, translate("failed to list children", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.kind, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Insert persists a new item and records its identifier in the cross-kind index.
func (r *ItemRepository) Insert(ctx context.Context, item *models.Item) error {
	if item.Kind != r.kind {
		return fmt.Errorf("cannot insert %s into %s store", item.Kind, r.kind)
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO "+r.table+" ("+itemColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		item.ID, item.PartNumber, nullString(item.SerialNumber), nullString(item.LotNumber),
		string(item.TrackingType), item.Quantity.String(), item.Unit, string(item.Status),
		nullString(item.LocationRef), nullString(item.ParentIdentifier), item.ChildSequenceCount,
		nullString(item.Description), nullString(item.Manufacturer), nullString(item.Category),
		nullTime(item.ExpirationDate), nullDecimal(item.MinimumStock),
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return r.duplicate(ctx, item)
		}
		return translate("failed to create "+string(r.kind), err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO item_identifiers (part_number, tracking_type, identifier, item_kind, item_id) VALUES (?, ?, ?, ?, ?)",
		item.PartNumber, string(item.TrackingType), item.Identifier(), string(r.kind), item.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return r.duplicate(ctx, item)
		}
		return translate("failed to index identifier", err)
	}

	return nil
}

// Update persists changes to an existing item.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE `+r.table+` SET part_number = ?, serial_number = ?, lot_number = ?, tracking_type = ?,
			quantity = ?, unit = ?, status = ?, location_ref = ?, parent_identifier = ?,
			child_sequence_count = ?, description = ?, manufacturer = ?, category = ?,
			expiration_date = ?, minimum_stock = ?, updated_at = ?
		WHERE id = ?`,
		item.PartNumber, nullString(item.SerialNumber), nullString(item.LotNumber), string(item.TrackingType),
		item.Quantity.String(), item.Unit, string(item.Status), nullString(item.LocationRef),
		nullString(item.ParentIdentifier), item.ChildSequenceCount,
		nullString(item.Description), nullString(item.Manufacturer), nullString(item.Category),
		nullTime(item.ExpirationDate), nullDecimal(item.MinimumStock), item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return r.duplicate(ctx, item)
		}
		return translate("failed to update "+string(r.kind), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", r.kind, item.ID, models.ErrNotFound)
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE item_identifiers SET part_number = ?, tracking_type = ?, identifier = ? WHERE item_kind = ? AND item_id = ?",
		item.PartNumber, string(item.TrackingType), item.Identifier(), string(r.kind), item.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return r.duplicate(ctx, item)
		}
		return translate("failed to reindex identifier", err)
	}

	return nil
}

// duplicate builds a DuplicateIdentifierError, resolving the conflicting item
// from the identifier index when it is visible.
func (r *ItemRepository) duplicate(ctx context.Context, item *models.Item) error {
	dup := &models.DuplicateIdentifierError{
		PartNumber:   item.PartNumber,
		Identifier:   item.Identifier(),
		TrackingType: item.TrackingType,
	}

	var kind, id string
	err := r.db.QueryRowContext(ctx,
		"SELECT item_kind, item_id FROM item_identifiers WHERE part_number = ? AND tracking_type = ? AND identifier = ?",
		item.PartNumber, string(item.TrackingType), item.Identifier(),
	).Scan(&kind, &id)
	if err != nil {
		// Same-table constraint fired before the index row existed
		conflict, findErr := r.FindByIdentifier(ctx, item.PartNumber, item.Identifier(), item.TrackingType)
		if findErr == nil {
			dup.ConflictKind = conflict.Kind
			dup.ConflictID = conflict.ID
			dup.ConflictLocation = conflict.LocationRef
		}
		return dup
	}

	dup.ConflictKind = models.ItemKind(kind)
	dup.ConflictID = id
	if table, ok := tableFor(dup.ConflictKind); ok {
		var loc sql.NullString
		if err := r.db.QueryRowContext(ctx, "SELECT location_ref FROM "+table+" WHERE id = ?", id).Scan(&loc); err == nil {
			dup.ConflictLocation = loc.String
		}
	}
	return dup
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ItemRepository) scan(row rowScanner) (*models.Item, error) {
	var (
		serial, lot, location, parent sql.NullString
		desc, manufacturer, category  sql.NullString
		minimum                       sql.NullString
		expiration                    sql.NullTime
		tracking, status, quantity    string
		createdAt, updatedAt          time.Time
	)

	item := &models.Item{Kind: r.kind}
	err := row.Scan(
		&item.ID, &item.PartNumber, &serial, &lot, &tracking, &quantity, &item.Unit, &status,
		&location, &parent, &item.ChildSequenceCount, &desc, &manufacturer, &category,
		&expiration, &minimum, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return nil, fmt.Errorf("bad quantity %q on %s: %w", quantity, item.ID, err)
	}

	item.SerialNumber = serial.String
	item.LotNumber = lot.String
	item.TrackingType = models.TrackingType(tracking)
	item.Quantity = qty
	item.Status = models.ItemStatus(status)
	item.LocationRef = location.String
	item.ParentIdentifier = parent.String
	item.Description = desc.String
	item.Manufacturer = manufacturer.String
	item.Category = category.String
	if expiration.Valid {
		t := expiration.Time
		item.ExpirationDate = &t
	}
	if minimum.Valid {
		m, err := decimal.NewFromString(minimum.String)
		if err != nil {
			return nil, fmt.Errorf("bad minimum stock %q on %s: %w", minimum.String, item.ID, err)
		}
		item.MinimumStock = &m
	}
	item.CreatedAt = createdAt
	item.UpdatedAt = updatedAt

	return item, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// Ensure ItemRepository implements the interface
var _ secondary.ItemStore = (*ItemRepository)(nil)
