package postgres

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

const selectItem = `SELECT id, part_number, serial_number, lot_number, tracking_type, quantity::text, unit, status,
	location_ref, parent_identifier, child_sequence_count, description, manufacturer, category,
	expiration_date, minimum_stock::text, created_at, updated_at FROM `

// ItemRepository implements secondary.ItemStore for one kind table.
// It is bound to a transaction because inserts use savepoints.
type ItemRepository struct {
	tx    *sql.Tx
	kind  models.ItemKind
	table string
}

// NewItemRepository creates a new Postgres item repository for the given kind.
func NewItemRepository(tx *sql.Tx, kind models.ItemKind) (*ItemRepository, error) {
	table, ok := db.ItemTables[string(kind)]
	if !ok {
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
	return &ItemRepository{tx: tx, kind: kind, table: table}, nil
}

// Kind returns the item kind held by this repository.
func (r *ItemRepository) Kind() models.ItemKind { return r.kind }

// GetByID retrieves an item by its ID.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	return r.get(ctx, selectItem+r.table+" WHERE id = $1", id)
}

// GetForUpdate retrieves an item by ID and row-locks it until the transaction ends.
func (r *ItemRepository) GetForUpdate(ctx context.Context, id string) (*models.Item, error) {
	return r.get(ctx, selectItem+r.table+" WHERE id = $1 FOR UPDATE", id)
}

func (r *ItemRepository) get(ctx context.Context, query, id string) (*models.Item, error) {
	item, err := r.scan(r.tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", r.kind, id, models.ErrNotFound)
	}
	if err != nil {
		return nil, translate("failed to get "+string(r.kind), err)
	}
	return item, nil
}

// FindByIdentifier retrieves the item holding (partNumber, identifier).
func (r *ItemRepository) FindByIdentifier(ctx context.Context, partNumber, identifier string, tt models.TrackingType) (*models.Item, error) {
	column := "lot_number"
	if tt == models.TrackingSerial {
		column = "serial_number"
	}
	item, err := r.scan(r.tx.QueryRowContext(ctx,
		selectItem+r.table+" WHERE part_number = $1 AND "+column+" = $2", partNumber, identifier))
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
	rows, err := r.tx.QueryContext(ctx,
		selectItem+r.table+" WHERE part_number = $1 AND parent_identifier = $2 ORDER BY created_at, id",
		partNumber, parentIdentifier)
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

// Insert persists a new item and its identifier index row. Both statements
// run under a savepoint so a unique violation leaves the transaction usable
// for resolving the conflicting item.
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

	return r.savepoint(ctx, item, func() error {
		_, err := r.tx.ExecContext(ctx,
			`INSERT INTO `+r.table+` (id, part_number, serial_number, lot_number, tracking_type, quantity, unit,
				status, location_ref, parent_identifier, child_sequence_count, description, manufacturer,
				category, expiration_date, minimum_stock, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::numeric, $17, $18)`,
			item.ID, item.PartNumber, nullString(item.SerialNumber), nullString(item.LotNumber),
			string(item.TrackingType), item.Quantity.String(), item.Unit, string(item.Status),
			nullString(item.LocationRef), nullString(item.ParentIdentifier), item.ChildSequenceCount,
			nullString(item.Description), nullString(item.Manufacturer), nullString(item.Category),
			nullTime(item.ExpirationDate), nullDecimal(item.MinimumStock), item.CreatedAt, item.UpdatedAt,
		)
		if err != nil {
			return err
		}
		_, err = r.tx.ExecContext(ctx,
			"INSERT INTO item_identifiers (part_number, tracking_type, identifier, item_kind, item_id) VALUES ($1, $2, $3, $4, $5)",
			item.PartNumber, string(item.TrackingType), item.Identifier(), string(r.kind), item.ID,
		)
		return err
	})
}

// Update persists changes to an existing item.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	var rowsAffected int64

	err := r.savepoint(ctx, item, func() error {
		result, err := r.tx.ExecContext(ctx,
			`UPDATE `+r.table+` SET part_number = $1, serial_number = $2, lot_number = $3, tracking_type = $4,
				quantity = $5::numeric, unit = $6, status = $7, location_ref = $8, parent_identifier = $9,
				child_sequence_count = $10, description = $11, manufacturer = $12, category = $13,
				expiration_date = $14, minimum_stock = $15::numeric, updated_at = $16
			WHERE id = $17`,
			item.PartNumber, nullString(item.SerialNumber), nullString(item.LotNumber), string(item.TrackingType),
			item.Quantity.String(), item.Unit, string(item.Status), nullString(item.LocationRef),
			nullString(item.ParentIdentifier), item.ChildSequenceCount,
			nullString(item.Description), nullString(item.Manufacturer), nullString(item.Category),
			nullTime(item.ExpirationDate), nullDecimal(item.MinimumStock), item.UpdatedAt, item.ID,
		)
		if err != nil {
			return err
		}
		rowsAffected, _ = result.RowsAffected()
		if rowsAffected == 0 {
			return nil
		}
		_, err = r.tx.ExecContext(ctx,
			"UPDATE item_identifiers SET part_number = $1, tracking_type = $2, identifier = $3 WHERE item_kind = $4 AND item_id = $5",
			item.PartNumber, string(item.TrackingType), item.Identifier(), string(r.kind), item.ID,
		)
		return err
	})
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", r.kind, item.ID, models.ErrNotFound)
	}
	return nil
}

func (r *ItemRepository) savepoint(ctx context.Context, item *models.Item, fn func() error) error {
	if _, err := r.tx.ExecContext(ctx, "SAVEPOINT item_write"); err != nil {
		return translate("failed to open savepoint", err)
	}
	if err := fn(); err != nil {
		if _, rbErr := r.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT item_write"); rbErr != nil {
			return translate("failed to roll back savepoint", rbErr)
		}
		if isUniqueViolation(err) {
			return r.duplicate(ctx, item)
		}
		return translate("failed to write "+string(r.kind), err)
	}
	if _, err := r.tx.ExecContext(ctx, "RELEASE SAVEPOINT item_write"); err != nil {
		return translate("failed to release savepoint", err)
	}
	return nil
}

func (r *ItemRepository) duplicate(ctx context.Context, item *models.Item) error {
	dup := &models.DuplicateIdentifierError{
		PartNumber:   item.PartNumber,
		Identifier:   item.Identifier(),
		TrackingType: item.TrackingType,
	}

	var kind, id string
	err := r.tx.QueryRowContext(ctx,
		"SELECT item_kind, item_id FROM item_identifiers WHERE part_number = $1 AND tracking_type = $2 AND identifier = $3",
		item.PartNumber, string(item.TrackingType), item.Identifier(),
	).Scan(&kind, &id)
	if err != nil {
		if conflict, findErr := r.FindByIdentifier(ctx, item.PartNumber, item.Identifier(), item.TrackingType); findErr == nil {
			dup.ConflictKind = conflict.Kind
			dup.ConflictID = conflict.ID
			dup.ConflictLocation = conflict.LocationRef
		}
		return dup
	}

	dup.ConflictKind = models.ItemKind(kind)
	dup.ConflictID = id
	if table, ok := db.ItemTables[kind]; ok {
		var loc sql.NullString
		if err := r.tx.QueryRowContext(ctx, "SELECT location_ref FROM "+table+" WHERE id = $1", id).Scan(&loc); err == nil {
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
	)

	item := &models.Item{Kind: r.kind}
	err := row.Scan(
		&item.ID, &item.PartNumber, &serial, &lot, &tracking, &quantity, &item.Unit, &status,
		&location, &parent, &item.ChildSequenceCount, &desc, &manufacturer, &category,
		&expiration, &minimum, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return nil, fmt.Errorf("bad quantity %q on %s: %w", quantity, item.ID, err)
	}
	item.Quantity = qty
	item.SerialNumber = serial.String
	item.LotNumber = lot.String
	item.TrackingType = models.TrackingType(tracking)
	item.Status = models.ItemStatus(status)
	item.LocationRef = location.String
	item.ParentIdentifier = parent.String
	item.Description = desc.String
	item.Manufacturer = manufacturer.String
	item.Category = category.String
	if expiration.Valid {
		t := expiration.Time.UTC()
		item.ExpirationDate = &t
	}
	if minimum.Valid {
		m, err := decimal.NewFromString(minimum.String)
		if err != nil {
			return nil, fmt.Errorf("bad minimum stock %q on %s: %w", minimum.String, item.ID, err)
		}
		item.MinimumStock = &m
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
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
