// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// setupTestDB goes through db.Open so tests run against the authoritative
// schema and the same connection settings as production.
package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/example/lotledger/internal/adapters/sqlite"
	"github.com/example/lotledger/internal/db"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

// setupTestDB creates a file-backed database in a temp dir. A file is used
// rather than :memory: so that every pooled connection sees the same data.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.Open(filepath.Join(t.TempDir(), "ledger.db"), 5000)
	require.NoError(t, err, "failed to open test db")

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// newLot builds an available lot item of the given kind.
func newLot(kind models.ItemKind, part, lot string, qty int64) *models.Item {
	return &models.Item{
		ID:           uuid.NewString(),
		Kind:         kind,
		PartNumber:   part,
		LotNumber:    lot,
		TrackingType: models.TrackingLot,
		Quantity:     decimal.NewFromInt(qty),
		Unit:         "ml",
		Status:       models.StatusAvailable,
		LocationRef:  "BIN-1",
	}
}

// newSerial builds an available serial-tracked unit of the given kind.
func newSerial(kind models.ItemKind, part, serial string) *models.Item {
	return &models.Item{
		ID:           uuid.NewString(),
		Kind:         kind,
		PartNumber:   part,
		SerialNumber: serial,
		TrackingType: models.TrackingSerial,
		Quantity:     decimal.NewFromInt(1),
		Unit:         "each",
		Status:       models.StatusAvailable,
		LocationRef:  "CRIB-1",
	}
}

// insertItem stores item through a committed transaction.
func insertItem(t *testing.T, tx *sqlite.Transactor, item *models.Item) {
	t.Helper()
	err := withStore(t, tx, item.Kind, func(ctx context.Context, store *sqlite.ItemRepository) error {
		return store.Insert(ctx, item)
	})
	require.NoError(t, err)
}

// withStore runs fn against a transaction-bound store for kind.
func withStore(t *testing.T, tx *sqlite.Transactor, kind models.ItemKind, fn func(ctx context.Context, store *sqlite.ItemRepository) error) error {
	t.Helper()
	return tx.WithinTx(context.Background(), func(ctx context.Context, uow secondary.UnitOfWork) error {
		store, err := uow.Items(kind)
		if err != nil {
			return err
		}
		return fn(ctx, store.(*sqlite.ItemRepository))
	})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
