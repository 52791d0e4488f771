//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/example/lotledger/internal/adapters/postgres"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

// setupPostgres starts a disposable Postgres container and returns a
// Transactor against a schema-initialized database.
func setupPostgres(t *testing.T) *postgres.Transactor {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return postgres.NewTransactor(database, 10*time.Second)
}

func serialItem(kind models.ItemKind, part, sn string) *models.Item {
	return &models.Item{
		ID:           uuid.NewString(),
		Kind:         kind,
		PartNumber:   part,
		SerialNumber: sn,
		TrackingType: models.TrackingSerial,
		Quantity:     decimal.NewFromInt(1),
		Unit:         "each",
		Status:       models.StatusAvailable,
		LocationRef:  "CRIB-1",
	}
}

func TestIntegration_Postgres_InsertRoundTrip(t *testing.T) {
	tx := setupPostgres(t)
	ctx := context.Background()

	lot := &models.Item{
		ID:           uuid.NewString(),
		Kind:         models.KindChemical,
		PartNumber:   "CHEM-1",
		LotNumber:    "LOT-251014-0001",
		TrackingType: models.TrackingLot,
		Quantity:     decimal.RequireFromString("12.375"),
		Unit:         "l",
		Status:       models.StatusAvailable,
	}

	require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		store, err := uow.Items(models.KindChemical)
		if err != nil {
			return err
		}
		return store.Insert(ctx, lot)
	}))

	require.NoError(t, tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		store, err := uow.Items(models.KindChemical)
		if err != nil {
			return err
		}
		got, err := store.GetForUpdate(ctx, lot.ID)
		require.NoError(t, err)
		assert.True(t, lot.Quantity.Equal(got.Quantity))
		return nil
	}))
}

func TestIntegration_Postgres_CrossKindDuplicate(t *testing.T) {
	tx := setupPostgres(t)
	ctx := context.Background()

	insert := func(item *models.Item) error {
		return tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
			store, err := uow.Items(item.Kind)
			if err != nil {
				return err
			}
			return store.Insert(ctx, item)
		})
	}

	require.NoError(t, insert(serialItem(models.KindTool, "P-1", "SN-1")))

	var dup *models.DuplicateIdentifierError
	require.ErrorAs(t, insert(serialItem(models.KindExpendable, "P-1", "SN-1")), &dup)
	assert.Equal(t, models.KindTool, dup.ConflictKind)
	assert.Equal(t, "CRIB-1", dup.ConflictLocation)
}

func TestIntegration_Postgres_ConcurrentSequence(t *testing.T) {
	tx := setupPostgres(t)
	const workers = 20

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int]bool{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var n int
			err := tx.WithinTx(context.Background(), func(ctx context.Context, uow secondary.UnitOfWork) error {
				var err error
				n, err = uow.Sequences().Increment(ctx, "20251014", 9999)
				return err
			})
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers)
}
