package app_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lotledger/internal/adapters/sqlite"
	"github.com/example/lotledger/internal/db"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

func TestSequenceService_DailyCounters(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	jan15 := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	jan16 := time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC)

	first, err := l.sequence.NextLotNumber(ctx, jan15)
	require.NoError(t, err)
	second, err := l.sequence.NextLotNumber(ctx, jan15)
	require.NoError(t, err)
	third, err := l.sequence.NextLotNumber(ctx, jan16)
	require.NoError(t, err)

	assert.Equal(t, "LOT-250115-0001", first)
	assert.Equal(t, "LOT-250115-0002", second)
	assert.Equal(t, "LOT-250116-0001", third)
	assert.Equal(t, 3.0, testutil.ToFloat64(l.metrics.LotsMinted))
}

func TestSequenceService_Exhaustion(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		for i := 0; i < 9999; i++ {
			if _, err := uow.Sequences().Increment(ctx, "20250115", 9999); err != nil {
				return err
			}
		}
		return nil
	}))

	_, err := l.sequence.NextLotNumber(ctx, day)
	var exhausted *models.SequenceExhaustionError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 9999, exhausted.Limit)
}

func TestSequenceService_ConcurrentMintsAreUnique(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "ledger.db"), 5000)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	l := newTestLedgerWith(t, sqlite.NewTransactor(database, 10*time.Second))

	const workers = 20
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lot, err := l.sequence.NextLotNumber(context.Background(), day)
			assert.NoError(t, err)
			mu.Lock()
			seen[lot] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers)
	assert.True(t, seen["LOT-250115-0001"])
	assert.True(t, seen["LOT-250115-0020"])
}
