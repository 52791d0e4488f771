package app_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/example/lotledger/internal/adapters/memory"
	"github.com/example/lotledger/internal/app"
	"github.com/example/lotledger/internal/metrics"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/primary"
	"github.com/example/lotledger/internal/ports/secondary"
)

// recordingLedger captures events handed over after commit.
type recordingLedger struct {
	mu     sync.Mutex
	events []models.MovementEvent
	err    error
}

func (r *recordingLedger) Record(ctx context.Context, event models.MovementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingLedger) last() models.MovementEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

// recordingWatcher captures items reported as changed.
type recordingWatcher struct {
	mu    sync.Mutex
	items []*models.Item
}

func (r *recordingWatcher) ItemChanged(ctx context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return errors.New("watcher offline")
}

var (
	_ secondary.MovementLedger = (*recordingLedger)(nil)
	_ secondary.StockWatcher   = (*recordingWatcher)(nil)
)

// testLedger wires every service over one transactor.
type testLedger struct {
	tx       secondary.Transactor
	metrics  *metrics.Metrics
	events   *recordingLedger
	watcher  *recordingWatcher
	registry *app.RegistryServiceImpl
	sequence *app.SequenceServiceImpl
	splits   *app.SplitServiceImpl
	moves    *app.MovementServiceImpl
	receipts *app.ReceiptServiceImpl
	lineage  *app.LineageServiceImpl
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()
	return newTestLedgerWith(t, memory.NewStore())
}

func newTestLedgerWith(t *testing.T, tx secondary.Transactor) *testLedger {
	t.Helper()
	logger := log.New(io.Discard)
	m := metrics.New(prometheus.NewRegistry())
	events := &recordingLedger{}
	watcher := &recordingWatcher{}
	hooks := app.Hooks{Ledger: events, Stock: watcher}

	sequence := app.NewSequenceService(tx, "", logger, m)
	splits := app.NewSplitService(tx, hooks, logger, m, 0)
	return &testLedger{
		tx:       tx,
		metrics:  m,
		events:   events,
		watcher:  watcher,
		registry: app.NewRegistryService(tx, m),
		sequence: sequence,
		splits:   splits,
		moves:    app.NewMovementService(tx, splits, hooks, logger, m),
		receipts: app.NewReceiptService(tx, sequence, hooks, logger, m),
		lineage:  app.NewLineageService(tx),
	}
}

func (l *testLedger) receiveLot(t *testing.T, kind models.ItemKind, part, lot string, qty int64) *models.Item {
	t.Helper()
	res, err := l.receipts.Receive(context.Background(), primary.ReceiveRequest{
		Kind:        kind,
		PartNumber:  part,
		LotNumber:   lot,
		Quantity:    decimal.NewFromInt(qty),
		Unit:        "ea",
		LocationRef: "WH-1",
		Description: "fixture lot",
	})
	require.NoError(t, err)
	return res.Item
}

func (l *testLedger) receiveSerial(t *testing.T, kind models.ItemKind, part, serial string) *models.Item {
	t.Helper()
	res, err := l.receipts.Receive(context.Background(), primary.ReceiveRequest{
		Kind:         kind,
		PartNumber:   part,
		SerialNumber: serial,
		LocationRef:  "CRIB-1",
	})
	require.NoError(t, err)
	return res.Item
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
