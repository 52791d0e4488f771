// Package ledger provides the post-commit collaborators that receive movement
// events and stock changes. Both write structured log lines; a deployment that
// owns a transaction ledger or reorder service swaps them out at wiring time.
package ledger

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

// LogLedger implements secondary.MovementLedger by logging each event.
type LogLedger struct {
	logger *log.Logger
}

// NewLogLedger creates a LogLedger writing to w.
func NewLogLedger(w io.Writer, level log.Level) *LogLedger {
	return &LogLedger{logger: log.NewWithOptions(w, log.Options{
		Prefix:          "movement",
		Level:           level,
		ReportTimestamp: true,
	})}
}

// Record logs the event.
func (l *LogLedger) Record(ctx context.Context, event models.MovementEvent) error {
	l.logger.Info(string(event.Action),
		"event", event.ID,
		"kind", event.ItemKind,
		"part", event.PartNumber,
		"parent", event.ParentIdentifier,
		"child", event.ChildIdentifier,
		"qty", event.Quantity.String(),
		"actor", event.Actor,
		"from", event.FromLocation,
		"to", event.ToLocation,
	)
	return nil
}

// StockLog implements secondary.StockWatcher. It warns when an item drops
// below its minimum stock level.
type StockLog struct {
	logger *log.Logger
}

// NewStockLog creates a StockLog writing to w.
func NewStockLog(w io.Writer, level log.Level) *StockLog {
	return &StockLog{logger: log.NewWithOptions(w, log.Options{
		Prefix: "stock",
		Level:  level,
	})}
}

// ItemChanged logs the new state and warns on low stock.
func (s *StockLog) ItemChanged(ctx context.Context, item *models.Item) error {
	if item.IsBelowMinimum() {
		s.logger.Warn("below minimum stock",
			"part", item.PartNumber,
			"identifier", item.Identifier(),
			"qty", item.Quantity.String(),
			"minimum", item.MinimumStock.String(),
		)
		return nil
	}
	s.logger.Debug("item changed",
		"part", item.PartNumber,
		"identifier", item.Identifier(),
		"status", item.Status,
		"qty", item.Quantity.String(),
	)
	return nil
}

var (
	_ secondary.MovementLedger = (*LogLedger)(nil)
	_ secondary.StockWatcher   = (*StockLog)(nil)
)
