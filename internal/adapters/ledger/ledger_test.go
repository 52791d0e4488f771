package ledger

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lotledger/internal/models"
)

func TestLogLedger_Record(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogLedger(&buf, log.InfoLevel)

	err := l.Record(context.Background(), models.MovementEvent{
		ID:               "evt-1",
		Action:           models.ActionSplit,
		ItemKind:         models.KindChemical,
		PartNumber:       "CHEM-1",
		ParentIdentifier: "LOT-251014-0001",
		ChildIdentifier:  "LOT-251014-0001-A",
		Quantity:         decimal.NewFromInt(30),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "split")
	assert.Contains(t, out, "LOT-251014-0001-A")
	assert.Contains(t, out, "qty=30")
}

func TestStockLog_WarnsBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	w := NewStockLog(&buf, log.InfoLevel)
	minimum := decimal.NewFromInt(10)

	item := &models.Item{
		PartNumber:   "CHEM-1",
		LotNumber:    "LOT-1",
		TrackingType: models.TrackingLot,
		Quantity:     decimal.NewFromInt(4),
		MinimumStock: &minimum,
	}
	require.NoError(t, w.ItemChanged(context.Background(), item))
	assert.Contains(t, buf.String(), "below minimum stock")

	buf.Reset()
	item.Quantity = decimal.NewFromInt(40)
	require.NoError(t, w.ItemChanged(context.Background(), item))
	assert.Empty(t, buf.String(), "debug lines are filtered at info level")
}
