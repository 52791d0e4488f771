package movement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lotledger/internal/models"
)

func TestCanMove(t *testing.T) {
	tests := []struct {
		name        string
		ctx         ItemContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "available item can move",
			ctx:         ItemContext{Identifier: "LOT-1", Status: models.StatusAvailable},
			wantAllowed: true,
		},
		{
			name:       "expired item cannot move",
			ctx:        ItemContext{Identifier: "LOT-1", Status: models.StatusAvailable, Expired: true},
			wantReason: "item is expired",
		},
		{
			name:       "retired item cannot move",
			ctx:        ItemContext{Identifier: "SN-1", Status: models.StatusRetired},
			wantReason: "item is retired, not available",
		},
		{
			name:       "issued item cannot move",
			ctx:        ItemContext{Identifier: "SN-1", Status: models.StatusIssued},
			wantReason: "item is issued, not available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanMove(tt.ctx, "issue")
			assert.Equal(t, tt.wantAllowed, result.Allowed)
			if !tt.wantAllowed {
				assert.Equal(t, tt.wantReason, result.Reason)
				var state *models.ItemStateError
				require.ErrorAs(t, result.Error(), &state)
				assert.Equal(t, "issue", state.Operation)
			} else {
				assert.NoError(t, result.Error())
			}
		})
	}
}

func TestCanReturn(t *testing.T) {
	assert.True(t, CanReturn(ItemContext{Status: models.StatusIssued}).Allowed)
	assert.False(t, CanReturn(ItemContext{Status: models.StatusAvailable}).Allowed)
	assert.False(t, CanReturn(ItemContext{Status: models.StatusDepleted}).Allowed)
}

func TestCanExpire(t *testing.T) {
	assert.True(t, CanExpire(ItemContext{TrackingType: models.TrackingLot, Status: models.StatusAvailable}).Allowed)
	assert.False(t, CanExpire(ItemContext{TrackingType: models.TrackingSerial, Status: models.StatusAvailable}).Allowed)
	assert.False(t, CanExpire(ItemContext{TrackingType: models.TrackingLot, Status: models.StatusDepleted}).Allowed)
}

func TestContextFor_ExpiryByDate(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	item := &models.Item{LotNumber: "LOT-1", TrackingType: models.TrackingLot, Status: models.StatusAvailable, ExpirationDate: &past}
	assert.True(t, ContextFor(item, now).Expired)

	future := now.Add(time.Hour)
	item.ExpirationDate = &future
	assert.False(t, ContextFor(item, now).Expired)
}

func TestCheckRequestedQuantity(t *testing.T) {
	serial := &models.Item{SerialNumber: "SN-1", TrackingType: models.TrackingSerial, Quantity: decimal.NewFromInt(1)}
	lotItem := &models.Item{LotNumber: "LOT-1", TrackingType: models.TrackingLot, Quantity: decimal.NewFromInt(10)}

	require.NoError(t, CheckRequestedQuantity(serial, decimal.NewFromInt(1)))
	require.NoError(t, CheckRequestedQuantity(lotItem, decimal.NewFromInt(3)))

	var unsplittable *models.UnsplittableItemError
	require.ErrorAs(t, CheckRequestedQuantity(serial, decimal.NewFromInt(2)), &unsplittable)

	var invalid *models.InvalidQuantityError
	require.ErrorAs(t, CheckRequestedQuantity(lotItem, decimal.Zero), &invalid)
	require.ErrorAs(t, CheckRequestedQuantity(serial, decimal.NewFromInt(-1)), &invalid)
}
