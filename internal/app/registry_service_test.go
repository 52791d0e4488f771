package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lotledger/internal/models"
)

func TestRegistryService_EnsureUnique(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.registry.EnsureUnique(ctx, "PN-1", "LOT-X", models.TrackingLot, nil))
	first := l.receiveLot(t, models.KindChemical, "PN-1", "LOT-X", 10)

	err := l.registry.EnsureUnique(ctx, "PN-1", "LOT-X", models.TrackingLot, nil)
	var dup *models.DuplicateIdentifierError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ConflictID)
	assert.Contains(t, dup.Error(), "chemical")
}

func TestRegistryService_SpansKinds(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	l.receiveSerial(t, models.KindTool, "PN-1", "SN-1")

	err := l.registry.EnsureUnique(ctx, "PN-1", "SN-1", models.TrackingSerial, nil)
	assert.True(t, models.IsDuplicateIdentifier(err))

	// Different part number or tracking type is not a collision
	assert.NoError(t, l.registry.EnsureUnique(ctx, "PN-2", "SN-1", models.TrackingSerial, nil))
	assert.NoError(t, l.registry.EnsureUnique(ctx, "PN-1", "SN-1", models.TrackingLot, nil))
}

func TestRegistryService_EmptyAndExclude(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	item := l.receiveLot(t, models.KindExpendable, "PN-1", "LOT-Y", 3)

	assert.NoError(t, l.registry.EnsureUnique(ctx, "PN-1", "", models.TrackingLot, nil))
	assert.NoError(t, l.registry.EnsureUnique(ctx, "PN-1", "   ", models.TrackingLot, nil))

	self := item.Ref()
	assert.NoError(t, l.registry.EnsureUnique(ctx, "PN-1", "LOT-Y", models.TrackingLot, &self))
}
