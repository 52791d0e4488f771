package lotsplit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lotledger/internal/models"
)

func lot(identifier string, qty int64) *models.Item {
	return &models.Item{
		ID:           "item-" + identifier,
		Kind:         models.KindChemical,
		PartNumber:   "PN-1",
		LotNumber:    identifier,
		TrackingType: models.TrackingLot,
		Quantity:     decimal.NewFromInt(qty),
		Unit:         "ml",
		Status:       models.StatusAvailable,
		LocationRef:  "WH-1",
		Description:  "Isopropyl alcohol",
		Manufacturer: "Acme",
		Category:     "solvent",
	}
}

func TestSuffix(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Suffix(tt.index), "index %d", tt.index)
		idx, ok := SuffixIndex(tt.want)
		require.True(t, ok)
		assert.Equal(t, tt.index, idx)
	}
	assert.Equal(t, "", Suffix(-1))
}

func TestSuffixIndex_RejectsNonLetters(t *testing.T) {
	for _, s := range []string{"", "a", "A1", "-", "ÄB"} {
		_, ok := SuffixIndex(s)
		assert.False(t, ok, s)
	}
}

func TestSuffix_UniqueAcrossLongRun(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		s := Suffix(i)
		require.False(t, seen[s], "suffix %s repeated at %d", s, i)
		seen[s] = true
	}
}

func TestChildIndex(t *testing.T) {
	idx, ok := ChildIndex("LOT-001", "LOT-001-AB")
	require.True(t, ok)
	assert.Equal(t, 27, idx)

	_, ok = ChildIndex("LOT-001", "LOT-002-A")
	assert.False(t, ok)
}

func TestDecide(t *testing.T) {
	parent := lot("LOT-001", 100)

	tests := []struct {
		name      string
		item      *models.Item
		requested int64
		wantMode  Mode
		wantErr   any
	}{
		{name: "partial", item: parent, requested: 60, wantMode: ModePartial},
		{name: "full", item: parent, requested: 100, wantMode: ModeFull},
		{name: "zero rejected", item: parent, requested: 0, wantErr: &models.InvalidQuantityError{}},
		{name: "negative rejected", item: parent, requested: -5, wantErr: &models.InvalidQuantityError{}},
		{name: "too much rejected", item: parent, requested: 101, wantErr: &models.InsufficientQuantityError{}},
		{
			name: "serial never splits",
			item: &models.Item{
				Kind:         models.KindTool,
				SerialNumber: "SN-1",
				TrackingType: models.TrackingSerial,
				Quantity:     decimal.NewFromInt(1),
				Status:       models.StatusAvailable,
			},
			requested: 1,
			wantErr:   &models.UnsplittableItemError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decide(tt.item, decimal.NewFromInt(tt.requested))
			switch want := tt.wantErr.(type) {
			case nil:
				require.NoError(t, err)
				assert.Equal(t, tt.wantMode, d.Mode)
			case *models.InvalidQuantityError:
				require.ErrorAs(t, err, &want)
			case *models.InsufficientQuantityError:
				require.ErrorAs(t, err, &want)
			case *models.UnsplittableItemError:
				require.ErrorAs(t, err, &want)
			}
		})
	}
}

func TestDecide_TerminalParent(t *testing.T) {
	parent := lot("LOT-001", 10)
	parent.Status = models.StatusExpired
	_, err := Decide(parent, decimal.NewFromInt(1))
	var state *models.ItemStateError
	require.ErrorAs(t, err, &state)
}

func TestApply_PartialSplitOfHundredUnitLot(t *testing.T) {
	parent := lot("LOT-001", 100)
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	updated, child, err := Apply(parent, decimal.NewFromInt(60), ChildSpec{
		ID:          "child-1",
		LotNumber:   ChildIdentifier(parent.LotNumber, parent.ChildSequenceCount),
		NextCount:   1,
		LocationRef: "KIT-7",
		Now:         now,
	})
	require.NoError(t, err)

	assert.Equal(t, "LOT-001-A", child.LotNumber)
	assert.True(t, child.Quantity.Equal(decimal.NewFromInt(60)))
	assert.True(t, updated.Quantity.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, models.StatusAvailable, updated.Status)
	assert.Equal(t, models.StatusAvailable, child.Status)
	assert.Equal(t, 1, updated.ChildSequenceCount)
	assert.Equal(t, "LOT-001", child.ParentIdentifier)
	assert.Equal(t, "KIT-7", child.LocationRef)
	assert.Equal(t, parent.Description, child.Description)
	assert.Equal(t, parent.Manufacturer, child.Manufacturer)
	assert.Equal(t, parent.Unit, child.Unit)
	assert.Equal(t, parent.Category, child.Category)
	assert.Empty(t, child.SerialNumber)
	assert.Equal(t, 0, child.ChildSequenceCount)

	// input untouched
	assert.True(t, parent.Quantity.Equal(decimal.NewFromInt(100)))
}

func TestApply_InheritsOptionalAttributesByValue(t *testing.T) {
	parent := lot("LOT-001", 10)
	exp := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	minStock := decimal.NewFromInt(2)
	parent.ExpirationDate = &exp
	parent.MinimumStock = &minStock

	_, child, err := Apply(parent, decimal.NewFromInt(3), ChildSpec{LotNumber: "LOT-001-A", NextCount: 1})
	require.NoError(t, err)
	require.NotNil(t, child.ExpirationDate)
	require.NotNil(t, child.MinimumStock)
	assert.True(t, child.ExpirationDate.Equal(exp))
	assert.NotSame(t, parent.ExpirationDate, child.ExpirationDate)
	assert.True(t, child.MinimumStock.Equal(minStock))
}

func TestApply_ConservesFractionalQuantities(t *testing.T) {
	parent := lot("LOT-001", 0)
	parent.Quantity = decimal.RequireFromString("12.750")
	requested := decimal.RequireFromString("0.125")

	updated, child, err := Apply(parent, requested, ChildSpec{LotNumber: "LOT-001-A", NextCount: 1})
	require.NoError(t, err)
	assert.True(t, parent.Quantity.Equal(updated.Quantity.Add(child.Quantity)))
	assert.Equal(t, "12.625", updated.Quantity.String())
}

func TestApply_ZeroRemainderDepletesParent(t *testing.T) {
	parent := lot("LOT-001", 5)
	updated, _, err := Apply(parent, decimal.NewFromInt(5), ChildSpec{LotNumber: "LOT-001-A", NextCount: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDepleted, updated.Status)
	assert.True(t, updated.Quantity.IsZero())
}

func TestCheckConservation(t *testing.T) {
	parentAfter := lot("LOT-001", 40)
	child := lot("LOT-001-A", 60)
	require.NoError(t, CheckConservation(decimal.NewFromInt(100), parentAfter, child))
	require.Error(t, CheckConservation(decimal.NewFromInt(99), parentAfter, child))

	child.Quantity = decimal.Zero
	require.Error(t, CheckConservation(decimal.NewFromInt(40), parentAfter, child))
}

func TestNextChildIdentifier_SkipsTakenSuffixes(t *testing.T) {
	parent := lot("LOT-001", 100)
	parent.ChildSequenceCount = 2
	taken := map[string]bool{"LOT-001-C": true, "LOT-001-D": true}

	id, next, err := NextChildIdentifier(context.Background(), parent, func(_ context.Context, c string) (bool, error) {
		return taken[c], nil
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, "LOT-001-E", id)
	assert.Equal(t, 5, next)
}

func TestNextChildIdentifier_GivesUp(t *testing.T) {
	parent := lot("LOT-001", 100)
	_, _, err := NextChildIdentifier(context.Background(), parent, func(context.Context, string) (bool, error) {
		return true, nil
	}, 3)
	require.Error(t, err)
}

func TestNextChildIdentifier_PropagatesLookupErrors(t *testing.T) {
	parent := lot("LOT-001", 100)
	boom := errors.New("boom")
	_, _, err := NextChildIdentifier(context.Background(), parent, func(context.Context, string) (bool, error) {
		return false, boom
	}, 3)
	require.ErrorIs(t, err, boom)
}
