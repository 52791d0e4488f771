package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/primary"
)

func identifiers(items []*models.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Identifier()
	}
	return out
}

func TestLineageService_RoundTrip(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	parent := l.receiveLot(t, models.KindChemical, "CHEM-1", "LOT-001", 100)

	var children []*models.Item
	for i := 0; i < 3; i++ {
		res, err := l.splits.Split(ctx, primary.SplitRequest{Parent: parent.Ref(), Quantity: qty(10), Destination: "KIT"})
		require.NoError(t, err)
		children = append(children, res.Child)
	}

	view, err := l.lineage.Lineage(ctx, parent.Ref())
	require.NoError(t, err)
	assert.Nil(t, view.Parent)
	assert.Empty(t, view.Siblings)
	assert.Equal(t, []string{"LOT-001-A", "LOT-001-B", "LOT-001-C"}, identifiers(view.Children))
	for _, c := range view.Children {
		assert.Equal(t, parent.Identifier(), c.ParentIdentifier)
	}

	view, err = l.lineage.Lineage(ctx, children[1].Ref())
	require.NoError(t, err)
	require.NotNil(t, view.Parent)
	assert.Equal(t, parent.Identifier(), view.Parent.Identifier())
	assert.Equal(t, []string{"LOT-001-A", "LOT-001-C"}, identifiers(view.Siblings))
	assert.Empty(t, view.Children)
}

func TestLineageService_OneLevelOnly(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	root := l.receiveLot(t, models.KindExpendable, "RIV-1", "LOT-R", 100)

	res, err := l.splits.Split(ctx, primary.SplitRequest{Parent: root.Ref(), Quantity: qty(50)})
	require.NoError(t, err)
	child := res.Child
	res, err = l.splits.Split(ctx, primary.SplitRequest{Parent: child.Ref(), Quantity: qty(5)})
	require.NoError(t, err)
	grandchild := res.Child
	assert.Equal(t, "LOT-R-A-A", grandchild.LotNumber)

	view, err := l.lineage.LineageByIdentifier(ctx, "", "RIV-1", "LOT-R-A-A")
	require.NoError(t, err)
	assert.Equal(t, "LOT-R-A", view.Parent.Identifier())
	assert.Empty(t, view.Siblings)

	// Chaining reconstructs deeper ancestry
	up, err := l.lineage.Lineage(ctx, view.Parent.Ref())
	require.NoError(t, err)
	assert.Equal(t, "LOT-R", up.Parent.Identifier())
	assert.Equal(t, []string{"LOT-R-A-A"}, identifiers(up.Children))
}

func TestLineageService_SerialUnit(t *testing.T) {
	l := newTestLedger(t)
	unit := l.receiveSerial(t, models.KindTool, "TQ-1", "SN-1")

	view, err := l.lineage.Lineage(context.Background(), unit.Ref())
	require.NoError(t, err)
	assert.Equal(t, unit.ID, view.Current.ID)
	assert.Nil(t, view.Parent)
	assert.Empty(t, view.Children)
}

func TestLineageService_NotFound(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.lineage.LineageByIdentifier(context.Background(), models.KindChemical, "CHEM-1", "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
