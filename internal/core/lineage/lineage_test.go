package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lotledger/internal/models"
)

func item(id, lotNumber, parent string) *models.Item {
	return &models.Item{
		ID:               id,
		Kind:             models.KindChemical,
		PartNumber:       "PN-1",
		LotNumber:        lotNumber,
		TrackingType:     models.TrackingLot,
		ParentIdentifier: parent,
	}
}

func identifiers(items []*models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Identifier()
	}
	return out
}

func TestAssemble_Root(t *testing.T) {
	root := item("1", "LOT-001", "")
	children := []*models.Item{
		item("3", "LOT-001-B", "LOT-001"),
		item("28", "LOT-001-AA", "LOT-001"),
		item("2", "LOT-001-A", "LOT-001"),
		item("27", "LOT-001-Z", "LOT-001"),
	}

	v := Assemble(root, nil, nil, children)
	assert.Nil(t, v.Parent)
	assert.Empty(t, v.Siblings)
	assert.Equal(t, []string{"LOT-001-A", "LOT-001-B", "LOT-001-Z", "LOT-001-AA"}, identifiers(v.Children))
}

func TestAssemble_ChildSeesParentAndSiblings(t *testing.T) {
	root := item("1", "LOT-001", "")
	a := item("2", "LOT-001-A", "LOT-001")
	b := item("3", "LOT-001-B", "LOT-001")
	c := item("4", "LOT-001-C", "LOT-001")
	grandchild := item("5", "LOT-001-B-A", "LOT-001-B")

	v := Assemble(b, root, []*models.Item{c, a, b}, []*models.Item{grandchild})
	require.NotNil(t, v.Parent)
	assert.Equal(t, "LOT-001", v.Parent.Identifier())
	assert.Equal(t, []string{"LOT-001-A", "LOT-001-C"}, identifiers(v.Siblings))
	assert.Equal(t, []string{"LOT-001-B-A"}, identifiers(v.Children))
}

func TestAssemble_LegacyChildrenSortAfterDerived(t *testing.T) {
	root := item("1", "LOT-001", "")
	v := Assemble(root, nil, nil, []*models.Item{
		item("9", "LEGACY-9", "LOT-001"),
		item("2", "LOT-001-A", "LOT-001"),
	})
	assert.Equal(t, []string{"LOT-001-A", "LEGACY-9"}, identifiers(v.Children))
}
