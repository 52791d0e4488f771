// Package lineage assembles the one-level parent/child/sibling view of an item.
// Deeper ancestry is reconstructed by callers chaining lookups.
package lineage

import (
	"sort"

	"github.com/example/lotledger/internal/core/lotsplit"
	"github.com/example/lotledger/internal/models"
)

// View is the immediate lineage of a single item.
type View struct {
	Current  *models.Item
	Parent   *models.Item
	Children []*models.Item
	Siblings []*models.Item
}

// Assemble builds the view from the current item, its parent (nil when none),
// the parent's children and the current item's own children.
func Assemble(current, parent *models.Item, parentChildren, children []*models.Item) View {
	v := View{
		Current:  current,
		Parent:   parent,
		Children: sortChildren(current.Identifier(), children),
	}
	if parent == nil {
		return v
	}
	for _, c := range sortChildren(parent.Identifier(), parentChildren) {
		if c.Ref() == current.Ref() {
			continue
		}
		v.Siblings = append(v.Siblings, c)
	}
	return v
}

// sortChildren orders children by their suffix index (A, B, ..., Z, AA) and
// falls back to identifier order for legacy identifiers that do not decode.
func sortChildren(parentIdentifier string, children []*models.Item) []*models.Item {
	out := make([]*models.Item, len(children))
	copy(out, children)
	sort.SliceStable(out, func(i, j int) bool {
		ii, iok := lotsplit.ChildIndex(parentIdentifier, out[i].Identifier())
		ji, jok := lotsplit.ChildIndex(parentIdentifier, out[j].Identifier())
		switch {
		case iok && jok:
			return ii < ji
		case iok != jok:
			return iok
		}
		return out[i].Identifier() < out[j].Identifier()
	})
	return out
}
