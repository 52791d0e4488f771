// Package lotsplit contains the pure rules for carving a child lot off a parent:
// the full/partial decision, suffix derivation and the conservation check.
package lotsplit

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/lotledger/internal/models"
)

// Mode is the outcome of a split decision.
type Mode int

const (
	// ModeFull consumes the whole parent; no child is created.
	ModeFull Mode = iota + 1
	// ModePartial carves a child off the parent.
	ModePartial
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModePartial:
		return "partial"
	}
	return "unknown"
}

// Decision describes what a split request resolves to.
type Decision struct {
	Mode      Mode
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

// Decide evaluates preconditions and chooses between full consumption and a child split.
// Rules:
// - Serial-tracked units never split, whatever the quantity
// - Requested must be strictly positive
// - Requested must not exceed the parent quantity
// - Terminal parents cannot change quantity
func Decide(parent *models.Item, requested decimal.Decimal) (Decision, error) {
	if parent.TrackingType != models.TrackingLot {
		return Decision{}, &models.UnsplittableItemError{
			Identifier: parent.Identifier(),
			Reason:     "serial-tracked units are indivisible",
		}
	}
	if !requested.IsPositive() {
		return Decision{}, &models.InvalidQuantityError{
			Requested: requested,
			Reason:    "quantity must be greater than zero",
		}
	}
	if requested.GreaterThan(parent.Quantity) {
		return Decision{}, &models.InsufficientQuantityError{
			Identifier: parent.Identifier(),
			Requested:  requested,
			Available:  parent.Quantity,
		}
	}
	if parent.Status.IsTerminal() {
		return Decision{}, &models.ItemStateError{
			Identifier: parent.Identifier(),
			Status:     parent.Status,
			Operation:  "split",
		}
	}

	if requested.Equal(parent.Quantity) {
		return Decision{Mode: ModeFull, Requested: requested, Remaining: decimal.Zero}, nil
	}
	return Decision{
		Mode:      ModePartial,
		Requested: requested,
		Remaining: parent.Quantity.Sub(requested),
	}, nil
}

// TakenFunc reports whether a candidate identifier is already in use.
type TakenFunc func(ctx context.Context, candidate string) (bool, error)

// NextChildIdentifier walks the parent's suffix sequence from its current
// child count until it finds an identifier that is not taken. Skipped suffixes
// are consumed; the returned next count must be stored on the parent.
func NextChildIdentifier(ctx context.Context, parent *models.Item, taken TakenFunc, maxAttempts int) (identifier string, nextCount int, err error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	index := parent.ChildSequenceCount
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := ChildIdentifier(parent.LotNumber, index)
		index++
		inUse, err := taken(ctx, candidate)
		if err != nil {
			return "", 0, err
		}
		if !inUse {
			return candidate, index, nil
		}
	}
	return "", 0, fmt.Errorf("no free child identifier for %s after %d attempts", parent.LotNumber, maxAttempts)
}

// ChildSpec carries the attributes the child does not inherit from its parent.
type ChildSpec struct {
	ID          string
	LotNumber   string
	NextCount   int
	LocationRef string
	Status      models.ItemStatus
	Now         time.Time
}

// Apply performs a partial split in memory and returns the updated parent and
// the new child. The input parent is not modified.
func Apply(parent *models.Item, requested decimal.Decimal, spec ChildSpec) (*models.Item, *models.Item, error) {
	updated := parent.Clone()
	updated.Quantity = parent.Quantity.Sub(requested)
	updated.ChildSequenceCount = spec.NextCount
	updated.UpdatedAt = spec.Now
	if updated.Quantity.IsZero() {
		updated.Status = models.StatusDepleted
	}

	status := spec.Status
	if status == "" {
		status = models.StatusAvailable
	}
	child := &models.Item{
		ID:               spec.ID,
		Kind:             parent.Kind,
		PartNumber:       parent.PartNumber,
		LotNumber:        spec.LotNumber,
		TrackingType:     models.TrackingLot,
		Quantity:         requested,
		Unit:             parent.Unit,
		Status:           status,
		LocationRef:      spec.LocationRef,
		ParentIdentifier: parent.LotNumber,
		Description:      parent.Description,
		Manufacturer:     parent.Manufacturer,
		Category:         parent.Category,
		CreatedAt:        spec.Now,
		UpdatedAt:        spec.Now,
	}
	if parent.ExpirationDate != nil {
		exp := *parent.ExpirationDate
		child.ExpirationDate = &exp
	}
	if parent.MinimumStock != nil {
		minimum := *parent.MinimumStock
		child.MinimumStock = &minimum
	}

	if err := CheckConservation(parent.Quantity, updated, child); err != nil {
		return nil, nil, err
	}
	return updated, child, nil
}

// CheckConservation verifies before == parent.after + child and child > 0.
func CheckConservation(before decimal.Decimal, parentAfter, child *models.Item) error {
	if !child.Quantity.IsPositive() {
		return fmt.Errorf("conservation violated: child %s has non-positive quantity %s",
			child.LotNumber, child.Quantity.String())
	}
	if parentAfter.Quantity.IsNegative() {
		return fmt.Errorf("conservation violated: parent %s would go negative", parentAfter.LotNumber)
	}
	if !before.Equal(parentAfter.Quantity.Add(child.Quantity)) {
		return fmt.Errorf("conservation violated: %s != %s + %s",
			before.String(), parentAfter.Quantity.String(), child.Quantity.String())
	}
	return nil
}
