package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by stores when no item matches a lookup.
var ErrNotFound = errors.New("not found")

// ErrTransient marks storage faults (lock timeout, deadlock, busy database) that
// the immediate caller may retry. The ledger core never retries on its own.
var ErrTransient = errors.New("transient storage fault")

// InvalidTrackingError is returned when the serial/lot pair violates the
// exactly-one rule or disagrees with the declared tracking type.
type InvalidTrackingError struct {
	Serial   string
	Lot      string
	Declared TrackingType
	Kind     ItemKind
	Reason   string
}

func (e *InvalidTrackingError) Error() string {
	return fmt.Sprintf("invalid tracking: %s", e.Reason)
}

// DuplicateIdentifierError is returned when (part number, identifier) is already
// held by another item of any kind.
type DuplicateIdentifierError struct {
	PartNumber   string
	Identifier   string
	TrackingType TrackingType

	// Conflict details; populated when the conflicting item could be resolved.
	ConflictKind     ItemKind
	ConflictID       string
	ConflictLocation string
}

func (e *DuplicateIdentifierError) Error() string {
	if e.ConflictKind == "" {
		return fmt.Sprintf("%s number %s already exists for part %s", e.TrackingType, e.Identifier, e.PartNumber)
	}
	loc := e.ConflictLocation
	if loc == "" {
		loc = "unknown location"
	}
	return fmt.Sprintf("%s number %s already exists for part %s (%s %s at %s)",
		e.TrackingType, e.Identifier, e.PartNumber, e.ConflictKind, e.ConflictID, loc)
}

// InsufficientQuantityError is returned when more is requested than is available.
type InsufficientQuantityError struct {
	Identifier string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity on %s: requested %s, available %s",
		e.Identifier, e.Requested.String(), e.Available.String())
}

// InvalidQuantityError is returned for zero or negative requested quantities,
// and for serial operations that are not for exactly one unit.
type InvalidQuantityError struct {
	Requested decimal.Decimal
	Reason    string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %s: %s", e.Requested.String(), e.Reason)
}

// UnsplittableItemError is returned when a serial-tracked unit would be split.
type UnsplittableItemError struct {
	Identifier string
	Reason     string
}

func (e *UnsplittableItemError) Error() string {
	return fmt.Sprintf("item %s cannot be split: %s", e.Identifier, e.Reason)
}

// SequenceExhaustionError is returned when a day's lot counter would exceed its width.
type SequenceExhaustionError struct {
	DateKey string
	Limit   int
}

func (e *SequenceExhaustionError) Error() string {
	return fmt.Sprintf("lot sequence for %s exhausted (limit %d per day)", e.DateKey, e.Limit)
}

// ItemStateError is returned when an item's status forbids the requested operation.
type ItemStateError struct {
	Identifier string
	Status     ItemStatus
	Operation  string
	Reason     string
}

func (e *ItemStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s %s: %s", e.Operation, e.Identifier, e.Reason)
	}
	return fmt.Sprintf("cannot %s %s in status %s", e.Operation, e.Identifier, e.Status)
}

// IsDuplicateIdentifier reports whether err is or wraps a DuplicateIdentifierError.
func IsDuplicateIdentifier(err error) bool {
	var dup *DuplicateIdentifierError
	return errors.As(err, &dup)
}
