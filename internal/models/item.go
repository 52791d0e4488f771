// Package models contains domain types for ledger items.
// SQL persistence lives in internal/adapters/sqlite and internal/adapters/postgres.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ItemKind identifies the concrete store an item lives in.
type ItemKind string

// Item kinds
const (
	KindTool       ItemKind = "tool"
	KindChemical   ItemKind = "chemical"
	KindExpendable ItemKind = "expendable"
)

// AllKinds lists every concrete item kind in a stable order.
var AllKinds = []ItemKind{KindTool, KindChemical, KindExpendable}

// ParseItemKind parses a kind name, accepting a few common aliases.
func ParseItemKind(s string) (ItemKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tool", "tools":
		return KindTool, true
	case "chemical", "chemicals":
		return KindChemical, true
	case "expendable", "expendables", "kit-item", "kit_item":
		return KindExpendable, true
	}
	return "", false
}

// Supports reports whether items of this kind may carry the given tracking type.
// Tools are individually serialized, chemicals are always lot-controlled and kit
// expendables may be either.
func (k ItemKind) Supports(tt TrackingType) bool {
	switch k {
	case KindTool:
		return tt == TrackingSerial
	case KindChemical:
		return tt == TrackingLot
	case KindExpendable:
		return tt == TrackingSerial || tt == TrackingLot
	}
	return false
}

// KindsSupporting returns every kind able to hold identifiers of the given tracking type.
func KindsSupporting(tt TrackingType) []ItemKind {
	var kinds []ItemKind
	for _, k := range AllKinds {
		if k.Supports(tt) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// TrackingType is the discriminator governing an item's identifier scheme.
type TrackingType string

// Tracking types. TrackingNone is a legacy tag only; it is never persisted.
const (
	TrackingSerial TrackingType = "serial"
	TrackingLot    TrackingType = "lot"
	TrackingNone   TrackingType = "none"
)

// ItemStatus is the lifecycle state of an item.
type ItemStatus string

// Item status constants
const (
	StatusAvailable   ItemStatus = "available"
	StatusIssued      ItemStatus = "issued"
	StatusDepleted    ItemStatus = "depleted"
	StatusExpired     ItemStatus = "expired"
	StatusMaintenance ItemStatus = "maintenance"
	StatusRetired     ItemStatus = "retired"
)

// IsTerminal reports whether no further splits or quantity changes are permitted.
func (s ItemStatus) IsTerminal() bool {
	return s == StatusDepleted || s == StatusExpired || s == StatusRetired
}

// Item is a trackable physical item of any kind. Exactly one of SerialNumber
// and LotNumber is populated.
type Item struct {
	ID           string
	Kind         ItemKind
	PartNumber   string
	SerialNumber string
	LotNumber    string
	TrackingType TrackingType
	Quantity     decimal.Decimal
	Unit         string
	Status       ItemStatus
	LocationRef  string

	// ParentIdentifier is the lot number this item was split from, empty for originals.
	ParentIdentifier string
	// ChildSequenceCount is the number of suffixes ever handed out. Lots only.
	ChildSequenceCount int

	Description    string
	Manufacturer   string
	Category       string
	ExpirationDate *time.Time
	MinimumStock   *decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identifier returns whichever identifier the item is tracked by.
func (i *Item) Identifier() string {
	if i.TrackingType == TrackingSerial {
		return i.SerialNumber
	}
	return i.LotNumber
}

// Ref returns the item's store reference.
func (i *Item) Ref() ItemRef {
	return ItemRef{Kind: i.Kind, ID: i.ID}
}

// IsExpiredAt reports whether the item is expired, either by status or by date.
func (i *Item) IsExpiredAt(now time.Time) bool {
	if i.Status == StatusExpired {
		return true
	}
	return i.ExpirationDate != nil && !i.ExpirationDate.After(now)
}

// IsBelowMinimum reports whether the item has fallen under its minimum stock level.
func (i *Item) IsBelowMinimum() bool {
	return i.MinimumStock != nil && i.Quantity.LessThan(*i.MinimumStock)
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	c := *i
	if i.ExpirationDate != nil {
		t := *i.ExpirationDate
		c.ExpirationDate = &t
	}
	if i.MinimumStock != nil {
		m := *i.MinimumStock
		c.MinimumStock = &m
	}
	return &c
}

// ItemRef points at a single row in a single kind store.
type ItemRef struct {
	Kind ItemKind
	ID   string
}

// IsZero reports whether the reference is unset.
func (r ItemRef) IsZero() bool {
	return r.ID == ""
}
