// Package movement contains the pure availability rules for issuing,
// transferring, returning and expiring items.
package movement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/lotledger/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string

	identifier string
	status     models.ItemStatus
	operation  string
}

// Error converts the guard result to an ItemStateError if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &models.ItemStateError{
		Identifier: r.identifier,
		Status:     r.status,
		Operation:  r.operation,
		Reason:     r.Reason,
	}
}

// ItemContext provides item state for movement guards.
type ItemContext struct {
	Identifier   string
	TrackingType models.TrackingType
	Status       models.ItemStatus
	Expired      bool
}

// ContextFor builds an ItemContext from an item as of now.
func ContextFor(item *models.Item, now time.Time) ItemContext {
	return ItemContext{
		Identifier:   item.Identifier(),
		TrackingType: item.TrackingType,
		Status:       item.Status,
		Expired:      item.IsExpiredAt(now),
	}
}

func deny(ctx ItemContext, op, reason string) GuardResult {
	return GuardResult{Allowed: false, Reason: reason, identifier: ctx.Identifier, status: ctx.Status, operation: op}
}

// CanMove evaluates whether an item can be issued, transferred or split.
// Rules:
// - Item must not be expired (by status or by date)
// - Item must be available
func CanMove(ctx ItemContext, op string) GuardResult {
	if ctx.Expired {
		return deny(ctx, op, "item is expired")
	}
	if ctx.Status != models.StatusAvailable {
		return deny(ctx, op, fmt.Sprintf("item is %s, not available", ctx.Status))
	}
	return GuardResult{Allowed: true}
}

// CanReturn evaluates whether an item can be returned to stock.
// Rules:
// - Item must currently be issued
func CanReturn(ctx ItemContext) GuardResult {
	if ctx.Status != models.StatusIssued {
		return deny(ctx, "return", fmt.Sprintf("only issued items can be returned (current status: %s)", ctx.Status))
	}
	return GuardResult{Allowed: true}
}

// CanExpire evaluates whether an item can be marked expired.
// Rules:
// - Only lots expire
// - Item must be available
func CanExpire(ctx ItemContext) GuardResult {
	if ctx.TrackingType != models.TrackingLot {
		return deny(ctx, "expire", "only lot-tracked items expire")
	}
	if ctx.Status != models.StatusAvailable {
		return deny(ctx, "expire", fmt.Sprintf("item is %s, not available", ctx.Status))
	}
	return GuardResult{Allowed: true}
}

// CheckRequestedQuantity validates the quantity of an issue or transfer.
// Serial units move whole: the quantity must be exactly one. Lots must be positive.
func CheckRequestedQuantity(item *models.Item, requested decimal.Decimal) error {
	if !requested.IsPositive() {
		return &models.InvalidQuantityError{Requested: requested, Reason: "quantity must be greater than zero"}
	}
	if item.TrackingType == models.TrackingSerial && !requested.Equal(decimal.NewFromInt(1)) {
		return &models.UnsplittableItemError{
			Identifier: item.Identifier(),
			Reason:     fmt.Sprintf("serial-tracked units move whole; requested %s", requested.String()),
		}
	}
	return nil
}
