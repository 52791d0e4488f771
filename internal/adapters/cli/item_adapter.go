// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters resolve identifiers and format output,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/primary"
)

// Retrier runs op, possibly more than once.
type Retrier func(ctx context.Context, op func() error) error

// Services groups the primary ports the adapter drives.
type Services struct {
	Receipts primary.ReceiptService
	Moves    primary.MovementService
	Splits   primary.SplitService
	Lineage  primary.LineageService
	Sequence primary.SequenceService
}

// ItemAdapter is a thin adapter that translates CLI operations to ledger service calls.
type ItemAdapter struct {
	svc   Services
	retry Retrier
	out   io.Writer
}

// NewItemAdapter creates a new ItemAdapter. A nil retry runs each operation once.
func NewItemAdapter(svc Services, retry Retrier, out io.Writer) *ItemAdapter {
	if retry == nil {
		retry = func(ctx context.Context, op func() error) error { return op() }
	}
	return &ItemAdapter{svc: svc, retry: retry, out: out}
}

// Locator names an item the way an operator types it.
type Locator struct {
	Kind       models.ItemKind // empty searches every kind
	PartNumber string
	Identifier string
}

func (a *ItemAdapter) resolve(ctx context.Context, loc Locator) (*models.Item, error) {
	var item *models.Item
	err := a.retry(ctx, func() error {
		var err error
		item, err = a.svc.Receipts.GetItem(ctx, loc.Kind, loc.PartNumber, loc.Identifier)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("item %s/%s: %w", loc.PartNumber, loc.Identifier, err)
	}
	return item, nil
}

// Receive records a goods receipt.
func (a *ItemAdapter) Receive(ctx context.Context, req primary.ReceiveRequest) error {
	var res *primary.MovementResult
	err := a.retry(ctx, func() error {
		var err error
		res, err = a.svc.Receipts.Receive(ctx, req)
		return err
	})
	if err != nil {
		return err
	}
	item := res.Item
	fmt.Fprintf(a.out, "%s Received %s %s %s (%s %s) at %s\n",
		success(), item.Kind, item.PartNumber, item.Identifier(),
		item.Quantity.String(), item.Unit, orDash(item.LocationRef))
	return nil
}

// Issue issues quantity of an item to an actor.
func (a *ItemAdapter) Issue(ctx context.Context, loc Locator, qty decimal.Decimal, actor, issuedTo string) error {
	item, err := a.resolve(ctx, loc)
	if err != nil {
		return err
	}
	var ref *primary.IssuedRef
	err = a.retry(ctx, func() error {
		var err error
		ref, err = a.svc.Moves.Issue(ctx, primary.IssueRequest{Item: item.Ref(), Quantity: qty, Actor: actor, IssuedTo: issuedTo})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Issued %s of %s to %s\n", success(), qty.String(), ref.Issued.Identifier(), ref.Event.ToLocation)
	if ref.Split {
		fmt.Fprintf(a.out, "  split from %s, %s remaining\n", ref.Parent.Identifier(), ref.Parent.Quantity.String())
	}
	return nil
}

// Transfer moves quantity of an item to another location.
func (a *ItemAdapter) Transfer(ctx context.Context, loc Locator, qty decimal.Decimal, from, to string) error {
	item, err := a.resolve(ctx, loc)
	if err != nil {
		return err
	}
	var ref *primary.TransferRef
	err = a.retry(ctx, func() error {
		var err error
		ref, err = a.svc.Moves.Transfer(ctx, primary.TransferRequest{Item: item.Ref(), Quantity: qty, From: from, To: to})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Transferred %s of %s to %s\n", success(), qty.String(), ref.Moved.Identifier(), ref.Moved.LocationRef)
	if ref.Split {
		fmt.Fprintf(a.out, "  split from %s, %s remaining at %s\n",
			ref.Parent.Identifier(), ref.Parent.Quantity.String(), orDash(ref.Parent.LocationRef))
	}
	return nil
}

// Return returns an issued item to stock.
func (a *ItemAdapter) Return(ctx context.Context, loc Locator, location string) error {
	item, err := a.resolve(ctx, loc)
	if err != nil {
		return err
	}
	var res *primary.MovementResult
	err = a.retry(ctx, func() error {
		var err error
		res, err = a.svc.Moves.Return(ctx, primary.ReturnRequest{Item: item.Ref(), Location: location})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Returned %s to %s\n", success(), res.Item.Identifier(), orDash(res.Item.LocationRef))
	return nil
}

// Split carves quantity off a lot.
func (a *ItemAdapter) Split(ctx context.Context, loc Locator, qty decimal.Decimal, destination string) error {
	item, err := a.resolve(ctx, loc)
	if err != nil {
		return err
	}
	var res *primary.SplitResult
	err = a.retry(ctx, func() error {
		var err error
		res, err = a.svc.Splits.Split(ctx, primary.SplitRequest{Parent: item.Ref(), Quantity: qty, Destination: destination})
		return err
	})
	if err != nil {
		return err
	}
	if res.Child == nil {
		fmt.Fprintf(a.out, "%s Consumed all of %s (%s)\n", success(), res.Parent.Identifier(), statusText(res.Parent.Status))
		return nil
	}
	fmt.Fprintf(a.out, "%s Split %s off %s into %s\n", success(), qty.String(), res.Parent.Identifier(), res.Child.Identifier())
	fmt.Fprintf(a.out, "  parent remaining: %s %s\n", res.Parent.Quantity.String(), res.Parent.Unit)
	return nil
}

// Expire marks a lot expired.
func (a *ItemAdapter) Expire(ctx context.Context, loc Locator) error {
	item, err := a.resolve(ctx, loc)
	if err != nil {
		return err
	}
	var res *primary.MovementResult
	err = a.retry(ctx, func() error {
		var err error
		res, err = a.svc.Moves.Expire(ctx, item.Ref())
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Expired %s\n", success(), res.Item.Identifier())
	return nil
}

// Show prints one item.
func (a *ItemAdapter) Show(ctx context.Context, loc Locator) error {
	item, err := a.resolve(ctx, loc)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s (%s)\n", item.PartNumber, item.Identifier(), item.Kind)
	fmt.Fprintf(a.out, "  Tracking: %s\n", item.TrackingType)
	fmt.Fprintf(a.out, "  Quantity: %s %s\n", item.Quantity.String(), item.Unit)
	fmt.Fprintf(a.out, "  Status:   %s\n", statusText(item.Status))
	fmt.Fprintf(a.out, "  Location: %s\n", orDash(item.LocationRef))
	if item.ParentIdentifier != "" {
		fmt.Fprintf(a.out, "  Parent:   %s\n", item.ParentIdentifier)
	}
	if item.TrackingType == models.TrackingLot {
		fmt.Fprintf(a.out, "  Children: %d\n", item.ChildSequenceCount)
	}
	if item.Description != "" {
		fmt.Fprintf(a.out, "  Description: %s\n", item.Description)
	}
	if item.ExpirationDate != nil {
		fmt.Fprintf(a.out, "  Expires:  %s\n", item.ExpirationDate.Format(time.DateOnly))
	}
	if item.IsBelowMinimum() {
		fmt.Fprintf(a.out, "  %s below minimum stock %s\n", color.New(color.FgYellow).Sprint("!"), item.MinimumStock.String())
	}
	return nil
}

// Lineage prints the one-level lineage of an item.
func (a *ItemAdapter) Lineage(ctx context.Context, loc Locator) error {
	var view *primary.Lineage
	err := a.retry(ctx, func() error {
		var err error
		view, err = a.svc.Lineage.LineageByIdentifier(ctx, loc.Kind, loc.PartNumber, loc.Identifier)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s %s\n", view.Current.PartNumber, lineRow(view.Current))
	if view.Parent != nil {
		fmt.Fprintf(a.out, "  parent:   %s\n", lineRow(view.Parent))
	} else {
		fmt.Fprintln(a.out, "  parent:   -")
	}
	printGroup(a.out, "children", view.Children)
	printGroup(a.out, "siblings", view.Siblings)
	return nil
}

// NextLot mints a lot number without creating an item.
func (a *ItemAdapter) NextLot(ctx context.Context, day time.Time) error {
	var lot string
	err := a.retry(ctx, func() error {
		var err error
		lot, err = a.svc.Sequence.NextLotNumber(ctx, day)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, lot)
	return nil
}

func printGroup(out io.Writer, label string, items []*models.Item) {
	if len(items) == 0 {
		fmt.Fprintf(out, "  %s: none\n", label)
		return
	}
	fmt.Fprintf(out, "  %s (%d):\n", label, len(items))
	for _, item := range items {
		fmt.Fprintf(out, "    %s\n", lineRow(item))
	}
}

func lineRow(item *models.Item) string {
	return fmt.Sprintf("%-24s %10s %-6s %-10s %s",
		item.Identifier(), item.Quantity.String(), item.Unit, statusText(item.Status), orDash(item.LocationRef))
}

func statusText(status models.ItemStatus) string {
	switch status {
	case models.StatusAvailable:
		return color.New(color.FgGreen).Sprint(status)
	case models.StatusIssued, models.StatusMaintenance:
		return color.New(color.FgYellow).Sprint(status)
	case models.StatusDepleted, models.StatusExpired, models.StatusRetired:
		return color.New(color.FgRed).Sprint(status)
	}
	return string(status)
}

func success() string {
	return color.New(color.FgGreen).Sprint("✓")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
