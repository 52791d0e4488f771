package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	cliadapter "github.com/example/lotledger/internal/adapters/cli"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/primary"
	"github.com/example/lotledger/internal/wire"
)

// addLocatorFlags registers the flags that, with the identifier argument,
// name an item.
func addLocatorFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("part", "p", "", "Part number (required)")
	cmd.Flags().StringP("kind", "k", "", "Item kind: tool, chemical or expendable (default: search all)")
	_ = cmd.MarkFlagRequired("part")
}

func locatorFrom(cmd *cobra.Command, identifier string) (cliadapter.Locator, error) {
	part, _ := cmd.Flags().GetString("part")
	kindFlag, _ := cmd.Flags().GetString("kind")

	loc := cliadapter.Locator{PartNumber: part, Identifier: identifier}
	if kindFlag != "" {
		kind, ok := models.ParseItemKind(kindFlag)
		if !ok {
			return loc, fmt.Errorf("unknown kind %q (want tool, chemical or expendable)", kindFlag)
		}
		loc.Kind = kind
	}
	return loc, nil
}

func quantityFlag(cmd *cobra.Command) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString("qty")
	qty, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid --qty %q: %w", raw, err)
	}
	return qty, nil
}

// ReceiveCmd returns the receive command.
func ReceiveCmd() *cobra.Command {
	var (
		kind, part, serial, lot, tracking string
		qty, unit, location               string
		description, manufacturer         string
		category, expires, minimum        string
	)

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Record a goods receipt",
		Long: `Create an item at goods receipt.

Exactly one of --serial or --lot must be given, except for lot receipts
without a lot number, which get one minted (LOT-YYMMDD-NNNN).

Examples:
  lotledger receive --kind tool --part TQ-250 --serial SN-10003 --location WH-A
  lotledger receive --kind chemical --part IPA-99 --qty 500 --unit ml --location WH-B`,
		RunE: func(cmd *cobra.Command, args []string) error {
			itemKind, ok := models.ParseItemKind(kind)
			if !ok {
				return fmt.Errorf("unknown kind %q (want tool, chemical or expendable)", kind)
			}

			req := primary.ReceiveRequest{
				Kind:         itemKind,
				PartNumber:   part,
				SerialNumber: serial,
				LotNumber:    lot,
				TrackingType: models.TrackingType(tracking),
				Unit:         unit,
				LocationRef:  location,
				Description:  description,
				Manufacturer: manufacturer,
				Category:     category,
			}
			if qty != "" {
				q, err := decimal.NewFromString(qty)
				if err != nil {
					return fmt.Errorf("invalid --qty %q: %w", qty, err)
				}
				req.Quantity = q
			}
			if expires != "" {
				t, err := time.Parse(time.DateOnly, expires)
				if err != nil {
					return fmt.Errorf("invalid --expires %q (want YYYY-MM-DD): %w", expires, err)
				}
				req.ExpirationDate = &t
			}
			if minimum != "" {
				m, err := decimal.NewFromString(minimum)
				if err != nil {
					return fmt.Errorf("invalid --min-stock %q: %w", minimum, err)
				}
				req.MinimumStock = &m
			}

			return wire.ItemAdapter().Receive(cmd.Context(), req)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Item kind: tool, chemical or expendable (required)")
	cmd.Flags().StringVarP(&part, "part", "p", "", "Part number (required)")
	cmd.Flags().StringVar(&serial, "serial", "", "Serial number")
	cmd.Flags().StringVar(&lot, "lot", "", "Lot number (minted when omitted for lots)")
	cmd.Flags().StringVar(&tracking, "tracking", "", "Tracking type: serial, lot or none (inferred when omitted)")
	cmd.Flags().StringVar(&qty, "qty", "", "Quantity (serial units default to 1)")
	cmd.Flags().StringVar(&unit, "unit", "each", "Unit of measure")
	cmd.Flags().StringVarP(&location, "location", "l", "", "Location reference")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&manufacturer, "manufacturer", "", "Manufacturer")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().StringVar(&expires, "expires", "", "Expiration date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&minimum, "min-stock", "", "Minimum stock level")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("part")
	return cmd
}

// IssueCmd returns the issue command.
func IssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue [identifier]",
		Short: "Issue an item or part of a lot",
		Long: `Issue quantity from an item. Serial units are issued whole (--qty 1).
Issuing part of a lot splits a child lot off and issues the child.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locatorFrom(cmd, args[0])
			if err != nil {
				return err
			}
			qty, err := quantityFlag(cmd)
			if err != nil {
				return err
			}
			actor, _ := cmd.Flags().GetString("to")
			issuedTo, _ := cmd.Flags().GetString("issued-to")
			return wire.ItemAdapter().Issue(cmd.Context(), loc, qty, actor, issuedTo)
		},
	}
	addLocatorFlags(cmd)
	cmd.Flags().String("qty", "1", "Quantity to issue")
	cmd.Flags().String("to", "", "Actor receiving the item (default: --actor)")
	cmd.Flags().String("issued-to", "", "Location recorded for the issued item (default: the actor)")
	return cmd
}

// TransferCmd returns the transfer command.
func TransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer [identifier]",
		Short: "Move an item or part of a lot to another location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locatorFrom(cmd, args[0])
			if err != nil {
				return err
			}
			qty, err := quantityFlag(cmd)
			if err != nil {
				return err
			}
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("dest")
			return wire.ItemAdapter().Transfer(cmd.Context(), loc, qty, from, to)
		},
	}
	addLocatorFlags(cmd)
	cmd.Flags().String("qty", "1", "Quantity to move")
	cmd.Flags().String("from", "", "Expected current location")
	cmd.Flags().String("dest", "", "Destination location (required)")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}

// ReturnCmd returns the return command.
func ReturnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "return [identifier]",
		Short: "Return an issued item to stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locatorFrom(cmd, args[0])
			if err != nil {
				return err
			}
			location, _ := cmd.Flags().GetString("location")
			return wire.ItemAdapter().Return(cmd.Context(), loc, location)
		},
	}
	addLocatorFlags(cmd)
	cmd.Flags().StringP("location", "l", "", "Location the item returns to")
	return cmd
}

// SplitCmd returns the split command.
func SplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [lot]",
		Short: "Split quantity off a lot into a child lot",
		Long: `Carve --qty off a lot. The child is named <lot>-A, <lot>-B, ... and
inherits the parent's descriptive attributes. Taking the whole quantity
depletes the lot without creating a child.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locatorFrom(cmd, args[0])
			if err != nil {
				return err
			}
			qty, err := quantityFlag(cmd)
			if err != nil {
				return err
			}
			dest, _ := cmd.Flags().GetString("dest")
			return wire.ItemAdapter().Split(cmd.Context(), loc, qty, dest)
		},
	}
	addLocatorFlags(cmd)
	cmd.Flags().String("qty", "", "Quantity to split off (required)")
	cmd.Flags().String("dest", "", "Location of the child lot")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

// ExpireCmd returns the expire command.
func ExpireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expire [lot]",
		Short: "Mark an available lot as expired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locatorFrom(cmd, args[0])
			if err != nil {
				return err
			}
			return wire.ItemAdapter().Expire(cmd.Context(), loc)
		},
	}
	addLocatorFlags(cmd)
	return cmd
}

// ShowCmd returns the show command.
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [identifier]",
		Short: "Show an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locatorFrom(cmd, args[0])
			if err != nil {
				return err
			}
			return wire.ItemAdapter().Show(cmd.Context(), loc)
		},
	}
	addLocatorFlags(cmd)
	return cmd
}

// LineageCmd returns the lineage command.
func LineageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage [identifier]",
		Short: "Show the parent, children and siblings of an item",
		Long: `Show one level of lineage. Run lineage again on the parent to walk
further up the chain.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := locatorFrom(cmd, args[0])
			if err != nil {
				return err
			}
			return wire.ItemAdapter().Lineage(cmd.Context(), loc)
		},
	}
	addLocatorFlags(cmd)
	return cmd
}

// LotCmd returns the lot command group.
func LotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lot",
		Short: "Lot number utilities",
	}

	next := &cobra.Command{
		Use:   "next",
		Short: "Mint the next system lot number",
		RunE: func(cmd *cobra.Command, args []string) error {
			dateFlag, _ := cmd.Flags().GetString("date")
			day := time.Now()
			if dateFlag != "" {
				var err error
				day, err = time.Parse(time.DateOnly, dateFlag)
				if err != nil {
					return fmt.Errorf("invalid --date %q (want YYYY-MM-DD): %w", dateFlag, err)
				}
			}
			return wire.ItemAdapter().NextLot(cmd.Context(), day)
		},
	}
	next.Flags().String("date", "", "Day to mint for (default: today)")

	cmd.AddCommand(next)
	return cmd
}
