package primary

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/lotledger/internal/models"
)

// TrackingService defines the primary port for the identifier policy.
type TrackingService interface {
	// ValidateTracking checks the serial/lot pair and returns the tracking type.
	ValidateTracking(serial, lot string, kind models.ItemKind, declared models.TrackingType) (models.TrackingType, error)
}

// RegistryService defines the primary port for cross-kind identifier uniqueness.
type RegistryService interface {
	// EnsureUnique fails with *models.DuplicateIdentifierError when (partNumber,
	// identifier) is held by any item able to carry the tracking type. Empty
	// identifiers always pass. exclude skips the record's own identity.
	EnsureUnique(ctx context.Context, partNumber, identifier string, tt models.TrackingType, exclude *models.ItemRef) error
}

// SequenceService defines the primary port for minting system lot numbers.
type SequenceService interface {
	// NextLotNumber mints the next LOT-YYMMDD-NNNN number for the given day.
	NextLotNumber(ctx context.Context, today time.Time) (string, error)
}

// SplitService defines the primary port for the lot splitting engine.
type SplitService interface {
	// Split carves requested quantity off parent into a child at destination.
	// When requested equals the parent quantity the parent is fully consumed
	// and the returned child is nil.
	Split(ctx context.Context, req SplitRequest) (*SplitResult, error)
}

// LineageService defines the primary port for lineage views.
type LineageService interface {
	// Lineage returns the immediate parent, children and siblings of an item.
	Lineage(ctx context.Context, ref models.ItemRef) (*Lineage, error)

	// LineageByIdentifier resolves the item first, then returns its lineage.
	LineageByIdentifier(ctx context.Context, kind models.ItemKind, partNumber, identifier string) (*Lineage, error)
}

// MovementService defines the primary port for issue/transfer orchestration.
type MovementService interface {
	// Issue issues quantity from an item to an actor.
	Issue(ctx context.Context, req IssueRequest) (*IssuedRef, error)

	// Transfer moves quantity from an item to another location.
	Transfer(ctx context.Context, req TransferRequest) (*TransferRef, error)

	// Return brings an issued item back to stock at a location.
	Return(ctx context.Context, req ReturnRequest) (*MovementResult, error)

	// Expire marks an available lot as expired. Terminal.
	Expire(ctx context.Context, ref models.ItemRef) (*MovementResult, error)
}

// ReceiptService defines the primary port for goods receipt and lookup.
type ReceiptService interface {
	// Receive creates a new item, minting a lot number when none is supplied.
	Receive(ctx context.Context, req ReceiveRequest) (*MovementResult, error)

	// GetItem looks up an item by kind, part number and identifier.
	GetItem(ctx context.Context, kind models.ItemKind, partNumber, identifier string) (*models.Item, error)
}

// SplitRequest contains parameters for a split.
type SplitRequest struct {
	Parent      models.ItemRef
	Quantity    decimal.Decimal
	Destination string
}

// SplitResult contains the outcome of a split.
type SplitResult struct {
	Parent *models.Item
	Child  *models.Item // nil on full consumption
	Event  models.MovementEvent
}

// Lineage is the one-level lineage view of an item.
type Lineage struct {
	Current  *models.Item
	Parent   *models.Item
	Children []*models.Item
	Siblings []*models.Item
}

// IssueRequest contains parameters for issuing an item.
type IssueRequest struct {
	Item     models.ItemRef
	Quantity decimal.Decimal
	// Actor defaults to the actor carried by the context.
	Actor string
	// IssuedTo is recorded as the location of the issued entity. Defaults to the actor.
	IssuedTo string
}

// IssuedRef identifies the entity that was actually issued.
type IssuedRef struct {
	Issued *models.Item // parent on full consumption or serial, child otherwise
	Parent *models.Item
	Split  bool
	Event  models.MovementEvent
}

// TransferRequest contains parameters for a transfer.
type TransferRequest struct {
	Item     models.ItemRef
	Quantity decimal.Decimal
	From     string
	To       string
}

// TransferRef identifies the entity that was actually moved.
type TransferRef struct {
	Moved  *models.Item
	Parent *models.Item
	Split  bool
	Event  models.MovementEvent
}

// ReturnRequest contains parameters for returning an issued item.
type ReturnRequest struct {
	Item     models.ItemRef
	Location string
}

// MovementResult is the outcome of a single-item operation.
type MovementResult struct {
	Item  *models.Item
	Event models.MovementEvent
}

// ReceiveRequest contains parameters for goods receipt.
type ReceiveRequest struct {
	Kind           models.ItemKind
	PartNumber     string
	SerialNumber   string
	LotNumber      string
	TrackingType   models.TrackingType
	Quantity       decimal.Decimal
	Unit           string
	LocationRef    string
	Description    string
	Manufacturer   string
	Category       string
	ExpirationDate *time.Time
	MinimumStock   *decimal.Decimal
}
