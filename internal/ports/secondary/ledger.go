// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the ledger core drives storage and
// the external collaborators it hands results to.
package secondary

import (
	"context"

	"github.com/example/lotledger/internal/models"
)

// ItemStore is the item-store capability implemented once per concrete kind.
// The core is written against this interface, never against table schemas.
type ItemStore interface {
	// Kind returns the item kind held by this store.
	Kind() models.ItemKind

	// GetByID retrieves an item by ID. Returns models.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.Item, error)

	// GetForUpdate retrieves an item by ID and locks its row until the
	// surrounding unit of work ends.
	GetForUpdate(ctx context.Context, id string) (*models.Item, error)

	// FindByIdentifier retrieves the item holding (partNumber, identifier) for the
	// given tracking type. Returns models.ErrNotFound when absent.
	FindByIdentifier(ctx context.Context, partNumber, identifier string, tt models.TrackingType) (*models.Item, error)

	// FindChildren retrieves items split from the given parent lot.
	FindChildren(ctx context.Context, partNumber, parentIdentifier string) ([]*models.Item, error)

	// Insert persists a new item. The identifier must be recorded against the
	// cross-kind identifier index in the same unit of work; a unique-constraint
	// violation is returned as *models.DuplicateIdentifierError.
	Insert(ctx context.Context, item *models.Item) error

	// Update persists quantity, status, location, sequence and descriptive changes.
	Update(ctx context.Context, item *models.Item) error
}

// SequenceRepository persists the per-day lot counters.
type SequenceRepository interface {
	// Increment locks the counter row for dateKey, creating it at 1 when missing,
	// and returns the new value. Values past limit fail with
	// *models.SequenceExhaustionError without being stored.
	Increment(ctx context.Context, dateKey string, limit int) (int, error)

	// Get returns the counter row for dateKey. Returns models.ErrNotFound when absent.
	Get(ctx context.Context, dateKey string) (*models.SequenceCounter, error)
}

// UnitOfWork exposes transaction-bound stores.
type UnitOfWork interface {
	// Items returns the store for the given kind.
	Items(kind models.ItemKind) (ItemStore, error)

	// Sequences returns the lot counter repository.
	Sequences() SequenceRepository
}

// Transactor runs a function inside one atomic transaction. If fn returns an
// error, or the context expires, every write made through the unit of work is
// rolled back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// MovementLedger receives event payloads after commit. Persisting them is the
// collaborator's concern.
type MovementLedger interface {
	Record(ctx context.Context, event models.MovementEvent) error
}

// StockWatcher is notified of items whose quantity or status changed, so that
// reorder logic can run outside the ledger core.
type StockWatcher interface {
	ItemChanged(ctx context.Context, item *models.Item) error
}
