package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/example/lotledger/internal/ctxutil"
	"github.com/example/lotledger/internal/metrics"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

// systemActor is recorded on events when neither the request nor the context names one.
const systemActor = "system"

// Hooks bundles the collaborators that receive results after commit.
// Either field may be nil.
type Hooks struct {
	Ledger secondary.MovementLedger
	Stock  secondary.StockWatcher
}

// notify hands a committed event and the items it touched to the hooks.
// Failures are logged; the movement is already committed and stays so.
func (h Hooks) notify(ctx context.Context, logger *log.Logger, event models.MovementEvent, items ...*models.Item) {
	if h.Ledger != nil {
		if err := h.Ledger.Record(ctx, event); err != nil {
			logger.Warn("movement ledger hand-off failed", "event", event.ID, "action", event.Action, "err", err)
		}
	}
	if h.Stock == nil {
		return
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		if err := h.Stock.ItemChanged(ctx, item); err != nil {
			logger.Warn("stock watcher failed", "item", item.Identifier(), "err", err)
		}
	}
}

func newEvent(ctx context.Context, action models.MovementAction, item *models.Item, actor string, now time.Time) models.MovementEvent {
	if actor == "" {
		actor = actorFrom(ctx)
	}
	return models.MovementEvent{
		ID:               uuid.NewString(),
		Action:           action,
		ItemKind:         item.Kind,
		PartNumber:       item.PartNumber,
		ParentIdentifier: item.Identifier(),
		Actor:            actor,
		FromLocation:     item.LocationRef,
		Timestamp:        now,
	}
}

func actorFrom(ctx context.Context) string {
	if actor := ctxutil.ActorFromContext(ctx); actor != "" {
		return actor
	}
	return systemActor
}

// ensureUnique checks (partNumber, identifier) against every store able to
// hold tt. It is advisory; the identifier index constraint is the authority.
func ensureUnique(ctx context.Context, uow secondary.UnitOfWork, partNumber, identifier string, tt models.TrackingType, exclude *models.ItemRef) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}
	for _, kind := range models.KindsSupporting(tt) {
		store, err := uow.Items(kind)
		if err != nil {
			return err
		}
		existing, err := store.FindByIdentifier(ctx, partNumber, identifier, tt)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to check %s identifiers: %w", kind, err)
		}
		if exclude != nil && existing.Ref() == *exclude {
			continue
		}
		return &models.DuplicateIdentifierError{
			PartNumber:       partNumber,
			Identifier:       identifier,
			TrackingType:     tt,
			ConflictKind:     existing.Kind,
			ConflictID:       existing.ID,
			ConflictLocation: existing.LocationRef,
		}
	}
	return nil
}

// countDuplicate records a duplicate rejection under the source that caught it.
func countDuplicate(m *metrics.Metrics, err error, source string) {
	if models.IsDuplicateIdentifier(err) {
		m.DuplicateRejected(source)
	}
}

// lockItem resolves the store for ref and locks the item row.
func lockItem(ctx context.Context, uow secondary.UnitOfWork, ref models.ItemRef) (secondary.ItemStore, *models.Item, error) {
	store, err := uow.Items(ref.Kind)
	if err != nil {
		return nil, nil, err
	}
	item, err := store.GetForUpdate(ctx, ref.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s %s: %w", ref.Kind, ref.ID, err)
	}
	return store, item, nil
}
