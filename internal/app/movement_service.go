package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/example/lotledger/internal/core/lotsplit"
	"github.com/example/lotledger/internal/core/movement"
	"github.com/example/lotledger/internal/metrics"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/primary"
	"github.com/example/lotledger/internal/ports/secondary"
)

// MovementServiceImpl implements the MovementService interface.
// Partial lot moves are delegated to the split engine.
type MovementServiceImpl struct {
	tx      secondary.Transactor
	engine  *SplitServiceImpl
	hooks   Hooks
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewMovementService creates a new MovementService with injected dependencies.
func NewMovementService(tx secondary.Transactor, engine *SplitServiceImpl, hooks Hooks, logger *log.Logger, m *metrics.Metrics) *MovementServiceImpl {
	return &MovementServiceImpl{
		tx:      tx,
		engine:  engine,
		hooks:   hooks,
		logger:  logger,
		metrics: m,
	}
}

// moved is the outcome of a guarded move inside one transaction.
type moved struct {
	entity *models.Item // the item that actually moved
	parent *models.Item
	split  bool
	event  models.MovementEvent
}

// move runs the shared issue/transfer flow. apply mutates the entity that
// moves whole (serial unit or fully consumed lot).
func (s *MovementServiceImpl) move(
	ctx context.Context,
	op models.MovementAction,
	ref models.ItemRef,
	quantity decimal.Decimal,
	actor string,
	destination string,
	childStatus models.ItemStatus,
	check func(item *models.Item) error,
	apply func(item *models.Item),
) (*moved, error) {
	var out moved

	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		store, item, err := lockItem(ctx, uow, ref)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		if err := movement.CheckRequestedQuantity(item, quantity); err != nil {
			return err
		}
		if err := movement.CanMove(movement.ContextFor(item, now), string(op)).Error(); err != nil {
			return err
		}
		if check != nil {
			if err := check(item); err != nil {
				return err
			}
		}

		out.event = newEvent(ctx, op, item, actor, now)
		out.event.Quantity = quantity
		out.event.ToLocation = destination

		whole := item.TrackingType == models.TrackingSerial
		if !whole {
			decision, err := lotsplit.Decide(item, quantity)
			if err != nil {
				return err
			}
			whole = decision.Mode == lotsplit.ModeFull
		}

		if whole {
			updated := item.Clone()
			apply(updated)
			if err := store.Update(ctx, updated); err != nil {
				return fmt.Errorf("failed to %s %s: %w", op, item.Identifier(), err)
			}
			out.entity, out.parent = updated, updated
			return nil
		}

		parent, child, err := s.engine.carve(ctx, uow, store, item, quantity, destination, childStatus, now)
		if err != nil {
			return err
		}
		out.entity, out.parent, out.split = child, parent, true
		out.event.ChildIdentifier = child.Identifier()
		return nil
	})
	if err != nil {
		countDuplicate(s.metrics, err, metrics.SourceConstraint)
		return nil, err
	}

	s.metrics.Movement(string(op))
	if out.split {
		s.metrics.Split(lotsplit.ModePartial.String())
	}
	s.logger.Info(string(op)+" committed",
		"item", out.parent.Identifier(),
		"moved", out.entity.Identifier(),
		"qty", quantity.String(),
		"to", destination,
	)
	notifyItems := []*models.Item{out.parent}
	if out.split {
		notifyItems = append(notifyItems, out.entity)
	}
	s.hooks.notify(ctx, s.logger, out.event, notifyItems...)
	return &out, nil
}

// Issue issues quantity from an item. Serial units and fully consumed lots are
// issued in place; partial lots are split and the child is issued.
func (s *MovementServiceImpl) Issue(ctx context.Context, req primary.IssueRequest) (*primary.IssuedRef, error) {
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = actorFrom(ctx)
	}
	issuedTo := strings.TrimSpace(req.IssuedTo)
	if issuedTo == "" {
		issuedTo = actor
	}

	out, err := s.move(ctx, models.ActionIssue, req.Item, req.Quantity, actor, issuedTo, models.StatusIssued, nil,
		func(item *models.Item) {
			if item.TrackingType == models.TrackingLot {
				item.Quantity = decimal.Zero
				item.Status = models.StatusDepleted
				return
			}
			item.Status = models.StatusIssued
			item.LocationRef = issuedTo
		})
	if err != nil {
		return nil, err
	}
	return &primary.IssuedRef{Issued: out.entity, Parent: out.parent, Split: out.split, Event: out.event}, nil
}

// Transfer relocates quantity. Serial units and fully moved lots change
// location only; partial lots are split into a child at the destination.
func (s *MovementServiceImpl) Transfer(ctx context.Context, req primary.TransferRequest) (*primary.TransferRef, error) {
	to := strings.TrimSpace(req.To)
	if to == "" {
		return nil, fmt.Errorf("transfer destination is required")
	}
	from := strings.TrimSpace(req.From)

	check := func(item *models.Item) error {
		if from != "" && from != item.LocationRef {
			return &models.ItemStateError{
				Identifier: item.Identifier(),
				Status:     item.Status,
				Operation:  "transfer",
				Reason:     fmt.Sprintf("item is at %q, not %q", item.LocationRef, from),
			}
		}
		return nil
	}

	out, err := s.move(ctx, models.ActionTransfer, req.Item, req.Quantity, "", to, models.StatusAvailable, check,
		func(item *models.Item) {
			item.LocationRef = to
		})
	if err != nil {
		return nil, err
	}
	return &primary.TransferRef{Moved: out.entity, Parent: out.parent, Split: out.split, Event: out.event}, nil
}

// Return brings an issued item back to stock.
func (s *MovementServiceImpl) Return(ctx context.Context, req primary.ReturnRequest) (*primary.MovementResult, error) {
	return s.changeStatus(ctx, models.ActionReturn, req.Item, func(item *models.Item, now time.Time) error {
		if err := movement.CanReturn(movement.ContextFor(item, now)).Error(); err != nil {
			return err
		}
		item.Status = models.StatusAvailable
		if loc := strings.TrimSpace(req.Location); loc != "" {
			item.LocationRef = loc
		}
		return nil
	})
}

// Expire marks an available lot as expired.
func (s *MovementServiceImpl) Expire(ctx context.Context, ref models.ItemRef) (*primary.MovementResult, error) {
	return s.changeStatus(ctx, models.ActionExpire, ref, func(item *models.Item, now time.Time) error {
		if err := movement.CanExpire(movement.ContextFor(item, now)).Error(); err != nil {
			return err
		}
		item.Status = models.StatusExpired
		return nil
	})
}

func (s *MovementServiceImpl) changeStatus(ctx context.Context, op models.MovementAction, ref models.ItemRef, mutate func(item *models.Item, now time.Time) error) (*primary.MovementResult, error) {
	var result primary.MovementResult

	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		store, item, err := lockItem(ctx, uow, ref)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		updated := item.Clone()
		if err := mutate(updated, now); err != nil {
			return err
		}
		if err := store.Update(ctx, updated); err != nil {
			return fmt.Errorf("failed to %s %s: %w", op, item.Identifier(), err)
		}

		result.Item = updated
		result.Event = newEvent(ctx, op, item, "", now)
		result.Event.Quantity = item.Quantity
		result.Event.ToLocation = updated.LocationRef
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Movement(string(op))
	s.logger.Info(string(op)+" committed", "item", result.Item.Identifier(), "status", result.Item.Status)
	s.hooks.notify(ctx, s.logger, result.Event, result.Item)
	return &result, nil
}
