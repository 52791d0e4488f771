package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/lotledger/internal/core/lotsplit"
	"github.com/example/lotledger/internal/core/movement"
	"github.com/example/lotledger/internal/core/tracking"
	"github.com/example/lotledger/internal/metrics"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/primary"
	"github.com/example/lotledger/internal/ports/secondary"
)

// DefaultMaxSuffixAttempts bounds how many taken suffixes a split skips.
const DefaultMaxSuffixAttempts = 64

// SplitServiceImpl implements the SplitService interface. It is also the
// engine the movement orchestrator delegates partial moves to.
type SplitServiceImpl struct {
	tx          secondary.Transactor
	hooks       Hooks
	logger      *log.Logger
	metrics     *metrics.Metrics
	maxAttempts int
}

// NewSplitService creates a new SplitService with injected dependencies.
func NewSplitService(tx secondary.Transactor, hooks Hooks, logger *log.Logger, m *metrics.Metrics, maxAttempts int) *SplitServiceImpl {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxSuffixAttempts
	}
	return &SplitServiceImpl{
		tx:          tx,
		hooks:       hooks,
		logger:      logger,
		metrics:     m,
		maxAttempts: maxAttempts,
	}
}

// Split carves req.Quantity off the parent lot. Taking the whole quantity
// depletes the parent and creates no child.
func (s *SplitServiceImpl) Split(ctx context.Context, req primary.SplitRequest) (*primary.SplitResult, error) {
	var result primary.SplitResult
	var mode lotsplit.Mode

	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		store, parent, err := lockItem(ctx, uow, req.Parent)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		decision, err := lotsplit.Decide(parent, req.Quantity)
		if err != nil {
			return err
		}
		if err := movement.CanMove(movement.ContextFor(parent, now), "split").Error(); err != nil {
			return err
		}
		mode = decision.Mode

		event := newEvent(ctx, models.ActionSplit, parent, "", now)
		event.Quantity = req.Quantity
		event.ToLocation = req.Destination

		if decision.Mode == lotsplit.ModeFull {
			depleted := parent.Clone()
			depleted.Quantity = decimal.Zero
			depleted.Status = models.StatusDepleted
			if err := store.Update(ctx, depleted); err != nil {
				return fmt.Errorf("failed to deplete %s: %w", parent.Identifier(), err)
			}
			result = primary.SplitResult{Parent: depleted, Event: event}
			return nil
		}

		updated, child, err := s.carve(ctx, uow, store, parent, req.Quantity, req.Destination, models.StatusAvailable, now)
		if err != nil {
			return err
		}
		event.ChildIdentifier = child.Identifier()
		result = primary.SplitResult{Parent: updated, Child: child, Event: event}
		return nil
	})
	if err != nil {
		countDuplicate(s.metrics, err, metrics.SourceConstraint)
		return nil, err
	}

	s.metrics.Split(mode.String())
	s.metrics.Movement(string(models.ActionSplit))
	s.logger.Info("split committed",
		"mode", mode,
		"parent", result.Parent.Identifier(),
		"child", result.Event.ChildIdentifier,
		"qty", req.Quantity.String(),
		"remaining", result.Parent.Quantity.String(),
	)
	s.hooks.notify(ctx, s.logger, result.Event, result.Parent, result.Child)
	return &result, nil
}

// carve performs a partial split of a locked parent inside the caller's unit
// of work: it derives a free child identifier, validates it, decrements the
// parent and inserts the child. The caller has already run Decide.
func (s *SplitServiceImpl) carve(
	ctx context.Context,
	uow secondary.UnitOfWork,
	store secondary.ItemStore,
	parent *models.Item,
	requested decimal.Decimal,
	childLocation string,
	childStatus models.ItemStatus,
	now time.Time,
) (*models.Item, *models.Item, error) {
	taken := func(ctx context.Context, candidate string) (bool, error) {
		err := ensureUnique(ctx, uow, parent.PartNumber, candidate, models.TrackingLot, nil)
		if models.IsDuplicateIdentifier(err) {
			s.logger.Debug("child identifier taken, advancing", "parent", parent.LotNumber, "candidate", candidate)
			return true, nil
		}
		return false, err
	}

	childLot, nextCount, err := lotsplit.NextChildIdentifier(ctx, parent, taken, s.maxAttempts)
	if err != nil {
		return nil, nil, err
	}
	if _, err := tracking.Validate("", childLot, parent.Kind, models.TrackingLot); err != nil {
		return nil, nil, err
	}

	updated, child, err := lotsplit.Apply(parent, requested, lotsplit.ChildSpec{
		ID:          uuid.NewString(),
		LotNumber:   childLot,
		NextCount:   nextCount,
		LocationRef: childLocation,
		Status:      childStatus,
		Now:         now,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := store.Update(ctx, updated); err != nil {
		return nil, nil, fmt.Errorf("failed to update parent %s: %w", parent.LotNumber, err)
	}
	if err := store.Insert(ctx, child); err != nil {
		return nil, nil, fmt.Errorf("failed to insert child %s: %w", childLot, err)
	}
	return updated, child, nil
}
