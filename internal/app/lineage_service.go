package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/lotledger/internal/core/lineage"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/primary"
	"github.com/example/lotledger/internal/ports/secondary"
)

// LineageServiceImpl implements the LineageService interface.
type LineageServiceImpl struct {
	tx secondary.Transactor
}

// NewLineageService creates a new LineageService with injected dependencies.
func NewLineageService(tx secondary.Transactor) *LineageServiceImpl {
	return &LineageServiceImpl{tx: tx}
}

// Lineage returns the immediate relations of the referenced item.
func (s *LineageServiceImpl) Lineage(ctx context.Context, ref models.ItemRef) (*primary.Lineage, error) {
	var view lineage.View
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		store, err := uow.Items(ref.Kind)
		if err != nil {
			return err
		}
		current, err := store.GetByID(ctx, ref.ID)
		if err != nil {
			return err
		}
		view, err = resolve(ctx, store, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toLineage(view), nil
}

// LineageByIdentifier resolves the item by identifier, then its lineage.
func (s *LineageServiceImpl) LineageByIdentifier(ctx context.Context, kind models.ItemKind, partNumber, identifier string) (*primary.Lineage, error) {
	kinds := models.AllKinds
	if kind != "" {
		kinds = []models.ItemKind{kind}
	}

	var view lineage.View
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		current, err := findItem(ctx, uow, kinds, partNumber, identifier)
		if err != nil {
			return err
		}
		store, err := uow.Items(current.Kind)
		if err != nil {
			return err
		}
		view, err = resolve(ctx, store, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toLineage(view), nil
}

// resolve loads one level of relations. Children never change kind, so the
// parent and siblings live in the same store as the item.
func resolve(ctx context.Context, store secondary.ItemStore, current *models.Item) (lineage.View, error) {
	var (
		parent         *models.Item
		parentChildren []*models.Item
		children       []*models.Item
		err            error
	)

	if current.ParentIdentifier != "" {
		parent, err = store.FindByIdentifier(ctx, current.PartNumber, current.ParentIdentifier, models.TrackingLot)
		switch {
		case errors.Is(err, models.ErrNotFound):
			parent = nil
		case err != nil:
			return lineage.View{}, fmt.Errorf("failed to load parent %s: %w", current.ParentIdentifier, err)
		default:
			parentChildren, err = store.FindChildren(ctx, parent.PartNumber, parent.Identifier())
			if err != nil {
				return lineage.View{}, fmt.Errorf("failed to load siblings: %w", err)
			}
		}
	}

	if current.TrackingType == models.TrackingLot {
		children, err = store.FindChildren(ctx, current.PartNumber, current.Identifier())
		if err != nil {
			return lineage.View{}, fmt.Errorf("failed to load children: %w", err)
		}
	}

	return lineage.Assemble(current, parent, parentChildren, children), nil
}

func toLineage(v lineage.View) *primary.Lineage {
	return &primary.Lineage{
		Current:  v.Current,
		Parent:   v.Parent,
		Children: v.Children,
		Siblings: v.Siblings,
	}
}
