package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/example/lotledger/internal/core/tracking"
	"github.com/example/lotledger/internal/metrics"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/primary"
	"github.com/example/lotledger/internal/ports/secondary"
)

// ReceiptServiceImpl implements the ReceiptService interface.
type ReceiptServiceImpl struct {
	tx        secondary.Transactor
	sequences primary.SequenceService
	hooks     Hooks
	logger    *log.Logger
	metrics   *metrics.Metrics
}

// NewReceiptService creates a new ReceiptService with injected dependencies.
func NewReceiptService(tx secondary.Transactor, sequences primary.SequenceService, hooks Hooks, logger *log.Logger, m *metrics.Metrics) *ReceiptServiceImpl {
	return &ReceiptServiceImpl{
		tx:        tx,
		sequences: sequences,
		hooks:     hooks,
		logger:    logger,
		metrics:   m,
	}
}

// Receive creates an item at goods receipt. A lot receipt without a lot number
// gets one minted. The uniqueness pre-check and the insert share a transaction.
func (s *ReceiptServiceImpl) Receive(ctx context.Context, req primary.ReceiveRequest) (*primary.MovementResult, error) {
	if _, ok := models.ParseItemKind(string(req.Kind)); !ok {
		return nil, fmt.Errorf("unknown item kind %q", req.Kind)
	}
	partNumber := strings.TrimSpace(req.PartNumber)
	if partNumber == "" {
		return nil, fmt.Errorf("part number is required")
	}

	serial := strings.TrimSpace(req.SerialNumber)
	lot := strings.TrimSpace(req.LotNumber)
	if serial == "" && lot == "" && tracking.ResolveDeclared(req.Kind, req.TrackingType) == models.TrackingLot {
		minted, err := s.sequences.NextLotNumber(ctx, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to mint lot number: %w", err)
		}
		lot = minted
	}

	tt, err := tracking.Validate(serial, lot, req.Kind, req.TrackingType)
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if tt == models.TrackingSerial && quantity.IsZero() {
		quantity = tracking.One()
	}
	unit := req.Unit
	if unit == "" {
		unit = "each"
	}

	now := time.Now().UTC()
	item := &models.Item{
		ID:             uuid.NewString(),
		Kind:           req.Kind,
		PartNumber:     partNumber,
		SerialNumber:   serial,
		LotNumber:      lot,
		TrackingType:   tt,
		Quantity:       quantity,
		Unit:           unit,
		Status:         models.StatusAvailable,
		LocationRef:    strings.TrimSpace(req.LocationRef),
		Description:    req.Description,
		Manufacturer:   req.Manufacturer,
		Category:       req.Category,
		ExpirationDate: req.ExpirationDate,
		MinimumStock:   req.MinimumStock,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if tt == models.TrackingSerial {
		item.SerialNumber, item.LotNumber = serial, ""
	} else {
		item.SerialNumber, item.LotNumber = "", lot
	}
	if !item.Quantity.IsPositive() {
		return nil, &models.InvalidQuantityError{Requested: item.Quantity, Reason: "received quantity must be greater than zero"}
	}
	if err := tracking.CheckItem(item); err != nil {
		return nil, err
	}

	event := newEvent(ctx, models.ActionReceive, item, "", now)
	event.Quantity = item.Quantity
	event.FromLocation = ""
	event.ToLocation = item.LocationRef

	err = s.tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		if err := ensureUnique(ctx, uow, item.PartNumber, item.Identifier(), tt, nil); err != nil {
			countDuplicate(s.metrics, err, metrics.SourcePrecheck)
			return err
		}
		store, err := uow.Items(item.Kind)
		if err != nil {
			return err
		}
		if err := store.Insert(ctx, item); err != nil {
			countDuplicate(s.metrics, err, metrics.SourceConstraint)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Movement(string(models.ActionReceive))
	s.logger.Info("received", "kind", item.Kind, "part", item.PartNumber, "identifier", item.Identifier(), "qty", item.Quantity.String())
	s.hooks.notify(ctx, s.logger, event, item)
	return &primary.MovementResult{Item: item, Event: event}, nil
}

// GetItem looks up an item by identifier. An empty kind searches every kind.
func (s *ReceiptServiceImpl) GetItem(ctx context.Context, kind models.ItemKind, partNumber, identifier string) (*models.Item, error) {
	kinds := models.AllKinds
	if kind != "" {
		kinds = []models.ItemKind{kind}
	}

	var found *models.Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		var err error
		found, err = findItem(ctx, uow, kinds, partNumber, identifier)
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// findItem searches kinds for (partNumber, identifier) under every tracking
// type each kind can hold.
func findItem(ctx context.Context, uow secondary.UnitOfWork, kinds []models.ItemKind, partNumber, identifier string) (*models.Item, error) {
	identifier = strings.TrimSpace(identifier)
	for _, kind := range kinds {
		store, err := uow.Items(kind)
		if err != nil {
			return nil, err
		}
		for _, tt := range []models.TrackingType{models.TrackingSerial, models.TrackingLot} {
			if !kind.Supports(tt) {
				continue
			}
			item, err := store.FindByIdentifier(ctx, partNumber, identifier, tt)
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return item, nil
		}
	}
	return nil, fmt.Errorf("item %s/%s: %w", partNumber, identifier, models.ErrNotFound)
}
