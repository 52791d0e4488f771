package app

import (
	"context"

	"github.com/example/lotledger/internal/metrics"
	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

// RegistryServiceImpl implements the RegistryService interface.
type RegistryServiceImpl struct {
	tx      secondary.Transactor
	metrics *metrics.Metrics
}

// NewRegistryService creates a new RegistryService with injected dependencies.
func NewRegistryService(tx secondary.Transactor, m *metrics.Metrics) *RegistryServiceImpl {
	return &RegistryServiceImpl{tx: tx, metrics: m}
}

// EnsureUnique fails when (partNumber, identifier) is already held by any item
// able to carry tt. Callers that go on to write should do so through
// ReceiptService or the split engine, which repeat this check inside the
// writing transaction.
func (s *RegistryServiceImpl) EnsureUnique(ctx context.Context, partNumber, identifier string, tt models.TrackingType, exclude *models.ItemRef) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		return ensureUnique(ctx, uow, partNumber, identifier, tt, exclude)
	})
	countDuplicate(s.metrics, err, metrics.SourcePrecheck)
	return err
}
