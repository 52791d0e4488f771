package app

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/example/lotledger/internal/core/sequence"
	"github.com/example/lotledger/internal/metrics"
	"github.com/example/lotledger/internal/ports/secondary"
)

// SequenceServiceImpl implements the SequenceService interface.
type SequenceServiceImpl struct {
	tx      secondary.Transactor
	prefix  string
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewSequenceService creates a new SequenceService. An empty prefix uses "LOT".
func NewSequenceService(tx secondary.Transactor, prefix string, logger *log.Logger, m *metrics.Metrics) *SequenceServiceImpl {
	if prefix == "" {
		prefix = sequence.DefaultPrefix
	}
	return &SequenceServiceImpl{tx: tx, prefix: prefix, logger: logger, metrics: m}
}

// NextLotNumber mints the next lot number for today in its own short
// transaction, so the counter row is locked only for the increment.
func (s *SequenceServiceImpl) NextLotNumber(ctx context.Context, today time.Time) (string, error) {
	var lotNumber string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		n, err := uow.Sequences().Increment(ctx, sequence.DateKey(today), sequence.MaxPerDay)
		if err != nil {
			return err
		}
		lotNumber, err = sequence.Format(s.prefix, today, n)
		return err
	})
	if err != nil {
		return "", err
	}

	s.metrics.LotMinted()
	s.logger.Info("minted lot number", "lot", lotNumber)
	return lotNumber, nil
}
