package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

// SequenceRepository implements secondary.SequenceRepository on Postgres.
type SequenceRepository struct {
	tx *sql.Tx
}

// NewSequenceRepository creates a new Postgres sequence repository.
func NewSequenceRepository(tx *sql.Tx) *SequenceRepository {
	return &SequenceRepository{tx: tx}
}

// Increment locks the counter row with FOR UPDATE and advances it. A missing
// row is created with ON CONFLICT DO NOTHING; a writer that loses that race
// re-reads under the lock.
func (r *SequenceRepository) Increment(ctx context.Context, dateKey string, limit int) (int, error) {
	now := time.Now().UTC()

	result, err := r.tx.ExecContext(ctx,
		`INSERT INTO sequence_counters (date_key, counter, last_generated_at) VALUES ($1, 1, $2)
		ON CONFLICT (date_key) DO NOTHING`,
		dateKey, now,
	)
	if err != nil {
		return 0, translate("failed to create sequence counter", err)
	}
	if n, _ := result.RowsAffected(); n == 1 {
		return 1, nil
	}

	var current int
	err = r.tx.QueryRowContext(ctx,
		"SELECT counter FROM sequence_counters WHERE date_key = $1 FOR UPDATE", dateKey,
	).Scan(&current)
	if err != nil {
		return 0, translate("failed to lock sequence counter", err)
	}
	if current >= limit {
		return 0, &models.SequenceExhaustionError{DateKey: dateKey, Limit: limit}
	}

	_, err = r.tx.ExecContext(ctx,
		"UPDATE sequence_counters SET counter = $1, last_generated_at = $2 WHERE date_key = $3",
		current+1, now, dateKey,
	)
	if err != nil {
		return 0, translate("failed to advance sequence counter", err)
	}
	return current + 1, nil
}

// Get returns the counter row for dateKey.
func (r *SequenceRepository) Get(ctx context.Context, dateKey string) (*models.SequenceCounter, error) {
	var counter models.SequenceCounter
	err := r.tx.QueryRowContext(ctx,
		"SELECT date_key, counter, last_generated_at FROM sequence_counters WHERE date_key = $1", dateKey,
	).Scan(&counter.DateKey, &counter.Counter, &counter.LastGeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sequence %s: %w", dateKey, models.ErrNotFound)
	}
	if err != nil {
		return nil, translate("failed to get sequence counter", err)
	}
	return &counter, nil
}

// Ensure SequenceRepository implements the interface
var _ secondary.SequenceRepository = (*SequenceRepository)(nil)
