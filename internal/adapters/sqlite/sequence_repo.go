package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/lotledger/internal/models"
	"github.com/example/lotledger/internal/ports/secondary"
)

// maxCounterRaces bounds how often Increment re-reads after losing a race.
const maxCounterRaces = 3

// SequenceRepository implements secondary.SequenceRepository with SQLite.
type SequenceRepository struct {
	db DBTX
}

// NewSequenceRepository creates a new SQLite sequence repository.
func NewSequenceRepository(db DBTX) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Increment advances the counter for dateKey and returns the new value.
func (r *SequenceRepository) Increment(ctx context.Context, dateKey string, limit int) (int, error) {
	for attempt := 0; attempt < maxCounterRaces; attempt++ {
		now := time.Now().UTC()

		var current int
		err := r.db.QueryRowContext(ctx,
			"SELECT counter FROM sequence_counters WHERE date_key = ?", dateKey,
		).Scan(&current)

		if errors.Is(err, sql.ErrNoRows) {
			result, err := r.db.ExecContext(ctx,
				`INSERT INTO sequence_counters (date_key, counter, last_generated_at) VALUES (?, 1, ?)
				ON CONFLICT(date_key) DO NOTHING`,
				dateKey, now,
			)
			if err != nil {
				return 0, translate("failed to create sequence counter", err)
			}
			if n, _ := result.RowsAffected(); n == 1 {
				return 1, nil
			}
			// Another writer created the row first
			continue
		}
		if err != nil {
			return 0, translate("failed to read sequence counter", err)
		}

		if current >= limit {
			return 0, &models.SequenceExhaustionError{DateKey: dateKey, Limit: limit}
		}

		result, err := r.db.ExecContext(ctx,
			"UPDATE sequence_counters SET counter = ?, last_generated_at = ? WHERE date_key = ? AND counter = ?",
			current+1, now, dateKey, current,
		)
		if err != nil {
			return 0, translate("failed to advance sequence counter", err)
		}
		if n, _ := result.RowsAffected(); n == 1 {
			return current + 1, nil
		}
	}
	return 0, fmt.Errorf("sequence counter %s: %w: lost %d races", dateKey, models.ErrTransient, maxCounterRaces)
}

// Get returns the counter row for dateKey.
func (r *SequenceRepository) Get(ctx context.Context, dateKey string) (*models.SequenceCounter, error) {
	var (
		counter models.SequenceCounter
		last    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT date_key, counter, last_generated_at FROM sequence_counters WHERE date_key = ?", dateKey,
	).Scan(&counter.DateKey, &counter.Counter, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sequence %s: %w", dateKey, models.ErrNotFound)
	}
	if err != nil {
		return nil, translate("failed to get sequence counter", err)
	}
	if last.Valid {
		counter.LastGeneratedAt = last.Time
	}
	return &counter, nil
}

// Ensure SequenceRepository implements the interface
var _ secondary.SequenceRepository = (*SequenceRepository)(nil)
