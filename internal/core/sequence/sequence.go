// Package sequence formats system-generated lot numbers.
// The counter itself is persisted by the store; this package only decides what a
// given counter value looks like and whether it is still in range.
package sequence

import (
	"fmt"
	"time"

	"github.com/example/lotledger/internal/models"
)

const (
	// DefaultPrefix is prepended to every minted lot number.
	DefaultPrefix = "LOT"
	// Width is the zero-padded width of the per-day counter.
	Width = 4
	// MaxPerDay is the largest counter value that fits in Width digits.
	MaxPerDay = 9999
)

// DateKey returns the YYYYMMDD key of the counter row for the given day.
func DateKey(day time.Time) string {
	return day.Format("20060102")
}

// Format renders counter n for the given day as PREFIX-YYMMDD-NNNN.
// Values outside 1..MaxPerDay fail with SequenceExhaustionError rather than wrap.
func Format(prefix string, day time.Time, n int) (string, error) {
	if n > MaxPerDay {
		return "", &models.SequenceExhaustionError{DateKey: DateKey(day), Limit: MaxPerDay}
	}
	if n < 1 {
		return "", fmt.Errorf("lot sequence counter must start at 1, got %d", n)
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s-%s-%0*d", prefix, day.Format("060102"), Width, n), nil
}

// Next returns the counter value that follows current, failing loudly once the
// day's width is used up. A missing row is represented by current == 0.
func Next(dateKey string, current int) (int, error) {
	if current >= MaxPerDay {
		return 0, &models.SequenceExhaustionError{DateKey: dateKey, Limit: MaxPerDay}
	}
	return current + 1, nil
}
