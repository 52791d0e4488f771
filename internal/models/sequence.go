package models

import "time"

// SequenceCounter is the persisted per-day counter used to mint lot numbers.
type SequenceCounter struct {
	DateKey         string // YYYYMMDD
	Counter         int
	LastGeneratedAt time.Time
}
