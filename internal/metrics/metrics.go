// Package metrics exposes Prometheus counters for ledger activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Duplicate rejection sources.
const (
	SourcePrecheck   = "precheck"
	SourceConstraint = "constraint"
)

// Metrics holds the ledger collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	LotsMinted          prometheus.Counter
	Splits              *prometheus.CounterVec
	DuplicateRejections *prometheus.CounterVec
	Movements           *prometheus.CounterVec
	Retries             prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LotsMinted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lotledger",
			Name:      "lots_minted_total",
			Help:      "System lot numbers minted.",
		}),
		Splits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotledger",
			Name:      "splits_total",
			Help:      "Lot splits by mode.",
		}, []string{"mode"}),
		DuplicateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotledger",
			Name:      "duplicate_identifier_rejections_total",
			Help:      "Writes rejected for a duplicate identifier, by detection source.",
		}, []string{"source"}),
		Movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotledger",
			Name:      "movements_total",
			Help:      "Committed movements by action.",
		}, []string{"action"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lotledger",
			Name:      "transient_retries_total",
			Help:      "Operations retried after a transient storage fault.",
		}),
	}
	reg.MustRegister(m.LotsMinted, m.Splits, m.DuplicateRejections, m.Movements, m.Retries)
	return m
}

// LotMinted counts one minted lot number.
func (m *Metrics) LotMinted() {
	if m == nil {
		return
	}
	m.LotsMinted.Inc()
}

// Split counts one split in the given mode.
func (m *Metrics) Split(mode string) {
	if m == nil {
		return
	}
	m.Splits.WithLabelValues(mode).Inc()
}

// DuplicateRejected counts one duplicate identifier rejection.
func (m *Metrics) DuplicateRejected(source string) {
	if m == nil {
		return
	}
	m.DuplicateRejections.WithLabelValues(source).Inc()
}

// Movement counts one committed movement.
func (m *Metrics) Movement(action string) {
	if m == nil {
		return
	}
	m.Movements.WithLabelValues(action).Inc()
}

// Retried counts one retry after a transient fault.
func (m *Metrics) Retried() {
	if m == nil {
		return
	}
	m.Retries.Inc()
}
