// Package metrics instruments fixture generation with Prometheus collectors.
// The CLI is short-lived, so metrics are written to a node_exporter
// textfile instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the fixture collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runDuration  *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	matches      *prometheus.CounterVec
	slotUsage    *prometheus.GaugeVec
	lockWait     prometheus.Histogram
	clearedTotal prometheus.Counter
}

// New registers the fixture collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "padelfix_fixture_generation_seconds",
		Help:    "Duration of fixture generation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "padelfix_fixture_generations_total",
		Help: "Fixture generation runs by outcome",
	}, []string{"outcome"})

	matches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "padelfix_fixture_matches_total",
		Help: "Matches produced by fixture generation, by resulting state",
	}, []string{"state"})

	slotUsage := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "padelfix_fixture_slot_usage_ratio",
		Help: "Share of calendar slots used by the last generated fixture",
	}, []string{"category"})

	lockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "padelfix_lock_wait_seconds",
		Help:    "Time spent waiting for the regeneration lock",
		Buckets: prometheus.DefBuckets,
	})

	clearedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "padelfix_fixture_cleared_matches_total",
		Help: "Generated matches removed by clear or regeneration",
	})

	registry.MustRegister(runDuration, runs, matches, slotUsage, lockWait, clearedTotal)

	return &Metrics{
		registry:     registry,
		runDuration:  runDuration,
		runs:         runs,
		matches:      matches,
		slotUsage:    slotUsage,
		lockWait:     lockWait,
		clearedTotal: clearedTotal,
	}
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveGeneration records one run. outcome is "ok", "structural" or
// "error".
func (m *Metrics) ObserveGeneration(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(outcome).Observe(d.Seconds())
	m.runs.WithLabelValues(outcome).Inc()
}

// RecordFixture records the outcome of a successful run.
func (m *Metrics) RecordFixture(categoryID string, scheduled, unschedulable, slotsUsed, slots int) {
	if m == nil {
		return
	}
	m.matches.WithLabelValues("scheduled").Add(float64(scheduled))
	m.matches.WithLabelValues("unschedulable").Add(float64(unschedulable))
	if slots > 0 {
		m.slotUsage.WithLabelValues(categoryID).Set(float64(slotsUsed) / float64(slots))
	}
}

// ObserveLockWait records how long a caller waited for the lock.
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

// AddCleared counts removed generated matches.
func (m *Metrics) AddCleared(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.clearedTotal.Add(float64(n))
}

// WriteTextfile writes the registry in the text exposition format. An empty
// path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
