// Package metrics collects Prometheus metrics for the ledger engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by the engine and the KDF caller.
type Recorder interface {
	RecordApplied(kind string)
	RecordRejected(reason string)
	RecordHistory(op string)
	RecordSubmitLatency(d time.Duration)
	RecordKDF(d time.Duration)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordApplied(string)              {}
func (Nop) RecordRejected(string)             {}
func (Nop) RecordHistory(string)              {}
func (Nop) RecordSubmitLatency(time.Duration) {}
func (Nop) RecordKDF(time.Duration)           {}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	applied       *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	history       *prometheus.CounterVec
	submitLatency prometheus.Histogram
	kdfDuration   prometheus.Histogram
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyledger_events_applied_total",
			Help: "Events appended to the log, by kind.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyledger_commands_rejected_total",
			Help: "Commands rejected before append, by reason.",
		}, []string{"reason"}),
		history: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyledger_history_operations_total",
			Help: "Undo and redo operations that appended an event.",
		}, []string{"op"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "keyledger_submit_latency_seconds",
			Help:    "Time from dequeue to published projection.",
			Buckets: prometheus.DefBuckets,
		}),
		kdfDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "keyledger_kdf_duration_seconds",
			Help:    "Master seed derivation time.",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
	}

	reg.MustRegister(
		c.applied,
		c.rejected,
		c.history,
		c.submitLatency,
		c.kdfDuration,
	)

	return c
}

// RecordApplied counts one appended event.
func (c *Collector) RecordApplied(kind string) {
	c.applied.WithLabelValues(kind).Inc()
}

// RecordRejected counts one rejected command.
func (c *Collector) RecordRejected(reason string) {
	c.rejected.WithLabelValues(reason).Inc()
}

// RecordHistory counts an undo or redo.
func (c *Collector) RecordHistory(op string) {
	c.history.WithLabelValues(op).Inc()
}

func (c *Collector) RecordSubmitLatency(d time.Duration) {
	c.submitLatency.Observe(d.Seconds())
}

func (c *Collector) RecordKDF(d time.Duration) {
	c.kdfDuration.Observe(d.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute returns a mux serving /metrics.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
