// Package metrics exposes Prometheus collectors for exports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pgdump_gateway"

// Export status label values.
const (
	StatusOK          = "ok"
	StatusDumpFailed  = "dump_failed"
	StatusConfigError = "config_error"
	StatusDisabled    = "disabled"
	StatusInvalid     = "invalid"
)

// Metrics holds the gateway collectors. A nil *Metrics records nothing.
type Metrics struct {
	ExportsTotal        *prometheus.CounterVec
	ExportBytesTotal    *prometheus.CounterVec
	ExportDuration      *prometheus.HistogramVec
	VersionProbeFailure *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of export requests.",
		}, []string{"scope", "delivery", "status"}),

		ExportBytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_bytes_total",
			Help:      "Total number of dump bytes relayed to callers.",
		}, []string{"scope"}),

		ExportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Duration of dump streams in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"scope"}),

		VersionProbeFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_probe_failures_total",
			Help:      "Total number of failed dump executable version probes.",
		}, []string{"executable"}),
	}

	reg.MustRegister(m.ExportsTotal, m.ExportBytesTotal, m.ExportDuration, m.VersionProbeFailure)

	return m
}

// ObserveExport records a finished stream.
func (m *Metrics) ObserveExport(scope, delivery, status string, bytes int64, d time.Duration) {
	if m == nil {
		return
	}
	m.ExportsTotal.WithLabelValues(scope, delivery, status).Inc()
	m.ExportBytesTotal.WithLabelValues(scope).Add(float64(bytes))
	m.ExportDuration.WithLabelValues(scope).Observe(d.Seconds())
}

// ObserveRejected records an export that never started.
func (m *Metrics) ObserveRejected(scope, delivery, status string) {
	if m == nil {
		return
	}
	m.ExportsTotal.WithLabelValues(scope, delivery, status).Inc()
}

// ObserveProbeFailure records a failed version probe for "pg_dump" or "pg_dumpall".
func (m *Metrics) ObserveProbeFailure(executable string) {
	if m == nil {
		return
	}
	m.VersionProbeFailure.WithLabelValues(executable).Inc()
}
