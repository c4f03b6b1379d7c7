// Package metrics holds the Prometheus collectors of the sync layer.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without an observability stack in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation outcomes used as the "result" label.
const (
	ResultOK       = "ok"
	ResultFallback = "fallback"
	ResultError    = "error"
)

type Metrics struct {
	BackendStatus *prometheus.GaugeVec
	Probes        *prometheus.CounterVec
	Operations    *prometheus.CounterVec
	RemoteLatency *prometheus.HistogramVec
	Reconciled    *prometheus.CounterVec
	Unsynced      *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BackendStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gatepass_backend_status",
			Help: "1 for the current backend connectivity status, 0 otherwise.",
		}, []string{"status"}),
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_probes_total",
			Help: "Backend reachability probes by result.",
		}, []string{"result"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_operations_total",
			Help: "Coordinator operations by kind, verb and result.",
		}, []string{"kind", "op", "result"}),
		RemoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatepass_remote_duration_seconds",
			Help:    "Latency of backend calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		Reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_reconciled_total",
			Help: "Records handled by reconciliation by kind and result.",
		}, []string{"kind", "result"}),
		Unsynced: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gatepass_unsynced_records",
			Help: "Local records waiting for reconciliation, per kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.BackendStatus, m.Probes, m.Operations, m.RemoteLatency, m.Reconciled, m.Unsynced)
	return m
}

// Handler serves the given gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// SetStatus marks status as the active backend status.
func (m *Metrics) SetStatus(status string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == status {
			v = 1
		}
		m.BackendStatus.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) Probe(result string) {
	if m == nil {
		return
	}
	m.Probes.WithLabelValues(result).Inc()
}

func (m *Metrics) Op(kind, op, result string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(kind, op, result).Inc()
}

func (m *Metrics) ObserveRemote(op string, seconds float64) {
	if m == nil {
		return
	}
	m.RemoteLatency.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) Reconcile(kind, result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Reconciled.WithLabelValues(kind, result).Add(float64(n))
}

func (m *Metrics) SetUnsynced(kind string, n int) {
	if m == nil {
		return
	}
	m.Unsynced.WithLabelValues(kind).Set(float64(n))
}
