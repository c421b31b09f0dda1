package session

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "sharespend"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	operations   *prometheus.CounterVec
	rollbacks    *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
	sessions     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "operations_total",
			Help:      "Coordinator operations by name and result.",
		}, []string{"operation", "result"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "rollbacks_total",
			Help:      "Optimistic updates reverted after a failed store call.",
		}, []string{"operation"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "call_duration_seconds",
			Help:      "Remote store call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"call", "result"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Coordinators currently held by the registry.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.rollbacks, m.storeLatency, m.sessions)
	}
	return m
}

func (m *Metrics) operation(name string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(name, resultLabel(err)).Inc()
}

func (m *Metrics) rollback(name string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(name).Inc()
}

func (m *Metrics) observeStore(call string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeLatency.WithLabelValues(call, result).Observe(time.Since(started).Seconds())
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSaveFailed), errors.Is(err, ErrLoadFailed):
		return "store_error"
	default:
		return "rejected"
	}
}
