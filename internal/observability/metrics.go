// Package observability provides Prometheus metrics for the lock system:
// guard decisions, reconciler repairs and open edit sessions.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates all metric groups behind a single registry. A nil
// *Metrics is valid everywhere and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	Guard      *GuardMetrics
	Reconciler *ReconcilerMetrics
	Session    *SessionMetrics
}

// NewMetrics creates a Metrics instance with its own registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	guard, err := NewGuardMetrics(registry)
	if err != nil {
		return nil, err
	}
	reconciler, err := NewReconcilerMetrics(registry)
	if err != nil {
		return nil, err
	}
	session, err := NewSessionMetrics(registry)
	if err != nil {
		return nil, err
	}
	return &Metrics{
		registry:   registry,
		Guard:      guard,
		Reconciler: reconciler,
		Session:    session,
	}, nil
}

// Registry returns the underlying Prometheus registry, or nil.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// GuardMetrics returns the guard metric group, nil-safe.
func (m *Metrics) GuardMetrics() *GuardMetrics {
	if m == nil {
		return nil
	}
	return m.Guard
}

// ReconcilerMetrics returns the reconciler metric group, nil-safe.
func (m *Metrics) ReconcilerMetrics() *ReconcilerMetrics {
	if m == nil {
		return nil
	}
	return m.Reconciler
}

// SessionMetrics returns the session metric group, nil-safe.
func (m *Metrics) SessionMetrics() *SessionMetrics {
	if m == nil {
		return nil
	}
	return m.Session
}

// GuardMetrics counts guard interception decisions.
type GuardMetrics struct {
	Decisions *prometheus.CounterVec
}

// NewGuardMetrics creates and registers the guard metrics.
func NewGuardMetrics(registry *prometheus.Registry) (*GuardMetrics, error) {
	g := &GuardMetrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meshlock_guard_decisions_total",
			Help: "Total guard interception decisions by action, outcome and reason",
		}, []string{"action", "outcome", "reason"}),
	}
	if err := registry.Register(g.Decisions); err != nil {
		return nil, fmt.Errorf("failed to register guard metrics: %w", err)
	}
	return g, nil
}

// RecordDecision counts one guard decision. Safe on a nil receiver.
func (g *GuardMetrics) RecordDecision(action, outcome, reason string) {
	if g == nil {
		return
	}
	g.Decisions.WithLabelValues(action, outcome, reason).Inc()
}

// ReconcilerMetrics counts lock attribute repairs.
type ReconcilerMetrics struct {
	Repairs  prometheus.Counter
	Failures prometheus.Counter
}

// NewReconcilerMetrics creates and registers the reconciler metrics.
func NewReconcilerMetrics(registry *prometheus.Registry) (*ReconcilerMetrics, error) {
	r := &ReconcilerMetrics{
		Repairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshlock_reconciler_repairs_total",
			Help: "Total lock attribute rebuilds triggered by topology changes",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meshlock_reconciler_failures_total",
			Help: "Total reconciliation attempts that failed and degraded to no-op",
		}),
	}
	if err := registry.Register(r.Repairs); err != nil {
		return nil, fmt.Errorf("failed to register reconciler metrics: %w", err)
	}
	if err := registry.Register(r.Failures); err != nil {
		return nil, fmt.Errorf("failed to register reconciler metrics: %w", err)
	}
	return r, nil
}

// RecordRepair counts one attribute rebuild. Safe on a nil receiver.
func (r *ReconcilerMetrics) RecordRepair() {
	if r == nil {
		return
	}
	r.Repairs.Inc()
}

// RecordFailure counts one failed reconciliation. Safe on a nil receiver.
func (r *ReconcilerMetrics) RecordFailure() {
	if r == nil {
		return
	}
	r.Failures.Inc()
}

// SessionMetrics tracks open edit sessions.
type SessionMetrics struct {
	Open prometheus.Gauge
}

// NewSessionMetrics creates and registers the session metrics.
func NewSessionMetrics(registry *prometheus.Registry) (*SessionMetrics, error) {
	s := &SessionMetrics{
		Open: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meshlock_sessions_open",
			Help: "Number of currently open edit sessions",
		}),
	}
	if err := registry.Register(s.Open); err != nil {
		return nil, fmt.Errorf("failed to register session metrics: %w", err)
	}
	return s, nil
}

// SessionOpened increments the open session gauge. Safe on a nil receiver.
func (s *SessionMetrics) SessionOpened() {
	if s == nil {
		return
	}
	s.Open.Inc()
}

// SessionClosed decrements the open session gauge. Safe on a nil receiver.
func (s *SessionMetrics) SessionClosed() {
	if s == nil {
		return
	}
	s.Open.Dec()
}
