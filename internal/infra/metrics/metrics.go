// Package metrics exposes Prometheus collectors for authorization decisions
// and key store lookups.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spounge-ai/reqauth/internal/domain"
)

const defaultNamespace = "reqauth"

// Lookup results recorded by key store decorators.
const (
	LookupHit     = "hit"
	LookupMiss    = "miss"
	LookupError   = "error"
	LookupBlocked = "circuit_open"
)

// Recorder records authorization metrics. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	decisions *prometheus.CounterVec
	lookups   *prometheus.CounterVec
	duration  prometheus.Histogram
	registry  *prometheus.Registry
}

// NewRecorder creates collectors under namespace and registers them on a
// private registry.
func NewRecorder(namespace string) *Recorder {
	if namespace == "" {
		namespace = defaultNamespace
	}
	registry := prometheus.NewRegistry()
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Authorization decisions by outcome and internal reason.",
	}, []string{"outcome", "reason"})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "keystore_lookups_total",
		Help:      "Key store lookups by backend and result.",
	}, []string{"backend", "result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "authorize_duration_seconds",
		Help:      "Time spent deciding a single request.",
		Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})
	registry.MustRegister(decisions, lookups, duration)
	return &Recorder{
		decisions: decisions,
		lookups:   lookups,
		duration:  duration,
		registry:  registry,
	}
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveDecision(decision domain.Decision, reason domain.Reason, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(string(decision), string(reason)).Inc()
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveLookup(backend, result string) {
	if r == nil {
		return
	}
	r.lookups.WithLabelValues(backend, result).Inc()
}

// DecisionCount returns the counter for a decision, for tests and diagnostics.
func (r *Recorder) DecisionCount(decision domain.Decision, reason domain.Reason) prometheus.Counter {
	return r.decisions.WithLabelValues(string(decision), string(reason))
}

// LookupCount returns the counter for a lookup result.
func (r *Recorder) LookupCount(backend, result string) prometheus.Counter {
	return r.lookups.WithLabelValues(backend, result)
}
