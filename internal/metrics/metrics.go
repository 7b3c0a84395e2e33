package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	linkStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ppplink",
			Subsystem: "link",
			Name:      "starts_total",
			Help:      "Number of successful pppd launches.",
		},
	)
	linkStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ppplink",
			Subsystem: "link",
			Name:      "stops_total",
			Help:      "Number of requested stops (graceful or kill).",
		},
	)
	linkFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ppplink",
			Subsystem: "link",
			Name:      "failures_total",
			Help:      "Number of launch failures and unexpected pppd exits.",
		},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ppplink",
			Subsystem: "link",
			Name:      "state_transitions_total",
			Help:      "Number of supervisor state transitions.",
		}, []string{"from", "to"},
	)
	currentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ppplink",
			Subsystem: "link",
			Name:      "current_state",
			Help:      "Current supervisor state (1 = active state, 0 = inactive).",
		}, []string{"state"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{linkStarts, linkStops, linkFailures, stateTransitions, currentState}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStart() {
	if regOK.Load() {
		linkStarts.Inc()
	}
}

func IncStop() {
	if regOK.Load() {
		linkStops.Inc()
	}
}

func IncFailure() {
	if regOK.Load() {
		linkFailures.Inc()
	}
}

func RecordStateTransition(from, to string) {
	if regOK.Load() {
		stateTransitions.WithLabelValues(from, to).Inc()
	}
}

func SetCurrentState(state string, active bool) {
	if regOK.Load() {
		var value float64
		if active {
			value = 1
		}
		currentState.WithLabelValues(state).Set(value)
	}
}
