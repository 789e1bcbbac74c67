// Package metrics exposes Prometheus instrumentation for the input service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsEmitted counts notifications delivered to the front-end, by kind ("press", "hold").
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mousemacros_events_emitted_total",
		Help: "Front-end notifications emitted.",
	}, []string{"kind"})

	// EmitFailures counts notifications that could not be delivered.
	EmitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mousemacros_emit_failures_total",
		Help: "Front-end notifications that failed to send.",
	})

	// Bindings tracks registered callbacks by device ("keyboard", "mouse").
	Bindings = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mousemacros_bindings",
		Help: "Callbacks held in the binding registry.",
	}, []string{"device"})

	// InvalidBindings counts bind requests rejected for a bad modifier segment.
	InvalidBindings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mousemacros_invalid_bindings_total",
		Help: "Bind requests rejected as invalid.",
	})

	// HoldWorkers is the number of hold loops currently polling.
	HoldWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mousemacros_hold_workers",
		Help: "Hold-key workers currently running.",
	})

	// SyntheticEvents counts injected mouse events by kind ("move", "click").
	SyntheticEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mousemacros_synthetic_events_total",
		Help: "Synthetic mouse events injected.",
	}, []string{"kind"})

	// Active is 1 once the bindings are installed.
	Active = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mousemacros_active",
		Help: "Whether the input hook is running.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
