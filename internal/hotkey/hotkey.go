// Package hotkey binds key names to front-end notifications and installs
// them into the global input hook.
package hotkey

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"mousemacros/internal/input"
	"mousemacros/internal/logging"
	"mousemacros/internal/metrics"
)

// DefaultHoldInterval is the polling period of a hold loop.
const DefaultHoldInterval = 10 * time.Millisecond

// Emitter delivers a named notification to the front-end.
type Emitter interface {
	Emit(event string, payload any) error
}

// Backend is the part of the input backend the manager needs.
type Backend interface {
	input.Hook
	input.StateReader
}

// HoldPayload is the payload of every hold notification.
type HoldPayload struct {
	Pressed int `json:"pressed"`
}

// Options tune a Manager.
type Options struct {
	HoldInterval time.Duration
}

// Manager owns the bind operations, the hold workers and activation.
type Manager struct {
	reg      *Registry
	backend  Backend
	emitter  Emitter
	log      zerolog.Logger
	interval time.Duration
	holds    *holdSet
	active   atomic.Bool
}

// NewManager creates a manager that registers into reg and installs
// through backend.
func NewManager(reg *Registry, backend Backend, emitter Emitter, log zerolog.Logger, opts Options) *Manager {
	if opts.HoldInterval <= 0 {
		opts.HoldInterval = DefaultHoldInterval
	}
	return &Manager{
		reg:      reg,
		backend:  backend,
		emitter:  emitter,
		log:      logging.Subsystem(log, "hotkey"),
		interval: opts.HoldInterval,
		holds:    newHoldSet(),
	}
}

// Status is a point-in-time view of the manager.
type Status struct {
	Active           bool     `json:"active"`
	KeyboardBindings int      `json:"keyboard_bindings"`
	MouseBindings    int      `json:"mouse_bindings"`
	HoldWorkers      []string `json:"hold_workers"`
}

// Status reports activation state, bound key counts and running hold workers.
func (m *Manager) Status() Status {
	kb, ms := m.reg.Counts()
	running := m.holds.keys()
	names := make([]string, 0, len(running))
	for _, k := range running {
		names = append(names, k.String())
	}
	sort.Strings(names)

	return Status{
		Active:           m.active.Load(),
		KeyboardBindings: kb,
		MouseBindings:    ms,
		HoldWorkers:      names,
	}
}

// emit sends one notification. A failed send is logged and dropped so one
// bad notification never stops the input pipeline.
func (m *Manager) emit(kind, event string, payload any) {
	if err := m.emitter.Emit(event, payload); err != nil {
		metrics.EmitFailures.Inc()
		m.log.Warn().Err(err).Str("event", event).Msg("failed to emit event")
		return
	}
	metrics.EventsEmitted.WithLabelValues(kind).Inc()
}
