package hotkey

import (
	"context"
	"fmt"
	"runtime/debug"

	"mousemacros/internal/input"
	"mousemacros/internal/metrics"
)

// Activate installs every binding registered so far and runs the input hook
// until ctx is cancelled or the backend fails. Bindings added afterwards are
// not seen. A second call while active returns ErrAlreadyActive.
func (m *Manager) Activate(ctx context.Context) error {
	done, err := m.Start(ctx)
	if err != nil {
		return err
	}
	return <-done
}

// Start is the non-blocking form of Activate. The returned channel yields the
// hook's exit error once it stops.
func (m *Manager) Start(ctx context.Context) (<-chan error, error) {
	if !m.active.CompareAndSwap(false, true) {
		return nil, ErrAlreadyActive
	}

	table := m.reg.snapshot()
	runCtx, cancel := context.WithCancel(ctx)
	m.holds.bind(runCtx)
	metrics.Active.Set(1)

	kb, ms := table.counts()
	m.log.Info().Int("keyboard", kb).Int("mouse", ms).Msg("installing bindings")

	done := make(chan error, 1)
	go func() {
		err := m.backend.Run(runCtx, func(ev input.Event) {
			m.dispatch(table, ev)
		})
		cancel()
		m.holds.wait()

		if err != nil {
			// a hook that failed to start may be installed again
			m.active.Store(false)
			metrics.Active.Set(0)
			m.log.Error().Err(err).Msg("input hook stopped")
			done <- fmt.Errorf("run input hook: %w", err)
			return
		}
		m.log.Info().Msg("input hook stopped")
		done <- nil
	}()
	return done, nil
}

// Active reports whether bindings are installed.
func (m *Manager) Active() bool {
	return m.active.Load()
}

func (m *Manager) dispatch(table handlerTable, ev input.Event) {
	if !ev.Pressed {
		return
	}
	for _, cb := range table.lookup(ev.Key) {
		m.invoke(cb, ev)
	}
}

func (m *Manager) invoke(cb Callback, ev input.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().
				Interface("panic", r).
				Str("key", ev.Key.String()).
				Bytes("stack", debug.Stack()).
				Msg("binding callback panicked")
		}
	}()
	cb()
}
