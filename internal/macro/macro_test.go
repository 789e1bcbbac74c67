package macro

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mousemacros/internal/input/inputtest"
	"mousemacros/internal/keys"
)

type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
}

func newTestSimulator() (*Simulator, *inputtest.Backend, *sleepRecorder) {
	backend := inputtest.New()
	rec := &sleepRecorder{}
	return NewSimulator(backend, zerolog.Nop(), WithSleep(rec.sleep)), backend, rec
}

func TestMove(t *testing.T) {
	sim, backend, rec := newTestSimulator()

	assert.True(t, sim.Move(3, 4, 10))

	inj := backend.Injections()
	require.Len(t, inj, 4)
	for _, i := range inj {
		assert.Equal(t, inputtest.Injection{Kind: "move", DX: 0, DY: 3}, i)
	}
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond,
	}, rec.calls)
}

func TestMoveNegativeAndZero(t *testing.T) {
	sim, backend, _ := newTestSimulator()

	assert.True(t, sim.Move(-2, 1, 0))
	assert.Equal(t, -2, backend.Injections()[0].DY)

	assert.True(t, sim.Move(1, 0, 10))
	assert.Len(t, backend.Injections(), 1)
}

func TestClick(t *testing.T) {
	sim, backend, rec := newTestSimulator()

	assert.True(t, sim.Click(3, 50))

	inj := backend.Injections()
	require.Len(t, inj, 6)
	for i, in := range inj {
		assert.Equal(t, "button", in.Kind)
		assert.Equal(t, keys.ButtonLeft, in.Button)
		assert.Equal(t, i%2 == 0, in.Pressed)
	}

	press, rate := 20*time.Millisecond, 50*time.Millisecond
	assert.Equal(t, []time.Duration{press, rate, press, rate, press, rate}, rec.calls)
}

func TestClickPressDuration(t *testing.T) {
	rec := &sleepRecorder{}
	sim := NewSimulator(inputtest.New(), zerolog.Nop(), WithSleep(rec.sleep), WithPressDuration(5*time.Millisecond))

	assert.True(t, sim.Click(1, 15))
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 15 * time.Millisecond}, rec.calls)
}

func TestInjectionFailure(t *testing.T) {
	sim, backend, rec := newTestSimulator()
	backend.FailInjection(errors.New("no uinput"))

	assert.False(t, sim.Move(1, 5, 10))
	assert.False(t, sim.Click(5, 10))
	assert.Empty(t, rec.calls)
}

func TestGateToggles(t *testing.T) {
	sim, backend, _ := newTestSimulator()
	g := NewGate(sim)

	assert.Equal(t, Result{OK: true}, g.Move(1, 1, 0))

	g.SetClickActive(false)
	assert.Equal(t, Result{Skipped: true}, g.Click(1, 0))
	assert.Equal(t, Result{OK: true}, g.Move(1, 1, 0))

	g.SetClickActive(true)
	g.SetScriptActive(false)
	assert.Equal(t, Result{Skipped: true}, g.Move(1, 1, 0))
	assert.Equal(t, Result{Skipped: true}, g.Click(1, 0))

	assert.Len(t, backend.Injections(), 2)
}

func TestGateSkipsWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	// only the first sleep blocks, later runs pass straight through
	var blocked atomic.Bool
	sim := NewSimulator(inputtest.New(), zerolog.Nop(), WithSleep(func(time.Duration) {
		if blocked.CompareAndSwap(false, true) {
			close(entered)
			<-release
		}
	}))
	g := NewGate(sim)

	done := make(chan Result)
	go func() { done <- g.Move(1, 2, 10) }()
	<-entered

	assert.Equal(t, Result{Skipped: true}, g.Move(1, 1, 10))
	// a different kind is not blocked
	assert.Equal(t, Result{OK: true}, g.Click(1, 0))

	close(release)
	assert.Equal(t, Result{OK: true}, <-done)
	assert.Equal(t, Result{OK: true}, g.Move(1, 1, 0))
}
