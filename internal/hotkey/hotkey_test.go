package hotkey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mousemacros/internal/input/inputtest"
	"mousemacros/internal/keys"
)

type emitted struct {
	event   string
	payload any
}

type recorder struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (r *recorder) Emit(event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, emitted{event, payload})
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.event)
	}
	return out
}

func (r *recorder) count(event string) int {
	n := 0
	for _, name := range r.names() {
		if name == event {
			n++
		}
	}
	return n
}

func newTestManager(t *testing.T) (*Manager, *inputtest.Backend, *recorder) {
	t.Helper()
	backend := inputtest.New()
	rec := &recorder{}
	m := NewManager(NewRegistry(), backend, rec, zerolog.Nop(), Options{HoldInterval: 2 * time.Millisecond})
	return m, backend, rec
}

// activate starts m and returns a stop func that waits for a clean exit.
func activate(t *testing.T, m *Manager, backend *inputtest.Backend) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done, err := m.Start(ctx)
	require.NoError(t, err)
	<-backend.Started()

	return func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("manager did not stop")
		}
	}
}

var (
	keyA     = keys.Keyboard(keys.KeyA)
	keyB     = keys.Keyboard(keys.KeyB)
	lControl = keys.Keyboard(keys.KeyLControl)
	rShift   = keys.Keyboard(keys.KeyRShift)
)

func TestBindKeyPlain(t *testing.T) {
	m, backend, rec := newTestManager(t)
	require.NoError(t, m.BindKey("A"))

	stop := activate(t, m, backend)
	defer stop()

	backend.Press(keyA)
	backend.Release(keyA)
	backend.Press(keyB)

	assert.Equal(t, []string{"pressA"}, rec.names())
	rec.mu.Lock()
	assert.Equal(t, "", rec.events[0].payload)
	rec.mu.Unlock()
}

func TestBindKeyCompositionOrder(t *testing.T) {
	m, backend, rec := newTestManager(t)
	require.NoError(t, m.BindKey("A"))
	require.NoError(t, m.BindKey("Shift_A"))
	require.NoError(t, m.BindKey("Control_A"))

	backend.Hold(lControl)
	backend.Hold(rShift)

	stop := activate(t, m, backend)
	defer stop()

	backend.Press(keyA)
	assert.Equal(t, []string{"pressA", "pressShift_A", "pressControl_A"}, rec.names())
}

func TestBindKeyModifierGating(t *testing.T) {
	m, backend, rec := newTestManager(t)
	require.NoError(t, m.BindKey("Control_A"))

	stop := activate(t, m, backend)
	defer stop()

	backend.Press(keyA)
	backend.Release(keyA)
	assert.Empty(t, rec.names())

	backend.Hold(lControl)
	backend.Press(keyA)
	assert.Equal(t, []string{"pressControl_A"}, rec.names())
}

func TestBindKeyTwoModifiers(t *testing.T) {
	m, backend, rec := newTestManager(t)
	require.NoError(t, m.BindKey("Control_Shift_A"))

	stop := activate(t, m, backend)
	defer stop()

	backend.Hold(lControl)
	backend.Press(keyA)
	backend.Release(keyA)
	assert.Empty(t, rec.names(), "shift not held")

	backend.Hold(rShift)
	backend.Press(keyA)
	assert.Equal(t, []string{"pressControl_Shift_A"}, rec.names())
}

func TestBindKeyInvalidModifier(t *testing.T) {
	m, _, _ := newTestManager(t)

	err := m.BindKey("Foo_A")
	require.ErrorIs(t, err, ErrInvalidBinding)

	err = m.BindKey("Control_Shift_Alt_A")
	require.ErrorIs(t, err, ErrInvalidBinding)

	kb, ms := m.reg.Counts()
	assert.Zero(t, kb)
	assert.Zero(t, ms)
}

func TestBindKeyRejectsEmptySegments(t *testing.T) {
	m, _, _ := newTestManager(t)

	for _, name := range []string{"", "A_", "_A", "Control__A"} {
		assert.ErrorIs(t, m.BindKey(name), ErrInvalidBinding, name)
	}

	kb, ms := m.reg.Counts()
	assert.Zero(t, kb)
	assert.Zero(t, ms)
}

func TestBindKeyUnknownTriggerIsSilent(t *testing.T) {
	m, _, _ := newTestManager(t)

	require.NoError(t, m.BindKey("Control_Foo"))
	require.NoError(t, m.BindKey("NotAKey"))
	require.NoError(t, m.BindHoldKey("NotAKey"))

	kb, ms := m.reg.Counts()
	assert.Zero(t, kb)
	assert.Zero(t, ms)
}

func TestBindKeyMouseTrigger(t *testing.T) {
	m, backend, rec := newTestManager(t)
	require.NoError(t, m.BindKey("Control_LeftButton"))

	stop := activate(t, m, backend)
	defer stop()

	backend.Hold(lControl)
	backend.Press(keys.Mouse(keys.ButtonLeft))
	backend.Press(keys.Mouse(keys.ButtonRight))

	assert.Equal(t, []string{"pressControl_LeftButton"}, rec.names())
}

func TestBindHoldKey(t *testing.T) {
	m, backend, rec := newTestManager(t)
	require.NoError(t, m.BindHoldKey("A"))

	stop := activate(t, m, backend)
	defer stop()

	backend.Press(keyA)
	require.Eventually(t, func() bool {
		return rec.count("holdA") >= 3
	}, time.Second, time.Millisecond)

	rec.mu.Lock()
	assert.Equal(t, HoldPayload{Pressed: 1}, rec.events[0].payload)
	rec.mu.Unlock()

	backend.Lift(keyA)
	require.Eventually(t, func() bool {
		return len(m.Status().HoldWorkers) == 0
	}, time.Second, time.Millisecond)

	n := rec.count("holdA")
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, n, rec.count("holdA"), "worker kept emitting after release")
}

func TestBindHoldKeySingleWorkerOnRepeat(t *testing.T) {
	m, backend, _ := newTestManager(t)
	require.NoError(t, m.BindHoldKey("A"))

	stop := activate(t, m, backend)
	defer stop()

	backend.Press(keyA)
	backend.Press(keyA)
	backend.Press(keyA)

	assert.Equal(t, []string{"A"}, m.Status().HoldWorkers)
	backend.Lift(keyA)
}

func TestHoldWorkersStopWithContext(t *testing.T) {
	m, backend, _ := newTestManager(t)
	require.NoError(t, m.BindHoldKey("B"))

	stop := activate(t, m, backend)
	backend.Press(keyB)
	require.Len(t, m.Status().HoldWorkers, 1)

	// key still held: only cancellation ends the worker
	stop()
	assert.Empty(t, m.Status().HoldWorkers)
}

func TestEmitFailureIsNotFatal(t *testing.T) {
	m, backend, rec := newTestManager(t)
	require.NoError(t, m.BindKey("A"))
	require.NoError(t, m.BindKey("B"))

	stop := activate(t, m, backend)
	defer stop()

	rec.mu.Lock()
	rec.err = errors.New("front-end gone")
	rec.mu.Unlock()
	backend.Press(keyA)

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()
	backend.Press(keyB)

	assert.Equal(t, []string{"pressB"}, rec.names())
}

func TestBindAfterActivationHasNoEffect(t *testing.T) {
	m, backend, rec := newTestManager(t)

	stop := activate(t, m, backend)
	defer stop()

	require.NoError(t, m.BindKey("A"))
	backend.Press(keyA)
	assert.Empty(t, rec.names())
}

func TestActivateTwice(t *testing.T) {
	m, backend, _ := newTestManager(t)

	stop := activate(t, m, backend)
	defer stop()

	assert.True(t, m.Active())
	assert.ErrorIs(t, m.Activate(context.Background()), ErrAlreadyActive)
}

func TestPanickingCallbackIsContained(t *testing.T) {
	m, backend, rec := newTestManager(t)
	m.reg.Add(keyA, func() { panic("boom") })
	require.NoError(t, m.BindKey("A"))

	stop := activate(t, m, backend)
	defer stop()

	backend.Press(keyA)
	assert.Equal(t, []string{"pressA"}, rec.names())
}

func TestStatus(t *testing.T) {
	m, _, _ := newTestManager(t)
	require.NoError(t, m.BindKey("A"))
	require.NoError(t, m.BindKey("Shift_A"))
	require.NoError(t, m.BindHoldKey("RightButton"))

	st := m.Status()
	assert.False(t, st.Active)
	assert.Equal(t, 1, st.KeyboardBindings)
	assert.Equal(t, 1, st.MouseBindings)
	assert.Empty(t, st.HoldWorkers)
}
