// Package inputtest provides an in-memory input backend for tests.
package inputtest

import (
	"context"
	"sync"

	"mousemacros/internal/input"
	"mousemacros/internal/keys"
)

// Injection is one call recorded by Backend.
type Injection struct {
	Kind    string // "move" or "button"
	DX, DY  int
	Button  keys.MouseButton
	Pressed bool
}

// Backend is a scriptable input.Backend. Tests feed events with Press and
// Release once Run has started, and inspect injected mouse events.
type Backend struct {
	mu         sync.Mutex
	down       map[keys.Key]bool
	injections []Injection
	injectErr  error

	events  chan input.Event
	started chan struct{}
	once    sync.Once
}

var _ input.Backend = (*Backend)(nil)

// New returns an idle fake backend.
func New() *Backend {
	return &Backend{
		down:    make(map[keys.Key]bool),
		events:  make(chan input.Event),
		started: make(chan struct{}),
	}
}

// Started is closed once Run is accepting events.
func (b *Backend) Started() <-chan struct{} { return b.started }

func (b *Backend) Run(ctx context.Context, handle func(input.Event)) error {
	b.once.Do(func() { close(b.started) })
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.events:
			handle(ev)
		}
	}
}

// Hold marks k as held without delivering an event.
func (b *Backend) Hold(k keys.Key) {
	b.mu.Lock()
	b.down[k] = true
	b.mu.Unlock()
}

// Lift marks k as released without delivering an event.
func (b *Backend) Lift(k keys.Key) {
	b.mu.Lock()
	delete(b.down, k)
	b.mu.Unlock()
}

// Press holds k and delivers a key-down event. It returns once the event
// has been handled.
func (b *Backend) Press(k keys.Key) {
	b.Hold(k)
	b.events <- input.Event{Key: k, Pressed: true}
	b.sync()
}

// Release lifts k and delivers a key-up event.
func (b *Backend) Release(k keys.Key) {
	b.Lift(k)
	b.events <- input.Event{Key: k}
	b.sync()
}

// sync waits for the previous event to be fully handled by sending a no-op.
func (b *Backend) sync() {
	b.events <- input.Event{}
}

func (b *Backend) IsPressed(k keys.Key) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if k.IsMouse() {
		return b.down[k]
	}
	for _, side := range k.Keybd.Sides() {
		if b.down[keys.Keyboard(side)] {
			return true
		}
	}
	return false
}

// FailInjection makes every following injection return err.
func (b *Backend) FailInjection(err error) {
	b.mu.Lock()
	b.injectErr = err
	b.mu.Unlock()
}

func (b *Backend) MoveMouse(dx, dy int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.injectErr != nil {
		return b.injectErr
	}
	b.injections = append(b.injections, Injection{Kind: "move", DX: dx, DY: dy})
	return nil
}

func (b *Backend) MouseButton(btn keys.MouseButton, pressed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.injectErr != nil {
		return b.injectErr
	}
	b.injections = append(b.injections, Injection{Kind: "button", Button: btn, Pressed: pressed})
	return nil
}

// Injections returns a copy of the recorded injections.
func (b *Backend) Injections() []Injection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Injection(nil), b.injections...)
}

func (b *Backend) Close() error { return nil }
