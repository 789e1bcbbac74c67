// Package input provides the OS-facing side of the service: the global input
// hook, key state queries and synthetic mouse events.
package input

import (
	"context"
	"errors"

	"mousemacros/internal/keys"
)

var (
	// ErrUnsupportedPlatform is returned when no backend exists for this OS
	ErrUnsupportedPlatform = errors.New("input backend not supported on this platform")

	// ErrNoDevices is returned when no readable keyboard or mouse device was found
	ErrNoDevices = errors.New("no input devices found")
)

// Event is a key or button transition reported by a Hook.
type Event struct {
	Key     keys.Key
	Pressed bool
	// Repeat is set for auto-repeat key-down events.
	Repeat bool
}

// Hook delivers global input events.
type Hook interface {
	// Run blocks until ctx is cancelled or the hook fails, calling handle for
	// every event. handle is never called concurrently with itself.
	Run(ctx context.Context, handle func(Event)) error
}

// StateReader reports whether a key is currently held down.
type StateReader interface {
	IsPressed(k keys.Key) bool
}

// Injector issues synthetic mouse events.
type Injector interface {
	MoveMouse(dx, dy int) error
	MouseButton(b keys.MouseButton, pressed bool) error
}

// Backend is the full platform input surface.
type Backend interface {
	Hook
	StateReader
	Injector
	Close() error
}

// Options configure a platform backend.
type Options struct {
	// DeviceGlob selects evdev nodes to listen on (Linux).
	DeviceGlob string
	// UinputPath is the uinput control node used for the virtual mouse (Linux).
	UinputPath string
	// Grab takes exclusive access to the input devices (Linux).
	Grab bool
}

// DefaultOptions returns the options used when the configuration leaves them empty.
func DefaultOptions() Options {
	return Options{
		DeviceGlob: "/dev/input/event*",
		UinputPath: "/dev/uinput",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DeviceGlob == "" {
		o.DeviceGlob = d.DeviceGlob
	}
	if o.UinputPath == "" {
		o.UinputPath = d.UinputPath
	}
	return o
}
