//go:build linux

package input

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/bendahl/uinput"
	evdev "github.com/gvalkov/golang-evdev"
	"github.com/rs/zerolog"

	"mousemacros/internal/keys"
	"mousemacros/internal/logging"
)

const virtualMouseName = "mousemacros"

// linuxBackend reads key events from evdev nodes and injects mouse events
// through a uinput virtual mouse.
type linuxBackend struct {
	opts Options
	log  zerolog.Logger

	stateMu sync.RWMutex
	down    map[uint16]bool

	mouseMu sync.Mutex
	mouse   uinput.Mouse
}

// NewBackend returns the evdev/uinput backend. Devices and the virtual mouse
// are opened on first use.
func NewBackend(opts Options, log zerolog.Logger) (Backend, error) {
	return &linuxBackend{
		opts: opts.withDefaults(),
		log:  logging.Subsystem(log, "input"),
		down: make(map[uint16]bool),
	}, nil
}

type inputDevice struct {
	dev  *evdev.InputDevice
	path string
}

func (b *linuxBackend) findDevices() ([]*inputDevice, error) {
	paths, err := filepath.Glob(b.opts.DeviceGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}

	var devices []*inputDevice
	for _, path := range paths {
		dev, err := evdev.Open(path)
		if err != nil {
			b.log.Debug().Err(err).Str("path", path).Msg("skipping unreadable device")
			continue
		}
		if dev.Name == virtualMouseName || len(dev.CapabilitiesFlat[evKey]) == 0 {
			dev.File.Close()
			continue
		}
		devices = append(devices, &inputDevice{dev: dev, path: path})
	}

	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	return devices, nil
}

func (b *linuxBackend) Run(ctx context.Context, handle func(Event)) error {
	devices, err := b.findDevices()
	if err != nil {
		return err
	}

	events := make(chan Event, 64)
	var wg sync.WaitGroup

	for _, d := range devices {
		if b.opts.Grab {
			if err := d.dev.Grab(); err != nil {
				b.log.Warn().Err(err).Str("device", d.dev.Name).Msg("failed to grab device")
			}
		}
		b.log.Info().Str("device", d.dev.Name).Str("path", d.path).Msg("monitoring device")

		wg.Add(1)
		go func(d *inputDevice) {
			defer wg.Done()
			b.readDevice(ctx, d, events)
		}(d)
	}

	defer func() {
		for _, d := range devices {
			if b.opts.Grab {
				d.dev.Release()
			}
			d.dev.File.Close()
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			handle(ev)
		}
	}
}

func (b *linuxBackend) readDevice(ctx context.Context, d *inputDevice, events chan<- Event) {
	for {
		ev, err := d.dev.ReadOne()
		if err != nil {
			if ctx.Err() == nil {
				b.log.Warn().Err(err).Str("device", d.dev.Name).Msg("stopped reading device")
			}
			return
		}
		if ev.Type != evKey {
			continue
		}

		targets, ok := linuxCodeKeys[ev.Code]
		pressed := ev.Value != keyRelease

		b.stateMu.Lock()
		if pressed {
			b.down[ev.Code] = true
		} else {
			delete(b.down, ev.Code)
		}
		b.stateMu.Unlock()

		if !ok {
			continue
		}
		for _, k := range targets {
			select {
			case events <- Event{Key: k, Pressed: pressed, Repeat: ev.Value == keyRepeat}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (b *linuxBackend) IsPressed(k keys.Key) bool {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	for _, code := range nativeCodes(k) {
		if b.down[code] {
			return true
		}
	}
	return false
}

func (b *linuxBackend) virtualMouse() (uinput.Mouse, error) {
	b.mouseMu.Lock()
	defer b.mouseMu.Unlock()
	if b.mouse != nil {
		return b.mouse, nil
	}

	m, err := uinput.CreateMouse(b.opts.UinputPath, []byte(virtualMouseName))
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual mouse on %s: %w", b.opts.UinputPath, err)
	}
	b.mouse = m
	return m, nil
}

func (b *linuxBackend) MoveMouse(dx, dy int) error {
	m, err := b.virtualMouse()
	if err != nil {
		return err
	}
	return m.Move(int32(dx), int32(dy))
}

func (b *linuxBackend) MouseButton(btn keys.MouseButton, pressed bool) error {
	m, err := b.virtualMouse()
	if err != nil {
		return err
	}

	switch btn {
	case keys.ButtonLeft:
		if pressed {
			return m.LeftPress()
		}
		return m.LeftRelease()
	case keys.ButtonRight:
		if pressed {
			return m.RightPress()
		}
		return m.RightRelease()
	case keys.ButtonMiddle:
		if pressed {
			return m.MiddlePress()
		}
		return m.MiddleRelease()
	}
	return fmt.Errorf("unknown mouse button %d", btn)
}

func (b *linuxBackend) Close() error {
	b.mouseMu.Lock()
	defer b.mouseMu.Unlock()
	if b.mouse == nil {
		return nil
	}
	m := b.mouse
	b.mouse = nil
	// Release buttons in case a click was interrupted.
	m.LeftRelease()
	m.RightRelease()
	return m.Close()
}
