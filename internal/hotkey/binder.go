package hotkey

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"mousemacros/internal/keys"
	"mousemacros/internal/metrics"
)

// BindKey registers a press binding. name is "Key", "Mod_Key" or
// "Mod1_Mod2_Key"; the event "press"+name is emitted when Key is actuated
// while every Mod is held.
//
// An unknown Key binds nothing and returns nil. An unknown Mod or an empty
// segment returns ErrInvalidBinding and binds nothing.
func (m *Manager) BindKey(name string) error {
	parts := strings.Split(name, "_")
	if len(parts) > 3 {
		metrics.InvalidBindings.Inc()
		return fmt.Errorf("%w: %q has %d segments", ErrInvalidBinding, name, len(parts))
	}
	if slices.Contains(parts, "") {
		metrics.InvalidBindings.Inc()
		return fmt.Errorf("%w: empty segment in %q", ErrInvalidBinding, name)
	}

	modifiers := make([]keys.Key, 0, len(parts)-1)
	for _, seg := range parts[:len(parts)-1] {
		k, ok := keys.ResolveKeyboard(seg)
		if !ok {
			metrics.InvalidBindings.Inc()
			return fmt.Errorf("%w: modifier %q in %q", ErrInvalidBinding, seg, name)
		}
		modifiers = append(modifiers, keys.Keyboard(k))
	}

	trigger, ok := keys.Resolve(parts[len(parts)-1])
	if !ok {
		m.log.Debug().Str("name", name).Msg("unknown key, nothing bound")
		return nil
	}

	event := "press" + name
	m.reg.Add(trigger, func() {
		for _, mod := range modifiers {
			if !m.backend.IsPressed(mod) {
				return
			}
		}
		m.emit("press", event, "")
	})
	m.warnIfActive(name)

	m.log.Debug().Str("name", name).Str("key", trigger.String()).Int("modifiers", len(modifiers)).Msg("key bound")
	return nil
}

// BindHoldKey registers a hold binding on the key or button named name.
// When it is actuated a worker emits "hold"+name with HoldPayload{1}, then
// keeps emitting every hold interval until the key is released.
func (m *Manager) BindHoldKey(name string) error {
	k, ok := keys.Resolve(name)
	if !ok {
		m.log.Debug().Str("name", name).Msg("unknown key, nothing bound")
		return nil
	}

	event := "hold" + name
	m.reg.Add(k, func() {
		m.holds.start(k, func(ctx context.Context) {
			m.holdLoop(ctx, k, event)
		})
	})
	m.warnIfActive(name)

	m.log.Debug().Str("name", name).Msg("hold key bound")
	return nil
}

func (m *Manager) holdLoop(ctx context.Context, k keys.Key, event string) {
	payload := HoldPayload{Pressed: 1}
	for {
		m.emit("hold", event, payload)
		if !sleep(ctx, m.interval) {
			return
		}
		if !m.backend.IsPressed(k) {
			return
		}
	}
}

func (m *Manager) warnIfActive(name string) {
	if m.active.Load() {
		m.log.Warn().Str("name", name).Msg("bindings already installed, new binding has no effect")
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
