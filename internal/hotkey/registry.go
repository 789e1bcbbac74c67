package hotkey

import (
	"sync"

	"mousemacros/internal/keys"
	"mousemacros/internal/metrics"
)

// Callback runs when a bound key is actuated.
type Callback func()

// Registry maps keys and mouse buttons to ordered callback lists. Entries
// only grow; a second callback on the same key runs after the first.
type Registry struct {
	keybdMu sync.Mutex
	keybd   map[keys.KeybdKey][]Callback

	mouseMu sync.Mutex
	mouse   map[keys.MouseButton][]Callback
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		keybd: make(map[keys.KeybdKey][]Callback),
		mouse: make(map[keys.MouseButton][]Callback),
	}
}

// Add appends cb to the callbacks of k.
func (r *Registry) Add(k keys.Key, cb Callback) {
	if k.IsMouse() {
		r.mouseMu.Lock()
		r.mouse[k.Mouse] = append(r.mouse[k.Mouse], cb)
		r.mouseMu.Unlock()
		metrics.Bindings.WithLabelValues("mouse").Inc()
		return
	}

	r.keybdMu.Lock()
	r.keybd[k.Keybd] = append(r.keybd[k.Keybd], cb)
	r.keybdMu.Unlock()
	metrics.Bindings.WithLabelValues("keyboard").Inc()
}

// Counts returns the number of bound keys and buttons.
func (r *Registry) Counts() (keyboard, mouse int) {
	r.keybdMu.Lock()
	keyboard = len(r.keybd)
	r.keybdMu.Unlock()

	r.mouseMu.Lock()
	mouse = len(r.mouse)
	r.mouseMu.Unlock()
	return keyboard, mouse
}

// handlerTable is an immutable copy of the registry taken at activation.
type handlerTable struct {
	keybd map[keys.KeybdKey][]Callback
	mouse map[keys.MouseButton][]Callback
}

func (r *Registry) snapshot() handlerTable {
	t := handlerTable{
		keybd: make(map[keys.KeybdKey][]Callback),
		mouse: make(map[keys.MouseButton][]Callback),
	}

	r.mouseMu.Lock()
	for b, cbs := range r.mouse {
		t.mouse[b] = append([]Callback(nil), cbs...)
	}
	r.mouseMu.Unlock()

	r.keybdMu.Lock()
	for k, cbs := range r.keybd {
		t.keybd[k] = append([]Callback(nil), cbs...)
	}
	r.keybdMu.Unlock()

	return t
}

func (t handlerTable) lookup(k keys.Key) []Callback {
	if k.IsMouse() {
		return t.mouse[k.Mouse]
	}
	return t.keybd[k.Keybd]
}

func (t handlerTable) counts() (keyboard, mouse int) {
	return len(t.keybd), len(t.mouse)
}
