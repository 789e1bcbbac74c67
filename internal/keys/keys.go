// Package keys resolves binding names to platform-neutral key identifiers.
//
// Names are matched exactly (case-sensitive). Keyboard names are tried first,
// then mouse button names. The platform backends in package input translate
// these identifiers to native key codes.
package keys

import (
	"fmt"
	"sort"
)

// KeybdKey identifies a keyboard key.
type KeybdKey uint16

// Keyboard keys. The letter, number row, function and numpad ranges are
// contiguous so they can be built by offset.
const (
	KeyUnknown KeybdKey = iota

	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	KeyNumrow0
	KeyNumrow1
	KeyNumrow2
	KeyNumrow3
	KeyNumrow4
	KeyNumrow5
	KeyNumrow6
	KeyNumrow7
	KeyNumrow8
	KeyNumrow9

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	KeyNumpad0
	KeyNumpad1
	KeyNumpad2
	KeyNumpad3
	KeyNumpad4
	KeyNumpad5
	KeyNumpad6
	KeyNumpad7
	KeyNumpad8
	KeyNumpad9

	KeyAdd
	KeySubtract
	KeyMultiply
	KeyDivide
	KeyDecimal

	KeyBackquote
	KeyEqual
	KeyMinus
	KeyLBracket
	KeyRBracket
	KeySemicolon
	KeyQuote
	KeyComma
	KeyPeriod
	KeySlash
	KeyBackslash

	KeyShift
	KeyLShift
	KeyRShift
	KeyControl
	KeyLControl
	KeyRControl
	KeyAlt
	KeyLAlt
	KeyRAlt

	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyInsert
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	keybdKeyCount
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	ButtonUnknown MouseButton = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

var keybdNames = map[string]KeybdKey{
	"Add":       KeyAdd,
	"Subtract":  KeySubtract,
	"Multiply":  KeyMultiply,
	"Divide":    KeyDivide,
	"Decimal":   KeyDecimal,
	"Backquote": KeyBackquote,
	"Equal":     KeyEqual,
	"Minus":     KeyMinus,
	"LBracket":  KeyLBracket,
	"RBracket":  KeyRBracket,
	"Semicolon": KeySemicolon,
	"Quote":     KeyQuote,
	"Comma":     KeyComma,
	"Period":    KeyPeriod,
	"Slash":     KeySlash,
	"Backslash": KeyBackslash,
	"Shift":     KeyShift,
	"LShift":    KeyLShift,
	"RShift":    KeyRShift,
	"Control":   KeyControl,
	"LControl":  KeyLControl,
	"RControl":  KeyRControl,
	"Alt":       KeyAlt,
	"LAlt":      KeyLAlt,
	"RAlt":      KeyRAlt,
	"Space":     KeySpace,
	"Enter":     KeyEnter,
	"Escape":    KeyEscape,
	"Tab":       KeyTab,
	"Backspace": KeyBackspace,
	"Insert":    KeyInsert,
	"Delete":    KeyDelete,
	"Home":      KeyHome,
	"End":       KeyEnd,
	"PageUp":    KeyPageUp,
	"PageDown":  KeyPageDown,
	"Up":        KeyUp,
	"Down":      KeyDown,
	"Left":      KeyLeft,
	"Right":     KeyRight,
}

var mouseNames = map[string]MouseButton{
	"LeftButton":   ButtonLeft,
	"RightButton":  ButtonRight,
	"MiddleButton": ButtonMiddle,
}

var (
	keybdByKey    = make(map[KeybdKey]string, keybdKeyCount)
	mouseByButton = make(map[MouseButton]string, len(mouseNames))
)

func init() {
	for i := 0; i < 26; i++ {
		keybdNames[string(rune('A'+i))] = KeyA + KeybdKey(i)
	}
	for i := 0; i < 10; i++ {
		keybdNames[fmt.Sprintf("Numrow%d", i)] = KeyNumrow0 + KeybdKey(i)
		keybdNames[fmt.Sprintf("Numpad%d", i)] = KeyNumpad0 + KeybdKey(i)
	}
	for i := 0; i < 12; i++ {
		keybdNames[fmt.Sprintf("F%d", i+1)] = KeyF1 + KeybdKey(i)
	}

	for name, k := range keybdNames {
		keybdByKey[k] = name
	}
	for name, b := range mouseNames {
		mouseByButton[b] = name
	}
}

// ResolveKeyboard returns the keyboard key named name.
func ResolveKeyboard(name string) (KeybdKey, bool) {
	k, ok := keybdNames[name]
	return k, ok
}

// ResolveMouse returns the mouse button named name.
func ResolveMouse(name string) (MouseButton, bool) {
	b, ok := mouseNames[name]
	return b, ok
}

// Resolve returns the keyboard key or, failing that, the mouse button named name.
func Resolve(name string) (Key, bool) {
	if k, ok := ResolveKeyboard(name); ok {
		return Keyboard(k), true
	}
	if b, ok := ResolveMouse(name); ok {
		return Mouse(b), true
	}
	return Key{}, false
}

// Names returns every resolvable name, keyboard names first, each group sorted.
func Names() []string {
	kb := make([]string, 0, len(keybdNames))
	for name := range keybdNames {
		kb = append(kb, name)
	}
	sort.Strings(kb)

	ms := make([]string, 0, len(mouseNames))
	for name := range mouseNames {
		ms = append(ms, name)
	}
	sort.Strings(ms)

	return append(kb, ms...)
}

// String returns the binding name of the key.
func (k KeybdKey) String() string {
	if name, ok := keybdByKey[k]; ok {
		return name
	}
	return fmt.Sprintf("KeybdKey(%d)", uint16(k))
}

// Sides returns the physical keys behind a generic modifier. Any other key
// returns itself.
func (k KeybdKey) Sides() []KeybdKey {
	switch k {
	case KeyShift:
		return []KeybdKey{KeyLShift, KeyRShift}
	case KeyControl:
		return []KeybdKey{KeyLControl, KeyRControl}
	case KeyAlt:
		return []KeybdKey{KeyLAlt, KeyRAlt}
	}
	return []KeybdKey{k}
}

// Generic returns the side-independent modifier for a left/right modifier key.
func (k KeybdKey) Generic() (KeybdKey, bool) {
	switch k {
	case KeyLShift, KeyRShift:
		return KeyShift, true
	case KeyLControl, KeyRControl:
		return KeyControl, true
	case KeyLAlt, KeyRAlt:
		return KeyAlt, true
	}
	return KeyUnknown, false
}

// String returns the binding name of the button.
func (b MouseButton) String() string {
	if name, ok := mouseByButton[b]; ok {
		return name
	}
	return fmt.Sprintf("MouseButton(%d)", uint8(b))
}

// Key is either a keyboard key or a mouse button.
type Key struct {
	Keybd KeybdKey
	Mouse MouseButton
}

// Keyboard wraps a keyboard key.
func Keyboard(k KeybdKey) Key { return Key{Keybd: k} }

// Mouse wraps a mouse button.
func Mouse(b MouseButton) Key { return Key{Mouse: b} }

// IsMouse reports whether k is a mouse button.
func (k Key) IsMouse() bool { return k.Mouse != ButtonUnknown }

func (k Key) String() string {
	if k.IsMouse() {
		return k.Mouse.String()
	}
	return k.Keybd.String()
}
