//go:build linux

package input

import "mousemacros/internal/keys"

// Linux input event codes, from linux/input-event-codes.h.
const (
	evSyn = 0x00
	evKey = 0x01

	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
)

var linuxKeyCodes = map[keys.KeybdKey]uint16{
	keys.KeyA: 30, keys.KeyB: 48, keys.KeyC: 46, keys.KeyD: 32, keys.KeyE: 18,
	keys.KeyF: 33, keys.KeyG: 34, keys.KeyH: 35, keys.KeyI: 23, keys.KeyJ: 36,
	keys.KeyK: 37, keys.KeyL: 38, keys.KeyM: 50, keys.KeyN: 49, keys.KeyO: 24,
	keys.KeyP: 25, keys.KeyQ: 16, keys.KeyR: 19, keys.KeyS: 31, keys.KeyT: 20,
	keys.KeyU: 22, keys.KeyV: 47, keys.KeyW: 17, keys.KeyX: 45, keys.KeyY: 21,
	keys.KeyZ: 44,

	keys.KeyNumrow1: 2, keys.KeyNumrow2: 3, keys.KeyNumrow3: 4, keys.KeyNumrow4: 5,
	keys.KeyNumrow5: 6, keys.KeyNumrow6: 7, keys.KeyNumrow7: 8, keys.KeyNumrow8: 9,
	keys.KeyNumrow9: 10, keys.KeyNumrow0: 11,

	keys.KeyF1: 59, keys.KeyF2: 60, keys.KeyF3: 61, keys.KeyF4: 62, keys.KeyF5: 63,
	keys.KeyF6: 64, keys.KeyF7: 65, keys.KeyF8: 66, keys.KeyF9: 67, keys.KeyF10: 68,
	keys.KeyF11: 87, keys.KeyF12: 88,

	keys.KeyNumpad7: 71, keys.KeyNumpad8: 72, keys.KeyNumpad9: 73,
	keys.KeyNumpad4: 75, keys.KeyNumpad5: 76, keys.KeyNumpad6: 77,
	keys.KeyNumpad1: 79, keys.KeyNumpad2: 80, keys.KeyNumpad3: 81,
	keys.KeyNumpad0: 82,

	keys.KeySubtract: 74, // KEY_KPMINUS
	keys.KeyAdd:      78, // KEY_KPPLUS
	keys.KeyDecimal:  83, // KEY_KPDOT
	keys.KeyMultiply: 55, // KEY_KPASTERISK
	keys.KeyDivide:   98, // KEY_KPSLASH

	keys.KeyBackquote: 41,
	keys.KeyMinus:     12,
	keys.KeyEqual:     13,
	keys.KeyLBracket:  26,
	keys.KeyRBracket:  27,
	keys.KeySemicolon: 39,
	keys.KeyQuote:     40,
	keys.KeyBackslash: 43,
	keys.KeyComma:     51,
	keys.KeyPeriod:    52,
	keys.KeySlash:     53,

	keys.KeyLControl: 29,
	keys.KeyLShift:   42,
	keys.KeyRShift:   54,
	keys.KeyLAlt:     56,
	keys.KeyRControl: 97,
	keys.KeyRAlt:     100,

	keys.KeyEscape:    1,
	keys.KeyBackspace: 14,
	keys.KeyTab:       15,
	keys.KeyEnter:     28,
	keys.KeySpace:     57,
	keys.KeyHome:      102,
	keys.KeyUp:        103,
	keys.KeyPageUp:    104,
	keys.KeyLeft:      105,
	keys.KeyRight:     106,
	keys.KeyEnd:       107,
	keys.KeyDown:      108,
	keys.KeyPageDown:  109,
	keys.KeyInsert:    110,
	keys.KeyDelete:    111,
}

var linuxButtonCodes = map[keys.MouseButton]uint16{
	keys.ButtonLeft:   btnLeft,
	keys.ButtonRight:  btnRight,
	keys.ButtonMiddle: btnMiddle,
}

// linuxCodeKeys maps a native code back to every identifier it actuates.
// A side modifier also actuates its generic modifier.
var linuxCodeKeys = func() map[uint16][]keys.Key {
	m := make(map[uint16][]keys.Key, len(linuxKeyCodes)+len(linuxButtonCodes))
	for k, code := range linuxKeyCodes {
		m[code] = append(m[code], keys.Keyboard(k))
		if g, ok := k.Generic(); ok {
			m[code] = append(m[code], keys.Keyboard(g))
		}
	}
	for b, code := range linuxButtonCodes {
		m[code] = append(m[code], keys.Mouse(b))
	}
	return m
}()

// nativeCodes returns the codes that read as k being held.
func nativeCodes(k keys.Key) []uint16 {
	if k.IsMouse() {
		if code, ok := linuxButtonCodes[k.Mouse]; ok {
			return []uint16{code}
		}
		return nil
	}
	var codes []uint16
	for _, side := range k.Keybd.Sides() {
		if code, ok := linuxKeyCodes[side]; ok {
			codes = append(codes, code)
		}
	}
	return codes
}
