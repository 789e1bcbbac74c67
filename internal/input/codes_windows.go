//go:build windows

package input

import "mousemacros/internal/keys"

// Windows virtual-key codes.
var windowsKeyCodes = map[keys.KeybdKey]uint32{
	keys.KeyNumpad0: 0x60, keys.KeyNumpad1: 0x61, keys.KeyNumpad2: 0x62,
	keys.KeyNumpad3: 0x63, keys.KeyNumpad4: 0x64, keys.KeyNumpad5: 0x65,
	keys.KeyNumpad6: 0x66, keys.KeyNumpad7: 0x67, keys.KeyNumpad8: 0x68,
	keys.KeyNumpad9: 0x69,

	keys.KeyMultiply: 0x6A,
	keys.KeyAdd:      0x6B,
	keys.KeySubtract: 0x6D,
	keys.KeyDecimal:  0x6E,
	keys.KeyDivide:   0x6F,

	keys.KeyBackquote: 0xC0, // VK_OEM_3
	keys.KeyEqual:     0xBB, // VK_OEM_PLUS
	keys.KeyMinus:     0xBD, // VK_OEM_MINUS
	keys.KeyLBracket:  0xDB,
	keys.KeyRBracket:  0xDD,
	keys.KeySemicolon: 0xBA,
	keys.KeyQuote:     0xDE,
	keys.KeyComma:     0xBC,
	keys.KeyPeriod:    0xBE,
	keys.KeySlash:     0xBF,
	keys.KeyBackslash: 0xDC,

	keys.KeyShift:    0x10,
	keys.KeyControl:  0x11,
	keys.KeyAlt:      0x12,
	keys.KeyLShift:   0xA0,
	keys.KeyRShift:   0xA1,
	keys.KeyLControl: 0xA2,
	keys.KeyRControl: 0xA3,
	keys.KeyLAlt:     0xA4,
	keys.KeyRAlt:     0xA5,

	keys.KeyBackspace: 0x08,
	keys.KeyTab:       0x09,
	keys.KeyEnter:     0x0D,
	keys.KeyEscape:    0x1B,
	keys.KeySpace:     0x20,
	keys.KeyPageUp:    0x21,
	keys.KeyPageDown:  0x22,
	keys.KeyEnd:       0x23,
	keys.KeyHome:      0x24,
	keys.KeyLeft:      0x25,
	keys.KeyUp:        0x26,
	keys.KeyRight:     0x27,
	keys.KeyDown:      0x28,
	keys.KeyInsert:    0x2D,
	keys.KeyDelete:    0x2E,
}

const (
	vkLButton = 0x01
	vkRButton = 0x02
	vkMButton = 0x04
)

var windowsButtonCodes = map[keys.MouseButton]uint32{
	keys.ButtonLeft:   vkLButton,
	keys.ButtonRight:  vkRButton,
	keys.ButtonMiddle: vkMButton,
}

// windowsVKKeys maps a virtual-key code from the keyboard hook to every
// identifier it actuates. The low-level hook reports side-specific modifier
// codes, so each side also actuates its generic modifier.
var windowsVKKeys = func() map[uint32][]keys.Key {
	for i := 0; i < 26; i++ {
		windowsKeyCodes[keys.KeyA+keys.KeybdKey(i)] = uint32('A' + i)
	}
	for i := 0; i < 10; i++ {
		windowsKeyCodes[keys.KeyNumrow0+keys.KeybdKey(i)] = uint32('0' + i)
	}
	for i := 0; i < 12; i++ {
		windowsKeyCodes[keys.KeyF1+keys.KeybdKey(i)] = uint32(0x70 + i)
	}

	m := make(map[uint32][]keys.Key, len(windowsKeyCodes))
	for k, vk := range windowsKeyCodes {
		if _, ok := k.Generic(); !ok && len(k.Sides()) > 1 {
			continue
		}
		m[vk] = append(m[vk], keys.Keyboard(k))
		if g, ok := k.Generic(); ok {
			m[vk] = append(m[vk], keys.Keyboard(g))
		}
	}
	return m
}()
