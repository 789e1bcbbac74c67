//go:build windows

package input

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"

	"mousemacros/internal/keys"
	"mousemacros/internal/logging"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procSendInput           = user32.NewProc("SendInput")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208

	inputMouse = 0

	mouseEventfMove       = 0x0001
	mouseEventfLeftDown   = 0x0002
	mouseEventfLeftUp     = 0x0004
	mouseEventfRightDown  = 0x0008
	mouseEventfRightUp    = 0x0010
	mouseEventfMiddleDown = 0x0020
	mouseEventfMiddleUp   = 0x0040
)

type kbdLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type mouseInputRecord struct {
	Type uint32
	Mi   mouseInput
}

type msg struct {
	Hwnd    syscall.Handle
	Message uint32
	Wparam  uintptr
	Lparam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// The low-level hook procedures cannot carry state, so the running backend
// is kept here. Only one hook loop runs per process.
var hookInstance atomic.Pointer[windowsBackend]

// windowsBackend installs WH_KEYBOARD_LL and WH_MOUSE_LL hooks, reads key
// state with GetAsyncKeyState and injects mouse events with SendInput.
type windowsBackend struct {
	log zerolog.Logger

	handle       func(Event)
	keyboardHook uintptr
	mouseHook    uintptr
	down         map[uint32]bool
}

// NewBackend returns the Windows hook backend.
func NewBackend(opts Options, log zerolog.Logger) (Backend, error) {
	return &windowsBackend{
		log:  logging.Subsystem(log, "input"),
		down: make(map[uint32]bool),
	}, nil
}

func (b *windowsBackend) Run(ctx context.Context, handle func(Event)) error {
	if !hookInstance.CompareAndSwap(nil, b) {
		return fmt.Errorf("input hook already running")
	}
	defer hookInstance.Store(nil)
	// set before the hooks are installed
	b.handle = handle

	// Hooks must be registered in the same thread that runs the message loop
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	threadID := windows.GetCurrentThreadId()
	hMod, _, _ := procGetModuleHandle.Call(0)

	var err error
	b.keyboardHook, _, err = procSetWindowsHookEx.Call(whKeyboardLL, syscall.NewCallback(keyboardHookProc), hMod, 0)
	if b.keyboardHook == 0 {
		return fmt.Errorf("failed to set keyboard hook: %w", err)
	}
	defer procUnhookWindowsHookEx.Call(b.keyboardHook)

	b.mouseHook, _, err = procSetWindowsHookEx.Call(whMouseLL, syscall.NewCallback(mouseHookProc), hMod, 0)
	if b.mouseHook == 0 {
		return fmt.Errorf("failed to set mouse hook: %w", err)
	}
	defer procUnhookWindowsHookEx.Call(b.mouseHook)

	b.log.Info().Msg("global hooks installed")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			procPostThreadMessage.Call(uintptr(threadID), wmQuit, 0, 0)
		case <-stop:
		}
	}()

	var m msg
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}
	return nil
}

func keyboardHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	b := hookInstance.Load()
	if nCode == 0 && b != nil {
		kbd := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
		pressed := wParam == wmKeyDown || wParam == wmSysKeyDown
		released := wParam == wmKeyUp || wParam == wmSysKeyUp
		if pressed || released {
			repeat := pressed && b.down[kbd.VkCode]
			if pressed {
				b.down[kbd.VkCode] = true
			} else {
				delete(b.down, kbd.VkCode)
			}
			for _, k := range windowsVKKeys[kbd.VkCode] {
				b.handle(Event{Key: k, Pressed: pressed, Repeat: repeat})
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func mouseHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	b := hookInstance.Load()
	if nCode == 0 && b != nil {
		var btn keys.MouseButton
		var pressed bool

		switch wParam {
		case wmLButtonDown:
			btn, pressed = keys.ButtonLeft, true
		case wmLButtonUp:
			btn = keys.ButtonLeft
		case wmRButtonDown:
			btn, pressed = keys.ButtonRight, true
		case wmRButtonUp:
			btn = keys.ButtonRight
		case wmMButtonDown:
			btn, pressed = keys.ButtonMiddle, true
		case wmMButtonUp:
			btn = keys.ButtonMiddle
		}

		if btn != keys.ButtonUnknown {
			b.handle(Event{Key: keys.Mouse(btn), Pressed: pressed})
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func (b *windowsBackend) IsPressed(k keys.Key) bool {
	var vk uint32
	var ok bool
	if k.IsMouse() {
		vk, ok = windowsButtonCodes[k.Mouse]
	} else {
		vk, ok = windowsKeyCodes[k.Keybd]
	}
	if !ok {
		return false
	}
	state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return state&0x8000 != 0
}

func (b *windowsBackend) sendMouse(dx, dy int32, flags uint32) error {
	in := mouseInputRecord{
		Type: inputMouse,
		Mi:   mouseInput{Dx: dx, Dy: dy, DwFlags: flags},
	}
	n, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if n != 1 {
		return fmt.Errorf("SendInput failed: %w", err)
	}
	return nil
}

func (b *windowsBackend) MoveMouse(dx, dy int) error {
	return b.sendMouse(int32(dx), int32(dy), mouseEventfMove)
}

func (b *windowsBackend) MouseButton(btn keys.MouseButton, pressed bool) error {
	var flags uint32
	switch btn {
	case keys.ButtonLeft:
		flags = mouseEventfLeftUp
		if pressed {
			flags = mouseEventfLeftDown
		}
	case keys.ButtonRight:
		flags = mouseEventfRightUp
		if pressed {
			flags = mouseEventfRightDown
		}
	case keys.ButtonMiddle:
		flags = mouseEventfMiddleUp
		if pressed {
			flags = mouseEventfMiddleDown
		}
	default:
		return fmt.Errorf("unknown mouse button %d", btn)
	}
	return b.sendMouse(0, 0, flags)
}

func (b *windowsBackend) Close() error {
	return nil
}
