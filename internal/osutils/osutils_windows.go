//go:build windows

package osutils

import (
	"golang.org/x/sys/windows"
)

// IsAdmin reports whether the process token is elevated.
func IsAdmin() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

// CheckInputAccess reports conditions that limit the low-level hooks.
// Hooks of a non-elevated process do not see input aimed at elevated windows.
func CheckInputAccess(deviceGlob, uinputPath string) []AccessWarning {
	if IsAdmin() {
		return nil
	}
	return []AccessWarning{{Reason: "not elevated, keys pressed in elevated windows are not seen"}}
}
