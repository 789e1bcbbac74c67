//go:build linux

package osutils

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// IsAdmin reports whether the process runs as root
func IsAdmin() bool {
	return unix.Geteuid() == 0
}

// CheckInputAccess reports input devices the process cannot read and a
// uinput device it cannot write.
func CheckInputAccess(deviceGlob, uinputPath string) []AccessWarning {
	var warnings []AccessWarning

	paths, err := filepath.Glob(deviceGlob)
	if err != nil || len(paths) == 0 {
		warnings = append(warnings, AccessWarning{Path: deviceGlob, Reason: "no input devices match"})
	}
	readable := 0
	for _, p := range paths {
		if unix.Access(p, unix.R_OK) == nil {
			readable++
		}
	}
	if len(paths) > 0 && readable == 0 {
		warnings = append(warnings, AccessWarning{Path: deviceGlob, Reason: "no input device is readable, add the user to the input group"})
	}

	if err := unix.Access(uinputPath, unix.W_OK); err != nil {
		warnings = append(warnings, AccessWarning{Path: uinputPath, Reason: "not writable, mouse_move and mouse_click will fail: " + err.Error()})
	}
	return warnings
}
