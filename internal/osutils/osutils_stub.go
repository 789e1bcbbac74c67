//go:build !linux && !windows

package osutils

// IsAdmin is a stub for unsupported platforms
func IsAdmin() bool {
	return false
}

// CheckInputAccess reports that no input backend exists here.
func CheckInputAccess(deviceGlob, uinputPath string) []AccessWarning {
	return []AccessWarning{{Reason: "global input hooks are not supported on this platform"}}
}
