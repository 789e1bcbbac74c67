// Package autostart registers the service to start on login.
package autostart

import (
	"errors"
	"fmt"
	"os"
)

// ErrUnsupported is returned on platforms without an autostart mechanism.
var ErrUnsupported = errors.New("autostart not supported on this platform")

// AppName identifies the autostart entry.
const AppName = "mousemacros"

// Enable enables auto-start on login, running the current executable with args.
func Enable(args ...string) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	return enable(execPath, args)
}

// Disable disables auto-start on login
func Disable() error {
	return disable()
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	return isEnabled()
}
