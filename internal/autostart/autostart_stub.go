//go:build !linux && !windows

package autostart

func enable(execPath string, args []string) error { return ErrUnsupported }

func disable() error { return ErrUnsupported }

func isEnabled() bool { return false }
