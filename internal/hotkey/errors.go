package hotkey

import "errors"

var (
	// ErrInvalidBinding is returned when a modifier segment of a binding name
	// does not name a keyboard key, or the name has too many segments
	ErrInvalidBinding = errors.New("invalid key name")

	// ErrAlreadyActive is returned by Activate once the bindings are installed
	ErrAlreadyActive = errors.New("bindings already active")
)
