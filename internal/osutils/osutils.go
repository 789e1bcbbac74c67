// Package osutils holds platform checks run before the input hook starts.
package osutils

// AccessWarning describes something that will stop the input hook or the
// injector from working as expected.
type AccessWarning struct {
	Path   string
	Reason string
}

func (w AccessWarning) String() string {
	if w.Path == "" {
		return w.Reason
	}
	return w.Path + ": " + w.Reason
}
