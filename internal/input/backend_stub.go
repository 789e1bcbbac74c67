//go:build !linux && !windows

package input

import (
	"context"

	"github.com/rs/zerolog"

	"mousemacros/internal/keys"
)

// Stub implementation for platforms without a backend

type stubBackend struct{}

// NewBackend returns a backend whose operations all fail with ErrUnsupportedPlatform.
func NewBackend(opts Options, log zerolog.Logger) (Backend, error) {
	log.Warn().Str("subsystem", "input").Msg("global input hooks not supported on this platform")
	return stubBackend{}, nil
}

func (stubBackend) Run(ctx context.Context, handle func(Event)) error {
	return ErrUnsupportedPlatform
}

func (stubBackend) IsPressed(k keys.Key) bool { return false }

func (stubBackend) MoveMouse(dx, dy int) error { return ErrUnsupportedPlatform }

func (stubBackend) MouseButton(b keys.MouseButton, pressed bool) error {
	return ErrUnsupportedPlatform
}

func (stubBackend) Close() error { return nil }
