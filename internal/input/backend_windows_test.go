//go:build windows

package input

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowsRunRejectsSecondHook(t *testing.T) {
	running := &windowsBackend{}
	require.True(t, hookInstance.CompareAndSwap(nil, running))
	defer hookInstance.Store(nil)

	b, err := NewBackend(Options{}, zerolog.Nop())
	require.NoError(t, err)

	err = b.Run(context.Background(), func(Event) {})
	assert.ErrorContains(t, err, "already running")
	assert.Same(t, running, hookInstance.Load())
}
