//go:build linux

package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mousemacros/internal/keys"
)

func TestLinuxCodesCoverVocabulary(t *testing.T) {
	for _, name := range keys.Names() {
		k, _ := keys.Resolve(name)
		assert.NotEmpty(t, nativeCodes(k), "no native code for %s", name)
	}
}

func TestLinuxSideModifierActuatesGeneric(t *testing.T) {
	assert.ElementsMatch(t,
		[]keys.Key{keys.Keyboard(keys.KeyLShift), keys.Keyboard(keys.KeyShift)},
		linuxCodeKeys[42])
	assert.Equal(t, []keys.Key{keys.Keyboard(keys.KeyA)}, linuxCodeKeys[30])
	assert.Equal(t, []keys.Key{keys.Mouse(keys.ButtonLeft)}, linuxCodeKeys[btnLeft])
}

func TestLinuxGenericModifierReadsEitherSide(t *testing.T) {
	assert.ElementsMatch(t, []uint16{29, 97}, nativeCodes(keys.Keyboard(keys.KeyControl)))
	assert.Equal(t, []uint16{btnMiddle}, nativeCodes(keys.Mouse(keys.ButtonMiddle)))
}

func TestLinuxIsPressedTracksState(t *testing.T) {
	b := &linuxBackend{down: map[uint16]bool{97: true}}
	assert.True(t, b.IsPressed(keys.Keyboard(keys.KeyControl)))
	assert.True(t, b.IsPressed(keys.Keyboard(keys.KeyRControl)))
	assert.False(t, b.IsPressed(keys.Keyboard(keys.KeyLControl)))
	assert.False(t, b.IsPressed(keys.Mouse(keys.ButtonLeft)))
}
