package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestSubsystemTagsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Subsystem(New(&buf, "debug"), "hotkey")
	log.Info().Str("key", "A").Msg("bound")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hotkey", line["subsystem"])
	assert.Equal(t, "A", line["key"])
	assert.Equal(t, "bound", line["message"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")
	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
}
