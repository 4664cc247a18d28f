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
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestFor_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "debug", false)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger := For("webhook")
	logger.Info().Str("shape", "event_list").Msg("formatted calendar reply")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "webhook", entry["component"])
	assert.Equal(t, "event_list", entry["shape"])
	assert.Equal(t, "formatted calendar reply", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestSetupWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "error", false)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger := For("chat")
	logger.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	logger.Error().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}
