package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cwp.log")

	log, closer, err := New("warn", path)
	require.NoError(t, err)

	log.Info().Msg("dropped")
	log.Warn().Str("list", "Science").Msg("kept")
	closer()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Science", entry["list"])
	assert.Contains(t, entry, "time")
}

func TestNew_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cwp.log")

	for _, msg := range []string{"first", "second"} {
		log, closer, err := New("info", path)
		require.NoError(t, err)
		log.Info().Msg(msg)
		closer()
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New("chatty", "")
	assert.Error(t, err)
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriter(&buf, zerolog.DebugLevel)

	logger := Component(base, "tracker")
	logger.Debug().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tracker", entry["cmp"])
	assert.Equal(t, "hello", entry["message"])
}
