package core

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() {
		SetLogOutput(os.Stderr)
		_ = SetLogFormat("text")
		_ = SetLogLevel("info")
	})

	require.NoError(t, SetLogFormat("json"))
	require.NoError(t, SetLogLevel("warn"))

	LogInfo("dropped %d", 1)
	assert.Zero(t, buf.Len())

	LogWarn("pool chain grew to %d pools", 3)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pool chain grew to 3 pools", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
}

func TestLogging_RejectsUnknownSettings(t *testing.T) {
	assert.Error(t, SetLogFormat("xml"))
	assert.Error(t, SetLogLevel("loud"))
}
