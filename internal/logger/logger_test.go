package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	SetVerbose(false)
	_ = SetLevel("warn")
	SetFormat(FormatText)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, `msg="test message arg"`)
	assert.NotContains(t, out, "time=")
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden too")

	assert.Empty(t, buf.String())
}

func TestWarn_AlwaysAtDefaultLevel(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Warn("rerank failed: %v", "boom")

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "rerank failed: boom")
}

func TestSection(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Section("Retrieval")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Section("Retrieval")
	assert.Equal(t, "\n=== Retrieval ===\n", buf.String())
}

func TestSetLevel(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	require.NoError(t, SetLevel("info"))
	Info("ingested %d chunks", 3)
	assert.Contains(t, buf.String(), "ingested 3 chunks")

	assert.Error(t, SetLevel("loud"))
}

func TestSetVerbose_RestoresBaseLevel(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	require.NoError(t, SetLevel("info"))

	SetVerbose(true)
	SetVerbose(false)
	Debug("hidden")
	Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestJSONFormat(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat(FormatJSON)
	require.NoError(t, SetLevel("info"))

	Info("server listening on %s", ":7700")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "server listening on :7700", rec["msg"])
	assert.Contains(t, rec, "time")
}

func TestSlog(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Slog().Warn("request", "status", 500)
	assert.Contains(t, buf.String(), "status=500")
}
