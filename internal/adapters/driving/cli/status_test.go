package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

func TestStatusCmd_OK(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.health.report = driving.HealthReport{
		Status: driving.StatusOK, DB: driving.StatusOK, RAG: driving.StatusOK,
		Embedding: driving.StatusOK, LLM: driving.StatusOK, Chunks: 120,
	}

	out, err := execute(t, "", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Status:    ok")
	assert.Contains(t, out, "Corpus:    ok (120 chunks)")
}

func TestStatusCmd_Degraded(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.health.report = driving.HealthReport{
		Status: driving.StatusDegraded, DB: driving.StatusOK, RAG: driving.StatusEmpty,
		Embedding: driving.StatusOK, LLM: driving.StatusDown,
		Errors: map[string]string{"llm": "connection refused"},
	}

	out, err := execute(t, "", "status")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status degraded")
	assert.Contains(t, out, "llm error: connection refused")
}

func TestStatusCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.health.report = driving.HealthReport{Status: driving.StatusOK, Chunks: 3}

	out, err := execute(t, "", "status", "--json")

	require.NoError(t, err)
	var decoded statusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "ok", decoded.Status)
	assert.Equal(t, 3, decoded.Chunks)
}
