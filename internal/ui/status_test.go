package ui

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRenderer_Healthy(t *testing.T) {
	var buf bytes.Buffer
	r := NewStatusRenderer(&buf, true)

	err := r.Render(HealthInfo{
		Endpoint: "http://127.0.0.1:8080",
		OK:       true,
		Index:    "ok",
		Upstream: "ok",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "searchd: http://127.0.0.1:8080")
	assert.Contains(t, out, "healthy")
	assert.Contains(t, out, "Index:    ok")
}

func TestStatusRenderer_Degraded(t *testing.T) {
	var buf bytes.Buffer
	r := NewStatusRenderer(&buf, true)

	err := r.Render(HealthInfo{
		Endpoint: "http://127.0.0.1:8080",
		OK:       false,
		Index:    "ok",
		Upstream: "failure",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "Upstream: failure")
}

func TestStatusRenderer_Unreachable(t *testing.T) {
	var buf bytes.Buffer
	r := NewStatusRenderer(&buf, true)

	err := r.Render(HealthInfo{
		Endpoint: "http://127.0.0.1:8080",
		Error:    "connection refused",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "connection refused")
}

func TestStatusRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewStatusRenderer(&buf, true)

	require.NoError(t, r.RenderJSON(HealthInfo{OK: true, Index: "ok", Upstream: "ok"}))

	var decoded HealthInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.True(t, decoded.OK)
	assert.Equal(t, "ok", decoded.Index)
}
