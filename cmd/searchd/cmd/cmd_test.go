package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hideoutdb/searchd/internal/ui"
	"github.com/hideoutdb/searchd/pkg/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SEARCHD_JWT_SECRET", "test-secret")
	t.Setenv("SEARCHD_UPSTREAM_ORIGIN", "http://catalog.invalid")
	t.Setenv("SEARCHD_UPSTREAM_TOKEN", "upstream-token")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := NewRootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "version")
}

func TestVersionCmd_Short(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Short(), strings.TrimSpace(out))
}

func TestVersionCmd_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
}

func TestStatusCmd_RendersHealth(t *testing.T) {
	setRequiredEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		require.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": false, "service": {"index": 0, "upstream": 2}}`))
	}))
	defer srv.Close()

	out, err := execute(t, "status", "--addr", srv.URL, "--json")
	require.NoError(t, err)

	var info ui.HealthInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.False(t, info.OK)
	assert.Equal(t, "ok", info.Index)
	assert.Equal(t, "failure", info.Upstream)
}

func TestStatusCmd_UnreachableServer(t *testing.T) {
	setRequiredEnv(t)

	out, err := execute(t, "status", "--addr", "http://127.0.0.1:1", "--json")
	require.NoError(t, err)

	var info ui.HealthInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info.Error)
}

func TestStatusCmd_RequiresConfig(t *testing.T) {
	// Without the required secrets config loading must fail.
	t.Setenv("SEARCHD_JWT_SECRET", "")
	t.Setenv("SEARCHD_UPSTREAM_ORIGIN", "")
	t.Setenv("SEARCHD_UPSTREAM_TOKEN", "")

	_, err := execute(t, "status", "--addr", "http://127.0.0.1:1")
	assert.Error(t, err)
}
