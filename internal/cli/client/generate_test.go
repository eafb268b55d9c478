package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventServer(t *testing.T, events ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scopes/team-a/synthesis", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, e := range events {
			w.Write([]byte("data: " + e + "\n\n"))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunGenerate_SavesContent(t *testing.T) {
	srv := eventServer(t,
		`{"type":"id","content":"doc-1"}`,
		`{"type":"kind","content":"text","documentId":"doc-1"}`,
		`{"type":"title","content":"Report","documentId":"doc-1"}`,
		`{"type":"clear","content":"","documentId":"doc-1"}`,
		`{"type":"text-delta","content":"Hello ","documentId":"doc-1"}`,
		`{"type":"text-delta","content":"world","documentId":"doc-1"}`,
		`{"type":"finish","content":"","documentId":"doc-1"}`,
	)
	out := filepath.Join(t.TempDir(), "report.md")

	err := runGenerate(context.Background(), NewAPIClientWithConfig("", srv.URL), "team-a",
		handlers.SynthesisRequest{Title: "Report"}, out, false)

	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", string(data))
}

func TestRunGenerate_ErrorDelta(t *testing.T) {
	srv := eventServer(t,
		`{"type":"id","content":"doc-1"}`,
		`{"type":"clear","content":"","documentId":"doc-1"}`,
		`{"type":"error","content":"completion provider failed","documentId":"doc-1"}`,
	)

	err := runGenerate(context.Background(), NewAPIClientWithConfig("", srv.URL), "team-a",
		handlers.SynthesisRequest{Title: "Report"}, "", false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion provider failed")
}

func TestRunGenerate_Blocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"workflow preconditions not met","decision":{"ready":false,"missing":["template","sourceFiles"]}}`))
	}))
	defer srv.Close()

	err := runGenerate(context.Background(), NewAPIClientWithConfig("", srv.URL), "team-a",
		handlers.SynthesisRequest{Title: "Report"}, "", false)

	var blocked *BlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Len(t, blocked.Decision.Missing, 2)
}

func TestRequirements(t *testing.T) {
	req := requirements(true, false)

	require.NotNil(t, req.RequireTemplate)
	require.NotNil(t, req.RequireSources)
	assert.False(t, *req.RequireTemplate)
	assert.True(t, *req.RequireSources)
}
