//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestE2E_CLIWorkflow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.BuildBinaries()

	workDir := t.TempDir()

	out, err := env.RunDocpilot(workDir, "init", "--scope", "team-a")
	require.NoError(t, err, out)
	assert.Contains(t, out, "team-a")

	out, err = env.RunDocpilot(workDir, "gate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "missing: template")

	writeFile(t, workDir, "template.md", "# Quarterly report\n## Revenue\n## Staff")
	writeFile(t, workDir, "q1.txt", "Revenue grew 12% in Q1.\n\nStaff count is 40.")

	out, err = env.RunDocpilot(workDir, "upload", "--kind", "template", "template.md")
	require.NoError(t, err, out)
	out, err = env.RunDocpilot(workDir, "upload", "q1.txt")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Indexed q1.txt")

	out, err = env.RunDocpilot(workDir, "search", "revenue", "--output")
	require.NoError(t, err, out)
	var results handlers.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results.Results)
	assert.Contains(t, results.Results[0].Content, "Revenue grew 12%")

	out, err = env.RunDocpilot(workDir, "generate", "Q1 revenue", "--save", "report.md", "--output")
	require.NoError(t, err, out)
	var artifact domain.Artifact
	require.NoError(t, json.Unmarshal([]byte(out), &artifact))
	assert.Contains(t, artifact.Content, "Revenue grew 12% in Q1.")
	assert.Equal(t, domain.ArtifactStatusIdle, artifact.Status)

	saved, err := os.ReadFile(filepath.Join(workDir, "report.md"))
	require.NoError(t, err)
	assert.Equal(t, artifact.Content, string(saved))

	out, err = env.RunDocpilot(workDir, "document", artifact.DocumentID)
	require.NoError(t, err, out)
	assert.Contains(t, out, "# Q1 revenue")

	out, err = env.RunDocpilot(workDir, "delete", "--all", "--force")
	require.NoError(t, err, out)

	out, err = env.RunDocpilot(workDir, "search", "revenue")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No results found.")
}

func TestE2E_AsyncUploadAndDownload(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	content := "Weather was sunny all week."
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "weather.md")
	require.NoError(t, err)
	part.Write([]byte(content))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.ServerURL+"/scopes/team-b/sources?async=true", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+apiToken)

	resp, err := env.HTTPClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var envelope struct {
		Data handlers.UploadResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	uploaded := envelope.Data
	require.NotEmpty(t, uploaded.JobID)

	require.NoError(t, env.Worker.ProcessJobs(env.Ctx))

	var status string
	err = env.Pool.QueryRow(env.Ctx, `SELECT status FROM ingestion_jobs WHERE id = $1`, uploaded.JobID).Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, string(domain.IngestionJobStatusCompleted), status)

	req, _ = http.NewRequest(http.MethodGet, env.ServerURL+"/scopes/team-b/sources/"+uploaded.Source.ID, nil)
	req.Header.Set("Authorization", "Bearer "+apiToken)
	resp, err = env.HTTPClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var got struct {
		Data handlers.SourceResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Data.ChunkCount)
	require.NotEmpty(t, got.Data.DownloadURL)

	downloaded, err := env.Download(got.Data.DownloadURL)
	require.NoError(t, err)
	assert.Equal(t, content, string(downloaded))
	assert.True(t, strings.HasSuffix(got.Data.FileName, ".md"))
}
