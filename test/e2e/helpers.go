//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/jobs"
	"github.com/cloo-solutions/docpilot/internal/repository"
	"github.com/cloo-solutions/docpilot/internal/server"
	"github.com/cloo-solutions/docpilot/internal/service"
	"github.com/cloo-solutions/docpilot/internal/storage"
	"github.com/cloo-solutions/docpilot/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	apiToken = "e2e-token-0123456789"
	bucket   = "docpilot-e2e"
)

// Env is a docpilotd stack backed by real Postgres and RustFS containers.
// The ingestion worker is not started; tests drive it with Worker.ProcessJobs.
type Env struct {
	T          *testing.T
	Ctx        context.Context
	Pool       *pgxpool.Pool
	S3Client   *storage.S3Client
	Worker     *jobs.IngestionWorker
	ServerURL  string
	BinaryDir  string
	HTTPClient *http.Client

	closers []func()
}

// SetupE2EEnv starts the containers and an in-process API server.
func SetupE2EEnv(t *testing.T) *Env {
	ctx := context.Background()
	env := &Env{T: t, Ctx: ctx, HTTPClient: &http.Client{Timeout: 30 * time.Second}}

	pg := testutil.NewPostgresContainer(ctx, t)
	env.onCleanup(func() { pg.Terminate(ctx) })
	s3c := testutil.NewRustFSContainer(ctx, t)
	env.onCleanup(func() { s3c.Terminate(ctx) })

	env.Pool = testutil.NewTestPool(ctx, t, pg, "../../migrations")
	env.onCleanup(env.Pool.Close)

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3c.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSSecretKey,
		Bucket:          bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		env.Cleanup()
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		env.Cleanup()
		t.Fatalf("failed to create bucket: %v", err)
	}
	env.S3Client = s3Client

	srv := httptest.NewServer(env.router())
	env.onCleanup(srv.Close)
	env.ServerURL = srv.URL

	return env
}

func (e *Env) onCleanup(fn func()) {
	e.closers = append(e.closers, fn)
}

// Cleanup releases everything SetupE2EEnv and BuildBinaries acquired, newest first.
func (e *Env) Cleanup() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// BuildBinaries compiles cmd/docpilot into a temp dir.
func (e *Env) BuildBinaries() {
	dir := e.T.TempDir()
	cmd := exec.Command("go", "build", "-o", filepath.Join(dir, "docpilot"), "./cmd/docpilot")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build docpilot: %v\n%s", err, out)
	}
	e.BinaryDir = dir
}

// RunDocpilot runs the CLI in workDir against the test server.
func (e *Env) RunDocpilot(workDir string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "docpilot"), args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"DOCPILOT_API_TOKEN="+apiToken,
		"DOCPILOT_API_URL="+e.ServerURL,
		// keep stored credentials of the machine out of the run
		"XDG_CONFIG_HOME="+e.T.TempDir(),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Download fetches a presigned URL.
func (e *Env) Download(url string) ([]byte, error) {
	resp, err := e.HTTPClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (e *Env) router() http.Handler {
	sources := repository.NewSourceRepository(e.Pool)
	vectors := repository.NewEmbeddingRepository(e.Pool, domain.DefaultEmbeddingDimensions)
	documents := repository.NewDocumentRepository(e.Pool)
	jobRepo := repository.NewIngestionJobRepository(e.Pool)

	embedder := service.NewEmbedder(keywordEmbedder{}, domain.DefaultEmbeddingDimensions, 0)
	ingestion := service.NewIngestionService(sources, vectors, nil, embedder)
	retriever := service.NewRetriever(embedder, vectors, service.DefaultRetrievalConfig())
	gate := service.NewWorkflowGate(sources)
	driver := service.NewSynthesisDriver(retriever, sources, echoProvider{}, documents)
	sourceSvc := service.NewSourceService(sources, ingestion,
		service.WithBlobStorage(e.S3Client),
		service.WithAsyncIngestion(jobRepo, repository.NewTxRunner(e.Pool)))

	e.Worker = jobs.NewIngestionWorker(jobRepo, ingestion)

	return server.NewRouter(server.RouterConfig{
		APIToken:         apiToken,
		SourceHandler:    handlers.NewSourceHandler(sourceSvc, e.S3Client),
		IngestHandler:    handlers.NewIngestHandler(ingestion),
		SearchHandler:    handlers.NewSearchHandler(retriever),
		WorkflowHandler:  handlers.NewWorkflowHandler(gate),
		SynthesisHandler: handlers.NewSynthesisHandler(gate, driver),
		DocumentHandler:  handlers.NewDocumentHandler(documents),
	})
}

var vocabulary = []string{"revenue", "staff", "weather"}

// keywordEmbedder puts one axis per vocabulary word; text without any lands on a spare axis.
type keywordEmbedder struct{}

func (keywordEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, domain.DefaultEmbeddingDimensions)
		hit := false
		for _, word := range strings.Fields(strings.ToLower(text)) {
			for axis, kw := range vocabulary {
				if strings.HasPrefix(word, kw) {
					v[axis]++
					hit = true
				}
			}
		}
		if !hit {
			v[len(vocabulary)] = 1
		}
		out[i] = v
	}
	return out, nil
}

// echoProvider streams the prompt's source excerpts back, a line at a time.
type echoProvider struct{}

func (echoProvider) StreamCompletion(ctx context.Context, system, prompt string) (service.CompletionStream, error) {
	_, excerpts, _ := strings.Cut(prompt, "Source excerpts:\n")
	return &lineStream{lines: strings.SplitAfter(excerpts, "\n")}, nil
}

type lineStream struct {
	lines []string
}

func (s *lineStream) Recv() (string, error) {
	for len(s.lines) > 0 {
		line := s.lines[0]
		s.lines = s.lines[1:]
		if line != "" {
			return line, nil
		}
	}
	return "", io.EOF
}

func (s *lineStream) Close() error { return nil }
