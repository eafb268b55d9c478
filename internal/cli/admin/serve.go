package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/cloo-solutions/docpilot/internal/config"
	"github.com/cloo-solutions/docpilot/internal/database"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/jobs"
	"github.com/cloo-solutions/docpilot/internal/memstore"
	"github.com/cloo-solutions/docpilot/internal/openai"
	"github.com/cloo-solutions/docpilot/internal/repository"
	"github.com/cloo-solutions/docpilot/internal/server"
	"github.com/cloo-solutions/docpilot/internal/service"
	"github.com/cloo-solutions/docpilot/internal/storage"
	"github.com/cloo-solutions/docpilot/internal/telemetry"
	"github.com/cloo-solutions/docpilot/internal/tokenizer"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the docpilot API server.

Without DOCPILOT_DATABASE_URL all data is kept in memory and lost on exit.
DOCPILOT_OPENAI_API_KEY is required.`,
		RunE: runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().String("migrations-dir", defaultMigrationsDir, "Directory holding the migration files")

	return cmd
}

// stores is the persistence a server runs on, either PostgreSQL or memory.
type stores struct {
	sources   service.SourceRepository
	vectors   service.VectorStore
	documents service.DocumentRepository
	jobs      interface {
		service.IngestionJobRepository
		jobs.IngestionJobRepository
	}
	tx    service.TxRunner
	close func()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: telemetry.DefaultSampleRate(cfg.Environment),
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("DOCPILOT_OPENAI_API_KEY is required: %w", domain.ErrProviderDisabled)
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	st, err := openStores(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	var blobs *storage.S3Client
	if cfg.HasS3() {
		blobs, err = storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:          cfg.S3Endpoint,
			Region:            cfg.S3Region,
			AccessKeyID:       cfg.S3AccessKey,
			SecretAccessKey:   cfg.S3SecretKey,
			Bucket:            cfg.S3Bucket,
			UsePathStyle:      cfg.S3UsePathStyle,
			DownloadURLExpiry: cfg.S3DownloadURLTTL,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := blobs.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
	}

	splitter, err := newSplitter(cfg)
	if err != nil {
		return err
	}

	aiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		ChatModel:           cfg.ChatModel,
	})
	embedder := service.NewEmbedder(aiClient, cfg.EmbeddingDimensions, cfg.EmbeddingBatchSize)

	ingestionSvc := service.NewIngestionService(st.sources, st.vectors, splitter, embedder)
	retriever := service.NewRetriever(embedder, st.vectors, service.RetrievalConfig{
		K:             cfg.RetrievalK,
		MinSimilarity: cfg.MinSimilarity,
	})
	gate := service.NewWorkflowGate(st.sources)
	driver := service.NewSynthesisDriver(retriever, st.sources, aiClient.Completions(), st.documents)

	sourceOpts := []service.SourceServiceOption{
		service.WithMaxUploadBytes(cfg.MaxUploadBytes),
		service.WithAsyncIngestion(st.jobs, st.tx),
	}
	var urls handlers.DownloadURLGenerator
	if blobs != nil {
		sourceOpts = append(sourceOpts, service.WithBlobStorage(blobs))
		urls = blobs
	}
	ingestionWorker := jobs.NewWorker(jobs.NewIngestionWorker(st.jobs, ingestionSvc), cfg.IngestPollInterval)
	sourceOpts = append(sourceOpts, service.WithJobNotifier(ingestionWorker))
	sourceSvc := service.NewSourceService(st.sources, ingestionSvc, sourceOpts...)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go ingestionWorker.Start(workerCtx)

	router := server.NewRouter(server.RouterConfig{
		APIToken:         cfg.APIToken,
		MaxBodyBytes:     cfg.MaxUploadBytes + 1<<20,
		SourceHandler:    handlers.NewSourceHandler(sourceSvc, urls),
		IngestHandler:    handlers.NewIngestHandler(ingestionSvc),
		SearchHandler:    handlers.NewSearchHandler(retriever),
		WorkflowHandler:  handlers.NewWorkflowHandler(gate),
		SynthesisHandler: handlers.NewSynthesisHandler(gate, driver),
		DocumentHandler:  handlers.NewDocumentHandler(st.documents),
	})
	if cfg.APIToken == "" {
		log.Println("DOCPILOT_API_TOKEN not set: API is unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	ingestionWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func openStores(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*stores, error) {
	if !cfg.HasDatabase() {
		log.Println("DOCPILOT_DATABASE_URL not set: using in-memory stores")
		b := memstore.New(cfg.EmbeddingDimensions)
		return &stores{
			sources:   b.Sources,
			vectors:   b.Vectors,
			documents: b.Documents,
			jobs:      b.Jobs,
			tx:        b,
			close:     func() {},
		}, nil
	}

	if cfg.EmbeddingDimensions != domain.DefaultEmbeddingDimensions {
		return nil, fmt.Errorf("DOCPILOT_EMBEDDING_DIMENSIONS must be %d with PostgreSQL, got %d",
			domain.DefaultEmbeddingDimensions, cfg.EmbeddingDimensions)
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		ConnectAttempts: 5,
	})
	if err != nil {
		return nil, err
	}
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		dir, _ := cmd.Flags().GetString("migrations-dir")
		if err := database.Migrate(cfg.DatabaseURL, dir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &stores{
		sources:   repository.NewSourceRepository(pool),
		vectors:   repository.NewEmbeddingRepository(pool, cfg.EmbeddingDimensions),
		documents: repository.NewDocumentRepository(pool),
		jobs:      repository.NewIngestionJobRepository(pool),
		tx:        repository.NewTxRunner(pool),
		close:     pool.Close,
	}, nil
}

func newSplitter(cfg *config.Config) (*service.Splitter, error) {
	chunkCfg := service.DefaultChunkConfig()
	chunkCfg.ChunkSize = cfg.ChunkSize
	chunkCfg.Overlap = cfg.ChunkOverlap

	if cfg.ChunkLengthUnit == config.LengthUnitTokens {
		counter, err := tokenizer.NewCounter(tokenizer.DefaultEncoding)
		if err != nil {
			return nil, err
		}
		chunkCfg.Length = counter.Count
	}

	return service.NewSplitter(chunkCfg), nil
}
