package server

import (
	"net/http"

	"github.com/cloo-solutions/docpilot/internal/api"
	"github.com/cloo-solutions/docpilot/internal/api/handlers"
	"github.com/cloo-solutions/docpilot/internal/api/middleware"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/go-chi/chi/v5"
)

// DefaultMaxBodyBytes leaves room for multipart framing around a maximum size upload.
const DefaultMaxBodyBytes = domain.MaxUploadBytes + 1<<20

type RouterConfig struct {
	// APIToken enables bearer authentication when non-empty.
	APIToken     string
	MaxBodyBytes int64

	SourceHandler    *handlers.SourceHandler
	IngestHandler    *handlers.IngestHandler
	SearchHandler    *handlers.SearchHandler
	WorkflowHandler  *handlers.WorkflowHandler
	SynthesisHandler *handlers.SynthesisHandler
	DocumentHandler  *handlers.DocumentHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if cfg.APIToken != "" {
			r.Use(middleware.BearerToken(cfg.APIToken))
		}

		r.Route("/scopes/{scopeID}", func(r chi.Router) {
			r.Delete("/", cfg.SourceHandler.DeleteScope)

			r.Route("/sources", func(r chi.Router) {
				r.Post("/", cfg.SourceHandler.Upload)
				r.Get("/", cfg.SourceHandler.List)
				r.Get("/{sourceID}", cfg.SourceHandler.Get)
				r.Delete("/{sourceID}", cfg.SourceHandler.Delete)
			})

			r.Post("/ingest", cfg.IngestHandler.Ingest)
			r.Post("/search", cfg.SearchHandler.Search)
			r.Post("/workflow", cfg.WorkflowHandler.Evaluate)
			r.Post("/synthesis", cfg.SynthesisHandler.Synthesize)
		})

		r.Get("/documents/{id}", cfg.DocumentHandler.Get)
	})

	return r
}
