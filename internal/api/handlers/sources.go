package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloo-solutions/docpilot/internal/api"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/pagination"
	"github.com/cloo-solutions/docpilot/internal/service"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is the slack allowed above the file cap for form framing.
const multipartOverhead = 1 << 20

type SourceService interface {
	Upload(ctx context.Context, input service.UploadInput) (*service.UploadResult, error)
	Get(ctx context.Context, scopeID, sourceID string) (*domain.SourceFile, error)
	List(ctx context.Context, scopeID, cursor string, limit int) (*service.SourcePageResult, error)
	Delete(ctx context.Context, scopeID, sourceID string) error
	DeleteScope(ctx context.Context, scopeID string) error
	MaxUploadBytes() int64
}

// DownloadURLGenerator presigns downloads of stored raw uploads.
type DownloadURLGenerator interface {
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

type SourceHandler struct {
	svc  SourceService
	urls DownloadURLGenerator
}

// NewSourceHandler creates a SourceHandler. urls may be nil when raw uploads
// are not kept.
func NewSourceHandler(svc SourceService, urls DownloadURLGenerator) *SourceHandler {
	return &SourceHandler{svc: svc, urls: urls}
}

type SourceResponse struct {
	ID          string `json:"id"`
	ScopeID     string `json:"scope_id"`
	Kind        string `json:"kind"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ChunkCount  int    `json:"chunk_count"`
	CreatedAt   string `json:"created_at"`
	DownloadURL string `json:"download_url,omitempty"`
}

type UploadResponse struct {
	Source     *SourceResponse `json:"source"`
	Status     string          `json:"status"`
	ChunkCount int             `json:"chunk_count"`
	JobID      string          `json:"job_id,omitempty"`
}

// Upload statuses.
const (
	UploadStatusIndexed = "indexed"
	UploadStatusQueued  = "queued"
	UploadStatusStored  = "stored"
)

func sourceToResponse(s *domain.SourceFile) *SourceResponse {
	return &SourceResponse{
		ID:          s.ID,
		ScopeID:     s.ScopeID,
		Kind:        string(s.Kind),
		FileName:    s.FileName,
		ContentType: s.ContentType,
		Size:        s.Size,
		ChunkCount:  s.ChunkCount,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Upload accepts a multipart form with a "file" part and an optional "kind"
// field (template or source, default source). ?async=true defers indexing.
func (h *SourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")
	if scopeID == "" {
		api.Error(w, http.StatusBadRequest, "scopeID is required")
		return
	}

	maxBytes := h.svc.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.HandleError(w, domain.ErrFileTooLarge)
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	kindValue := r.FormValue("kind")
	if kindValue == "" {
		kindValue = string(domain.SourceKindSource)
	}
	kind, err := domain.ParseSourceKind(kindValue)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	async := false
	if v := r.URL.Query().Get("async"); v != "" {
		async, err = strconv.ParseBool(v)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "async must be a boolean")
			return
		}
	}

	content, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	result, err := h.svc.Upload(r.Context(), service.UploadInput{
		ScopeID:     scopeID,
		Kind:        kind,
		FileName:    header.Filename,
		ContentType: DetectContentType(header.Header.Get("Content-Type"), header.Filename),
		Content:     content,
		Async:       async,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := UploadResponse{
		Source:     sourceToResponse(result.Source),
		ChunkCount: result.ChunkCount,
	}
	status := http.StatusCreated
	switch {
	case result.Job != nil:
		resp.Status = UploadStatusQueued
		resp.JobID = result.Job.ID
		status = http.StatusAccepted
	case result.Source.Kind == domain.SourceKindTemplate:
		resp.Status = UploadStatusStored
	default:
		resp.Status = UploadStatusIndexed
	}

	api.Success(w, status, resp)
}

func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")
	if scopeID == "" {
		api.Error(w, http.StatusBadRequest, "scopeID is required")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = min(parsed, 100)
		}
	}

	page, err := h.svc.List(r.Context(), scopeID, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*SourceResponse, len(page.Items))
	for i, s := range page.Items {
		items[i] = sourceToResponse(s)
	}

	api.Success(w, http.StatusOK, pagination.PageResult[*SourceResponse]{
		Items:   items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	})
}

func (h *SourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")
	sourceID := chi.URLParam(r, "sourceID")
	if scopeID == "" || sourceID == "" {
		api.Error(w, http.StatusBadRequest, "scopeID and sourceID are required")
		return
	}

	source, err := h.svc.Get(r.Context(), scopeID, sourceID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := sourceToResponse(source)
	if h.urls != nil && source.StorageKey != "" {
		url, err := h.urls.GenerateDownloadURL(r.Context(), source.StorageKey)
		if err != nil {
			log.Printf("failed to presign download for source %s: %v", source.ID, err)
		} else {
			resp.DownloadURL = url
		}
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")
	sourceID := chi.URLParam(r, "sourceID")
	if scopeID == "" || sourceID == "" {
		api.Error(w, http.StatusBadRequest, "scopeID and sourceID are required")
		return
	}

	if err := h.svc.Delete(r.Context(), scopeID, sourceID); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SourceHandler) DeleteScope(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")
	if scopeID == "" {
		api.Error(w, http.StatusBadRequest, "scopeID is required")
		return
	}

	if err := h.svc.DeleteScope(r.Context(), scopeID); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

var extensionContentTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".json":     "application/json",
}

// DetectContentType returns declared unless it is empty or generic, in which
// case the file extension decides.
func DetectContentType(declared, fileName string) string {
	mediaType, _, _ := strings.Cut(declared, ";")
	mediaType = strings.TrimSpace(mediaType)
	if mediaType != "" && mediaType != "application/octet-stream" {
		return declared
	}
	if ct, ok := extensionContentTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return ct
	}
	return "application/octet-stream"
}
