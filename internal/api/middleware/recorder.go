package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// statusRecorder remembers what a handler wrote. It stays a Flusher so the
// delta stream can flush through the middleware chain.
type statusRecorder struct {
	http.ResponseWriter
	status   int
	bytes    int
	streamed bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Flush() {
	r.streamed = true
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// GetScopeID returns the scopeID route parameter once routing has resolved it.
func GetScopeID(ctx context.Context) string {
	return chi.URLParamFromCtx(ctx, "scopeID")
}

// routePattern returns the matched chi pattern, e.g. /scopes/{scopeID}/search,
// or "" before routing or when nothing matched.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
