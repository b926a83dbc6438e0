// Package transport serves the searchers over HTTP with a chi router.
package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/search"
)

// Routes of the search endpoints by mode.
var Routes = map[string]string{
	search.ModeDocument:        "/document",
	search.ModeFullText:        "/fulltext",
	search.ModeDocumentSimilar: "/document/similar",
	search.ModeFullTextSimilar: "/fulltext/similar",
	search.ModeExport:          "/export",
}

// Health reports whether the index can be read.
type Health interface {
	DocCount() (uint64, error)
}

// Metrics is the HTTP side of the telemetry package.
type Metrics interface {
	Middleware() func(next http.Handler) http.Handler
	Handler() http.Handler
}

type options struct {
	logger  *slog.Logger
	metrics Metrics
	health  Health
}

// Option configures the router.
type Option func(*options)

// WithLogger sets the logger for request and panic logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithHealth serves /healthz from h.
func WithHealth(h Health) Option {
	return func(o *options) { o.health = h }
}

// NewRouter returns the handler serving every searcher of set.
func NewRouter(set search.Set, opts ...Option) http.Handler {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()
	r.Use(recoverer(o.logger))
	r.Use(chimiddleware.RequestID)
	r.Use(requestLog(o.logger))
	if o.metrics != nil {
		r.Use(o.metrics.Middleware())
		r.Method(http.MethodGet, "/metrics", o.metrics.Handler())
	}

	for mode, path := range Routes {
		if s, ok := set[mode]; ok {
			r.Get(path, searchHandler(s))
		}
	}

	r.Get("/healthz", healthHandler(o.health))
	return r
}

func searchHandler(s search.Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := s.Search(r.Context(), r.URL.Query())
		w.Header().Set("Content-Type", resp.ContentType)
		w.WriteHeader(StatusFor(resp.Err))
		_, _ = w.Write(resp.Body)
	}
}

// StatusFor maps a searcher error to an HTTP status: request errors are
// 400, an unknown document is 404 and everything else is 500.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case cerrors.GetCode(err) == cerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case cerrors.IsUserError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func healthHandler(h Health) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if h == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
		n, err := h.DocCount()
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "documents": n})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", search.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// recoverer turns a panic into a JSON 500 instead of a dropped connection.
func recoverer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic_recovered",
						slog.Any("panic", rvr),
						slog.String("path", r.URL.Path))
					w.Header().Set("Content-Type", search.ContentTypeJSON)
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write(cerrors.Payload(cerrors.InternalError("internal error", nil)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestLog emits one log line per request.
func requestLog(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := chimiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http_request",
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("latency", time.Since(start)),
				slog.Int("response_bytes", ww.BytesWritten()))
		})
	}
}
