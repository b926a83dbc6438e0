package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/search"
	"github.com/Aman-CERP/corpusexplorer/internal/store"
	"github.com/Aman-CERP/corpusexplorer/internal/telemetry"
)

func newServer(t *testing.T, opts ...Option) (http.Handler, *store.Reader) {
	t.Helper()
	w, err := store.NewMemWriter()
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	b := w.NewBatch()
	for i, text := range []string{
		"Die Zeitung berichtet vom Frieden in Europa",
		"Frieden und Handel in der Zeitung",
		"Der Markt in Basel",
	} {
		require.NoError(t, b.Add(&corpus.Record{
			ID:          int64(i + 1),
			Text:        text,
			Date:        "1871-05-10",
			TextLength:  corpus.TextLength(text),
			Publisher:   "Basler Nachrichten",
			Coordinates: corpus.Coordinates{Latitude: 47.56, Longitude: 7.59},
			Languages:   []string{"de"},
		}))
	}
	require.NoError(t, w.Flush(b))

	reader := w.Reader()
	cfg := search.Config{
		PageSize:           20,
		MaxDocuments:       100,
		MaxExportDocuments: 100,
		MaxEditDistance:    2,
		ExportDelimiter:    ',',
		Similarity:         search.DefaultSimilarityOptions(),
	}
	set, err := search.NewSet(reader, cfg, nil)
	require.NoError(t, err)

	return NewRouter(set, append([]Option{WithHealth(reader)}, opts...)...), reader
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rr
}

func TestRouter_SearchRoutes(t *testing.T) {
	h, _ := newServer(t)

	tests := []struct {
		name        string
		target      string
		status      int
		contentType string
	}{
		{"document", "/document?primary=Frieden", http.StatusOK, search.ContentTypeJSON},
		{"fulltext", "/fulltext?primary=Frieden&page=0", http.StatusOK, search.ContentTypeJSON},
		{"export", "/export?primary=Zeitung", http.StatusOK, search.ContentTypeCSV},
		{"bad page", "/fulltext?primary=Frieden&page=x", http.StatusBadRequest, search.ContentTypeJSON},
		{"missing id", "/document/similar", http.StatusBadRequest, search.ContentTypeJSON},
		{"unknown id", "/fulltext/similar?id=999", http.StatusNotFound, search.ContentTypeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(h, tt.target)

			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.contentType, rr.Header().Get("Content-Type"))
			assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_DocumentEnvelope(t *testing.T) {
	h, _ := newServer(t)

	rr := get(h, "/document?primary=Frieden")
	require.Equal(t, http.StatusOK, rr.Code)

	var env search.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Len(t, env.Documents, 2)
	assert.Equal(t, uint64(2), env.BasicInformation.TotalHits)
}

func TestRouter_ExportHeader(t *testing.T) {
	h, _ := newServer(t)

	rr := get(h, "/export?primary=Markt")
	require.Equal(t, http.StatusOK, rr.Code)

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "text,date,publisher,placeOfPublication,latitude,longitude,link,language,corpus,cluster", strings.TrimSpace(lines[0]))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	m := telemetry.New(prometheus.NewRegistry())
	h, _ := newServer(t, WithMetrics(m))

	rr := get(h, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(3), health["documents"])

	_ = get(h, "/document?primary=Frieden")
	rr = get(h, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `corpusexplorer_http_requests_total{method="GET",path="/document",status="200"} 1`)
}

type brokenIndex struct{}

func (brokenIndex) DocCount() (uint64, error) {
	return 0, cerrors.IndexAccess("failed to open index", errors.New("no such directory"))
}

func TestRouter_HealthUnavailable(t *testing.T) {
	h := NewRouter(search.Set{}, WithHealth(brokenIndex{}))

	rr := get(h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

type panicking struct{}

func (panicking) Search(_ context.Context, _ url.Values) search.Response {
	panic("boom")
}

func TestRouter_RecoversPanics(t *testing.T) {
	h := NewRouter(search.Set{search.ModeDocument: panicking{}})

	rr := get(h, "/document?primary=x")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "exception")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"parse", cerrors.ParseError("page", "x", nil), http.StatusBadRequest},
		{"missing", cerrors.MissingParameter("id"), http.StatusBadRequest},
		{"not found", cerrors.NotFound("No document with id 9"), http.StatusNotFound},
		{"index", cerrors.IndexAccess("search failed", nil), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
