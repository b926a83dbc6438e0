// Package search implements the request-serving searchers: document
// lookup, paginated full text, more-like-this and CSV export. Every
// searcher turns request parameters into a complete response body and
// never returns an error past its boundary; failures are rendered as
// structured error payloads.
package search

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/query"
	"github.com/Aman-CERP/corpusexplorer/internal/store"
)

// Content types of response bodies.
const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// Search modes, used for routing and metrics labels.
const (
	ModeDocument        = "document"
	ModeFullText        = "fulltext"
	ModeDocumentSimilar = "document_similar"
	ModeFullTextSimilar = "fulltext_similar"
	ModeExport          = "export"
)

// Modes lists every search mode.
var Modes = []string{ModeDocument, ModeFullText, ModeDocumentSimilar, ModeFullTextSimilar, ModeExport}

// Response is a rendered search result. Err carries the typed failure, if
// any, for logging and status mapping; Body already contains its payload.
type Response struct {
	ContentType string
	Body        []byte
	Err         error
}

// Searcher serves one search mode.
type Searcher interface {
	Search(ctx context.Context, params url.Values) Response
}

// QuerySearcher can serve an already built query. The more-like-this
// searchers delegate to one.
type QuerySearcher interface {
	SearchQuery(ctx context.Context, q query.Query, params url.Values) Response
}

// Index is the read access the searchers need. *store.Reader implements it.
type Index interface {
	Search(ctx context.Context, q query.Query, size int) (*store.Hits, error)
	StoredField(id, field string) ([]byte, error)
	TextData(id string) (*corpus.TextData, error)
	DocFreq(field, term string) (uint64, error)
	DocCount() (uint64, error)
	Analyze(text string) ([]string, error)
}

var _ Index = (*store.Reader)(nil)

// Option configures a searcher.
type Option func(*base)

// WithLogger sets the searcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// base holds what every searcher shares.
type base struct {
	mode   string
	index  Index
	logger *slog.Logger
}

func newBase(mode string, idx Index, opts []Option) base {
	b := base{mode: mode, index: idx, logger: slog.Default()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// fail logs err and renders it as a JSON error payload.
func (b *base) fail(err error) Response {
	b.logger.Warn("search_failed",
		slog.String("mode", b.mode),
		slog.String("code", cerrors.GetCode(err)),
		slog.String("error", err.Error()))
	return Response{ContentType: ContentTypeJSON, Body: cerrors.Payload(err), Err: err}
}

// storedPayloads reads field for every id, skipping documents that cannot
// be read.
func (b *base) storedPayloads(ids []string, field string) [][]byte {
	payloads := make([][]byte, 0, len(ids))
	for _, id := range ids {
		raw, err := b.index.StoredField(id, field)
		if err != nil {
			b.skip(id, err)
			continue
		}
		payloads = append(payloads, raw)
	}
	return payloads
}

func (b *base) skip(id string, err error) {
	b.logger.Warn("document_read_failed",
		slog.String("mode", b.mode),
		slog.String("id", id),
		slog.String("error", err.Error()))
}
