package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/query"
)

// DocumentSearcher returns the visualization payload of up to
// maxDocuments hits in rank order.
type DocumentSearcher struct {
	base
	builder      *query.Builder
	maxDocuments int
}

// NewDocumentSearcher creates a DocumentSearcher.
func NewDocumentSearcher(idx Index, builder *query.Builder, maxDocuments int, opts ...Option) *DocumentSearcher {
	return &DocumentSearcher{
		base:         newBase(ModeDocument, idx, opts),
		builder:      builder,
		maxDocuments: maxDocuments,
	}
}

// Search builds the query from params and serves it.
func (s *DocumentSearcher) Search(ctx context.Context, params url.Values) Response {
	q, err := s.builder.Build(params)
	if err != nil {
		return s.fail(err)
	}
	return s.SearchQuery(ctx, q, params)
}

// SearchQuery serves q.
func (s *DocumentSearcher) SearchQuery(ctx context.Context, q query.Query, _ url.Values) Response {
	started := time.Now()
	s.logger.Debug("search_query", slog.String("mode", s.mode), slog.String("query", q.String()))

	hits, err := s.index.Search(ctx, q, s.maxDocuments)
	if err != nil {
		return s.fail(err)
	}

	payloads := s.storedPayloads(hits.IDs, corpus.FieldVisualization)
	return s.render(newEnvelope(q.String(), hits.Total, payloads, started))
}

func (b *base) render(env Envelope) Response {
	body, err := json.Marshal(env)
	if err != nil {
		return b.fail(cerrors.InternalError("failed to encode response", err))
	}
	return Response{ContentType: ContentTypeJSON, Body: body}
}
