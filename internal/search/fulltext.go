package search

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	"github.com/Aman-CERP/corpusexplorer/internal/query"
)

// FullTextSearcher pages through text payloads. Page k re-runs the search
// for (k+1)*pageSize hits and serves the trailing window of that result.
type FullTextSearcher struct {
	base
	builder  *query.Builder
	pageSize int
}

// NewFullTextSearcher creates a FullTextSearcher.
func NewFullTextSearcher(idx Index, builder *query.Builder, pageSize int, opts ...Option) *FullTextSearcher {
	return &FullTextSearcher{
		base:     newBase(ModeFullText, idx, opts),
		builder:  builder,
		pageSize: pageSize,
	}
}

// Search builds the query from params and serves the requested page.
func (s *FullTextSearcher) Search(ctx context.Context, params url.Values) Response {
	q, err := s.builder.Build(params)
	if err != nil {
		return s.fail(err)
	}
	return s.SearchQuery(ctx, q, params)
}

// SearchQuery serves the page of q named by the page parameter.
func (s *FullTextSearcher) SearchQuery(ctx context.Context, q query.Query, params url.Values) Response {
	started := time.Now()

	page, err := query.Page(params, s.pageSize)
	if err != nil {
		return s.fail(err)
	}
	s.logger.Debug("search_query",
		slog.String("mode", s.mode),
		slog.String("query", q.String()),
		slog.Int("page", page))

	hits, err := s.index.Search(ctx, q, RequestedHits(page, s.pageSize))
	if err != nil {
		return s.fail(err)
	}

	start := WindowStart(len(hits.IDs), s.pageSize)
	payloads := s.storedPayloads(hits.IDs[start:], corpus.FieldTextData)
	return s.render(newEnvelope(q.String(), hits.Total, payloads, started))
}

// RequestedHits is the hit cap for a zero-based page.
func RequestedHits(page, pageSize int) int {
	return (page + 1) * pageSize
}

// WindowStart is the index of the first served hit out of n returned hits.
// The window includes one hit more than a page when n exceeds pageSize.
func WindowStart(n, pageSize int) int {
	return max(0, n-pageSize-1)
}
