package search

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/query"
)

// SimilarSearcher serves documents resembling the one named by the id
// parameter, rendered by the wrapped searcher.
type SimilarSearcher struct {
	base
	similarity *Similarity
	target     QuerySearcher
}

// NewSimilarSearcher creates a more-like-this searcher that delegates to
// target. mode is ModeDocumentSimilar or ModeFullTextSimilar.
func NewSimilarSearcher(mode string, idx Index, similarity *Similarity, target QuerySearcher, opts ...Option) *SimilarSearcher {
	return &SimilarSearcher{
		base:       newBase(mode, idx, opts),
		similarity: similarity,
		target:     target,
	}
}

// Search looks up the seed document and serves the derived query.
func (s *SimilarSearcher) Search(ctx context.Context, params url.Values) Response {
	id, err := query.ID(params)
	if err != nil {
		return s.fail(err)
	}

	// The seed is read by document key: the numeric id field is indexed as
	// a float64 and cannot tell ids above 2^53 apart.
	seed, err := s.index.TextData(corpus.DocID(id))
	if errors.Is(err, cerrors.NotFound("")) {
		return s.fail(cerrors.NotFound("No document with id " + strconv.FormatInt(id, 10)))
	}
	if err != nil {
		return s.fail(err)
	}

	q, err := s.similarity.Like(seed)
	if err != nil {
		return s.fail(err)
	}
	s.logger.Debug("similarity_query",
		slog.String("mode", s.mode),
		slog.Int64("id", id),
		slog.Int("terms", len(q.Clauses)))

	return s.target.SearchQuery(ctx, q, params)
}
