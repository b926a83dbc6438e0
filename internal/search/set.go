package search

import (
	"github.com/Aman-CERP/corpusexplorer/internal/query"
)

// Config sizes the searchers of a Set.
type Config struct {
	PageSize           int
	MaxDocuments       int
	MaxExportDocuments int
	MaxEditDistance    int
	ExportDelimiter    rune
	Similarity         SimilarityOptions
}

// Set holds one searcher per mode, all sharing one index handle.
type Set map[string]Searcher

// NewSet builds the searchers for every mode over idx. When observer is
// non-nil each searcher is instrumented.
func NewSet(idx Index, cfg Config, observer Observer, opts ...Option) (Set, error) {
	builder := query.NewBuilder(query.Options{MaxEditDistance: cfg.MaxEditDistance})

	similarity, err := NewSimilarity(idx, cfg.Similarity)
	if err != nil {
		return nil, err
	}

	document := NewDocumentSearcher(idx, builder, cfg.MaxDocuments, opts...)
	fullText := NewFullTextSearcher(idx, builder, cfg.PageSize, opts...)

	set := Set{
		ModeDocument:        document,
		ModeFullText:        fullText,
		ModeDocumentSimilar: NewSimilarSearcher(ModeDocumentSimilar, idx, similarity, document, opts...),
		ModeFullTextSimilar: NewSimilarSearcher(ModeFullTextSimilar, idx, similarity, fullText, opts...),
		ModeExport:          NewExportSearcher(idx, builder, cfg.MaxExportDocuments, cfg.ExportDelimiter, opts...),
	}
	for mode, s := range set {
		set[mode] = Instrument(mode, s, observer)
	}
	return set, nil
}
