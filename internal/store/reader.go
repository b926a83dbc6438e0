package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
	index "github.com/blevesearch/bleve_index_api"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/query"
)

// Hits is one page of search results: the total number of matches and the
// document ids of the returned hits in rank order.
type Hits struct {
	Total uint64
	IDs   []string
}

// Reader is the shared read-only index handle. The index is opened on
// first use, exactly once, and every later call is served from the same
// snapshot. Documents committed after that are not visible.
type Reader struct {
	path   string
	logger *slog.Logger

	once  sync.Once
	index bleve.Index
	err   error
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithReaderLogger sets the reader's logger.
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReader creates a lazy reader for the index at path. Nothing is
// opened until the first query.
func NewReader(path string, opts ...ReaderOption) *Reader {
	r := &Reader{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newReaderFromIndex(idx bleve.Index) *Reader {
	r := &Reader{index: idx, logger: slog.Default()}
	r.once.Do(func() {})
	return r
}

func (r *Reader) open() (bleve.Index, error) {
	r.once.Do(func() {
		idx, err := bleve.OpenUsing(r.path, map[string]interface{}{"read_only": true})
		if err != nil {
			r.err = cerrors.IndexAccess("failed to open index "+r.path, err)
			r.logger.Error("index_open_failed",
				slog.String("path", r.path),
				slog.String("error", err.Error()))
			return
		}
		r.index = idx
		n, _ := idx.DocCount()
		r.logger.Info("index_opened",
			slog.String("path", r.path),
			slog.Uint64("documents", n))
	})
	return r.index, r.err
}

// Search runs q and returns at most size hits.
func (r *Reader) Search(ctx context.Context, q query.Query, size int) (*Hits, error) {
	idx, err := r.open()
	if err != nil {
		return nil, err
	}

	bq, err := Translate(q)
	if err != nil {
		return nil, cerrors.IndexAccess("failed to translate query", err)
	}

	req := bleve.NewSearchRequestOptions(bq, size, 0, false)

	result, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, cerrors.IndexAccess("search failed", err)
	}

	ids := make([]string, len(result.Hits))
	for i, hit := range result.Hits {
		ids[i] = hit.ID
	}
	return &Hits{Total: result.Total, IDs: ids}, nil
}

// StoredField returns the raw stored value of field for document id.
func (r *Reader) StoredField(id, field string) ([]byte, error) {
	idx, err := r.open()
	if err != nil {
		return nil, err
	}

	doc, err := idx.Document(id)
	if err != nil {
		return nil, cerrors.DocumentRead(id, err)
	}
	if doc == nil {
		return nil, cerrors.DocumentRead(id, cerrors.NotFound("document "+id+" not found"))
	}

	var value []byte
	doc.VisitFields(func(f index.Field) {
		if value == nil && f.Name() == field {
			value = append([]byte(nil), f.Value()...)
		}
	})
	if value == nil {
		return nil, cerrors.DocumentRead(id, cerrors.NotFound("field "+field+" not stored"))
	}
	return value, nil
}

// TextData reads and decodes the text payload of document id.
func (r *Reader) TextData(id string) (*corpus.TextData, error) {
	raw, err := r.StoredField(id, corpus.FieldTextData)
	if err != nil {
		return nil, err
	}
	td, err := corpus.ParseTextData(raw)
	if err != nil {
		return nil, cerrors.DocumentRead(id, err)
	}
	return td, nil
}

// DocFreq returns the number of documents containing term in field.
func (r *Reader) DocFreq(field, term string) (uint64, error) {
	idx, err := r.open()
	if err != nil {
		return 0, err
	}

	dict, err := idx.FieldDictRange(field, []byte(term), []byte(term))
	if err != nil {
		return 0, cerrors.IndexAccess("failed to read term dictionary", err)
	}
	defer func() { _ = dict.Close() }()

	entry, err := dict.Next()
	if err != nil {
		return 0, cerrors.IndexAccess("failed to read term dictionary", err)
	}
	if entry == nil || entry.Term != term {
		return 0, nil
	}
	return entry.Count, nil
}

// DocCount returns the number of documents visible to the reader.
func (r *Reader) DocCount() (uint64, error) {
	idx, err := r.open()
	if err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, cerrors.IndexAccess("failed to count documents", err)
	}
	return n, nil
}

// Analyze splits text into index terms with the text analyzer, in order
// and with repeats.
func (r *Reader) Analyze(text string) ([]string, error) {
	idx, err := r.open()
	if err != nil {
		return nil, err
	}

	analyzer := idx.Mapping().AnalyzerNamed(TextAnalyzer)
	if analyzer == nil {
		return nil, cerrors.IndexAccess("analyzer "+TextAnalyzer+" is not registered", nil)
	}

	tokens := analyzer.Analyze([]byte(text))
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = string(tok.Term)
	}
	return terms, nil
}

// Close releases the index if it was opened.
func (r *Reader) Close() error {
	// Mark the handle as used so a late open cannot race the close.
	r.once.Do(func() {
		r.err = cerrors.IndexAccess("reader is closed", nil)
	})
	if r.index == nil {
		return nil
	}
	return r.index.Close()
}
