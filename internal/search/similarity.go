package search

import (
	"math"
	"sort"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	"github.com/Aman-CERP/corpusexplorer/internal/query"
)

// SimilarityOptions tunes term selection for more-like-this queries.
type SimilarityOptions struct {
	// MinTermFreq drops terms occurring fewer times in the seed document.
	MinTermFreq int
	// MinDocFreq drops terms occurring in fewer indexed documents.
	MinDocFreq int
	// MaxQueryTerms caps the number of clauses in the derived query.
	MaxQueryTerms int
	// MinWordLen drops shorter terms. Zero disables the check.
	MinWordLen int
	// CacheSize is the number of document frequencies kept in memory.
	CacheSize int
}

// DefaultSimilarityOptions returns the usual more-like-this tuning.
func DefaultSimilarityOptions() SimilarityOptions {
	return SimilarityOptions{
		MinTermFreq:   2,
		MinDocFreq:    5,
		MaxQueryTerms: 25,
		CacheSize:     10000,
	}
}

// Similarity derives a query for documents resembling a seed document
// from the seed's most distinctive title and text terms.
type Similarity struct {
	index Index
	opts  SimilarityOptions
	// The reader never changes after opening, so cached counts stay valid.
	docFreq *lru.Cache[string, uint64]
}

// NewSimilarity creates a Similarity over idx.
func NewSimilarity(idx Index, opts SimilarityOptions) (*Similarity, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultSimilarityOptions().CacheSize
	}
	cache, err := lru.New[string, uint64](size)
	if err != nil {
		return nil, err
	}
	return &Similarity{index: idx, opts: opts, docFreq: cache}, nil
}

type scoredTerm struct {
	field string
	term  string
	score float64
}

// Like returns SHOULD term clauses, boosted by tf-idf, for the seed's
// publisher (indexed as the title) and text. The result is empty when no
// term passes the thresholds.
func (s *Similarity) Like(seed *corpus.TextData) (query.Query, error) {
	numDocs, err := s.index.DocCount()
	if err != nil {
		return query.Query{}, err
	}

	var candidates []scoredTerm
	for _, f := range []struct{ field, text string }{
		{corpus.FieldTitle, seed.Publisher},
		{corpus.FieldText, seed.Text},
	} {
		scored, err := s.scoreField(f.field, f.text, numDocs)
		if err != nil {
			return query.Query{}, err
		}
		candidates = append(candidates, scored...)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].field != candidates[j].field {
			return candidates[i].field < candidates[j].field
		}
		return candidates[i].term < candidates[j].term
	})
	if s.opts.MaxQueryTerms > 0 && len(candidates) > s.opts.MaxQueryTerms {
		candidates = candidates[:s.opts.MaxQueryTerms]
	}

	var q query.Query
	for _, c := range candidates {
		q.Add(query.Clause{
			Field:     c.field,
			Predicate: query.Term{Value: c.term},
			Occur:     query.Should,
			Boost:     c.score,
		})
	}
	return q, nil
}

func (s *Similarity) scoreField(field, text string, numDocs uint64) ([]scoredTerm, error) {
	if text == "" {
		return nil, nil
	}
	terms, err := s.index.Analyze(text)
	if err != nil {
		return nil, err
	}

	freq := make(map[string]int)
	for _, t := range terms {
		freq[t]++
	}

	var scored []scoredTerm
	for term, tf := range freq {
		if tf < s.opts.MinTermFreq {
			continue
		}
		if s.opts.MinWordLen > 0 && utf8.RuneCountInString(term) < s.opts.MinWordLen {
			continue
		}
		df, err := s.documentFrequency(field, term)
		if err != nil {
			return nil, err
		}
		if df == 0 || df < uint64(s.opts.MinDocFreq) {
			continue
		}
		scored = append(scored, scoredTerm{
			field: field,
			term:  term,
			score: float64(tf) * idf(df, numDocs),
		})
	}
	return scored, nil
}

func (s *Similarity) documentFrequency(field, term string) (uint64, error) {
	key := field + "\x00" + term
	if df, ok := s.docFreq.Get(key); ok {
		return df, nil
	}
	df, err := s.index.DocFreq(field, term)
	if err != nil {
		return 0, err
	}
	s.docFreq.Add(key, df)
	return df, nil
}

// idf is the classic inverse document frequency.
func idf(df, numDocs uint64) float64 {
	return 1 + math.Log(float64(numDocs)/float64(df+1))
}
