package query

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
)

// Request parameter names.
const (
	ParamPrimary    = "primary"
	ParamSelections = "selections"
	ParamExclusions = "exclusions"
	ParamLength     = "length"
	ParamTime       = "time"
	ParamLongitude  = "longitude"
	ParamLatitude   = "latitude"
	ParamLanguage   = "language"
	ParamCluster    = "cluster"
	ParamCorpus     = "corpus"
	ParamID         = "id"
	ParamPage       = "page"
)

// FuzzyPrefixLength is the number of leading characters a fuzzy term must
// match exactly. It bounds the candidate terms the engine enumerates.
const FuzzyPrefixLength = 5

// Options configures a Builder.
type Options struct {
	// MaxEditDistance enables fuzzy text terms when greater than zero.
	MaxEditDistance int
}

// Builder translates request parameters into a Query. A Builder is
// immutable and safe for concurrent use.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build translates params. Absent keys add no clause. Malformed numeric or
// range values fail with an ERR_401_PARSE CorpusError.
func (b *Builder) Build(params url.Values) (Query, error) {
	var q Query

	q.Add(b.textClauses(params[ParamPrimary], Must)...)
	q.Add(b.textClauses(params[ParamSelections], Should)...)
	q.Add(b.textClauses(params[ParamExclusions], MustNot)...)

	if c, ok, err := intRange(params, ParamLength, corpus.FieldLength); err != nil {
		return Query{}, err
	} else if ok {
		q.Add(c)
	}

	if v, ok := first(params, ParamTime); ok {
		lower, upper, err := bounds(ParamTime, v)
		if err != nil {
			return Query{}, err
		}
		q.Add(Clause{Field: corpus.FieldDate, Predicate: StringRange{Min: lower, Max: upper}, Occur: Must})
	}

	for _, p := range []struct{ param, field string }{
		{ParamLongitude, corpus.FieldLongitude},
		{ParamLatitude, corpus.FieldLatitude},
	} {
		if c, ok, err := floatRange(params, p.param, p.field); err != nil {
			return Query{}, err
		} else if ok {
			q.Add(c)
		}
	}

	if v, ok := first(params, ParamLanguage); ok {
		q.Add(Clause{Field: corpus.FieldLanguage, Predicate: Term{Value: strings.TrimSpace(v)}, Occur: Must})
	}

	if v, ok := first(params, ParamCluster); ok {
		cluster, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Query{}, cerrors.ParseError(ParamCluster, v, err)
		}
		q.Add(Exact(corpus.FieldCluster, float64(cluster)))
	}

	if v, ok := first(params, ParamCorpus); ok {
		q.Add(Clause{Field: corpus.FieldCorpus, Predicate: Term{Value: strings.TrimSpace(v)}, Occur: Must})
	}

	return q, nil
}

// ID parses the required document id parameter.
func ID(params url.Values) (int64, error) {
	v, ok := first(params, ParamID)
	if !ok {
		return 0, cerrors.MissingParameter(ParamID)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, cerrors.ParseError(ParamID, v, err)
	}
	return id, nil
}

// Page parses the optional zero-based page parameter. Pages whose hit
// window (page+1)*pageSize does not fit in an int are rejected.
func Page(params url.Values, pageSize int) (int, error) {
	v, ok := first(params, ParamPage)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || page < 0 {
		return 0, cerrors.ParseError(ParamPage, v, err)
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if page > math.MaxInt/pageSize-1 {
		return 0, cerrors.ParseError(ParamPage, v, errPageOutOfRange)
	}
	return page, nil
}

var errPageOutOfRange = errors.New("page out of range")

// textClauses splits every value on commas and emits one clause per
// lower-cased, non-empty term.
func (b *Builder) textClauses(values []string, occur Occur) []Clause {
	var clauses []Clause
	for _, v := range values {
		for _, term := range strings.Split(v, ",") {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			clauses = append(clauses, Clause{Field: corpus.FieldText, Predicate: b.termPredicate(term), Occur: occur})
		}
	}
	return clauses
}

func (b *Builder) termPredicate(term string) Predicate {
	if b.opts.MaxEditDistance > 0 {
		return Fuzzy{Value: term, Distance: b.opts.MaxEditDistance, Prefix: FuzzyPrefixLength}
	}
	return Term{Value: term}
}

func intRange(params url.Values, param, field string) (Clause, bool, error) {
	v, ok := first(params, param)
	if !ok {
		return Clause{}, false, nil
	}
	lower, upper, err := bounds(param, v)
	if err != nil {
		return Clause{}, false, err
	}
	lo, err := strconv.Atoi(lower)
	if err != nil {
		return Clause{}, false, cerrors.ParseError(param, v, err)
	}
	hi, err := strconv.Atoi(upper)
	if err != nil {
		return Clause{}, false, cerrors.ParseError(param, v, err)
	}
	return Clause{Field: field, Predicate: NumericRange{Min: float64(lo), Max: float64(hi)}, Occur: Must}, true, nil
}

func floatRange(params url.Values, param, field string) (Clause, bool, error) {
	v, ok := first(params, param)
	if !ok {
		return Clause{}, false, nil
	}
	lower, upper, err := bounds(param, v)
	if err != nil {
		return Clause{}, false, err
	}
	lo, err := strconv.ParseFloat(lower, 64)
	if err != nil {
		return Clause{}, false, cerrors.ParseError(param, v, err)
	}
	hi, err := strconv.ParseFloat(upper, 64)
	if err != nil {
		return Clause{}, false, cerrors.ParseError(param, v, err)
	}
	return Clause{Field: field, Predicate: NumericRange{Min: lo, Max: hi}, Occur: Must}, true, nil
}

// bounds splits "lower,upper".
func bounds(param, v string) (string, string, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return "", "", cerrors.ParseError(param, v, nil)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// first returns the first value of a present key.
func first(params url.Values, key string) (string, bool) {
	values, ok := params[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
