package store

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	bquery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/corpusexplorer/internal/query"
)

// boostable is implemented by every bleve leaf query the translator emits.
type boostable interface {
	bquery.Query
	SetBoost(b float64)
}

// Translate converts q into a bleve query. An empty query matches nothing.
func Translate(q query.Query) (bquery.Query, error) {
	if q.IsEmpty() {
		return bleve.NewMatchNoneQuery(), nil
	}

	bq := bleve.NewBooleanQuery()
	for _, c := range q.Clauses {
		leaf, err := translateClause(c)
		if err != nil {
			return nil, err
		}
		switch c.Occur {
		case query.Must:
			bq.AddMust(leaf)
		case query.Should:
			bq.AddShould(leaf)
		case query.MustNot:
			bq.AddMustNot(leaf)
		default:
			return nil, fmt.Errorf("unknown occurrence %d on field %s", c.Occur, c.Field)
		}
	}
	return bq, nil
}

func translateClause(c query.Clause) (bquery.Query, error) {
	var leaf boostable

	switch p := c.Predicate.(type) {
	case query.Term:
		tq := bleve.NewTermQuery(p.Value)
		tq.SetField(c.Field)
		leaf = tq
	case query.Fuzzy:
		fq := bleve.NewFuzzyQuery(p.Value)
		fq.SetField(c.Field)
		fq.SetFuzziness(p.Distance)
		fq.SetPrefix(p.Prefix)
		leaf = fq
	case query.NumericRange:
		lo, hi := p.Min, p.Max
		inclusive := true
		nq := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
		nq.SetField(c.Field)
		leaf = nq
	case query.StringRange:
		inclusive := true
		rq := bleve.NewTermRangeInclusiveQuery(p.Min, p.Max, &inclusive, &inclusive)
		rq.SetField(c.Field)
		leaf = rq
	default:
		return nil, fmt.Errorf("unsupported predicate %T on field %s", c.Predicate, c.Field)
	}

	if c.Boost != 0 {
		leaf.SetBoost(c.Boost)
	}
	return leaf, nil
}
