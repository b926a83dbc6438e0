// Package query turns flat, multi-valued request parameters into a
// structured retrieval query: a list of clauses, each pairing a field and
// a predicate with an occurrence requirement.
//
// The package performs no I/O and holds no shared mutable state; the
// translation to the index engine lives in package store.
package query

import (
	"strconv"
	"strings"
)

// Occur is the occurrence requirement of a clause.
type Occur int

const (
	// Must clauses are conjunctive.
	Must Occur = iota
	// Should clauses contribute to scoring without being individually required.
	Should
	// MustNot clauses exclude matching documents.
	MustNot
)

// String returns the clause prefix used in query descriptions.
func (o Occur) String() string {
	switch o {
	case Must:
		return "+"
	case MustNot:
		return "-"
	default:
		return ""
	}
}

// Predicate is what a clause requires of its field.
type Predicate interface {
	// describe renders the predicate for the query description.
	describe() string
}

// Term matches one exact indexed term.
type Term struct {
	Value string
}

// Fuzzy matches terms within Distance character edits of Value whose first
// Prefix characters equal Value's.
type Fuzzy struct {
	Value    string
	Distance int
	Prefix   int
}

// NumericRange matches numbers in [Min, Max].
type NumericRange struct {
	Min float64
	Max float64
}

// StringRange matches terms lexicographically in [Min, Max].
type StringRange struct {
	Min string
	Max string
}

func (t Term) describe() string  { return t.Value }
func (f Fuzzy) describe() string { return f.Value + "~" + strconv.Itoa(f.Distance) }

func (r NumericRange) describe() string {
	return "[" + formatFloat(r.Min) + " TO " + formatFloat(r.Max) + "]"
}

func (r StringRange) describe() string {
	return "[" + r.Min + " TO " + r.Max + "]"
}

// Clause is one (field, predicate, occurrence) triple. A zero Boost means
// the engine default.
type Clause struct {
	Field     string
	Predicate Predicate
	Occur     Occur
	Boost     float64
}

// String renders the clause, e.g. "+text:zeitung" or "length:[1 TO 5]".
func (c Clause) String() string {
	s := c.Occur.String() + c.Field + ":" + c.Predicate.describe()
	if c.Boost != 0 && c.Boost != 1 {
		s += "^" + strconv.FormatFloat(c.Boost, 'f', 3, 64)
	}
	return s
}

// Query is a conjunctive top-level combination of clauses.
type Query struct {
	Clauses []Clause
}

// Add appends clauses and returns the query for chaining.
func (q *Query) Add(clauses ...Clause) *Query {
	q.Clauses = append(q.Clauses, clauses...)
	return q
}

// IsEmpty reports whether the query has no clauses. An empty query matches
// nothing.
func (q Query) IsEmpty() bool {
	return len(q.Clauses) == 0
}

// String renders the query description echoed back to clients.
func (q Query) String() string {
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Exact builds a MUST clause matching a single numeric value.
func Exact(field string, value float64) Clause {
	return Clause{Field: field, Predicate: NumericRange{Min: value, Max: value}, Occur: Must}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
