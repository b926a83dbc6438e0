package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
)

// Columns locates each source field in a delimited file. A value is either
// a header name or a zero-based column position; empty means the file has
// no such column.
type Columns struct {
	ID                 string `yaml:"id"`
	Cluster            string `yaml:"cluster"`
	Date               string `yaml:"date"`
	Text               string `yaml:"text"`
	Link               string `yaml:"link"`
	Publisher          string `yaml:"publisher"`
	Open               string `yaml:"open"`
	Language           string `yaml:"language"`
	PlaceOfPublication string `yaml:"place_of_publication"`
	FallbackPlace      string `yaml:"fallback_place"`
	Corpus             string `yaml:"corpus"`
}

// DefaultColumns returns the positional layout of the newspaper export
// files. The publisher column doubles as the place of publication. The
// export carries no separate source column, so FallbackPlace stays empty
// and the location fallback only runs once ingest.columns.fallback_place
// names a column.
func DefaultColumns() Columns {
	return Columns{
		ID:                 "0",
		Date:               "7",
		Text:               "10",
		Link:               "13",
		Open:               "24",
		Language:           "37",
		PlaceOfPublication: "38",
		Publisher:          "38",
	}
}

// layout holds resolved column positions; -1 marks an absent column.
type layout struct {
	id, cluster, date, text, link, publisher, open,
	language, place, fallback, corpus int
	width int
}

// resolve maps every configured column to a position in header.
func (c Columns) resolve(header []string) (layout, error) {
	l := layout{width: len(header)}
	var err error
	for _, f := range []struct {
		name string
		spec string
		dst  *int
	}{
		{"id", c.ID, &l.id},
		{"cluster", c.Cluster, &l.cluster},
		{"date", c.Date, &l.date},
		{"text", c.Text, &l.text},
		{"link", c.Link, &l.link},
		{"publisher", c.Publisher, &l.publisher},
		{"open", c.Open, &l.open},
		{"language", c.Language, &l.language},
		{"place_of_publication", c.PlaceOfPublication, &l.place},
		{"fallback_place", c.FallbackPlace, &l.fallback},
		{"corpus", c.Corpus, &l.corpus},
	} {
		if *f.dst, err = position(f.name, f.spec, header); err != nil {
			return layout{}, err
		}
	}
	if l.id < 0 || l.text < 0 {
		return layout{}, fmt.Errorf("id and text columns are required")
	}
	return l, nil
}

func position(name, spec string, header []string) (int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return -1, nil
	}
	if pos, err := strconv.Atoi(spec); err == nil {
		if pos < 0 || pos >= len(header) {
			return 0, fmt.Errorf("column %s: position %d outside header of %d columns", name, pos, len(header))
		}
		return pos, nil
	}
	for i, h := range header {
		if strings.TrimSpace(h) == spec {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %s: header %q not found", name, spec)
}

// source maps one record onto named fields.
func (l layout) source(record []string) corpus.Source {
	get := func(pos int) string {
		if pos < 0 || pos >= len(record) {
			return ""
		}
		return record[pos]
	}
	return corpus.Source{
		ID:                 get(l.id),
		Cluster:            get(l.cluster),
		Date:               get(l.date),
		Text:               get(l.text),
		Link:               get(l.link),
		Publisher:          get(l.publisher),
		Open:               get(l.open),
		Language:           get(l.language),
		PlaceOfPublication: get(l.place),
		FallbackPlace:      get(l.fallback),
		Corpus:             get(l.corpus),
	}
}
