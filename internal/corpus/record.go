// Package corpus defines the document record indexed from the newspaper
// archive, the normalization applied to raw source rows, and the two
// payload views stored with every indexed document.
package corpus

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinates is a resolved place of publication.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Unresolved marks a place of publication that could not be geocoded.
var Unresolved = Coordinates{Latitude: -1, Longitude: -1}

// Resolved reports whether c holds a real geocode rather than the sentinel.
func (c Coordinates) Resolved() bool {
	if c == Unresolved {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Record is one indexed document. Records are immutable once committed.
type Record struct {
	ID                 int64
	Text               string
	Date               string
	TextLength         int
	PlaceOfPublication string
	Coordinates        Coordinates
	Languages          []string
	Cluster            *int
	Publisher          string
	Link               string
	Corpus             string
}

// Source is one raw row of a corpus file, already mapped from the file's
// columns (or JSON keys) to named fields. All values are untrimmed strings.
type Source struct {
	ID                 string
	Cluster            string
	Date               string
	Text               string
	Link               string
	Publisher          string
	Open               string
	Language           string
	PlaceOfPublication string
	FallbackPlace      string
	Corpus             string
}

// IsOpen reports whether the row's open-access flag is set.
func (s Source) IsOpen() bool {
	return strings.EqualFold(strings.TrimSpace(s.Open), "true")
}

// Record normalizes the row into a Record. Coordinates are left unresolved;
// geocoding is the caller's job.
func (s Source) Record() (*Record, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s.ID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", s.ID, err)
	}

	rec := &Record{
		ID: id,
		// Length is taken from the raw text; cleanup only affects display.
		TextLength:         TextLength(s.Text),
		Text:               CleanText(s.Text),
		Date:               NormalizeDate(s.Date),
		PlaceOfPublication: strings.TrimSpace(s.PlaceOfPublication),
		Coordinates:        Unresolved,
		Languages:          NormalizeLanguages(s.Language),
		Publisher:          strings.TrimSpace(s.Publisher),
		Link:               strings.TrimSpace(s.Link),
		Corpus:             strings.TrimSpace(s.Corpus),
	}

	if c := strings.TrimSpace(s.Cluster); c != "" {
		cluster, err := strconv.Atoi(c)
		if err != nil {
			return nil, fmt.Errorf("invalid cluster %q: %w", s.Cluster, err)
		}
		rec.Cluster = &cluster
	}

	return rec, nil
}

// DocID is the index document identifier for a record id.
func DocID(id int64) string {
	return strconv.FormatInt(id, 10)
}
