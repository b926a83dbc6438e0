package store

import (
	"fmt"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
)

// document converts a record into the field map bleve indexes. The
// publisher doubles as the title field. Unresolved coordinates are left
// out so the sentinel never matches a coordinate range.
func document(rec *corpus.Record) (map[string]interface{}, error) {
	vis, text, err := rec.Payloads()
	if err != nil {
		return nil, fmt.Errorf("failed to build payloads for document %d: %w", rec.ID, err)
	}

	doc := map[string]interface{}{
		corpus.FieldID:            float64(rec.ID),
		corpus.FieldText:          rec.Text,
		corpus.FieldTitle:         rec.Publisher,
		corpus.FieldDate:          rec.Date,
		corpus.FieldLength:        float64(rec.TextLength),
		corpus.FieldVisualization: string(vis),
		corpus.FieldTextData:      string(text),
	}

	if len(rec.Languages) > 0 {
		doc[corpus.FieldLanguage] = rec.Languages
	}
	if rec.Corpus != "" {
		doc[corpus.FieldCorpus] = rec.Corpus
	}
	if rec.Cluster != nil {
		doc[corpus.FieldCluster] = float64(*rec.Cluster)
	}
	if rec.Coordinates.Resolved() {
		doc[corpus.FieldLatitude] = rec.Coordinates.Latitude
		doc[corpus.FieldLongitude] = rec.Coordinates.Longitude
	}

	return doc, nil
}
