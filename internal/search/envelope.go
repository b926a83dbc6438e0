package search

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the JSON body of the document, full-text and similarity
// searches.
type Envelope struct {
	Documents        []json.RawMessage `json:"documents"`
	BasicInformation BasicInformation  `json:"basicInformation"`
}

// BasicInformation describes how a result page was produced.
type BasicInformation struct {
	Query           string `json:"query"`
	TotalHits       uint64 `json:"totalHits"`
	HitsServed      int    `json:"hitsServed"`
	ComputationTime string `json:"computationTime"`
}

// newEnvelope wraps stored payloads. Payloads that are not valid JSON are
// dropped so one corrupt document cannot break the body.
func newEnvelope(q string, total uint64, payloads [][]byte, started time.Time) Envelope {
	docs := make([]json.RawMessage, 0, len(payloads))
	for _, p := range payloads {
		if json.Valid(p) {
			docs = append(docs, json.RawMessage(p))
		}
	}
	return Envelope{
		Documents: docs,
		BasicInformation: BasicInformation{
			Query:           q,
			TotalHits:       total,
			HitsServed:      len(docs),
			ComputationTime: formatElapsed(time.Since(started)),
		},
	}
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
