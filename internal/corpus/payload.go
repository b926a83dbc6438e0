package corpus

import (
	"encoding/json"
)

// Visualization is the compact per-document summary the front end plots.
type Visualization struct {
	ID         int64    `json:"id"`
	TextLength int      `json:"textLength"`
	Date       string   `json:"date"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Language   []string `json:"language"`
	Cluster    *int     `json:"cluster,omitempty"`
	Corpus     string   `json:"corpus,omitempty"`
}

// TextData is the full per-document detail, including the cleaned text.
type TextData struct {
	ID                 int64    `json:"id"`
	Date               string   `json:"date"`
	Text               string   `json:"text"`
	Publisher          string   `json:"publisher"`
	PlaceOfPublication string   `json:"placeOfPublication"`
	Latitude           float64  `json:"latitude"`
	Longitude          float64  `json:"longitude"`
	Link               string   `json:"link"`
	Language           []string `json:"language"`
	Corpus             string   `json:"corpus"`
	Cluster            *int     `json:"cluster,omitempty"`
}

// Visualization builds the summary view. Coordinates are only present
// when the place of publication was resolved.
func (r *Record) Visualization() Visualization {
	v := Visualization{
		ID:         r.ID,
		TextLength: r.TextLength,
		Date:       r.Date,
		Language:   languagesOrEmpty(r.Languages),
		Cluster:    r.Cluster,
		Corpus:     r.Corpus,
	}
	if r.Coordinates.Resolved() {
		lat, lon := r.Coordinates.Latitude, r.Coordinates.Longitude
		v.Latitude, v.Longitude = &lat, &lon
	}
	return v
}

// TextData builds the detail view. Unresolved coordinates carry the sentinel.
func (r *Record) TextData() TextData {
	return TextData{
		ID:                 r.ID,
		Date:               r.Date,
		Text:               r.Text,
		Publisher:          r.Publisher,
		PlaceOfPublication: r.PlaceOfPublication,
		Latitude:           r.Coordinates.Latitude,
		Longitude:          r.Coordinates.Longitude,
		Link:               r.Link,
		Language:           languagesOrEmpty(r.Languages),
		Corpus:             r.Corpus,
		Cluster:            r.Cluster,
	}
}

// Payloads marshals both views.
func (r *Record) Payloads() (visualization, text []byte, err error) {
	visualization, err = json.Marshal(r.Visualization())
	if err != nil {
		return nil, nil, err
	}
	text, err = json.Marshal(r.TextData())
	if err != nil {
		return nil, nil, err
	}
	return visualization, text, nil
}

// ParseTextData decodes a stored text payload.
func ParseTextData(data []byte) (*TextData, error) {
	var td TextData
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, err
	}
	return &td, nil
}

func languagesOrEmpty(languages []string) []string {
	if languages == nil {
		return []string{}
	}
	return languages
}
