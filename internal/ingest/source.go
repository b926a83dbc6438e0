package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
)

// Corpus file formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// maxLineSize bounds one JSON line. Single newspaper pages can be large.
const maxLineSize = 64 << 20

// recordError marks a malformed record. The record is skipped and the
// rest of the file is still read.
type recordError struct {
	line int
	err  error
}

func (e *recordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.line, e.err)
}

func (e *recordError) Unwrap() error { return e.err }

// recordSource yields the rows of one decompressed corpus file. Next
// returns io.EOF after the last row and a *recordError for a row that
// cannot be read; any other error ends the file.
type recordSource interface {
	Next() (corpus.Source, error)
}

// csvSource reads delimited rows with a header line.
type csvSource struct {
	reader *csv.Reader
	layout layout
}

func newCSVSource(r io.Reader, delimiter rune, columns Columns) (*csvSource, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	l, err := columns.resolve(header)
	if err != nil {
		return nil, err
	}
	return &csvSource{reader: reader, layout: l}, nil
}

func (s *csvSource) Next() (corpus.Source, error) {
	record, err := s.reader.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return corpus.Source{}, &recordError{line: parseErr.Line, err: parseErr.Err}
		}
		return corpus.Source{}, err
	}
	if len(record) != s.layout.width {
		line, _ := s.reader.FieldPos(0)
		return corpus.Source{}, &recordError{
			line: line,
			err:  fmt.Errorf("%d columns, header has %d", len(record), s.layout.width),
		}
	}
	return s.layout.source(record), nil
}

// jsonDocument is one line of a JSON-lines corpus file.
type jsonDocument struct {
	ID        flexString `json:"cid"`
	Date      string     `json:"date"`
	Text      string     `json:"text"`
	Link      string     `json:"page_access"`
	Publisher string     `json:"title"`
	Place     string     `json:"place"`
	Source    string     `json:"source"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// jsonSource reads one JSON object per line. The format carries no
// open-access flag, so every record counts as open.
type jsonSource struct {
	scanner *bufio.Scanner
	line    int
}

func newJSONSource(r io.Reader) *jsonSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &jsonSource{scanner: scanner}
}

func (s *jsonSource) Next() (corpus.Source, error) {
	for s.scanner.Scan() {
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var doc jsonDocument
		if err := json.Unmarshal(line, &doc); err != nil {
			return corpus.Source{}, &recordError{line: s.line, err: err}
		}
		return corpus.Source{
			ID:        string(doc.ID),
			Date:      doc.Date,
			Text:      doc.Text,
			Link:      doc.Link,
			Publisher: doc.Publisher,
			Open:      "true",

			PlaceOfPublication: doc.Place,
			FallbackPlace:      doc.Source,
		}, nil
	}
	if err := s.scanner.Err(); err != nil {
		return corpus.Source{}, err
	}
	return corpus.Source{}, io.EOF
}
