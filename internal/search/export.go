package search

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	"github.com/Aman-CERP/corpusexplorer/internal/query"
)

// ExportHeader is the first row of every export.
var ExportHeader = []string{
	"text", "date", "publisher", "placeOfPublication", "latitude",
	"longitude", "link", "language", "corpus", "cluster",
}

// ExportSearcher renders up to maxDocuments hits as delimiter-separated
// rows in result order.
type ExportSearcher struct {
	base
	builder      *query.Builder
	maxDocuments int
	delimiter    rune
}

// NewExportSearcher creates an ExportSearcher. A zero delimiter means comma.
func NewExportSearcher(idx Index, builder *query.Builder, maxDocuments int, delimiter rune, opts ...Option) *ExportSearcher {
	if delimiter == 0 {
		delimiter = ','
	}
	return &ExportSearcher{
		base:         newBase(ModeExport, idx, opts),
		builder:      builder,
		maxDocuments: maxDocuments,
		delimiter:    delimiter,
	}
}

// Search builds the query from params and renders the export.
func (s *ExportSearcher) Search(ctx context.Context, params url.Values) Response {
	q, err := s.builder.Build(params)
	if err != nil {
		return s.fail(err)
	}
	s.logger.Debug("search_query", slog.String("mode", s.mode), slog.String("query", q.String()))

	hits, err := s.index.Search(ctx, q, s.maxDocuments)
	if err != nil {
		return s.fail(err)
	}

	var buf bytes.Buffer
	w := newRowWriter(&buf, s.delimiter)
	w.Write(ExportHeader)
	for _, id := range hits.IDs {
		td, err := s.index.TextData(id)
		if err != nil {
			s.skip(id, err)
			continue
		}
		w.Write(exportRow(td))
	}

	return Response{ContentType: ContentTypeCSV, Body: buf.Bytes()}
}

func exportRow(td *corpus.TextData) []string {
	cluster := ""
	if td.Cluster != nil {
		cluster = strconv.Itoa(*td.Cluster)
	}
	return []string{
		td.Text,
		td.Date,
		td.Publisher,
		td.PlaceOfPublication,
		strconv.FormatFloat(td.Latitude, 'f', -1, 64),
		strconv.FormatFloat(td.Longitude, 'f', -1, 64),
		td.Link,
		strings.Join(td.Language, ","),
		td.Corpus,
		cluster,
	}
}

// rowWriter writes delimiter-separated rows. Unlike encoding/csv it
// quotes a field only when it contains the delimiter, a quote or a line
// break, so every other field is written verbatim.
type rowWriter struct {
	buf       *bytes.Buffer
	delimiter rune
}

func newRowWriter(buf *bytes.Buffer, delimiter rune) *rowWriter {
	return &rowWriter{buf: buf, delimiter: delimiter}
}

// Write appends one row terminated by a newline.
func (w *rowWriter) Write(fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.buf.WriteRune(w.delimiter)
		}
		w.buf.WriteString(QuoteField(f, w.delimiter))
	}
	w.buf.WriteByte('\n')
}

// QuoteField renders one field for a row separated by delimiter.
func QuoteField(field string, delimiter rune) string {
	if !strings.ContainsRune(field, delimiter) && !strings.ContainsAny(field, "\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
