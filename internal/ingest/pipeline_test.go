package ingest

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/geo"
	"github.com/Aman-CERP/corpusexplorer/internal/query"
	"github.com/Aman-CERP/corpusexplorer/internal/search"
	"github.com/Aman-CERP/corpusexplorer/internal/store"
)

const header = "id\tdate\ttext\tpublisher\topen\tlanguage\tplace\tsource_place\tcluster\n"

func testColumns() Columns {
	return Columns{
		ID:                 "id",
		Date:               "date",
		Text:               "text",
		Publisher:          "publisher",
		Open:               "open",
		Language:           "language",
		PlaceOfPublication: "place",
		FallbackPlace:      "source_place",
		Cluster:            "cluster",
	}
}

func testLocations() *geo.Resolver {
	return geo.NewStaticResolver(map[string]geo.Location{
		"Zürich": {Name: "Zürich", Latitude: 47.3769, Longitude: 8.5417},
		"NZZ":    {Name: "Zürich", Latitude: 47.3769, Longitude: 8.5417},
	})
}

func writeGzip(t *testing.T, dir, name, content string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

type fixture struct {
	docs  string
	index string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	docs := filepath.Join(root, "documents")
	require.NoError(t, os.MkdirAll(docs, 0755))
	return fixture{docs: docs, index: filepath.Join(root, "index")}
}

func (f fixture) run(t *testing.T, cfg Config, opts ...Option) (Summary, error) {
	t.Helper()
	w, err := store.OpenWriter(f.index)
	require.NoError(t, err)

	cfg.Documents = f.docs
	if cfg.Columns == (Columns{}) {
		cfg.Columns = testColumns()
	}
	p, err := NewPipeline(w, testLocations(), cfg, opts...)
	require.NoError(t, err)
	return p.Run(context.Background())
}

func (f fixture) reader(t *testing.T) *store.Reader {
	t.Helper()
	r := store.NewReader(f.index)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestPipeline_OnlyOpenRecordsAreServed(t *testing.T) {
	// Given: a two-record file where one record is not open access
	f := newFixture(t)
	writeGzip(t, f.docs, "part-1.tsv.gz", header+
		"1\t1870\tDie Eisenbahn kommt\tNZZ\ttrue\tGerman\tZürich\t\t\n"+
		"2\t1871\tGeheime Depesche\tNZZ\tfalse\tGerman\tZürich\t\t\n")

	// When: ingesting without including non-open records
	summary, err := f.run(t, Config{})

	// Then: exactly one document is indexed
	require.NoError(t, err)
	assert.Equal(t, Summary{Files: 1, FilesFinished: 1, Indexed: 1, Filtered: 1}, withoutElapsed(summary))

	// And: a query for a term of the open record reports one hit
	s := search.NewDocumentSearcher(f.reader(t), query.NewBuilder(query.Options{}), 10)
	resp := s.Search(context.Background(), url.Values{"primary": {"eisenbahn"}})
	require.NoError(t, resp.Err)
	assert.Contains(t, string(resp.Body), `"totalHits":1`)

	resp = s.Search(context.Background(), url.Values{"primary": {"depesche"}})
	assert.Contains(t, string(resp.Body), `"totalHits":0`)
}

func TestPipeline_IncludeNonOpen(t *testing.T) {
	f := newFixture(t)
	writeGzip(t, f.docs, "part-1.tsv.gz", header+
		"1\t1870\tEisenbahn\tNZZ\ttrue\tGerman\tZürich\t\t\n"+
		"2\t1871\tEisenbahn\tNZZ\tFALSE\tGerman\tZürich\t\t\n")

	summary, err := f.run(t, Config{IncludeNonOpen: true})

	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Indexed)
	n, err := f.reader(t).DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestPipeline_NormalizesAndGeocodes(t *testing.T) {
	f := newFixture(t)
	writeGzip(t, f.docs, "part-1.tsv.gz", header+
		"1\t1870-07\t\"Krieg&nbsp;erklärt\r\nheute\"\tNZZ\ttrue\tGerman, French\tZürich\t\t7\n"+
		"2\t1871\tNachrichten\tNZZ\ttrue\tGerman\tWinterthur\tNZZ\t\n"+
		"3\t1872\tNachrichten\tNZZ\ttrue\tGerman\tWinterthur\tNirgendwo\t\n")

	_, err := f.run(t, Config{Corpus: "nzz"})
	require.NoError(t, err)
	r := f.reader(t)

	t.Run("fields are normalized", func(t *testing.T) {
		td, err := r.TextData("1")
		require.NoError(t, err)
		assert.Equal(t, "1870-07-01", td.Date)
		assert.Equal(t, "Krieg erklärt heute", td.Text)
		assert.Equal(t, []string{"de", "fr"}, td.Language)
		assert.Equal(t, "nzz", td.Corpus)
		require.NotNil(t, td.Cluster)
		assert.Equal(t, 7, *td.Cluster)
		assert.Equal(t, 47.3769, td.Latitude)
	})

	t.Run("unknown place falls back to the source column", func(t *testing.T) {
		td, err := r.TextData("2")
		require.NoError(t, err)
		assert.Equal(t, "Winterthur", td.PlaceOfPublication)
		assert.Equal(t, 47.3769, td.Latitude)
		assert.Equal(t, 8.5417, td.Longitude)
	})

	t.Run("unresolvable place keeps the sentinel", func(t *testing.T) {
		td, err := r.TextData("3")
		require.NoError(t, err)
		assert.Equal(t, corpus.Unresolved, corpus.Coordinates{Latitude: td.Latitude, Longitude: td.Longitude})

		var q query.Query
		q.Add(query.Clause{Field: corpus.FieldLatitude, Predicate: query.NumericRange{Min: -90, Max: 90}, Occur: query.Must})
		hits, err := r.Search(context.Background(), q, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"1", "2"}, hits.IDs)
	})
}

type countingRecorder struct {
	mu        sync.Mutex
	files     map[string]int
	documents map[string]int
}

func (c *countingRecorder) ObserveFile(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.files == nil {
		c.files = make(map[string]int)
	}
	c.files[outcome]++
}

func (c *countingRecorder) ObserveDocuments(outcome string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.documents == nil {
		c.documents = make(map[string]int)
	}
	c.documents[outcome] += n
}

type reportingProgress struct {
	mu      sync.Mutex
	files   int
	reports map[string]FileReport
}

func (r *reportingProgress) Started(files int) { r.files = files }

func (r *reportingProgress) FileDone(report FileReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reports == nil {
		r.reports = make(map[string]FileReport)
	}
	r.reports[filepath.Base(report.Path)] = report
}

func TestPipeline_FailuresAreIsolated(t *testing.T) {
	// Given: a good file, a file that is not gzip, a file with a missing
	// header column, and malformed records inside the good file
	f := newFixture(t)
	writeGzip(t, f.docs, "a.tsv.gz", header+
		"1\t1870\tEisenbahn\tNZZ\ttrue\tGerman\tZürich\t\t\n"+
		"x\t1870\tkaputte id\tNZZ\ttrue\tGerman\tZürich\t\t\n"+
		"3\t1870\tzu wenig spalten\n"+
		"4\t1870\tEisenbahn\tNZZ\ttrue\tGerman\tZürich\t\tsieben\n"+
		"5\t1870\tEisenbahn\tNZZ\ttrue\tGerman\tZürich\t\t\n")
	require.NoError(t, os.WriteFile(filepath.Join(f.docs, "b.tsv.gz"), []byte("plain text"), 0o644))
	writeGzip(t, f.docs, "c.tsv.gz", "id\tdate\n1\t1870\n")
	require.NoError(t, os.WriteFile(filepath.Join(f.docs, ".hidden"), []byte("ignored"), 0o644))

	// When: ingesting with a small batch size
	rec := &countingRecorder{}
	progress := &reportingProgress{}
	summary, err := f.run(t, Config{BatchSize: 1, Workers: 2}, WithRecorder(rec), WithProgress(progress))

	// Then: the good records of the good file are indexed
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 1, summary.FilesFinished)
	assert.Equal(t, 2, summary.FilesFailed)
	assert.Equal(t, int64(2), summary.Indexed)
	assert.Equal(t, int64(3), summary.Skipped)

	assert.Equal(t, map[string]int{FileOK: 1, FileFailed: 2}, rec.files)
	assert.Equal(t, map[string]int{DocumentIndexed: 2, DocumentSkipped: 3}, rec.documents)

	assert.Equal(t, 3, progress.files)
	require.Len(t, progress.reports, 3)
	assert.Equal(t, FileOK, progress.reports["a.tsv.gz"].Outcome)
	assert.Equal(t, int64(2), progress.reports["a.tsv.gz"].Indexed)
	assert.Equal(t, int64(3), progress.reports["a.tsv.gz"].Skipped)
	assert.Equal(t, FileFailed, progress.reports["b.tsv.gz"].Outcome)
	assert.Error(t, progress.reports["c.tsv.gz"].Err)

	n, err := f.reader(t).DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestPipeline_ClearsPreviousIndex(t *testing.T) {
	f := newFixture(t)
	writeGzip(t, f.docs, "a.tsv.gz", header+"1\t1870\tEisenbahn\tNZZ\ttrue\tGerman\tZürich\t\t\n")
	_, err := f.run(t, Config{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(f.docs, "a.tsv.gz")))
	writeGzip(t, f.docs, "b.tsv.gz", header+"2\t1870\tDampfschiff\tNZZ\ttrue\tGerman\tZürich\t\t\n")
	_, err = f.run(t, Config{})
	require.NoError(t, err)

	r := f.reader(t)
	_, err = r.TextData("1")
	assert.Equal(t, cerrors.ErrCodeDocumentRead, cerrors.GetCode(err), "earlier run's documents are gone")
	_, err = r.TextData("2")
	assert.NoError(t, err)
}

func TestPipeline_JSONLines(t *testing.T) {
	f := newFixture(t)
	writeGzip(t, f.docs, "a.jsonl.gz", strings.Join([]string{
		`{"cid": "10", "date": "1901", "text": "Luftschiff gesichtet", "page_access": "https://example.org/10", "title": "Der Bund"}`,
		``,
		`{"cid": 11, "date": "1902-03-04", "text": "Luftschiff gelandet", "page_access": "", "title": "Der Bund"}`,
		`{not json}`,
	}, "\n"))

	summary, err := f.run(t, Config{Format: FormatJSON})

	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Indexed)
	assert.Equal(t, int64(1), summary.Skipped)

	td, err := f.reader(t).TextData("10")
	require.NoError(t, err)
	assert.Equal(t, "1901-01-01", td.Date)
	assert.Equal(t, "https://example.org/10", td.Link)
	assert.Equal(t, "Der Bund", td.Publisher)
}

func TestPipeline_JSONLinesGeocoding(t *testing.T) {
	// Given: JSON lines naming a place, a resolvable source, and nothing resolvable
	f := newFixture(t)
	writeGzip(t, f.docs, "b.jsonl.gz", strings.Join([]string{
		`{"cid": "20", "date": "1900", "text": "a", "title": "Der Bund", "place": "Zürich"}`,
		`{"cid": "21", "date": "1900", "text": "b", "title": "Der Bund", "place": "Winterthur", "source": "NZZ"}`,
		`{"cid": "22", "date": "1900", "text": "c", "title": "Der Bund", "source": "Nirgendwo"}`,
	}, "\n"))

	// When: ingesting them
	_, err := f.run(t, Config{Format: FormatJSON})
	require.NoError(t, err)
	r := f.reader(t)

	// Then: the source key serves as the location fallback
	tests := []struct {
		id   string
		want corpus.Coordinates
	}{
		{"20", corpus.Coordinates{Latitude: 47.3769, Longitude: 8.5417}},
		{"21", corpus.Coordinates{Latitude: 47.3769, Longitude: 8.5417}},
		{"22", corpus.Unresolved},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			td, err := r.TextData(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, corpus.Coordinates{Latitude: td.Latitude, Longitude: td.Longitude})
		})
	}
}

func TestDefaultColumns_FallbackIsOptIn(t *testing.T) {
	exportHeader := make([]string, 40)
	record := make([]string, 40)
	record[0], record[10], record[38], record[39] = "1", "text", "Winterthur", "NZZ"

	tests := []struct {
		name     string
		fallback string
		want     string
	}{
		{"defaults leave the fallback unset", "", ""},
		{"configured column feeds the fallback", "39", "NZZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: the default positional layout
			cols := DefaultColumns()
			cols.FallbackPlace = tt.fallback

			// When: mapping an export record
			l, err := cols.resolve(exportHeader)
			require.NoError(t, err)
			src := l.source(record)

			// Then: only a configured column supplies the fallback place
			assert.Equal(t, "Winterthur", src.PlaceOfPublication)
			assert.Equal(t, tt.want, src.FallbackPlace)
		})
	}
}

func TestPipeline_CancelledContextStillFinalizes(t *testing.T) {
	f := newFixture(t)
	writeGzip(t, f.docs, "a.tsv.gz", header+"1\t1870\tEisenbahn\tNZZ\ttrue\tGerman\tZürich\t\t\n")

	w, err := store.OpenWriter(f.index)
	require.NoError(t, err)
	p, err := NewPipeline(w, testLocations(), Config{Documents: f.docs, Columns: testColumns()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := p.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.FilesFinished)

	// The lock was released, so a new writer can open the index.
	w2, err := store.OpenWriter(f.index)
	require.NoError(t, err)
	require.NoError(t, w2.Close())
}

func TestPipeline_MissingDocumentsDirectory(t *testing.T) {
	f := newFixture(t)
	w, err := store.OpenWriter(f.index)
	require.NoError(t, err)
	p, err := NewPipeline(w, testLocations(), Config{Documents: filepath.Join(f.docs, "missing")})
	require.NoError(t, err)

	_, err = p.Run(context.Background())

	assert.True(t, cerrors.IsFatal(err))
}

func TestNewPipeline_RejectsUnknownFormat(t *testing.T) {
	w, err := store.NewMemWriter()
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = NewPipeline(w, testLocations(), Config{Format: "xml"})

	assert.Equal(t, cerrors.ErrCodeConfigInvalid, cerrors.GetCode(err))
}

func withoutElapsed(s Summary) Summary {
	s.Elapsed = 0
	return s
}
