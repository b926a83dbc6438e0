//go:build ignore

// Package main generates a synthetic newspaper corpus for trying out and
// benchmarking the ingestion pipeline.
// Usage: go run scripts/generate-test-corpus.go -files 20 -rows 5000 -output testdata/corpus
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

var (
	numFiles  = flag.Int("files", 20, "Number of corpus files to generate")
	numRows   = flag.Int("rows", 5000, "Rows per file")
	outputDir = flag.String("output", "testdata/corpus", "Output directory")
	openShare = flag.Float64("open", 0.8, "Share of rows flagged open access")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// width matches the positional layout of the newspaper export files.
const width = 39

const (
	colID        = 0
	colDate      = 7
	colText      = 10
	colLink      = 13
	colOpen      = 24
	colLanguage  = 37
	colPublisher = 38
)

type place struct {
	key       string
	name      string
	lat, lon  float64
	language  string
	publisher string
}

var places = []place{
	{"zuerich", "Zürich", 47.3769, 8.5417, "German", "Neue Zürcher Zeitung"},
	{"bern", "Bern", 46.9480, 7.4474, "German", "Der Bund"},
	{"geneve", "Genève", 46.2044, 6.1432, "French", "Journal de Genève"},
	{"lausanne", "Lausanne", 46.5197, 6.6323, "French", "Gazette de Lausanne"},
	{"luxembourg", "Luxembourg", 49.6116, 6.1319, "Luxembourgish", "Luxemburger Wort"},
	{"lugano", "Lugano", 46.0037, 8.9511, "Italian", "Gazzetta Ticinese"},
	{"wien", "Wien", 48.2082, 16.3738, "German", "Wiener Zeitung"},
}

var vocabulary = map[string][]string{
	"German": {
		"Zeitung", "Krieg", "Frieden", "Regierung", "Bundesrat", "Eisenbahn",
		"Handel", "Wahlen", "Bürger", "Gemeinde", "Verkehr", "Preise", "Ernte",
		"Kanton", "Versammlung", "Nachricht", "Ausland", "Gesetz", "Arbeiter",
	},
	"French": {
		"journal", "guerre", "paix", "gouvernement", "chemin", "fer", "commerce",
		"élections", "citoyens", "commune", "prix", "récolte", "canton",
		"assemblée", "nouvelles", "étranger", "loi", "ouvriers",
	},
	"Italian": {
		"giornale", "guerra", "pace", "governo", "ferrovia", "commercio",
		"elezioni", "cittadini", "comune", "prezzi", "raccolto", "notizie",
	},
	"Luxembourgish": {
		"Zeitung", "Krich", "Fridden", "Regierung", "Eisebunn", "Handel",
		"Walen", "Gemeng", "Präisser", "Noriichten",
	},
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(filepath.Join(*outputDir, "documents"), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	if err := writeLocations(filepath.Join(*outputDir, "locations.txt")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write locations: %v\n", err)
		os.Exit(1)
	}

	id := 1
	for i := 0; i < *numFiles; i++ {
		path := filepath.Join(*outputDir, "documents", fmt.Sprintf("corpus-%04d.tsv.gz", i))
		next, err := writeFile(path, rng, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		id = next
	}

	fmt.Printf("Generated %d files with %d documents in %s\n", *numFiles, id-1, *outputDir)
}

func writeLocations(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# key:name:latitude:longitude")
	for _, p := range places {
		// Publisher names are the lookup keys of the default layout.
		fmt.Fprintf(w, "%s:%s:%.4f:%.4f\n", p.publisher, p.name, p.lat, p.lon)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeFile(path string, rng *rand.Rand, firstID int) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return firstID, err
	}
	gz := gzip.NewWriter(f)
	w := csv.NewWriter(gz)
	w.Comma = '\t'

	header := make([]string, width)
	for i := range header {
		header[i] = "col" + strconv.Itoa(i)
	}
	header[colID], header[colDate], header[colText] = "id", "date", "text"
	header[colLink], header[colOpen] = "link", "open"
	header[colLanguage], header[colPublisher] = "language", "publisher"
	if err := w.Write(header); err != nil {
		return firstID, err
	}

	id := firstID
	row := make([]string, width)
	for i := 0; i < *numRows; i++ {
		p := places[rng.Intn(len(places))]
		for j := range row {
			row[j] = ""
		}
		row[colID] = strconv.Itoa(id)
		row[colDate] = randomDate(rng)
		row[colText] = randomText(rng, p.language)
		row[colLink] = fmt.Sprintf("https://archive.example.org/%s/%d", p.key, id)
		row[colOpen] = strconv.FormatBool(rng.Float64() < *openShare)
		row[colLanguage] = p.language
		row[colPublisher] = p.publisher
		if err := w.Write(row); err != nil {
			return id, err
		}
		id++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return id, err
	}
	if err := gz.Close(); err != nil {
		return id, err
	}
	return id, f.Close()
}

// randomDate returns a full, month-only or year-only date between 1800
// and 1950, the partial forms the ingestion pads.
func randomDate(rng *rand.Rand) string {
	year := 1800 + rng.Intn(151)
	switch rng.Intn(10) {
	case 0:
		return strconv.Itoa(year)
	case 1:
		return fmt.Sprintf("%d-%02d", year, 1+rng.Intn(12))
	default:
		return fmt.Sprintf("%d-%02d-%02d", year, 1+rng.Intn(12), 1+rng.Intn(28))
	}
}

func randomText(rng *rand.Rand, language string) string {
	words := vocabulary[language]
	n := 20 + rng.Intn(200)
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			if rng.Intn(40) == 0 {
				b.WriteString("&nbsp;")
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(words[rng.Intn(len(words))])
	}
	return b.String()
}
