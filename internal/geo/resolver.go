// Package geo resolves places of publication to coordinates using a
// lookup table loaded once from a side file.
package geo

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
)

// Location is one entry of the lookup table.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Coordinates returns the location as corpus coordinates.
func (l Location) Coordinates() corpus.Coordinates {
	return corpus.Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
}

// Resolver maps place keys to locations. The table is built lazily on first
// use, exactly once, and never modified afterwards, so a Resolver is safe
// for concurrent use.
type Resolver struct {
	path   string
	logger *slog.Logger

	once  sync.Once
	table map[string]Location
	err   error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for skipped lines.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver backed by the locations file at path.
// An empty path yields a resolver that resolves nothing.
func NewResolver(path string, opts ...Option) *Resolver {
	r := &Resolver{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewStaticResolver creates a resolver over an in-memory table.
func NewStaticResolver(locations map[string]Location) *Resolver {
	r := &Resolver{logger: slog.Default()}
	table := make(map[string]Location, len(locations))
	for k, v := range locations {
		table[k] = v
	}
	r.once.Do(func() { r.table = table })
	return r
}

// Load builds the table if that has not happened yet and returns the
// number of entries and the load error, if any. Concurrent callers block
// until the single load finishes.
func (r *Resolver) Load() (int, error) {
	r.once.Do(r.load)
	return len(r.table), r.err
}

func (r *Resolver) load() {
	r.table = map[string]Location{}
	if r.path == "" {
		return
	}

	f, err := os.Open(r.path)
	if err != nil {
		r.err = cerrors.ConfigError("failed to open locations file "+r.path, err)
		return
	}
	defer func() { _ = f.Close() }()

	table, skipped, err := Parse(f)
	if err != nil {
		r.err = cerrors.ConfigError("failed to read locations file "+r.path, err)
		return
	}
	r.table = table

	for _, line := range skipped {
		r.logger.Warn("location_line_skipped",
			slog.String("file", r.path),
			slog.Int("line", line))
	}
	r.logger.Info("locations_loaded",
		slog.String("file", r.path),
		slog.Int("entries", len(table)),
		slog.Int("skipped", len(skipped)))
}

// Lookup returns the location for key.
func (r *Resolver) Lookup(key string) (Location, bool) {
	r.once.Do(r.load)
	loc, ok := r.table[strings.TrimSpace(key)]
	return loc, ok
}

// Resolve geocodes a place of publication, falling back to a second key
// when the place itself is unknown. It returns corpus.Unresolved when
// neither key resolves.
func (r *Resolver) Resolve(place, fallback string) corpus.Coordinates {
	if loc, ok := r.Lookup(place); ok {
		return loc.Coordinates()
	}
	if fallback != "" {
		if loc, ok := r.Lookup(fallback); ok {
			return loc.Coordinates()
		}
	}
	return corpus.Unresolved
}

// Parse reads a locations file. Each line is "key:name:latitude:longitude";
// blank lines and lines starting with '#' are ignored. Malformed lines and
// lines with out-of-range coordinates are skipped and reported by line number.
func Parse(r io.Reader) (map[string]Location, []int, error) {
	table := make(map[string]Location)
	var skipped []int

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, loc, err := parseLine(line)
		if err != nil {
			skipped = append(skipped, lineNo)
			continue
		}
		table[key] = loc
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return table, skipped, nil
}

func parseLine(line string) (string, Location, error) {
	parts := strings.Split(line, ":")
	if len(parts) != 4 {
		return "", Location{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return "", Location{}, err
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil {
		return "", Location{}, err
	}

	loc := Location{Name: strings.TrimSpace(parts[1]), Latitude: lat, Longitude: lon}
	if !loc.Coordinates().Resolved() {
		return "", Location{}, fmt.Errorf("coordinates out of range: %v,%v", lat, lon)
	}
	return strings.TrimSpace(parts[0]), loc, nil
}
