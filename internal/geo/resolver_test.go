package geo

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
)

const sampleLocations = `# key:name:latitude:longitude
Zürich:Zürich:47.3769:8.5417
Genève:Genf:46.2044:6.1432

NZZ:Zürich:47.3769:8.5417
broken line
Atlantis:Atlantis:123:0
`

func writeLocations(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "locations.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	table, skipped, err := Parse(strings.NewReader(sampleLocations))

	require.NoError(t, err)
	assert.Len(t, table, 3)
	assert.Equal(t, Location{Name: "Genf", Latitude: 46.2044, Longitude: 6.1432}, table["Genève"])
	assert.Equal(t, []int{6, 7}, skipped, "malformed and out-of-range lines are reported")
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(writeLocations(t, sampleLocations))

	tests := []struct {
		name     string
		place    string
		fallback string
		want     corpus.Coordinates
	}{
		{
			name:  "place resolves",
			place: "Genève",
			want:  corpus.Coordinates{Latitude: 46.2044, Longitude: 6.1432},
		},
		{
			name:     "place wins over fallback",
			place:    "Genève",
			fallback: "NZZ",
			want:     corpus.Coordinates{Latitude: 46.2044, Longitude: 6.1432},
		},
		{
			name:     "fallback used when place is unknown",
			place:    "Unbekannt",
			fallback: "NZZ",
			want:     corpus.Coordinates{Latitude: 47.3769, Longitude: 8.5417},
		},
		{
			name:     "neither resolves",
			place:    "Unbekannt",
			fallback: "Nirgendwo",
			want:     corpus.Unresolved,
		},
		{
			name: "empty place and fallback",
			want: corpus.Unresolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.place, tt.fallback))
		})
	}
}

func TestResolver_Load_MissingFileIsConfigError(t *testing.T) {
	r := NewResolver(filepath.Join(t.TempDir(), "missing.txt"))

	n, err := r.Load()

	assert.Zero(t, n)
	assert.Equal(t, cerrors.ErrCodeConfigInvalid, cerrors.GetCode(err))
	assert.Equal(t, corpus.Unresolved, r.Resolve("Zürich", ""))
}

func TestResolver_EmptyPathResolvesNothing(t *testing.T) {
	r := NewResolver("")

	n, err := r.Load()

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, corpus.Unresolved, r.Resolve("Zürich", ""))
}

func TestResolver_ConcurrentFirstAccessLoadsOnce(t *testing.T) {
	// Given: a resolver that has not loaded yet
	path := writeLocations(t, sampleLocations)
	r := NewResolver(path)

	// When: many goroutines hit it at once
	var wg sync.WaitGroup
	results := make([]corpus.Coordinates, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve("Zürich", "")
		}(i)
	}
	wg.Wait()

	// Then: every caller sees the same, fully built table
	for _, c := range results {
		assert.Equal(t, corpus.Coordinates{Latitude: 47.3769, Longitude: 8.5417}, c)
	}

	// And: later changes to the file are never observed
	require.NoError(t, os.WriteFile(path, []byte("Zürich:Zürich:0:0\n"), 0o644))
	n, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNewStaticResolver(t *testing.T) {
	src := map[string]Location{"Bern": {Name: "Bern", Latitude: 46.95, Longitude: 7.45}}
	r := NewStaticResolver(src)
	delete(src, "Bern")

	loc, ok := r.Lookup("Bern")
	assert.True(t, ok, "resolver keeps its own copy of the table")
	assert.Equal(t, 46.95, loc.Latitude)
}
