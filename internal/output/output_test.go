package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Marks(t *testing.T) {
	tests := []struct {
		name  string
		print func(w *Writer)
		want  string
	}{
		{"status", func(w *Writer) { w.Status("→", "Loading locations") }, "→ Loading locations\n"},
		{"indented", func(w *Writer) { w.Status("", "detail") }, "  detail\n"},
		{"statusf", func(w *Writer) { w.Statusf("→", "%d files", 3) }, "→ 3 files\n"},
		{"success", func(w *Writer) { w.Successf("Wrote %s", "corpusexplorer.yaml") }, "✓ Wrote corpusexplorer.yaml\n"},
		{"warning", func(w *Writer) { w.Warningf("%s already exists", "corpusexplorer.yaml") }, "! corpusexplorer.yaml already exists\n"},
		{"error", func(w *Writer) { w.Errorf("invalid: %s", "page_size") }, "✗ invalid: page_size\n"},
		{"field", func(w *Writer) { w.Field("index", "/srv/index") }, "  index: /srv/index\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a plain writer
			buf := &bytes.Buffer{}
			w := New(buf)

			// When: printing
			tt.print(w)

			// Then: the line has no escape codes
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_Block(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Block("serve:\n  page_size: 20\n")

	assert.Equal(t, "\n  serve:\n    page_size: 20\n\n", buf.String())
}

func TestWriter_WithColorKeepsText(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf, WithColor()).Success("done")

	assert.Contains(t, buf.String(), "done")
	assert.Contains(t, buf.String(), "✓")
}
