package ui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Aman-CERP/corpusexplorer/internal/ingest"
)

// PlainRenderer prints one line per finished file (for CI and pipes).
type PlainRenderer struct {
	mu        sync.Mutex
	out       io.Writer
	documents string
	files     int
	done      int
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, documents: cfg.Documents}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// Started implements ingest.Progress.
func (r *PlainRenderer) Started(files int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.files = files
	if r.documents != "" {
		_, _ = fmt.Fprintf(r.out, "Indexing %d files from %s\n", files, r.documents)
		return
	}
	_, _ = fmt.Fprintf(r.out, "Indexing %d files\n", files)
}

// FileDone implements ingest.Progress.
func (r *PlainRenderer) FileDone(report ingest.FileReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done++
	name := filepath.Base(report.Path)
	tag := strings.ToUpper(report.Outcome)

	if report.Outcome == ingest.FileFailed && report.Err != nil {
		_, _ = fmt.Fprintf(r.out, "[%d/%d] %s %s: %v\n", r.done, r.files, tag, name, report.Err)
		return
	}
	_, _ = fmt.Fprintf(r.out, "[%d/%d] %s %s indexed=%d filtered=%d skipped=%d\n",
		r.done, r.files, tag, name, report.Indexed, report.Filtered, report.Skipped)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(s ingest.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d documents from %d/%d files in %s",
		s.Indexed, s.FilesFinished, s.Files, s.Elapsed.Round(100*time.Millisecond))

	var notes []string
	if s.Filtered > 0 {
		notes = append(notes, fmt.Sprintf("%d filtered", s.Filtered))
	}
	if s.Skipped > 0 {
		notes = append(notes, fmt.Sprintf("%d skipped", s.Skipped))
	}
	if s.FilesFailed > 0 {
		notes = append(notes, fmt.Sprintf("%d files failed", s.FilesFailed))
	}
	if s.TimedOut {
		notes = append(notes, "timed out")
	}
	if len(notes) > 0 {
		_, _ = fmt.Fprintf(r.out, " (%s)", strings.Join(notes, ", "))
	}
	_, _ = fmt.Fprintln(r.out)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
