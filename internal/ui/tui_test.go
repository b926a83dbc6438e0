package ui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/corpusexplorer/internal/ingest"
)

func TestNewTUIRenderer_RequiresTTY(t *testing.T) {
	_, err := NewTUIRenderer(NewConfig(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestIngestModel_View(t *testing.T) {
	// Given: a model over a tracker with progress
	tr := NewTracker()
	m := newIngestModel(tr, "/corpus")
	m.styles = NoColorStyles()

	assert.Contains(t, m.View(), "Listing files")

	tr.Started(4)
	tr.FileDone(ingest.FileReport{Path: "/corpus/a.tsv.gz", Outcome: ingest.FileOK, Indexed: 12, Filtered: 3})
	tr.FileDone(ingest.FileReport{Path: "/corpus/b.tsv.gz", Outcome: ingest.FileFailed})

	// When: rendering
	view := m.View()

	// Then: progress and counts are shown
	assert.Contains(t, view, "corpusexplorer index • /corpus")
	assert.Contains(t, view, "2 / 4 files")
	assert.Contains(t, view, "50%")
	assert.Contains(t, view, "indexed 12")
	assert.Contains(t, view, "filtered 3")
	assert.Contains(t, view, "✗ 1 files failed")
	assert.Contains(t, view, "last: b.tsv.gz")
}

func TestIngestModel_Update(t *testing.T) {
	m := newIngestModel(NewTracker(), "")
	m.styles = NoColorStyles()

	t.Run("window size resizes the bar", func(t *testing.T) {
		_, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
		assert.Nil(t, cmd)
		assert.Equal(t, 120, m.width)
		assert.Equal(t, 100, m.bar.Width)
	})

	t.Run("complete quits with the summary", func(t *testing.T) {
		_, cmd := m.Update(completeMsg(ingest.Summary{Files: 2, FilesFinished: 2, Indexed: 40, Elapsed: 75 * time.Second}))
		require.NotNil(t, cmd)
		assert.True(t, m.complete)

		view := m.View()
		assert.Contains(t, view, "Index complete")
		assert.Contains(t, view, "2 / 2")
		assert.Contains(t, view, "1m 15s")
	})

	t.Run("ctrl+c quits and interrupts the run", func(t *testing.T) {
		interrupted := false
		m.onInterrupt = func() { interrupted = true }

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		assert.True(t, m.quitting)
		assert.True(t, interrupted)
	})
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "3m", formatDuration(3*time.Minute))
	assert.Equal(t, "3m 5s", formatDuration(185*time.Second))
	assert.Equal(t, "2h 10m", formatDuration(130*time.Minute))
}
