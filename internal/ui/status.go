package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// StatusInfo describes an on-disk index.
type StatusInfo struct {
	IndexPath    string    `json:"index_path"`
	Exists       bool      `json:"exists"`
	Documents    uint64    `json:"documents"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
	// Locked reports a running `corpusexplorer index`.
	Locked bool `json:"locked"`
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render writes the status as text.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index: "+info.IndexPath))

	if !info.Exists {
		_, _ = fmt.Fprintf(r.out, "  State:     %s\n", r.styles.Warning.Render("missing"))
		_, _ = fmt.Fprintln(r.out, "  Run `corpusexplorer index` to build it.")
		return nil
	}

	state := r.styles.Success.Render("ready")
	if info.Locked {
		state = r.styles.Warning.Render("indexing")
	}
	_, _ = fmt.Fprintf(r.out, "  State:     %s\n", state)
	_, _ = fmt.Fprintf(r.out, "  Documents: %d\n", info.Documents)
	_, _ = fmt.Fprintf(r.out, "  Size:      %s\n", FormatBytes(info.SizeBytes))
	if !info.LastModified.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Modified:  %s\n", formatTime(info.LastModified, time.Now()))
	}
	return nil
}

// RenderJSON writes the status as indented JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// formatTime renders t relative to now for the last week and as a date
// before that.
func formatTime(t, now time.Time) string {
	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
