// Package output prints the short status lines of the one-shot commands
// (config, index, search) with optional lipgloss colors.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Writer prints status lines.
type Writer struct {
	out io.Writer

	ok, warn, fail, label lipgloss.Style
}

// Option configures a Writer.
type Option func(*Writer)

// WithColor colors the status marks.
func WithColor() Option {
	return func(w *Writer) {
		w.ok = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
		w.warn = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
		w.fail = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
		w.label = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	}
}

// New creates a Writer. Output is plain unless WithColor is given.
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		out:   out,
		ok:    lipgloss.NewStyle(),
		warn:  lipgloss.NewStyle(),
		fail:  lipgloss.NewStyle(),
		label: lipgloss.NewStyle(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Status prints msg behind a mark, or indented when mark is empty.
// Write errors are ignored for console output.
func (w *Writer) Status(mark, msg string) {
	if mark == "" {
		_, _ = fmt.Fprintf(w.out, "  %s\n", msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n", mark, msg)
}

// Statusf prints a formatted status line.
func (w *Writer) Statusf(mark, format string, args ...any) {
	w.Status(mark, fmt.Sprintf(format, args...))
}

// Success prints a line marked ✓.
func (w *Writer) Success(msg string) {
	w.Status(w.ok.Render("✓"), msg)
}

// Successf prints a formatted success line.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a line marked !.
func (w *Writer) Warning(msg string) {
	w.Status(w.warn.Render("!"), msg)
}

// Warningf prints a formatted warning line.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints a line marked ✗.
func (w *Writer) Error(msg string) {
	w.Status(w.fail.Render("✗"), msg)
}

// Errorf prints a formatted error line.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Field prints an indented "label: value" line.
func (w *Writer) Field(label string, value any) {
	_, _ = fmt.Fprintf(w.out, "  %s %v\n", w.label.Render(label+":"), value)
}

// Block prints content indented by two spaces between blank lines.
func (w *Writer) Block(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}
