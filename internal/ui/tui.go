package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/corpusexplorer/internal/ingest"
)

// TUIRenderer draws a live progress panel with bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *ingestModel
	tracker *Tracker
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. It fails when the output is not
// a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	tracker := NewTracker()
	model := newIngestModel(tracker, cfg.Documents)
	model.onInterrupt = cfg.OnInterrupt
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// Started implements ingest.Progress.
func (r *TUIRenderer) Started(files int) {
	r.tracker.Started(files)
	r.send(refreshMsg{})
}

// FileDone implements ingest.Progress.
func (r *TUIRenderer) FileDone(report ingest.FileReport) {
	r.tracker.FileDone(report)
	r.send(refreshMsg{})
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(summary ingest.Summary) {
	r.send(completeMsg(summary))
}

// Stop implements Renderer. It waits briefly for the program to exit.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return nil
	}
	program.Quit()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

func (r *TUIRenderer) send(msg tea.Msg) {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()
	if program != nil {
		program.Send(msg)
	}
}

type refreshMsg struct{}
type completeMsg ingest.Summary
type tickMsg time.Time

// ingestModel is the bubbletea model of the progress panel.
type ingestModel struct {
	tracker   *Tracker
	documents string
	width     int
	quitting  bool
	complete  bool
	summary   ingest.Summary
	spinner   spinner.Model
	bar       progress.Model
	styles    Styles

	onInterrupt func()
}

func newIngestModel(tracker *Tracker, documents string) *ingestModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	return &ingestModel{
		tracker:   tracker,
		documents: documents,
		width:     80,
		spinner:   s,
		bar: progress.New(
			progress.WithSolidFill(ColorAccent),
			progress.WithWidth(50),
			progress.WithoutPercentage(),
		),
		styles: DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m *ingestModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *ingestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-20, 20)
	case refreshMsg:
		return m, nil
	case completeMsg:
		m.complete = true
		m.summary = ingest.Summary(msg)
		return m, tea.Quit
	case tickMsg:
		m.tracker.Tick()
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *ingestModel) View() string {
	if m.quitting {
		return "Interrupted. Finishing running files...\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	width := max(m.width-4, 40)
	snap := m.tracker.Snapshot()

	sections := []string{
		m.renderProgress(snap),
		m.renderCounts(snap),
		m.renderSpeed(snap),
		m.styles.Rule.Render(strings.Repeat("─", width)),
		m.styles.Spark.Render(m.tracker.RenderSparkline(width-12)) + " " + m.styles.Dim.Render("docs/sec"),
	}
	if snap.LastFile != "" {
		sections = append(sections, m.styles.Dim.Render("last: "+snap.LastFile))
	}

	title := "corpusexplorer index"
	if m.documents != "" {
		title += " • " + m.documents
	}
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorRule)).
		Padding(0, 1).
		Width(width)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(title),
		panel.Render(strings.Join(sections, "\n")),
		m.renderStatus(snap),
	)
}

func (m *ingestModel) renderProgress(s Snapshot) string {
	if s.Files == 0 {
		return m.spinner.View() + " " + m.styles.Dim.Render("Listing files...")
	}
	return fmt.Sprintf("%s  %s\n%s",
		m.bar.ViewAs(s.Progress),
		m.styles.Value.Render(fmt.Sprintf("%3.0f%%", s.Progress*100)),
		m.styles.Label.Render(fmt.Sprintf("%d / %d files", s.Done, s.Files)))
}

func (m *ingestModel) renderCounts(s Snapshot) string {
	label, value := m.styles.Label.Render, m.styles.Value.Render
	return strings.Join([]string{
		label("indexed ") + value(fmt.Sprint(s.Indexed)),
		label("filtered ") + value(fmt.Sprint(s.Filtered)),
		label("skipped ") + value(fmt.Sprint(s.Skipped)),
	}, m.styles.Dim.Render("  •  "))
}

func (m *ingestModel) renderSpeed(s Snapshot) string {
	parts := []string{m.styles.Label.Render(fmt.Sprintf("Speed: %.0f docs/s (avg %.0f, peak %.0f)",
		s.Speed.Current, s.Speed.Avg, s.Speed.Peak))}
	if s.ETA > 0 {
		parts = append(parts, m.styles.Label.Render("ETA: "+formatDuration(s.ETA)))
	}
	return strings.Join(parts, m.styles.Dim.Render("  •  "))
}

func (m *ingestModel) renderStatus(s Snapshot) string {
	var parts []string
	if s.Failed > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("✗ %d files failed", s.Failed)))
	}
	if s.Cancelled > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("⚠ %d files cancelled", s.Cancelled)))
	}
	parts = append(parts, m.styles.Dim.Render("ctrl+c to stop"))
	return strings.Join(parts, m.styles.Dim.Render("  │  "))
}

func (m *ingestModel) renderComplete() string {
	s := m.summary
	label, value := m.styles.Label.Render, m.styles.Value.Render

	header := m.styles.Success.Render("✓ Index complete")
	if s.TimedOut {
		header = m.styles.Warning.Render("⚠ Index timed out")
	}
	lines := []string{
		header,
		"",
		label("Files:     ") + value(fmt.Sprintf("%d / %d", s.FilesFinished, s.Files)),
		label("Documents: ") + value(fmt.Sprint(s.Indexed)),
		label("Filtered:  ") + value(fmt.Sprint(s.Filtered)),
		label("Skipped:   ") + value(fmt.Sprint(s.Skipped)),
		label("Duration:  ") + value(formatDuration(s.Elapsed)),
	}
	if s.FilesFailed > 0 {
		lines = append(lines, "", m.styles.Error.Render(fmt.Sprintf("✗ %d files failed", s.FilesFailed)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(1, 2).
		Width(max(m.width-4, 40)).
		Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration formats a duration as 42s, 3m 5s or 2h 10m.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		m, s := int(d.Minutes()), int(d.Seconds())%60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

var _ Renderer = (*TUIRenderer)(nil)
