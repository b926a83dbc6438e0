package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/corpusexplorer/internal/logging"
	"github.com/Aman-CERP/corpusexplorer/internal/ui"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	grep    string
	events  []string
	file    string
	noColor bool
}

func newLogsCmd(o *rootOptions) *cobra.Command {
	lo := &logsOptions{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the corpusexplorer log file",
		Long: `View the JSON log file written by index and serve.

Entries are shown as "time LEVEL event key=value ...". Lines that are not
JSON are shown unchanged.`,
		Example: `  # Last 50 entries
  corpusexplorer logs

  # Follow warnings and errors
  corpusexplorer logs -f --level warn

  # Failed files only
  corpusexplorer logs --event ingest_file_failed -n 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if lo.file == "" {
				// A broken config must not hide the default log file.
				if cfg, err := o.loadConfig(); err == nil {
					lo.file = cfg.Logging.File
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runLogs(ctx, cmd.OutOrStdout(), lo)
		},
	}

	cmd.Flags().BoolVarP(&lo.follow, "follow", "f", false, "Follow new entries")
	cmd.Flags().IntVarP(&lo.lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().StringVar(&lo.level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&lo.grep, "grep", "", "Regular expression the raw line must match")
	cmd.Flags().StringSliceVar(&lo.events, "event", nil, "Only show these events")
	cmd.Flags().StringVar(&lo.file, "file", "", "Log file (default: from config)")
	cmd.Flags().BoolVar(&lo.noColor, "no-color", false, "Disable colors")

	return cmd
}

func runLogs(ctx context.Context, out io.Writer, lo *logsOptions) error {
	path, err := logging.FindLogFile(lo.file)
	if err != nil {
		return err
	}

	vc := logging.ViewerConfig{
		Level:   lo.level,
		Events:  lo.events,
		NoColor: lo.noColor || ui.DetectNoColor() || !ui.IsTTY(out),
	}
	if lo.grep != "" {
		re, err := regexp.Compile(lo.grep)
		if err != nil {
			return fmt.Errorf("invalid --grep pattern: %w", err)
		}
		vc.Pattern = re
	}
	viewer := logging.NewViewer(vc, out)

	entries, err := viewer.Tail(path, lo.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !lo.follow {
		return nil
	}

	ch := make(chan logging.LogEntry, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range ch {
			viewer.Print([]logging.LogEntry{entry})
		}
	}()

	err = viewer.Follow(ctx, path, ch)
	close(ch)
	<-done
	return err
}
