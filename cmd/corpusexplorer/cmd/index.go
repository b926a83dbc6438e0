package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/corpusexplorer/internal/config"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/geo"
	"github.com/Aman-CERP/corpusexplorer/internal/ingest"
	"github.com/Aman-CERP/corpusexplorer/internal/profiling"
	"github.com/Aman-CERP/corpusexplorer/internal/store"
	"github.com/Aman-CERP/corpusexplorer/internal/telemetry"
	"github.com/Aman-CERP/corpusexplorer/internal/ui"
)

type indexOptions struct {
	plain          bool
	noColor        bool
	includeNonOpen bool
	wait           int
	metricsAddr    string
}

func newIndexCmd(o *rootOptions) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the index from the corpus files",
		Long: `Rebuild the index from every corpus file in paths.documents.

The index is cleared first. Files are ingested in parallel; a file that
fails is reported and the others continue. When ingest.timeout expires
the running files are cancelled and the documents committed so far stay
searchable.

Only one index run may hold an index at a time. Use --wait to retry while
another run holds the lock.`,
		Example: `  # Rebuild with the discovered configuration
  corpusexplorer index

  # Plain output and open-access filtering disabled
  corpusexplorer index --plain --include-non-open`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, o, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Plain line output instead of the progress display")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors")
	cmd.Flags().BoolVar(&opts.includeNonOpen, "include-non-open", false, "Also index records not flagged open access")
	cmd.Flags().IntVar(&opts.wait, "wait", 0, "Retry this many times while another run holds the index lock")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, o *rootOptions, opts indexOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	if opts.includeNonOpen {
		cfg.Ingest.IncludeNonOpen = true
	}

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.plain),
		ui.WithNoColor(opts.noColor || ui.DetectNoColor()),
		ui.WithDocuments(cfg.Paths.Documents),
		ui.WithInterrupt(cancel)))
	_, interactive := renderer.(*ui.TUIRenderer)

	logger, err := o.setupLogging(cfg, interactive)
	if err != nil {
		return err
	}

	// A broken locations file fails the run before the index is touched.
	resolver := geo.NewResolver(cfg.Paths.Locations, geo.WithLogger(logger))
	if _, err := resolver.Load(); err != nil {
		return err
	}

	writer, err := openWriter(ctx, cfg, opts.wait, logger)
	if err != nil {
		return err
	}

	metrics := telemetry.New(prometheus.NewRegistry())
	if opts.metricsAddr != "" {
		stopMetrics := serveMetrics(opts.metricsAddr, metrics, logger)
		defer stopMetrics()
	}

	pipeline, err := ingest.NewPipeline(writer, resolver, cfg.IngestConfig(),
		ingest.WithLogger(logger),
		ingest.WithRecorder(metrics),
		ingest.WithProgress(renderer))
	if err != nil {
		_ = writer.Close()
		return err
	}

	if err := renderer.Start(ctx); err != nil {
		_ = writer.Close()
		return err
	}

	summary, err := pipeline.Run(ctx)
	renderer.Complete(summary)
	_ = renderer.Stop()

	logger.Debug("ingest_memory", slog.Uint64("heap_in_use", profiling.HeapInUse()))

	if err != nil {
		return err
	}
	if summary.FilesFailed > 0 && summary.FilesFinished == 0 {
		return silentError{errors.New("no corpus file could be ingested")}
	}
	return nil
}

// openWriter opens the index for writing, retrying up to wait times
// while another process holds the lock.
func openWriter(ctx context.Context, cfg *config.Config, wait int, logger *slog.Logger) (*store.Writer, error) {
	b := cerrors.LockBackoff(wait)
	b.OnRetry = func(retry int, d time.Duration, _ error) {
		logger.Info("index_locked_waiting",
			slog.String("index", cfg.Paths.Index),
			slog.Int("retry", retry),
			slog.Duration("wait", d))
	}
	return cerrors.Retry(ctx, b, func() (*store.Writer, error) {
		return store.OpenWriter(cfg.Paths.Index, store.WithWriterLogger(logger))
	})
}

// serveMetrics exposes the run's metrics until the returned func is called.
func serveMetrics(addr string, metrics *telemetry.Metrics, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics_listening", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", slog.String("error", err.Error()))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
