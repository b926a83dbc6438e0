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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/corpusexplorer/internal/search"
	"github.com/Aman-CERP/corpusexplorer/internal/store"
	"github.com/Aman-CERP/corpusexplorer/internal/telemetry"
	"github.com/Aman-CERP/corpusexplorer/internal/transport"
	"github.com/Aman-CERP/corpusexplorer/pkg/version"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 15 * time.Second

func newServeCmd(o *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the searchers over HTTP",
		Long: `Serve the searchers over HTTP:

  GET /document          visualization payloads of every match
  GET /fulltext          one page of text payloads (page=0,1,...)
  GET /document/similar  documents like id=N, visualization payloads
  GET /fulltext/similar  documents like id=N, text payloads
  GET /export            matches as CSV
  GET /metrics           Prometheus metrics
  GET /healthz           index availability

The index is opened read-only on the first request. Documents committed
by a later index run are visible after a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, o, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: serve.addr)")

	return cmd
}

func runServe(ctx context.Context, o *rootOptions, addr string) error {
	cfg, logger, err := o.load(false)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Serve.Addr
	}

	reader := store.NewReader(cfg.Paths.Index, store.WithReaderLogger(logger))
	defer func() { _ = reader.Close() }()

	metrics, _ := telemetry.NewWithProcess()
	set, err := search.NewSet(reader, cfg.SearchConfig(), metrics, search.WithLogger(logger))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: addr,
		Handler: transport.NewRouter(set,
			transport.WithLogger(logger),
			transport.WithMetrics(metrics),
			transport.WithHealth(reader)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server_listening",
			slog.String("addr", addr),
			slog.String("index", cfg.Paths.Index),
			slog.String("version", version.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server_stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server_stopped")
	return nil
}
