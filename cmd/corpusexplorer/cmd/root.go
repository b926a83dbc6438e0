// Package cmd provides the CLI commands of corpusexplorer.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/corpusexplorer/internal/config"
	"github.com/Aman-CERP/corpusexplorer/internal/logging"
	"github.com/Aman-CERP/corpusexplorer/internal/profiling"
	"github.com/Aman-CERP/corpusexplorer/pkg/version"
)

// rootOptions holds the persistent flags and the per-run resources the
// hooks set up and tear down.
type rootOptions struct {
	configPath string
	debug      bool
	profile    profiling.Config

	profiler       *profiling.Session
	loggingCleanup func()
}

// NewRootCmd creates the root command for the corpusexplorer CLI.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "corpusexplorer",
		Short: "Index and search a historical newspaper corpus",
		Long: `corpusexplorer ingests gzip-compressed corpus files into a full-text
index and serves document, full-text, more-like-this and CSV export
searches over it.

Configuration is read from ./corpusexplorer.yaml, then
$XDG_CONFIG_HOME/corpusexplorer/config.yaml, then built-in defaults.
CORPUSEXPLORER_* environment variables override the file.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("corpusexplorer version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "Config file (default: discovered)")
	cmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&o.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&o.profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&o.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = o.start
	cmd.PersistentPostRunE = o.stop

	cmd.AddCommand(newIndexCmd(o))
	cmd.AddCommand(newServeCmd(o))
	cmd.AddCommand(newSearchCmd(o))
	cmd.AddCommand(newStatusCmd(o))
	cmd.AddCommand(newConfigCmd(o))
	cmd.AddCommand(newLogsCmd(o))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// silentError marks an error whose details were already printed.
type silentError struct{ err error }

func (e silentError) Error() string { return e.err.Error() }
func (e silentError) Unwrap() error { return e.err }

// IsSilent reports whether err was already shown to the user.
func IsSilent(err error) bool {
	var s silentError
	return errors.As(err, &s)
}

func (o *rootOptions) start(_ *cobra.Command, _ []string) error {
	if !o.profile.Enabled() {
		return nil
	}
	session, err := profiling.Start(o.profile)
	if err != nil {
		return err
	}
	o.profiler = session
	return nil
}

func (o *rootOptions) stop(_ *cobra.Command, _ []string) error {
	var err error
	if o.profiler != nil {
		err = o.profiler.Stop()
		o.profiler = nil
	}
	if o.loggingCleanup != nil {
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
	return err
}

// loadConfig loads the --config file, or the discovered one.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = config.Discover(wd)
	}
	return config.Load(path)
}

// setupLogging installs the default logger for cfg. With quiet, nothing
// is written to stderr so an interactive display stays intact.
func (o *rootOptions) setupLogging(cfg *config.Config, quiet bool) (*slog.Logger, error) {
	lc := cfg.LoggingConfig(o.debug)
	if quiet {
		lc.WriteToStderr = false
		if lc.FilePath == "" {
			lc.FilePath = logging.DefaultLogPath()
		}
	}
	logger, cleanup, err := logging.Setup(lc)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	o.loggingCleanup = cleanup
	slog.SetDefault(logger)
	logger.Debug("config_loaded",
		slog.String("source", cfg.Source()),
		slog.String("index", cfg.Paths.Index),
		slog.String("version", version.Version))
	return logger, nil
}

// load is loadConfig followed by setupLogging.
func (o *rootOptions) load(quiet bool) (*config.Config, *slog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := o.setupLogging(cfg, quiet)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
