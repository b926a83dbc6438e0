package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/corpusexplorer/internal/config"
	"github.com/Aman-CERP/corpusexplorer/internal/output"
	"github.com/Aman-CERP/corpusexplorer/internal/ui"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration files",
		Long: `Inspect and create configuration files.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. The configuration file: --config, else ./corpusexplorer.yaml,
     else $XDG_CONFIG_HOME/corpusexplorer/config.yaml
  3. Environment variables (CORPUSEXPLORER_*)`,
		Example: `  # Write a project config with the defaults
  corpusexplorer config init

  # Show the effective configuration
  corpusexplorer config show

  # Check a config file
  corpusexplorer --config prod.yaml config validate`,
	}

	cmd.AddCommand(newConfigInitCmd(o))
	cmd.AddCommand(newConfigShowCmd(o))
	cmd.AddCommand(newConfigValidateCmd(o))
	cmd.AddCommand(newConfigPathCmd(o))
	cmd.AddCommand(newConfigRestoreCmd(o))

	return cmd
}

func newWriter(cmd *cobra.Command) *output.Writer {
	if ui.IsTTY(cmd.OutOrStdout()) && !ui.DetectNoColor() {
		return output.New(cmd.OutOrStdout(), output.WithColor())
	}
	return output.New(cmd.OutOrStdout())
}

func newConfigInitCmd(o *rootOptions) *cobra.Command {
	var (
		force bool
		user  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Long: `Write a configuration file holding every setting at its default.

The file is ./corpusexplorer.yaml, the --config path, or with --user the
user configuration file. An existing file is kept unless --force is given,
in which case it is backed up first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := o.configPath
			switch {
			case user:
				path = config.GetUserConfigPath()
			case path == "":
				path = config.ProjectFileName
			}
			return runConfigInit(newWriter(cmd), path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user configuration file")

	return cmd
}

func runConfigInit(out *output.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warningf("%s already exists", path)
			out.Status("", "Use --force to overwrite it (a backup is kept)")
			return nil
		}
		backup, err := config.Backup(path)
		if err != nil {
			return err
		}
		out.Statusf("→", "Backed up to %s", filepath.Base(backup))
	}

	if err := config.NewConfig().WriteYAML(path); err != nil {
		return err
	}
	out.Successf("Wrote %s", path)
	return nil
}

func newConfigShowCmd(o *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			// Plain YAML when piped so the output can be saved as a config.
			if ui.IsTTY(cmd.OutOrStdout()) {
				out := newWriter(cmd)
				out.Field("source", sourceName(cfg))
				out.Block(string(data))
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n", sourceName(cfg))
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigValidateCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and the files it names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := newWriter(cmd)

			cfg, err := o.loadConfig()
			if err != nil {
				out.Error(err.Error())
				return silentError{err}
			}
			out.Successf("Configuration is valid (%s)", sourceName(cfg))

			out.Field("index", cfg.Paths.Index)
			out.Field("documents", cfg.Paths.Documents)
			out.Field("locations", cfg.Paths.Locations)

			if _, err := os.Stat(cfg.Paths.Documents); err != nil {
				out.Warningf("documents directory is not readable: %s", cfg.Paths.Documents)
			}
			if _, err := os.Stat(cfg.Paths.Locations); err != nil {
				out.Warningf("locations file is not readable: %s", cfg.Paths.Locations)
			}
			return nil
		},
	}
}

func newConfigPathCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sourceName(cfg))
			return err
		},
	}
}

func newConfigRestoreCmd(o *rootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore a configuration backup",
		Long: `Restore the newest backup of the configuration file, or the named one.
The current file is itself backed up first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newWriter(cmd)
			path := o.configPath
			if path == "" {
				path = config.ProjectFileName
			}

			backups, err := config.ListBackups(path)
			if err != nil {
				return err
			}
			if list {
				for _, b := range backups {
					out.Status("", b)
				}
				return nil
			}

			var backup string
			switch {
			case len(args) == 1:
				backup = args[0]
			case len(backups) > 0:
				backup = backups[0]
			default:
				out.Warningf("no backups of %s", path)
				return nil
			}

			if err := config.Restore(path, backup); err != nil {
				return err
			}
			out.Successf("Restored %s from %s", path, filepath.Base(backup))
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List backups, newest first")

	return cmd
}

func sourceName(cfg *config.Config) string {
	if cfg.Source() == "" {
		return "defaults"
	}
	return cfg.Source()
}
