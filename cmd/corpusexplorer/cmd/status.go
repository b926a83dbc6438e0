package cmd

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/corpusexplorer/internal/store"
	"github.com/Aman-CERP/corpusexplorer/internal/ui"
)

func newStatusCmd(o *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the index",
		Long: `Show whether the index exists, how many documents it holds, its size
on disk and whether an index run currently holds it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := o.load(false)
			if err != nil {
				return err
			}

			info, err := indexStatus(cfg.Paths.Index, logger)
			if err != nil {
				return err
			}

			r := ui.NewStatusRenderer(cmd.OutOrStdout(), noColor || ui.DetectNoColor())
			if jsonOutput {
				return r.RenderJSON(info)
			}
			return r.Render(info)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")

	return cmd
}

// indexStatus inspects the index directory at path. The document count is
// only read when no index run holds the index.
func indexStatus(path string, logger *slog.Logger) (ui.StatusInfo, error) {
	info := ui.StatusInfo{IndexPath: path}

	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return info, nil
	}
	if err != nil {
		return info, err
	}
	info.Exists = stat.IsDir()
	if !info.Exists {
		return info, nil
	}

	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		info.SizeBytes += fi.Size()
		if fi.ModTime().After(info.LastModified) {
			info.LastModified = fi.ModTime()
		}
		return nil
	})
	if err != nil {
		return info, err
	}

	locked, err := store.NewFileLock(path).HeldElsewhere()
	if err != nil {
		return info, err
	}
	info.Locked = locked
	if locked {
		return info, nil
	}

	reader := store.NewReader(path, store.WithReaderLogger(logger))
	defer func() { _ = reader.Close() }()
	n, err := reader.DocCount()
	if err != nil {
		return info, err
	}
	info.Documents = n
	return info, nil
}
