package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, git commit, build date and Go version.
Formats: text (default), json, short (version only).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			switch format {
			case "text", "":
				_, err := fmt.Fprintln(w, version.String())
				return err
			case "short":
				_, err := fmt.Fprintln(w, version.Short())
				return err
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(version.GetInfo())
			default:
				return cerrors.ParseError("output", format, nil).
					WithSuggestion("Use text, json or short")
			}
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format: text, json or short")

	return cmd
}
