package cmd

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/search"
	"github.com/Aman-CERP/corpusexplorer/internal/store"
	"github.com/Aman-CERP/corpusexplorer/internal/transport"
)

func newSearchCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <mode> [param=value ...]",
		Short: "Run one search against the index",
		Long: `Run one search and print the response body, exactly as serve would
return it. Modes: ` + strings.Join(search.Modes, ", ") + `.
Route paths such as fulltext/similar are accepted too.

Parameters use the HTTP names: primary, selections, exclusions, length,
time, longitude, latitude, language, cluster, corpus, id, page. Repeat a
parameter to pass several values.`,
		Example: `  corpusexplorer search fulltext primary=Frieden page=1
  corpusexplorer search document/similar id=1834
  corpusexplorer search export primary=Zeitung time=1850,1870 > hits.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseMode(args[0])
			if err != nil {
				return err
			}
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			cfg, logger, err := o.load(false)
			if err != nil {
				return err
			}

			reader := store.NewReader(cfg.Paths.Index, store.WithReaderLogger(logger))
			defer func() { _ = reader.Close() }()

			set, err := search.NewSet(reader, cfg.SearchConfig(), nil, search.WithLogger(logger))
			if err != nil {
				return err
			}

			resp := set[mode].Search(cmd.Context(), params)
			if _, err := cmd.OutOrStdout().Write(resp.Body); err != nil {
				return err
			}
			if !strings.HasSuffix(string(resp.Body), "\n") {
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			if resp.Err != nil {
				return silentError{resp.Err}
			}
			return nil
		},
	}
	return cmd
}

// parseMode accepts a mode name or its route path.
func parseMode(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	for _, m := range search.Modes {
		if arg == m || "/"+strings.TrimPrefix(arg, "/") == transport.Routes[m] {
			return m, nil
		}
	}
	modes := append([]string(nil), search.Modes...)
	sort.Strings(modes)
	return "", cerrors.ParseError("mode", arg, nil).
		WithSuggestion("Use one of: " + strings.Join(modes, ", "))
}

// parseParams turns key=value arguments into request parameters.
func parseParams(args []string) (url.Values, error) {
	params := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, cerrors.ParseError("parameter", arg, nil).
				WithSuggestion("Pass parameters as key=value")
		}
		params.Add(key, value)
	}
	return params, nil
}
