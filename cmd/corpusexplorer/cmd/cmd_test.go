package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/corpusexplorer/internal/config"
	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/store"
	"github.com/Aman-CERP/corpusexplorer/pkg/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"index", "serve", "search", "status", "config", "logs", "version"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		})
	}
}

func TestVersionCmd(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		out, err := execute(t, "version")
		require.NoError(t, err)
		assert.Equal(t, version.String()+"\n", out)
	})

	t.Run("short", func(t *testing.T) {
		out, err := execute(t, "version", "-o", "short")
		require.NoError(t, err)
		assert.Equal(t, version.Version+"\n", out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "version", "--output", "json")
		require.NoError(t, err)

		var info version.BuildInfo
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, version.Version, info.Version)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := execute(t, "version", "-o", "yaml")
		assert.Equal(t, cerrors.ErrCodeParse, cerrors.GetCode(err))
	})
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"document", "document"},
		{"fulltext", "fulltext"},
		{"export", "export"},
		{"fulltext_similar", "fulltext_similar"},
		{"fulltext/similar", "fulltext_similar"},
		{"/document/similar", "document_similar"},
		{" /export ", "export"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseMode(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := parseMode("similar")
		require.Error(t, err)
		assert.Equal(t, cerrors.ErrCodeParse, cerrors.GetCode(err))
		assert.Contains(t, cerrors.FormatForCLI(err), "document_similar")
	})
}

func TestParseParams(t *testing.T) {
	// Given: repeated and empty-valued parameters
	params, err := parseParams([]string{"primary=Frieden", "primary=Krieg", "page=", "time=1850,1870"})

	// Then: values accumulate in order
	require.NoError(t, err)
	assert.Equal(t, []string{"Frieden", "Krieg"}, params["primary"])
	assert.Equal(t, []string{""}, params["page"])
	assert.Equal(t, "1850,1870", params.Get("time"))

	for _, bad := range []string{"primary", "=Frieden"} {
		_, err := parseParams([]string{bad})
		if cerrors.GetCode(err) != cerrors.ErrCodeParse {
			t.Errorf("parseParams(%q) error = %v, want a parse error", bad, err)
		}
	}
}

func TestSearchCmd_RejectsBadArgsBeforeLoading(t *testing.T) {
	// Given: a config path that does not exist
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	// When: the mode is unknown
	_, err := execute(t, "--config", missing, "search", "nowhere")

	// Then: the mode error wins over the config error
	assert.Equal(t, cerrors.ErrCodeParse, cerrors.GetCode(err))
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ProjectFileName)

	// Given: no config file
	// When: running init
	out, err := execute(t, "--config", path, "config", "init")

	// Then: the defaults are written and load back
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Serve.PageSize)

	// Given: the file was edited
	require.NoError(t, os.WriteFile(path, []byte("serve:\n  page_size: 5\n"), 0o644))

	// When: running init again without --force
	out, err = execute(t, "--config", path, "config", "init")

	// Then: the file is kept
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "serve:\n  page_size: 5\n", string(data))

	// When: forcing
	out, err = execute(t, "--config", path, "config", "init", "--force")

	// Then: the old file is backed up and replaced
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up to")
	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	data, err = os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "serve:\n  page_size: 5\n", string(data))

	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Serve.PageSize)

	// When: restoring the newest backup
	out, err = execute(t, "--config", path, "config", "restore")

	// Then: the edited file is back
	require.NoError(t, err)
	assert.Contains(t, out, "Restored")
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Serve.PageSize)
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ProjectFileName)
	require.NoError(t, os.WriteFile(path, []byte("serve:\n  page_size: 42\n"), 0o644))

	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, "--config", path, "config", "show")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "# source: "+path+"\n"))
		assert.Contains(t, out, "page_size: 42")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "--config", path, "config", "show", "--json")
		require.NoError(t, err)

		var got struct {
			Serve struct {
				PageSize int `json:"page_size"`
			} `json:"serve"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 42, got.Serve.PageSize)
	})

	t.Run("path", func(t *testing.T) {
		out, err := execute(t, "--config", path, "config", "path")
		require.NoError(t, err)
		assert.Equal(t, path+"\n", out)
	})
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid with missing inputs", func(t *testing.T) {
		path := filepath.Join(dir, "valid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("paths:\n  documents: nowhere\n"), 0o644))

		out, err := execute(t, "--config", path, "config", "validate")

		require.NoError(t, err)
		assert.Contains(t, out, "✓ Configuration is valid ("+path+")")
		assert.Contains(t, out, "documents directory is not readable")
		assert.Contains(t, out, "locations file is not readable")
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("serve:\n  page_size: 0\n"), 0o644))

		out, err := execute(t, "--config", path, "config", "validate")

		require.Error(t, err)
		assert.True(t, IsSilent(err), "the error is printed by the command")
		assert.Contains(t, out, "✗ ")
		assert.Equal(t, cerrors.ErrCodeConfigInvalid, cerrors.GetCode(err))
	})
}

func TestIndexStatus(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("missing index", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index")

		info, err := indexStatus(path, logger)

		require.NoError(t, err)
		assert.False(t, info.Exists)
		assert.Equal(t, path, info.IndexPath)
		assert.Zero(t, info.Documents)
	})

	t.Run("built index", func(t *testing.T) {
		// Given: an index holding two documents
		path := filepath.Join(t.TempDir(), "index")
		w, err := store.OpenWriter(path)
		require.NoError(t, err)
		b := w.NewBatch()
		require.NoError(t, b.Add(&corpus.Record{ID: 1, Text: "Die Zeitung", Date: "1870-07-19", Coordinates: corpus.Unresolved}))
		require.NoError(t, b.Add(&corpus.Record{ID: 2, Text: "Le journal", Date: "1871-05-10", Coordinates: corpus.Unresolved}))
		require.NoError(t, w.Flush(b))

		// When: an index run still holds it
		info, err := indexStatus(path, logger)

		// Then: it is reported as locked without a count
		require.NoError(t, err)
		assert.True(t, info.Exists)
		assert.True(t, info.Locked)
		assert.Zero(t, info.Documents)

		// When: the run has finished
		require.NoError(t, w.Close())
		info, err = indexStatus(path, logger)

		// Then: documents and size are reported
		require.NoError(t, err)
		assert.True(t, info.Exists)
		assert.False(t, info.Locked)
		assert.Equal(t, uint64(2), info.Documents)
		assert.Positive(t, info.SizeBytes)
		assert.False(t, info.LastModified.IsZero())
	})
}

func TestRunLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpusexplorer.log")
	lines := []string{
		`{"time":"2026-03-01T10:00:00Z","level":"INFO","msg":"ingest_started","files":2}`,
		`{"time":"2026-03-01T10:00:01Z","level":"ERROR","msg":"ingest_file_failed","file":"a.tsv.gz"}`,
		`{"time":"2026-03-01T10:00:02Z","level":"INFO","msg":"ingest_finished","indexed":10}`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	tests := []struct {
		name string
		opts logsOptions
		want []string
	}{
		{
			name: "all",
			opts: logsOptions{lines: 50},
			want: []string{"ingest_started", "ingest_file_failed", "ingest_finished"},
		},
		{
			name: "last line",
			opts: logsOptions{lines: 1},
			want: []string{"ingest_finished"},
		},
		{
			name: "errors",
			opts: logsOptions{lines: 50, level: "error"},
			want: []string{"ingest_file_failed"},
		},
		{
			name: "grep",
			opts: logsOptions{lines: 50, grep: `indexed":1\d`},
			want: []string{"ingest_finished"},
		},
		{
			name: "event",
			opts: logsOptions{lines: 50, events: []string{"ingest_started"}},
			want: []string{"ingest_started"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			opts := tt.opts
			opts.file = path

			require.NoError(t, runLogs(context.Background(), &buf, &opts))

			got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
			require.Len(t, got, len(tt.want))
			for i, event := range tt.want {
				assert.Contains(t, got[i], " "+event)
			}
		})
	}

	t.Run("bad pattern", func(t *testing.T) {
		err := runLogs(context.Background(), &bytes.Buffer{}, &logsOptions{file: path, lines: 10, grep: "("})
		assert.ErrorContains(t, err, "invalid --grep pattern")
	})

	t.Run("missing file", func(t *testing.T) {
		err := runLogs(context.Background(), &bytes.Buffer{}, &logsOptions{file: path + ".absent", lines: 10})
		assert.ErrorContains(t, err, "log file not found")
	})
}
