package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Config selects where records go and which are kept.
type Config struct {
	// Level is debug, info, warn or error. Anything else means info.
	Level string
	// FilePath receives JSON lines. Empty logs to stderr only.
	FilePath string
	// MaxSizeMB triggers rotation of FilePath.
	MaxSizeMB int
	// MaxFiles is the number of rotated files kept.
	MaxFiles int
	// WriteToStderr copies file records to stderr.
	WriteToStderr bool
}

// Rotation defaults used when Config leaves them unset.
const (
	defaultMaxSizeMB = 10
	defaultMaxFiles  = 5
)

// DefaultConfig logs info and above to the default log file and stderr.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     defaultMaxSizeMB,
		MaxFiles:      defaultMaxFiles,
		WriteToStderr: true,
	}
}

// Setup builds a logger for cfg and returns it with a cleanup function
// that flushes and closes the log file.
//
// With a FilePath, records are JSON lines written to a RotatingWriter and
// optionally copied to stderr. Without one, records go to stderr only,
// as text on a terminal and as JSON otherwise.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{
		Level:       LevelFromString(cfg.Level),
		ReplaceAttr: readableDurations,
	}

	if cfg.FilePath == "" {
		if isTerminal(os.Stderr) {
			return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}, nil
		}
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), func() {}, nil
	}

	maxSize, maxFiles := cfg.MaxSizeMB, cfg.MaxFiles
	if maxSize < 1 {
		maxSize = defaultMaxSizeMB
	}
	if maxFiles < 1 {
		maxFiles = defaultMaxFiles
	}
	file, err := NewRotatingWriter(cfg.FilePath, maxSize, maxFiles)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = file
	if cfg.WriteToStderr {
		out = io.MultiWriter(file, os.Stderr)
	}

	return slog.New(slog.NewJSONHandler(out, opts)), func() {
		_ = file.Sync()
		_ = file.Close()
	}, nil
}

// readableDurations writes durations as "1.5s" instead of nanoseconds.
func readableDurations(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindDuration {
		return slog.String(a.Key, a.Value.Duration().Round(time.Microsecond).String())
	}
	return a
}

// LevelFromString parses a level name case-insensitively. "warning" is
// accepted for warn; unknown names yield info.
func LevelFromString(level string) slog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
