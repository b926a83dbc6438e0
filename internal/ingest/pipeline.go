// Package ingest builds the corpus index from compressed source files.
// One task per file runs on a bounded worker pool; every task parses,
// filters, normalizes and geocodes its records and commits them in
// batches to the shared index writer.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/panjf2000/ants/v2"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
	"github.com/Aman-CERP/corpusexplorer/internal/store"
)

// Default tuning.
const (
	DefaultBatchSize = 1000
	DefaultTimeout   = 168 * time.Hour
)

// File outcomes.
const (
	FileOK        = "ok"
	FileFailed    = "failed"
	FileCancelled = "cancelled"
)

// Document outcomes.
const (
	DocumentIndexed  = "indexed"
	DocumentFiltered = "filtered"
	DocumentSkipped  = "skipped"
)

// Indexer is the write side of the index. *store.Writer implements it.
type Indexer interface {
	Reset() error
	NewBatch() *store.Batch
	Flush(b *store.Batch) error
	Close() error
}

// Geocoder resolves a place of publication. *geo.Resolver implements it.
type Geocoder interface {
	Resolve(place, fallback string) corpus.Coordinates
}

// Recorder observes ingestion progress.
type Recorder interface {
	ObserveFile(outcome string)
	ObserveDocuments(outcome string, n int)
}

// FileReport describes one finished corpus file.
type FileReport struct {
	Path     string
	Outcome  string
	Indexed  int64
	Filtered int64
	Skipped  int64
	Err      error
}

// Progress follows a run file by file. Calls may come from several
// workers at once.
type Progress interface {
	Started(files int)
	FileDone(r FileReport)
}

// Config controls one ingestion run.
type Config struct {
	// Documents is the directory holding the corpus files.
	Documents string
	// Format is FormatCSV or FormatJSON.
	Format string
	// Delimiter separates CSV columns.
	Delimiter rune
	Columns   Columns
	// IncludeNonOpen keeps records whose open-access flag is not set.
	IncludeNonOpen bool
	// Corpus tags records that carry no corpus column.
	Corpus    string
	BatchSize int
	Workers   int
	Timeout   time.Duration
}

// Summary reports a finished run.
type Summary struct {
	Files         int
	FilesFinished int
	FilesFailed   int
	Indexed       int64
	Filtered      int64
	Skipped       int64
	TimedOut      bool
	Elapsed       time.Duration
}

// Pipeline runs ingestion against one writer.
type Pipeline struct {
	writer   Indexer
	geocoder Geocoder
	cfg      Config
	logger   *slog.Logger
	recorder Recorder
	progress Progress
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRecorder reports progress to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithProgress reports each finished file to p.
func WithProgress(p Progress) Option {
	return func(pl *Pipeline) {
		pl.progress = p
	}
}

// NewPipeline creates a pipeline. Zero values in cfg take defaults.
func NewPipeline(writer Indexer, geocoder Geocoder, cfg Config, opts ...Option) (*Pipeline, error) {
	if writer == nil {
		return nil, errors.New("index writer required")
	}
	if geocoder == nil {
		return nil, errors.New("geocoder required")
	}
	if cfg.Format == "" {
		cfg.Format = FormatCSV
	}
	if cfg.Format != FormatCSV && cfg.Format != FormatJSON {
		return nil, cerrors.ConfigError("unknown corpus format "+cfg.Format, nil)
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = '\t'
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	p := &Pipeline{
		writer:   writer,
		geocoder: geocoder,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// fileStats counts the records of one file.
type fileStats struct {
	indexed, filtered, skipped int64
}

// Run clears the index, ingests every file of the documents directory and
// finalizes the writer. A failing file is logged and does not stop the
// others. When the timeout expires, running tasks are cancelled and the
// documents committed so far stay in the index.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	started := time.Now()

	files, err := ListFiles(p.cfg.Documents)
	if err != nil {
		_ = p.writer.Close()
		return Summary{}, err
	}
	summary := Summary{Files: len(files)}

	if err := p.writer.Reset(); err != nil {
		_ = p.writer.Close()
		return summary, err
	}

	pool, err := ants.NewPool(p.cfg.Workers)
	if err != nil {
		_ = p.writer.Close()
		return summary, cerrors.InternalError("failed to create worker pool", err)
	}
	defer pool.Release()

	runCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	p.logger.Info("ingest_started",
		slog.String("documents", p.cfg.Documents),
		slog.Int("files", len(files)),
		slog.Int("workers", p.cfg.Workers),
		slog.Bool("include_non_open", p.cfg.IncludeNonOpen))
	if p.progress != nil {
		p.progress.Started(len(files))
	}

	var (
		wg                         sync.WaitGroup
		finished, failed           atomic.Int64
		indexed, filtered, skipped atomic.Int64
	)

	for _, path := range files {
		if runCtx.Err() != nil {
			break
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()

			stats, err := p.ingestFile(runCtx, path)
			indexed.Add(stats.indexed)
			filtered.Add(stats.filtered)
			skipped.Add(stats.skipped)

			report := FileReport{
				Path:     path,
				Outcome:  FileOK,
				Indexed:  stats.indexed,
				Filtered: stats.filtered,
				Skipped:  stats.skipped,
				Err:      err,
			}
			defer p.reportFile(&report)

			switch {
			case err != nil && runCtx.Err() != nil:
				report.Outcome = FileCancelled
				p.observeFile(FileCancelled)
				p.logger.Warn("ingest_file_cancelled",
					slog.String("file", path),
					slog.Int64("indexed", stats.indexed))
			case err != nil:
				report.Outcome = FileFailed
				failed.Add(1)
				p.observeFile(FileFailed)
				p.logger.Error("ingest_file_failed",
					slog.String("file", path),
					slog.String("code", cerrors.GetCode(err)),
					slog.String("error", err.Error()))
			default:
				n := finished.Add(1)
				p.observeFile(FileOK)
				p.logger.Info("ingest_file_finished",
					slog.String("file", path),
					slog.Int64("finished", n),
					slog.Int("total", len(files)),
					slog.Int64("indexed", stats.indexed),
					slog.Int64("filtered", stats.filtered),
					slog.Int64("skipped", stats.skipped))
			}
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
			p.observeFile(FileFailed)
			p.reportFile(&FileReport{Path: path, Outcome: FileFailed, Err: err})
			p.logger.Error("ingest_submit_failed",
				slog.String("file", path),
				slog.String("error", err.Error()))
		}
	}

	wg.Wait()

	summary.FilesFinished = int(finished.Load())
	summary.FilesFailed = int(failed.Load())
	summary.Indexed = indexed.Load()
	summary.Filtered = filtered.Load()
	summary.Skipped = skipped.Load()
	summary.TimedOut = errors.Is(runCtx.Err(), context.DeadlineExceeded)

	closeErr := p.writer.Close()
	summary.Elapsed = time.Since(started)

	if summary.TimedOut {
		p.logger.Warn("ingest_timed_out",
			slog.Duration("timeout", p.cfg.Timeout),
			slog.Int("finished", summary.FilesFinished),
			slog.Int("files", summary.Files))
	}
	p.logger.Info("ingest_finished",
		slog.Int("files", summary.Files),
		slog.Int("finished", summary.FilesFinished),
		slog.Int("failed", summary.FilesFailed),
		slog.Int64("indexed", summary.Indexed),
		slog.Int64("filtered", summary.Filtered),
		slog.Int64("skipped", summary.Skipped),
		slog.Duration("elapsed", summary.Elapsed))

	if closeErr != nil {
		return summary, closeErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// ingestFile reads one file to the end. Records already flushed stay in
// the index if the file fails later.
func (p *Pipeline) ingestFile(ctx context.Context, path string) (fileStats, error) {
	var stats fileStats

	f, err := os.Open(path)
	if err != nil {
		return stats, cerrors.IngestFile(path, err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return stats, cerrors.IngestFile(path, err)
	}
	defer func() { _ = gz.Close() }()

	src, err := p.openSource(gz)
	if err != nil {
		return stats, cerrors.IngestFile(path, err)
	}

	batch := p.writer.NewBatch()
	pending := int64(0)
	flush := func() error {
		if err := p.writer.Flush(batch); err != nil {
			return err
		}
		stats.indexed += pending
		p.observeDocuments(DocumentIndexed, int(pending))
		pending = 0
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		s, err := src.Next()
		if err == io.EOF {
			break
		}
		var recErr *recordError
		if errors.As(err, &recErr) {
			p.skipRecord(path, &stats, recErr)
			continue
		}
		if err != nil {
			return stats, cerrors.IngestFile(path, err)
		}

		if !p.cfg.IncludeNonOpen && !s.IsOpen() {
			stats.filtered++
			p.observeDocuments(DocumentFiltered, 1)
			continue
		}

		rec, err := s.Record()
		if err != nil {
			p.skipRecord(path, &stats, err)
			continue
		}
		rec.Coordinates = p.geocoder.Resolve(s.PlaceOfPublication, s.FallbackPlace)
		if rec.Corpus == "" {
			rec.Corpus = p.cfg.Corpus
		}

		if err := batch.Add(rec); err != nil {
			p.skipRecord(path, &stats, err)
			continue
		}
		pending++

		if batch.Size() >= p.cfg.BatchSize {
			if err := flush(); err != nil {
				return stats, cerrors.IngestFile(path, err)
			}
		}
	}

	if err := flush(); err != nil {
		return stats, cerrors.IngestFile(path, err)
	}
	return stats, nil
}

func (p *Pipeline) openSource(r io.Reader) (recordSource, error) {
	if p.cfg.Format == FormatJSON {
		return newJSONSource(r), nil
	}
	return newCSVSource(r, p.cfg.Delimiter, p.cfg.Columns)
}

func (p *Pipeline) skipRecord(path string, stats *fileStats, err error) {
	stats.skipped++
	p.observeDocuments(DocumentSkipped, 1)
	p.logger.Warn("ingest_record_skipped",
		slog.String("file", path),
		slog.String("error", err.Error()))
}

func (p *Pipeline) reportFile(r *FileReport) {
	if p.progress != nil {
		p.progress.FileDone(*r)
	}
}

func (p *Pipeline) observeFile(outcome string) {
	if p.recorder != nil {
		p.recorder.ObserveFile(outcome)
	}
}

func (p *Pipeline) observeDocuments(outcome string, n int) {
	if p.recorder != nil && n > 0 {
		p.recorder.ObserveDocuments(outcome, n)
	}
}

// ListFiles returns the regular, non-hidden files of dir in name order.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, cerrors.ConfigError(fmt.Sprintf("cannot read documents directory %s", dir), err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
