package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/Aman-CERP/corpusexplorer/internal/corpus"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
)

// Writer is the single write handle on an index. Batches may be flushed
// from many goroutines at once; bleve serializes the writes.
type Writer struct {
	mu     sync.RWMutex
	path   string
	index  bleve.Index
	lock   *FileLock
	logger *slog.Logger
	closed bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterLogger sets the writer's logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// OpenWriter takes the exclusive lock for path and opens the index there,
// creating it when absent. A corrupted index is cleared and recreated.
func OpenWriter(path string, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		path:   path,
		lock:   NewFileLock(path),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	acquired, err := w.lock.TryLock()
	if err != nil {
		return nil, cerrors.IndexAccess("failed to lock index "+path, err)
	}
	if !acquired {
		return nil, cerrors.New(cerrors.ErrCodeIndexLocked, "index is locked by another process: "+w.lock.Path(), nil).
			WithSuggestion("Wait for the running ingestion to finish")
	}

	idx, err := openOrCreate(path, w.logger)
	if err != nil {
		_ = w.lock.Unlock()
		return nil, cerrors.IndexAccess("failed to open index "+path, err)
	}
	w.index = idx

	return w, nil
}

// NewMemWriter creates a writer over a fresh in-memory index.
func NewMemWriter(opts ...WriterOption) (*Writer, error) {
	w := &Writer{logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	idx, err := newIndex("")
	if err != nil {
		return nil, cerrors.IndexAccess("failed to create in-memory index", err)
	}
	w.index = idx
	return w, nil
}

// Reset drops every document by deleting and recreating the index. Once the
// old index is closed, any failure leaves the writer closed and unlocked.
func (w *Writer) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errWriterClosed()
	}

	if err := w.index.Close(); err != nil {
		w.abandon()
		return cerrors.IndexAccess("failed to close index for reset", err)
	}
	if w.path != "" {
		if err := os.RemoveAll(w.path); err != nil {
			w.abandon()
			return cerrors.IndexAccess("failed to clear index "+w.path, err)
		}
	}

	idx, err := createIndex(w.path)
	if err != nil {
		w.abandon()
		return cerrors.IndexAccess("failed to recreate index", err)
	}
	w.index = idx

	w.logger.Info("index_cleared", slog.String("path", w.path))
	return nil
}

// abandon marks the writer closed after its index was lost. Callers hold mu.
func (w *Writer) abandon() {
	w.closed = true
	w.index = nil
	if w.lock != nil {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("index_unlock_failed",
				slog.String("path", w.path),
				slog.String("error", err.Error()))
		}
	}
}

func errWriterClosed() error {
	return cerrors.IndexAccess("index writer is closed", nil)
}

// Batch collects documents for one Flush. A Batch is not safe for
// concurrent use; each ingestion task owns its own.
type Batch struct {
	batch *bleve.Batch
}

// NewBatch starts an empty batch. A batch from a closed writer rejects
// every record.
func (w *Writer) NewBatch() *Batch {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return &Batch{}
	}
	return &Batch{batch: w.index.NewBatch()}
}

// Add queues a record.
func (b *Batch) Add(rec *corpus.Record) error {
	if b.batch == nil {
		return errWriterClosed()
	}
	doc, err := document(rec)
	if err != nil {
		return err
	}
	return b.batch.Index(corpus.DocID(rec.ID), doc)
}

// Size returns the number of queued operations.
func (b *Batch) Size() int {
	if b.batch == nil {
		return 0
	}
	return b.batch.Size()
}

// Flush commits the batch and empties it for reuse.
func (w *Writer) Flush(b *Batch) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return errWriterClosed()
	}
	if b.Size() == 0 {
		return nil
	}

	if err := w.index.Batch(b.batch); err != nil {
		return cerrors.IndexAccess("failed to commit batch", err)
	}
	b.batch.Reset()
	return nil
}

// DocCount returns the number of committed documents.
func (w *Writer) DocCount() (uint64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return 0, errWriterClosed()
	}
	n, err := w.index.DocCount()
	if err != nil {
		return 0, cerrors.IndexAccess("failed to count documents", err)
	}
	return n, nil
}

// Reader returns a read handle over the writer's index. Only in-memory
// writers support this; an on-disk index is read through NewReader after
// Close.
func (w *Writer) Reader() *Reader {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return newReaderFromIndex(w.index)
}

// Close finalizes the index and releases the lock.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	var closeErr error
	if err := w.index.Close(); err != nil {
		closeErr = cerrors.IndexAccess("failed to close index", err)
	}
	if w.lock != nil {
		if err := w.lock.Unlock(); err != nil && closeErr == nil {
			closeErr = cerrors.IndexAccess("failed to release index lock", err)
		}
	}
	return closeErr
}

// createIndex builds the fresh index on Reset.
var createIndex = newIndex

func newIndex(path string) (bleve.Index, error) {
	im, err := NewIndexMapping()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return bleve.NewMemOnly(im)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	return bleve.New(path, im)
}

func openOrCreate(path string, logger *slog.Logger) (bleve.Index, error) {
	if err := validateIndexIntegrity(path); err != nil {
		logger.Warn("index_corrupted",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("cannot remove corrupted index: %w", err)
		}
	}

	idx, err := bleve.Open(path)
	switch {
	case err == bleve.ErrorIndexPathDoesNotExist:
		return newIndex(path)
	case err != nil && isCorruptionError(err):
		logger.Warn("index_open_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("cannot remove corrupted index: %w", err)
		}
		return newIndex(path)
	case err != nil:
		return nil, err
	}
	return idx, nil
}

// validateIndexIntegrity returns nil for a missing or well-formed index
// directory and an error describing the damage otherwise.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") ||
		strings.Contains(msg, "error parsing mapping JSON") ||
		strings.Contains(msg, "failed to load segment") ||
		err == bleve.ErrorIndexMetaCorrupt
}
