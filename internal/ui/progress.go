package ui

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/Aman-CERP/corpusexplorer/internal/ingest"
)

// speedInterval is the minimum time between throughput samples.
const speedInterval = 500 * time.Millisecond

// etaSmoothing is the weight of a new ETA estimate against the previous one.
const etaSmoothing = 0.3

// Tracker accumulates the progress of one ingestion run. It is safe for
// concurrent use.
type Tracker struct {
	mu sync.Mutex

	files, done, failed, cancelled int
	indexed, filtered, skipped     int64
	lastFile                       string

	start     time.Time
	sampledAt time.Time
	sampled   int64
	speed     SpeedStats
	samples   int
	spark     *Sparkline
	lastETA   time.Duration

	now func() time.Time
}

// SpeedStats is the indexing throughput in documents per second.
type SpeedStats struct {
	Current float64
	Avg     float64
	Peak    float64
}

// Snapshot is a consistent view of a Tracker.
type Snapshot struct {
	Files     int
	Done      int
	Failed    int
	Cancelled int
	Indexed   int64
	Filtered  int64
	Skipped   int64
	// Progress is the finished share of files in [0, 1].
	Progress float64
	ETA      time.Duration
	Elapsed  time.Duration
	LastFile string
	Speed    SpeedStats
}

// NewTracker creates a tracker whose clock starts now.
func NewTracker() *Tracker {
	return newTrackerAt(time.Now)
}

func newTrackerAt(now func() time.Time) *Tracker {
	t := now()
	return &Tracker{
		start:     t,
		sampledAt: t,
		spark:     NewSparkline(60),
		now:       now,
	}
}

// Started records the number of files of the run.
func (t *Tracker) Started(files int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files = files
}

// FileDone records one finished file.
func (t *Tracker) FileDone(r ingest.FileReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done++
	switch r.Outcome {
	case ingest.FileFailed:
		t.failed++
	case ingest.FileCancelled:
		t.cancelled++
	}
	t.indexed += r.Indexed
	t.filtered += r.Filtered
	t.skipped += r.Skipped
	t.lastFile = filepath.Base(r.Path)

	t.sample()
}

// Tick takes a throughput sample if one is due.
func (t *Tracker) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sample()
}

// sample must be called with the lock held.
func (t *Tracker) sample() {
	now := t.now()
	elapsed := now.Sub(t.sampledAt)
	if elapsed < speedInterval {
		return
	}

	current := float64(t.indexed-t.sampled) / elapsed.Seconds()
	t.speed.Current = current
	t.samples++
	if t.samples == 1 {
		t.speed.Avg = current
	} else {
		t.speed.Avg = 0.2*current + 0.8*t.speed.Avg
	}
	if current > t.speed.Peak {
		t.speed.Peak = current
	}
	t.spark.Add(current)

	t.sampled = t.indexed
	t.sampledAt = now
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	progress := 0.0
	if t.files > 0 {
		progress = float64(t.done) / float64(t.files)
		if progress > 1 {
			progress = 1
		}
	}

	return Snapshot{
		Files:     t.files,
		Done:      t.done,
		Failed:    t.failed,
		Cancelled: t.cancelled,
		Indexed:   t.indexed,
		Filtered:  t.filtered,
		Skipped:   t.skipped,
		Progress:  progress,
		ETA:       t.eta(progress),
		Elapsed:   t.now().Sub(t.start),
		LastFile:  t.lastFile,
		Speed:     t.speed,
	}
}

// RenderSparkline renders the throughput history in width characters.
func (t *Tracker) RenderSparkline(width int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spark.Render(width)
}

// eta extrapolates the remaining time from the finished share of files,
// smoothed against the previous estimate. Lock held.
func (t *Tracker) eta(progress float64) time.Duration {
	if progress <= 0 || progress >= 1 {
		return 0
	}
	elapsed := t.now().Sub(t.start)
	raw := time.Duration(float64(elapsed)/progress) - elapsed
	if raw < 0 {
		return 0
	}
	if t.lastETA == 0 {
		t.lastETA = raw
		return raw
	}
	t.lastETA = time.Duration(etaSmoothing*float64(raw) + (1-etaSmoothing)*float64(t.lastETA))
	return t.lastETA
}
