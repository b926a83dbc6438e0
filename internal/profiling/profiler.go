// Package profiling writes CPU, heap and execution-trace profiles for one
// command run, selected by the --profile-* flags.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Config names the profile files to write. Empty paths are skipped.
type Config struct {
	CPU   string
	Heap  string
	Trace string
}

// Enabled reports whether any profile is requested.
func (c Config) Enabled() bool {
	return c.CPU != "" || c.Heap != "" || c.Trace != ""
}

// Session is a running set of profiles.
type Session struct {
	heap  string
	stops []func() error
}

// Start begins CPU profiling and tracing as configured. On error nothing
// is left running.
func Start(cfg Config) (*Session, error) {
	s := &Session{heap: cfg.Heap}

	if cfg.CPU != "" {
		f, err := os.Create(cfg.CPU)
		if err != nil {
			return nil, fmt.Errorf("failed to create CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start CPU profile: %w", err)
		}
		s.stops = append(s.stops, func() error {
			pprof.StopCPUProfile()
			return f.Close()
		})
	}

	if cfg.Trace != "" {
		f, err := os.Create(cfg.Trace)
		if err != nil {
			_ = s.stop()
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			_ = s.stop()
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
		s.stops = append(s.stops, func() error {
			trace.Stop()
			return f.Close()
		})
	}

	return s, nil
}

// Stop ends the running profiles and writes the heap profile, if any.
// Calling Stop twice is a no-op.
func (s *Session) Stop() error {
	err := s.stop()
	if s.heap != "" {
		err = errors.Join(err, writeHeap(s.heap))
		s.heap = ""
	}
	return err
}

func (s *Session) stop() error {
	var err error
	for i := len(s.stops) - 1; i >= 0; i-- {
		err = errors.Join(err, s.stops[i]())
	}
	s.stops = nil
	return err
}

func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return nil
}

// HeapInUse returns the bytes of live heap objects.
func HeapInUse() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapInuse
}
