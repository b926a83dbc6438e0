package ui

import "strings"

// sparkLevels are the eight bar heights of a sparkline.
var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline keeps the most recent throughput samples and renders them as
// a row of block characters scaled to the largest retained sample.
type Sparkline struct {
	samples []float64
	next    int
	filled  bool
}

// NewSparkline creates a sparkline retaining capacity samples.
func NewSparkline(capacity int) *Sparkline {
	if capacity <= 0 {
		capacity = 60
	}
	return &Sparkline{samples: make([]float64, capacity)}
}

// Add appends a sample, overwriting the oldest when full.
func (s *Sparkline) Add(v float64) {
	if v < 0 {
		v = 0
	}
	s.samples[s.next] = v
	s.next++
	if s.next == len(s.samples) {
		s.next = 0
		s.filled = true
	}
}

// Len returns the number of retained samples.
func (s *Sparkline) Len() int {
	if s.filled {
		return len(s.samples)
	}
	return s.next
}

// Clear drops every sample.
func (s *Sparkline) Clear() {
	s.next = 0
	s.filled = false
}

// ordered returns the retained samples oldest first.
func (s *Sparkline) ordered() []float64 {
	if !s.filled {
		return s.samples[:s.next]
	}
	out := make([]float64, 0, len(s.samples))
	out = append(out, s.samples[s.next:]...)
	return append(out, s.samples[:s.next]...)
}

// Render returns width characters: the newest samples right-aligned and
// the lowest bar as padding on the left.
func (s *Sparkline) Render(width int) string {
	if width <= 0 {
		width = len(s.samples)
	}
	values := s.ordered()
	if len(values) > width {
		values = values[len(values)-width:]
	}

	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	b.Grow(width * 3)
	b.WriteString(strings.Repeat(string(sparkLevels[0]), width-len(values)))
	top := len(sparkLevels) - 1
	for _, v := range values {
		level := 0
		if max > 0 {
			level = int(v / max * float64(top))
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}
