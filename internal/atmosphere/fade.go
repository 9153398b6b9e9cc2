package atmosphere

import (
	"sort"

	"karolbroda.com/lyrhaze/internal/lrc"
)

// ExitRecord marks when a line left the visible window.
type ExitRecord struct {
	TimeMs      int64
	ExitStartMs int64
}

// Fader tracks lines that dropped out of the visible window and are still
// fading out.
type Fader struct {
	fadeOutMs int64
	prev      []int64
	exits     map[int64]int64
}

func NewFader(fadeOutMs int64) *Fader {
	return &Fader{
		fadeOutMs: fadeOutMs,
		exits:     make(map[int64]int64),
	}
}

func (f *Fader) Reset() {
	f.prev = nil
	f.exits = make(map[int64]int64)
}

// Observe diffs the new visible set against the previous one. Lines that
// left start fading at nowMs; finished fades are dropped. A line that came
// back (seek) stops fading.
func (f *Fader) Observe(visible []lrc.Line, nowMs int64) {
	current := make(map[int64]bool, len(visible))
	for _, line := range visible {
		current[line.TimeMs] = true
		delete(f.exits, line.TimeMs)
	}

	for _, t := range f.prev {
		if current[t] {
			continue
		}
		if _, fading := f.exits[t]; !fading {
			f.exits[t] = nowMs
		}
	}

	for t, start := range f.exits {
		if nowMs-start >= f.fadeOutMs || nowMs < start {
			delete(f.exits, t)
		}
	}

	f.prev = f.prev[:0]
	for _, line := range visible {
		f.prev = append(f.prev, line.TimeMs)
	}
}

// Exiting lists the lines still inside their fade-out, ordered by line time.
func (f *Fader) Exiting(nowMs int64) []ExitRecord {
	records := make([]ExitRecord, 0, len(f.exits))
	for t, start := range f.exits {
		if nowMs-start < f.fadeOutMs && nowMs >= start {
			records = append(records, ExitRecord{TimeMs: t, ExitStartMs: start})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].TimeMs < records[j].TimeMs })
	return records
}

// Opacity is 1 while visible and decays linearly over the fade-out window.
func (f *Fader) Opacity(timeMs int64, visible bool, nowMs int64) float64 {
	if visible {
		return 1
	}
	start, ok := f.exits[timeMs]
	if !ok || f.fadeOutMs <= 0 {
		return 0
	}
	return clamp01(1 - float64(nowMs-start)/float64(f.fadeOutMs))
}
