// Package clock turns a playback position source into the millisecond
// timeline the atmosphere is driven by.
package clock

import (
	"math"
	"sync"
	"time"
)

// Source reports the current playback position in milliseconds.
type Source interface {
	PositionMs() (int64, error)
}

// Clock samples a Source and applies the user's sync offset. A failed
// sample keeps the last good position, so a vanished player freezes the
// lyrics instead of resetting them.
type Clock struct {
	mu       sync.Mutex
	source   Source
	offsetMs int64
	lastMs   int64
	err      error
}

func New(source Source) *Clock {
	return &Clock{source: source}
}

// Sample reads the source once and returns the offset position.
func (c *Clock) Sample() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.source == nil {
		return c.lastMs
	}

	pos, err := c.source.PositionMs()
	c.err = err
	if err != nil {
		return c.lastMs
	}

	c.lastMs = max(0, pos+c.offsetMs)
	return c.lastMs
}

// Now returns the most recent sample without touching the source.
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMs
}

// Err is the error of the most recent sample, if any.
func (c *Clock) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Offset is the sync offset in seconds. Positive values move the lyrics
// earlier.
func (c *Clock) Offset() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.offsetMs) / 1000
}

func (c *Clock) SetOffset(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsetMs = secondsToMs(seconds)
}

// AdjustOffset shifts the offset and returns the new value in seconds.
func (c *Clock) AdjustOffset(deltaSeconds float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsetMs += secondsToMs(deltaSeconds)
	return float64(c.offsetMs) / 1000
}

func (c *Clock) Source() Source {
	return c.source
}

func secondsToMs(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

// Wall is an offline playback position: a stopwatch with pause and seek,
// used to preview lyric files without a media player.
type Wall struct {
	mu         sync.Mutex
	now        func() time.Time
	startedAt  time.Time
	baseMs     int64
	durationMs int64
	playing    bool
}

type WallOption func(*Wall)

// WithNow replaces the time source.
func WithNow(now func() time.Time) WallOption {
	return func(w *Wall) {
		w.now = now
	}
}

// WithDuration stops the clock at durationMs. Zero means unbounded.
func WithDuration(durationMs int64) WallOption {
	return func(w *Wall) {
		w.durationMs = durationMs
	}
}

// NewWall returns a paused clock at position zero.
func NewWall(opts ...WallOption) *Wall {
	w := &Wall{now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wall) PositionMs() (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.positionLocked(), nil
}

func (w *Wall) positionLocked() int64 {
	pos := w.baseMs
	if w.playing {
		pos += w.now().Sub(w.startedAt).Milliseconds()
	}
	if w.durationMs > 0 && pos > w.durationMs {
		pos = w.durationMs
	}
	return max(0, pos)
}

func (w *Wall) Play() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.playing {
		return
	}
	w.startedAt = w.now()
	w.playing = true
}

func (w *Wall) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.playing {
		return
	}
	w.baseMs = w.positionLocked()
	w.playing = false
}

// Toggle flips between playing and paused and reports the new state.
func (w *Wall) Toggle() bool {
	if w.Playing() {
		w.Pause()
		return false
	}
	w.Play()
	return true
}

func (w *Wall) Playing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.playing
}

// Seek jumps to positionMs, clamped to [0, duration].
func (w *Wall) Seek(positionMs int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	positionMs = max(0, positionMs)
	if w.durationMs > 0 {
		positionMs = min(positionMs, w.durationMs)
	}
	w.baseMs = positionMs
	w.startedAt = w.now()
}

// SeekBy moves relative to the current position.
func (w *Wall) SeekBy(deltaMs int64) {
	pos, _ := w.PositionMs()
	w.Seek(pos + deltaMs)
}

func (w *Wall) DurationMs() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.durationMs
}
