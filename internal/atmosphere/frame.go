package atmosphere

import (
	"log/slog"
	"math/rand/v2"

	"karolbroda.com/lyrhaze/internal/colors"
	"karolbroda.com/lyrhaze/internal/logging"
	"karolbroda.com/lyrhaze/internal/lrc"
)

const (
	DefaultBaseColor      = "#FFFFFF"
	DefaultHighlightColor = "#FFD54F"
)

// RenderLine is one line of a frame, ready to draw.
type RenderLine struct {
	TimeMs   int64
	Text     string
	X        float64
	Y        float64
	W        float64
	H        float64
	Opacity  float64
	Visible  bool
	Progress float64
	Slot     int
	Tier     string
	Tokens   []Token
}

type Frame struct {
	NowMs  int64
	Bounds Bounds
	Lines  []RenderLine
}

type Options struct {
	Tuning         Tuning
	Measurer       Measurer
	Strategies     []Strategy
	Rand           *rand.Rand
	Logger         *slog.Logger
	BaseColor      string
	HighlightColor string
}

// Atmosphere is the per-track state behind the floating lyrics: the loaded
// lyric set, the placement cache, the fade bookkeeping and the container
// bounds. It is driven synchronously by its host and is not safe for
// concurrent use.
type Atmosphere struct {
	tuning    Tuning
	engine    *Engine
	fader     *Fader
	cache     *Cache
	logger    *slog.Logger
	lines     lrc.Lines
	setID     string
	bounds    Bounds
	base      string
	highlight string
}

func New(opts Options) *Atmosphere {
	tuning := opts.Tuning
	if tuning.Window == 0 {
		tuning = DefaultTuning()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Logger()
	}

	engineOpts := []EngineOption{WithLogger(logger)}
	if opts.Rand != nil {
		engineOpts = append(engineOpts, WithRand(opts.Rand))
	}
	if len(opts.Strategies) > 0 {
		engineOpts = append(engineOpts, WithStrategies(opts.Strategies...))
	}

	a := &Atmosphere{
		tuning: tuning,
		engine: NewEngine(tuning, opts.Measurer, engineOpts...),
		fader:  NewFader(tuning.FadeOutMs),
		cache:  NewCache(""),
		logger: logger,
	}
	a.SetColors(opts.BaseColor, opts.HighlightColor)
	return a
}

// Load switches the lyric set. Loading a set with a new identity discards
// every placement and fade; reloading the same set is a no-op.
func (a *Atmosphere) Load(lines lrc.Lines) {
	id := lines.Fingerprint()
	if id == a.setID {
		return
	}
	a.lines = lines
	a.setID = id
	a.reset()
	a.logger.Debug("lyric set loaded", "lines", len(lines))
}

// Relayout forgets placements but keeps the lyric set.
func (a *Atmosphere) Relayout() {
	a.reset()
}

func (a *Atmosphere) reset() {
	a.cache.Reset(a.setID)
	a.fader.Reset()
}

func (a *Atmosphere) Resize(b Bounds) {
	a.bounds = b
}

func (a *Atmosphere) Bounds() Bounds {
	return a.bounds.orDefault(a.tuning.DefaultBounds)
}

func (a *Atmosphere) SetColors(base string, highlight string) {
	a.base = colors.Normalize(base, DefaultBaseColor)
	a.highlight = colors.Normalize(highlight, DefaultHighlightColor)
}

func (a *Atmosphere) Colors() (string, string) {
	return a.base, a.highlight
}

func (a *Atmosphere) Lines() lrc.Lines {
	return a.lines
}

func (a *Atmosphere) Placement(timeMs int64) (Placement, bool) {
	return a.cache.Get(timeMs)
}

func (a *Atmosphere) Placements() []Placement {
	return a.cache.Placements()
}

// Frame advances the atmosphere to nowMs and returns what to draw: visible
// lines first (oldest to newest), then lines still fading out.
func (a *Atmosphere) Frame(nowMs int64) Frame {
	frame := Frame{NowMs: nowMs, Bounds: a.Bounds()}
	if len(a.lines) == 0 {
		return frame
	}

	visible := Visible(a.lines, nowMs, a.tuning.Window)
	a.fader.Observe(visible, nowMs)
	exiting := a.fader.Exiting(nowMs)

	exitTimes := make([]int64, len(exiting))
	for i, r := range exiting {
		exitTimes[i] = r.TimeMs
	}
	a.cache = a.engine.Layout(a.cache, a.setID, visible, exitTimes, a.bounds)

	for _, line := range visible {
		if rl, ok := a.renderLine(line, true, nowMs); ok {
			frame.Lines = append(frame.Lines, rl)
		}
	}
	for _, r := range exiting {
		idx := a.lines.Index(r.TimeMs)
		if idx < 0 {
			continue
		}
		if rl, ok := a.renderLine(a.lines[idx], false, nowMs); ok {
			frame.Lines = append(frame.Lines, rl)
		}
	}

	return frame
}

func (a *Atmosphere) renderLine(line lrc.Line, visible bool, nowMs int64) (RenderLine, bool) {
	p, ok := a.cache.Get(line.TimeMs)
	if !ok {
		return RenderLine{}, false
	}

	idx := a.lines.Index(line.TimeMs)
	duration := a.lines.Duration(idx, a.tuning.MinLineMs, a.tuning.DefaultLineMs)
	progress := LineProgress(nowMs, line.TimeMs, duration)

	return RenderLine{
		TimeMs:   line.TimeMs,
		Text:     line.Text,
		X:        p.X,
		Y:        p.Y,
		W:        p.W,
		H:        p.H,
		Opacity:  a.fader.Opacity(line.TimeMs, visible, nowMs),
		Visible:  visible,
		Progress: progress,
		Slot:     p.Slot,
		Tier:     p.Tier,
		Tokens:   Highlight(line.Text, progress, a.base, a.highlight),
	}, true
}
