package atmosphere

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"karolbroda.com/lyrhaze/internal/logging"
	"karolbroda.com/lyrhaze/internal/lrc"
)

// Engine assigns each newly visible line a position that avoids every line
// still on screen, then never moves it again.
type Engine struct {
	tuning     Tuning
	strategies []Strategy
	measurer   Measurer
	rng        *rand.Rand
	logger     *slog.Logger
}

type EngineOption func(*Engine)

func WithStrategies(strategies ...Strategy) EngineOption {
	return func(e *Engine) {
		e.strategies = strategies
	}
}

func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) {
		e.rng = rng
	}
}

func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine falls back to the heuristic when m is nil or fails.
func NewEngine(t Tuning, m Measurer, opts ...EngineOption) *Engine {
	e := &Engine{
		tuning:     t,
		strategies: DefaultStrategies(t),
		measurer:   fallbackMeasurer{primary: m},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if e.logger == nil {
		e.logger = logging.Logger()
	}
	return e
}

func (e *Engine) Tuning() Tuning {
	return e.tuning
}

// Measure returns the box the engine uses for text.
func (e *Engine) Measure(text string) (float64, float64) {
	return measureOrEstimate(e.measurer, text)
}

// Layout places every unplaced line of visible. exiting lists the times of
// lines that are fading out; together with the placed visible lines they
// form the occupied set. A cache that belongs to a different lyric set is
// reset first. The (possibly new) cache is returned.
func (e *Engine) Layout(cache *Cache, setID string, visible []lrc.Line, exiting []int64, bounds Bounds) *Cache {
	if cache == nil {
		cache = NewCache(setID)
	} else if cache.ID() != setID {
		cache.Reset(setID)
	}

	bounds = bounds.orDefault(e.tuning.DefaultBounds)

	occupied := make([]Rect, 0, len(visible)+len(exiting))
	usedSlots := make(map[int]bool)
	seen := make(map[int64]bool, len(visible)+len(exiting))

	addOccupied := func(timeMs int64) {
		if seen[timeMs] {
			return
		}
		seen[timeMs] = true
		p, ok := cache.Get(timeMs)
		if !ok {
			return
		}
		occupied = append(occupied, p.Rect())
		if p.Slot >= 0 {
			usedSlots[p.Slot] = true
		}
	}

	for _, line := range visible {
		addOccupied(line.TimeMs)
	}
	for _, t := range exiting {
		addOccupied(t)
	}

	for _, line := range visible {
		if _, placed := cache.Get(line.TimeMs); placed {
			continue
		}

		w, h := e.Measure(line.Text)
		req := Request{
			TimeMs:    line.TimeMs,
			W:         w,
			H:         h,
			Bounds:    bounds,
			Occupied:  occupied,
			UsedSlots: usedSlots,
			Rand:      e.rng,
		}

		p := e.place(req)
		cache.put(p)
		occupied = append(occupied, p.Rect())
		if p.Slot >= 0 {
			usedSlots[p.Slot] = true
		}

		if p.Tier != TierSlot {
			e.logger.Debug("lyric placed by fallback tier",
				"time_ms", p.TimeMs,
				"tier", p.Tier,
				"x", p.X,
				"y", p.Y,
				"occupied", len(occupied)-1)
		}
	}

	return cache
}

func (e *Engine) place(req Request) Placement {
	for _, s := range e.strategies {
		if p, ok := s.Place(req); ok {
			p.TimeMs = req.TimeMs
			return p
		}
	}

	// a custom chain without a terminal tier still has to place the line
	m := margins{e.tuning.MarginX, e.tuning.MarginY}
	return Placement{
		TimeMs: req.TimeMs,
		X:      m.clampX(m.x, req.W, req.Bounds),
		Y:      m.clampY(m.y, req.H, req.Bounds),
		W:      req.W,
		H:      req.H,
		Slot:   -1,
		Tier:   TierStack,
	}
}
