package atmosphere

import "math/rand/v2"

const (
	TierSlot   = "slot"
	TierRandom = "random"
	TierStack  = "stack"
)

// Request is everything a strategy needs to place one line.
type Request struct {
	TimeMs    int64
	W         float64
	H         float64
	Bounds    Bounds
	Occupied  []Rect
	UsedSlots map[int]bool
	Rand      *rand.Rand
}

// Strategy proposes a placement or declines. The engine tries strategies in
// order and keeps the first placement.
type Strategy interface {
	Name() string
	Place(req Request) (Placement, bool)
}

type margins struct {
	x float64
	y float64
}

func (m margins) clampX(x float64, w float64, b Bounds) float64 {
	return clamp(x, m.x, b.Width-m.x-w)
}

func (m margins) clampY(y float64, h float64, b Bounds) float64 {
	return clamp(y, m.y, b.Height-m.y-h)
}

// SlotStrategy tries each free anchor with a little jitter.
type SlotStrategy struct {
	Anchors []Anchor
	JitterX float64
	JitterY float64
	MarginX float64
	MarginY float64
}

func (s SlotStrategy) Name() string { return TierSlot }

func (s SlotStrategy) Place(req Request) (Placement, bool) {
	m := margins{s.MarginX, s.MarginY}
	b := req.Bounds

	for i, anchor := range s.Anchors {
		if req.UsedSlots[i] {
			continue
		}

		centerX := anchor.X*b.Width + jitter(req.Rand, s.JitterX)
		centerY := anchor.Y*b.Height + jitter(req.Rand, s.JitterY)
		candidate := Rect{
			X: m.clampX(roundHalfUp(centerX-req.W/2), req.W, b),
			Y: m.clampY(roundHalfUp(centerY-req.H/2), req.H, b),
			W: req.W,
			H: req.H,
		}

		if !intersectsAny(candidate, req.Occupied) {
			return placementFrom(req, candidate, i, TierSlot), true
		}
	}

	return Placement{}, false
}

// RandomStrategy samples uniformly inside the margins.
type RandomStrategy struct {
	Tries   int
	MarginX float64
	MarginY float64
}

func (s RandomStrategy) Name() string { return TierRandom }

func (s RandomStrategy) Place(req Request) (Placement, bool) {
	if req.Rand == nil {
		return Placement{}, false
	}

	m := margins{s.MarginX, s.MarginY}
	b := req.Bounds

	for try := 0; try < s.Tries; try++ {
		x := roundHalfUp(m.x + req.Rand.Float64()*(b.Width-2*m.x-req.W))
		y := roundHalfUp(m.y + req.Rand.Float64()*(b.Height-2*m.y-req.H))
		candidate := Rect{
			X: m.clampX(x, req.W, b),
			Y: m.clampY(y, req.H, b),
			W: req.W,
			H: req.H,
		}

		if !intersectsAny(candidate, req.Occupied) {
			return placementFrom(req, candidate, -1, TierRandom), true
		}
	}

	return Placement{}, false
}

// StackStrategy starts below the center and walks downward. It always
// returns a placement: the last candidate wins even if it overlaps.
type StackStrategy struct {
	Anchor  Anchor
	Steps   int
	Gap     float64
	MarginX float64
	MarginY float64
}

func (s StackStrategy) Name() string { return TierStack }

func (s StackStrategy) Place(req Request) (Placement, bool) {
	m := margins{s.MarginX, s.MarginY}
	b := req.Bounds

	candidate := Rect{
		X: m.clampX(roundHalfUp(b.Width*s.Anchor.X-req.W/2), req.W, b),
		Y: m.clampY(roundHalfUp(b.Height*s.Anchor.Y-req.H/2), req.H, b),
		W: req.W,
		H: req.H,
	}

	for step := 0; step < s.Steps && intersectsAny(candidate, req.Occupied); step++ {
		candidate.Y = m.clampY(candidate.Y+req.H+s.Gap, req.H, b)
	}

	return placementFrom(req, candidate, -1, TierStack), true
}

// DefaultStrategies builds the slot, random, stack chain from t.
func DefaultStrategies(t Tuning) []Strategy {
	return []Strategy{
		SlotStrategy{
			Anchors: t.Anchors,
			JitterX: t.JitterX,
			JitterY: t.JitterY,
			MarginX: t.MarginX,
			MarginY: t.MarginY,
		},
		RandomStrategy{
			Tries:   t.RandomTries,
			MarginX: t.MarginX,
			MarginY: t.MarginY,
		},
		StackStrategy{
			Anchor:  t.StackAnchor,
			Steps:   t.StackSteps,
			Gap:     t.StackGap,
			MarginX: t.MarginX,
			MarginY: t.MarginY,
		},
	}
}

func placementFrom(req Request, r Rect, slot int, tier string) Placement {
	return Placement{
		TimeMs: req.TimeMs,
		X:      r.X,
		Y:      r.Y,
		W:      r.W,
		H:      r.H,
		Slot:   slot,
		Tier:   tier,
	}
}

func jitter(rng *rand.Rand, amount float64) float64 {
	if rng == nil || amount <= 0 {
		return 0
	}
	return rng.Float64()*2*amount - amount
}
