package atmosphere

import (
	"math/rand/v2"
	"testing"

	"karolbroda.com/lyrhaze/internal/lrc"
)

type fixedMeasurer struct {
	w float64
	h float64
}

func (m fixedMeasurer) Measure(string) (float64, float64, error) {
	return m.w, m.h, nil
}

type failingMeasurer struct{}

func (failingMeasurer) Measure(string) (float64, float64, error) {
	return 0, 0, ErrNoMetrics
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func song(n int, stepMs int64) lrc.Lines {
	lines := make(lrc.Lines, n)
	for i := range lines {
		lines[i] = lrc.Line{TimeMs: int64(i) * stepMs, Text: "line"}
	}
	return lines
}

func TestRectIntersectsInclusive(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}

	tests := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlap", Rect{X: 5, Y: 5, W: 10, H: 10}, true},
		{"touching edge", Rect{X: 10, Y: 0, W: 5, H: 5}, true},
		{"touching corner", Rect{X: 10, Y: 10, W: 5, H: 5}, true},
		{"apart horizontally", Rect{X: 11, Y: 0, W: 5, H: 5}, false},
		{"apart vertically", Rect{X: 0, Y: 11, W: 5, H: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
			if got := tt.b.Intersects(a); got != tt.want {
				t.Errorf("Intersects is not symmetric")
			}
		})
	}
}

func TestSlotStrategySkipsUsedAndOccupied(t *testing.T) {
	tuning := DefaultTuning()
	s := DefaultStrategies(tuning)[0].(SlotStrategy)
	s.JitterX, s.JitterY = 0, 0

	req := Request{
		TimeMs:    1,
		W:         100,
		H:         20,
		Bounds:    Bounds{Width: 750, Height: 500},
		UsedSlots: map[int]bool{},
	}

	p, ok := s.Place(req)
	if !ok || p.Slot != 0 || p.Tier != TierSlot {
		t.Fatalf("first placement = %+v, %v", p, ok)
	}
	// anchor (0.2, 0.2) centered
	if p.X != 100 || p.Y != 90 {
		t.Errorf("slot 0 at (%v, %v), want (100, 90)", p.X, p.Y)
	}

	req.UsedSlots[0] = true
	req.Occupied = []Rect{{X: 500, Y: 0, W: 250, H: 200}}
	p, ok = s.Place(req)
	if !ok {
		t.Fatal("expected a free slot")
	}
	if p.Slot == 0 || p.Slot == 1 {
		t.Errorf("got slot %d, which is used or blocked", p.Slot)
	}

	for i := range s.Anchors {
		req.UsedSlots[i] = true
	}
	if _, ok := s.Place(req); ok {
		t.Error("slot strategy placed a line with every slot used")
	}
}

func TestRandomStrategy(t *testing.T) {
	s := RandomStrategy{Tries: 40, MarginX: 20, MarginY: 20}
	req := Request{W: 50, H: 20, Bounds: Bounds{Width: 400, Height: 300}}

	if _, ok := s.Place(req); ok {
		t.Fatal("random strategy should decline without a source of randomness")
	}

	req.Rand = seeded()
	req.Occupied = []Rect{{X: 0, Y: 0, W: 400, H: 150}}
	p, ok := s.Place(req)
	if !ok {
		t.Fatal("random strategy found no free spot in an open half")
	}
	if p.Tier != TierRandom || p.Slot != -1 {
		t.Errorf("placement = %+v", p)
	}
	if p.Rect().Intersects(req.Occupied[0]) {
		t.Errorf("random placement %+v overlaps occupied area", p)
	}
	if p.X < 20 || p.X+p.W > 380 || p.Y < 20 || p.Y+p.H > 280 {
		t.Errorf("random placement %+v leaves the margins", p)
	}

	req.Occupied = []Rect{{X: 0, Y: 0, W: 400, H: 300}}
	if _, ok := s.Place(req); ok {
		t.Error("random strategy placed into a full container")
	}
}

func TestStackStrategyWalksDown(t *testing.T) {
	s := StackStrategy{Anchor: Anchor{0.5, 0.6}, Steps: 20, Gap: 8, MarginX: 20, MarginY: 20}
	req := Request{W: 100, H: 20, Bounds: Bounds{Width: 750, Height: 500}}

	p, ok := s.Place(req)
	if !ok || p.Tier != TierStack || p.Slot != -1 {
		t.Fatalf("placement = %+v, %v", p, ok)
	}
	if p.X != 325 || p.Y != 290 {
		t.Errorf("stack start = (%v, %v), want (325, 290)", p.X, p.Y)
	}

	req.Occupied = []Rect{p.Rect()}
	next, _ := s.Place(req)
	if next.Y != 318 {
		t.Errorf("second stack Y = %v, want 318", next.Y)
	}
	if next.Rect().Intersects(p.Rect()) {
		t.Error("stacked lines overlap while room remains")
	}
}

func TestStackStrategyAlwaysPlaces(t *testing.T) {
	s := StackStrategy{Anchor: Anchor{0.5, 0.6}, Steps: 20, Gap: 8, MarginX: 20, MarginY: 20}
	req := Request{
		W:        100,
		H:        20,
		Bounds:   Bounds{Width: 300, Height: 100},
		Occupied: []Rect{{X: 0, Y: 0, W: 300, H: 100}},
	}

	p, ok := s.Place(req)
	if !ok {
		t.Fatal("stack strategy must always place")
	}
	if p.Y < 20 || p.Y+p.H > 80 {
		t.Errorf("stack placement %+v escaped the margins", p)
	}
}

func TestLayoutPlacementsAreStable(t *testing.T) {
	engine := NewEngine(DefaultTuning(), fixedMeasurer{120, 24}, WithRand(seeded()))
	lines := song(6, 1000)
	bounds := Bounds{Width: 750, Height: 500}
	cache := NewCache(lines.Fingerprint())

	first := make(map[int64]Placement)
	for now := int64(0); now <= 8000; now += 40 {
		visible := Visible(lines, now, 3)
		cache = engine.Layout(cache, lines.Fingerprint(), visible, nil, bounds)

		for _, line := range visible {
			p, ok := cache.Get(line.TimeMs)
			if !ok {
				t.Fatalf("now=%d: visible line %d not placed", now, line.TimeMs)
			}
			if prev, seen := first[line.TimeMs]; seen {
				if prev != p {
					t.Fatalf("line %d moved from %+v to %+v", line.TimeMs, prev, p)
				}
			} else {
				first[line.TimeMs] = p
			}
		}
	}

	if len(first) != len(lines) {
		t.Errorf("placed %d lines, want %d", len(first), len(lines))
	}
}

func TestLayoutResetsOnNewSet(t *testing.T) {
	engine := NewEngine(DefaultTuning(), fixedMeasurer{120, 24}, WithRand(seeded()))
	a := song(3, 1000)
	b := lrc.Lines{{TimeMs: 0, Text: "other"}}

	cache := engine.Layout(nil, a.Fingerprint(), Visible(a, 5000, 3), nil, Bounds{})
	if cache.Len() != 3 {
		t.Fatalf("cache holds %d placements, want 3", cache.Len())
	}

	cache = engine.Layout(cache, b.Fingerprint(), nil, nil, Bounds{})
	if cache.Len() != 0 || cache.ID() != b.Fingerprint() {
		t.Errorf("cache was not reset for the new set: len=%d", cache.Len())
	}
}

func TestLayoutUsesDefaultBounds(t *testing.T) {
	tuning := DefaultTuning()
	engine := NewEngine(tuning, fixedMeasurer{100, 20}, WithRand(seeded()))
	lines := song(20, 100)

	cache := engine.Layout(nil, lines.Fingerprint(), Visible(lines, 5000, 20), nil, Bounds{})
	for _, p := range cache.Placements() {
		if p.X < tuning.MarginX || p.X+p.W > 500-tuning.MarginX {
			t.Errorf("placement %+v outside default width", p)
		}
		if p.Y < tuning.MarginY || p.Y+p.H > 500-tuning.MarginY {
			t.Errorf("placement %+v outside default height", p)
		}
	}
}

func TestLayoutExitingLinesBlockSlots(t *testing.T) {
	tuning := DefaultTuning()
	tuning.JitterX, tuning.JitterY = 0, 0
	engine := NewEngine(tuning, fixedMeasurer{100, 20}, WithRand(seeded()))
	lines := song(2, 1000)
	bounds := Bounds{Width: 750, Height: 500}

	cache := engine.Layout(nil, lines.Fingerprint(), lines[:1], nil, bounds)
	firstSlot, _ := cache.Get(0)

	// line 0 left the window but is still fading out
	cache = engine.Layout(cache, lines.Fingerprint(), lines[1:], []int64{0}, bounds)
	second, _ := cache.Get(1000)
	if second.Slot == firstSlot.Slot {
		t.Errorf("new line took slot %d of a fading line", second.Slot)
	}
	if second.Rect().Intersects(firstSlot.Rect()) {
		t.Error("new line overlaps a fading line")
	}
}

func TestLayoutForcedFallback(t *testing.T) {
	// the container only fits one box, so every anchor collapses onto the
	// same rectangle
	engine := NewEngine(DefaultTuning(), fixedMeasurer{60, 20}, WithRand(seeded()))
	lines := song(3, 1000)
	bounds := Bounds{Width: 100, Height: 60}

	cache := engine.Layout(nil, lines.Fingerprint(), Visible(lines, 5000, 3), nil, bounds)
	placements := cache.Placements()
	if len(placements) != 3 {
		t.Fatalf("placed %d lines, want 3", len(placements))
	}

	if placements[0].Tier != TierSlot {
		t.Errorf("first line tier = %s, want slot", placements[0].Tier)
	}
	for _, p := range placements[1:] {
		if p.Tier != TierStack || p.Slot != -1 {
			t.Errorf("line %d = %+v, want stack fallback", p.TimeMs, p)
		}
		if p.X != 20 || p.Y != 20 {
			t.Errorf("fallback placement (%v, %v) not clamped to margins", p.X, p.Y)
		}
	}
}

func TestLayoutCustomChainWithoutTerminalTier(t *testing.T) {
	engine := NewEngine(DefaultTuning(), fixedMeasurer{60, 20},
		WithRand(seeded()),
		WithStrategies(RandomStrategy{Tries: 0}))
	lines := song(1, 1000)

	cache := engine.Layout(nil, lines.Fingerprint(), lines, nil, Bounds{Width: 300, Height: 300})
	p, ok := cache.Get(0)
	if !ok {
		t.Fatal("line was not placed")
	}
	if p.X != 20 || p.Y != 20 || p.Slot != -1 {
		t.Errorf("placement = %+v, want margin fallback", p)
	}
}

func TestMeasurerFallback(t *testing.T) {
	wantW, wantH, _ := Heuristic{}.Measure("abcd")

	engine := NewEngine(DefaultTuning(), failingMeasurer{}, WithRand(seeded()))
	w, h := engine.Measure("abcd")
	if w != wantW || h != wantH {
		t.Errorf("Measure = %v x %v, want heuristic %v x %v", w, h, wantW, wantH)
	}

	oneW, _, _ := Heuristic{}.Measure("x")
	w, _ = NewEngine(DefaultTuning(), nil).Measure("")
	if w != oneW {
		t.Errorf("empty text width = %v, want one character %v", w, oneW)
	}
	if wantW <= oneW {
		t.Error("heuristic width does not grow with text")
	}
}

func TestTuningValidate(t *testing.T) {
	if err := DefaultTuning().Validate(); err != nil {
		t.Errorf("DefaultTuning invalid: %v", err)
	}
	if err := CellTuning().Validate(); err != nil {
		t.Errorf("CellTuning invalid: %v", err)
	}

	bad := DefaultTuning()
	bad.Window = 0
	bad.Anchors = append(bad.Anchors, Anchor{X: 1.5, Y: 0})
	if err := bad.Validate(); err == nil {
		t.Error("Validate accepted a broken tuning")
	}
}
