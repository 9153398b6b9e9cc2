package atmosphere

import "sort"

// Placement is the frozen position of one lyric line. Slot is the anchor
// index that produced it, or -1 when a fallback tier placed the line.
type Placement struct {
	TimeMs int64
	X      float64
	Y      float64
	W      float64
	H      float64
	Slot   int
	Tier   string
}

func (p Placement) Rect() Rect {
	return Rect{X: p.X, Y: p.Y, W: p.W, H: p.H}
}

// Cache owns the placements of one lyric set, keyed by line time. It is
// tagged with the set's fingerprint; the engine resets it when a different
// set is laid out.
type Cache struct {
	id         string
	placements map[int64]Placement
}

func NewCache(id string) *Cache {
	return &Cache{
		id:         id,
		placements: make(map[int64]Placement),
	}
}

func (c *Cache) ID() string {
	return c.id
}

func (c *Cache) Reset(id string) {
	c.id = id
	c.placements = make(map[int64]Placement)
}

func (c *Cache) Get(timeMs int64) (Placement, bool) {
	p, ok := c.placements[timeMs]
	return p, ok
}

func (c *Cache) Len() int {
	return len(c.placements)
}

// Placements returns a snapshot ordered by line time.
func (c *Cache) Placements() []Placement {
	out := make([]Placement, 0, len(c.placements))
	for _, p := range c.placements {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeMs < out[j].TimeMs })
	return out
}

// put refuses to overwrite: a placed line never moves.
func (c *Cache) put(p Placement) bool {
	if _, exists := c.placements[p.TimeMs]; exists {
		return false
	}
	c.placements[p.TimeMs] = p
	return true
}
