package atmosphere

import "math"

// Bounds is the size of the rendering container, in whatever unit the
// measurer reports (pixels or terminal cells).
type Bounds struct {
	Width  float64
	Height float64
}

// orDefault substitutes fallback for an unmeasured (zero) dimension.
func (b Bounds) orDefault(fallback Bounds) Bounds {
	if b.Width <= 0 {
		b.Width = fallback.Width
	}
	if b.Height <= 0 {
		b.Height = fallback.Height
	}
	return b
}

type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Intersects treats touching edges as a collision.
func (r Rect) Intersects(o Rect) bool {
	return !(r.X > o.X+o.W ||
		r.X+r.W < o.X ||
		r.Y > o.Y+o.H ||
		r.Y+r.H < o.Y)
}

func intersectsAny(candidate Rect, occupied []Rect) bool {
	for _, r := range occupied {
		if candidate.Intersects(r) {
			return true
		}
	}
	return false
}

// clamp pins v to lo when the range is inverted, which keeps boxes larger
// than the container anchored at the margin.
func clamp(v float64, lo float64, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
