package atmosphere

import (
	"errors"
	"unicode/utf8"
)

// Measurer reports the rendered box of a line of text.
type Measurer interface {
	Measure(text string) (w float64, h float64, err error)
}

// Heuristic estimates a box from the character count; it is what every
// measurement falls back to when the real metrics are unavailable.
type Heuristic struct {
	FontSize float64
}

func (h Heuristic) Measure(text string) (float64, float64, error) {
	size := h.FontSize
	if size <= 0 {
		size = 24
	}
	n := max(1, utf8.RuneCountInString(text))
	return float64(n) * size * 0.6, size * 1.2, nil
}

type fallbackMeasurer struct {
	primary  Measurer
	fallback Heuristic
}

func (m fallbackMeasurer) Measure(text string) (float64, float64, error) {
	if m.primary != nil {
		w, h, err := m.primary.Measure(text)
		if err == nil && w > 0 && h > 0 {
			return w, h, nil
		}
	}
	return m.fallback.Measure(text)
}

// measureOrEstimate never fails.
func measureOrEstimate(m Measurer, text string) (float64, float64) {
	w, h, err := m.Measure(text)
	if err != nil || w <= 0 || h <= 0 {
		w, h, _ = Heuristic{}.Measure(text)
	}
	return w, h
}

// ErrNoMetrics is returned by measurers that cannot produce a box.
var ErrNoMetrics = errors.New("text metrics unavailable")
