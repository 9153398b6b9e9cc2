package ui

import "math"

// flash is a short highlight that decays over a number of ticks, used to
// draw attention to the sync offset after it changes.
type flash struct {
	startTick int
	length    int
	active    bool
}

func (f *flash) Trigger(tick int, length int) {
	f.startTick = tick
	f.length = length
	f.active = true
}

// Intensity is 1 when triggered and eases out to 0 after length ticks.
func (f flash) Intensity(tick int) float64 {
	if !f.active || f.length <= 0 {
		return 0
	}
	t := clamp(float64(tick-f.startTick)/float64(f.length), 0, 1)
	return 1 - easeOutCubic(t)
}

// pulse oscillates between 0 and 1 with the given period in ticks.
func pulse(tick int, period int) float64 {
	if period <= 0 {
		return 0
	}
	phase := float64(tick%period) / float64(period)
	return 0.5 - 0.5*math.Cos(phase*2*math.Pi)
}

func easeOutCubic(t float64) float64 {
	t = 1 - t
	return 1 - t*t*t
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
