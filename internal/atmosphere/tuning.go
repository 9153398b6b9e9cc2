package atmosphere

import (
	"errors"
	"fmt"
)

// Anchor is a candidate position expressed as fractions of the container.
type Anchor struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Tuning holds every layout constant. None of them carry meaning beyond
// "looks good in a 750x500 box", so they are all overridable.
type Tuning struct {
	Window        int      `yaml:"window"`
	FadeOutMs     int64    `yaml:"fade_out_ms"`
	MinLineMs     int64    `yaml:"min_line_ms"`
	DefaultLineMs int64    `yaml:"default_line_ms"`
	MarginX       float64  `yaml:"margin_x"`
	MarginY       float64  `yaml:"margin_y"`
	JitterX       float64  `yaml:"jitter_x"`
	JitterY       float64  `yaml:"jitter_y"`
	RandomTries   int      `yaml:"random_tries"`
	StackSteps    int      `yaml:"stack_steps"`
	StackGap      float64  `yaml:"stack_gap"`
	StackAnchor   Anchor   `yaml:"stack_anchor"`
	DefaultBounds Bounds   `yaml:"-"`
	Anchors       []Anchor `yaml:"anchors"`
}

func DefaultAnchors() []Anchor {
	return []Anchor{
		{0.2, 0.2},
		{0.8, 0.2},
		{0.2, 0.5},
		{0.8, 0.5},
		{0.5, 0.8},
		{0.5, 0.2},
		{0.3, 0.8},
		{0.7, 0.8},
		{0.5, 0.5},
	}
}

func DefaultTuning() Tuning {
	return Tuning{
		Window:        3,
		FadeOutMs:     100,
		MinLineMs:     800,
		DefaultLineMs: 4000,
		MarginX:       20,
		MarginY:       20,
		JitterX:       10,
		JitterY:       8,
		RandomTries:   40,
		StackSteps:    20,
		StackGap:      8,
		StackAnchor:   Anchor{0.5, 0.6},
		DefaultBounds: Bounds{Width: 500, Height: 500},
		Anchors:       DefaultAnchors(),
	}
}

// CellTuning scales the pixel defaults down to terminal cells, where one
// row is a line of text and columns are roughly half as wide as tall.
func CellTuning() Tuning {
	t := DefaultTuning()
	t.MarginX = 2
	t.MarginY = 1
	t.JitterX = 2
	t.JitterY = 0
	t.StackGap = 1
	t.DefaultBounds = Bounds{Width: 80, Height: 24}
	return t
}

func (t Tuning) Validate() error {
	var errs []error
	if t.Window < 1 {
		errs = append(errs, fmt.Errorf("window must be at least 1, got %d", t.Window))
	}
	if t.FadeOutMs < 0 {
		errs = append(errs, fmt.Errorf("fade_out_ms must not be negative, got %d", t.FadeOutMs))
	}
	if t.MinLineMs <= 0 {
		errs = append(errs, fmt.Errorf("min_line_ms must be positive, got %d", t.MinLineMs))
	}
	if t.DefaultLineMs <= 0 {
		errs = append(errs, fmt.Errorf("default_line_ms must be positive, got %d", t.DefaultLineMs))
	}
	if t.MarginX < 0 || t.MarginY < 0 {
		errs = append(errs, errors.New("margins must not be negative"))
	}
	if t.JitterX < 0 || t.JitterY < 0 {
		errs = append(errs, errors.New("jitter must not be negative"))
	}
	if t.RandomTries < 0 {
		errs = append(errs, fmt.Errorf("random_tries must not be negative, got %d", t.RandomTries))
	}
	if t.StackSteps < 0 {
		errs = append(errs, fmt.Errorf("stack_steps must not be negative, got %d", t.StackSteps))
	}
	for i, a := range t.Anchors {
		if a.X < 0 || a.X > 1 || a.Y < 0 || a.Y > 1 {
			errs = append(errs, fmt.Errorf("anchors[%d] = (%v, %v) is outside the unit square", i, a.X, a.Y))
		}
	}
	return errors.Join(errs...)
}
