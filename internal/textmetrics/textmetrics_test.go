package textmetrics

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestCells(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"hello", 5},
		{"月光", 4},
		{"la 月", 5},
	}

	for _, tt := range tests {
		w, h, err := Cells{}.Measure(tt.text)
		if err != nil {
			t.Fatalf("Measure(%q): %v", tt.text, err)
		}
		if w != tt.want || h != 1 {
			t.Errorf("Measure(%q) = %v x %v, want %v x 1", tt.text, w, h, tt.want)
		}
	}
}

func TestFontMeasure(t *testing.T) {
	f, err := NewFont("", 24)
	if err != nil {
		t.Fatalf("NewFont: %v", err)
	}
	defer f.Close()

	short, h, err := f.Measure("hi")
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	long, _, _ := f.Measure("hi there, a longer line")

	if short <= 0 || long <= short {
		t.Errorf("widths short=%v long=%v", short, long)
	}
	if math.Abs(h-28.8) > 1e-9 {
		t.Errorf("height = %v", h)
	}
	if f.Size() != 24 {
		t.Errorf("Size = %v", f.Size())
	}
}

func TestFontClosed(t *testing.T) {
	f, err := NewFont("", 0)
	if err != nil {
		t.Fatalf("NewFont: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, _, err := f.Measure("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Measure after Close = %v, want ErrClosed", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestNewFontErrors(t *testing.T) {
	if _, err := NewFont(filepath.Join(t.TempDir(), "missing.ttf"), 12); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := NewFontFromBytes([]byte("not a font"), 12); err == nil {
		t.Error("expected error for garbage font data")
	}
}
