// Package textmetrics measures lyric lines for the layout engine, either in
// terminal cells or in pixels of a real font.
package textmetrics

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var ErrClosed = errors.New("font measurer is closed")

// Cells measures text in terminal columns. Every line is one row tall.
type Cells struct{}

func (Cells) Measure(text string) (float64, float64, error) {
	return float64(runewidth.StringWidth(text)), 1, nil
}

// Font measures text with real glyph advances. A font.Face is not safe for
// concurrent use, so measurements are serialized.
type Font struct {
	mu   sync.Mutex
	face font.Face
	size float64
}

// NewFont parses a TrueType/OpenType file. An empty path selects Go Regular.
func NewFont(path string, size float64) (*Font, error) {
	data := goregular.TTF
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font: %w", err)
		}
		data = raw
	}
	return NewFontFromBytes(data, size)
}

func NewFontFromBytes(data []byte, size float64) (*Font, error) {
	if size <= 0 {
		size = 24
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}

	return &Font{face: face, size: size}, nil
}

// Measure returns the advance width and a line height of size * 1.2.
func (f *Font) Measure(text string) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.face == nil {
		return 0, 0, ErrClosed
	}

	advance := font.MeasureString(f.face, text)
	return float64(advance) / 64, f.size * 1.2, nil
}

func (f *Font) Size() float64 {
	return f.size
}

func (f *Font) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.face == nil {
		return nil
	}
	err := f.face.Close()
	f.face = nil
	return err
}
