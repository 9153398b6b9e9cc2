package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"karolbroda.com/lyrhaze/internal/atmosphere"
	"karolbroda.com/lyrhaze/internal/colors"
)

type cell struct {
	r     rune
	color string
	bold  bool
	// cont marks the second column of a wide rune.
	cont bool
}

// canvas is a grid of terminal cells that frame lines are painted onto.
// Later writes win, so fading lines are painted before visible ones.
type canvas struct {
	width  int
	height int
	cells  []cell
	plain  bool
}

func newCanvas(width int, height int, plain bool) *canvas {
	width = max(width, 0)
	height = max(height, 0)
	return &canvas{
		width:  width,
		height: height,
		cells:  make([]cell, width*height),
		plain:  plain,
	}
}

func (c *canvas) at(x int, y int) *cell {
	return &c.cells[y*c.width+x]
}

// put writes r at (x, y) and returns the columns it took; 0 when it does not
// fit.
func (c *canvas) put(x int, y int, r rune, color string, bold bool) int {
	w := runewidth.RuneWidth(r)
	if w == 0 || y < 0 || y >= c.height || x < 0 || x+w > c.width {
		return w
	}

	// never leave half of a wide rune behind
	if cur := c.at(x, y); cur.cont && x > 0 {
		*c.at(x-1, y) = cell{}
	}
	if end := x + w; end < c.width && c.at(end, y).cont {
		*c.at(end, y) = cell{}
	}

	*c.at(x, y) = cell{r: r, color: color, bold: bold}
	for i := 1; i < w; i++ {
		*c.at(x+i, y) = cell{cont: true}
	}
	return w
}

func (c *canvas) text(x int, y int, s string, color string, bold bool) int {
	for _, r := range s {
		x += c.put(x, y, r, color, bold)
	}
	return x
}

// drawFrame paints every line of the frame, fading colors toward bg by the
// line's opacity.
func (c *canvas) drawFrame(frame atmosphere.Frame, base string, bg string) {
	for _, rl := range frame.Lines {
		if !rl.Visible {
			c.drawLine(rl, base, bg)
		}
	}
	for _, rl := range frame.Lines {
		if rl.Visible {
			c.drawLine(rl, base, bg)
		}
	}
}

// drawLine walks the original text so the whitespace between tokens keeps
// its place, coloring each token with its sweep color.
func (c *canvas) drawLine(rl atmosphere.RenderLine, base string, bg string) {
	if rl.Opacity <= 0 {
		return
	}
	x := int(math.Round(rl.X))
	y := int(math.Round(rl.Y))
	gapColor := colors.Fade(base, bg, rl.Opacity)

	rest := rl.Text
	for _, tok := range rl.Tokens {
		idx := strings.Index(rest, tok.Text)
		if idx < 0 {
			break
		}
		x = c.text(x, y, rest[:idx], gapColor, false)
		sweeping := rl.Visible && tok.Progress > 0 && tok.Progress < 1
		x = c.text(x, y, tok.Text, colors.Fade(tok.Color, bg, rl.Opacity), sweeping)
		rest = rest[idx+len(tok.Text):]
	}
	c.text(x, y, rest, gapColor, false)
}

// Rows renders the grid, batching runs of equally styled cells into one
// lipgloss render each.
func (c *canvas) Rows() []string {
	rows := make([]string, c.height)
	for y := 0; y < c.height; y++ {
		var row strings.Builder
		var run strings.Builder
		var runColor string
		var runBold bool

		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == "" || c.plain {
				row.WriteString(run.String())
			} else {
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(runColor)).Bold(runBold)
				row.WriteString(style.Render(run.String()))
			}
			run.Reset()
		}

		for x := 0; x < c.width; x++ {
			cl := c.at(x, y)
			if cl.cont {
				continue
			}
			r, color, bold := cl.r, cl.color, cl.bold
			if r == 0 {
				r, color, bold = ' ', "", false
			}
			if color != runColor || bold != runBold {
				flush()
				runColor, runBold = color, bold
			}
			run.WriteRune(r)
		}
		flush()
		rows[y] = strings.TrimRight(row.String(), " ")
	}
	return rows
}
