// Package artwork turns album art into the colors of the lyric sweep and a
// small half-block thumbnail for the header.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"

	"karolbroda.com/lyrhaze/internal/colors"
)

const (
	defaultHighlight = "#FFD54F"
	defaultBase      = "#FFFFFF"
	defaultAccent    = "#E8A4C8"
	defaultDim       = "#6272A4"
	gradientSteps    = 20
	fetchTimeout     = 5 * time.Second
)

// Palette holds the colors derived from one cover. Highlight is what sung
// tokens turn into, Base what they start as.
type Palette struct {
	Highlight string
	Base      string
	Accent    string
	Dim       string
	Gradient  []string
	FromArt   bool
}

func DefaultPalette() *Palette {
	return &Palette{
		Highlight: defaultHighlight,
		Base:      defaultBase,
		Accent:    defaultAccent,
		Dim:       defaultDim,
		Gradient:  colors.GenerateGradient(defaultHighlight, defaultAccent, gradientSteps),
	}
}

// WithOverrides replaces the sweep colors with user configured ones when
// they are valid hex colors.
func (p *Palette) WithOverrides(base string, highlight string) *Palette {
	out := *p
	out.Base = colors.Normalize(base, p.Base)
	out.Highlight = colors.Normalize(highlight, p.Highlight)
	return &out
}

// Fetch loads artwork from an http(s) or file:// url.
func Fetch(ctx context.Context, client *http.Client, artworkURL string) (image.Image, error) {
	if artworkURL == "" {
		return nil, errors.New("empty artwork url")
	}

	if path, ok := strings.CutPrefix(artworkURL, "file://"); ok {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open artwork file: %w", err)
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode artwork image: %w", err)
		}
		return img, nil
	}

	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}
	return img, nil
}

type candidate struct {
	hex        string
	sat        float64
	brightness float64
	score      float64
}

// ExtractPalette clusters the cover with k-means and picks the most vivid
// mid-bright color as the highlight.
func ExtractPalette(img image.Image) *Palette {
	if img == nil {
		return DefaultPalette()
	}

	items, err := prominentcolor.KmeansWithAll(5, img, prominentcolor.ArgumentDefault, prominentcolor.DefaultSize, nil)
	if err != nil || len(items) < 2 {
		return DefaultPalette()
	}

	candidates := make([]candidate, 0, len(items))
	for _, item := range items {
		r := float64(item.Color.R) / 255
		g := float64(item.Color.G) / 255
		b := float64(item.Color.B) / 255

		hi := math.Max(math.Max(r, g), b)
		lo := math.Min(math.Min(r, g), b)

		sat := 0.0
		if hi > 0 {
			sat = (hi - lo) / hi
		}

		candidates = append(candidates, candidate{
			hex:        boostColor(item.Color.R, item.Color.G, item.Color.B, hi),
			sat:        sat,
			brightness: hi,
			score:      sat * (1 - math.Abs(hi-0.6)),
		})
	}

	highlight, ok := pickHighlight(candidates)
	if !ok {
		return DefaultPalette()
	}
	accent := pickAccent(candidates, highlight)

	return &Palette{
		Highlight: highlight,
		// near white, tinted towards the cover so the sweep reads as one hue
		Base:     colors.MixRGB(defaultBase, highlight, 0.15),
		Accent:   accent,
		Dim:      colors.MixRGB(defaultDim, highlight, 0.25),
		Gradient: colors.GenerateGradient(highlight, accent, gradientSteps),
		FromArt:  true,
	}
}

func pickHighlight(candidates []candidate) (string, bool) {
	best := -1
	for i, c := range candidates {
		if c.brightness <= 0.3 || c.sat <= 0.2 {
			continue
		}
		if best < 0 || c.score > candidates[best].score {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	// a highlight too close to the base color would make the sweep invisible
	if colors.Contrast(candidates[best].hex, defaultBase) < 15 {
		return colors.AdjustBrightness(candidates[best].hex, 0.8), true
	}
	return candidates[best].hex, true
}

// pickAccent prefers the candidate most distinct from the highlight.
func pickAccent(candidates []candidate, highlight string) string {
	accent := defaultAccent
	bestContrast := -1.0
	for _, c := range candidates {
		if c.hex == highlight || c.brightness <= 0.25 {
			continue
		}
		if d := colors.Contrast(c.hex, highlight); d > bestContrast {
			bestContrast = d
			accent = c.hex
		}
	}
	return accent
}

// boostColor lifts dark clusters and tames blown out ones so every pick is
// readable on a dark terminal.
func boostColor(r, g, b uint32, brightness float64) string {
	if brightness > 0 && brightness < 0.4 {
		factor := math.Min(0.4/brightness, 2.5)
		r = uint32(math.Min(255, float64(r)*factor))
		g = uint32(math.Min(255, float64(g)*factor))
		b = uint32(math.Min(255, float64(b)*factor))
	}

	if brightness > 0.85 {
		avg := float64(r+g+b) / 3
		r = uint32(avg + (float64(r)-avg)*0.7)
		g = uint32(avg + (float64(g)-avg)*0.7)
		b = uint32(avg + (float64(b)-avg)*0.7)
	}

	return colors.RGBToHex(int(r), int(g), int(b))
}

// RenderHalfBlockArt draws img with "▀" cells, two pixels per cell.
func RenderHalfBlockArt(img image.Image, targetWidth int, targetHeight int) []string {
	if img == nil || targetWidth < 4 || targetHeight < 2 {
		return nil
	}

	resized := resize.Resize(uint(targetWidth), uint(targetHeight*2), img, resize.Lanczos3)
	bounds := resized.Bounds()

	lines := make([]string, targetHeight)

	for y := 0; y < targetHeight; y++ {
		var line strings.Builder
		topY := bounds.Min.Y + y*2
		bottomY := topY + 1

		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			topR, topG, topB, topA := resized.At(x, topY).RGBA()
			bottomR, bottomG, bottomB, bottomA := topR, topG, topB, topA
			if bottomY < bounds.Max.Y {
				bottomR, bottomG, bottomB, bottomA = resized.At(x, bottomY).RGBA()
			}

			if topA>>8 < 128 && bottomA>>8 < 128 {
				line.WriteString(" ")
				continue
			}

			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(colors.RGBToHex(int(topR>>8), int(topG>>8), int(topB>>8)))).
				Background(lipgloss.Color(colors.RGBToHex(int(bottomR>>8), int(bottomG>>8), int(bottomB>>8))))

			line.WriteString(style.Render("▀"))
		}
		lines[y] = line.String()
	}

	return lines
}
