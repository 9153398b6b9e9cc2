package colors

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const fallbackHex = "#FFFFFF"

// ParseHex accepts #rrggbb and #rgb.
func ParseHex(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// HexToRGB falls back to white for unparseable input so a bad config value
// still renders.
func HexToRGB(hex string) (int, int, int) {
	c, err := ParseHex(hex)
	if err != nil {
		return 255, 255, 255
	}
	r, g, b := c.RGB255()
	return int(r), int(g), int(b)
}

func RGBToHex(r int, g int, b int) string {
	r = clampInt(r, 0, 255)
	g = clampInt(g, 0, 255)
	b = clampInt(b, 0, 255)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// Normalize returns hex in canonical #RRGGBB form, or the fallback.
func Normalize(hex string, fallback string) string {
	if _, err := ParseHex(hex); err != nil {
		return fallback
	}
	return RGBToHex(HexToRGB(hex))
}

// MixRGB interpolates linearly per 8-bit channel and rounds half up, so
// t=0 is exactly a and t=1 exactly b.
func MixRGB(a string, b string, t float64) string {
	t = clamp01(t)
	r1, g1, b1 := HexToRGB(a)
	r2, g2, b2 := HexToRGB(b)
	return RGBToHex(
		lerpChannel(r1, r2, t),
		lerpChannel(g1, g2, t),
		lerpChannel(b1, b2, t),
	)
}

// Fade stands in for alpha on terminals: the foreground is pulled toward the
// background as opacity drops.
func Fade(fg string, bg string, opacity float64) string {
	return MixRGB(bg, fg, opacity)
}

// BlendHcl blends in HCL space, which keeps hue and lightness even across
// the blend.
func BlendHcl(a string, b string, t float64) string {
	ca, err := ParseHex(a)
	if err != nil {
		ca, _ = ParseHex(fallbackHex)
	}
	cb, err := ParseHex(b)
	if err != nil {
		cb, _ = ParseHex(fallbackHex)
	}
	r, g, bl := ca.BlendHcl(cb, clamp01(t)).Clamped().RGB255()
	return RGBToHex(int(r), int(g), int(bl))
}

func GenerateGradient(startHex string, endHex string, steps int) []string {
	if steps < 2 {
		steps = 2
	}
	gradient := make([]string, steps)
	for i := range gradient {
		gradient[i] = BlendHcl(startHex, endHex, float64(i)/float64(steps-1))
	}
	return gradient
}

// Lightness is the perceptual lightness on a 0-100 scale.
func Lightness(hex string) float64 {
	c, err := ParseHex(hex)
	if err != nil {
		return 100
	}
	_, _, l := c.Hcl()
	return l * 100
}

// Contrast is the distance between two colors in Lab space.
func Contrast(a string, b string) float64 {
	ca, errA := ParseHex(a)
	cb, errB := ParseHex(b)
	if errA != nil || errB != nil {
		return 0
	}
	return ca.DistanceLab(cb) * 100
}

func AdjustBrightness(hex string, factor float64) string {
	r, g, b := HexToRGB(hex)
	return RGBToHex(int(float64(r)*factor), int(float64(g)*factor), int(float64(b)*factor))
}

// FormatTime renders a millisecond position as m:ss.
func FormatTime(ms int64) string {
	if ms < 0 {
		return "0:00"
	}
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func lerpChannel(from int, to int, t float64) int {
	return int(math.Floor(float64(from) + float64(to-from)*t + 0.5))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(val int, min int, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
