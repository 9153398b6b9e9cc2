package atmosphere

import (
	"regexp"

	"karolbroda.com/lyrhaze/internal/colors"
)

// one CJK ideograph, one latin word (with an embedded apostrophe), or one
// punctuation rune. \s is ascii only in RE2, so \p{Z} covers the unicode
// spaces (U+3000, U+00A0).
var tokenPattern = regexp.MustCompile(`[\x{4e00}-\x{9fff}]|[A-Za-z0-9]+(?:'[A-Za-z0-9]+)?|[^\s\p{Z}\w]`)

var punctPattern = regexp.MustCompile(`[^\s\p{Z}\w\x{4e00}-\x{9fff}]`)

// Token is one highlightable unit of a line.
type Token struct {
	Text     string
	Progress float64
	Color    string
	Punct    bool
}

func Tokenize(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

func IsPunct(token string) bool {
	return punctPattern.MatchString(token)
}

// LineProgress is how far playback has moved through a line, in [0, 1].
func LineProgress(nowMs int64, lineMs int64, durationMs int64) float64 {
	if durationMs <= 0 {
		if nowMs >= lineMs {
			return 1
		}
		return 0
	}
	return clamp01(float64(nowMs-lineMs) / float64(durationMs))
}

// TokenProgress spreads line progress across tokens so they light up one
// after another.
func TokenProgress(progress float64, count int, index int) float64 {
	parts := max(1, count)
	return clamp01(progress*float64(parts) - float64(index))
}

// Highlight tokenizes text and colors each token between base and
// highlight according to progress.
func Highlight(text string, progress float64, base string, highlight string) []Token {
	words := Tokenize(text)
	tokens := make([]Token, len(words))
	for i, word := range words {
		local := TokenProgress(progress, len(words), i)
		tokens[i] = Token{
			Text:     word,
			Progress: local,
			Color:    colors.MixRGB(base, highlight, local),
			Punct:    IsPunct(word),
		}
	}
	return tokens
}
