package lrc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Line is a single timestamped entry of an lrc file. TimeMs doubles as the
// line's identity within one lyric set.
type Line struct {
	TimeMs int64
	Text   string
}

type Lines []Line

// Parsed separates credit lines ("lyricist: x") from the singable lyrics.
// Both slices are sorted ascending by time.
type Parsed struct {
	Meta   []Line
	Lyrics Lines
}

// Parse never fails: lines without a leading [mm:ss.fraction] tag are
// dropped.
func Parse(raw string) Parsed {
	var parsed Parsed
	if raw == "" {
		return parsed
	}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		timePart, text, ok := splitTag(trimmed)
		if !ok {
			continue
		}

		ms, err := parseTimestamp(timePart)
		if err != nil {
			continue
		}

		entry := Line{TimeMs: ms, Text: text}
		if isMeta(text) {
			parsed.Meta = append(parsed.Meta, entry)
		} else {
			parsed.Lyrics = append(parsed.Lyrics, entry)
		}
	}

	sort.SliceStable(parsed.Meta, func(i, j int) bool {
		return parsed.Meta[i].TimeMs < parsed.Meta[j].TimeMs
	})
	sort.SliceStable(parsed.Lyrics, func(i, j int) bool {
		return parsed.Lyrics[i].TimeMs < parsed.Lyrics[j].TimeMs
	})

	return parsed
}

func isMeta(text string) bool {
	return strings.ContainsAny(text, ":：")
}

func splitTag(line string) (string, string, bool) {
	if !strings.HasPrefix(line, "[") {
		return "", "", false
	}

	endIndex := strings.Index(line, "]")
	if endIndex <= 1 {
		return "", "", false
	}

	return line[1:endIndex], strings.TrimSpace(line[endIndex+1:]), true
}

// parseTimestamp accepts mm:ss.f, mm:ss.ff and mm:ss.fff, with up to
// maxMinuteDigits minute digits. The fraction is right padded to
// milliseconds, so ".5" and ".500" are the same instant.
func parseTimestamp(raw string) (int64, error) {
	minutePart, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, fmt.Errorf("missing minutes separator in %q", raw)
	}
	secondPart, fracPart, ok := strings.Cut(rest, ".")
	if !ok {
		return 0, fmt.Errorf("missing fraction in %q", raw)
	}

	if len(minutePart) < 2 || len(minutePart) > maxMinuteDigits || len(secondPart) != 2 || len(fracPart) < 1 || len(fracPart) > 3 {
		return 0, fmt.Errorf("invalid time format: %s", raw)
	}

	minutes, err := parseDigits(minutePart)
	if err != nil {
		return 0, err
	}
	seconds, err := parseDigits(secondPart)
	if err != nil {
		return 0, err
	}
	millis, err := parseDigits(fracPart + strings.Repeat("0", 3-len(fracPart)))
	if err != nil {
		return 0, err
	}

	return minutes*60_000 + seconds*1_000 + millis, nil
}

// keeps minutes*60_000 far from overflowing int64
const maxMinuteDigits = 6

func parseDigits(s string) (int64, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit in %q", s)
		}
	}
	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q: %w", s, err)
	}
	return value, nil
}

// FormatTimestamp renders ms back into the mm:ss.xx form used by lrc files.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60_000
	seconds := (ms % 60_000) / 1_000
	centis := (ms % 1_000) / 10
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, centis)
}

// Index returns the position of the line with the given time, or -1.
func (l Lines) Index(timeMs int64) int {
	i := sort.Search(len(l), func(i int) bool { return l[i].TimeMs >= timeMs })
	if i < len(l) && l[i].TimeMs == timeMs {
		return i
	}
	return -1
}

// Duration is how long line i owns the screen: until the next line starts,
// never shorter than minMs, and defaultMs for the final line.
func (l Lines) Duration(i int, minMs int64, defaultMs int64) int64 {
	if i < 0 || i >= len(l) {
		return defaultMs
	}
	if i == len(l)-1 {
		return max(minMs, defaultMs)
	}
	return max(minMs, l[i+1].TimeMs-l[i].TimeMs)
}

// Fingerprint identifies a lyric set by its times and texts. It walks every
// line, so compare it on load rather than per frame.
func (l Lines) Fingerprint() string {
	if len(l) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(l)))
	for _, line := range l {
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(line.TimeMs, 36))
		b.WriteByte(':')
		b.WriteString(line.Text)
	}
	return b.String()
}

// Text returns the lyric lines as plain text, one per line.
func (l Lines) Text() string {
	texts := make([]string, 0, len(l))
	for _, line := range l {
		texts = append(texts, line.Text)
	}
	return strings.Join(texts, "\n")
}
