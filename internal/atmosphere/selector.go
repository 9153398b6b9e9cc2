package atmosphere

import "karolbroda.com/lyrhaze/internal/lrc"

// Visible returns the trailing window of lines that have started by nowMs,
// oldest first. lines must be sorted by time.
func Visible(lines []lrc.Line, nowMs int64, window int) []lrc.Line {
	if window <= 0 || len(lines) == 0 {
		return nil
	}

	end := 0
	for end < len(lines) && lines[end].TimeMs <= nowMs {
		end++
	}
	if end == 0 {
		return nil
	}

	start := max(0, end-window)
	visible := make([]lrc.Line, end-start)
	copy(visible, lines[start:end])
	return visible
}
