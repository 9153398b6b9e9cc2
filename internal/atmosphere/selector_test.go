package atmosphere

import (
	"testing"

	"karolbroda.com/lyrhaze/internal/lrc"
)

func texts(lines []lrc.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestVisibleExample(t *testing.T) {
	lines := lrc.Parse("[00:01.500]Hello\n[00:03.000]World").Lyrics

	tests := []struct {
		now  int64
		want []string
	}{
		{0, nil},
		{1499, nil},
		{1500, []string{"Hello"}},
		{2000, []string{"Hello"}},
		{3500, []string{"Hello", "World"}},
	}

	for _, tt := range tests {
		got := texts(Visible(lines, tt.now, 3))
		if !equalStrings(got, tt.want) {
			t.Errorf("Visible(now=%d) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestVisibleTrailingWindow(t *testing.T) {
	lines := lrc.Lines{
		{TimeMs: 100, Text: "a"},
		{TimeMs: 200, Text: "b"},
		{TimeMs: 300, Text: "c"},
		{TimeMs: 400, Text: "d"},
		{TimeMs: 500, Text: "e"},
	}

	for now := int64(0); now <= 700; now += 25 {
		visible := Visible(lines, now, 3)
		if len(visible) > 3 {
			t.Fatalf("now=%d: %d visible lines", now, len(visible))
		}
		for _, l := range visible {
			if l.TimeMs > now {
				t.Fatalf("now=%d: future line %+v visible", now, l)
			}
		}
		// the window always ends at the latest started line
		if len(visible) > 0 {
			last := visible[len(visible)-1]
			for _, l := range lines {
				if l.TimeMs <= now && l.TimeMs > last.TimeMs {
					t.Fatalf("now=%d: window misses %+v", now, l)
				}
			}
		}
	}

	if got := texts(Visible(lines, 450, 3)); !equalStrings(got, []string{"b", "c", "d"}) {
		t.Errorf("Visible(450) = %v", got)
	}
}

func TestVisibleDegenerateInput(t *testing.T) {
	if got := Visible(nil, 1000, 3); got != nil {
		t.Errorf("Visible(nil) = %v", got)
	}
	if got := Visible(lrc.Lines{{TimeMs: 0, Text: "a"}}, 10, 0); got != nil {
		t.Errorf("Visible(window 0) = %v", got)
	}
}

func TestVisibleIsPure(t *testing.T) {
	lines := lrc.Lines{{TimeMs: 0, Text: "a"}, {TimeMs: 10, Text: "b"}}
	first := Visible(lines, 10, 3)
	first[0].Text = "mutated"
	if lines[0].Text != "a" {
		t.Fatal("Visible exposed the caller's backing array")
	}
	if got := texts(Visible(lines, 10, 3)); !equalStrings(got, []string{"a", "b"}) {
		t.Errorf("second call = %v", got)
	}
}
