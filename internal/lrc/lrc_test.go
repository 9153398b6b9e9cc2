package lrc

import (
	"reflect"
	"testing"
)

func TestParseExample(t *testing.T) {
	parsed := Parse("[00:01.500]Hello\n[00:03.000]World")

	want := Lines{
		{TimeMs: 1500, Text: "Hello"},
		{TimeMs: 3000, Text: "World"},
	}
	if !reflect.DeepEqual(parsed.Lyrics, want) {
		t.Errorf("Lyrics = %+v, want %+v", parsed.Lyrics, want)
	}
	if len(parsed.Meta) != 0 {
		t.Errorf("Meta = %+v, want empty", parsed.Meta)
	}
}

func TestParseTimestamps(t *testing.T) {
	tests := []struct {
		name string
		line string
		want int64
		ok   bool
	}{
		{"two digit fraction", "[01:02.34]x", 62_340, true},
		{"three digit fraction", "[01:02.345]x", 62_345, true},
		{"one digit fraction", "[00:00.5]x", 500, true},
		{"long minutes", "[120:00.00]x", 7_200_000, true},
		{"missing fraction", "[01:02]x", 0, false},
		{"single digit seconds", "[01:2.00]x", 0, false},
		{"single digit minutes", "[1:02.00]x", 0, false},
		{"four digit fraction", "[01:02.3456]x", 0, false},
		{"letters", "[ab:cd.ef]x", 0, false},
		{"negative", "[-1:02.00]x", 0, false},
		{"no tag", "hello", 0, false},
		{"tag not at start", "x [01:02.00]", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.line)
			if !tt.ok {
				if len(parsed.Lyrics)+len(parsed.Meta) != 0 {
					t.Fatalf("Parse(%q) kept a line: %+v", tt.line, parsed)
				}
				return
			}
			if len(parsed.Lyrics) != 1 {
				t.Fatalf("Parse(%q) lyrics = %+v, want one line", tt.line, parsed.Lyrics)
			}
			if parsed.Lyrics[0].TimeMs != tt.want {
				t.Errorf("TimeMs = %d, want %d", parsed.Lyrics[0].TimeMs, tt.want)
			}
		})
	}
}

func TestParseSplitsMetadata(t *testing.T) {
	raw := "[00:00.00]作词 : someone\n[00:00.50]composer: other\n[00:05.00]first line\r\n\n[00:07.00]second line"

	parsed := Parse(raw)

	if len(parsed.Meta) != 2 {
		t.Fatalf("Meta = %+v, want 2 entries", parsed.Meta)
	}
	if parsed.Meta[0].Text != "作词 : someone" {
		t.Errorf("Meta[0].Text = %q", parsed.Meta[0].Text)
	}
	if len(parsed.Lyrics) != 2 {
		t.Fatalf("Lyrics = %+v, want 2 entries", parsed.Lyrics)
	}
	if parsed.Lyrics[1].Text != "second line" {
		t.Errorf("Lyrics[1].Text = %q, want trimmed text", parsed.Lyrics[1].Text)
	}
}

func TestParseSortsAndIsIdempotent(t *testing.T) {
	raw := "[00:09.00]c\n[00:01.00]a\ngarbage\n[00:04.00]b\n[00:04.00]b2"

	first := Parse(raw)
	second := Parse(raw)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parsing twice differs: %+v vs %+v", first, second)
	}

	for i := 1; i < len(first.Lyrics); i++ {
		if first.Lyrics[i-1].TimeMs > first.Lyrics[i].TimeMs {
			t.Fatalf("lyrics not sorted: %+v", first.Lyrics)
		}
	}
	for _, line := range first.Lyrics {
		if line.TimeMs < 0 {
			t.Fatalf("negative time in %+v", line)
		}
	}
	if first.Lyrics[1].Text != "b" || first.Lyrics[2].Text != "b2" {
		t.Errorf("equal timestamps lost input order: %+v", first.Lyrics)
	}
}

func TestParseEmptyAndGarbage(t *testing.T) {
	for _, raw := range []string{
		"", "\n\n", "[", "[]", "[:]", "[00:00.]x", "just text",
		"[999999999999999999:00.00]boom",
		"[1234567:00.00]too long",
	} {
		parsed := Parse(raw)
		if len(parsed.Lyrics) != 0 || len(parsed.Meta) != 0 {
			t.Errorf("Parse(%q) = %+v, want empty", raw, parsed)
		}
	}
}

func TestParseLongMinutes(t *testing.T) {
	parsed := Parse("[999999999999999999:00.00]boom\n[123456:00.00]late\n[00:01.00]ok")
	if len(parsed.Lyrics) != 2 {
		t.Fatalf("got %+v, want the overflowing line dropped", parsed.Lyrics)
	}
	for _, line := range parsed.Lyrics {
		if line.TimeMs < 0 {
			t.Errorf("negative time %d for %q", line.TimeMs, line.Text)
		}
	}
	if parsed.Lyrics[0].Text != "ok" || parsed.Lyrics[1].TimeMs != 123456*60_000 {
		t.Errorf("got %+v", parsed.Lyrics)
	}
}

func TestLinesText(t *testing.T) {
	lines := Lines{{TimeMs: 0, Text: "a"}, {TimeMs: 500, Text: "b c"}}
	if got := lines.Text(); got != "a\nb c" {
		t.Errorf("Text() = %q", got)
	}
	if got := (Lines{}).Text(); got != "" {
		t.Errorf("empty Text() = %q", got)
	}
}

func TestLinesHelpers(t *testing.T) {
	lines := Lines{{TimeMs: 0, Text: "a"}, {TimeMs: 500, Text: "b"}, {TimeMs: 3000, Text: "c"}}

	if got := lines.Index(500); got != 1 {
		t.Errorf("Index(500) = %d, want 1", got)
	}
	if got := lines.Index(501); got != -1 {
		t.Errorf("Index(501) = %d, want -1", got)
	}

	if got := lines.Duration(0, 800, 4000); got != 800 {
		t.Errorf("Duration(0) = %d, want min 800", got)
	}
	if got := lines.Duration(1, 800, 4000); got != 2500 {
		t.Errorf("Duration(1) = %d, want 2500", got)
	}
	if got := lines.Duration(2, 800, 4000); got != 4000 {
		t.Errorf("Duration(last) = %d, want default 4000", got)
	}

	if lines.Fingerprint() == (Lines{{TimeMs: 0, Text: "a"}}).Fingerprint() {
		t.Error("different lyric sets share a fingerprint")
	}
	if (Lines{}).Fingerprint() != "" {
		t.Error("empty set should have empty fingerprint")
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(62_345); got != "01:02.34" {
		t.Errorf("FormatTimestamp = %q, want 01:02.34", got)
	}
	if got := FormatTimestamp(-5); got != "00:00.00" {
		t.Errorf("FormatTimestamp(-5) = %q", got)
	}
}
