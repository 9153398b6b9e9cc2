package atmosphere

import (
	"testing"

	"karolbroda.com/lyrhaze/internal/lrc"
)

func TestFaderLifecycle(t *testing.T) {
	f := NewFader(100)
	a := lrc.Line{TimeMs: 0, Text: "a"}
	b := lrc.Line{TimeMs: 50, Text: "b"}

	f.Observe([]lrc.Line{a, b}, 60)
	if len(f.Exiting(60)) != 0 {
		t.Fatal("nothing has left yet")
	}
	if got := f.Opacity(0, true, 60); got != 1 {
		t.Errorf("visible opacity = %v", got)
	}

	f.Observe([]lrc.Line{b}, 200)
	exits := f.Exiting(200)
	if len(exits) != 1 || exits[0] != (ExitRecord{TimeMs: 0, ExitStartMs: 200}) {
		t.Fatalf("exits = %+v", exits)
	}

	if got := f.Opacity(0, false, 225); got != 0.75 {
		t.Errorf("opacity at 25ms = %v, want 0.75", got)
	}

	f.Observe([]lrc.Line{b}, 300)
	if len(f.Exiting(300)) != 0 {
		t.Error("record survived a full fade")
	}
	if got := f.Opacity(0, false, 300); got != 0 {
		t.Errorf("opacity after fade = %v", got)
	}
}

func TestFaderLineReturns(t *testing.T) {
	f := NewFader(100)
	a := lrc.Line{TimeMs: 0, Text: "a"}

	f.Observe([]lrc.Line{a}, 10)
	f.Observe(nil, 20)
	if len(f.Exiting(20)) != 1 {
		t.Fatal("expected a fading line")
	}

	f.Observe([]lrc.Line{a}, 30)
	if len(f.Exiting(30)) != 0 {
		t.Error("a visible line is still fading")
	}
}

func TestFaderBackwardSeekDropsRecords(t *testing.T) {
	f := NewFader(100)
	f.Observe([]lrc.Line{{TimeMs: 0}}, 1000)
	f.Observe(nil, 1010)
	f.Observe(nil, 500)
	if len(f.Exiting(500)) != 0 {
		t.Error("fade record survived a backward seek")
	}
}
