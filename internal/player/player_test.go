package player

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func TestParseMetadata(t *testing.T) {
	metadata := map[string]dbus.Variant{
		"xesam:title":   dbus.MakeVariant("Song"),
		"xesam:artist":  dbus.MakeVariant([]string{"Band", "Guest"}),
		"xesam:album":   dbus.MakeVariant("Record"),
		"mpris:artUrl":  dbus.MakeVariant("https://example.com/a.jpg"),
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/com/example/track/1")),
		"mpris:length":  dbus.MakeVariant(int64(215_600_000)),
	}

	info := ParseMetadata(metadata)

	if info.Title != "Song" || info.Artist != "Band" || info.Album != "Record" {
		t.Errorf("names = %+v", info)
	}
	if info.TrackID != "/com/example/track/1" {
		t.Errorf("TrackID = %q", info.TrackID)
	}
	if info.DurationMs != 215_600 {
		t.Errorf("DurationMs = %d", info.DurationMs)
	}
	if !info.IsValid() {
		t.Error("parsed track should be valid")
	}
}

func TestParseMetadataLoose(t *testing.T) {
	info := ParseMetadata(map[string]dbus.Variant{
		"xesam:title":   dbus.MakeVariant("Song"),
		"xesam:artist":  dbus.MakeVariant("Solo"),
		"mpris:trackid": dbus.MakeVariant("spotify:track:1"),
		"mpris:length":  dbus.MakeVariant(uint64(1_000_000)),
		"xesam:album":   dbus.MakeVariant(42),
	})

	if info.Artist != "Solo" || info.TrackID != "spotify:track:1" || info.DurationMs != 1_000 {
		t.Errorf("info = %+v", info)
	}
	if info.Album != "" {
		t.Errorf("non-string album leaked: %q", info.Album)
	}

	if ParseMetadata(nil).IsValid() {
		t.Error("empty metadata is valid")
	}
}

func TestDetectSeek(t *testing.T) {
	start := time.Unix(100, 0)
	s := &State{}

	if s.DetectSeek(50_000, start) {
		t.Fatal("first sample cannot be a seek")
	}

	s.Playing = true
	s.UpdatePosition(10_000, start)

	if s.DetectSeek(12_000, start.Add(2*time.Second)) {
		t.Error("steady playback flagged as seek")
	}
	if !s.DetectSeek(60_000, start.Add(2*time.Second)) {
		t.Error("forward jump not detected")
	}
	if !s.DetectSeek(0, start.Add(time.Second)) {
		t.Error("backward jump not detected")
	}

	s.Playing = false
	if s.DetectSeek(10_000, start.Add(time.Minute)) {
		t.Error("paused player flagged as seek")
	}
}

func TestFilterServices(t *testing.T) {
	names := []string{
		"org.freedesktop.DBus",
		"org.mpris.MediaPlayer2.spotify",
		":1.42",
		"org.mpris.MediaPlayer2.mpv",
	}
	got := FilterServices(names)
	if len(got) != 2 || got[0] != "org.mpris.MediaPlayer2.mpv" || got[1] != "org.mpris.MediaPlayer2.spotify" {
		t.Errorf("FilterServices = %v", got)
	}
}

func TestMicrosToMs(t *testing.T) {
	if got := microsToMs(1_234_567); got != 1_234 {
		t.Errorf("microsToMs = %d", got)
	}
	if got := microsToMs(-5); got != 0 {
		t.Errorf("negative = %d", got)
	}
}

func TestEventString(t *testing.T) {
	if EventSeeked.String() != "seeked" {
		t.Errorf("String = %q", EventSeeked.String())
	}
}
