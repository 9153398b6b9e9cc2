package track

import "fmt"

// Info identifies the song a lyric set belongs to.
type Info struct {
	Title      string
	Artist     string
	Album      string
	DurationMs int64
	ArtworkURL string
	TrackID    string
}

func (t *Info) IsValid() bool {
	if t == nil {
		return false
	}
	return t.Title != "" && t.Artist != ""
}

func (t *Info) IsSameTrack(other *Info) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.TrackID != "" && other.TrackID != "" {
		return t.TrackID == other.TrackID
	}
	return t.Title == other.Title && t.Artist == other.Artist
}

// DurationSecs rounds the duration to whole seconds, the unit lyric APIs
// match on.
func (t *Info) DurationSecs() int64 {
	if t == nil || t.DurationMs <= 0 {
		return 0
	}
	return (t.DurationMs + 500) / 1000
}

func (t *Info) String() string {
	if t == nil {
		return "<no track>"
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}
