package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type lrclibResponse struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// Lrclib queries the lrclib.net /api/get endpoint with a series of
// progressively looser name variants until one matches.
type Lrclib struct {
	GetURL string
	Client *http.Client
	// Delay spaces out consecutive attempts.
	Delay time.Duration
}

func NewLrclib(getURL string) *Lrclib {
	return &Lrclib{GetURL: getURL, Delay: 100 * time.Millisecond}
}

func (l *Lrclib) Name() string { return "lrclib" }

type searchAttempt struct {
	artist   string
	title    string
	album    string
	duration int64
}

func (a searchAttempt) key() string {
	return fmt.Sprintf("%s|%s|%s|%d", a.artist, a.title, a.album, a.duration)
}

// searchAttempts lists the distinct name variants to try, most specific
// first.
func searchAttempts(q Query) []searchAttempt {
	artist := normalizeString(q.Artist)
	title := normalizeString(q.Title)
	duration := q.durationSecs()

	candidates := []searchAttempt{
		{artist, title, q.Album, duration},
		{artist, title, "", duration},
		{artist, title, "", 0},
		{stripVersionInfo(q.Artist), stripVersionInfo(q.Title), "", 0},
		{strings.ToUpper(artist), strings.ToUpper(title), "", 0},
		{strings.ToLower(artist), strings.ToLower(title), "", 0},
		{toTitleCase(artist), toTitleCase(title), "", 0},
		{q.Artist, q.Title, "", 0},
	}

	seen := make(map[string]bool)
	var attempts []searchAttempt
	for _, a := range candidates {
		if a.artist == "" || a.title == "" || seen[a.key()] {
			continue
		}
		seen[a.key()] = true
		attempts = append(attempts, a)
	}
	return attempts
}

func (l *Lrclib) Fetch(ctx context.Context, q Query) (*Result, error) {
	if strings.TrimSpace(q.Title) == "" || strings.TrimSpace(q.Artist) == "" {
		return nil, errors.New("track title or artist is empty")
	}
	if l.GetURL == "" {
		return nil, errors.New("lrclib url is empty")
	}

	base, err := url.Parse(l.GetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid lrclib url %q: %w", l.GetURL, err)
	}

	var lastErr error = ErrNotFound
	for i, attempt := range searchAttempts(q) {
		if i > 0 && l.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.Delay):
			}
		}

		query := base.Query()
		query.Set("artist_name", attempt.artist)
		query.Set("track_name", attempt.title)
		if attempt.album != "" {
			query.Set("album_name", attempt.album)
		}
		if attempt.duration > 0 {
			query.Set("duration", strconv.FormatInt(attempt.duration, 10))
		}
		u := *base
		u.RawQuery = query.Encode()

		result, err := l.get(ctx, u.String())
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrTimeout) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("no lyrics for %s - %s: %w", q.Artist, q.Title, lastErr)
}

func (l *Lrclib) get(ctx context.Context, requestURL string) (*Result, error) {
	body, err := getBody(ctx, l.Client, requestURL)
	if err != nil {
		return nil, err
	}

	var payload lrclibResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode lrclib json: %w", err)
	}

	if payload.SyncedLyrics == "" && payload.PlainLyrics == "" && !payload.Instrumental {
		return nil, ErrNotFound
	}

	return &Result{
		Source:       l.Name(),
		Artist:       payload.ArtistName,
		Title:        payload.TrackName,
		Album:        payload.AlbumName,
		DurationMs:   int64(payload.Duration * 1000),
		Instrumental: payload.Instrumental,
		Synced:       payload.SyncedLyrics,
		Plain:        payload.PlainLyrics,
	}, nil
}

// normalizeString collapses runs of spaces.
func normalizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripVersionInfo drops "(remix)" and "[live]" style suffixes.
func stripVersionInfo(s string) string {
	for _, pair := range [][2]string{{"(", ")"}, {"[", "]"}} {
		for {
			start := strings.Index(s, pair[0])
			end := strings.Index(s, pair[1])
			if start < 0 || end <= start {
				break
			}
			s = s[:start] + " " + s[end+1:]
		}
	}
	return normalizeString(s)
}

func toTitleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		words[i] = strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
	}
	return strings.Join(words, " ")
}
