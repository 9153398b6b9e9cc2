package lyrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"karolbroda.com/lyrhaze/internal/cache"
)

const sampleLRC = "[00:00.00]作词 : someone\n[00:01.50]Hello\n[00:03.00]World"

func TestLrclibFallsBackThroughAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if r.Header.Get("User-Agent") == "" {
			t.Error("request without User-Agent")
		}
		// only the variant without album and duration matches
		if q.Get("album_name") != "" || q.Get("duration") != "" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"trackName":%q,"artistName":%q,"duration":215.5,"syncedLyrics":%q}`,
			q.Get("track_name"), q.Get("artist_name"), sampleLRC)
	}))
	defer srv.Close()

	l := &Lrclib{GetURL: srv.URL + "/api/get", Client: srv.Client()}
	result, err := l.Fetch(context.Background(), Query{
		Artist:     "Band",
		Title:      "Song",
		Album:      "Record",
		DurationMs: 215_500,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if calls.Load() != 3 {
		t.Errorf("server saw %d requests, want 3", calls.Load())
	}
	if result.Source != "lrclib" || result.DurationMs != 215_500 {
		t.Errorf("result = %+v", result)
	}
	if got := len(result.Parse().Lyrics); got != 2 {
		t.Errorf("parsed %d lyric lines, want 2", got)
	}
}

func TestLrclibNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	l := &Lrclib{GetURL: srv.URL, Client: srv.Client()}
	_, err := l.Fetch(context.Background(), Query{Artist: "A", Title: "B"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLrclibEmptyPayloadIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"trackName":"x","artistName":"y"}`)
	}))
	defer srv.Close()

	l := &Lrclib{GetURL: srv.URL, Client: srv.Client()}
	if _, err := l.Fetch(context.Background(), Query{Artist: "y", Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearchAttempts(t *testing.T) {
	attempts := searchAttempts(Query{Artist: "surf  curse", Title: "Freaks (Remastered)", DurationMs: 1_000})

	seen := make(map[string]bool)
	for _, a := range attempts {
		if seen[a.key()] {
			t.Errorf("duplicate attempt %+v", a)
		}
		seen[a.key()] = true
	}

	if attempts[0].artist != "surf curse" || attempts[0].duration != 1 {
		t.Errorf("first attempt = %+v", attempts[0])
	}

	var stripped, upper bool
	for _, a := range attempts {
		if a.title == "Freaks" {
			stripped = true
		}
		if a.artist == "SURF CURSE" {
			upper = true
		}
	}
	if !stripped || !upper {
		t.Errorf("missing variants in %+v", attempts)
	}
}

func TestStringHelpers(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{normalizeString, "  a   b  ", "a b"},
		{stripVersionInfo, "Song (Live) [2019]", "Song"},
		{stripVersionInfo, "Odd ) order (", "Odd ) order ("},
		{toTitleCase, "hELLO wORLD", "Hello World"},
		{toTitleCase, "élan vital", "Élan Vital"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("f(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func newNeteaseServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("keywords") != "Band Song" {
			fmt.Fprint(w, `{"result":{"songs":[]}}`)
			return
		}
		fmt.Fprint(w, `{"result":{"songs":[{"id":1234,"name":"Song"}]}}`)
	})
	mux.HandleFunc("/lyric", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "1234" {
			fmt.Fprint(w, `{"lrc":{"lyric":""}}`)
			return
		}
		fmt.Fprintf(w, `{"lrc":{"version":3,"lyric":%q},"code":200}`, sampleLRC)
	})
	mux.HandleFunc("/song/url/v1", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("level") != "standard" {
			t.Errorf("level = %q", r.URL.Query().Get("level"))
		}
		fmt.Fprint(w, `{"data":[{"id":1234,"url":"https://cdn.example/1234.mp3"}]}`)
	})
	return httptest.NewServer(mux)
}

func TestNeteaseSearchAndFetch(t *testing.T) {
	srv := newNeteaseServer(t)
	defer srv.Close()

	n := NewNetease(srv.URL + "/")
	n.Client = srv.Client()
	n.ResolveAudio = true

	result, err := n.Fetch(context.Background(), Query{Artist: "Band", Title: "Song"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Synced != sampleLRC {
		t.Errorf("Synced = %q", result.Synced)
	}
	if result.AudioURL != "https://cdn.example/1234.mp3" {
		t.Errorf("AudioURL = %q", result.AudioURL)
	}

	parsed := result.Parse()
	if len(parsed.Meta) != 1 || len(parsed.Lyrics) != 2 {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestNeteaseSkipsAudioByDefault(t *testing.T) {
	audioCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/lyric", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"lrc":{"lyric":%q}}`, sampleLRC)
	})
	mux.HandleFunc("/song/url/v1", func(w http.ResponseWriter, r *http.Request) {
		audioCalls++
		http.Error(w, "gone", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	n := NewNetease(srv.URL)
	n.Client = srv.Client()

	result, err := n.Fetch(context.Background(), Query{ID: "1234"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if audioCalls != 0 || result.AudioURL != "" {
		t.Errorf("stream url looked up without ResolveAudio: calls=%d url=%q", audioCalls, result.AudioURL)
	}

	n.ResolveAudio = true
	result, err = n.Fetch(context.Background(), Query{ID: "1234"})
	if err != nil {
		t.Fatalf("a failed stream url lookup must not fail the fetch: %v", err)
	}
	if audioCalls != 1 || result.AudioURL != "" {
		t.Errorf("calls=%d url=%q, want one failed lookup", audioCalls, result.AudioURL)
	}
}

func TestNeteaseMisses(t *testing.T) {
	srv := newNeteaseServer(t)
	defer srv.Close()

	n := NewNetease(srv.URL)
	n.Client = srv.Client()

	if _, err := n.Fetch(context.Background(), Query{Artist: "Nobody", Title: "Nothing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("search miss = %v", err)
	}
	if _, err := n.Fetch(context.Background(), Query{ID: "999"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty lyric = %v", err)
	}
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "My Song.lrc")
	if err := os.WriteFile(path, []byte(sampleLRC), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := File{}.Fetch(context.Background(), Query{Path: path})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Title != "My Song" || !result.HasSynced() {
		t.Errorf("result = %+v", result)
	}

	_, err = File{}.Fetch(context.Background(), Query{Path: path + ".missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file = %v", err)
	}
}

type stubProvider struct {
	name   string
	result *Result
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(context.Context, Query) (*Result, error) {
	s.calls++
	return s.result, s.err
}

func TestFetcherCachesFirstHit(t *testing.T) {
	c, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	miss := &stubProvider{name: "miss", err: ErrNotFound}
	hit := &stubProvider{name: "hit", result: &Result{Source: "hit", Synced: sampleLRC, Artist: "Band", Title: "Song"}}
	f := &Fetcher{Providers: []Provider{miss, hit}, Cache: c}

	q := Query{Artist: "Band", Title: "Song"}
	result, err := f.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Source != "hit" || result.Cached {
		t.Errorf("first result = %+v", result)
	}

	result, err = f.Fetch(context.Background(), q)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if !result.Cached || result.Synced != sampleLRC || result.Source != "hit" {
		t.Errorf("second result = %+v", result)
	}
	if hit.calls != 1 {
		t.Errorf("provider called %d times, want 1", hit.calls)
	}

	f.NoCache = true
	if _, err := f.Fetch(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	if hit.calls != 2 {
		t.Errorf("NoCache did not bypass the cache")
	}
}

func TestFetcherStopsOnTimeout(t *testing.T) {
	slow := &stubProvider{name: "slow", err: ErrTimeout}
	next := &stubProvider{name: "next", result: &Result{}}
	f := &Fetcher{Providers: []Provider{slow, next}}

	_, err := f.Fetch(context.Background(), Query{Artist: "a", Title: "b"})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	if next.calls != 0 {
		t.Error("fetcher kept going after a timeout")
	}
}

func TestFetcherJoinsErrors(t *testing.T) {
	f := &Fetcher{Providers: []Provider{
		&stubProvider{name: "a", err: ErrNotFound},
		&stubProvider{name: "b", err: errors.New("boom")},
	}}

	_, err := f.Fetch(context.Background(), Query{Artist: "a", Title: "b"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want it to wrap ErrNotFound", err)
	}

	if _, err := (&Fetcher{}).Fetch(context.Background(), Query{}); err == nil {
		t.Error("fetcher without providers succeeded")
	}
}
