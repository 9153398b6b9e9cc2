// Package lyrics finds synced lyrics for a track: a local file, lrclib, or
// a NetEase compatible API, with the disk cache in front of all of them.
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"karolbroda.com/lyrhaze/internal/cache"
	"karolbroda.com/lyrhaze/internal/config"
	"karolbroda.com/lyrhaze/internal/logging"
	"karolbroda.com/lyrhaze/internal/lrc"
)

const userAgent = "lyrhaze/1.0 (https://karolbroda.com/lyrhaze)"

var (
	ErrNotFound = errors.New("lyrics not found")
	ErrTimeout  = errors.New("lyrics server took too long to respond")
)

var (
	httpClient     *http.Client
	httpClientOnce sync.Once
)

// Query describes what to look for. Providers use the fields they
// understand: ID for NetEase, Path for files, names for lrclib.
type Query struct {
	Artist     string
	Title      string
	Album      string
	DurationMs int64
	ID         string
	Path       string
}

func (q Query) durationSecs() int64 {
	if q.DurationMs <= 0 {
		return 0
	}
	return (q.DurationMs + 500) / 1000
}

// Result is a found lyric set with whatever the source knew about it.
type Result struct {
	Source       string
	Artist       string
	Title        string
	Album        string
	DurationMs   int64
	Instrumental bool
	Synced       string
	Plain        string
	SyncOffset   float64
	AudioURL     string
	Cached       bool
}

// Parse splits the synced lyrics into metadata and lyric lines.
func (r *Result) Parse() lrc.Parsed {
	if r == nil {
		return lrc.Parsed{}
	}
	return lrc.Parse(r.Synced)
}

func (r *Result) HasSynced() bool {
	return r != nil && strings.TrimSpace(r.Synced) != ""
}

type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) (*Result, error)
}

// Fetcher consults the cache, then each provider in order, and caches the
// first hit. A provider reporting ErrNotFound hands over to the next one;
// a timeout stops the search.
type Fetcher struct {
	Providers []Provider
	Cache     *cache.DiskCache
	NoCache   bool
	Logger    *slog.Logger
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return logging.Logger()
}

func (f *Fetcher) Fetch(ctx context.Context, q Query) (*Result, error) {
	cacheable := f.Cache != nil && q.Artist != "" && q.Title != ""

	if cacheable && !f.NoCache {
		entry, err := f.Cache.Get(q.Artist, q.Title)
		if err == nil {
			return fromEntry(entry), nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrCacheExpired) {
			f.logger().Warn("lyric cache read failed", "err", err)
		}
	}

	if len(f.Providers) == 0 {
		return nil, errors.New("no lyric providers configured")
	}

	var errs []error
	for _, p := range f.Providers {
		result, err := p.Fetch(ctx, q)
		if err == nil {
			if cacheable {
				if err := f.Cache.Set(q.Artist, q.Title, toEntry(result)); err != nil {
					f.logger().Warn("lyric cache write failed", "err", err)
				}
			}
			return result, nil
		}

		f.logger().Debug("lyric provider failed", "provider", p.Name(), "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))

		if errors.Is(err, ErrTimeout) || ctx.Err() != nil {
			break
		}
	}

	return nil, errors.Join(errs...)
}

func fromEntry(e *cache.Entry) *Result {
	return &Result{
		Source:       e.Source,
		Artist:       e.Artist,
		Title:        e.Title,
		Album:        e.Album,
		DurationMs:   e.DurationMs,
		Instrumental: e.Instrumental,
		Synced:       e.Lyrics,
		Plain:        e.PlainLyrics,
		SyncOffset:   e.SyncOffset,
		Cached:       true,
	}
}

func toEntry(r *Result) *cache.Entry {
	return &cache.Entry{
		Artist:       r.Artist,
		Title:        r.Title,
		Album:        r.Album,
		DurationMs:   r.DurationMs,
		Source:       r.Source,
		Instrumental: r.Instrumental,
		Lyrics:       r.Synced,
		PlainLyrics:  r.Plain,
		SyncOffset:   r.SyncOffset,
	}
}

// HTTPClient is shared by the REST providers.
func HTTPClient() *http.Client {
	httpClientOnce.Do(func() {
		transport := &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   2 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     60 * time.Second,
			TLSHandshakeTimeout: 2 * time.Second,
		}
		httpClient = &http.Client{
			Transport: transport,
			Timeout:   config.HTTPTimeout,
		}
	})
	return httpClient
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "timeout")
}
