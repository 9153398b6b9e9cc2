package lyrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"karolbroda.com/lyrhaze/internal/logging"
)

// Netease talks to a NetEase Cloud Music compatible API. Lookups by name go
// through /search first; a Query.ID skips that step.
type Netease struct {
	BaseURL string
	Level   string
	Client  *http.Client
	// ResolveAudio makes Fetch also look up the stream url, which costs a
	// third request.
	ResolveAudio bool
}

func NewNetease(baseURL string) *Netease {
	return &Netease{BaseURL: strings.TrimRight(baseURL, "/"), Level: "standard"}
}

func (n *Netease) Name() string { return "netease" }

func (n *Netease) endpoint(path string, params url.Values) string {
	return strings.TrimRight(n.BaseURL, "/") + path + "?" + params.Encode()
}

func (n *Netease) get(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	body, err := getBody(ctx, n.Client, n.endpoint(path, params))
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("invalid json from %s", path)
	}
	return gjson.ParseBytes(body), nil
}

// Search returns the id of the best match for artist and title.
func (n *Netease) Search(ctx context.Context, artist, title string) (string, error) {
	keywords := strings.TrimSpace(artist + " " + title)
	if keywords == "" {
		return "", errors.New("empty search")
	}

	doc, err := n.get(ctx, "/search", url.Values{"keywords": {keywords}, "limit": {"1"}})
	if err != nil {
		return "", err
	}

	id := doc.Get("result.songs.0.id")
	if !id.Exists() {
		return "", ErrNotFound
	}
	return id.String(), nil
}

// Lyric returns the raw LRC of song id.
func (n *Netease) Lyric(ctx context.Context, id string) (string, error) {
	doc, err := n.get(ctx, "/lyric", url.Values{"id": {id}})
	if err != nil {
		return "", err
	}
	lyric := doc.Get("lrc.lyric").String()
	if strings.TrimSpace(lyric) == "" {
		return "", ErrNotFound
	}
	return lyric, nil
}

// AudioURL resolves the stream url of song id at the configured quality.
func (n *Netease) AudioURL(ctx context.Context, id string) (string, error) {
	level := n.Level
	if level == "" {
		level = "standard"
	}
	doc, err := n.get(ctx, "/song/url/v1", url.Values{"id": {id}, "level": {level}})
	if err != nil {
		return "", err
	}
	return doc.Get("data.0.url").String(), nil
}

func (n *Netease) Fetch(ctx context.Context, q Query) (*Result, error) {
	if n.BaseURL == "" {
		return nil, errors.New("netease url is empty")
	}

	id := q.ID
	if id == "" {
		found, err := n.Search(ctx, q.Artist, q.Title)
		if err != nil {
			return nil, err
		}
		id = found
	}

	lyric, err := n.Lyric(ctx, id)
	if err != nil {
		return nil, err
	}

	var audioURL string
	if n.ResolveAudio {
		// lyrics alone are a result
		audioURL, err = n.AudioURL(ctx, id)
		if err != nil {
			logging.Logger().Debug("netease stream url lookup failed", "id", id, "error", err)
		}
	}

	return &Result{
		Source:     n.Name(),
		Artist:     q.Artist,
		Title:      q.Title,
		Album:      q.Album,
		DurationMs: q.DurationMs,
		Synced:     lyric,
		AudioURL:   audioURL,
	}, nil
}
