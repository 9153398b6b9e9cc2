package ui

import (
	"context"
	"errors"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/lyrhaze/internal/artwork"
	"karolbroda.com/lyrhaze/internal/atmosphere"
	"karolbroda.com/lyrhaze/internal/logging"
	"karolbroda.com/lyrhaze/internal/lyrics"
	"karolbroda.com/lyrhaze/internal/player"
	"karolbroda.com/lyrhaze/internal/track"
)

const (
	seekStepMs     = 5000
	flashTicks     = 15
	statusBarLines = 1
)

var (
	errNoSynced     = errors.New("no synced lyrics available")
	errInstrumental = errors.New("instrumental")
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.syncBounds()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case PlayerEventMsg:
		return m.handlePlayerEvent(msg.Event)

	case ArtworkFetchedMsg:
		return m.handleArtworkFetched(msg)

	case LyricsFetchedMsg:
		return m.handleLyricsFetched(msg)

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.wall != nil && m.player == nil {
		switch key {
		case " ":
			m.wall.Toggle()
			return m.advance(), nil
		case "left":
			m.wall.SeekBy(-seekStepMs)
			return m.advance(), nil
		case "right":
			m.wall.SeekBy(seekStepMs)
			return m.advance(), nil
		}
	}

	switch key {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		m.Stop()
		return m, tea.Quit

	case "up", "k", "+", "=":
		return m.adjustOffset(0.1), nil

	case "down", "j", "-":
		return m.adjustOffset(-0.1), nil

	case "left", "h":
		return m.adjustOffset(-0.5), nil

	case "right", "l":
		return m.adjustOffset(0.5), nil

	case "0":
		m.clock.SetOffset(0)
		m.saveSyncOffset()
		m.offsetFlash.Trigger(m.tickCount, flashTicks)
		return m.advance(), nil

	case "r":
		m.atmosphere.Relayout()
		return m.advance(), nil

	case "tab", "i":
		m.hideHeader = !m.hideHeader
		m.syncBounds()
		return m, nil
	}

	return m, nil
}

func (m Model) adjustOffset(delta float64) Model {
	m.clock.AdjustOffset(delta)
	m.saveSyncOffset()
	m.offsetFlash.Trigger(m.tickCount, flashTicks)
	return m.advance()
}

// advance re-samples the clock and recomputes the frame without waiting for
// the next tick.
func (m Model) advance() Model {
	m.frame = m.atmosphere.Frame(m.clock.Sample())
	return m
}

// Stop releases the player connection.
func (m Model) Stop() {
	if m.player != nil {
		m.player.Stop()
	}
}

func (m *Model) saveSyncOffset() {
	if m.cache == nil || !m.display.Track.IsValid() {
		return
	}

	err := m.cache.SetSyncOffset(m.display.Track.Artist, m.display.Track.Title, m.clock.Offset())
	if err != nil {
		// nothing cached for this song yet
		logging.Logger().Debug("sync offset not saved", "track", m.display.Track.String(), "err", err)
	}
}

// syncBounds hands the atmosphere the cell area left for lyrics.
func (m *Model) syncBounds() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.atmosphere.Resize(atmosphere.Bounds{
		Width:  float64(m.width),
		Height: float64(m.lyricsHeight()),
	})
}

func (m Model) lyricsHeight() int {
	height := m.height
	if height <= 0 {
		height = 24
	}
	h := height - m.headerHeight() - statusBarLines
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) handlePlayerEvent(event player.EventData) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	cmds = append(cmds, m.listenForPlayerEvents())

	switch event.Type {
	case player.EventTrackChanged:
		return m.handleTrackChange(event.Track, cmds)

	case player.EventSeeked:
		// the atmosphere notices the jump itself on the next frame
		return m.advance(), tea.Batch(cmds...)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleTrackChange(newTrack *track.Info, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	m.display.Track = newTrack
	m.resetForNewTrack()
	m.syncBounds()

	if !newTrack.IsValid() {
		m.err = errors.New("no track playing")
		return m, tea.Batch(cmds...)
	}

	if newTrack.ArtworkURL != "" {
		m.setLoadingArtwork(true)
		cmds = append(cmds, fetchArtworkCmd(m.client(), newTrack.ArtworkURL))
	}

	if m.fetcher != nil {
		m.setLoadingLyrics(true)
		cmds = append(cmds, fetchLyricsCmd(m.fetcher, newTrack))
	}

	return m, tea.Batch(cmds...)
}

func (m Model) client() *http.Client {
	if m.httpClient != nil {
		return m.httpClient
	}
	return lyrics.HTTPClient()
}

func (m Model) handleArtworkFetched(msg ArtworkFetchedMsg) (tea.Model, tea.Cmd) {
	if m.display.Track == nil || msg.URL != m.display.Track.ArtworkURL {
		return m, nil
	}
	m.setLoadingArtwork(false)

	if msg.Err != nil {
		logging.Logger().Debug("artwork unavailable", "url", msg.URL, "err", msg.Err)
		return m, nil
	}

	m.display.Image = msg.Image
	m.setPalette(msg.Palette)
	return m.advance(), nil
}

func (m Model) handleLyricsFetched(msg LyricsFetchedMsg) (tea.Model, tea.Cmd) {
	if !msg.Track.IsSameTrack(m.display.Track) {
		logging.Logger().Debug("dropping lyrics for previous track", "track", msg.Track.String())
		return m, nil
	}
	m.setLoadingLyrics(false)

	if msg.Err != nil {
		m.err = msg.Err
		m.atmosphere.Load(nil)
		return m, nil
	}

	parsed := msg.Result.Parse()
	if len(parsed.Lyrics) == 0 {
		m.err = errNoSynced
		m.atmosphere.Load(nil)
		return m, nil
	}

	m.err = nil
	m.display.Meta = parsed.Meta
	m.display.Source = msg.Result.Source
	m.atmosphere.Load(parsed.Lyrics)

	// a cached offset for this song wins over the configured one
	if msg.Result.SyncOffset != 0 {
		m.clock.SetOffset(msg.Result.SyncOffset)
	}

	return m.advance(), nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.tickCount++

	if m.player != nil {
		if err := m.player.Poll(); err != nil {
			logging.Logger().Debug("player poll failed", "err", err)
		}
	}

	return m.advance(), tickCmd()
}

func fetchArtworkCmd(client *http.Client, artworkURL string) tea.Cmd {
	return func() tea.Msg {
		img, err := artwork.Fetch(context.Background(), client, artworkURL)
		if err != nil {
			return ArtworkFetchedMsg{URL: artworkURL, Err: err}
		}
		return ArtworkFetchedMsg{
			URL:     artworkURL,
			Image:   img,
			Palette: artwork.ExtractPalette(img),
		}
	}
}

func fetchLyricsCmd(fetcher *lyrics.Fetcher, trk *track.Info) tea.Cmd {
	return func() tea.Msg {
		q := lyrics.Query{
			Artist:     trk.Artist,
			Title:      trk.Title,
			Album:      trk.Album,
			DurationMs: trk.DurationMs,
		}

		result, err := fetcher.Fetch(context.Background(), q)
		if err != nil {
			return LyricsFetchedMsg{Track: trk, Err: err}
		}
		if result.Instrumental {
			return LyricsFetchedMsg{Track: trk, Result: result, Err: errInstrumental}
		}
		if !result.HasSynced() {
			return LyricsFetchedMsg{Track: trk, Result: result, Err: errNoSynced}
		}
		return LyricsFetchedMsg{Track: trk, Result: result}
	}
}
