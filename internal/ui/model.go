package ui

import (
	"image"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/lyrhaze/internal/artwork"
	"karolbroda.com/lyrhaze/internal/atmosphere"
	"karolbroda.com/lyrhaze/internal/cache"
	"karolbroda.com/lyrhaze/internal/clock"
	"karolbroda.com/lyrhaze/internal/config"
	"karolbroda.com/lyrhaze/internal/lrc"
	"karolbroda.com/lyrhaze/internal/lyrics"
	"karolbroda.com/lyrhaze/internal/player"
	"karolbroda.com/lyrhaze/internal/terminal"
	"karolbroda.com/lyrhaze/internal/track"
)

type LoadingState int

const (
	LoadingNone LoadingState = iota
	LoadingLyrics
	LoadingArtwork
	LoadingBoth
)

func (l LoadingState) IsLoadingLyrics() bool {
	return l == LoadingLyrics || l == LoadingBoth
}

func (l LoadingState) IsLoadingArtwork() bool {
	return l == LoadingArtwork || l == LoadingBoth
}

type TickMsg time.Time

type PlayerEventMsg struct {
	Event player.EventData
}

// LyricsFetchedMsg carries the track it was fetched for so results that
// arrive after a track change can be dropped.
type LyricsFetchedMsg struct {
	Track  *track.Info
	Result *lyrics.Result
	Err    error
}

type ArtworkFetchedMsg struct {
	URL     string
	Image   image.Image
	Palette *artwork.Palette
	Err     error
}

// Player is the part of the MPRIS service the model drives.
type Player interface {
	Poll() error
	Events() <-chan player.EventData
	Stop()
}

type TrackDisplay struct {
	Track   *track.Info
	Image   image.Image
	Palette *artwork.Palette
	Meta    []lrc.Line
	Source  string
}

type Model struct {
	atmosphere *atmosphere.Atmosphere
	clock      *clock.Clock
	player     Player
	wall       *clock.Wall
	fetcher    *lyrics.Fetcher
	cache      *cache.DiskCache
	httpClient *http.Client
	hideHeader bool
	termCaps   *terminal.Capabilities

	baseColor      string
	highlightColor string
	background     string

	display      TrackDisplay
	frame        atmosphere.Frame
	loadingState LoadingState
	err          error
	quitting     bool
	width        int
	height       int
	tickCount    int
	offsetFlash  flash
	// baseOffset is the configured offset, restored when a song without a
	// cached one starts.
	baseOffset float64
}

type ModelConfig struct {
	Atmosphere *atmosphere.Atmosphere
	Clock      *clock.Clock
	// Player is nil in offline mode.
	Player Player
	// Wall is set in offline mode; space and the arrow keys drive it.
	Wall    *clock.Wall
	Fetcher *lyrics.Fetcher
	Cache   *cache.DiskCache
	// HTTPClient fetches artwork; nil uses lyrics.HTTPClient().
	HTTPClient *http.Client
	HideHeader bool
	TermCaps   *terminal.Capabilities

	// explicit colors win over the artwork palette
	BaseColor      string
	HighlightColor string
	Background     string

	// Track and Lines preload an offline session.
	Track *track.Info
	Lines lrc.Parsed
}

func NewModel(cfg ModelConfig) Model {
	m := Model{
		atmosphere:     cfg.Atmosphere,
		clock:          cfg.Clock,
		player:         cfg.Player,
		wall:           cfg.Wall,
		fetcher:        cfg.Fetcher,
		cache:          cfg.Cache,
		httpClient:     cfg.HTTPClient,
		hideHeader:     cfg.HideHeader,
		termCaps:       cfg.TermCaps,
		baseColor:      cfg.BaseColor,
		highlightColor: cfg.HighlightColor,
		background:     cfg.Background,
	}

	if m.atmosphere == nil {
		m.atmosphere = atmosphere.New(atmosphere.Options{Tuning: atmosphere.CellTuning()})
	}
	if m.clock == nil {
		if m.wall == nil {
			m.wall = clock.NewWall()
		}
		m.clock = clock.New(m.wall)
	}
	if m.background == "" {
		m.background = "#000000"
	}

	m.baseOffset = m.clock.Offset()
	m.display.Track = cfg.Track
	m.setPalette(artwork.DefaultPalette())

	if len(cfg.Lines.Lyrics) > 0 || len(cfg.Lines.Meta) > 0 {
		m.display.Meta = cfg.Lines.Meta
		m.display.Source = "file"
		m.atmosphere.Load(cfg.Lines.Lyrics)
	}

	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(),
		m.listenForPlayerEvents(),
	}

	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(config.PollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) listenForPlayerEvents() tea.Cmd {
	if m.player == nil {
		return nil
	}

	events := m.player.Events()
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return PlayerEventMsg{Event: event}
	}
}

func (m *Model) setLoadingLyrics(loading bool) {
	if loading {
		if m.loadingState == LoadingArtwork {
			m.loadingState = LoadingBoth
		} else if m.loadingState == LoadingNone {
			m.loadingState = LoadingLyrics
		}
	} else {
		if m.loadingState == LoadingBoth {
			m.loadingState = LoadingArtwork
		} else if m.loadingState == LoadingLyrics {
			m.loadingState = LoadingNone
		}
	}
}

func (m *Model) setLoadingArtwork(loading bool) {
	if loading {
		if m.loadingState == LoadingLyrics {
			m.loadingState = LoadingBoth
		} else if m.loadingState == LoadingNone {
			m.loadingState = LoadingArtwork
		}
	} else {
		if m.loadingState == LoadingBoth {
			m.loadingState = LoadingLyrics
		} else if m.loadingState == LoadingArtwork {
			m.loadingState = LoadingNone
		}
	}
}

// setPalette applies a palette, letting configured colors override it, and
// pushes the result into the atmosphere.
func (m *Model) setPalette(p *artwork.Palette) {
	if p == nil {
		p = artwork.DefaultPalette()
	}
	p = p.WithOverrides(m.baseColor, m.highlightColor)
	m.display.Palette = p
	m.atmosphere.SetColors(p.Base, p.Highlight)
}

// resetForNewTrack empties the atmosphere: loading the empty set drops every
// placement and fade of the previous song.
func (m *Model) resetForNewTrack() {
	m.atmosphere.Load(nil)
	m.clock.SetOffset(m.baseOffset)
	m.frame = atmosphere.Frame{}
	m.display.Meta = nil
	m.display.Source = ""
	m.display.Image = nil
	m.err = nil
	m.loadingState = LoadingNone
	m.setPalette(artwork.DefaultPalette())
}

func (m Model) Width() int  { return m.width }
func (m Model) Height() int { return m.height }

func (m Model) Track() *track.Info        { return m.display.Track }
func (m Model) PositionMs() int64         { return m.clock.Now() }
func (m Model) Palette() *artwork.Palette { return m.display.Palette }
func (m Model) Image() image.Image        { return m.display.Image }
func (m Model) Lines() lrc.Lines          { return m.atmosphere.Lines() }
func (m Model) Frame() atmosphere.Frame   { return m.frame }
func (m Model) SyncOffset() float64       { return m.clock.Offset() }
func (m Model) HideHeader() bool          { return m.hideHeader }
func (m Model) Loading() LoadingState     { return m.loadingState }
func (m Model) Err() error                { return m.err }
func (m Model) Offline() bool             { return m.player == nil }

func (m Model) Atmosphere() *atmosphere.Atmosphere { return m.atmosphere }
