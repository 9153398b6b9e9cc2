package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"karolbroda.com/lyrhaze/internal/atmosphere"
	"karolbroda.com/lyrhaze/internal/cache"
	"karolbroda.com/lyrhaze/internal/config"
	"karolbroda.com/lyrhaze/internal/logging"
	"karolbroda.com/lyrhaze/internal/lrc"
	"karolbroda.com/lyrhaze/internal/lyrics"
	"karolbroda.com/lyrhaze/internal/textmetrics"
)

var (
	// flags for lyrics layout
	layoutAt       []int64
	layoutFont     string
	layoutFontSize float64
	layoutWidth    float64
	layoutHeight   float64
	layoutSeed     uint64

	parsePlain bool
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics",
	Short: "lyrics search and inspection",
	Long:  `search the lyric providers, pre-fetch to cache, preview lyrics, or inspect how a file lays out.`,
}

var lyricsSearchCmd = &cobra.Command{
	Use:   "search <artist> <title>",
	Short: "ask every provider for a song",
	Long:  `query each lyric provider in turn and report what it has, without touching the cache.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist := args[0]
		title := args[1]

		fetcher := newFetcher(loadConfig(cmd))
		resolveAudioURLs(fetcher)
		q := lyrics.Query{Artist: artist, Title: title}

		fmt.Printf("searching for: %s - %s\n", artist, title)

		found := false
		for _, provider := range fetcher.Providers {
			fmt.Printf("\n%s:\n", provider.Name())

			result, err := provider.Fetch(context.Background(), q)
			if err != nil {
				fmt.Printf("  not found (%v)\n", err)
				continue
			}
			found = true
			printResultSummary(result)
		}

		if !found {
			return fmt.Errorf("no provider has lyrics for %s - %s", artist, title)
		}

		fmt.Println("\nuse 'lyrhaze lyrics fetch' to save to cache")

		return nil
	},
}

var lyricsFetchCmd = &cobra.Command{
	Use:   "fetch <artist> <title>",
	Short: "pre-fetch and cache lyrics",
	Long:  `fetch lyrics from the first provider that has them and save them to the local cache.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist := args[0]
		title := args[1]

		fetcher := newFetcher(loadConfig(cmd))

		if !fetcher.NoCache {
			cached, err := fetcher.Cache.Get(artist, title)
			if err == nil && cached != nil {
				fmt.Printf("'%s - %s' is already cached\n", artist, title)
				if cached.SyncOffset != 0 {
					fmt.Printf("sync offset: %.2fs\n", cached.SyncOffset)
				}
				return nil
			}
		}

		fmt.Printf("fetching: %s - %s\n", artist, title)

		result, err := fetcher.Fetch(context.Background(), lyrics.Query{Artist: artist, Title: title})
		if err != nil {
			return fmt.Errorf("failed to fetch lyrics: %w", err)
		}

		fmt.Printf("cached successfully from %s: %s - %s\n", result.Source, result.Artist, result.Title)
		if result.HasSynced() {
			fmt.Println("synced lyrics available")
		} else {
			fmt.Println("only plain lyrics available (no timing)")
		}

		return nil
	},
}

var lyricsPreviewCmd = &cobra.Command{
	Use:   "preview <artist> <title>",
	Short: "preview lyrics in terminal",
	Long:  `display lyrics with timestamps, from the cache when possible.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist := args[0]
		title := args[1]

		fetcher := newFetcher(loadConfig(cmd))
		resolveAudioURLs(fetcher)

		result, err := fetcher.Fetch(context.Background(), lyrics.Query{Artist: artist, Title: title})
		if err != nil {
			if suggestions := findSimilarCachedSongs(fetcher.Cache, artist, title); len(suggestions) > 0 {
				fmt.Fprintf(os.Stderr, "lyrics not found online\n\n")
				fmt.Fprintf(os.Stderr, "similar songs in cache:\n")
				for _, s := range suggestions {
					fmt.Fprintf(os.Stderr, "  %s - %s\n", s.Artist, s.Title)
				}
			}
			return fmt.Errorf("lyrics not found: %w", err)
		}

		if result.Cached {
			fmt.Println("(from cache)")
		}
		fmt.Printf("\n%s - %s\n", result.Artist, result.Title)
		if result.Album != "" {
			fmt.Printf("%s\n", result.Album)
		}
		if result.AudioURL != "" {
			fmt.Printf("%s\n", result.AudioURL)
		}
		fmt.Println(strings.Repeat("─", 60))

		if result.Instrumental {
			fmt.Println("\n[instrumental]")
			return nil
		}

		switch {
		case result.HasSynced():
			printParsed(result.Parse())
			if result.SyncOffset != 0 {
				fmt.Printf("\nsync offset: %.2fs\n", result.SyncOffset)
			}
		case result.Plain != "":
			fmt.Print("\nplain lyrics (no timestamps):\n\n")
			fmt.Println(result.Plain)
		default:
			fmt.Println("\nno lyrics available")
		}

		return nil
	},
}

var lyricsParseCmd = &cobra.Command{
	Use:   "parse <file.lrc>",
	Short: "parse an lrc file",
	Long:  `print the credit lines and timed lyrics an lrc file yields, in playback order.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read lyrics file: %w", err)
		}
		parsed := lrc.Parse(string(raw))
		if parsePlain {
			fmt.Println(parsed.Lyrics.Text())
			return nil
		}
		printParsed(parsed)
		return nil
	},
}

var lyricsLayoutCmd = &cobra.Command{
	Use:   "layout <file.lrc>",
	Short: "print the atmosphere frames of a file as json",
	Long: `lays an lrc file out the way the viewer would, measured with real font
metrics in a pixel container, and prints one frame per --at time. frames are
computed in the order given, so a smaller time after a larger one is a seek.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(layoutAt) == 0 {
			return errors.New("at least one --at time is required")
		}

		cfg := loadConfig(cmd)

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read lyrics file: %w", err)
		}

		tuning, err := config.LoadTuning(cfg.LayoutFile, atmosphere.DefaultTuning())
		if err != nil {
			return err
		}

		measurer, err := textmetrics.NewFont(layoutFont, layoutFontSize)
		if err != nil {
			return err
		}
		defer measurer.Close()

		atmo := atmosphere.New(atmosphere.Options{
			Tuning:         tuning,
			Measurer:       measurer,
			Rand:           rand.New(rand.NewPCG(layoutSeed, layoutSeed)),
			Logger:         logging.Logger(),
			BaseColor:      cfg.BaseColor,
			HighlightColor: cfg.HighlightColor,
		})
		atmo.Resize(atmosphere.Bounds{Width: layoutWidth, Height: layoutHeight})
		atmo.Load(lrc.Parse(string(raw)).Lyrics)

		frames := make([]frameJSON, 0, len(layoutAt))
		for _, at := range layoutAt {
			frames = append(frames, toFrameJSON(atmo.Frame(at)))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(frames)
	},
}

func init() {
	rootCmd.AddCommand(lyricsCmd)

	lyricsCmd.AddCommand(lyricsSearchCmd)
	lyricsCmd.AddCommand(lyricsFetchCmd)
	lyricsCmd.AddCommand(lyricsPreviewCmd)
	lyricsCmd.AddCommand(lyricsParseCmd)
	lyricsCmd.AddCommand(lyricsLayoutCmd)

	lyricsParseCmd.Flags().BoolVar(&parsePlain, "plain", false, "print only the lyric text, without timestamps or credits")

	// flags for lyrics layout
	lyricsLayoutCmd.Flags().Int64SliceVar(&layoutAt, "at", nil, "playback times in ms, comma separated")
	lyricsLayoutCmd.Flags().StringVar(&layoutFont, "font", "", "ttf/otf file to measure with (default Go Regular)")
	lyricsLayoutCmd.Flags().Float64Var(&layoutFontSize, "font-size", 24, "font size in pixels")
	lyricsLayoutCmd.Flags().Float64Var(&layoutWidth, "width", 750, "container width in pixels")
	lyricsLayoutCmd.Flags().Float64Var(&layoutHeight, "height", 500, "container height in pixels")
	lyricsLayoutCmd.Flags().Uint64Var(&layoutSeed, "seed", 1, "seed for layout jitter")
}

type tokenJSON struct {
	Text     string  `json:"text"`
	Progress float64 `json:"progress"`
	Color    string  `json:"color"`
	Punct    bool    `json:"punct,omitempty"`
}

type lineJSON struct {
	TimeMs   int64       `json:"timeMs"`
	Text     string      `json:"text"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	W        float64     `json:"w"`
	H        float64     `json:"h"`
	Opacity  float64     `json:"opacity"`
	Visible  bool        `json:"visible"`
	Progress float64     `json:"progress"`
	Slot     int         `json:"slot"`
	Tier     string      `json:"tier"`
	Tokens   []tokenJSON `json:"tokens"`
}

type frameJSON struct {
	NowMs  int64      `json:"nowMs"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Lines  []lineJSON `json:"lines"`
}

func toFrameJSON(f atmosphere.Frame) frameJSON {
	out := frameJSON{
		NowMs:  f.NowMs,
		Width:  f.Bounds.Width,
		Height: f.Bounds.Height,
		Lines:  make([]lineJSON, 0, len(f.Lines)),
	}
	for _, l := range f.Lines {
		tokens := make([]tokenJSON, len(l.Tokens))
		for i, t := range l.Tokens {
			tokens[i] = tokenJSON{Text: t.Text, Progress: t.Progress, Color: t.Color, Punct: t.Punct}
		}
		out.Lines = append(out.Lines, lineJSON{
			TimeMs:   l.TimeMs,
			Text:     l.Text,
			X:        l.X,
			Y:        l.Y,
			W:        l.W,
			H:        l.H,
			Opacity:  l.Opacity,
			Visible:  l.Visible,
			Progress: l.Progress,
			Slot:     l.Slot,
			Tier:     l.Tier,
			Tokens:   tokens,
		})
	}
	return out
}

// resolveAudioURLs turns on the stream url lookup for providers that have
// one. The viewer never shows it, so only the inspection commands pay for it.
func resolveAudioURLs(f *lyrics.Fetcher) {
	for _, p := range f.Providers {
		if n, ok := p.(*lyrics.Netease); ok {
			n.ResolveAudio = true
		}
	}
}

func printResultSummary(r *lyrics.Result) {
	fmt.Printf("  track:        %s\n", r.Title)
	fmt.Printf("  artist:       %s\n", r.Artist)
	if r.Album != "" {
		fmt.Printf("  album:        %s\n", r.Album)
	}
	if r.DurationMs > 0 {
		fmt.Printf("  duration:     %ds\n", (r.DurationMs+500)/1000)
	}
	fmt.Printf("  instrumental: %v\n", r.Instrumental)

	if r.HasSynced() {
		fmt.Printf("  synced lines: %d\n", len(r.Parse().Lyrics))
	} else {
		fmt.Printf("  synced lines: none\n")
	}

	if r.Plain != "" {
		fmt.Printf("  plain lines:  %d\n", len(strings.Split(r.Plain, "\n")))
	} else {
		fmt.Printf("  plain lines:  none\n")
	}

	if r.AudioURL != "" {
		fmt.Printf("  audio:        %s\n", r.AudioURL)
	}
}

func printParsed(parsed lrc.Parsed) {
	if len(parsed.Meta) > 0 {
		fmt.Printf("\ncredits (%d lines):\n\n", len(parsed.Meta))
		for _, line := range parsed.Meta {
			fmt.Printf("[%s] %s\n", lrc.FormatTimestamp(line.TimeMs), line.Text)
		}
	}

	if len(parsed.Lyrics) == 0 {
		fmt.Println("\nno valid synced lyrics found")
		return
	}

	fmt.Printf("\nsynced lyrics (%d lines):\n\n", len(parsed.Lyrics))
	for _, line := range parsed.Lyrics {
		fmt.Printf("[%s] %s\n", lrc.FormatTimestamp(line.TimeMs), line.Text)
	}
}

// findSimilarCachedSongs suggests cached songs whose names contain, or are
// contained in, the ones asked for.
func findSimilarCachedSongs(diskCache *cache.DiskCache, artist string, title string) []*cache.Entry {
	if diskCache == nil {
		return nil
	}
	allEntries, err := diskCache.ListAll()
	if err != nil || len(allEntries) == 0 {
		return nil
	}

	artistLower := strings.ToLower(artist)
	titleLower := strings.ToLower(title)
	similar := func(a, b string) bool {
		return strings.Contains(a, b) || strings.Contains(b, a)
	}

	var exactArtist, fuzzy []*cache.Entry
	for _, entry := range allEntries {
		entryArtist := strings.ToLower(entry.Artist)
		entryTitle := strings.ToLower(entry.Title)
		if !similar(entryTitle, titleLower) {
			continue
		}
		if entryArtist == artistLower {
			exactArtist = append(exactArtist, entry)
		} else if similar(entryArtist, artistLower) {
			fuzzy = append(fuzzy, entry)
		}
	}

	matches := exactArtist
	if len(matches) == 0 {
		matches = fuzzy
	}
	if len(matches) > 5 {
		matches = matches[:5]
	}
	return matches
}
