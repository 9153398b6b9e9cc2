package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"karolbroda.com/lyrhaze/internal/clock"
	"karolbroda.com/lyrhaze/internal/lyrics"
	"karolbroda.com/lyrhaze/internal/terminal"
	"karolbroda.com/lyrhaze/internal/track"
	"karolbroda.com/lyrhaze/internal/ui"
)

var (
	// flags for play
	playPaused bool
	playStart  float64
	playArtist string
	playTitle  string
)

var playCmd = &cobra.Command{
	Use:   "play <file.lrc>",
	Short: "play a lyrics file without a music player",
	Long: `plays an lrc file against a wall clock. space pauses, the arrow keys
seek five seconds, and the sync offset keys work as in the viewer.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		result, err := lyrics.File{}.Fetch(context.Background(), lyrics.Query{
			Artist: playArtist,
			Title:  playTitle,
			Path:   args[0],
		})
		if err != nil {
			return err
		}

		parsed := result.Parse()
		if len(parsed.Lyrics) == 0 {
			return fmt.Errorf("no timed lines in %s", args[0])
		}

		atmo, err := newCellAtmosphere(cfg)
		if err != nil {
			return err
		}

		last := parsed.Lyrics[len(parsed.Lyrics)-1]
		wall := clock.NewWall(clock.WithDuration(last.TimeMs + atmosphereTail))
		wall.Seek(int64(playStart * 1000))
		if !playPaused {
			wall.Play()
		}

		clk := clock.New(wall)
		clk.SetOffset(cfg.SyncOffset)

		model := ui.NewModel(ui.ModelConfig{
			Atmosphere:     atmo,
			Clock:          clk,
			Wall:           wall,
			HideHeader:     cfg.HideHeader,
			TermCaps:       terminal.DetectCapabilities(os.Getenv),
			BaseColor:      cfg.BaseColor,
			HighlightColor: cfg.HighlightColor,
			Track:          &track.Info{Title: result.Title, Artist: result.Artist},
			Lines:          parsed,
		})

		return runProgram(model, nil)
	},
}

// atmosphereTail keeps the clock running after the last line so it can be
// sung and fade out.
const atmosphereTail = 8000

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolVar(&playPaused, "paused", false, "start paused")
	playCmd.Flags().Float64Var(&playStart, "start", 0, "start position in seconds")
	playCmd.Flags().StringVar(&playArtist, "artist", "", "artist shown in the header")
	playCmd.Flags().StringVar(&playTitle, "title", "", "title shown in the header (defaults to the file name)")
}
