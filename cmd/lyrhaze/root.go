package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"karolbroda.com/lyrhaze/internal/cache"
	"karolbroda.com/lyrhaze/internal/config"
	"karolbroda.com/lyrhaze/internal/logging"
	"karolbroda.com/lyrhaze/internal/lyrics"
)

var (
	// global flags
	mprisService   string
	syncOffset     float64
	hideHeader     bool
	lrclibURL      string
	neteaseURL     string
	noCache        bool
	layoutFile     string
	logFile        string
	logLevel       string
	baseColor      string
	highlightColor string

	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "lyrhaze",
	Short: "floating synchronized lyrics for the terminal",
	Long: `lyrhaze shows the lyrics of the song your music player is playing as a
drifting atmosphere: recent lines float at scattered positions, fade out as
the song moves on, and light up word by word while they are sung.

when run without a subcommand, it starts the interactive viewer.`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		closer, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			return err
		}
		logCloser = closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// default behavior: run the viewer
		return runViewer(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&mprisService, "mpris-service", "m", "", "mpris service name (e.g., org.mpris.MediaPlayer2.spotify)")
	flags.Float64VarP(&syncOffset, "sync-offset", "s", 0, "initial sync offset in seconds, positive shows lyrics earlier")
	flags.BoolVarP(&hideHeader, "hide-header", "H", false, "hide header section")
	flags.StringVar(&lrclibURL, "lrclib-url", "", "custom lrclib api url")
	flags.StringVar(&neteaseURL, "netease-url", "", "netease compatible api base url")
	flags.BoolVar(&noCache, "no-cache", false, "disable cache reads (always fetch fresh)")
	flags.StringVar(&layoutFile, "layout-file", "", "yaml file with layout tuning")
	flags.StringVar(&logFile, "log-file", "", "write debug logs to this file")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&baseColor, "base-color", "", "color of unsung words (#rrggbb)")
	flags.StringVar(&highlightColor, "highlight-color", "", "color of sung words (#rrggbb)")
}

// loadConfig reads the environment, then lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()

	if mprisService != "" {
		cfg.MprisService = mprisService
	}
	if lrclibURL != "" {
		cfg.LrclibURL = lrclibURL
	}
	if neteaseURL != "" {
		cfg.NeteaseURL = neteaseURL
	}
	if layoutFile != "" {
		cfg.LayoutFile = layoutFile
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if baseColor != "" {
		cfg.BaseColor = baseColor
	}
	if highlightColor != "" {
		cfg.HighlightColor = highlightColor
	}
	if cmd.Flags().Changed("sync-offset") {
		cfg.SyncOffset = syncOffset
	}
	if cmd.Flags().Changed("hide-header") {
		cfg.HideHeader = hideHeader
	}

	return cfg
}

// newFetcher wires the online providers behind the shared cache.
func newFetcher(cfg *config.Config) *lyrics.Fetcher {
	return &lyrics.Fetcher{
		Providers: []lyrics.Provider{
			lyrics.NewLrclib(cfg.LrclibURL),
			lyrics.NewNetease(cfg.NeteaseURL),
		},
		Cache:   cache.GetGlobalCache(),
		NoCache: noCache,
		Logger:  logging.Logger(),
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
