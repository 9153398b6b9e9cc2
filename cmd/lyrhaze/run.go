package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/lyrhaze/internal/atmosphere"
	"karolbroda.com/lyrhaze/internal/cache"
	"karolbroda.com/lyrhaze/internal/clock"
	"karolbroda.com/lyrhaze/internal/config"
	"karolbroda.com/lyrhaze/internal/logging"
	"karolbroda.com/lyrhaze/internal/player"
	"karolbroda.com/lyrhaze/internal/terminal"
	"karolbroda.com/lyrhaze/internal/textmetrics"
	"karolbroda.com/lyrhaze/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the interactive lyrics viewer",
	Long:  `starts the viewer, following whatever the configured mpris player is playing.`,
	RunE:  runViewer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// newCellAtmosphere builds an atmosphere measured in terminal cells, with
// the layout file (if any) applied on top of the cell defaults.
func newCellAtmosphere(cfg *config.Config) (*atmosphere.Atmosphere, error) {
	tuning, err := config.LoadTuning(cfg.LayoutFile, atmosphere.CellTuning())
	if err != nil {
		return nil, err
	}
	return atmosphere.New(atmosphere.Options{
		Tuning:         tuning,
		Measurer:       textmetrics.Cells{},
		Logger:         logging.Logger(),
		BaseColor:      cfg.BaseColor,
		HighlightColor: cfg.HighlightColor,
	}), nil
}

// runProgram runs the bubbletea program until it quits or a signal arrives,
// restoring the terminal either way.
func runProgram(model tea.Model, stop func()) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	defer terminal.Reset(nil)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	go func() {
		select {
		case <-sigChan:
			if stop != nil {
				stop()
			}
			p.Quit()
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running bubble tea: %w", err)
	}

	return nil
}

func runViewer(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)

	atmo, err := newCellAtmosphere(cfg)
	if err != nil {
		return err
	}

	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer bus.Close()

	playerService, err := player.NewService(bus, cfg.MprisService)
	if err != nil {
		return fmt.Errorf("failed to create player service: %w", err)
	}

	err = playerService.Start()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not set up dbus signals: %v\n", err)
	}
	defer playerService.Stop()

	clk := clock.New(playerService)
	clk.SetOffset(cfg.SyncOffset)

	model := ui.NewModel(ui.ModelConfig{
		Atmosphere:     atmo,
		Clock:          clk,
		Player:         playerService,
		Fetcher:        newFetcher(cfg),
		Cache:          cache.GetGlobalCache(),
		HideHeader:     cfg.HideHeader,
		TermCaps:       terminal.DetectCapabilities(os.Getenv),
		BaseColor:      cfg.BaseColor,
		HighlightColor: cfg.HighlightColor,
	})

	return runProgram(model, playerService.Stop)
}
