package main

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/lyrhaze/internal/colors"
	"karolbroda.com/lyrhaze/internal/player"
)

var (
	// flags for player test
	testService string
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "inspect mpris players",
	Long:  `find the mpris players on the session bus and check what lyrhaze would see from them.`,
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "list players on the session bus",
	Long:  `print every org.mpris.MediaPlayer2.* name on the session bus with its identity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		services, err := player.ListServices(bus)
		if err != nil {
			return err
		}

		if len(services) == 0 {
			fmt.Println("no players on the session bus")
			fmt.Println("\nstart a music player with mpris support and try again")
			return nil
		}

		fmt.Printf("%d player(s):\n\n", len(services))
		for _, service := range services {
			if identity := player.Identity(bus, service); identity != "" {
				fmt.Printf("  %s (%s)\n", service, identity)
			} else {
				fmt.Printf("  %s\n", service)
			}
		}

		fmt.Println("\npick one with --mpris-service or LYRHAZE_MPRIS_SERVICE")

		return nil
	},
}

var playerTestCmd = &cobra.Command{
	Use:   "test",
	Short: "poll a player once",
	Long:  `connect to a player, poll it once, and report its identity and track.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		serviceName := cfg.MprisService
		if testService != "" {
			serviceName = testService
		}

		fmt.Printf("polling %s\n\n", serviceName)

		return withPlayer(serviceName, func(svc *player.Service, state player.State) error {
			if identity := svc.Identity(); identity != "" {
				fmt.Printf("identity: %s\n", identity)
			}

			fmt.Printf("poll:     ok\n\n")
			if state.Track == nil || !state.Track.IsValid() {
				fmt.Println("no track currently playing")
				return nil
			}

			fmt.Println("current track:")
			fmt.Printf("  title:  %s\n", state.Track.Title)
			fmt.Printf("  artist: %s\n", state.Track.Artist)
			if state.Track.Album != "" {
				fmt.Printf("  album:  %s\n", state.Track.Album)
			}
			fmt.Printf("  state:  %s\n", playState(state.Playing))
			return nil
		})
	},
}

var playerCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "show the track lyrhaze would fetch lyrics for",
	Long:  `print the metadata and position of the configured player's current track.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		return withPlayer(cfg.MprisService, func(svc *player.Service, state player.State) error {
			if state.Track == nil || !state.Track.IsValid() {
				fmt.Println("no track currently playing")
				return nil
			}

			fmt.Printf("title:    %s\n", state.Track.Title)
			fmt.Printf("artist:   %s\n", state.Track.Artist)
			if state.Track.Album != "" {
				fmt.Printf("album:    %s\n", state.Track.Album)
			}
			if state.Track.DurationMs > 0 {
				fmt.Printf("duration: %s\n", colors.FormatTime(state.Track.DurationMs))
			}
			if state.Track.ArtworkURL != "" {
				fmt.Printf("artwork:  %s\n", state.Track.ArtworkURL)
			}
			fmt.Printf("state:    %s\n", playState(state.Playing))
			fmt.Printf("position: %s\n", colors.FormatTime(state.PositionMs))

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerTestCmd)
	playerCmd.AddCommand(playerCurrentCmd)

	// flags for player test
	playerTestCmd.Flags().StringVar(&testService, "service", "", "mpris service to poll instead of the configured one")
}

// withPlayer connects to service, polls it once and hands over the result.
func withPlayer(service string, fn func(*player.Service, player.State) error) error {
	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer bus.Close()

	svc, err := player.NewService(bus, service)
	if err != nil {
		return fmt.Errorf("failed to connect to player: %w", err)
	}

	if err := svc.Poll(); err != nil {
		return fmt.Errorf("failed to read player state: %w", err)
	}

	return fn(svc, svc.State())
}

func playState(playing bool) string {
	if playing {
		return "playing"
	}
	return "paused"
}
