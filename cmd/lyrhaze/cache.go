package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"karolbroda.com/lyrhaze/internal/cache"
	"karolbroda.com/lyrhaze/internal/colors"
	"karolbroda.com/lyrhaze/internal/lrc"
)

var (
	// flags for cache list
	cacheSortBy  string
	cacheConfirm bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "inspect and clean the lyric cache",
	Long:  `look at, prune or empty the on-disk store of fetched lyrics and per-song sync offsets.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "entry count, size and location",
	Long:  `report where the cache lives, how many songs it holds and how much disk it uses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		diskCache := cache.GetGlobalCache()

		count, sizeBytes, err := diskCache.Stats()
		if err != nil {
			return fmt.Errorf("failed to get cache stats: %w", err)
		}

		location := diskCache.Path()
		if location == "" {
			location = "(memory only)"
		}

		fmt.Println("cache statistics:")
		fmt.Printf("  location: %s\n", location)
		fmt.Printf("  entries:  %d\n", count)
		fmt.Printf("  size:     %s\n", formatBytes(sizeBytes))

		return nil
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "list cached songs",
	Long:  `list all songs in the cache with their source, sync offset and cache date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := cache.GetGlobalCache().ListAll()
		if err != nil {
			return fmt.Errorf("failed to list cache: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return nil
		}

		sortCacheEntries(entries, cacheSortBy)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ARTIST\tTITLE\tSOURCE\tSYNC OFFSET\tCACHED")

		for _, entry := range entries {
			syncStr := fmt.Sprintf("%+.1fs", entry.SyncOffset)
			if entry.SyncOffset == 0 {
				syncStr = "-"
			}
			source := entry.Source
			if source == "" {
				source = "-"
			}
			cacheDate := time.Unix(entry.CreatedAt, 0).Format("2006-01-02")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", entry.Artist, entry.Title, source, syncStr, cacheDate)
		}

		w.Flush()

		fmt.Printf("\ntotal: %d songs\n", len(entries))

		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <artist> <title>",
	Short: "show one cached song",
	Long:  `print the stored metadata, sync offset and line counts of one cached song.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		diskCache := cache.GetGlobalCache()

		entry, err := lookupCached(diskCache, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Printf("artist:       %s\n", entry.Artist)
		fmt.Printf("title:        %s\n", entry.Title)
		fmt.Printf("album:        %s\n", entry.Album)
		fmt.Printf("source:       %s\n", entry.Source)
		fmt.Printf("duration:     %s\n", colors.FormatTime(entry.DurationMs))
		fmt.Printf("sync offset:  %.2fs\n", entry.SyncOffset)
		fmt.Printf("instrumental: %v\n", entry.Instrumental)
		fmt.Printf("cached:       %s\n", time.Unix(entry.CreatedAt, 0).Format("2006-01-02 15:04:05"))
		fmt.Printf("expires:      %s\n", time.Unix(entry.ExpiresAt, 0).Format("2006-01-02 15:04:05"))

		if entry.Lyrics != "" {
			parsed := lrc.Parse(entry.Lyrics)
			fmt.Printf("\nsynced lyrics: %d lines, %d credits\n", len(parsed.Lyrics), len(parsed.Meta))
		} else if entry.PlainLyrics != "" {
			lines := strings.Split(entry.PlainLyrics, "\n")
			fmt.Printf("\nplain lyrics: %d lines (no sync data)\n", len(lines))
		} else {
			fmt.Println("\nno lyrics available")
		}

		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "remove every cached song",
	Long:  `empty the cache, sync offsets included. asks first unless --confirm is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheConfirm {
			fmt.Print("remove every cached song and its sync offset? (y/n): ")
			var response string
			_, _ = fmt.Scanln(&response)
			response = strings.ToLower(response)
			if response != "y" && response != "yes" {
				fmt.Println("cancelled")
				return nil
			}
		}

		if err := cache.GetGlobalCache().Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Println("cache cleared")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "drop expired songs",
	Long:  `delete entries past their expiry, and any that can no longer be read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pruned, err := cache.GetGlobalCache().Prune()
		if err != nil {
			return fmt.Errorf("failed to prune cache: %w", err)
		}

		fmt.Printf("pruned %d entries\n", pruned)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <artist> <title>",
	Short: "forget one cached song",
	Long:  `delete the cached lyrics and sync offset of one song, by artist and title.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist := args[0]
		title := args[1]

		diskCache := cache.GetGlobalCache()

		if _, err := lookupCached(diskCache, artist, title); err != nil {
			return err
		}

		if err := diskCache.Delete(artist, title); err != nil {
			return fmt.Errorf("failed to delete from cache: %w", err)
		}

		fmt.Printf("deleted '%s - %s' from cache\n", artist, title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)

	// flags for cache list
	cacheListCmd.Flags().StringVar(&cacheSortBy, "sort", "date", "sort by: date, artist, title")

	// flags for cache clear
	cacheClearCmd.Flags().BoolVar(&cacheConfirm, "confirm", false, "do not ask before clearing")
}

// lookupCached fetches an entry, listing similar cached songs on a miss.
func lookupCached(diskCache *cache.DiskCache, artist string, title string) (*cache.Entry, error) {
	entry, err := diskCache.Get(artist, title)
	if err == nil {
		return entry, nil
	}

	if suggestions := findSimilarCachedSongs(diskCache, artist, title); len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "song not found in cache\n\n")
		fmt.Fprintf(os.Stderr, "cached songs with similar names:\n")
		for _, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  %s - %s\n", s.Artist, s.Title)
		}
	}
	return nil, fmt.Errorf("song not found in cache: %w", err)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func sortCacheEntries(entries []*cache.Entry, sortBy string) {
	switch sortBy {
	case "artist":
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Artist) < strings.ToLower(entries[j].Artist)
		})
	case "title":
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Title) < strings.ToLower(entries[j].Title)
		})
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].CreatedAt > entries[j].CreatedAt
		})
	}
}
