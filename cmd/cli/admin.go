package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/mediadl/internal/domain"
	"github.com/yourusername/mediadl/internal/infrastructure"
	"github.com/yourusername/mediadl/pkg/logger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the content cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		var stats infrastructure.CacheStats
		if err := apiRequest(http.MethodGet, "/api/v1/cache", nil, &stats); err != nil {
			return err
		}
		printCacheStats(stats)
		return nil
	},
}

var cacheEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Drop expired entries and trim the cache to its size limit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		var result struct {
			Removed int                       `json:"removed"`
			Stats   infrastructure.CacheStats `json:"stats"`
		}
		if err := apiRequest(http.MethodPost, "/api/v1/cache/evict", nil, &result); err != nil {
			return err
		}
		fmt.Printf("Evicted %d entries\n", result.Removed)
		printCacheStats(result.Stats)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		if err := apiRequest(http.MethodDelete, "/api/v1/cache", nil, nil); err != nil {
			return err
		}
		fmt.Println("Cache cleared")
		return nil
	},
}

var libraryCmd = &cobra.Command{
	Use:   "library [kind]",
	Short: "List downloaded media of a kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		sortOrder, _ := cmd.Flags().GetString("sort")

		kind, err := domain.ParseMediaKind(args[0])
		if err != nil {
			return err
		}
		path := "/api/v1/library/" + string(kind)
		if sortOrder != "" {
			path += "?sort=" + url.QueryEscape(sortOrder)
		}

		var listing struct {
			Dir   string                     `json:"dir"`
			Count int                        `json:"count"`
			Files []infrastructure.MediaFile `json:"files"`
		}
		if err := apiRequest(http.MethodGet, path, nil, &listing); err != nil {
			return err
		}

		fmt.Printf("%s (%d files)\n", listing.Dir, listing.Count)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
		for _, f := range listing.Files {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				truncate(f.Name, 60),
				formatBytes(f.Size),
				f.ModTime.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show persisted download history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		status, _ := cmd.Flags().GetString("status")
		showStats, _ := cmd.Flags().GetBool("stats")

		if showStats {
			var stats domain.DownloadStats
			if err := apiRequest(http.MethodGet, "/api/v1/history/stats", nil, &stats); err != nil {
				return err
			}
			printStats("History Statistics:", stats)
			return nil
		}

		path := "/api/v1/history"
		if status != "" {
			path += "?status=" + url.QueryEscape(status)
		}
		var records []domain.DownloadRequest
		if err := apiRequest(http.MethodGet, path, nil, &records); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tKIND\tSTATUS\tUPDATED")
		for _, r := range records {
			title := r.Title
			if title == "" {
				title = r.URL
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(r.ID, 8),
				truncate(title, 40),
				r.Kind,
				r.Status,
				r.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "Show today's server logs for a category",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")

		category := string(logger.CategoryDownload)
		if len(args) == 1 {
			category = args[0]
		}

		query := url.Values{}
		query.Set("limit", fmt.Sprint(limit))
		path := "/api/v1/logs/" + url.PathEscape(category)
		if search != "" {
			path += "/search"
			query.Set("q", search)
		}

		var result struct {
			Entries []logger.LogEntry `json:"entries"`
		}
		if err := apiRequest(http.MethodGet, path+"?"+query.Encode(), nil, &result); err != nil {
			return err
		}

		for _, e := range result.Entries {
			fmt.Printf("%s %-5s %s", e.Timestamp, e.Level, e.Message)
			for k, v := range e.Fields {
				fmt.Printf(" %s=%v", k, v)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheEvictCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	libraryCmd.Flags().String("sort", "", "Sort order (alpha, date, random)")

	historyCmd.Flags().StringP("status", "s", "", "Filter by status")
	historyCmd.Flags().Bool("stats", false, "Show counts per status instead of records")

	logsCmd.Flags().StringP("search", "q", "", "Only show entries containing this text")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum number of entries")
}

func printCacheStats(stats infrastructure.CacheStats) {
	fmt.Println("Cache Statistics:")
	fmt.Printf("  Entries:  %d\n", stats.Entries)
	fmt.Printf("  Size:     %s\n", formatBytes(stats.Bytes))
	if stats.MaxSize > 0 {
		fmt.Printf("  Limit:    %s\n", formatBytes(stats.MaxSize))
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
