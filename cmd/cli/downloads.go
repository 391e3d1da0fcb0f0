package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/mediadl/internal/domain"
)

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Queue a new download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		kind, _ := cmd.Flags().GetString("kind")
		dest, _ := cmd.Flags().GetString("dest")
		watch, _ := cmd.Flags().GetBool("watch")

		if _, err := domain.ParseMediaKind(kind); err != nil {
			return err
		}

		// dial first so no event between submit and subscribe is missed
		var w *watcher
		if watch {
			var err error
			w, err = dialWatcher(cmd.Context(), []string{args[0]})
			if err != nil {
				return err
			}
			defer w.Close()
		}

		payload := map[string]string{
			"url":  args[0],
			"kind": kind,
		}
		if dest != "" {
			payload["dest_dir"] = dest
		}

		var download domain.DownloadRequest
		if err := apiRequest(http.MethodPost, "/api/v1/downloads", payload, &download); err != nil {
			return err
		}

		fmt.Printf("Download added successfully!\n")
		fmt.Printf("ID: %s\n", download.ID)
		fmt.Printf("Status: %s\n", download.Status)

		if w == nil {
			return nil
		}
		return w.Run()
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloads held by the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		status, _ := cmd.Flags().GetString("status")

		path := "/api/v1/downloads"
		if status != "" {
			path += "?status=" + url.QueryEscape(status)
		}

		var downloads []domain.DownloadRequest
		if err := apiRequest(http.MethodGet, path, nil, &downloads); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tKIND\tPLATFORM\tSTATUS\tPROGRESS\tCREATED")
		for _, d := range downloads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d%%\t%s\n",
				truncate(d.ID, 8),
				truncate(d.URL, 40),
				d.Kind,
				d.Platform,
				d.Status,
				d.Progress,
				d.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		var stats domain.DownloadStats
		if err := apiRequest(http.MethodGet, "/api/v1/downloads/stats", nil, &stats); err != nil {
			return err
		}
		printStats("Download Statistics:", stats)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get download details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		var download domain.DownloadRequest
		if err := apiRequest(http.MethodGet, "/api/v1/downloads/"+url.PathEscape(args[0]), nil, &download); err != nil {
			return err
		}
		printDownload(&download)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		if err := apiRequest(http.MethodPost, "/api/v1/downloads/"+url.PathEscape(args[0])+"/cancel", nil, nil); err != nil {
			return err
		}
		fmt.Println("Cancellation requested")
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a finished download so its URL can be queued again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		if err := apiRequest(http.MethodDelete, "/api/v1/downloads/"+url.PathEscape(args[0]), nil, nil); err != nil {
			return err
		}
		fmt.Println("Download removed")
		return nil
	},
}

func init() {
	addCmd.Flags().StringP("kind", "k", string(domain.KindVideo), "Media kind (video, audio, movie)")
	addCmd.Flags().StringP("dest", "d", "", "Destination directory (defaults to the kind's folder)")
	addCmd.Flags().BoolP("watch", "w", false, "Follow progress until the download finishes")

	listCmd.Flags().StringP("status", "s", "", "Filter by status")
}

func printStats(header string, stats domain.DownloadStats) {
	fmt.Println(header)
	fmt.Printf("  Total:       %d\n", stats.Total)
	fmt.Printf("  Pending:     %d\n", stats.Pending)
	fmt.Printf("  Downloading: %d\n", stats.Downloading)
	fmt.Printf("  Completed:   %d\n", stats.Completed)
	fmt.Printf("  Error:       %d\n", stats.Error)
	fmt.Printf("  Cancelled:   %d\n", stats.Cancelled)
}

func printDownload(d *domain.DownloadRequest) {
	fmt.Printf("Download Details:\n")
	fmt.Printf("  ID:       %s\n", d.ID)
	fmt.Printf("  URL:      %s\n", d.URL)
	fmt.Printf("  Kind:     %s\n", d.Kind)
	fmt.Printf("  Platform: %s\n", d.Platform)
	fmt.Printf("  Status:   %s\n", d.Status)
	fmt.Printf("  Progress: %d%%\n", d.Progress)
	if d.Title != "" {
		fmt.Printf("  Title:    %s\n", d.Title)
	}
	fmt.Printf("  Created:  %s\n", d.CreatedAt.Format("2006-01-02 15:04:05"))
	if d.FilePath != "" {
		fmt.Printf("  File:     %s\n", d.FilePath)
	}
	if d.FromCache {
		fmt.Printf("  Source:   cache\n")
	}
	if d.ErrorMessage != "" {
		fmt.Printf("  Error:    %s\n", d.ErrorMessage)
	}
}
