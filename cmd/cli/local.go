package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/mediadl/internal/domain"
	"github.com/yourusername/mediadl/internal/infrastructure"
)

// These commands run locally and never contact the server.

var classifyCmd = &cobra.Command{
	Use:   "classify [url]",
	Short: "Show which platform a URL belongs to",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		platform := domain.ClassifyPlatform(args[0])
		fmt.Printf("Platform:        %s\n", platform)
		fmt.Printf("Streaming host:  %t\n", platform.IsStreamingHost())
		fmt.Printf("Browser cookies: %t\n", platform.UsesBrowserCookies())
	},
}

var optionsCmd = &cobra.Command{
	Use:   "options [url]",
	Short: "Print the yt-dlp command a URL would be downloaded with",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kindFlag, _ := cmd.Flags().GetString("kind")
		kind, err := domain.ParseMediaKind(kindFlag)
		if err != nil {
			return err
		}

		platform := domain.ClassifyPlatform(args[0])
		opts := domain.BuildOptions(platform, kind)

		fmt.Printf("Platform: %s\n", platform)
		if headers := opts.HeaderKeys(); len(headers) > 0 {
			fmt.Printf("Headers:  %v\n", headers)
		}
		fmt.Println(infrastructure.FormatCommand("yt-dlp", append(opts.Args(), args[0])...))
		return nil
	},
}

func init() {
	optionsCmd.Flags().StringP("kind", "k", string(domain.KindVideo), "Media kind (video, audio, movie)")
}
