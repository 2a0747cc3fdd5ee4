/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/

// The export command writes the bookmarks of one video as a standalone HTML
// page, the same document the manager's export button produces.
//
// Example usage:
//
//	marktube export dQw4w9WgXcQ
//	marktube export dQw4w9WgXcQ --title "Never Gonna Give You Up" --out -
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seckatie/marktube/internal/core"
	"github.com/seckatie/marktube/internal/core/db"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <video-id>",
	Short: "Export the bookmarks of a video as an HTML page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, args[0])
	},
}

func runExport(cmd *cobra.Command, videoID string) error {
	if err := db.ValidateVideoID(videoID); err != nil {
		return err
	}

	title, err := cmd.Flags().GetString("title")
	if err != nil {
		return fmt.Errorf("failed to read --title: %w", err)
	}
	videoURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return fmt.Errorf("failed to read --url: %w", err)
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to read --out: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	database, err := initDB(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	list, err := database.LoadBookmarks(videoID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", videoID, core.ErrNoBookmarks)
	}

	if title == "" {
		title = storedTitle(list, videoID)
	}
	if videoURL == "" {
		videoURL = "https://www.youtube.com/watch?v=" + videoID
	}

	body, err := core.RenderExport(core.ExportDocument{
		VideoTitle:  title,
		VideoURL:    videoURL,
		Bookmarks:   list,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	if outPath == "-" {
		_, err := cmd.OutOrStdout().Write(body)
		return err
	}
	if outPath == "" {
		outPath = core.ExportFilename(title)
	}
	if err := os.WriteFile(outPath, body, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	logger.Info("export written", "video", videoID, "file", outPath, "bookmarks", len(list))
	return nil
}

// storedTitle is the title captured with the bookmarks, or the video id.
func storedTitle(list []db.Bookmark, videoID string) string {
	for _, b := range list {
		if b.VideoTitle != "" {
			return b.VideoTitle
		}
	}
	return videoID
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("title", "", "Video title shown in the export (default: title saved with the bookmarks)")
	exportCmd.Flags().String("url", "", "Video URL (default: the YouTube watch URL for the id)")
	exportCmd.Flags().StringP("out", "o", "", "Output file, - for stdout (default: derived from the title)")
}
