/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seckatie/marktube/internal/core"
	"github.com/seckatie/marktube/internal/core/db"
)

// listCmd prints stored videos, or the bookmarks of one video.
var listCmd = &cobra.Command{
	Use:   "list [video-id]",
	Short: "List bookmarked videos, or the bookmarks of one video",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd, args)
	},
}

func runList(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		videos, err := database.ListVideos()
		if err != nil {
			return err
		}
		if len(videos) == 0 {
			_, err := fmt.Fprintln(out, "No bookmarks yet.")
			return err
		}
		return writeRows(out, []string{"VIDEO", "BOOKMARKS", "UPDATED"}, videoRows(videos), []columnAlignment{alignLeft, alignRight, alignLeft})
	}

	videoID := args[0]
	if err := db.ValidateVideoID(videoID); err != nil {
		return err
	}
	list, err := database.LoadBookmarks(videoID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, core.MsgNoBookmarks)
		return err
	}
	return writeRows(out, []string{"TIME", "SECONDS", "DESCRIPTION"}, bookmarkRows(list), []columnAlignment{alignLeft, alignRight, alignLeft})
}

func videoRows(videos []db.VideoSummary) [][]string {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{v.VideoID, strconv.Itoa(v.Count), v.UpdatedAt})
	}
	return rows
}

func bookmarkRows(list []db.Bookmark) [][]string {
	rows := make([][]string, 0, len(list))
	for _, b := range list {
		rows = append(rows, []string{
			core.FormatTime(b.Time),
			strconv.FormatFloat(b.Time, 'f', -1, 64),
			b.Desc,
		})
	}
	return rows
}

func init() {
	rootCmd.AddCommand(listCmd)
}
