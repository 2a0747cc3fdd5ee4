package web

import (
	"strconv"

	"github.com/seckatie/marktube/internal/core"
	"github.com/seckatie/marktube/internal/core/db"
)

type bookmarkView struct {
	Index     int
	Time      string // raw seconds, posted back to play/delete
	Timestamp string // HH:MM:SS
	Desc      string
}

type messageView struct {
	Text  string
	Error bool
}

type pageView struct {
	IsVideo    bool
	VideoID    string
	VideoTitle string
	VideoURL   string
	Bookmarks  []bookmarkView
	Empty      string
	Message    *messageView
}

func newBookmarkViews(list []db.Bookmark) []bookmarkView {
	views := make([]bookmarkView, 0, len(list))
	for i, b := range list {
		views = append(views, bookmarkView{
			Index:     i,
			Time:      strconv.FormatFloat(b.Time, 'f', -1, 64),
			Timestamp: core.FormatTime(b.Time),
			Desc:      b.Desc,
		})
	}
	return views
}

// newPageView builds the manager view for tab. list is ignored for non-video tabs.
func newPageView(tab core.Tab, videoID string, isVideo bool, list []db.Bookmark) pageView {
	if !isVideo {
		return pageView{Empty: core.MsgNotVideoPage}
	}
	v := pageView{
		IsVideo:    true,
		VideoID:    videoID,
		VideoTitle: videoTitle(tab, list),
		VideoURL:   tab.URL,
		Bookmarks:  newBookmarkViews(list),
	}
	if len(list) == 0 {
		v.Empty = core.MsgNoBookmarks
	}
	return v
}

// videoTitle prefers the live tab title and falls back to the title captured
// when bookmarks were added.
func videoTitle(tab core.Tab, list []db.Bookmark) string {
	if t := core.CleanTitle(tab.Title); t != "" {
		return t
	}
	for _, b := range list {
		if b.VideoTitle != "" {
			return b.VideoTitle
		}
	}
	if id, ok := tab.VideoID(); ok {
		return id
	}
	return ""
}
