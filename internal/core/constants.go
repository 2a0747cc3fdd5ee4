package core

import (
	"math"
	"time"
)

// Host page markers. These belong to YouTube and change without notice.
const (
	ControlBarSelector = ".ytp-left-controls"
	PlayerSelector     = "video.video-stream"
	TitleSuffix        = " - YouTube"
)

// Overlay timing defaults
const (
	DefaultRetryInterval        = 1000 * time.Millisecond
	DefaultMaxAttempts          = 30
	DefaultNotificationDuration = 3000 * time.Millisecond
	NotificationAnimation       = 300 * time.Millisecond
)

// Manager defaults
const (
	DefaultCommandTimeout = 5 * time.Second
	DefaultExportTTL      = 2 * time.Minute
)

// User-visible messages shared by the overlay and the manager.
const (
	MsgNotVideoPage    = "This is not a YouTube video page"
	MsgNoBookmarks     = "No bookmarks for this video yet"
	MsgNothingToExport = "No bookmarks to export."
	MsgExportFailed    = "Error exporting bookmarks. Please try again."
)

// MaxTimestamp is the largest playback position accepted, in seconds.
const MaxTimestamp = math.MaxInt32

// ExportFileExt is the extension of exported documents. The content is HTML,
// so the name says so.
const ExportFileExt = ".html"
