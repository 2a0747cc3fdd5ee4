package core

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/seckatie/marktube/internal/core/db"
)

// Tab is a browser tab as seen by the watcher and the manager.
type Tab struct {
	ID    string
	URL   string
	Title string
}

// ActiveTabResolver reports the tab the user is currently looking at.
type ActiveTabResolver interface {
	ActiveTab(ctx context.Context) (Tab, error)
}

// IsWatchURL reports whether rawURL points at a YouTube watch page.
func IsWatchURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host != "youtube.com" && !strings.HasSuffix(host, ".youtube.com") {
		return false
	}
	return u.Path == "/watch"
}

// ExtractVideoID returns the "v" parameter of a watch URL.
// ok is false for non-watch pages and for missing or malformed identifiers.
func ExtractVideoID(rawURL string) (id string, ok bool) {
	if !IsWatchURL(rawURL) {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	id = u.Query().Get("v")
	if db.ValidateVideoID(id) != nil {
		return "", false
	}
	return id, true
}

// VideoID is ExtractVideoID for a tab.
func (t Tab) VideoID() (string, bool) {
	return ExtractVideoID(t.URL)
}

// CleanTitle strips the site suffix from a page title.
func CleanTitle(title string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(title), TitleSuffix))
}

// FormatTime renders seconds as zero-padded HH:MM:SS, dropping fractions.
// Hours are not wrapped at 24. Positions past MaxTimestamp are clamped.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	if seconds > MaxTimestamp {
		seconds = MaxTimestamp
	}
	total := int64(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// BookmarkDesc is the description given to a bookmark created from the player.
func BookmarkDesc(seconds float64) string {
	return "Bookmark at " + FormatTime(seconds)
}

// TimestampURL links to videoURL starting at seconds, replacing any existing
// "t" parameter.
func TimestampURL(videoURL string, seconds float64) string {
	u, err := url.Parse(videoURL)
	if err != nil {
		return videoURL
	}
	q := u.Query()
	q.Set("t", fmt.Sprintf("%ds", int64(math.Floor(math.Max(seconds, 0)))))
	u.RawQuery = q.Encode()
	return u.String()
}
