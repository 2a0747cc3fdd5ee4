package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
)

// ErrInvalidVideoID is returned when a video identifier fails validation.
var ErrInvalidVideoID = errors.New("invalid video ID")

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateVideoID checks that id is usable as a storage key.
// YouTube identifiers only use URL-safe base64 characters.
func ValidateVideoID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidVideoID)
	}
	if !videoIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q contains unsupported characters", ErrInvalidVideoID, id)
	}
	return nil
}

// ------------------------------
// List helpers
// ------------------------------

// SortBookmarks orders list ascending by time in place. Equal times keep
// their relative order.
func SortBookmarks(list []Bookmark) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Time < list[j].Time })
}

// InsertBookmark returns a new list holding list plus b, sorted by time.
func InsertBookmark(list []Bookmark, b Bookmark) []Bookmark {
	out := make([]Bookmark, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, b)
	SortBookmarks(out)
	return out
}

// DeleteBookmarksAt returns a new list without any bookmark whose time equals t.
// Duplicates at t are all removed.
func DeleteBookmarksAt(list []Bookmark, t float64) []Bookmark {
	out := make([]Bookmark, 0, len(list))
	for _, b := range list {
		if b.Time == t {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ------------------------------
// Bookmark methods
// ------------------------------

// LoadBookmarks returns the persisted bookmarks for videoID sorted by time.
// A video without bookmarks yields an empty, non-nil list.
func (db *DB) LoadBookmarks(videoID string) ([]Bookmark, error) {
	if err := ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	raw, ok, err := db.Get(videoID)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []Bookmark{}, nil
	}

	var list []Bookmark
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("failed to decode bookmarks for %s: %w", videoID, err)
	}
	if list == nil {
		list = []Bookmark{}
	}
	SortBookmarks(list)
	return list, nil
}

// SaveBookmarks replaces the persisted list for videoID.
// The list is stored sorted; the caller's slice is not modified.
// Emits a BookmarksSavedEvent after a successful write.
func (db *DB) SaveBookmarks(videoID string, list []Bookmark) error {
	if err := ValidateVideoID(videoID); err != nil {
		return err
	}
	sorted := slices.Clone(list)
	if sorted == nil {
		sorted = []Bookmark{}
	}
	SortBookmarks(sorted)

	raw, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("failed to encode bookmarks for %s: %w", videoID, err)
	}
	if err := db.Set(videoID, string(raw)); err != nil {
		return err
	}

	db.emit(BookmarksSavedEvent{VideoID: videoID, Count: len(sorted)})
	return nil
}

// ListVideos summarizes every video that has a stored bookmark list.
func (db *DB) ListVideos() ([]VideoSummary, error) {
	keys, err := db.Keys()
	if err != nil {
		return nil, err
	}

	out := make([]VideoSummary, 0, len(keys))
	for _, k := range keys {
		list, err := db.LoadBookmarks(k)
		if err != nil {
			db.logger.Warn("skipping unreadable bookmark list", "video", k, "err", err)
			continue
		}
		ts, err := db.updatedAt(k)
		if err != nil {
			return nil, err
		}
		out = append(out, VideoSummary{VideoID: k, Count: len(list), UpdatedAt: ts})
	}
	return out, nil
}
