package db

// Bookmark is a saved playback position within one video.
//
// Time doubles as the record's identity: two bookmarks at the same Time
// cannot be told apart, and deleting one deletes both.
type Bookmark struct {
	Time       float64 `json:"time"`
	Desc       string  `json:"desc"`
	VideoTitle string  `json:"videoTitle,omitempty"`
}

// VideoSummary is one stored key and the number of bookmarks under it.
type VideoSummary struct {
	VideoID   string
	Count     int
	UpdatedAt string
}
