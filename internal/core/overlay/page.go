package overlay

import (
	"context"
	"time"

	"github.com/seckatie/marktube/internal/core/db"
)

// Page is the host video page a Controller works on.
type Page interface {
	// ControlsReady reports whether the control bar and the player element
	// are both present.
	ControlsReady(ctx context.Context) (bool, error)
	// InstallButton removes any bookmark button left by an earlier call and
	// adds a fresh one. onClick runs for every click.
	InstallButton(ctx context.Context, onClick func()) error
	// CurrentTime returns the player's playback position in seconds.
	CurrentTime(ctx context.Context) (float64, error)
	// Seek moves the player to seconds.
	Seek(ctx context.Context, seconds float64) error
	// Title returns the page title as displayed by the browser.
	Title(ctx context.Context) (string, error)
	// Notify shows message for d, replacing any notification on screen.
	Notify(ctx context.Context, message string, d time.Duration) error
}

// Store is the persistence a Controller needs.
type Store interface {
	LoadBookmarks(videoID string) ([]db.Bookmark, error)
	SaveBookmarks(videoID string, list []db.Bookmark) error
}
