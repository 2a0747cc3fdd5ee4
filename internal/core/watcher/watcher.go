// Package watcher turns tab updates into NEW commands for the overlay
// controller of the tab.
package watcher

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/seckatie/marktube/internal/core"
	"github.com/seckatie/marktube/internal/core/overlay"
)

// Commander accepts fire-and-forget overlay commands.
type Commander interface {
	Send(cmd overlay.Command) error
}

// Injector makes sure a tab has a running overlay controller.
type Injector interface {
	Ensure(ctx context.Context, tabID string) (Commander, error)
}

// Watcher reacts to tab updates.
type Watcher struct {
	injector Injector
	logger   *log.Logger
}

func New(injector Injector, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{injector: injector, logger: logger}
}

// Handle processes one tab update and reports whether a NEW command was sent.
// Attachment or delivery failures are logged and the update is dropped.
func (w *Watcher) Handle(ctx context.Context, tab core.Tab) bool {
	videoID, ok := tab.VideoID()
	if !ok {
		return false
	}

	logger := w.logger.With("tab", tab.ID, "video", videoID)
	ctrl, err := w.injector.Ensure(ctx, tab.ID)
	if err != nil {
		logger.Error("failed to attach overlay", "err", err)
		return false
	}
	if err := ctrl.Send(overlay.NewCommand(videoID)); err != nil {
		logger.Error("failed to deliver NEW", "err", err)
		return false
	}
	logger.Debug("video page detected")
	return true
}

// Run handles updates until ctx is cancelled or updates is closed.
func (w *Watcher) Run(ctx context.Context, updates <-chan core.Tab) {
	for {
		select {
		case <-ctx.Done():
			return
		case tab, ok := <-updates:
			if !ok {
				return
			}
			w.Handle(ctx, tab)
		}
	}
}
