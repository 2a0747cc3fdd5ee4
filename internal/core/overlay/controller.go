package overlay

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/seckatie/marktube/internal/core"
	"github.com/seckatie/marktube/internal/core/db"
)

var (
	// ErrClosed is returned when a command reaches a stopped Controller.
	ErrClosed = errors.New("overlay controller closed")
	// ErrNoVideo is returned for commands that need a video before NEW arrived.
	ErrNoVideo = errors.New("no video loaded")
	// ErrSuperseded is returned to a NEW requester when a later NEW replaced it.
	ErrSuperseded = errors.New("superseded by a newer video")
)

const inboxSize = 16

// Session is the per-page state owned by a Controller.
type Session struct {
	VideoID string
	// Bookmarks mirrors the last list read or written. Storage stays the
	// source of truth.
	Bookmarks []db.Bookmark
}

// Options configures a Controller.
type Options struct {
	Readiness            ReadinessPolicy
	NotificationDuration time.Duration
	Logger               *log.Logger
}

type envelopeKind int

const (
	kindCommand envelopeKind = iota
	kindReady
	kindSnapshot
)

type result struct {
	bookmarks []db.Bookmark
	session   Session
	err       error
}

type envelope struct {
	kind  envelopeKind
	cmd   Command
	reply chan result

	// kindReady only
	generation uint64
	readyErr   error
}

// Controller drives the bookmark overlay of one tab.
//
// All session state is owned by the goroutine running Run; other goroutines
// talk to it only through Send and Request.
type Controller struct {
	page      Page
	store     Store
	logger    *log.Logger
	readiness ReadinessPolicy
	notifyFor time.Duration

	inbox chan envelope
	done  chan struct{}

	// Owned by Run.
	session    Session
	generation uint64
	waiting    chan result
}

// NewController returns a Controller for page. Call Run to start it.
func NewController(page Page, store Store, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	notifyFor := opts.NotificationDuration
	if notifyFor <= 0 {
		notifyFor = core.DefaultNotificationDuration
	}
	return &Controller{
		page:      page,
		store:     store,
		logger:    logger,
		readiness: opts.Readiness,
		notifyFor: notifyFor,
		inbox:     make(chan envelope, inboxSize),
		done:      make(chan struct{}),
	}
}

// Run processes commands until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	defer c.finishWaiting(ErrClosed)

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c.inbox:
			c.handle(ctx, env)
		}
	}
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Send delivers cmd without waiting for it to be processed.
func (c *Controller) Send(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return c.post(envelope{kind: kindCommand, cmd: cmd})
}

// Request delivers cmd and waits for its outcome. DELETE replies with the
// updated list; NEW returns once the button is installed.
func (c *Controller) Request(ctx context.Context, cmd Command) ([]db.Bookmark, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	res, err := c.roundTrip(ctx, envelope{kind: kindCommand, cmd: cmd})
	if err != nil {
		return nil, err
	}
	return res.bookmarks, res.err
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot(ctx context.Context) (Session, error) {
	res, err := c.roundTrip(ctx, envelope{kind: kindSnapshot})
	if err != nil {
		return Session{}, err
	}
	return res.session, nil
}

func (c *Controller) roundTrip(ctx context.Context, env envelope) (result, error) {
	env.reply = make(chan result, 1)
	if err := c.post(env); err != nil {
		return result{}, err
	}
	select {
	case res := <-env.reply:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-c.done:
		// Run may have answered just before exiting.
		select {
		case res := <-env.reply:
			return res, nil
		default:
			return result{}, ErrClosed
		}
	}
}

func (c *Controller) post(env envelope) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.inbox <- env:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *Controller) handle(ctx context.Context, env envelope) {
	switch env.kind {
	case kindSnapshot:
		reply(env.reply, result{session: Session{
			VideoID:   c.session.VideoID,
			Bookmarks: slices.Clone(c.session.Bookmarks),
		}})
	case kindReady:
		c.handleReady(ctx, env)
	case kindCommand:
		switch env.cmd.Type {
		case CommandNew:
			c.handleNew(ctx, env)
		case CommandAdd:
			reply(env.reply, result{err: c.addBookmark(ctx)})
		case CommandPlay:
			reply(env.reply, result{err: c.play(ctx, env.cmd.Value)})
		case CommandDelete:
			list, err := c.deleteBookmarks(ctx, env.cmd.Value)
			reply(env.reply, result{bookmarks: list, err: err})
		}
	}
}

func reply(ch chan result, res result) {
	if ch != nil {
		ch <- res
	}
}

func (c *Controller) handleNew(ctx context.Context, env envelope) {
	c.session.VideoID = env.cmd.VideoID
	c.session.Bookmarks = nil
	if list, err := c.store.LoadBookmarks(env.cmd.VideoID); err == nil {
		c.session.Bookmarks = list
	} else {
		c.logger.Warn("failed to load bookmarks", "video", env.cmd.VideoID, "err", err)
	}

	c.generation++
	c.finishWaiting(ErrSuperseded)
	c.waiting = env.reply

	c.logger.Info("new video detected, waiting for player controls", "video", env.cmd.VideoID)
	gen := c.generation
	go func() {
		err := waitForControls(ctx, c.page, c.readiness, c.logger)
		_ = c.post(envelope{kind: kindReady, generation: gen, readyErr: err})
	}()
}

func (c *Controller) handleReady(ctx context.Context, env envelope) {
	if env.generation != c.generation {
		return
	}
	if env.readyErr != nil {
		c.logger.Error("bookmark button not installed", "video", c.session.VideoID, "err", env.readyErr)
		c.finishWaiting(env.readyErr)
		return
	}

	err := c.page.InstallButton(ctx, func() {
		if err := c.Send(Command{Type: CommandAdd}); err != nil {
			c.logger.Warn("bookmark click dropped", "err", err)
		}
	})
	if err != nil {
		c.logger.Error("failed to install bookmark button", "video", c.session.VideoID, "err", err)
		c.finishWaiting(fmt.Errorf("install bookmark button: %w", err))
		return
	}
	c.logger.Info("bookmark button added", "video", c.session.VideoID)
	c.finishWaiting(nil)
}

func (c *Controller) finishWaiting(err error) {
	if c.waiting != nil {
		c.waiting <- result{err: err}
		c.waiting = nil
	}
}

func (c *Controller) addBookmark(ctx context.Context) error {
	videoID := c.session.VideoID
	if videoID == "" {
		c.logger.Warn("bookmark click ignored, no video loaded")
		return ErrNoVideo
	}

	pos, err := c.page.CurrentTime(ctx)
	if err != nil {
		return fmt.Errorf("read playback position: %w", err)
	}
	title, err := c.page.Title(ctx)
	if err != nil {
		c.logger.Debug("page title unavailable", "err", err)
	}

	b := db.Bookmark{
		Time:       pos,
		Desc:       core.BookmarkDesc(pos),
		VideoTitle: core.CleanTitle(title),
	}

	list, err := c.store.LoadBookmarks(videoID)
	if err != nil {
		c.notify(ctx, "Could not save bookmark")
		return fmt.Errorf("load bookmarks: %w", err)
	}
	list = db.InsertBookmark(list, b)
	if err := c.store.SaveBookmarks(videoID, list); err != nil {
		c.logger.Error("failed to save bookmark", "video", videoID, "err", err)
		c.notify(ctx, "Could not save bookmark")
		return fmt.Errorf("save bookmarks: %w", err)
	}
	c.session.Bookmarks = list

	c.logger.Info("bookmark added", "video", videoID, "at", core.FormatTime(pos))
	c.notify(ctx, "Bookmark added at "+core.FormatTime(pos))
	return nil
}

func (c *Controller) play(ctx context.Context, seconds float64) error {
	if err := c.page.Seek(ctx, seconds); err != nil {
		c.logger.Error("seek failed", "to", seconds, "err", err)
		return fmt.Errorf("seek: %w", err)
	}
	c.notify(ctx, "Playing from bookmark")
	return nil
}

func (c *Controller) deleteBookmarks(ctx context.Context, seconds float64) ([]db.Bookmark, error) {
	videoID := c.session.VideoID
	if videoID == "" {
		return nil, ErrNoVideo
	}

	list, err := c.store.LoadBookmarks(videoID)
	if err != nil {
		c.logger.Warn("using cached bookmarks for delete", "video", videoID, "err", err)
		list = c.session.Bookmarks
	}
	list = db.DeleteBookmarksAt(list, seconds)
	if err := c.store.SaveBookmarks(videoID, list); err != nil {
		c.logger.Error("failed to save bookmarks", "video", videoID, "err", err)
		return nil, fmt.Errorf("save bookmarks: %w", err)
	}
	c.session.Bookmarks = list

	c.notify(ctx, "Bookmark deleted")
	return slices.Clone(list), nil
}

func (c *Controller) notify(ctx context.Context, message string) {
	if err := c.page.Notify(ctx, message, c.notifyFor); err != nil {
		c.logger.Debug("notification failed", "message", message, "err", err)
	}
}
