// Package browser runs the Chrome instance the user watches videos in and
// keeps one overlay controller per video tab.
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/seckatie/marktube/internal/core"
	"github.com/seckatie/marktube/internal/core/db"
	"github.com/seckatie/marktube/internal/core/overlay"
	"github.com/seckatie/marktube/internal/core/watcher"
)

const updatesBuffer = 64

var (
	_ watcher.Injector       = (*Session)(nil)
	_ core.ActiveTabResolver = (*Session)(nil)
)

// Options controls how Chrome is launched.
type Options struct {
	// ChromePath optionally overrides the Chrome/Chromium executable path.
	// If empty, chromedp will try to find a browser on PATH / default locations.
	ChromePath string
	// Headless runs Chrome without a window. Only useful for testing; the
	// bookmark button is meant to be clicked.
	Headless bool
	// UserDataDir keeps the profile (logins, cookies) between runs.
	UserDataDir string
	// StartURL is opened in the first tab.
	StartURL string
	// IgnoreURLPrefixes are never reported as the active tab.
	IgnoreURLPrefixes []string
	// Overlay configures every tab controller.
	Overlay overlay.Options
}

// tabConn is the DevTools connection to one tab.
type tabConn struct {
	ctx context.Context
	// release ends the connection. chromedp closes the tab when it runs, so
	// it is only called once the tab is already gone.
	release context.CancelFunc
}

type attachedTab struct {
	ctrl *overlay.Controller
	stop context.CancelFunc
	conn tabConn
}

// Session is a running browser.
type Session struct {
	store  overlay.Store
	opts   Options
	logger *log.Logger

	browserCtx context.Context
	cancel     context.CancelFunc

	registry *tabRegistry
	updates  chan core.Tab

	connect    func(tabID string) tabConn
	newPage    func(conn tabConn, logger *log.Logger) (overlay.Page, error)
	disconnect func(conn tabConn) error

	mu       sync.Mutex
	attached map[string]*attachedTab
	// orphans are connections whose overlay failed to start. They are
	// released when their tab is destroyed.
	orphans map[string][]tabConn
}

func newSession(browserCtx context.Context, cancel context.CancelFunc, store overlay.Store, opts Options, logger *log.Logger) *Session {
	s := &Session{
		store:      store,
		opts:       opts,
		logger:     logger,
		browserCtx: browserCtx,
		cancel:     cancel,
		registry:   newTabRegistry(opts.IgnoreURLPrefixes...),
		updates:    make(chan core.Tab, updatesBuffer),
		attached:   make(map[string]*attachedTab),
		orphans:    make(map[string][]tabConn),
	}
	s.connect = s.connectTab
	s.newPage = newChromePage
	s.disconnect = s.disconnectTab
	return s
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocatorOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocatorOpts = append(allocatorOpts,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		// The defaults are tuned for scraping; a person is watching here.
		chromedp.Flag("mute-audio", false),
		chromedp.Flag("hide-scrollbars", false),
	)
	if opts.ChromePath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.UserDataDir != "" {
		allocatorOpts = append(allocatorOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.Headless {
		allocatorOpts = append(allocatorOpts, chromedp.Headless)
	} else {
		allocatorOpts = append(allocatorOpts, chromedp.Flag("headless", false))
	}
	return allocatorOpts
}

// Launch starts Chrome, opens opts.StartURL and begins tracking tabs.
// The browser lives until ctx is cancelled or Close is called.
func Launch(ctx context.Context, store overlay.Store, opts Options) (*Session, error) {
	logger := opts.Overlay.Logger
	if logger == nil {
		logger = log.Default()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := newSession(browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}, store, opts, logger)

	chromedp.ListenBrowser(browserCtx, s.onBrowserEvent)

	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			c := chromedp.FromContext(ctx)
			return target.SetDiscoverTargets(true).Do(cdp.WithExecutor(ctx, c.Browser))
		}),
	}
	if opts.StartURL != "" {
		actions = append(actions, chromedp.Navigate(opts.StartURL))
	}
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		s.cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Info("browser started", "start_url", opts.StartURL, "headless", opts.Headless)
	return s, nil
}

// onBrowserEvent runs on chromedp's event loop and must not block.
func (s *Session) onBrowserEvent(ev any) {
	switch e := ev.(type) {
	case *target.EventTargetCreated:
		s.observe(e.TargetInfo)
	case *target.EventTargetInfoChanged:
		s.observe(e.TargetInfo)
	case *target.EventTargetDestroyed:
		go s.detach(string(e.TargetID))
	}
}

func (s *Session) observe(info *target.Info) {
	if info == nil || info.Type != "page" {
		return
	}
	tab := core.Tab{ID: string(info.TargetID), URL: info.URL, Title: info.Title}
	if !s.registry.observe(tab) {
		return
	}
	select {
	case s.updates <- tab:
	default:
		s.logger.Warn("tab update dropped, watcher is behind", "tab", tab.ID, "url", tab.URL)
	}
}

// Updates delivers page tabs whose URL changed.
func (s *Session) Updates() <-chan core.Tab {
	return s.updates
}

// Done is closed when the browser goes away.
func (s *Session) Done() <-chan struct{} {
	return s.browserCtx.Done()
}

// Ensure attaches an overlay controller to tabID unless one is running.
func (s *Session) Ensure(ctx context.Context, tabID string) (watcher.Commander, error) {
	s.mu.Lock()
	if at, ok := s.attached[tabID]; ok {
		select {
		case <-at.ctrl.Done():
			delete(s.attached, tabID)
			s.orphans[tabID] = append(s.orphans[tabID], at.conn)
		default:
			s.mu.Unlock()
			return at.ctrl, nil
		}
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := s.logger.With("tab", tabID)
	if tab, ok := s.registry.get(tabID); ok {
		logger = logger.With("url", tab.URL)
	}

	conn := s.connect(tabID)
	page, err := s.newPage(conn, logger)
	if err != nil {
		if derr := s.disconnect(conn); derr != nil {
			logger.Debug("detach after failed attach", "err", derr)
		}
		s.mu.Lock()
		s.orphans[tabID] = append(s.orphans[tabID], conn)
		s.mu.Unlock()
		return nil, err
	}

	overlayOpts := s.opts.Overlay
	overlayOpts.Logger = logger
	ctrl := overlay.NewController(page, s.store, overlayOpts)
	ctrlCtx, stop := context.WithCancel(s.browserCtx)
	go ctrl.Run(ctrlCtx)

	s.mu.Lock()
	s.attached[tabID] = &attachedTab{ctrl: ctrl, stop: stop, conn: conn}
	s.mu.Unlock()

	logger.Info("overlay attached")
	return ctrl, nil
}

// connectTab opens a DevTools connection to an existing tab. The connection
// ignores browserCtx's cancellation so that shutting down never closes the
// user's tabs one by one.
func (s *Session) connectTab(tabID string) tabConn {
	ctx, release := chromedp.NewContext(context.WithoutCancel(s.browserCtx), chromedp.WithTargetID(target.ID(tabID)))
	return tabConn{ctx: ctx, release: release}
}

// disconnectTab detaches the DevTools session of conn, leaving the tab open.
func (s *Session) disconnectTab(conn tabConn) error {
	c := chromedp.FromContext(conn.ctx)
	if c == nil || c.Browser == nil || c.Target == nil || c.Target.SessionID == "" {
		return nil
	}
	return target.DetachFromTarget().
		WithSessionID(c.Target.SessionID).
		Do(cdp.WithExecutor(s.browserCtx, c.Browser))
}

func newChromePage(conn tabConn, logger *log.Logger) (overlay.Page, error) {
	page, err := overlay.NewChromePage(conn.ctx, logger)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// detach runs once the tab is destroyed.
func (s *Session) detach(tabID string) {
	s.registry.forget(tabID)

	s.mu.Lock()
	at, ok := s.attached[tabID]
	delete(s.attached, tabID)
	orphans := s.orphans[tabID]
	delete(s.orphans, tabID)
	s.mu.Unlock()

	for _, conn := range orphans {
		conn.release()
	}
	if ok {
		at.stop()
		at.conn.release()
		s.logger.Debug("overlay detached", "tab", tabID)
	}
}

// Request sends cmd to the controller of tabID and waits for the reply.
func (s *Session) Request(ctx context.Context, tabID string, cmd overlay.Command) ([]db.Bookmark, error) {
	s.mu.Lock()
	at, ok := s.attached[tabID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTab, tabID)
	}
	return at.ctrl.Request(ctx, cmd)
}

// ActiveTab returns the page the user navigated most recently.
func (s *Session) ActiveTab(context.Context) (core.Tab, error) {
	tab, ok := s.registry.active()
	if !ok {
		return core.Tab{}, ErrNoActiveTab
	}
	return tab, nil
}

// Close stops every controller and shuts the browser down. Tab connections
// are left to the browser teardown.
func (s *Session) Close() {
	s.mu.Lock()
	for id, at := range s.attached {
		at.stop()
		delete(s.attached, id)
	}
	s.mu.Unlock()

	if err := chromedp.Cancel(s.browserCtx); err != nil {
		s.logger.Warn("browser did not shut down cleanly", "err", err)
	}
	s.cancel()
}
