package overlay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ChromePage is a Page backed by a tab of a chromedp-controlled browser.
//
// Clicks on the injected button reach Go through a DevTools binding: the
// button calls window.marktubeCommand with a JSON command, Chrome emits
// Runtime.bindingCalled, and the listener hands it to the installed onClick.
type ChromePage struct {
	ctx    context.Context
	logger *log.Logger

	mu      sync.Mutex
	onClick func()
}

// NewChromePage attaches to the tab behind tabCtx, which must come from
// chromedp.NewContext.
func NewChromePage(tabCtx context.Context, logger *log.Logger) (*ChromePage, error) {
	if logger == nil {
		logger = log.Default()
	}
	p := &ChromePage{ctx: tabCtx, logger: logger}

	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*runtime.EventBindingCalled)
		if !ok || e.Name != BindingName {
			return
		}
		// Listeners must not block the event loop.
		go p.dispatch(e.Payload)
	})

	if err := chromedp.Run(tabCtx, runtime.AddBinding(BindingName)); err != nil {
		return nil, fmt.Errorf("attach to tab: %w", err)
	}
	return p, nil
}

func (p *ChromePage) dispatch(payload string) {
	cmd, err := ParseCommand([]byte(payload))
	if err != nil {
		p.logger.Warn("ignoring malformed page message", "payload", payload, "err", err)
		return
	}
	if cmd.Type != CommandAdd {
		p.logger.Warn("ignoring page message", "type", cmd.Type)
		return
	}

	p.mu.Lock()
	onClick := p.onClick
	p.mu.Unlock()
	if onClick != nil {
		onClick()
	}
}

// run executes actions on the tab, giving up when ctx is done.
func (p *ChromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *ChromePage) ControlsReady(ctx context.Context) (bool, error) {
	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(controlsReadyScript(), &ok)); err != nil {
		return false, err
	}
	return ok, nil
}

func (p *ChromePage) InstallButton(ctx context.Context, onClick func()) error {
	p.mu.Lock()
	p.onClick = onClick
	p.mu.Unlock()

	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(installButtonScript(), &ok)); err != nil {
		return err
	}
	if !ok {
		return errors.New("control bar disappeared")
	}
	return nil
}

func (p *ChromePage) CurrentTime(ctx context.Context) (float64, error) {
	var t float64
	if err := p.run(ctx, chromedp.Evaluate(currentTimeScript(), &t)); err != nil {
		return 0, err
	}
	return t, nil
}

func (p *ChromePage) Seek(ctx context.Context, seconds float64) error {
	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(seekScript(seconds), &ok)); err != nil {
		return err
	}
	if !ok {
		return errors.New("player not found")
	}
	return nil
}

// Title returns document.title, falling back to the <title> element or the
// title meta tag when the live title is blank.
func (p *ChromePage) Title(ctx context.Context) (string, error) {
	var title, html string
	if err := p.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	if strings.TrimSpace(title) != "" {
		return title, nil
	}

	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return titleFromHTML(html), nil
}

func titleFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t, ok := doc.Find(`meta[name="title"]`).First().Attr("content"); ok {
		return strings.TrimSpace(t)
	}
	return ""
}

func (p *ChromePage) Notify(ctx context.Context, message string, d time.Duration) error {
	var ok bool
	return p.run(ctx, chromedp.Evaluate(notifyScript(message, d), &ok))
}
