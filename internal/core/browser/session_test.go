package browser

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/seckatie/marktube/internal/core/overlay"
	"github.com/seckatie/marktube/internal/logging"
)

var errAttach = errors.New("attach failed")

type stubPage struct{}

func (stubPage) ControlsReady(context.Context) (bool, error)         { return true, nil }
func (stubPage) InstallButton(context.Context, func()) error         { return nil }
func (stubPage) CurrentTime(context.Context) (float64, error)        { return 0, nil }
func (stubPage) Seek(context.Context, float64) error                 { return nil }
func (stubPage) Title(context.Context) (string, error)               { return "", nil }
func (stubPage) Notify(context.Context, string, time.Duration) error { return nil }

// fakeConns records what happens to tab connections. A released connection
// is a closed tab.
type fakeConns struct {
	mu       sync.Mutex
	opened   int
	released map[string]int
	detached int
	pageErr  error
}

func (f *fakeConns) connect(tabID string) tabConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	ctx, cancel := context.WithCancel(context.Background())
	return tabConn{ctx: ctx, release: func() {
		cancel()
		f.mu.Lock()
		defer f.mu.Unlock()
		f.released[tabID]++
	}}
}

func (f *fakeConns) newPage(tabConn, *log.Logger) (overlay.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return stubPage{}, nil
}

func (f *fakeConns) disconnect(tabConn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detached++
	return nil
}

func (f *fakeConns) releasedCount(tabID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released[tabID]
}

func newTestSession(t *testing.T) (*Session, *fakeConns) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := newSession(ctx, cancel, nil, Options{}, logging.Discard())
	conns := &fakeConns{released: make(map[string]int)}
	s.connect = conns.connect
	s.newPage = conns.newPage
	s.disconnect = conns.disconnect
	return s, conns
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for controller to stop")
	}
}

func TestSessionEnsure(t *testing.T) {
	t.Run("failed attach leaves the tab open", func(t *testing.T) {
		s, conns := newTestSession(t)
		conns.pageErr = errAttach

		if _, err := s.Ensure(context.Background(), "tab-1"); !errors.Is(err, errAttach) {
			t.Fatalf("expected attach error, got %v", err)
		}
		if n := conns.releasedCount("tab-1"); n != 0 {
			t.Errorf("expected tab connection not to be released, got %d release(s)", n)
		}
		if conns.detached != 1 {
			t.Errorf("expected the session to be detached once, got %d", conns.detached)
		}

		// The connection is released once the tab itself is gone.
		s.detach("tab-1")
		if n := conns.releasedCount("tab-1"); n != 1 {
			t.Errorf("expected 1 release after the tab was destroyed, got %d", n)
		}
	})

	t.Run("reuses a running controller", func(t *testing.T) {
		s, conns := newTestSession(t)

		first, err := s.Ensure(context.Background(), "tab-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := s.Ensure(context.Background(), "tab-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != second {
			t.Error("expected the same controller")
		}
		if conns.opened != 1 {
			t.Errorf("expected 1 connection, got %d", conns.opened)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s, conns := newTestSession(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := s.Ensure(ctx, "tab-1"); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if conns.opened != 0 {
			t.Errorf("expected no connection, got %d", conns.opened)
		}
	})
}

func TestSessionDetach(t *testing.T) {
	s, conns := newTestSession(t)

	cmd, err := s.Ensure(context.Background(), "tab-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctrl := cmd.(*overlay.Controller)

	s.detach("tab-1")
	waitDone(t, ctrl.Done())
	if n := conns.releasedCount("tab-1"); n != 1 {
		t.Errorf("expected 1 release, got %d", n)
	}
	if _, err := s.Request(context.Background(), "tab-1", overlay.PlayCommand(1)); !errors.Is(err, ErrUnknownTab) {
		t.Errorf("expected ErrUnknownTab, got %v", err)
	}
}

func TestSessionClose(t *testing.T) {
	s, conns := newTestSession(t)

	var ctrls []*overlay.Controller
	for _, id := range []string{"tab-1", "tab-2"} {
		cmd, err := s.Ensure(context.Background(), id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ctrls = append(ctrls, cmd.(*overlay.Controller))
	}

	s.Close()

	for _, ctrl := range ctrls {
		waitDone(t, ctrl.Done())
	}
	for _, id := range []string{"tab-1", "tab-2"} {
		if n := conns.releasedCount(id); n != 0 {
			t.Errorf("expected %s to stay open, got %d release(s)", id, n)
		}
	}
}
