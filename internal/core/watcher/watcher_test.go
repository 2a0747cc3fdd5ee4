package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/seckatie/marktube/internal/core"
	"github.com/seckatie/marktube/internal/core/overlay"
	"github.com/seckatie/marktube/internal/logging"
)

type recordingCommander struct {
	mu   sync.Mutex
	sent []overlay.Command
	err  error
}

func (r *recordingCommander) Send(cmd overlay.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, cmd)
	return nil
}

func (r *recordingCommander) commands() []overlay.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]overlay.Command{}, r.sent...)
}

type fakeInjector struct {
	mu       sync.Mutex
	ensured  []string
	err      error
	commands *recordingCommander
}

func (f *fakeInjector) Ensure(_ context.Context, tabID string) (Commander, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, tabID)
	if f.err != nil {
		return nil, f.err
	}
	return f.commands, nil
}

func newWatcher() (*Watcher, *fakeInjector) {
	inj := &fakeInjector{commands: &recordingCommander{}}
	return New(inj, logging.Discard()), inj
}

func TestHandle(t *testing.T) {
	t.Run("watch page sends NEW", func(t *testing.T) {
		w, inj := newWatcher()

		sent := w.Handle(context.Background(), core.Tab{ID: "t1", URL: "https://www.youtube.com/watch?v=abc123"})
		if !sent {
			t.Fatal("expected NEW to be sent")
		}
		if len(inj.ensured) != 1 || inj.ensured[0] != "t1" {
			t.Errorf("expected tab t1 to be ensured, got %v", inj.ensured)
		}
		cmds := inj.commands.commands()
		if len(cmds) != 1 || cmds[0] != overlay.NewCommand("abc123") {
			t.Errorf("unexpected commands %+v", cmds)
		}
	})

	t.Run("missing identifier does nothing", func(t *testing.T) {
		w, inj := newWatcher()

		if w.Handle(context.Background(), core.Tab{ID: "t1", URL: "https://www.youtube.com/watch?list=PL"}) {
			t.Error("expected no NEW")
		}
		if len(inj.ensured) != 0 {
			t.Error("expected no attachment for a URL without identifier")
		}
	})

	t.Run("non video page does nothing", func(t *testing.T) {
		w, inj := newWatcher()

		if w.Handle(context.Background(), core.Tab{ID: "t1", URL: "https://www.youtube.com/"}) {
			t.Error("expected no NEW")
		}
		if len(inj.ensured) != 0 {
			t.Error("expected no attachment")
		}
	})

	t.Run("attach failure is dropped without retry", func(t *testing.T) {
		w, inj := newWatcher()
		inj.err = errors.New("target closed")

		if w.Handle(context.Background(), core.Tab{ID: "t1", URL: "https://www.youtube.com/watch?v=abc"}) {
			t.Error("expected no NEW")
		}
		if len(inj.ensured) != 1 {
			t.Errorf("expected exactly one attempt, got %d", len(inj.ensured))
		}
	})

	t.Run("delivery failure", func(t *testing.T) {
		w, inj := newWatcher()
		inj.commands.err = overlay.ErrClosed

		if w.Handle(context.Background(), core.Tab{ID: "t1", URL: "https://www.youtube.com/watch?v=abc"}) {
			t.Error("expected delivery failure to report false")
		}
	})
}

func TestRun(t *testing.T) {
	w, inj := newWatcher()
	updates := make(chan core.Tab)
	done := make(chan struct{})

	go func() {
		w.Run(context.Background(), updates)
		close(done)
	}()

	updates <- core.Tab{ID: "a", URL: "https://www.youtube.com/watch?v=one"}
	updates <- core.Tab{ID: "b", URL: "https://example.com"}
	updates <- core.Tab{ID: "a", URL: "https://www.youtube.com/watch?v=two"}
	close(updates)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after updates closed")
	}

	cmds := inj.commands.commands()
	if len(cmds) != 2 || cmds[0].VideoID != "one" || cmds[1].VideoID != "two" {
		t.Errorf("unexpected commands %+v", cmds)
	}
}
