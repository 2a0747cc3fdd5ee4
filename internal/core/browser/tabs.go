package browser

import (
	"errors"
	"strings"
	"sync"

	"github.com/seckatie/marktube/internal/core"
)

var (
	// ErrUnknownTab is returned for tabs that have no attached controller.
	ErrUnknownTab = errors.New("unknown tab")
	// ErrNoActiveTab is returned when no page tab is open.
	ErrNoActiveTab = errors.New("no active tab")
)

type tabInfo struct {
	tab core.Tab
	seq uint64
}

// tabRegistry tracks page targets in the order they were last updated.
type tabRegistry struct {
	mu     sync.Mutex
	tabs   map[string]*tabInfo
	seq    uint64
	ignore []string
}

func newTabRegistry(ignorePrefixes ...string) *tabRegistry {
	return &tabRegistry{tabs: make(map[string]*tabInfo), ignore: ignorePrefixes}
}

// observe records tab and reports whether its URL changed since the last
// observation. Title-only updates refresh the entry without reporting.
func (r *tabRegistry) observe(tab core.Tab) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	cur, ok := r.tabs[tab.ID]
	if !ok {
		r.tabs[tab.ID] = &tabInfo{tab: tab, seq: r.seq}
		return true
	}
	changed := cur.tab.URL != tab.URL
	cur.tab = tab
	if changed {
		cur.seq = r.seq
	}
	return changed
}

func (r *tabRegistry) forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, id)
}

func (r *tabRegistry) get(id string) (core.Tab, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.tabs[id]
	if !ok {
		return core.Tab{}, false
	}
	return info.tab, true
}

// active returns the most recently navigated tab, skipping ignored URLs such
// as the manager's own pages.
func (r *tabRegistry) active() (core.Tab, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *tabInfo
	for _, info := range r.tabs {
		if r.ignored(info.tab.URL) {
			continue
		}
		if best == nil || info.seq > best.seq {
			best = info
		}
	}
	if best == nil {
		return core.Tab{}, false
	}
	return best.tab, true
}

func (r *tabRegistry) ignored(url string) bool {
	for _, p := range r.ignore {
		if p != "" && strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}
