package web

import (
	"math"
	"net/http"
	"strconv"

	"github.com/seckatie/marktube/internal/core"
	"github.com/seckatie/marktube/internal/core/db"
	"github.com/seckatie/marktube/internal/core/overlay"
)

const msgTabUnreachable = "Could not reach the video tab"

func (ws *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	view, ok := ws.currentView(w, r)
	if !ok {
		return
	}
	ws.renderTemplate(w, "index.html", view)
}

func (ws *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	view, ok := ws.currentView(w, r)
	if !ok {
		return
	}
	ws.renderTemplate(w, "bookmarks.html", view)
}

// currentView loads the persisted list for the active tab. It writes a 500
// and returns false when storage fails.
func (ws *Server) currentView(w http.ResponseWriter, r *http.Request) (pageView, bool) {
	tab, videoID, isVideo := ws.videoTab(r.Context())
	if !isVideo {
		return newPageView(tab, "", false, nil), true
	}

	list, err := ws.db.LoadBookmarks(videoID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		ws.logger.Error("failed to load bookmarks", "video", videoID, "err", err)
		return pageView{}, false
	}
	return newPageView(tab, videoID, true, ws.refreshList(videoID, list)), true
}

// refreshList installs a freshly loaded list and returns what to render.
// While a delete is in flight its speculative view is kept.
func (ws *Server) refreshList(videoID string, list []db.Bookmark) []db.Bookmark {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	state, ok := ws.lists[videoID]
	if !ok {
		ws.lists[videoID] = core.NewListState(list)
		return list
	}
	if state.Pending() {
		return state.View()
	}
	state.Confirm(list)
	return list
}

func (ws *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	t, ok := parseTimestamp(w, r)
	if !ok {
		return
	}

	tab, _, isVideo := ws.videoTab(r.Context())
	if !isVideo {
		ws.renderMessage(w, core.MsgNotVideoPage, true)
		return
	}

	ctx, cancel := ws.commandContext(r)
	defer cancel()
	if _, err := ws.dispatcher.Request(ctx, tab.ID, overlay.PlayCommand(t)); err != nil {
		ws.logger.Warn("play failed", "tab", tab.ID, "t", t, "err", err)
		ws.renderMessage(w, msgTabUnreachable, true)
		return
	}
	ws.renderMessage(w, "Playing from "+core.FormatTime(t), false)
}

func (ws *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	t, ok := parseTimestamp(w, r)
	if !ok {
		return
	}

	tab, videoID, isVideo := ws.videoTab(r.Context())
	if !isVideo {
		ws.renderTemplate(w, "bookmarks.html", newPageView(tab, "", false, nil))
		return
	}

	if err := ws.speculateDelete(videoID, t); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		ws.logger.Error("failed to load bookmarks", "video", videoID, "err", err)
		return
	}

	ctx, cancel := ws.commandContext(r)
	defer cancel()
	authoritative, err := ws.dispatcher.Request(ctx, tab.ID, overlay.DeleteCommand(t))

	var msg *messageView
	if err != nil {
		ws.logger.Warn("delete not confirmed by tab, reloading from storage", "tab", tab.ID, "video", videoID, "t", t, "err", err)
		msg = &messageView{Text: msgTabUnreachable, Error: true}
		authoritative, err = ws.db.LoadBookmarks(videoID)
		if err != nil {
			ws.logger.Error("failed to reload bookmarks", "video", videoID, "err", err)
			authoritative = ws.lastConfirmed(videoID)
		}
	}
	ws.confirmList(videoID, authoritative)

	view := newPageView(tab, videoID, true, authoritative)
	view.Message = msg
	ws.renderTemplate(w, "bookmarks.html", view)
}

// speculateDelete records the optimistic removal of t for videoID, seeding
// the state from storage when the video has not been viewed yet.
func (ws *Server) speculateDelete(videoID string, t float64) error {
	ws.mu.Lock()
	state, ok := ws.lists[videoID]
	ws.mu.Unlock()

	if !ok {
		list, err := ws.db.LoadBookmarks(videoID)
		if err != nil {
			return err
		}
		ws.mu.Lock()
		if state, ok = ws.lists[videoID]; !ok {
			state = core.NewListState(list)
			ws.lists[videoID] = state
		}
		ws.mu.Unlock()
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	state.SpeculateDelete(t)
	return nil
}

func (ws *Server) confirmList(videoID string, list []db.Bookmark) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if state, ok := ws.lists[videoID]; ok {
		state.Confirm(list)
		return
	}
	ws.lists[videoID] = core.NewListState(list)
}

func (ws *Server) lastConfirmed(videoID string) []db.Bookmark {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if state, ok := ws.lists[videoID]; ok {
		return state.Confirmed()
	}
	return []db.Bookmark{}
}

// parseTimestamp reads the "t" form value. It writes a 400 and returns false
// when the value is missing or not a finite, non-negative number.
func parseTimestamp(w http.ResponseWriter, r *http.Request) (float64, bool) {
	raw := r.FormValue("t")
	if raw == "" {
		http.Error(w, "Missing timestamp", http.StatusBadRequest)
		return 0, false
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) || t < 0 || t > core.MaxTimestamp {
		http.Error(w, "Invalid timestamp", http.StatusBadRequest)
		return 0, false
	}
	return t, true
}
