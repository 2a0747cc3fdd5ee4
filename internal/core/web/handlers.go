package web

import (
	"context"
	"net/http"

	"github.com/seckatie/marktube/internal/core"
)

// renderTemplate renders a template with the standard HTML content-type header.
// If template execution fails, it logs the error and returns a 500 response.
func (ws *Server) renderTemplate(w http.ResponseWriter, templateName string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ws.templates.ExecuteTemplate(w, templateName, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		ws.logger.Error("failed to execute template", "template", templateName, "err", err)
	}
}

// renderMessage renders a short user-facing notice fragment.
func (ws *Server) renderMessage(w http.ResponseWriter, msg string, isError bool) {
	ws.renderTemplate(w, "message.html", messageView{Text: msg, Error: isError})
}

// requireMethod checks if the request method matches the expected method.
// Returns true if the method matches, false otherwise (and sends 405 response).
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// videoTab resolves the active tab and its video identifier.
// ok is false when the tab is not a video page or cannot be determined.
func (ws *Server) videoTab(ctx context.Context) (tab core.Tab, videoID string, ok bool) {
	tab, err := ws.tabs.ActiveTab(ctx)
	if err != nil {
		ws.logger.Debug("no active tab", "err", err)
		return core.Tab{}, "", false
	}
	videoID, ok = tab.VideoID()
	return tab, videoID, ok
}

// commandContext bounds a round trip to a tab controller.
func (ws *Server) commandContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), ws.commandTimeout)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
