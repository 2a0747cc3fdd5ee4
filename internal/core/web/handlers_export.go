package web

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/seckatie/marktube/internal/core"
)

func (ws *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	tab, videoID, isVideo := ws.videoTab(r.Context())
	if !isVideo {
		ws.renderMessage(w, core.MsgNotVideoPage, true)
		return
	}

	list, err := ws.db.LoadBookmarks(videoID)
	if err != nil {
		ws.logger.Error("failed to load bookmarks for export", "video", videoID, "err", err)
		ws.renderMessage(w, core.MsgExportFailed, true)
		return
	}
	if len(list) == 0 {
		ws.renderMessage(w, core.MsgNothingToExport, true)
		return
	}

	title := videoTitle(tab, list)
	body, err := core.RenderExport(core.ExportDocument{
		VideoTitle:  title,
		VideoURL:    tab.URL,
		Bookmarks:   list,
		GeneratedAt: ws.now(),
	})
	if err != nil {
		ws.logger.Error("failed to render export", "video", videoID, "err", err)
		ws.renderMessage(w, core.MsgExportFailed, true)
		return
	}
	filename := core.ExportFilename(title)

	if !isHTMX(r) {
		writeAttachment(w, filename, body)
		return
	}

	id := ws.exports.put(filename, body)
	ws.logger.Info("export ready", "video", videoID, "file", filename, "bookmarks", len(list))
	w.Header().Set("HX-Redirect", "/export/"+id)
	ws.renderMessage(w, "Exported "+filename, false)
}

func (ws *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/export/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	f, ok := ws.exports.take(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeAttachment(w, f.name, f.body)
}

func writeAttachment(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}
