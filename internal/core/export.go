package core

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/seckatie/marktube/internal/core/db"
)

//go:embed templates/export.html
var exportFS embed.FS

var exportTmpl = template.Must(template.ParseFS(exportFS, "templates/export.html"))

// ErrNoBookmarks is returned when an export is requested for an empty list.
var ErrNoBookmarks = errors.New("no bookmarks to export")

// ExportDocument is everything that goes into an exported bookmark sheet.
type ExportDocument struct {
	VideoTitle  string
	VideoURL    string
	Bookmarks   []db.Bookmark
	GeneratedAt time.Time
}

type exportEntry struct {
	Desc      string
	Timestamp string
	Link      string
}

// RenderExport builds a self-contained HTML document listing the bookmarks
// in chronological order. An empty list is refused with ErrNoBookmarks.
func RenderExport(doc ExportDocument) ([]byte, error) {
	if len(doc.Bookmarks) == 0 {
		return nil, ErrNoBookmarks
	}
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now()
	}

	sorted := make([]db.Bookmark, len(doc.Bookmarks))
	copy(sorted, doc.Bookmarks)
	db.SortBookmarks(sorted)

	entries := make([]exportEntry, 0, len(sorted))
	for _, b := range sorted {
		entries = append(entries, exportEntry{
			Desc:      b.Desc,
			Timestamp: FormatTime(b.Time),
			Link:      TimestampURL(doc.VideoURL, b.Time),
		})
	}

	var buf bytes.Buffer
	err := exportTmpl.Execute(&buf, map[string]any{
		"Title":       doc.VideoTitle,
		"URL":         doc.VideoURL,
		"Entries":     entries,
		"GeneratedOn": doc.GeneratedAt.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	filenameStrip = regexp.MustCompile(`[^\w\s-]`)
	filenameSpace = regexp.MustCompile(`\s+`)
)

// ExportBasename derives a filesystem-safe name from a video title:
// punctuation other than '-' and '_' is dropped, whitespace runs become '-'.
func ExportBasename(title string) string {
	name := filenameStrip.ReplaceAllString(title, "")
	name = strings.TrimSpace(name)
	name = filenameSpace.ReplaceAllString(name, "-")
	if name == "" {
		name = "video"
	}
	return name + "_bookmarks"
}

// ExportFilename is ExportBasename plus the export extension.
func ExportFilename(title string) string {
	return ExportBasename(title) + ExportFileExt
}
