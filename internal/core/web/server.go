package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/seckatie/marktube/internal/core"
	"github.com/seckatie/marktube/internal/core/db"
	"github.com/seckatie/marktube/internal/core/overlay"
)

//go:embed templates/*.html static/*.css
var templatesFS embed.FS

// Dispatcher delivers overlay commands to the controller of a tab.
type Dispatcher interface {
	Request(ctx context.Context, tabID string, cmd overlay.Command) ([]db.Bookmark, error)
}

// Options tunes the manager.
type Options struct {
	// CommandTimeout bounds the wait for a tab controller's reply.
	CommandTimeout time.Duration
	// ExportTTL is how long a generated export stays downloadable.
	ExportTTL time.Duration
	Logger    *log.Logger
}

type Server struct {
	db             *db.DB
	tabs           core.ActiveTabResolver
	dispatcher     Dispatcher
	templates      *template.Template
	staticFS       http.FileSystem
	logger         *log.Logger
	commandTimeout time.Duration
	exports        *exportStash
	now            func() time.Time

	mu    sync.Mutex
	lists map[string]*core.ListState
}

// StartServer serves the manager on addr until ctx is cancelled.
func StartServer(ctx context.Context, addr string, database *db.DB, tabs core.ActiveTabResolver, dispatcher Dispatcher, opts Options) error {
	ws, err := newServer(database, tabs, dispatcher, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize web server: %w", err)
	}

	mux := http.NewServeMux()
	ws.registerRoutes(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			ws.logger.Warn("web server shutdown", "err", err)
		}
	}()

	ws.logger.Info("starting web server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

func newServer(database *db.DB, tabs core.ActiveTabResolver, dispatcher Dispatcher, opts Options) (*Server, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	staticSub, err := fs.Sub(templatesFS, "static")
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = core.DefaultCommandTimeout
	}
	ttl := opts.ExportTTL
	if ttl <= 0 {
		ttl = core.DefaultExportTTL
	}

	return &Server{
		db:             database,
		tabs:           tabs,
		dispatcher:     dispatcher,
		templates:      templates,
		staticFS:       http.FS(staticSub),
		logger:         logger,
		commandTimeout: timeout,
		exports:        newExportStash(ttl),
		now:            time.Now,
		lists:          make(map[string]*core.ListState),
	}, nil
}

func (ws *Server) registerRoutes(mux *http.ServeMux) {
	ws.registerStaticRoutes(mux)

	mux.HandleFunc("/", ws.handleIndex)
	mux.HandleFunc("/bookmarks", ws.handleBookmarks)
	mux.HandleFunc("/bookmarks/play", ws.handlePlay)
	mux.HandleFunc("/bookmarks/delete", ws.handleDelete)
	mux.HandleFunc("/export", ws.handleExport)
	mux.HandleFunc("/export/", ws.handleExportDownload) // Handles /export/{id}
}

func (ws *Server) registerStaticRoutes(mux *http.ServeMux) {
	// Serve embedded static assets (CSS, etc)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(ws.staticFS)))
}
