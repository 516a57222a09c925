package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jpalmerr/campuspulse/internal/render"
	"github.com/jpalmerr/campuspulse/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdownTimeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "CampusPulse"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Widget describes how one widget is presented.
type Widget struct {
	Name    string               `json:"name"`
	Kind    string               `json:"kind"`
	Title   string               `json:"title,omitempty"`
	Chart   render.ChartLayout   `json:"-"`
	Gallery render.GalleryLayout `json:"-"`
}

// Config holds the settings of a [Server].
type Config struct {
	// Port is the TCP port to listen on.
	Port int
	// Title is the dashboard title; defaults to "CampusPulse".
	Title string
	// Assets holds assets/index.html. May be nil, in which case "/" is not served.
	Assets fs.FS
	// Widgets lists the widgets in display order.
	Widgets []Widget
}

// Server handles HTTP requests for the dashboard, its API and the rendered
// widget fragments.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store   store.Store
	cfg     Config
	widgets map[string]Widget
	logger  *slog.Logger
	router  chi.Router
}

// NewServer creates a new HTTP [Server]. The server is not started until
// [Server.Serve] is called.
func NewServer(st store.Store, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}

	s := &Server{
		store:   st,
		cfg:     cfg,
		widgets: make(map[string]Widget, len(cfg.Widgets)),
		logger:  logger,
	}
	for _, w := range cfg.Widgets {
		s.widgets[w.Name] = w
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/widgets", s.handleWidgets)
		r.Get("/widgets/{name}", s.handleWidget)
		r.Get("/sse", s.handleSSE)
	})

	r.Get("/widgets/{name}/chart.svg", s.handleChart)
	r.Get("/widgets/{name}/gallery.html", s.handleGallery)

	if s.cfg.Assets != nil {
		r.Get("/", s.handleDashboard)
	}
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the configured port. Binding synchronously lets the caller
// report an unavailable port before anything else starts.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}
	return ln, nil
}

// Serve serves HTTP requests on ln until ctx is cancelled, then shuts down
// gracefully with a 5-second timeout. It blocks until shutdown completes.
//
// Returns nil after a graceful shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers return on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("http server error", "error", err)
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", "error", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}
	<-serveErr
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	content, err := fs.ReadFile(s.cfg.Assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// title is user input; escape before substitution
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(s.cfg.Title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleWidgets lists the configured widgets in display order.
func (s *Server) handleWidgets(w http.ResponseWriter, _ *http.Request) {
	widgets := s.cfg.Widgets
	if widgets == nil {
		widgets = []Widget{}
	}
	s.writeJSON(w, widgets)
}

// handleWidget returns the latest snapshot of one widget.
func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.lookup(w, r)
	if !ok {
		return
	}
	snap, ok := s.store.Get(widget.Name)
	if !ok {
		snap = store.Snapshot{Name: widget.Name, Kind: widget.Kind}
	}
	s.writeJSON(w, snap)
}

// handleChart renders a projects widget as SVG, or its placeholder before the
// first successful poll.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if widget.Kind != store.KindProjects {
		http.NotFound(w, r)
		return
	}

	var (
		body []byte
		err  error
	)
	if snap, found := s.store.Get(widget.Name); found && snap.Loaded {
		body, err = render.PieChart(snap.Projects, widget.Chart)
	} else {
		body, err = render.PieChartPlaceholder(widget.Chart)
	}
	s.writeRendered(w, r, "image/svg+xml", body, err)
}

// handleGallery renders a gallery widget as an HTML fragment, or its
// placeholder before the first successful poll.
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if widget.Kind != store.KindGallery {
		http.NotFound(w, r)
		return
	}

	var (
		body []byte
		err  error
	)
	if snap, found := s.store.Get(widget.Name); found && snap.Loaded {
		body, err = render.Gallery(widget.Name, widget.Title, snap.Users, widget.Gallery)
	} else {
		body, err = render.GalleryPlaceholder(widget.Name, widget.Title, widget.Gallery)
	}
	s.writeRendered(w, r, "text/html; charset=utf-8", body, err)
}

// lookup resolves the {name} URL parameter, writing a 404 if it is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (Widget, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, "invalid widget name", http.StatusBadRequest)
		return Widget{}, false
	}
	widget, ok := s.widgets[name]
	if !ok {
		http.NotFound(w, r)
		return Widget{}, false
	}
	return widget, true
}

func (s *Server) writeRendered(w http.ResponseWriter, r *http.Request, contentType string, body []byte, err error) {
	if err != nil {
		s.logger.Error("render failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(body); err != nil {
		s.logger.Error("failed to write response", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams widget updates via Server-Sent Events.
//
// Every connection first receives the current snapshot of each widget, then
// live snapshot and scroll events. Writes use deadlines so a slow or
// disconnected client cannot block the handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// write deadlines may not be supported by some ResponseWriter impls
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for _, snap := range s.store.GetAll() {
		data, err := json.Marshal(snapshotEvent(snap))
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}

// snapshotEvent wraps a stored snapshot in the event a live update for it
// would carry.
func snapshotEvent(snap store.Snapshot) store.Event {
	kind := store.EventProjects
	if snap.Kind == store.KindGallery {
		kind = store.EventUsers
	}
	return store.Event{Kind: kind, Widget: snap.Name, Snapshot: &snap}
}
