package campuspulse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/campuspulse/dashboard"
	"github.com/jpalmerr/campuspulse/internal/poller"
	"github.com/jpalmerr/campuspulse/internal/render"
	"github.com/jpalmerr/campuspulse/internal/scroll"
	"github.com/jpalmerr/campuspulse/internal/server"
	"github.com/jpalmerr/campuspulse/internal/store"
)

const defaultPort = 8080

// Dashboard is the main orchestrator for widget polling and dashboard serving.
//
// Dashboard polls each widget's endpoint, ranks or collects the results,
// drives the gallery auto-scroll, and serves the rendered widgets via HTTP.
// It is created using [New] with functional options and started with
// [Dashboard.Start].
//
// The typical lifecycle is:
//
//	d, err := campuspulse.New(campuspulse.WithWidgets(projects, users))
//	if err != nil {
//	    slog.Error("failed to create dashboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	d.Start(ctx) // blocks until context cancelled
type Dashboard struct {
	title             string
	widgets           []Widget
	port              int
	chartWidth        int
	logger            *slog.Logger
	projectsCallbacks []func(ProjectsUpdate)
	usersCallbacks    []func(UsersUpdate)
}

// New creates a new [Dashboard] with the given options.
//
// At least one widget must be configured via [WithWidget] or [WithWidgets],
// and widget names must be unique. Other options have sensible defaults:
//   - Port: 8080
//   - Chart width: 480
//   - Logger: [slog.Default]
func New(opts ...Option) (*Dashboard, error) {
	cfg := &dashboardConfig{
		port:       defaultPort,
		chartWidth: render.DefaultChartWidth,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.widgets) == 0 {
		return nil, errors.New("at least one widget is required")
	}

	// names key the store, the API routes and the SSE events
	seen := make(map[string]bool, len(cfg.widgets))
	for _, w := range cfg.widgets {
		if w.name == "" {
			return nil, errors.New("widget is not initialised; use NewProjectsWidget or NewGalleryWidget")
		}
		if seen[w.name] {
			return nil, fmt.Errorf("duplicate widget name: %q", w.name)
		}
		seen[w.name] = true
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dashboard{
		title:             cfg.title,
		widgets:           cfg.widgets,
		port:              cfg.port,
		chartWidth:        cfg.chartWidth,
		logger:            logger,
		projectsCallbacks: cfg.projectsCallbacks,
		usersCallbacks:    cfg.usersCallbacks,
	}, nil
}

// Widgets returns a copy of the configured widgets in display order.
func (d *Dashboard) Widgets() []Widget {
	return slices.Clone(d.widgets)
}

// Port returns the configured HTTP port for the dashboard server.
func (d *Dashboard) Port() int {
	return d.port
}

// Title returns the configured dashboard title, or "" for the default.
func (d *Dashboard) Title() string {
	return d.title
}

// widgetRuntime is the live state of one widget during [Dashboard.Start].
type widgetRuntime struct {
	widget   Widget
	poller   *poller.Poller
	scroller *scroll.Scroller
}

// Start begins polling widgets and serving the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled:
//
//   - Every widget is polled immediately, then at its interval
//   - Gallery widgets scroll on their own timer
//   - The HTTP server serves the dashboard at http://localhost:<port>
//
// On cancellation every poll loop, scroll loop and the HTTP server are stopped
// and waited for before Start returns. Results of requests still in flight at
// that point are discarded.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start or stops unexpectedly.
func (d *Dashboard) Start(ctx context.Context) error {
	d.logger.Info("campuspulse starting", "widget_count", len(d.widgets))
	d.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", d.port))

	if ctx.Err() != nil {
		return nil
	}

	st := store.NewMemoryStore()
	client := poller.NewClient()
	defer client.Close()

	runtimes := make([]*widgetRuntime, 0, len(d.widgets))
	srvWidgets := make([]server.Widget, 0, len(d.widgets))
	for _, w := range d.widgets {
		st.Register(w.name, string(w.kind))

		rt := &widgetRuntime{widget: w}
		var consume poller.Consumer
		switch w.kind {
		case KindProjects:
			consume = d.projectsConsumer(w, st)
		case KindGallery:
			step, preRoll, _ := w.Scroll()
			sc, err := scroll.New(step, preRoll)
			if err != nil {
				return fmt.Errorf("widget %q: %w", w.name, err)
			}
			rt.scroller = sc
			consume = d.usersConsumer(w, st, sc)
		default:
			return fmt.Errorf("widget %q: unknown kind %q", w.name, w.kind)
		}

		p, err := poller.New(poller.Job{
			Name:     w.name,
			URL:      w.url,
			Headers:  copyMap(w.headers),
			Timeout:  w.timeout,
			Interval: w.interval,
		}, client, consume, d.logger)
		if err != nil {
			return fmt.Errorf("widget %q: %w", w.name, err)
		}
		rt.poller = p

		runtimes = append(runtimes, rt)
		srvWidgets = append(srvWidgets, server.Widget{
			Name:    w.name,
			Kind:    string(w.kind),
			Title:   w.title,
			Chart:   d.chartLayout(),
			Gallery: galleryLayout(w),
		})
	}

	srv := server.NewServer(st, server.Config{
		Port:    d.port,
		Title:   d.title,
		Assets:  dashboard.Assets,
		Widgets: srvWidgets,
	}, d.logger)

	ln, err := srv.Listen()
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, ln)
	})

	for _, rt := range runtimes {
		g.Go(func() error {
			h := rt.poller.Activate(gctx)
			<-gctx.Done()
			h.Stop()
			h.Wait()
			return nil
		})

		if rt.scroller != nil {
			_, _, interval := rt.widget.Scroll()
			name := rt.widget.name
			g.Go(func() error {
				h := rt.scroller.Start(gctx, interval, func(a scroll.Action) {
					st.PublishScroll(name, store.ScrollPosition{Top: a.Top, Instant: a.Instant})
				})
				<-gctx.Done()
				h.Stop()
				return nil
			})
		}
	}

	err = g.Wait()
	d.logger.Info("campuspulse stopped")
	return err
}

func (d *Dashboard) chartLayout() render.ChartLayout {
	return render.ChartLayout{Width: d.chartWidth}
}

func galleryLayout(w Widget) render.GalleryLayout {
	return render.GalleryLayout{Columns: w.columns, RowPitch: render.DefaultRowPitch}
}

// projectsConsumer parses, ranks and publishes a projects payload.
func (d *Dashboard) projectsConsumer(w Widget, st store.Store) poller.Consumer {
	return func(body []byte) error {
		payload, err := applySelector(w.selector, body)
		if err != nil {
			return err
		}
		raw, err := ParseRawCount(payload)
		if err != nil {
			return err
		}
		entries := RankTopProjects(raw, w.topN)

		stored := make([]store.ProjectEntry, len(entries))
		for i, e := range entries {
			stored[i] = store.ProjectEntry(e)
		}
		st.SetProjects(w.name, stored)

		if len(d.projectsCallbacks) > 0 {
			snap, _ := st.Get(w.name)
			for _, cb := range d.projectsCallbacks {
				invokeCallbackSafe(d.logger, w.name, func() {
					cb(ProjectsUpdate{
						Widget:    w.name,
						Projects:  slices.Clone(entries),
						UpdatedAt: snap.UpdatedAt,
					})
				})
			}
		}
		return nil
	}
}

// usersConsumer parses and publishes a users payload and restarts the
// gallery scroll for the new content height.
func (d *Dashboard) usersConsumer(w Widget, st store.Store, sc *scroll.Scroller) poller.Consumer {
	layout := galleryLayout(w)
	return func(body []byte) error {
		payload, err := applySelector(w.selector, body)
		if err != nil {
			return err
		}
		users, err := ParseActiveUsers(payload)
		if err != nil {
			return err
		}

		stored := make([]store.ActiveUser, len(users))
		for i, u := range users {
			stored[i] = store.ActiveUser(u)
		}
		st.SetUsers(w.name, stored)
		sc.SetContentHeight(render.GalleryContentHeight(len(users), layout))

		if len(d.usersCallbacks) > 0 {
			snap, _ := st.Get(w.name)
			for _, cb := range d.usersCallbacks {
				invokeCallbackSafe(d.logger, w.name, func() {
					cb(UsersUpdate{
						Widget:    w.name,
						Users:     slices.Clone(users),
						UpdatedAt: snap.UpdatedAt,
					})
				})
			}
		}
		return nil
	}
}

// invokeCallbackSafe calls an update callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe(logger *slog.Logger, widget string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update callback panicked",
				"correlation_id", uuid.NewString(),
				"widget", widget,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	call()
}
