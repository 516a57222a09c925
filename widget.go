package campuspulse

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/campuspulse/internal/render"
	"github.com/jpalmerr/campuspulse/internal/scroll"
)

const (
	defaultWidgetTimeout    = 10 * time.Second
	defaultProjectsInterval = 60 * time.Second
	defaultUsersInterval    = 5 * time.Minute
)

// Kind is the type of a [Widget].
type Kind string

const (
	// KindProjects polls project counts and shows a ranked pie chart.
	KindProjects Kind = "projects"

	// KindGallery polls the active users and shows an auto-scrolling gallery.
	KindGallery Kind = "gallery"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Widget is one dashboard panel bound to a backend endpoint.
//
// Widget is immutable after creation via [NewProjectsWidget] or
// [NewGalleryWidget]. All fields are private with getter methods that return
// copies of mutable data (maps).
type Widget struct {
	name     string
	kind     Kind
	url      string
	title    string
	headers  map[string]string
	timeout  time.Duration
	interval time.Duration
	selector PayloadSelector

	// projects
	topN int

	// gallery
	columns        int
	scrollStep     int
	scrollPreRoll  int
	scrollInterval time.Duration
}

// Name returns the widget's unique name. It identifies the widget in the
// dashboard, the API and logs.
func (w Widget) Name() string {
	return w.name
}

// Kind returns whether this is a projects or a gallery widget.
func (w Widget) Kind() Kind {
	return w.kind
}

// URL returns the endpoint polled by this widget.
func (w Widget) URL() string {
	return w.url
}

// Title returns the heading shown above the widget, or "" for the default.
func (w Widget) Title() string {
	return w.title
}

// Headers returns a copy of the custom HTTP headers sent with every poll.
// Returns nil if no custom headers are set.
func (w Widget) Headers() map[string]string {
	return copyMap(w.headers)
}

// Timeout returns the HTTP request timeout. Defaults to 10 seconds.
func (w Widget) Timeout() time.Duration {
	return w.timeout
}

// Interval returns the time between polls. Defaults to 60 seconds for
// projects widgets and 5 minutes for gallery widgets.
func (w Widget) Interval() time.Duration {
	return w.interval
}

// PayloadSelector returns the selector applied to response bodies, or nil.
func (w Widget) PayloadSelector() PayloadSelector {
	return w.selector
}

// TopN returns how many projects are ranked. Zero for gallery widgets.
func (w Widget) TopN() int {
	return w.topN
}

// Columns returns the number of users per gallery row. Zero for projects
// widgets.
func (w Widget) Columns() int {
	return w.columns
}

// Scroll returns the gallery scroll step, pre-roll offset and tick interval.
// All zero for projects widgets.
func (w Widget) Scroll() (step, preRoll int, interval time.Duration) {
	return w.scrollStep, w.scrollPreRoll, w.scrollInterval
}

// NewProjectsWidget creates a [KindProjects] widget polling rawURL for a
// JSON object of project name to user count.
//
// Returns an error if the name is empty, the URL is invalid, or an option
// does not apply to projects widgets.
//
// Example:
//
//	w, err := campuspulse.NewProjectsWidget("Projects",
//	    "http://localhost:3000/on-campus/active-user-projects",
//	    campuspulse.WithTopN(5),
//	)
func NewProjectsWidget(name, rawURL string, opts ...WidgetOption) (Widget, error) {
	return newWidget(KindProjects, name, rawURL, opts)
}

// NewGalleryWidget creates a [KindGallery] widget polling rawURL for a JSON
// array of active users.
//
// Example:
//
//	w, err := campuspulse.NewGalleryWidget("Users",
//	    "http://localhost:3000/on-campus/active-users",
//	    campuspulse.WithColumns(6),
//	)
func NewGalleryWidget(name, rawURL string, opts ...WidgetOption) (Widget, error) {
	return newWidget(KindGallery, name, rawURL, opts)
}

func newWidget(kind Kind, name, rawURL string, opts []WidgetOption) (Widget, error) {
	if strings.TrimSpace(name) == "" {
		return Widget{}, errors.New("widget name cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Widget{}, errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme == "" {
		return Widget{}, errors.New("URL must have a scheme (http:// or https://)")
	}

	cfg := &widgetConfig{
		kind:    kind,
		headers: make(map[string]string),
		timeout: defaultWidgetTimeout,
	}
	switch kind {
	case KindProjects:
		cfg.interval = defaultProjectsInterval
		cfg.topN = DefaultTopN
	case KindGallery:
		cfg.interval = defaultUsersInterval
		cfg.columns = render.DefaultGalleryColumns
		cfg.scrollStep = scroll.DefaultStep
		cfg.scrollPreRoll = scroll.DefaultPreRoll
		cfg.scrollInterval = scroll.DefaultInterval
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Widget{}, err
		}
	}

	return Widget{
		name:           name,
		kind:           kind,
		url:            rawURL,
		title:          cfg.title,
		headers:        cfg.headers,
		timeout:        cfg.timeout,
		interval:       cfg.interval,
		selector:       cfg.selector,
		topN:           cfg.topN,
		columns:        cfg.columns,
		scrollStep:     cfg.scrollStep,
		scrollPreRoll:  cfg.scrollPreRoll,
		scrollInterval: cfg.scrollInterval,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
