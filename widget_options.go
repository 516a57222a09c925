package campuspulse

import (
	"errors"
	"fmt"
	"time"
)

const (
	maxColumns        = 20
	minScrollInterval = 10 * time.Millisecond
)

// widgetConfig holds mutable state during widget construction.
type widgetConfig struct {
	kind     Kind
	title    string
	headers  map[string]string
	timeout  time.Duration
	interval time.Duration
	selector PayloadSelector

	topN int

	columns        int
	scrollStep     int
	scrollPreRoll  int
	scrollInterval time.Duration
}

// WidgetOption is a function that configures a [Widget] during construction.
//
// WidgetOption implements the functional options pattern for
// [NewProjectsWidget] and [NewGalleryWidget]. Options return an error if
// validation fails or if they do not apply to the widget's [Kind].
type WidgetOption func(*widgetConfig) error

// WithHeaders adds custom HTTP headers to poll requests for this widget.
//
// Use this for backends that require authentication. Accepts variadic
// key-value pairs. The number of arguments must be even.
//
// Example:
//
//	w, err := campuspulse.NewGalleryWidget("Users", url,
//	    campuspulse.WithHeaders("Authorization", "Bearer token123"),
//	)
func WithHeaders(keyValues ...string) WidgetOption {
	return func(cfg *widgetConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the HTTP request timeout for this widget.
//
// A request that does not complete in time counts as a failed poll; the
// widget keeps showing its previous data. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) WidgetOption {
	return func(cfg *widgetConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithInterval sets the time between polls.
//
// The interval must be at least 1 second and at most 1 hour. A tick that
// fires while the previous request is still outstanding is skipped.
func WithInterval(d time.Duration) WidgetOption {
	return func(cfg *widgetConfig) error {
		if d < time.Second {
			return errors.New("interval must be at least 1 second")
		}
		if d > time.Hour {
			return errors.New("interval must not exceed 1 hour")
		}
		cfg.interval = d
		return nil
	}
}

// WithWidgetTitle sets the heading shown above the widget.
func WithWidgetTitle(title string) WidgetOption {
	return func(cfg *widgetConfig) error {
		cfg.title = title
		return nil
	}
}

// WithPayloadSelector sets a [PayloadSelector] applied to every response
// body before it is parsed.
//
// Example:
//
//	w, err := campuspulse.NewProjectsWidget("Projects", url,
//	    campuspulse.WithPayloadSelector(campuspulse.JSONPathSelector("data.projects")),
//	)
func WithPayloadSelector(sel PayloadSelector) WidgetOption {
	return func(cfg *widgetConfig) error {
		cfg.selector = sel
		return nil
	}
}

// WithTopN sets how many projects are kept after ranking. Defaults to 10.
//
// Returns an error if n is outside 1-50 or the widget is not a projects
// widget.
func WithTopN(n int) WidgetOption {
	return func(cfg *widgetConfig) error {
		if cfg.kind != KindProjects {
			return fmt.Errorf("top-n applies to %s widgets only", KindProjects)
		}
		if n < 1 || n > maxTopN {
			return fmt.Errorf("top-n must be between 1 and %d, got %d", maxTopN, n)
		}
		cfg.topN = n
		return nil
	}
}

// WithColumns sets the number of users per gallery row. Defaults to 5.
//
// Returns an error if n is outside 1-20 or the widget is not a gallery
// widget.
func WithColumns(n int) WidgetOption {
	return func(cfg *widgetConfig) error {
		if cfg.kind != KindGallery {
			return fmt.Errorf("columns apply to %s widgets only", KindGallery)
		}
		if n < 1 || n > maxColumns {
			return fmt.Errorf("columns must be between 1 and %d, got %d", maxColumns, n)
		}
		cfg.columns = n
		return nil
	}
}

// WithScroll configures the gallery auto-scroll: pixels advanced per tick,
// the offset assigned after wrapping to the top (zero or negative; a negative
// value holds the list at the top for a while), and the tick interval.
//
// Defaults to step 1, pre-roll -100 and 100ms.
//
// Example:
//
//	w, err := campuspulse.NewGalleryWidget("Users", url,
//	    campuspulse.WithScroll(2, -50, 50*time.Millisecond),
//	)
func WithScroll(step, preRoll int, interval time.Duration) WidgetOption {
	return func(cfg *widgetConfig) error {
		if cfg.kind != KindGallery {
			return fmt.Errorf("scroll applies to %s widgets only", KindGallery)
		}
		if step <= 0 {
			return errors.New("scroll step must be positive")
		}
		if preRoll > 0 {
			return errors.New("scroll pre-roll cannot be positive")
		}
		if interval < minScrollInterval {
			return fmt.Errorf("scroll interval must be at least %s", minScrollInterval)
		}
		cfg.scrollStep = step
		cfg.scrollPreRoll = preRoll
		cfg.scrollInterval = interval
		return nil
	}
}
