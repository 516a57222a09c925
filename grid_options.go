package campuspulse

import (
	"errors"
	"fmt"
	"time"
)

type gridConfig struct {
	urlTemplate   string
	titleTemplate string
	dimensions    map[string][]string
	headers       map[string]string
	timeout       time.Duration
	interval      time.Duration
	widgetOpts    []WidgetOption
}

// GridOption configures [NewWidgetGrid].
type GridOption func(*gridConfig) error

// WithURLTemplate sets the text/template rendered once per combination to
// produce each widget's URL. Dimension keys are the template variables:
//
//	WithURLTemplate("https://api.example.com/campus/{{.campus}}/active-users")
func WithURLTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if tmpl == "" {
			return errors.New("URL template required")
		}
		cfg.urlTemplate = tmpl
		return nil
	}
}

// WithTitleTemplate sets a text/template for each widget's heading, e.g.
// "Active in {{.campus}}". Unlike the URL template it sees raw values.
func WithTitleTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		cfg.titleTemplate = tmpl
		return nil
	}
}

// WithDimensions sets the values to expand. Every dimension needs at least
// one non-empty value.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for _, key := range sortedKeys(dims) {
			values := dims[key]
			if len(values) == 0 {
				return fmt.Errorf("dimension %q has no values", key)
			}
			for i, v := range values {
				if v == "" {
					return fmt.Errorf("dimension %q: value %d is empty", key, i)
				}
			}
		}
		cfg.dimensions = dims
		return nil
	}
}

// WithGridHeaders sets request headers, as key/value pairs, on every
// generated widget.
func WithGridHeaders(keyValues ...string) GridOption {
	return func(cfg *gridConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithGridHeaders requires an even number of arguments (key-value pairs)")
		}
		if cfg.headers == nil {
			cfg.headers = make(map[string]string, len(keyValues)/2)
		}
		for i := 0; i+1 < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithGridTimeout sets the request timeout of every generated widget.
// Zero keeps the widget default.
func WithGridTimeout(d time.Duration) GridOption {
	return func(cfg *gridConfig) error {
		if d != 0 {
			if err := WithTimeout(d)(&widgetConfig{}); err != nil {
				return err
			}
		}
		cfg.timeout = d
		return nil
	}
}

// WithGridInterval sets the polling interval of every generated widget,
// within the same bounds as [WithInterval]. Zero keeps the kind default.
func WithGridInterval(d time.Duration) GridOption {
	return func(cfg *gridConfig) error {
		if d != 0 {
			if err := WithInterval(d)(&widgetConfig{}); err != nil {
				return err
			}
		}
		cfg.interval = d
		return nil
	}
}

// WithGridWidgetOptions appends widget options, such as [WithTopN] or
// [WithColumns], applied to every generated widget after the grid's own.
func WithGridWidgetOptions(opts ...WidgetOption) GridOption {
	return func(cfg *gridConfig) error {
		cfg.widgetOpts = append(cfg.widgetOpts, opts...)
		return nil
	}
}
