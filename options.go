package campuspulse

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jpalmerr/campuspulse/internal/render"
)

// dashboardConfig holds mutable state during Dashboard construction.
type dashboardConfig struct {
	title             string
	widgets           []Widget
	port              int
	chartWidth        int
	logger            *slog.Logger
	projectsCallbacks []func(ProjectsUpdate)
	usersCallbacks    []func(UsersUpdate)
}

// Option is a function that configures a [Dashboard] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*dashboardConfig) error

// WithWidget adds a single [Widget] to the dashboard.
//
// Can be called multiple times. At least one widget must be configured for
// [New] to succeed.
func WithWidget(w Widget) Option {
	return func(cfg *dashboardConfig) error {
		cfg.widgets = append(cfg.widgets, w)
		return nil
	}
}

// WithWidgets adds multiple [Widget] values to the dashboard, e.g. the
// output of [NewWidgetGrid].
func WithWidgets(widgets ...Widget) Option {
	return func(cfg *dashboardConfig) error {
		cfg.widgets = append(cfg.widgets, widgets...)
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *dashboardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and
// header. Defaults to "CampusPulse".
func WithTitle(title string) Option {
	return func(cfg *dashboardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithChartWidth sets the width in pixels of project pie charts. The height
// follows at 16:9. Defaults to 480.
//
// Returns an error if the width is below 160 or above 4096.
func WithChartWidth(px int) Option {
	return func(cfg *dashboardConfig) error {
		if px > 4096 {
			return fmt.Errorf("chart width must not exceed 4096, got %d", px)
		}
		if err := (render.ChartLayout{Width: px}).Validate(); err != nil {
			return err
		}
		cfg.chartWidth = px
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Dashboard.
//
// If not specified, [slog.Default] is used. Returns an error if the logger
// is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *dashboardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithProjectsCallback registers a function called after every successful
// poll of a projects widget, once the ranked list is visible to the
// dashboard.
//
// Callbacks run synchronously on the poll path and must not block. Panics
// are recovered and logged. Failed or stale polls do not trigger callbacks.
// Nil callbacks are silently ignored.
//
// Example:
//
//	d, err := campuspulse.New(
//	    campuspulse.WithWidget(projects),
//	    campuspulse.WithProjectsCallback(func(u campuspulse.ProjectsUpdate) {
//	        if len(u.Projects) > 0 {
//	            log.Printf("%s leads with %s", u.Projects[0].Project, u.Projects[0].Percentage)
//	        }
//	    }),
//	)
func WithProjectsCallback(cb func(ProjectsUpdate)) Option {
	return func(cfg *dashboardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.projectsCallbacks = append(cfg.projectsCallbacks, cb)
		return nil
	}
}

// WithUsersCallback registers a function called after every successful poll
// of a gallery widget. The same rules as [WithProjectsCallback] apply.
func WithUsersCallback(cb func(UsersUpdate)) Option {
	return func(cfg *dashboardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.usersCallbacks = append(cfg.usersCallbacks, cb)
		return nil
	}
}
