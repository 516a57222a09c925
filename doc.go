// Package campuspulse provides an embeddable, real-time campus activity
// dashboard.
//
// A dashboard is a set of widgets, each bound to a backend endpoint polled on
// a fixed interval. Projects widgets rank the projects users are working on
// and render them as an SVG pie chart with a legend. Gallery widgets show the
// users currently on campus in a grid that scrolls on its own, looping back
// to the top once half of the content has passed. Updates reach the browser
// over Server-Sent Events.
//
// # Quick Start
//
//	projects, _ := campuspulse.NewProjectsWidget("Projects",
//	    "http://localhost:3000/on-campus/active-user-projects")
//	users, _ := campuspulse.NewGalleryWidget("Users",
//	    "http://localhost:3000/on-campus/active-users")
//
//	d, _ := campuspulse.New(campuspulse.WithWidgets(projects, users))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	d.Start(ctx) // blocks until context is cancelled
//
// # Ranking
//
// [RankProjects] is the pure aggregation behind projects widgets: it sorts a
// [RawCount] by user count, keeps the top ten, and attaches percentages
// relative to the kept entries.
//
//	campuspulse.RankProjects(campuspulse.RawCount{"ft_container": 3, "NetPractice": 1})
//	// [{ft_container 3 75.00%} {NetPractice 1 25.00%}]
//
// # Configuration
//
// Dashboards and widgets use the functional options pattern:
//
//	users, err := campuspulse.NewGalleryWidget("Users", url,
//	    campuspulse.WithHeaders("Authorization", "Bearer token"),
//	    campuspulse.WithInterval(2*time.Minute),
//	    campuspulse.WithColumns(6),
//	    campuspulse.WithScroll(1, -100, 100*time.Millisecond),
//	)
//
// [NewWidgetGrid] expands a URL template over dimension values, e.g. one
// gallery per campus.
//
// # Failure Handling
//
// A failed poll (transport error, non-2xx status, malformed payload) is
// logged once and the widget keeps its previous data. Before the first
// successful poll a widget renders a placeholder.
//
// # Architecture
//
//   - internal/poller: owned, cancelable poll loops with stale-result rejection
//   - internal/scroll: gallery auto-scroll state machine
//   - internal/render: SVG and HTML rendering
//   - internal/store: in-memory snapshots with pub/sub for real-time updates
//   - internal/server: HTTP routes, rendered fragments and Server-Sent Events
//   - dashboard: embedded web UI assets
package campuspulse
