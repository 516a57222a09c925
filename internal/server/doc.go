// Package server provides the HTTP server for the dashboard, its JSON API and
// the server-rendered widget fragments.
//
// Routes (chi router, request IDs and panic recovery on every request):
//
//   - GET /                            embedded dashboard page, title substituted
//   - GET /healthz                     liveness
//   - GET /api/widgets                 configured widgets in display order
//   - GET /api/widgets/{name}          latest snapshot of one widget
//   - GET /api/sse                     snapshot and scroll events as Server-Sent Events
//   - GET /widgets/{name}/chart.svg    pie chart of a projects widget
//   - GET /widgets/{name}/gallery.html user gallery of a gallery widget
//
// Fragments fall back to placeholders until the widget's first successful
// poll. The server shuts down gracefully when the context given to
// [Server.Serve] is cancelled, with a 5-second timeout for in-flight requests.
package server
