// Package dashboard provides the embedded web UI for CampusPulse.
//
// The page lists the configured widgets, loads each rendered chart or
// gallery fragment, reloads a widget whenever the server streams an update
// for it, and applies gallery scroll events.
package dashboard

import "embed"

// Assets holds assets/index.html. The page contains a {{.Title}} marker
// that the server replaces with the escaped dashboard title.
//
//go:embed assets/*
var Assets embed.FS
