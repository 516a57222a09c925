// Standalone mock campus API for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/campuspulse serve -c example/config.yaml
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jpalmerr/campuspulse/example/mockcampus"
)

func main() {
	fmt.Println("Mock campus API starting on :9999")
	fmt.Printf("Campuses: %v\n", mockcampus.Campuses)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	srv := &http.Server{
		Addr:              ":9999",
		Handler:           mockcampus.NewHandler(uint64(time.Now().UnixNano()), slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
