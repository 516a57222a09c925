package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/campuspulse"
	"github.com/jpalmerr/campuspulse/example/mockcampus"
)

const mockAddr = "localhost:9999"

func main() {
	// start the mock campus API (see mockcampus)
	ln, err := net.Listen("tcp", mockAddr)
	if err != nil {
		slog.Error("failed to start mock campus API", "error", err)
		os.Exit(1)
	}
	mock := &http.Server{
		Handler:           mockcampus.NewHandler(uint64(time.Now().UnixNano()), slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := mock.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mock campus API error", "error", err)
		}
	}()
	defer mock.Close()

	base := "http://" + mockAddr

	projects, err := campuspulse.NewProjectsWidget("Projects", base+"/on-campus/active-user-projects",
		campuspulse.WithWidgetTitle("Most active projects"),
		campuspulse.WithInterval(10*time.Second),
	)
	if err != nil {
		slog.Error("failed to create projects widget", "error", err)
		os.Exit(1)
	}

	// grid API: one gallery per campus from one declaration
	galleries, err := campuspulse.NewWidgetGrid(campuspulse.KindGallery, "Users",
		campuspulse.WithURLTemplate(base+"/campus/{{.campus}}/on-campus/active-users"),
		campuspulse.WithDimensions(map[string][]string{
			"campus": mockcampus.Campuses[1:],
		}),
		campuspulse.WithTitleTemplate("On campus in {{.campus}}"),
		campuspulse.WithGridInterval(30*time.Second),
		campuspulse.WithGridWidgetOptions(campuspulse.WithColumns(6)),
	)
	if err != nil {
		slog.Error("failed to create gallery grid", "error", err)
		os.Exit(1)
	}

	d, err := campuspulse.New(
		campuspulse.WithTitle("CampusPulse Demo"),
		campuspulse.WithWidget(projects),
		campuspulse.WithWidgets(galleries...),
		campuspulse.WithPort(8080),
		campuspulse.WithProjectsCallback(func(u campuspulse.ProjectsUpdate) {
			if len(u.Projects) > 0 {
				top := u.Projects[0]
				slog.Info("top project", "project", top.Project, "share", top.Percentage)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create dashboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  CampusPulse Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println()
	fmt.Println("  Widgets:")
	fmt.Println("    - Projects pie chart (10s interval)")
	fmt.Printf("    - %d galleries via Grid (one per campus, 30s interval)\n", len(galleries))
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Start(ctx); err != nil {
		slog.Error("campuspulse error", "error", err)
		os.Exit(1)
	}
}
