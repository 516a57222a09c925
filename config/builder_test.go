package config

import (
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/campuspulse"
)

func TestBuildWidgets_SingleWidget(t *testing.T) {
	cfg := &Config{
		Widgets: []WidgetConfig{
			{
				Kind: KindProjects,
				Name: "Projects",
				URL:  "http://localhost:3000/on-campus/active-user-projects",
			},
		},
	}

	widgets, err := BuildWidgets(cfg)
	if err != nil {
		t.Fatalf("BuildWidgets() error = %v", err)
	}
	if len(widgets) != 1 {
		t.Fatalf("len(widgets) = %d, want 1", len(widgets))
	}

	w := widgets[0]
	if w.Name() != "Projects" || w.Kind() != campuspulse.KindProjects {
		t.Errorf("widget = %s/%s", w.Name(), w.Kind())
	}
	if w.URL() != "http://localhost:3000/on-campus/active-user-projects" {
		t.Errorf("URL() = %q", w.URL())
	}
	if w.TopN() != campuspulse.DefaultTopN {
		t.Errorf("TopN() = %d, want default", w.TopN())
	}
}

func TestBuildWidgets_AllOptions(t *testing.T) {
	preRoll := -40
	cfg := &Config{
		Widgets: []WidgetConfig{
			{
				Kind:     KindProjects,
				Name:     "Projects",
				Title:    "Current projects",
				URL:      "https://api.example.com/projects",
				Timeout:  Duration(5 * time.Second),
				Interval: Duration(30 * time.Second),
				Headers:  map[string]string{"Authorization": "Bearer token", "X-Campus": "lyon"},
				TopN:     3,
				Payload:  PayloadConfig{Path: "data"},
			},
			{
				Kind:    KindGallery,
				Name:    "Users",
				URL:     "https://api.example.com/users",
				Columns: 6,
				Scroll:  &ScrollConfig{Step: 2, PreRoll: &preRoll, Interval: Duration(50 * time.Millisecond)},
			},
		},
	}

	widgets, err := BuildWidgets(cfg)
	if err != nil {
		t.Fatalf("BuildWidgets() error = %v", err)
	}

	p := widgets[0]
	if p.Title() != "Current projects" {
		t.Errorf("Title() = %q", p.Title())
	}
	if p.Timeout() != 5*time.Second || p.Interval() != 30*time.Second {
		t.Errorf("Timeout/Interval = %v/%v", p.Timeout(), p.Interval())
	}
	if h := p.Headers(); h["Authorization"] != "Bearer token" || h["X-Campus"] != "lyon" {
		t.Errorf("Headers() = %v", h)
	}
	if p.TopN() != 3 {
		t.Errorf("TopN() = %d, want 3", p.TopN())
	}
	sel := p.PayloadSelector()
	if sel == nil {
		t.Fatal("PayloadSelector() = nil")
	}
	got, err := sel([]byte(`{"data": {"libft": 1}}`))
	if err != nil || string(got) != `{"libft": 1}` {
		t.Errorf("selector = %s, %v", got, err)
	}

	g := widgets[1]
	if g.Columns() != 6 {
		t.Errorf("Columns() = %d, want 6", g.Columns())
	}
	if step, pr, interval := g.Scroll(); step != 2 || pr != -40 || interval != 50*time.Millisecond {
		t.Errorf("Scroll() = (%d, %d, %v)", step, pr, interval)
	}
}

func TestBuildWidgets_PartialScrollKeepsDefaults(t *testing.T) {
	cfg := &Config{
		Widgets: []WidgetConfig{
			{
				Kind:   KindGallery,
				Name:   "Users",
				URL:    "https://api.example.com/users",
				Scroll: &ScrollConfig{Step: 3},
			},
		},
	}

	widgets, err := BuildWidgets(cfg)
	if err != nil {
		t.Fatalf("BuildWidgets() error = %v", err)
	}
	if step, pr, interval := widgets[0].Scroll(); step != 3 || pr != -100 || interval != 100*time.Millisecond {
		t.Errorf("Scroll() = (%d, %d, %v), want (3, -100, 100ms)", step, pr, interval)
	}
}

func TestBuildWidgets_Grid(t *testing.T) {
	cfg := &Config{
		Widgets: []WidgetConfig{
			{Kind: KindProjects, Name: "Projects", URL: "https://api.example.com/projects"},
		},
		Grids: []GridConfig{
			{
				Kind:          KindGallery,
				Name:          "Campus",
				URLTemplate:   "https://api.example.com/campus/{{.campus}}/active-users",
				TitleTemplate: "Active in {{.campus}}",
				Dimensions:    map[string][]string{"campus": {"lyon", "paris"}},
				Headers:       map[string]string{"Authorization": "Bearer token"},
				Interval:      Duration(time.Minute),
				Columns:       4,
			},
		},
	}

	widgets, err := BuildWidgets(cfg)
	if err != nil {
		t.Fatalf("BuildWidgets() error = %v", err)
	}
	if len(widgets) != 3 {
		t.Fatalf("len(widgets) = %d, want 3", len(widgets))
	}

	// direct widgets first, then grid expansion in dimension order
	wantNames := []string{"Projects", "Campus (lyon)", "Campus (paris)"}
	for i, want := range wantNames {
		if widgets[i].Name() != want {
			t.Errorf("widgets[%d].Name() = %q, want %q", i, widgets[i].Name(), want)
		}
	}

	lyon := widgets[1]
	if lyon.Kind() != campuspulse.KindGallery {
		t.Errorf("Kind() = %q", lyon.Kind())
	}
	if lyon.URL() != "https://api.example.com/campus/lyon/active-users" {
		t.Errorf("URL() = %q", lyon.URL())
	}
	if lyon.Title() != "Active in lyon" {
		t.Errorf("Title() = %q", lyon.Title())
	}
	if lyon.Columns() != 4 || lyon.Interval() != time.Minute {
		t.Errorf("Columns/Interval = %d/%v", lyon.Columns(), lyon.Interval())
	}
	if lyon.Headers()["Authorization"] != "Bearer token" {
		t.Errorf("Headers() = %v", lyon.Headers())
	}
}

func TestBuildWidgets_GridMissingTemplateKey(t *testing.T) {
	cfg := &Config{
		Grids: []GridConfig{
			{
				Kind:        KindGallery,
				Name:        "Campus",
				URLTemplate: "https://api.example.com/{{.region}}/users",
				Dimensions:  map[string][]string{"campus": {"lyon"}},
			},
		},
	}

	_, err := BuildWidgets(cfg)
	if err == nil {
		t.Fatal("BuildWidgets() expected error for missing template key")
	}
	if !strings.Contains(err.Error(), "grid (Campus)") {
		t.Errorf("error = %q, want grid context", err.Error())
	}
}

func TestBuildOptions(t *testing.T) {
	cfg, err := Parse([]byte(`
title: 42 Lyon
port: 9191
chart_width: 640
widgets:
  - kind: projects
    name: Projects
    url: http://localhost:3000/on-campus/active-user-projects
  - kind: gallery
    name: Users
    url: http://localhost:3000/on-campus/active-users
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	d, err := campuspulse.New(opts...)
	if err != nil {
		t.Fatalf("campuspulse.New() error = %v", err)
	}
	if d.Title() != "42 Lyon" || d.Port() != 9191 {
		t.Errorf("Title/Port = %q/%d", d.Title(), d.Port())
	}
	if len(d.Widgets()) != 2 {
		t.Errorf("len(Widgets()) = %d, want 2", len(d.Widgets()))
	}
}

func TestBuildOptions_DuplicateAcrossGrid(t *testing.T) {
	cfg := &Config{
		Port: 8080,
		Widgets: []WidgetConfig{
			{Kind: KindGallery, Name: "Campus (lyon)", URL: "https://api.example.com/users"},
		},
		Grids: []GridConfig{
			{
				Kind:        KindGallery,
				Name:        "Campus",
				URLTemplate: "https://api.example.com/campus/{{.campus}}",
				Dimensions:  map[string][]string{"campus": {"lyon"}},
			},
		},
	}

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	if _, err := campuspulse.New(opts...); err == nil {
		t.Error("campuspulse.New() expected duplicate name error")
	}
}

func TestMapToKeyValuePairs(t *testing.T) {
	got := mapToKeyValuePairs(map[string]string{"b": "2", "a": "1"})
	want := []string{"a", "1", "b", "2"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("mapToKeyValuePairs() = %v, want %v", got, want)
	}
}
