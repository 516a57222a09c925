// Package config loads the YAML file behind the campuspulse binary and turns
// it into options for [campuspulse.New].
//
// A file looks like:
//
//	title: 42 Lyon
//	port: 8080
//
//	widgets:
//	  - kind: projects
//	    name: Projects
//	    url: ${CAMPUS_API:-http://localhost:3000}/on-campus/active-user-projects
//	    interval: 60s
//	    top_n: 10
//
//	  - kind: gallery
//	    name: Users
//	    url: ${CAMPUS_API:-http://localhost:3000}/on-campus/active-users
//	    payload: data.users
//	    scroll:
//	      step: 1
//	      pre_roll: -100
//	      interval: 100ms
//
//	grids:
//	  - kind: gallery
//	    name: Campus
//	    url_template: "https://api.example.com/campus/{{.campus}}/active-users"
//	    title_template: "Active in {{.campus}}"
//	    dimensions:
//	      campus: [lyon, paris]
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort = 8080

	minInterval       = time.Second
	maxInterval       = time.Hour
	minScrollInterval = 10 * time.Millisecond

	minChartWidth = 160
	maxChartWidth = 4096
	maxTopN       = 50
	maxColumns    = 20
)

// Widget kinds accepted in the kind field.
const (
	KindProjects = "projects"
	KindGallery  = "gallery"
)

// Config mirrors the YAML file. Build one with [Load] or [Parse]; both
// expand environment references and validate before returning.
type Config struct {
	// Title heads the page. Empty keeps "CampusPulse".
	Title string `yaml:"title"`

	// Port to listen on, 8080 when omitted.
	Port int `yaml:"port"`

	// ChartWidth is the pie chart width in pixels. Zero keeps the SDK default.
	ChartWidth int `yaml:"chart_width"`

	// Widgets defines individual dashboard widgets in display order.
	Widgets []WidgetConfig `yaml:"widgets"`

	// Grids defines widget grids that expand via cartesian product. Grid
	// widgets are placed after Widgets.
	Grids []GridConfig `yaml:"grids"`
}

// WidgetConfig defines a single dashboard widget.
type WidgetConfig struct {
	// Kind is "projects" (pie chart) or "gallery" (active users).
	Kind string `yaml:"kind"`

	// Name uniquely identifies the widget.
	Name string `yaml:"name"`

	// Title is the heading shown above the widget. Optional.
	Title string `yaml:"title"`

	// URL of the campus API endpoint. ${VAR} and ${VAR:-default} are
	// replaced from the environment.
	URL string `yaml:"url"`

	// Headers sent on every poll, e.g. Authorization. Values are
	// env-expanded like URL.
	Headers map[string]string `yaml:"headers"`

	// Timeout bounds each request. 10s when omitted.
	Timeout Duration `yaml:"timeout"`

	// Interval is the time between polls. Defaults to 60s for projects and
	// 5m for galleries. Must be between 1s and 1h.
	Interval Duration `yaml:"interval"`

	// Payload locates the data inside a wrapped response.
	Payload PayloadConfig `yaml:"payload"`

	// TopN is the number of ranked projects kept. Projects only.
	TopN int `yaml:"top_n"`

	// Columns is the number of users per gallery row. Gallery only.
	Columns int `yaml:"columns"`

	// Scroll tunes the gallery auto-scroll. Gallery only.
	Scroll *ScrollConfig `yaml:"scroll"`
}

// GridConfig stamps out one widget per combination of dimension values.
// Kind gallery with dimensions {campus: [lyon, paris]} yields the galleries
// "Base (lyon)" and "Base (paris)".
type GridConfig struct {
	Kind string `yaml:"kind"`

	// Name is suffixed with the combination, as in "Base (lyon)".
	Name string `yaml:"name"`

	// URLTemplate is rendered with text/template, e.g. {{.campus}}. It is
	// env-expanded first.
	URLTemplate string `yaml:"url_template"`

	// TitleTemplate optionally renders each widget's heading.
	TitleTemplate string `yaml:"title_template"`

	Dimensions map[string][]string `yaml:"dimensions"`

	// Headers, Timeout and Interval apply to every generated widget.
	Headers  map[string]string `yaml:"headers"`
	Timeout  Duration          `yaml:"timeout"`
	Interval Duration          `yaml:"interval"`

	// Payload, TopN, Columns and Scroll apply to every generated widget with
	// the same rules as in [WidgetConfig].
	Payload PayloadConfig `yaml:"payload"`
	TopN    int           `yaml:"top_n"`
	Columns int           `yaml:"columns"`
	Scroll  *ScrollConfig `yaml:"scroll"`
}

// ScrollConfig tunes the gallery auto-scroll. Unset fields keep the
// defaults: step 1, pre_roll -100, interval 100ms.
type ScrollConfig struct {
	// Step is the number of pixels advanced per tick.
	Step int `yaml:"step"`

	// PreRoll is the offset assigned after a wrap. Must not be positive.
	PreRoll *int `yaml:"pre_roll"`

	// Interval is the time between ticks. At least 10ms.
	Interval Duration `yaml:"interval"`
}

// PayloadConfig points at the widget data inside a wrapped response. YAML
// accepts either "payload: data.users" or a mapping with a path key.
type PayloadConfig struct {
	// Path is a dot-separated JSON path. Empty means the whole body.
	Path string
}

// Duration is a time.Duration read from strings such as "90s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(v)
	return nil
}

// Duration converts back to time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (p *PayloadConfig) UnmarshalYAML(node *yaml.Node) error {
	var path string
	switch node.Kind {
	case yaml.ScalarNode:
		if err := node.Decode(&path); err != nil {
			return err
		}
	case yaml.MappingNode:
		var m struct {
			Path string `yaml:"path"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		path = m.Path
	default:
		return fmt.Errorf("payload must be a string or object, got %v", node.Kind)
	}
	p.Path = strings.TrimSpace(path)
	return nil
}

// envRef matches ${NAME} and ${NAME:-fallback}. Submatch 2 is non-empty
// only when a fallback (possibly empty) was written.
var envRef = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars substitutes environment references in s. A reference to an
// unset variable with no fallback fails.
func expandEnvVars(s string) (string, error) {
	var missing string
	out := envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if v, ok := os.LookupEnv(m[1]); ok {
			return v
		}
		if m[2] != "" {
			return m[3]
		}
		if missing == "" {
			missing = m[1]
		}
		return ref
	})
	if missing != "" {
		return "", fmt.Errorf("environment variable %q is not set", missing)
	}
	return out, nil
}

// Load reads the file at path and hands it to [Parse].
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML, fills the default port, expands environment
// references in urls, url templates and header values, and validates the
// result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WidgetCount returns the number of widgets the config expands to, counting
// every grid combination.
func (c *Config) WidgetCount() (direct, fromGrids int) {
	for _, g := range c.Grids {
		size := 1
		for _, vals := range g.Dimensions {
			size *= len(vals)
		}
		fromGrids += size
	}
	return len(c.Widgets), fromGrids
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.ChartWidth != 0 && (c.ChartWidth < minChartWidth || c.ChartWidth > maxChartWidth) {
		return fmt.Errorf("chart_width must be between %d and %d, got %d", minChartWidth, maxChartWidth, c.ChartWidth)
	}
	if len(c.Widgets) == 0 && len(c.Grids) == 0 {
		return errors.New("at least one widget or grid must be defined")
	}

	owners := make(map[string]string, len(c.Widgets))
	for i := range c.Widgets {
		if err := c.Widgets[i].validate(i, owners); err != nil {
			return err
		}
	}
	for i := range c.Grids {
		if err := c.Grids[i].validate(i); err != nil {
			return err
		}
	}
	return nil
}

// validate checks w in place, expanding its url and headers. owners maps
// names already taken to the widget that took them.
func (w *WidgetConfig) validate(i int, owners map[string]string) error {
	if w.Name == "" {
		return fmt.Errorf("widgets[%d]: name is required", i)
	}
	where := fmt.Sprintf("widgets[%d] (%s)", i, w.Name)
	if owner, taken := owners[w.Name]; taken {
		return fmt.Errorf("%s: duplicate name, already used by %s", where, owner)
	}
	owners[w.Name] = where

	if w.URL == "" {
		return fmt.Errorf("%s: url is required", where)
	}
	u, err := expandEnvVars(w.URL)
	if err != nil {
		return fmt.Errorf("%s: url: %w", where, err)
	}
	if err := validateURL(u); err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	w.URL = u

	if err := expandHeaders(w.Headers, where); err != nil {
		return err
	}
	return validateShared(where, w.Kind, w.Timeout, w.Interval, w.TopN, w.Columns, w.Scroll)
}

func (g *GridConfig) validate(i int) error {
	if g.Name == "" {
		return fmt.Errorf("grids[%d]: name is required", i)
	}
	where := fmt.Sprintf("grids[%d] (%s)", i, g.Name)

	if g.URLTemplate == "" {
		return fmt.Errorf("%s: url_template is required", where)
	}
	tmpl, err := expandEnvVars(g.URLTemplate)
	if err != nil {
		return fmt.Errorf("%s: url_template: %w", where, err)
	}
	g.URLTemplate = tmpl

	// syntax only; missing keys surface when the grid is built
	if _, err := template.New("url").Parse(g.URLTemplate); err != nil {
		return fmt.Errorf("%s: invalid url_template: %w", where, err)
	}
	if g.TitleTemplate != "" {
		if _, err := template.New("title").Parse(g.TitleTemplate); err != nil {
			return fmt.Errorf("%s: invalid title_template: %w", where, err)
		}
	}

	if err := validateDimensions(g.Dimensions); err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	if err := expandHeaders(g.Headers, where); err != nil {
		return err
	}
	return validateShared(where, g.Kind, g.Timeout, g.Interval, g.TopN, g.Columns, g.Scroll)
}

func validateDimensions(dims map[string][]string) error {
	if len(dims) == 0 {
		return errors.New("at least one dimension is required")
	}
	for name, values := range dims {
		if len(values) == 0 {
			return fmt.Errorf("dimension %q has no values", name)
		}
		for j, v := range values {
			if slices.Contains(values[:j], v) {
				return fmt.Errorf("dimension %q has duplicate value %q", name, v)
			}
		}
	}
	return nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme == "" {
		return errors.New("url must have a scheme (http:// or https://)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsed.Scheme)
	}
	return nil
}

func expandHeaders(headers map[string]string, ctx string) error {
	for k, v := range headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("%s: headers[%s]: %w", ctx, k, err)
		}
		headers[k] = expanded
	}
	return nil
}

// validateShared checks the fields widgets and grids have in common.
func validateShared(ctx, kind string, timeout, interval Duration, topN, columns int, sc *ScrollConfig) error {
	switch kind {
	case KindProjects, KindGallery:
	case "":
		return fmt.Errorf("%s: kind is required (projects or gallery)", ctx)
	default:
		return fmt.Errorf("%s: unknown kind %q (expected projects or gallery)", ctx, kind)
	}

	if timeout != 0 {
		if timeout.Duration() < 0 {
			return fmt.Errorf("%s: timeout cannot be negative, got %s", ctx, timeout.Duration())
		}
		if timeout.Duration() < time.Second {
			return fmt.Errorf("%s: timeout must be at least 1s if specified, got %s", ctx, timeout.Duration())
		}
	}

	if interval != 0 {
		if interval.Duration() < minInterval {
			return fmt.Errorf("%s: interval must be at least %s, got %s", ctx, minInterval, interval.Duration())
		}
		if interval.Duration() > maxInterval {
			return fmt.Errorf("%s: interval must not exceed %s, got %s", ctx, maxInterval, interval.Duration())
		}
	}

	if topN != 0 {
		if kind != KindProjects {
			return fmt.Errorf("%s: top_n only applies to projects widgets", ctx)
		}
		if topN < 1 || topN > maxTopN {
			return fmt.Errorf("%s: top_n must be between 1 and %d, got %d", ctx, maxTopN, topN)
		}
	}

	if columns != 0 {
		if kind != KindGallery {
			return fmt.Errorf("%s: columns only applies to gallery widgets", ctx)
		}
		if columns < 1 || columns > maxColumns {
			return fmt.Errorf("%s: columns must be between 1 and %d, got %d", ctx, maxColumns, columns)
		}
	}

	if sc != nil {
		if kind != KindGallery {
			return fmt.Errorf("%s: scroll only applies to gallery widgets", ctx)
		}
		if sc.Step < 0 {
			return fmt.Errorf("%s: scroll.step must be positive, got %d", ctx, sc.Step)
		}
		if sc.PreRoll != nil && *sc.PreRoll > 0 {
			return fmt.Errorf("%s: scroll.pre_roll cannot be positive, got %d", ctx, *sc.PreRoll)
		}
		if sc.Interval != 0 && sc.Interval.Duration() < minScrollInterval {
			return fmt.Errorf("%s: scroll.interval must be at least %s, got %s", ctx, minScrollInterval, sc.Interval.Duration())
		}
	}

	return nil
}
