package config

import (
	"fmt"
	"sort"

	"github.com/jpalmerr/campuspulse"
	"github.com/jpalmerr/campuspulse/internal/scroll"
)

// BuildWidgets converts parsed configuration into SDK Widget values.
//
// Direct widgets come first in file order, followed by the expansion of each
// grid. Grid dimensions are expanded via cartesian product.
func BuildWidgets(cfg *Config) ([]campuspulse.Widget, error) {
	var widgets []campuspulse.Widget

	for _, wc := range cfg.Widgets {
		w, err := buildWidget(wc)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, w)
	}

	for _, gc := range cfg.Grids {
		gridWidgets, err := buildGridWidgets(gc)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, gridWidgets...)
	}

	return widgets, nil
}

// BuildOptions converts parsed configuration into the options for
// [campuspulse.New]: widgets, port, title and chart width. Callers append
// their own logger and callbacks.
func BuildOptions(cfg *Config) ([]campuspulse.Option, error) {
	widgets, err := BuildWidgets(cfg)
	if err != nil {
		return nil, err
	}

	opts := []campuspulse.Option{
		campuspulse.WithWidgets(widgets...),
		campuspulse.WithPort(cfg.Port),
	}
	if cfg.Title != "" {
		opts = append(opts, campuspulse.WithTitle(cfg.Title))
	}
	if cfg.ChartWidth != 0 {
		opts = append(opts, campuspulse.WithChartWidth(cfg.ChartWidth))
	}
	return opts, nil
}

// buildWidget converts a single WidgetConfig to an SDK Widget.
func buildWidget(wc WidgetConfig) (campuspulse.Widget, error) {
	var opts []campuspulse.WidgetOption

	if wc.Timeout != 0 {
		opts = append(opts, campuspulse.WithTimeout(wc.Timeout.Duration()))
	}
	if wc.Interval != 0 {
		opts = append(opts, campuspulse.WithInterval(wc.Interval.Duration()))
	}
	if len(wc.Headers) > 0 {
		opts = append(opts, campuspulse.WithHeaders(mapToKeyValuePairs(wc.Headers)...))
	}
	if wc.Title != "" {
		opts = append(opts, campuspulse.WithWidgetTitle(wc.Title))
	}
	opts = append(opts, kindOptions(wc.Payload, wc.TopN, wc.Columns, wc.Scroll)...)

	switch wc.Kind {
	case KindProjects:
		return campuspulse.NewProjectsWidget(wc.Name, wc.URL, opts...)
	case KindGallery:
		return campuspulse.NewGalleryWidget(wc.Name, wc.URL, opts...)
	default:
		return campuspulse.Widget{}, fmt.Errorf("widget %q: unknown kind %q", wc.Name, wc.Kind)
	}
}

// buildGridWidgets expands a GridConfig through [campuspulse.NewWidgetGrid].
func buildGridWidgets(gc GridConfig) ([]campuspulse.Widget, error) {
	opts := []campuspulse.GridOption{
		campuspulse.WithURLTemplate(gc.URLTemplate),
		campuspulse.WithDimensions(gc.Dimensions),
	}
	if gc.TitleTemplate != "" {
		opts = append(opts, campuspulse.WithTitleTemplate(gc.TitleTemplate))
	}
	if len(gc.Headers) > 0 {
		opts = append(opts, campuspulse.WithGridHeaders(mapToKeyValuePairs(gc.Headers)...))
	}
	if gc.Timeout != 0 {
		opts = append(opts, campuspulse.WithGridTimeout(gc.Timeout.Duration()))
	}
	if gc.Interval != 0 {
		opts = append(opts, campuspulse.WithGridInterval(gc.Interval.Duration()))
	}
	if wOpts := kindOptions(gc.Payload, gc.TopN, gc.Columns, gc.Scroll); len(wOpts) > 0 {
		opts = append(opts, campuspulse.WithGridWidgetOptions(wOpts...))
	}

	widgets, err := campuspulse.NewWidgetGrid(campuspulse.Kind(gc.Kind), gc.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("grid (%s): %w", gc.Name, err)
	}
	return widgets, nil
}

// kindOptions builds the payload and kind-specific widget options.
func kindOptions(payload PayloadConfig, topN, columns int, sc *ScrollConfig) []campuspulse.WidgetOption {
	var opts []campuspulse.WidgetOption

	if payload.Path != "" {
		opts = append(opts, campuspulse.WithPayloadSelector(campuspulse.JSONPathSelector(payload.Path)))
	}
	if topN != 0 {
		opts = append(opts, campuspulse.WithTopN(topN))
	}
	if columns != 0 {
		opts = append(opts, campuspulse.WithColumns(columns))
	}
	if sc != nil {
		step, preRoll, interval := scroll.DefaultStep, scroll.DefaultPreRoll, scroll.DefaultInterval
		if sc.Step != 0 {
			step = sc.Step
		}
		if sc.PreRoll != nil {
			preRoll = *sc.PreRoll
		}
		if sc.Interval != 0 {
			interval = sc.Interval.Duration()
		}
		opts = append(opts, campuspulse.WithScroll(step, preRoll, interval))
	}
	return opts
}

// mapToKeyValuePairs converts a map to a slice of key-value pairs sorted by key.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
