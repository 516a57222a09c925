package campuspulse

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"text/template"
)

// NewWidgetGrid creates one widget of the given kind per combination of
// dimension values (cartesian product), e.g. one gallery per campus.
//
// The URL template uses Go's text/template syntax. Dimension values are
// URL-encoded before interpolation. Missing template keys cause an error
// (fail-fast). An optional title template ([WithTitleTemplate]) receives the
// raw, unencoded values.
//
// Each widget name includes the dimension values in the format
// "Base Name (val1/val2)" (values from alphabetically sorted keys).
//
// Example:
//
//	users, err := campuspulse.NewWidgetGrid(campuspulse.KindGallery, "Users",
//	    campuspulse.WithURLTemplate("https://api.example.com/campus/{{.campus}}/active-users"),
//	    campuspulse.WithDimensions(map[string][]string{
//	        "campus": {"lyon", "paris"},
//	    }),
//	    campuspulse.WithTitleTemplate("Active in {{.campus}}"),
//	)
//	// Returns 2 widgets, usable with WithWidgets(users...)
func NewWidgetGrid(kind Kind, baseName string, opts ...GridOption) ([]Widget, error) {
	if strings.TrimSpace(baseName) == "" {
		return nil, errors.New("base name cannot be empty")
	}
	if kind != KindProjects && kind != KindGallery {
		return nil, fmt.Errorf("unknown widget kind %q", kind)
	}

	cfg := &gridConfig{
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.urlTemplate == "" {
		return nil, errors.New("URL template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	// missingkey=error for fail-fast behaviour
	urlTmpl, err := template.New("url").Option("missingkey=error").Parse(cfg.urlTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid URL template: %w", err)
	}
	var titleTmpl *template.Template
	if cfg.titleTemplate != "" {
		titleTmpl, err = template.New("title").Option("missingkey=error").Parse(cfg.titleTemplate)
		if err != nil {
			return nil, fmt.Errorf("invalid title template: %w", err)
		}
	}

	combinations := cartesianProduct(cfg.dimensions)
	if len(combinations) == 0 {
		return nil, nil
	}

	widgets := make([]Widget, 0, len(combinations))
	for _, combo := range combinations {
		urlStr, err := executeTemplate(urlTmpl, urlEncodeMap(combo))
		if err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}

		name := formatWidgetName(baseName, combo)

		var wOpts []WidgetOption
		if len(cfg.headers) > 0 {
			wOpts = append(wOpts, WithHeaders(flattenMap(cfg.headers)...))
		}
		if cfg.timeout > 0 {
			wOpts = append(wOpts, WithTimeout(cfg.timeout))
		}
		if cfg.interval > 0 {
			wOpts = append(wOpts, WithInterval(cfg.interval))
		}
		if titleTmpl != nil {
			title, err := executeTemplate(titleTmpl, combo)
			if err != nil {
				return nil, fmt.Errorf("title template execution failed: %w", err)
			}
			wOpts = append(wOpts, WithWidgetTitle(title))
		}
		// shared widget options come last so they can override the above
		wOpts = append(wOpts, cfg.widgetOpts...)

		w, err := newWidget(kind, name, urlStr, wOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create widget '%s': %w", name, err)
		}
		widgets = append(widgets, w)
	}

	return widgets, nil
}

// cartesianProduct expands dims into every combination of their values.
// Keys are walked in sorted order and values keep their slice order, so
// {"x": [a b], "y": [1 2]} yields x=a,y=1 / x=a,y=2 / x=b,y=1 / x=b,y=2.
// A nil result means dims was empty or some dimension had no values.
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	combos := []map[string]string{{}}
	for _, key := range sortedKeys(dims) {
		values := dims[key]
		if len(values) == 0 {
			return nil
		}
		next := make([]map[string]string, 0, len(combos)*len(values))
		for _, prefix := range combos {
			for _, v := range values {
				c := make(map[string]string, len(prefix)+1)
				for pk, pv := range prefix {
					c[pk] = pv
				}
				c[key] = v
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func urlEncodeMap(m map[string]string) map[string]string {
	escaped := make(map[string]string, len(m))
	for k, v := range m {
		escaped[k] = url.QueryEscape(v)
	}
	return escaped
}

func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// formatWidgetName renders "Base (v1/v2)" with values in key order.
func formatWidgetName(baseName string, combo map[string]string) string {
	values := make([]string, 0, len(combo))
	for _, k := range sortedKeys(combo) {
		values = append(values, combo[k])
	}
	return baseName + " (" + strings.Join(values, "/") + ")"
}

// flattenMap turns m into sorted key/value pairs for the variadic options.
func flattenMap(m map[string]string) []string {
	pairs := make([]string, 0, len(m)*2)
	for _, k := range sortedKeys(m) {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
