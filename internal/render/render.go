// Package render turns widget snapshots into SVG charts and HTML fragments.
//
// Geometry is computed in Go and poured into embedded html/template files, so
// backend-supplied strings (project names, logins, avatar URLs) are escaped.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("render").
		Funcs(template.FuncMap{
			"num": formatNum,
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// Tableau10 is the categorical palette used for chart slices and legend dots.
var Tableau10 = [...]string{
	"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f",
	"#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab",
}

// ColorAt returns the palette colour for a rank position. Colour identity
// follows the rank, not the project. i must not be negative.
func ColorAt(i int) string {
	return Tableau10[i%len(Tableau10)]
}

// formatNum prints a coordinate with at most two decimals.
func formatNum(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	// trim "12.50" -> "12.5", "12.00" -> "12"
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	if s == "-0" {
		return "0"
	}
	return s
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
