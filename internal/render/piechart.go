package render

import (
	"errors"
	"math"

	"github.com/jpalmerr/campuspulse/internal/store"
)

const (
	// DefaultChartWidth is the SVG width used when none is configured.
	DefaultChartWidth = 480

	minChartWidth = 160
	pieOffsetX    = 40
	legendRowPx   = 20 // 1.25rem
	legendDotX    = 32
	legendTextX   = 44
)

// ChartLayout controls the pie chart canvas. The height is always 16:9 of
// the width.
type ChartLayout struct {
	Width int
}

// Validate reports whether the layout can be rendered.
func (l ChartLayout) Validate() error {
	if l.Width < minChartWidth {
		return errors.New("chart width must be at least 160")
	}
	return nil
}

func (l ChartLayout) height() float64 {
	return float64(l.Width) / 16 * 9
}

// radius follows the canvas: 90% of the width wrapped around a circle.
func (l ChartLayout) radius() float64 {
	return float64(l.Width) * 0.9 / math.Pi
}

type slice struct {
	Path   string
	Color  string
	LabelX float64
	LabelY float64
	Count  int
}

type legendItem struct {
	Project string
	Color   string
	DotY    float64
	TextY   float64
}

type pieViewModel struct {
	Width   int
	Height  float64
	CenterX float64
	CenterY float64
	LegendX float64
	LegendY float64
	Slices  []slice
	Legend  []legendItem
}

// PieChart renders ranked projects as an SVG pie chart with a legend.
//
// Slices start at twelve o'clock and run clockwise in list order, each sized
// by its user count and labelled with the raw count at its centroid. The
// legend repeats the colour-by-index mapping. Zero-sized slices are omitted
// from the pie but kept in the legend.
func PieChart(entries []store.ProjectEntry, layout ChartLayout) ([]byte, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	r := layout.radius()
	vm := pieViewModel{
		Width:   layout.Width,
		Height:  layout.height(),
		CenterX: r + pieOffsetX,
		CenterY: r,
		LegendX: r * 2.2,
		LegendY: layout.height() * 0.25,
		Slices:  pieSlices(entries, r*0.9),
		Legend:  make([]legendItem, len(entries)),
	}
	for i, e := range entries {
		vm.Legend[i] = legendItem{
			Project: e.Project,
			Color:   ColorAt(i),
			DotY:    float64(i * legendRowPx),
			TextY:   float64(i*legendRowPx) + legendRowPx/5,
		}
	}

	return execute("piechart.svg.tmpl", vm)
}

// pieSlices lays out the arcs for entries around the origin.
func pieSlices(entries []store.ProjectEntry, outer float64) []slice {
	var total float64
	for _, e := range entries {
		total += float64(e.UserCount)
	}
	if total <= 0 {
		return nil
	}

	slices := make([]slice, 0, len(entries))
	start := 0.0
	for i, e := range entries {
		if e.UserCount <= 0 {
			continue
		}
		sweep := float64(e.UserCount) / total * 2 * math.Pi
		end := start + sweep

		cx, cy := polar(outer/2, start+sweep/2)
		slices = append(slices, slice{
			Path:   arcPath(start, end, outer),
			Color:  ColorAt(i),
			LabelX: cx,
			LabelY: cy,
			Count:  e.UserCount,
		})
		start = end
	}
	return slices
}

// polar converts an angle measured clockwise from twelve o'clock.
func polar(r, angle float64) (float64, float64) {
	return r * math.Sin(angle), -r * math.Cos(angle)
}

// arcPath draws a wedge from the origin between two angles.
func arcPath(start, end, r float64) string {
	if end-start >= 2*math.Pi-1e-9 {
		// a single full-circle arc has coincident endpoints and draws nothing
		return "M0,-" + formatNum(r) +
			"A" + formatNum(r) + "," + formatNum(r) + ",0,1,1,0," + formatNum(r) +
			"A" + formatNum(r) + "," + formatNum(r) + ",0,1,1,0,-" + formatNum(r) + "Z"
	}

	x0, y0 := polar(r, start)
	x1, y1 := polar(r, end)
	large := "0"
	if end-start > math.Pi {
		large = "1"
	}
	return "M0,0" +
		"L" + formatNum(x0) + "," + formatNum(y0) +
		"A" + formatNum(r) + "," + formatNum(r) + ",0," + large + ",1," + formatNum(x1) + "," + formatNum(y1) +
		"Z"
}

type placeholderViewModel struct {
	Width  int
	Height float64
}

// PieChartPlaceholder renders the pulsing skeleton shown before the first
// successful poll.
func PieChartPlaceholder(layout ChartLayout) ([]byte, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return execute("placeholder.svg.tmpl", placeholderViewModel{
		Width:  layout.Width,
		Height: layout.height(),
	})
}
