// Package graph maps graph payloads from the calculation service onto
// line-chart datasets and owns the lifecycle of the chart on screen.
package graph

import (
	"fmt"

	"calcnerd/internal/logging"
	"calcnerd/internal/types"
)

// Point is one (x, y) sample.
type Point struct {
	X float64
	Y float64
}

// Dataset is one styled curve handed to the charting component.
type Dataset struct {
	Key         string // series key in the payload
	Label       string // fixed legend name for Key
	Caption     string // label sent by the service, shown next to Label
	Points      []Point
	Color       string // border color
	Fill        string // background color
	LineWidth   int
	PointRadius int
	Tension     float64
}

// Legend configures the chart legend.
type Legend struct {
	Display    bool
	Position   string
	Color      string
	FontFamily string
	FontSize   int
}

// Axis configures one chart axis.
type Axis struct {
	Type       string
	Position   string
	GridColor  string
	TickColor  string
	FontFamily string
}

// Options holds chart-level styling.
type Options struct {
	Responsive          bool
	MaintainAspectRatio bool
	Legend              Legend
	X                   Axis
	Y                   Axis
}

// Chart is the full description passed to a Charter.
type Chart struct {
	Type     string
	Datasets []Dataset
	Options  Options
}

// Handle is a drawn chart that can be torn down.
type Handle interface {
	Destroy()
}

// Charter draws charts. Implementations own the pixels (or cells).
type Charter interface {
	Draw(chart Chart) (Handle, error)
}

// SeriesStyle is the fixed visual identity of a series key.
type SeriesStyle struct {
	Label string
	Color string
	Fill  string
}

var seriesStyles = map[string]SeriesStyle{
	types.SeriesOriginal:   {Label: "Original", Color: "#4a9eff", Fill: "rgba(74, 158, 255, 0.1)"},
	types.SeriesDerivative: {Label: "Derivative", Color: "#d4af37", Fill: "rgba(212, 175, 55, 0.1)"},
	types.SeriesFunction:   {Label: "Function", Color: "#4ade80", Fill: "rgba(74, 222, 128, 0.1)"},
}

// StyleFor returns the fixed style for a series key.
func StyleFor(key string) (SeriesStyle, bool) {
	s, ok := seriesStyles[key]
	return s, ok
}

// DefaultOptions returns the dark-theme chart options.
func DefaultOptions() Options {
	axis := Axis{
		GridColor:  "rgba(255, 255, 255, 0.1)",
		TickColor:  "#9ca3af",
		FontFamily: "IBM Plex Mono",
	}
	x := axis
	x.Type = "linear"
	x.Position = "bottom"
	return Options{
		Responsive:          true,
		MaintainAspectRatio: false,
		Legend: Legend{
			Display:    true,
			Position:   "top",
			Color:      "#e8eaed",
			FontFamily: "IBM Plex Mono",
			FontSize:   12,
		},
		X: x,
		Y: axis,
	}
}

// Datasets builds one dataset per present series, in the fixed order
// original, derivative, function. Series whose x and y lengths differ are
// truncated to the shorter length.
func Datasets(payload *types.GraphPayload) []Dataset {
	var out []Dataset
	for _, key := range types.SeriesKeys {
		s := payload.Get(key)
		if s == nil {
			continue
		}
		if err := s.Validate(); err != nil {
			logging.GraphDebug("truncating: %v", err)
		}
		n := min(len(s.X), len(s.Y))
		points := make([]Point, n)
		for i := 0; i < n; i++ {
			points[i] = Point{X: s.X[i], Y: s.Y[i]}
		}
		style, _ := StyleFor(key)
		out = append(out, Dataset{
			Key:         key,
			Label:       style.Label,
			Caption:     s.Label,
			Points:      points,
			Color:       style.Color,
			Fill:        style.Fill,
			LineWidth:   2,
			PointRadius: 0,
			Tension:     0.4,
		})
	}
	return out
}

// Adapter draws graph payloads and keeps at most one live chart.
type Adapter struct {
	charter Charter
	active  Handle
}

// NewAdapter creates an adapter that draws through c.
func NewAdapter(c Charter) *Adapter {
	return &Adapter{charter: c}
}

// Draw destroys the previous chart and draws payload as one line chart.
func (a *Adapter) Draw(payload *types.GraphPayload) (Handle, error) {
	a.Clear()

	chart := Chart{
		Type:     "line",
		Datasets: Datasets(payload),
		Options:  DefaultOptions(),
	}
	h, err := a.charter.Draw(chart)
	if err != nil {
		return nil, fmt.Errorf("failed to draw chart: %w", err)
	}
	a.active = h
	logging.GraphDebug("drew chart with %d datasets", len(chart.Datasets))
	return h, nil
}

// Active returns the live chart handle, or nil.
func (a *Adapter) Active() Handle {
	return a.active
}

// Clear destroys the live chart, if any.
func (a *Adapter) Clear() {
	if a.active != nil {
		a.active.Destroy()
		a.active = nil
	}
}
