package graph

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minWidth  = 10
	minHeight = 4

	plotGlyph = '•'
)

// Terminal is a Charter that rasterises line charts into a character grid.
type Terminal struct {
	Width  int
	Height int

	live int
}

// NewTerminal creates a terminal charter with the given plot area size.
func NewTerminal(width, height int) *Terminal {
	return &Terminal{Width: width, Height: height}
}

// Live returns how many drawn charts have not been destroyed.
func (t *Terminal) Live() int {
	return t.live
}

// TerminalChart is a Handle for a chart drawn by Terminal.
type TerminalChart struct {
	owner     *Terminal
	chart     Chart
	rendered  string
	destroyed bool
}

// Destroy marks the chart dead. Calling it twice is a no-op.
func (c *TerminalChart) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.rendered = ""
	if c.owner != nil {
		c.owner.live--
	}
}

// Destroyed reports whether Destroy has been called.
func (c *TerminalChart) Destroyed() bool { return c.destroyed }

// Chart returns the chart description that was drawn.
func (c *TerminalChart) Chart() Chart { return c.chart }

// View returns the rendered chart, or "" once destroyed.
func (c *TerminalChart) View() string { return c.rendered }

// Draw rasterises chart. Non-finite samples are skipped.
func (t *Terminal) Draw(chart Chart) (Handle, error) {
	if chart.Type != "line" {
		return nil, fmt.Errorf("unsupported chart type %q", chart.Type)
	}
	w, h := t.Width, t.Height
	if w < minWidth || h < minHeight {
		return nil, fmt.Errorf("plot area %dx%d is smaller than %dx%d", w, h, minWidth, minHeight)
	}

	c := &TerminalChart{owner: t, chart: chart}
	c.rendered = rasterise(chart, w, h)
	t.live++
	return c, nil
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func dataBounds(datasets []Dataset) (bounds, bool) {
	b := bounds{minX: math.Inf(1), maxX: math.Inf(-1), minY: math.Inf(1), maxY: math.Inf(-1)}
	found := false
	for _, ds := range datasets {
		for _, p := range ds.Points {
			if !finite(p) {
				continue
			}
			found = true
			b.minX = math.Min(b.minX, p.X)
			b.maxX = math.Max(b.maxX, p.X)
			b.minY = math.Min(b.minY, p.Y)
			b.maxY = math.Max(b.maxY, p.Y)
		}
	}
	if !found {
		return b, false
	}
	if b.maxX == b.minX {
		b.minX--
		b.maxX++
	}
	if b.maxY == b.minY {
		b.minY--
		b.maxY++
	}
	return b, true
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

type cell struct {
	r     rune
	color string
}

func rasterise(chart Chart, w, h int) string {
	grid := make([][]cell, h)
	for i := range grid {
		grid[i] = make([]cell, w)
		for j := range grid[i] {
			grid[i][j] = cell{r: ' '}
		}
	}

	b, ok := dataBounds(chart.Datasets)
	if ok {
		col := func(x float64) int {
			return scale(x, b.minX, b.maxX, w)
		}
		row := func(y float64) int {
			return h - 1 - scale(y, b.minY, b.maxY, h)
		}

		// Axes through the origin when it is in range.
		axisColor := chart.Options.Y.TickColor
		if b.minY <= 0 && b.maxY >= 0 {
			r := row(0)
			for j := 0; j < w; j++ {
				grid[r][j] = cell{r: '─', color: axisColor}
			}
		}
		if b.minX <= 0 && b.maxX >= 0 {
			cx := col(0)
			for i := 0; i < h; i++ {
				if grid[i][cx].r == '─' {
					grid[i][cx] = cell{r: '┼', color: axisColor}
				} else {
					grid[i][cx] = cell{r: '│', color: axisColor}
				}
			}
		}

		for _, ds := range chart.Datasets {
			prevOK := false
			var px, py int
			for _, p := range ds.Points {
				if !finite(p) {
					prevOK = false
					continue
				}
				x, y := col(p.X), row(p.Y)
				if prevOK {
					line(grid, px, py, x, y, ds.Color)
				} else {
					grid[y][x] = cell{r: plotGlyph, color: ds.Color}
				}
				px, py, prevOK = x, y, true
			}
		}
	}

	var out strings.Builder
	if chart.Options.Legend.Display {
		out.WriteString(legend(chart.Datasets))
		out.WriteByte('\n')
	}
	for _, r := range grid {
		for _, c := range r {
			if c.color == "" {
				out.WriteRune(c.r)
				continue
			}
			out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.color)).Render(string(c.r)))
		}
		out.WriteByte('\n')
	}
	if ok {
		fmt.Fprintf(&out, "x: [%s, %s]  y: [%s, %s]", num(b.minX), num(b.maxX), num(b.minY), num(b.maxY))
	} else {
		out.WriteString("no data")
	}
	return out.String()
}

// scale maps v in [lo, hi] onto a cell index in [0, n). The span is taken
// on halved values so samples near the float64 limits do not overflow it.
func scale(v, lo, hi float64, n int) int {
	span := hi/2 - lo/2
	if !(span > 0) || math.IsInf(span, 0) {
		return (n - 1) / 2
	}
	f := (v/2 - lo/2) / span
	if math.IsNaN(f) {
		return (n - 1) / 2
	}
	return min(max(int(math.Round(f*float64(n-1))), 0), n-1)
}

// line draws a Bresenham segment between two cells.
func line(grid [][]cell, x0, y0, x1, y1 int, color string) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		grid[y0][x0] = cell{r: plotGlyph, color: color}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func legend(datasets []Dataset) string {
	parts := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		name := ds.Label
		if ds.Caption != "" {
			name += " " + ds.Caption
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(ds.Color)).Render("━━")
		parts = append(parts, swatch+" "+name)
	}
	return strings.Join(parts, "   ")
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', 4, 64)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
