package chart

import (
	"image/color"
	"math"

	"golang.org/x/text/message"

	"sqlchat/internal/chart/canvas"
)

const (
	barFill       = 0.7
	titleY        = 30.0
	labelGap      = 10.0
	valueGap      = 5.0
	axisLabelDrop = 20.0
	markerRadius  = 4.0
	pieLabelRatio = 0.7
	legendOffsetX = 150.0
	legendTop     = 100.0
	legendStep    = 30.0
	legendSwatch  = 20.0
)

type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Bar is one bar of a bar or column chart.
type Bar struct {
	Label     string
	Value     float64
	ValueText string
	Rect      Rect
	Color     color.RGBA
}

type Marker struct {
	Label string
	Value float64
	At    canvas.Point
}

// Slice angles are radians, clockwise on screen, starting at -π/2 (twelve o'clock).
type Slice struct {
	Label   string
	Value   float64
	Start   float64
	Sweep   float64
	Percent string
	LabelAt canvas.Point
	Color   color.RGBA
}

type LegendEntry struct {
	Label  string
	Swatch Rect
	Color  color.RGBA
}

// Layout is the resolved geometry of one chart before any pixels are drawn.
type Layout struct {
	Type    Type
	Title   string
	TitleAt canvas.Point
	Plot    Rect
	Bars    []Bar
	Markers []Marker
	Slices  []Slice
	Legend  []LegendEntry
	Center  canvas.Point
	Radius  float64
}

func computeLayout(cfg Config, t Type, points []Point, p *message.Printer) (Layout, error) {
	plot := cfg.plot()
	l := Layout{
		Type:    t,
		Title:   cfg.Titles[t],
		TitleAt: canvas.Point{X: plot.X + plot.W/2, Y: titleY},
		Plot:    plot,
	}
	switch t {
	case TypeBar:
		l.Bars = layoutBars(cfg, plot, points, p)
	case TypeColumn:
		l.Bars = layoutColumns(cfg, plot, points, p)
	case TypeLine:
		l.Markers = layoutLine(plot, points)
	case TypePie:
		l.Center = canvas.Point{X: float64(cfg.Width) / 2, Y: float64(cfg.Height) / 2}
		l.Radius = math.Min(float64(cfg.Width), float64(cfg.Height)) / 3
		l.TitleAt = canvas.Point{X: l.Center.X, Y: titleY}
		l.Slices = layoutPie(cfg, l.Center, l.Radius, points)
		l.Legend = layoutLegend(cfg, points)
	default:
		return Layout{}, ErrUnsupportedType
	}
	return l, nil
}

// positiveMax is the largest value, or 0 when no value is positive.
func positiveMax(points []Point) float64 {
	peak := 0.0
	for _, pt := range points {
		if v := finite(pt.Value); v > peak {
			peak = v
		}
	}
	return peak
}

// scaled maps v onto [0, extent]. Non-positive values and a non-positive
// peak both give 0.
func scaled(v, peak, extent float64) float64 {
	v = finite(v)
	if peak <= 0 || v <= 0 {
		return 0
	}
	return v / peak * extent
}

func layoutBars(cfg Config, plot Rect, points []Point, p *message.Printer) []Bar {
	if len(points) == 0 {
		return nil
	}
	peak := positiveMax(points)
	spacing := plot.H / float64(len(points))
	bars := make([]Bar, len(points))
	for i, pt := range points {
		bars[i] = Bar{
			Label:     pt.Label,
			Value:     pt.Value,
			ValueText: formatValue(p, pt.Value),
			Color:     cfg.colorAt(i),
			Rect: Rect{
				X: plot.X,
				Y: plot.Y + float64(i)*spacing,
				W: scaled(pt.Value, peak, plot.W),
				H: spacing * barFill,
			},
		}
	}
	return bars
}

func layoutColumns(cfg Config, plot Rect, points []Point, p *message.Printer) []Bar {
	if len(points) == 0 {
		return nil
	}
	peak := positiveMax(points)
	spacing := plot.W / float64(len(points))
	bars := make([]Bar, len(points))
	for i, pt := range points {
		h := scaled(pt.Value, peak, plot.H)
		bars[i] = Bar{
			Label:     pt.Label,
			Value:     pt.Value,
			ValueText: formatValue(p, pt.Value),
			Color:     cfg.colorAt(i),
			Rect: Rect{
				X: plot.X + float64(i)*spacing,
				Y: plot.Bottom() - h,
				W: spacing * barFill,
				H: h,
			},
		}
	}
	return bars
}

func layoutLine(plot Rect, points []Point) []Marker {
	if len(points) == 0 {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, pt := range points {
		v := finite(pt.Value)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	n := len(points)
	markers := make([]Marker, n)
	for i, pt := range points {
		x := plot.X + plot.W/2
		if n > 1 {
			x = plot.X + float64(i)/float64(n-1)*plot.W
		}
		y := plot.Y + plot.H/2
		if span > 0 {
			y = plot.Bottom() - (finite(pt.Value)-lo)/span*plot.H
		}
		markers[i] = Marker{Label: pt.Label, Value: pt.Value, At: canvas.Point{X: x, Y: y}}
	}
	return markers
}

// layoutPie clamps negative values to 0. Slice boundaries come from the
// running total so the last slice ends exactly one turn after the first.
func layoutPie(cfg Config, center canvas.Point, radius float64, points []Point) []Slice {
	total := 0.0
	for _, pt := range points {
		total += math.Max(finite(pt.Value), 0)
	}
	if total <= 0 {
		return nil
	}
	const origin = -math.Pi / 2
	slices := make([]Slice, len(points))
	running := 0.0
	for i, pt := range points {
		v := math.Max(finite(pt.Value), 0)
		start := origin + running/total*2*math.Pi
		running += v
		end := origin + running/total*2*math.Pi
		if i == len(points)-1 {
			end = origin + 2*math.Pi
		}
		mid := start + (end-start)/2
		slices[i] = Slice{
			Label:   pt.Label,
			Value:   pt.Value,
			Start:   start,
			Sweep:   end - start,
			Percent: formatPercent(v, total),
			Color:   cfg.colorAt(i),
			LabelAt: canvas.Point{
				X: center.X + math.Cos(mid)*radius*pieLabelRatio,
				Y: center.Y + math.Sin(mid)*radius*pieLabelRatio,
			},
		}
	}
	return slices
}

func layoutLegend(cfg Config, points []Point) []LegendEntry {
	entries := make([]LegendEntry, len(points))
	x := float64(cfg.Width) - legendOffsetX
	for i, pt := range points {
		entries[i] = LegendEntry{
			Label:  pt.Label,
			Color:  cfg.colorAt(i),
			Swatch: Rect{X: x, Y: legendTop + float64(i)*legendStep, W: legendSwatch, H: legendSwatch},
		}
	}
	return entries
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
