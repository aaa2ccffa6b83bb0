package chart

import (
	"encoding/base64"
	"fmt"
	"image"
	"math"
	"runtime/debug"

	"sqlchat/internal/chart/canvas"
	"sqlchat/internal/logger"
)

const mimePNG = "image/png"

// Engine draws charts with a fixed Config. It holds no per-render state.
type Engine struct {
	cfg    Config
	encode func(*canvas.Canvas) ([]byte, error)
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chart config: %w", err)
	}
	return &Engine{
		cfg:    cfg.clone(),
		encode: (*canvas.Canvas).PNG,
	}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg.clone()
}

// Layout resolves geometry without drawing.
func (e *Engine) Layout(t Type, points []Point) (Layout, error) {
	if !t.Valid() {
		return Layout{}, fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
	return computeLayout(e.cfg, t, points, newPrinter())
}

// Render draws and encodes a chart. Any failure, including a panic while
// drawing, is logged and yields nil.
func (e *Engine) Render(t Type, points []Point) (out *Rendered) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("chart: render %s panicked: %v\n%s", t, r, debug.Stack())
			out = nil
		}
	}()
	c, _, err := e.draw(t, points)
	if err != nil {
		logger.Errorf("chart: render %s failed: %v", t, err)
		return nil
	}
	defer c.Close()
	raw, err := e.encode(c)
	if err != nil {
		logger.Errorf("chart: encode %s failed: %v", t, err)
		return nil
	}
	return &Rendered{
		Type:     t,
		MIMEType: mimePNG,
		Base64:   base64.StdEncoding.EncodeToString(raw),
		Width:    e.cfg.Width,
		Height:   e.cfg.Height,
	}
}

// Draw paints a chart and returns the raw image with its layout.
func (e *Engine) Draw(t Type, points []Point) (*image.RGBA, Layout, error) {
	c, l, err := e.draw(t, points)
	if err != nil {
		return nil, Layout{}, err
	}
	defer c.Close()
	return c.Image(), l, nil
}

func (e *Engine) draw(t Type, points []Point) (*canvas.Canvas, Layout, error) {
	l, err := e.Layout(t, points)
	if err != nil {
		return nil, Layout{}, err
	}
	c, err := canvas.New(e.cfg.Width, e.cfg.Height, e.cfg.Background)
	if err != nil {
		return nil, Layout{}, err
	}
	e.paintTitle(c, l)
	switch t {
	case TypeBar:
		e.paintBars(c, l)
	case TypeColumn:
		e.paintColumns(c, l)
	case TypeLine:
		e.paintLine(c, l)
	case TypePie:
		e.paintPie(c, l)
	}
	return c, l, nil
}

func (e *Engine) text(size float64, bold bool, align canvas.Align) canvas.TextStyle {
	return canvas.TextStyle{Size: size, Bold: bold, Color: e.cfg.TextColor, Align: align}
}

func (e *Engine) paintTitle(c *canvas.Canvas, l Layout) {
	c.Text(l.Title, l.TitleAt.X, l.TitleAt.Y, e.text(20, true, canvas.AlignCenter))
}

func (e *Engine) paintBars(c *canvas.Canvas, l Layout) {
	label := e.text(14, false, canvas.AlignRight)
	value := e.text(14, false, canvas.AlignLeft)
	for _, b := range l.Bars {
		c.FillRect(b.Rect.X, b.Rect.Y, b.Rect.W, b.Rect.H, b.Color)
		baseline := b.Rect.Y + b.Rect.H/2 + 5
		c.Text(b.Label, l.Plot.X-labelGap, baseline, label)
		c.Text(b.ValueText, b.Rect.Right()+valueGap, baseline, value)
	}
}

func (e *Engine) paintColumns(c *canvas.Canvas, l Layout) {
	value := e.text(12, false, canvas.AlignCenter)
	label := e.text(12, false, canvas.AlignRight)
	for _, b := range l.Bars {
		c.FillRect(b.Rect.X, b.Rect.Y, b.Rect.W, b.Rect.H, b.Color)
		cx := b.Rect.X + b.Rect.W/2
		c.Text(b.ValueText, cx, b.Rect.Y-valueGap, value)
		c.TextRotated(b.Label, cx, l.Plot.Bottom()+axisLabelDrop, -math.Pi/4, label)
	}
}

func (e *Engine) paintLine(c *canvas.Canvas, l Layout) {
	p := l.Plot
	c.StrokePolyline([]canvas.Point{
		{X: p.X, Y: p.Y},
		{X: p.X, Y: p.Bottom()},
		{X: p.Right(), Y: p.Bottom()},
	}, 1, e.cfg.AxisColor)

	path := make([]canvas.Point, len(l.Markers))
	for i, m := range l.Markers {
		path[i] = m.At
	}
	c.StrokePolyline(path, 3, e.cfg.LineColor)

	label := e.text(12, false, canvas.AlignCenter)
	for _, m := range l.Markers {
		c.FillCircle(m.At, markerRadius, e.cfg.LineColor)
		c.Text(m.Label, m.At.X, p.Bottom()+axisLabelDrop, label)
	}
}

func (e *Engine) paintPie(c *canvas.Canvas, l Layout) {
	pct := canvas.TextStyle{Size: 14, Bold: true, Color: e.cfg.SliceBorder, Align: canvas.AlignCenter}
	for _, s := range l.Slices {
		if s.Sweep <= 0 {
			continue
		}
		c.FillWedge(l.Center, l.Radius, s.Start, s.Sweep, s.Color)
		c.StrokeWedge(l.Center, l.Radius, s.Start, s.Sweep, 2, e.cfg.SliceBorder)
		c.Text(s.Percent, s.LabelAt.X, s.LabelAt.Y, pct)
	}

	legend := e.text(14, false, canvas.AlignLeft)
	for _, entry := range l.Legend {
		sw := entry.Swatch
		c.FillRect(sw.X, sw.Y, sw.W, sw.H, entry.Color)
		c.Text(entry.Label, sw.X+30, sw.Y+15, legend)
	}
}
