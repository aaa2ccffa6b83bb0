// Package canvas is a small raster surface for chart drawing: filled shapes,
// stroked lines, horizontal and rotated text, PNG output.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

type Point struct {
	X, Y float64
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextStyle mirrors the handful of font settings charts use. Size is in pixels.
type TextStyle struct {
	Size  float64
	Bold  bool
	Color color.RGBA
	Align Align
}

// Canvas is not safe for concurrent use; allocate one per render.
type Canvas struct {
	img   *image.RGBA
	faces faceCache
	ras   *vector.Rasterizer
}

func New(width, height int, background color.RGBA) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas: invalid size %dx%d", width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)
	return &Canvas{
		img: img,
		ras: vector.NewRasterizer(width, height),
	}, nil
}

func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) Width() int  { return c.img.Bounds().Dx() }
func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// Close releases font faces. The image stays valid.
func (c *Canvas) Close() {
	c.faces.close()
}

func (c *Canvas) FillRect(x, y, w, h float64, col color.RGBA) {
	if w <= 0 || h <= 0 || isBad(x, y, w, h) {
		return
	}
	c.FillPolygon([]Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}, col)
}

// FillPolygon fills a closed path with non-zero winding, anti-aliased.
func (c *Canvas) FillPolygon(pts []Point, col color.RGBA) {
	if len(pts) < 3 {
		return
	}
	minX, minY, maxX, maxY := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts {
		if isBad(p.X, p.Y) {
			return
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	r, ok := c.begin(minX, minY, maxX, maxY)
	if !ok {
		return
	}
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	c.ras.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		c.ras.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	c.ras.ClosePath()
	c.ras.Draw(c.img, r, image.NewUniform(col), image.Point{})
}

// begin sizes the rasterizer to the shape's bounding box, clipped to the
// image, so each primitive only touches the pixels it covers. Paths must be
// drawn relative to the returned rectangle's origin.
func (c *Canvas) begin(minX, minY, maxX, maxY float64) (image.Rectangle, bool) {
	r := image.Rect(
		int(math.Floor(minX))-1, int(math.Floor(minY))-1,
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	).Intersect(c.img.Bounds())
	if r.Empty() {
		return r, false
	}
	c.ras.Reset(r.Dx(), r.Dy())
	c.ras.DrawOp = draw.Over
	return r, true
}

// StrokeLine draws a segment of the given width with butt caps.
func (c *Canvas) StrokeLine(a, b Point, width float64, col color.RGBA) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 || width <= 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	c.FillPolygon([]Point{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	}, col)
}

// StrokePolyline joins consecutive points; joints are rounded.
func (c *Canvas) StrokePolyline(pts []Point, width float64, col color.RGBA) {
	for i := 1; i < len(pts); i++ {
		c.StrokeLine(pts[i-1], pts[i], width, col)
	}
	if width > 2 {
		for i := 1; i < len(pts)-1; i++ {
			c.FillCircle(pts[i], width/2, col)
		}
	}
}

// StrokePolygon strokes a closed outline.
func (c *Canvas) StrokePolygon(pts []Point, width float64, col color.RGBA) {
	if len(pts) < 2 {
		return
	}
	closed := append(append([]Point(nil), pts...), pts[0])
	c.StrokePolyline(closed, width, col)
	if width > 2 {
		c.FillCircle(pts[0], width/2, col)
	}
}

const kappa = 0.5522847498

func (c *Canvas) FillCircle(center Point, r float64, col color.RGBA) {
	if r <= 0 || isBad(center.X, center.Y, r) {
		return
	}
	r0, ok := c.begin(center.X-r, center.Y-r, center.X+r, center.Y+r)
	if !ok {
		return
	}
	cx, cy := float32(center.X-float64(r0.Min.X)), float32(center.Y-float64(r0.Min.Y))
	rr, k := float32(r), float32(r*kappa)
	c.ras.MoveTo(cx+rr, cy)
	c.ras.CubeTo(cx+rr, cy+k, cx+k, cy+rr, cx, cy+rr)
	c.ras.CubeTo(cx-k, cy+rr, cx-rr, cy+k, cx-rr, cy)
	c.ras.CubeTo(cx-rr, cy-k, cx-k, cy-rr, cx, cy-rr)
	c.ras.CubeTo(cx+k, cy-rr, cx+rr, cy-k, cx+rr, cy)
	c.ras.ClosePath()
	c.ras.Draw(c.img, r0, image.NewUniform(col), image.Point{})
}

// WedgePath returns the outline of a circular sector. Angles are radians,
// measured clockwise on screen from the positive x axis.
func WedgePath(center Point, r, start, sweep float64) []Point {
	if sweep <= 0 || r <= 0 {
		return nil
	}
	steps := int(math.Ceil(sweep * r / 2))
	if steps < 2 {
		steps = 2
	}
	pts := make([]Point, 0, steps+2)
	pts = append(pts, center)
	for i := 0; i <= steps; i++ {
		a := start + sweep*float64(i)/float64(steps)
		pts = append(pts, Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)})
	}
	return pts
}

func (c *Canvas) FillWedge(center Point, r, start, sweep float64, col color.RGBA) {
	if sweep >= 2*math.Pi-1e-9 {
		c.FillCircle(center, r, col)
		return
	}
	c.FillPolygon(WedgePath(center, r, start, sweep), col)
}

func (c *Canvas) StrokeWedge(center Point, r, start, sweep, width float64, col color.RGBA) {
	pts := WedgePath(center, r, start, sweep)
	if len(pts) == 0 {
		return
	}
	if sweep >= 2*math.Pi-1e-9 {
		// a full circle has no radial edges
		c.StrokePolyline(pts[1:], width, col)
		return
	}
	c.StrokePolygon(pts, width, col)
}

// MeasureText returns the advance width of s in pixels.
func (c *Canvas) MeasureText(s string, style TextStyle) float64 {
	face := c.faces.face(style.Size, style.Bold)
	return fixedToFloat(font.MeasureString(face, s))
}

// Text draws s with its baseline at y. x is the left edge, centre or right
// edge depending on style.Align.
func (c *Canvas) Text(s string, x, y float64, style TextStyle) {
	if s == "" || isBad(x, y) {
		return
	}
	face := c.faces.face(style.Size, style.Bold)
	x -= alignOffset(fixedToFloat(font.MeasureString(face, s)), style.Align)
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(style.Color),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(y)},
	}
	d.DrawString(s)
}

// TextRotated draws s rotated by angle radians around the anchor (x, y),
// which sits on the baseline at the aligned edge. Negative angles turn
// the text counter-clockwise on screen.
func (c *Canvas) TextRotated(s string, x, y, angle float64, style TextStyle) {
	if angle == 0 {
		c.Text(s, x, y, style)
		return
	}
	if s == "" || isBad(x, y, angle) {
		return
	}
	face := c.faces.face(style.Size, style.Bold)
	metrics := face.Metrics()
	ascent := fixedToFloat(metrics.Ascent)
	descent := fixedToFloat(metrics.Descent)
	width := fixedToFloat(font.MeasureString(face, s))
	const pad = 2.0

	tw := int(math.Ceil(width + 2*pad))
	th := int(math.Ceil(ascent + descent + 2*pad))
	if tw <= 0 || th <= 0 {
		return
	}
	tmp := image.NewRGBA(image.Rect(0, 0, tw, th))
	baseline := pad + ascent
	d := &font.Drawer{
		Dst:  tmp,
		Src:  image.NewUniform(style.Color),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(pad), Y: floatToFixed(baseline)},
	}
	d.DrawString(s)

	ax := pad + alignOffset(width, style.Align)
	ay := baseline
	cos, sin := math.Cos(angle), math.Sin(angle)
	m := f64.Aff3{
		cos, -sin, x - (cos*ax - sin*ay),
		sin, cos, y - (sin*ax + cos*ay),
	}
	xdraw.BiLinear.Transform(c.img, m, tmp, tmp.Bounds(), xdraw.Over, nil)
}

func (c *Canvas) EncodePNG(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, c.img); err != nil {
		return fmt.Errorf("canvas: encode png: %w", err)
	}
	return nil
}

func (c *Canvas) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func alignOffset(width float64, align Align) float64 {
	switch align {
	case AlignCenter:
		return width / 2
	case AlignRight:
		return width
	default:
		return 0
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func isBad(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
