package chart

import (
	"errors"
	"fmt"
	"image/color"

	"sqlchat/internal/chart/canvas"
)

type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Config is copied by NewEngine; later changes to the caller's value have no effect.
type Config struct {
	Width       int
	Height      int
	Margins     Margins
	Palette     []color.RGBA
	Background  color.RGBA
	TextColor   color.RGBA
	AxisColor   color.RGBA
	LineColor   color.RGBA
	SliceBorder color.RGBA
	Titles      map[Type]string
}

var defaultPalette = []string{
	"#3b82f6", "#ef4444", "#10b981", "#f59e0b", "#8b5cf6",
	"#ec4899", "#14b8a6", "#f97316", "#6366f1", "#84cc16",
}

func DefaultPalette() []color.RGBA {
	out := make([]color.RGBA, len(defaultPalette))
	for i, h := range defaultPalette {
		out[i] = canvas.MustHex(h)
	}
	return out
}

func DefaultConfig() Config {
	return Config{
		Width:       800,
		Height:      600,
		Margins:     Margins{Top: 60, Right: 40, Bottom: 100, Left: 80},
		Palette:     DefaultPalette(),
		Background:  canvas.White,
		TextColor:   canvas.Black,
		AxisColor:   canvas.MustHex("#cccccc"),
		LineColor:   canvas.MustHex("#3b82f6"),
		SliceBorder: canvas.White,
		Titles: map[Type]string{
			TypeBar:    "Bar Chart",
			TypeColumn: "Column Chart",
			TypeLine:   "Line Chart",
			TypePie:    "Pie Chart",
		},
	}
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("chart size must be positive, got %dx%d", c.Width, c.Height)
	}
	m := c.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return errors.New("chart margins must not be negative")
	}
	if m.Left+m.Right >= float64(c.Width) || m.Top+m.Bottom >= float64(c.Height) {
		return errors.New("chart margins leave no plot area")
	}
	if len(c.Palette) == 0 {
		return errors.New("chart palette is empty")
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.Palette = append([]color.RGBA(nil), c.Palette...)
	out.Titles = make(map[Type]string, len(c.Titles))
	for k, v := range c.Titles {
		out.Titles[k] = v
	}
	return out
}

func (c Config) colorAt(i int) color.RGBA {
	return c.Palette[i%len(c.Palette)]
}

func (c Config) plot() Rect {
	return Rect{
		X: c.Margins.Left,
		Y: c.Margins.Top,
		W: float64(c.Width) - c.Margins.Left - c.Margins.Right,
		H: float64(c.Height) - c.Margins.Top - c.Margins.Bottom,
	}
}
