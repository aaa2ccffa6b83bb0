package chart

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestBarLayout(t *testing.T) {
	e := newTestEngine(t)
	pts := []Point{{"a", 10}, {"b", 40}, {"c", 20}, {"d", 40}}
	l, err := e.Layout(TypeBar, pts)
	require.NoError(t, err)
	require.Len(t, l.Bars, 4)

	plot := l.Plot
	assert.Equal(t, Rect{X: 80, Y: 60, W: 680, H: 440}, plot)
	for i, b := range l.Bars {
		assert.InDelta(t, 60+float64(i)*110, b.Rect.Y, 1e-9)
		assert.InDelta(t, 77, b.Rect.H, 1e-9)
		assert.Equal(t, DefaultPalette()[i], b.Color)
	}
	assert.InDelta(t, plot.W, l.Bars[1].Rect.W, 1e-9, "max reaches full extent")
	assert.InDelta(t, plot.W, l.Bars[3].Rect.W, 1e-9)
	assert.Less(t, l.Bars[0].Rect.W, l.Bars[2].Rect.W)
	assert.Less(t, l.Bars[2].Rect.W, l.Bars[1].Rect.W)
	assert.Equal(t, "Bar Chart", l.Title)
	assert.Equal(t, 420.0, l.TitleAt.X)
}

func TestBarLengthsMonotonic(t *testing.T) {
	e := newTestEngine(t)
	pts := []Point{{"x", 1}, {"y", 2.5}, {"z", 1000}, {"w", 999.9}, {"v", 0}}
	l, err := e.Layout(TypeBar, pts)
	require.NoError(t, err)
	for i := range pts {
		for j := range pts {
			if pts[i].Value < pts[j].Value {
				assert.Less(t, l.Bars[i].Rect.W, l.Bars[j].Rect.W)
			}
		}
	}
}

func TestBarDegenerateValues(t *testing.T) {
	e := newTestEngine(t)
	t.Run("all zero", func(t *testing.T) {
		l, err := e.Layout(TypeBar, []Point{{"a", 0}, {"b", 0}})
		require.NoError(t, err)
		for _, b := range l.Bars {
			assert.Zero(t, b.Rect.W)
		}
	})
	t.Run("negatives clamp", func(t *testing.T) {
		l, err := e.Layout(TypeColumn, []Point{{"a", -5}, {"b", 10}})
		require.NoError(t, err)
		assert.Zero(t, l.Bars[0].Rect.H)
		assert.InDelta(t, l.Plot.H, l.Bars[1].Rect.H, 1e-9)
		assert.Equal(t, "-5", l.Bars[0].ValueText)
	})
	t.Run("all negative", func(t *testing.T) {
		l, err := e.Layout(TypeColumn, []Point{{"a", -5}, {"b", -1}})
		require.NoError(t, err)
		for _, b := range l.Bars {
			assert.Zero(t, b.Rect.H)
			assert.Equal(t, l.Plot.Bottom(), b.Rect.Y)
		}
	})
}

func TestColumnLayout(t *testing.T) {
	e := newTestEngine(t)
	l, err := e.Layout(TypeColumn, []Point{{"a", 50}, {"b", 100}})
	require.NoError(t, err)
	require.Len(t, l.Bars, 2)
	assert.InDelta(t, 80, l.Bars[0].Rect.X, 1e-9)
	assert.InDelta(t, 80+340, l.Bars[1].Rect.X, 1e-9)
	assert.InDelta(t, 340*0.7, l.Bars[0].Rect.W, 1e-9)
	assert.InDelta(t, 220, l.Bars[0].Rect.H, 1e-9)
	assert.InDelta(t, 500-220, l.Bars[0].Rect.Y, 1e-9)
	assert.InDelta(t, 60, l.Bars[1].Rect.Y, 1e-9)
}

func TestLineLayout(t *testing.T) {
	e := newTestEngine(t)
	t.Run("endpoints on plot bounds", func(t *testing.T) {
		l, err := e.Layout(TypeLine, []Point{{"Jan", 5}, {"Feb", 15}, {"Mar", 10}})
		require.NoError(t, err)
		m := l.Markers
		require.Len(t, m, 3)
		assert.InDelta(t, l.Plot.X, m[0].At.X, 1e-9)
		assert.InDelta(t, l.Plot.Right(), m[2].At.X, 1e-9)
		assert.InDelta(t, l.Plot.Bottom(), m[0].At.Y, 1e-9)
		assert.InDelta(t, l.Plot.Y, m[1].At.Y, 1e-9)
		assert.InDelta(t, l.Plot.Y+l.Plot.H/2, m[2].At.Y, 1e-9)
	})
	t.Run("all equal at midpoint", func(t *testing.T) {
		l, err := e.Layout(TypeLine, []Point{{"a", 7}, {"b", 7}, {"c", 7}})
		require.NoError(t, err)
		for _, m := range l.Markers {
			assert.InDelta(t, l.Plot.Y+l.Plot.H/2, m.At.Y, 1e-9)
		}
	})
	t.Run("single point centred", func(t *testing.T) {
		l, err := e.Layout(TypeLine, []Point{{"only", 3}})
		require.NoError(t, err)
		require.Len(t, l.Markers, 1)
		assert.InDelta(t, l.Plot.X+l.Plot.W/2, l.Markers[0].At.X, 1e-9)
		assert.InDelta(t, l.Plot.Y+l.Plot.H/2, l.Markers[0].At.Y, 1e-9)
	})
}

func TestPieLayout(t *testing.T) {
	e := newTestEngine(t)
	pts := []Point{{"a", 1}, {"b", 2}, {"c", 3}, {"d", 0.7}, {"e", -4}}
	l, err := e.Layout(TypePie, pts)
	require.NoError(t, err)

	assert.Equal(t, 400.0, l.Center.X)
	assert.Equal(t, 300.0, l.Center.Y)
	assert.InDelta(t, 200, l.Radius, 1e-9)
	require.Len(t, l.Slices, 5)
	assert.InDelta(t, -math.Pi/2, l.Slices[0].Start, 1e-12)

	sweep, pct := 0.0, 0.0
	for i, s := range l.Slices {
		assert.GreaterOrEqual(t, s.Sweep, 0.0)
		if i > 0 {
			prev := l.Slices[i-1]
			assert.InDelta(t, prev.Start+prev.Sweep, s.Start, 1e-12)
		}
		sweep += s.Sweep
		v, err := strconv.ParseFloat(strings.TrimSuffix(s.Percent, "%"), 64)
		require.NoError(t, err)
		pct += v
	}
	assert.InDelta(t, 2*math.Pi, sweep, 1e-9)
	assert.InDelta(t, 100, pct, 0.05*float64(len(pts)))
	assert.Equal(t, "0.0%", l.Slices[4].Percent)
	assert.Zero(t, l.Slices[4].Sweep)

	require.Len(t, l.Legend, 5)
	assert.Equal(t, Rect{X: 650, Y: 100, W: 20, H: 20}, l.Legend[0].Swatch)
	assert.Equal(t, 130.0, l.Legend[1].Swatch.Y)

	first := l.Slices[0]
	mid := first.Start + first.Sweep/2
	assert.InDelta(t, 400+math.Cos(mid)*140, first.LabelAt.X, 1e-9)
}

func TestPieZeroTotal(t *testing.T) {
	e := newTestEngine(t)
	l, err := e.Layout(TypePie, []Point{{"a", 0}, {"b", -1}})
	require.NoError(t, err)
	assert.Empty(t, l.Slices)
	assert.Len(t, l.Legend, 2)
}

func TestLayoutUnsupportedType(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Layout(Type("radar"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFormatValue(t *testing.T) {
	p := newPrinter()
	assert.Equal(t, "1,234,567.5", formatValue(p, 1234567.5))
	assert.Equal(t, "0.333", formatValue(p, 1.0/3))
	assert.Equal(t, "42", formatValue(p, 42))
	assert.Equal(t, "0", formatValue(p, math.NaN()))
	assert.Equal(t, "33.3%", formatPercent(1, 3))
	assert.Equal(t, "0.0%", formatPercent(1, 0))
}
