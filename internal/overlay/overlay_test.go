package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func gray(v uint8) color.NRGBA { return color.NRGBA{v, v, v, 255} }

var (
	red  = color.NRGBA{255, 0, 0, 255}
	blue = color.NRGBA{0, 0, 255, 255}
)

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	m, err := ParseMode("Side-By-Side")
	require.NoError(t, err)
	assert.Equal(t, SideBySide, m)

	_, err = ParseMode("sepia")
	assert.Error(t, err)
	assert.Equal(t, "Mode(42)", Mode(42).String())
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, SideBySide, e.Mode())
	assert.Equal(t, DefaultCheckerSize, e.CheckerSize())
	assert.Equal(t, 1, e.GridThickness())
	assert.False(t, e.FlickerPhase())

	e.SetCheckerSize(1)
	assert.Equal(t, MinCheckerSize, e.CheckerSize())
	e.SetGridThickness(0)
	assert.Equal(t, 1, e.GridThickness())
}

func TestCompositeDeterministic(t *testing.T) {
	a := solid(24, 20, gray(30))
	b := solid(24, 20, gray(200))
	for _, m := range Modes {
		t.Run(m.String(), func(t *testing.T) {
			e := NewEngine()
			e.SetMode(m)
			first := e.Composite(a, b)
			second := e.Composite(a, b)
			assert.Equal(t, first.Pix, second.Pix)
			assert.Equal(t, uint8(255), first.Pix[3])
		})
	}
}

func TestCompositeDoesNotAliasInputs(t *testing.T) {
	a := solid(8, 8, gray(10))
	b := solid(8, 8, gray(20))
	e := NewEngine()
	e.SetMode(Normal)
	out := e.Composite(a, b)
	out.Pix[0] = 99
	assert.Equal(t, uint8(20), b.Pix[0])
}

func TestSideBySide(t *testing.T) {
	a := solid(10, 6, red)
	b := solid(5, 3, blue)
	out := NewEngine().Composite(a, b)
	require.Equal(t, image.Rect(0, 0, 20, 6), out.Bounds())
	assert.Equal(t, red, out.NRGBAAt(9, 5))
	assert.Equal(t, blue, out.NRGBAAt(10, 0))
	assert.Equal(t, blue, out.NRGBAAt(19, 5))
}

func TestNormalResizesPrediction(t *testing.T) {
	e := NewEngine()
	e.SetMode(Normal)
	out := e.Composite(solid(12, 12, red), solid(4, 4, blue))
	assert.Equal(t, image.Rect(0, 0, 12, 12), out.Bounds())
	assert.Equal(t, blue, out.NRGBAAt(6, 6))
}

func TestBlend(t *testing.T) {
	e := NewEngine()
	e.SetMode(Blend)

	same := e.Composite(solid(4, 4, gray(77)), solid(4, 4, gray(77)))
	assert.Equal(t, gray(77), same.NRGBAAt(1, 1))

	mixed := e.Composite(solid(4, 4, gray(101)), solid(4, 4, gray(200)))
	assert.Equal(t, gray(150), mixed.NRGBAAt(2, 3))
}

func TestDifference(t *testing.T) {
	e := NewEngine()
	e.SetMode(Difference)

	same := e.Composite(solid(6, 6, gray(90)), solid(6, 6, gray(90)))
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, same.NRGBAAt(3, 3))

	a := solid(6, 6, gray(0))
	a.SetNRGBA(2, 2, gray(255))
	out := e.Composite(a, solid(6, 6, gray(0)))
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(2, 2))
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, out.NRGBAAt(0, 0))
}

func TestDualColor(t *testing.T) {
	e := NewEngine()
	e.SetMode(DualColor)
	green := color.NRGBA{0, 255, 0, 255}
	black := gray(0)

	out := e.Composite(solid(4, 4, green), solid(4, 4, black))
	assert.Equal(t, color.NRGBA{0, 149, 0, 255}, out.NRGBAAt(0, 0))

	out = e.Composite(solid(4, 4, black), solid(4, 4, green))
	assert.Equal(t, color.NRGBA{149, 0, 149, 255}, out.NRGBAAt(0, 0))
}

func TestSSIMMapMode(t *testing.T) {
	e := NewEngine()
	e.SetMode(SSIMMap)

	out := e.Composite(solid(16, 16, gray(120)), solid(16, 16, gray(120)))
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, out.NRGBAAt(8, 8))

	// Too small for a 7x7 window: falls back to the difference heat map.
	small := e.Composite(solid(4, 4, gray(120)), solid(4, 4, gray(120)))
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, small.NRGBAAt(1, 1))
}

func TestFlicker(t *testing.T) {
	e := NewEngine()
	e.SetMode(Flicker)
	a, b := solid(4, 4, red), solid(4, 4, blue)

	assert.Equal(t, blue, e.Composite(a, b).NRGBAAt(0, 0))
	e.ToggleFlicker()
	assert.True(t, e.FlickerPhase())
	assert.Equal(t, red, e.Composite(a, b).NRGBAAt(0, 0))
	e.ToggleFlicker()
	assert.Equal(t, blue, e.Composite(a, b).NRGBAAt(0, 0))
}

func TestCheckerboard(t *testing.T) {
	e := NewEngine()
	e.SetMode(Checkerboard)
	e.SetCheckerSize(16)
	out := e.Composite(solid(64, 64, red), solid(64, 64, blue))
	require.Equal(t, image.Rect(0, 0, 64, 64), out.Bounds())

	line := color.NRGBA{80, 80, 80, 255}
	dot := color.NRGBA{255, 80, 255, 255}
	tests := []struct {
		name string
		x, y int
		want color.NRGBA
	}{
		{"even tile", 8, 8, red},
		{"odd tile", 24, 8, blue},
		{"odd tile second row", 8, 24, blue},
		{"even tile diagonal", 40, 40, red},
		{"vertical line", 16, 9, line},
		{"horizontal line", 9, 32, line},
		{"origin", 0, 0, line},
		{"dot", 19, 3, dot},
		{"dot far corner", 20, 4, dot},
		{"past dot", 21, 5, blue},
		{"no dot on even tile", 35, 35, red},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, out.NRGBAAt(tc.x, tc.y))
		})
	}
}

func TestGridDefaults(t *testing.T) {
	g := NewGrid()
	assert.False(t, g.Enabled)
	assert.Equal(t, 32, g.Size)
	assert.Equal(t, 0.5, g.Opacity)
	assert.Equal(t, 1, g.Thickness)
	assert.Equal(t, color.NRGBA{128, 128, 128, 255}, g.Color)

	g.SetSize(2)
	assert.Equal(t, MinGridSize, g.Size)
	g.SetOpacity(3)
	assert.Equal(t, 1.0, g.Opacity)
	g.SetOpacity(-1)
	assert.Equal(t, 0.0, g.Opacity)
	g.SetThickness(-5)
	assert.Equal(t, 1, g.Thickness)
}

func TestGridDisabledIsIdentity(t *testing.T) {
	img := solid(8, 8, red)
	out := NewGrid().Apply(img)
	assert.Same(t, img, out)
}

func TestGridApply(t *testing.T) {
	g := NewGrid()
	g.SetEnabled(true)
	g.SetSize(4)
	g.SetColor(color.NRGBA{0, 0, 0, 255})
	src := solid(8, 8, color.NRGBA{255, 255, 255, 200})

	out, ok := g.Apply(src).(*image.NRGBA)
	require.True(t, ok)
	assert.Equal(t, color.NRGBA{255, 255, 255, 200}, out.NRGBAAt(1, 1))
	assert.Equal(t, color.NRGBA{127, 127, 127, 200}, out.NRGBAAt(0, 1))
	assert.Equal(t, color.NRGBA{127, 127, 127, 200}, out.NRGBAAt(2, 4))
	assert.Equal(t, color.NRGBA{63, 63, 63, 200}, out.NRGBAAt(4, 4))
	assert.Equal(t, uint8(255), src.Pix[0], "input left untouched")
}
