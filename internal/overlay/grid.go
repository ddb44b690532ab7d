/*
Grid overlay
Copyright (C) 2026 Ivan Latunov

This program is free software; you can redistribute it and/or modify it under
the terms of the GNU General Public License as published by the Free Software
Foundation; either version 2 of the License, or (at your option) any later
version.

This program is distributed in the hope that it will be useful, but WITHOUT ANY
WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
PARTICULAR PURPOSE.  See the GNU General Public License for more details.

You should have received a copy of the GNU General Public License along with
this program; if not, write to the Free Software Foundation, Inc., 59 Temple
Place, Suite 330, Boston, MA 02111-1307 USA
*/

package overlay

import (
	"image"
	"image/color"

	"github.com/xswordsx/gifcompare/internal/imgutil"
)

const (
	DefaultGridSize    = 32
	DefaultGridOpacity = 0.5
	MinGridSize        = 4
)

// DefaultGridColor is the line colour of a new Grid.
var DefaultGridColor = color.NRGBA{128, 128, 128, 255}

// Grid draws evenly spaced, semi-transparent lines over an image.
type Grid struct {
	Enabled   bool
	Size      int
	Color     color.NRGBA
	Opacity   float64
	Thickness int
}

// NewGrid returns a disabled grid with default settings.
func NewGrid() *Grid {
	return &Grid{
		Size:      DefaultGridSize,
		Color:     DefaultGridColor,
		Opacity:   DefaultGridOpacity,
		Thickness: 1,
	}
}

func (g *Grid) SetEnabled(on bool)     { g.Enabled = on }
func (g *Grid) SetSize(n int)          { g.Size = max(MinGridSize, n) }
func (g *Grid) SetColor(c color.NRGBA) { g.Color = c }
func (g *Grid) SetOpacity(o float64)   { g.Opacity = min(max(o, 0), 1) }
func (g *Grid) SetThickness(n int)     { g.Thickness = max(1, n) }

// lineHits counts, for each coordinate in [0, n), how many lines of the given
// spacing and thickness cover it.
func lineHits(n, spacing, thickness int) []int {
	hits := make([]int, n)
	for start := 0; start < n; start += spacing {
		for i := start; i < start+thickness && i < n; i++ {
			hits[i]++
		}
	}
	return hits
}

// Apply draws the grid over img. A disabled grid returns img itself.
// Otherwise the result is a new NRGBA image whose line pixels are blended
// towards the grid colour by Opacity, once per covering line; alpha is left
// untouched.
func (g *Grid) Apply(img image.Image) image.Image {
	if !g.Enabled {
		return img
	}
	out := imgutil.ToNRGBA(img)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	spacing := max(1, g.Size)
	thickness := max(1, g.Thickness)
	cols := lineHits(w, spacing, thickness)
	rows := lineHits(h, spacing, thickness)

	gc := [3]float64{float64(g.Color.R), float64(g.Color.G), float64(g.Color.B)}
	a := g.Opacity
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := cols[x] + rows[y]
			if n == 0 {
				continue
			}
			i := out.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float64(out.Pix[i+c])
				for k := 0; k < n; k++ {
					v = v*(1-a) + gc[c]*a
				}
				out.Pix[i+c] = uint8(v)
			}
		}
	}
	return out
}
