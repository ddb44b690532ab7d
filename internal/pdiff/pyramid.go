/*
Laplacian pyramid
Copyright (C) 2006-2011 Yangli Hector Yee
Copyright (C) 2011-2016 Steven Myint, Jeff Terrace
Copyright (C) 2023 Ivan Latunov

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

package pdiff

const maxPyramidLevels = 8

var pyramidKernel = [5]float64{0.05, 0.25, 0.4, 0.25, 0.05}

// pyramid holds successively blurred copies of a luminance plane, all at
// full resolution.
type pyramid struct {
	w, h   int
	levels [maxPyramidLevels][]float64
}

func newPyramid(lum []float64, w, h int) *pyramid {
	p := &pyramid{w: w, h: h}
	p.levels[0] = lum
	for i := 1; i < maxPyramidLevels; i++ {
		if w*h <= 1 {
			p.levels[i] = lum
			continue
		}
		p.levels[i] = make([]float64, w*h)
		p.blur(p.levels[i], p.levels[i-1])
	}
	return p
}

func (p *pyramid) at(x, y, level int) float64 {
	return p.levels[level][y*p.w+x]
}

// mirror reflects i into [0, n) about the edges, repeating the edge sample.
func mirror(i, n int) int {
	if i < 0 {
		i = -i
	}
	if i >= n {
		i = 2*n - i - 1
	}
	return min(max(i, 0), n-1)
}

// blur writes the 5x5 separable-kernel convolution of src into dst.
func (p *pyramid) blur(dst, src []float64) {
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			var sum float64
			for i := -2; i <= 2; i++ {
				nx := mirror(x+i, p.w)
				for j := -2; j <= 2; j++ {
					ny := mirror(y+j, p.h)
					sum += pyramidKernel[i+2] * pyramidKernel[j+2] * src[ny*p.w+nx]
				}
			}
			dst[y*p.w+x] = sum
		}
	}
}
