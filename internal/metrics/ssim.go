/*
SSIM
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

package metrics

import (
	"gonum.org/v1/gonum/stat"
)

const (
	// ssimWindow is the side of the uniform SSIM window.
	ssimWindow = 7
	ssimK1     = 0.01
	ssimK2     = 0.03
	dataRange8 = 255.0
)

// plane is a single-channel float image, row-major.
type plane struct {
	w, h int
	v    []float64
}

func newPlane(w, h int) plane {
	return plane{w: w, h: h, v: make([]float64, w*h)}
}

func (p plane) mul(o plane) plane {
	out := newPlane(p.w, p.h)
	for i := range p.v {
		out.v[i] = p.v[i] * o.v[i]
	}
	return out
}

// reflectIndex maps i into [0, n) mirroring about the edges, repeating the
// edge sample (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

// uniformFilter is a separable box mean of the given size with reflected
// borders. The output has the input's size.
func uniformFilter(p plane, size int) plane {
	half := size / 2
	tmp := newPlane(p.w, p.h)
	for y := 0; y < p.h; y++ {
		row := p.v[y*p.w : (y+1)*p.w]
		for x := 0; x < p.w; x++ {
			var sum float64
			for k := -half; k < size-half; k++ {
				sum += row[reflectIndex(x+k, p.w)]
			}
			tmp.v[y*p.w+x] = sum / float64(size)
		}
	}
	out := newPlane(p.w, p.h)
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			var sum float64
			for k := -half; k < size-half; k++ {
				sum += tmp.v[reflectIndex(y+k, p.h)*p.w+x]
			}
			out.v[y*p.w+x] = sum / float64(size)
		}
	}
	return out
}

// ssimMap computes the local structural similarity of two equally sized
// planes with a 7x7 uniform window and sample covariance.
func ssimMap(a, b plane) (plane, error) {
	if a.w != b.w || a.h != b.h {
		return plane{}, ErrSizeMismatch
	}
	if a.w < ssimWindow || a.h < ssimWindow {
		return plane{}, ErrTooSmall
	}

	np := float64(ssimWindow * ssimWindow)
	covNorm := np / (np - 1)

	ux := uniformFilter(a, ssimWindow)
	uy := uniformFilter(b, ssimWindow)
	uxx := uniformFilter(a.mul(a), ssimWindow)
	uyy := uniformFilter(b.mul(b), ssimWindow)
	uxy := uniformFilter(a.mul(b), ssimWindow)

	c1 := (ssimK1 * dataRange8) * (ssimK1 * dataRange8)
	c2 := (ssimK2 * dataRange8) * (ssimK2 * dataRange8)

	s := newPlane(a.w, a.h)
	for i := range s.v {
		mx, my := ux.v[i], uy.v[i]
		vx := covNorm * (uxx.v[i] - mx*mx)
		vy := covNorm * (uyy.v[i] - my*my)
		vxy := covNorm * (uxy.v[i] - mx*my)

		a1 := 2*mx*my + c1
		a2 := 2*vxy + c2
		b1 := mx*mx + my*my + c1
		b2 := vx + vy + c2
		s.v[i] = (a1 * a2) / (b1 * b2)
	}
	return s, nil
}

// meanSSIM averages an SSIM map, ignoring the border the window could not
// fully cover.
func meanSSIM(s plane) float64 {
	pad := (ssimWindow - 1) / 2
	vals := make([]float64, 0, (s.w-2*pad)*(s.h-2*pad))
	for y := pad; y < s.h-pad; y++ {
		vals = append(vals, s.v[y*s.w+pad:y*s.w+s.w-pad]...)
	}
	return stat.Mean(vals, nil)
}
