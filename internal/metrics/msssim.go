/*
Multi-scale SSIM
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
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	gaussWindow = 11
	gaussSigma  = 1.5
	msLevels    = 5

	// MinMSSSIMSide is the shorter side an image must exceed for MS-SSIM:
	// after four 2x downsamplings the 11-tap window must still fit.
	MinMSSSIMSide = (gaussWindow - 1) * (1 << (msLevels - 1))
)

var msWeights = [msLevels]float64{0.0448, 0.2856, 0.3001, 0.2363, 0.1333}

var gaussKernel = func() []float64 {
	k := make([]float64, gaussWindow)
	for i := range k {
		c := float64(i - gaussWindow/2)
		k[i] = math.Exp(-(c * c) / (2 * gaussSigma * gaussSigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}()

// gaussianValid filters p with the separable Gaussian window, keeping only
// positions the window fully covers. A dimension smaller than the window is
// left unfiltered.
func gaussianValid(p plane) plane {
	out := p
	if out.w >= gaussWindow {
		nw := out.w - gaussWindow + 1
		tmp := newPlane(nw, out.h)
		for y := 0; y < out.h; y++ {
			row := out.v[y*out.w:]
			for x := 0; x < nw; x++ {
				tmp.v[y*nw+x] = floats.Dot(gaussKernel, row[x:x+gaussWindow])
			}
		}
		out = tmp
	}
	if out.h >= gaussWindow {
		nh := out.h - gaussWindow + 1
		tmp := newPlane(out.w, nh)
		for y := 0; y < nh; y++ {
			for x := 0; x < out.w; x++ {
				var sum float64
				for k := 0; k < gaussWindow; k++ {
					sum += gaussKernel[k] * out.v[(y+k)*out.w+x]
				}
				tmp.v[y*out.w+x] = sum
			}
		}
		out = tmp
	}
	return out
}

// gaussianSSIM returns the mean SSIM and mean contrast-structure terms for
// planes in the [0, 1] range.
func gaussianSSIM(a, b plane) (ssim, cs float64) {
	const c1 = ssimK1 * ssimK1
	const c2 = ssimK2 * ssimK2

	mu1 := gaussianValid(a)
	mu2 := gaussianValid(b)
	s11 := gaussianValid(a.mul(a))
	s22 := gaussianValid(b.mul(b))
	s12 := gaussianValid(a.mul(b))

	ssimVals := make([]float64, len(mu1.v))
	csVals := make([]float64, len(mu1.v))
	for i := range mu1.v {
		m1, m2 := mu1.v[i], mu2.v[i]
		sigma1 := s11.v[i] - m1*m1
		sigma2 := s22.v[i] - m2*m2
		sigma12 := s12.v[i] - m1*m2

		csVals[i] = (2*sigma12 + c2) / (sigma1 + sigma2 + c2)
		ssimVals[i] = ((2*m1*m2 + c1) / (m1*m1 + m2*m2 + c1)) * csVals[i]
	}
	return stat.Mean(ssimVals, nil), stat.Mean(csVals, nil)
}

// avgPool2 halves p with a 2x2 mean. Odd dimensions are zero padded on both
// sides and the padding counts towards the mean.
func avgPool2(p plane) plane {
	padX, padY := p.w%2, p.h%2
	nw := (p.w+2*padX-2)/2 + 1
	nh := (p.h+2*padY-2)/2 + 1
	out := newPlane(nw, nh)
	at := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= p.w || y >= p.h {
			return 0
		}
		return p.v[y*p.w+x]
	}
	for y := 0; y < nh; y++ {
		for x := 0; x < nw; x++ {
			sx, sy := 2*x-padX, 2*y-padY
			out.v[y*nw+x] = (at(sx, sy) + at(sx+1, sy) + at(sx, sy+1) + at(sx+1, sy+1)) / 4
		}
	}
	return out
}

// msssimChannel is the multi-scale SSIM of one channel pair.
func msssimChannel(a, b plane) float64 {
	result := 1.0
	for level := 0; level < msLevels; level++ {
		ssim, cs := gaussianSSIM(a, b)
		if level < msLevels-1 {
			result *= math.Pow(math.Max(cs, 0), msWeights[level])
			a, b = avgPool2(a), avgPool2(b)
			continue
		}
		result *= math.Pow(math.Max(ssim, 0), msWeights[level])
	}
	return result
}

// msssim computes MS-SSIM over RGB planes in [0, 1].
func msssim(a, b [3][]float64, w, h int) (float64, error) {
	if w <= MinMSSSIMSide || h <= MinMSSSIMSide {
		return 0, ErrTooSmall
	}
	var per [3]float64
	for c := 0; c < 3; c++ {
		per[c] = msssimChannel(plane{w: w, h: h, v: a[c]}, plane{w: w, h: h, v: b[c]})
	}
	return stat.Mean(per[:], nil), nil
}
