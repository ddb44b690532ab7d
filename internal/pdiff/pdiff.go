/*
Metric
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

// Package pdiff decides whether two frames are perceptually identical using
// Yee's metric.
//
// References: A Perceptual Metric for Production Testing, Hector Yee,
// Journal of Graphics Tools 2004.
package pdiff

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/xswordsx/gifcompare/internal/imgutil"
	"github.com/xswordsx/gifcompare/internal/logging"
)

type Reason string

const (
	ReasonDimensionMismatch Reason = "Image dimensions do not match"
	ReasonBinaryIdentical   Reason = "Images are binary identical"
	ReasonIndistinguishable Reason = "Images are perceptually indistinguishable"
	ReasonVisiblyDifferent  Reason = "Images are visibly different"
)

// Parameters tune the comparison.
type Parameters struct {
	// Only consider luminance; ignore chroma channels in the comparison.
	LuminanceOnly bool `json:"luminance_only"`

	// Field of view in degrees. Range is [0.1, 89.9].
	FieldOfView float64 `json:"field_of_view"`

	// The gamma to convert to linear color space.
	Gamma float64 `json:"gamma"`

	// White luminance.
	Luminance float64 `json:"luminance"`

	// How many pixels different to ignore.
	ThresholdPixels int `json:"threshold_pixels"`

	// How much color to use in the metric.
	//   - 0.0 is the same as LuminanceOnly = true,
	//   - 1.0 means full strength.
	ColorFactor float64 `json:"color_factor"`
}

// DefaultParameters are the parameters used when none are configured.
var DefaultParameters = Parameters{
	FieldOfView:     45,
	Gamma:           2.2,
	Luminance:       100,
	ThresholdPixels: 100,
	ColorFactor:     1,
}

// Validate reports the first out-of-range parameter.
func (p Parameters) Validate() error {
	switch {
	case p.FieldOfView < 0.1 || p.FieldOfView > 89.9:
		return fmt.Errorf("field of view %g outside [0.1, 89.9]", p.FieldOfView)
	case p.Gamma <= 0:
		return errors.New("gamma must be positive")
	case p.Luminance <= 0:
		return errors.New("luminance must be positive")
	case p.ThresholdPixels < 0:
		return errors.New("threshold pixels must not be negative")
	case p.ColorFactor < 0 || p.ColorFactor > 1:
		return fmt.Errorf("color factor %g outside [0, 1]", p.ColorFactor)
	}
	return nil
}

// Result of comparing a pair of frames.
type Result struct {
	Index           int          `json:"frame"`
	Pass            bool         `json:"pass"`
	Reason          Reason       `json:"reason"`
	NumPixelsFailed int          `json:"pixels_failed"`
	ErrorSum        float64      `json:"error_sum"`
	Difference      *image.NRGBA `json:"-"` // failed pixels blue, others black
}

var (
	passColor = color.NRGBA{0, 0, 0, 255}
	failColor = color.NRGBA{0, 0, 255, 255}
)

// lab holds the per-pixel quantities the metric compares.
type lab struct {
	lum, a, b []float64
}

func toLab(img *image.NRGBA, p Parameters) lab {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := lab{make([]float64, w*h), make([]float64, w*h), make([]float64, w*h)}

	var linear [256]float64
	for i := range linear {
		linear[i] = math.Pow(float64(i)/255, p.Gamma)
	}

	var wg sync.WaitGroup
	for y := 0; y < h; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			row := img.Pix[y*img.Stride:]
			for x := 0; x < w; x++ {
				px := row[4*x:]
				// Colours are compared premultiplied, so transparent pixels
				// match black.
				alpha := uint32(px[3])
				r := linear[uint32(px[0])*alpha/255]
				g := linear[uint32(px[1])*alpha/255]
				b := linear[uint32(px[2])*alpha/255]

				i := y*w + x
				cx, cy, cz := adobeRGBToXYZ(r, g, b)
				_, out.a[i], out.b[i] = xyzToLab(cx, cy, cz)
				out.lum[i] = cy * p.Luminance
			}
		}(y)
	}
	wg.Wait()
	return out
}

// Compare runs Yee's metric over a and b. Frames are identical when fewer
// than ThresholdPixels pixels fail the perceptual test.
func Compare(a, b image.Image, p Parameters) Result {
	if !imgutil.SameSize(a, b) {
		return Result{Reason: ReasonDimensionMismatch}
	}
	na, nb := imgutil.ToNRGBA(a), imgutil.ToNRGBA(b)
	if string(na.Pix) == string(nb.Pix) {
		return Result{Pass: true, Reason: ReasonBinaryIdentical}
	}

	w, h := na.Rect.Dx(), na.Rect.Dy()
	logging.Debugf("pdiff: converting %dx%d frames to Lab", w, h)
	la, lb := toLab(na, p), toLab(nb, p)

	oneDegreePixels := toDegrees(2 * math.Tan(p.FieldOfView*toRadians(0.5)))
	pixelsPerDegree := float64(w) / oneDegreePixels
	adaptLevel := adaptationLevel(oneDegreePixels)

	var cpd [maxPyramidLevels]float64
	cpd[0] = 0.5 * pixelsPerDegree
	for i := 1; i < maxPyramidLevels; i++ {
		cpd[i] = 0.5 * cpd[i-1]
	}
	csfMax := csf(3.248, 100)
	var freq [maxPyramidLevels - 2]float64
	for i := range freq {
		freq[i] = csfMax / csf(cpd[i], 100)
	}

	logging.Debugf("pdiff: building pyramids")
	pa, pb := newPyramid(la.lum, w, h), newPyramid(lb.lum, w, h)

	diff := image.NewNRGBA(image.Rect(0, 0, w, h))
	failed := make([]int, h)
	errSum := make([]float64, h)

	var wg sync.WaitGroup
	for y := 0; y < h; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			for x := 0; x < w; x++ {
				i := y*w + x
				adapt := math.Max((pa.at(x, y, adaptLevel)+pb.at(x, y, adaptLevel))*0.5, 1e-5)

				var sumContrast, factor float64
				for l := 0; l < maxPyramidLevels-2; l++ {
					n1 := math.Abs(pa.at(x, y, l) - pa.at(x, y, l+1))
					n2 := math.Abs(pb.at(x, y, l) - pb.at(x, y, l+1))
					d1 := math.Abs(pa.at(x, y, l+2))
					d2 := math.Abs(pb.at(x, y, l+2))
					contrast := math.Max(n1, n2) / math.Max(math.Max(d1, d2), 1e-5)
					factor += contrast * freq[l] * mask(contrast*csf(cpd[l], adapt))
					sumContrast += contrast
				}
				factor /= math.Max(sumContrast, 1e-5)
				factor = math.Min(math.Max(factor, 1), 10)

				delta := math.Abs(pa.at(x, y, 0) - pb.at(x, y, 0))
				errSum[y] += delta
				pass := delta <= factor*tvi(adapt)

				if !p.LuminanceOnly {
					colorScale := p.ColorFactor
					// No colour test in scotopic regions.
					if adapt < 10 {
						colorScale = 0
					}
					da := la.a[i] - lb.a[i]
					db := la.b[i] - lb.b[i]
					deltaE := (da*da + db*db) * colorScale
					errSum[y] += deltaE
					if deltaE > factor {
						pass = false
					}
				}

				if pass {
					diff.SetNRGBA(x, y, passColor)
				} else {
					failed[y]++
					diff.SetNRGBA(x, y, failColor)
				}
			}
		}(y)
	}
	wg.Wait()

	res := Result{Difference: diff}
	for y := 0; y < h; y++ {
		res.NumPixelsFailed += failed[y]
		res.ErrorSum += errSum[y]
	}
	res.Pass = res.NumPixelsFailed < p.ThresholdPixels
	if res.Pass {
		res.Reason = ReasonIndistinguishable
	} else {
		res.Reason = ReasonVisiblyDifferent
	}
	return res
}

// CompareSequence compares frames pairwise up to the shorter length.
func CompareSequence(gt, pred []image.Image, p Parameters) []Result {
	n := min(len(gt), len(pred))
	out := make([]Result, n)
	for i := 0; i < n; i++ {
		out[i] = Compare(gt[i], pred[i], p)
		out[i].Index = i
	}
	return out
}
