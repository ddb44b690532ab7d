/*
Metrics
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

// Package metrics computes image-quality scores between ground truth and
// predicted frames and aggregates them over sequences.
//
// Every metric recovers from its own failures: a frame pair that cannot be
// scored (mismatched sizes, frames too small for the window, an unavailable
// perceptual network) scores 0.0, or the simpler SSIM in the case of MS-SSIM.
// A 0.0 is therefore ambiguous between a true zero and a failure.
package metrics

import (
	"errors"
	"image"
	"math"

	"github.com/xswordsx/gifcompare/internal/imgutil"
	"github.com/xswordsx/gifcompare/internal/logging"
	"github.com/xswordsx/gifcompare/internal/lpips"
)

// MaxPSNR is reported for frames that are identical. Other PSNR values are
// not capped; large frames with tiny errors may score above it.
const MaxPSNR = 100.0

var (
	ErrSizeMismatch = errors.New("frame dimensions differ")
	ErrTooSmall     = errors.New("frame too small for the metric window")
)

// FrameMetrics holds the scores of one frame pair.
type FrameMetrics struct {
	FrameIndex int     `json:"frame"`
	PSNR       float64 `json:"psnr"`
	SSIM       float64 `json:"ssim"`
	MSSSIM     float64 `json:"ms_ssim"`
	LPIPS      float64 `json:"lpips"`
	MSE        float64 `json:"mse"`
	MAE        float64 `json:"mae"`
}

// SequenceMetrics holds scores averaged over a sequence, or over several
// sequences.
type SequenceMetrics struct {
	PSNR       float64 `json:"psnr"`
	SSIM       float64 `json:"ssim"`
	MSSSIM     float64 `json:"ms_ssim"`
	LPIPS      float64 `json:"lpips"`
	MSE        float64 `json:"mse"`
	MAE        float64 `json:"mae"`
	FrameCount int     `json:"frame_count"`
}

// PerceptualScorer computes a learned perceptual distance; lower is more
// similar.
type PerceptualScorer interface {
	Distance(a, b *image.NRGBA) (float64, error)
}

// Calculator computes metrics between frame pairs.
type Calculator struct {
	perceptual PerceptualScorer
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithPerceptual replaces the LPIPS scorer.
func WithPerceptual(p PerceptualScorer) Option {
	return func(c *Calculator) {
		c.perceptual = p
	}
}

// WithLPIPSWeights selects the process-wide LPIPS model loaded from dir.
func WithLPIPSWeights(dir string) Option {
	return func(c *Calculator) {
		c.perceptual = lpips.Shared(dir)
	}
}

// NewCalculator returns a Calculator. Without options LPIPS uses the shared
// model from lpips.DefaultWeightsDir.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{}
	for _, o := range opts {
		o(c)
	}
	if c.perceptual == nil {
		c.perceptual = lpips.Shared(lpips.DefaultWeightsDir())
	}
	return c
}

// pair is a frame pair coerced once for all metrics.
type pair struct {
	a, b *image.NRGBA
}

func newPair(a, b image.Image) pair {
	return pair{a: imgutil.ToNRGBA(a), b: imgutil.ToNRGBA(b)}
}

func (p pair) sameSize() bool {
	return p.a.Rect.Size() == p.b.Rect.Size()
}

// PSNR is the peak signal-to-noise ratio over RGB in dB.
func (c *Calculator) PSNR(a, b image.Image) float64 {
	return newPair(a, b).psnr()
}

func (p pair) psnr() float64 {
	if !p.sameSize() {
		logging.Debugf("psnr: %v", ErrSizeMismatch)
		return 0
	}
	mse := p.meanError(func(d float64) float64 { return d * d }, 1)
	if mse == 0 {
		return MaxPSNR
	}
	return 10 * math.Log10(dataRange8*dataRange8/mse)
}

// MSE is the mean squared error over RGB normalised to [0, 1].
func (c *Calculator) MSE(a, b image.Image) float64 {
	return newPair(a, b).mse()
}

func (p pair) mse() float64 {
	if !p.sameSize() {
		logging.Debugf("mse: %v", ErrSizeMismatch)
		return 0
	}
	return p.meanError(func(d float64) float64 { return d * d }, dataRange8)
}

// MAE is the mean absolute error over RGB normalised to [0, 1].
func (c *Calculator) MAE(a, b image.Image) float64 {
	return newPair(a, b).mae()
}

func (p pair) mae() float64 {
	if !p.sameSize() {
		logging.Debugf("mae: %v", ErrSizeMismatch)
		return 0
	}
	return p.meanError(math.Abs, dataRange8)
}

// meanError averages f over the per-channel RGB differences divided by scale.
func (p pair) meanError(f func(float64) float64, scale float64) float64 {
	w, h := p.a.Rect.Dx(), p.a.Rect.Dy()
	if w*h == 0 {
		return 0
	}
	var sum float64
	for y := 0; y < h; y++ {
		ra := p.a.Pix[y*p.a.Stride:]
		rb := p.b.Pix[y*p.b.Stride:]
		for x := 0; x < w; x++ {
			for ch := 0; ch < 3; ch++ {
				i := 4*x + ch
				sum += f(float64(ra[i])/scale - float64(rb[i])/scale)
			}
		}
	}
	return sum / float64(3*w*h)
}

// SSIM is the global structural similarity of the luminance planes.
func (c *Calculator) SSIM(a, b image.Image) float64 {
	return newPair(a, b).ssim()
}

func (p pair) ssim() float64 {
	s, err := p.ssimMap()
	if err != nil {
		logging.Debugf("ssim: %v", err)
		return 0
	}
	return meanSSIM(s)
}

func (p pair) ssimMap() (plane, error) {
	w, h := p.a.Rect.Dx(), p.a.Rect.Dy()
	if !p.sameSize() {
		return plane{}, ErrSizeMismatch
	}
	return ssimMap(plane{w: w, h: h, v: imgutil.Gray(p.a)}, plane{w: w, h: h, v: imgutil.Gray(p.b)})
}

// SSIMMap returns the per-pixel SSIM of the luminance planes of a and b,
// row-major with a's width, values in [-1, 1].
func SSIMMap(a, b image.Image) ([]float64, error) {
	s, err := newPair(a, b).ssimMap()
	if err != nil {
		return nil, err
	}
	return s.v, nil
}

// MSSSIM is the multi-scale structural similarity over RGB. Frames whose
// shorter side does not exceed MinMSSSIMSide score plain SSIM.
func (c *Calculator) MSSSIM(a, b image.Image) float64 {
	return newPair(a, b).msssim()
}

func (p pair) msssim() float64 {
	if !p.sameSize() {
		return p.ssim()
	}
	w, h := p.a.Rect.Dx(), p.a.Rect.Dy()
	v, err := msssim(imgutil.Planes(p.a, dataRange8), imgutil.Planes(p.b, dataRange8), w, h)
	if err != nil {
		return p.ssim()
	}
	return v
}

// LPIPS is the learned perceptual distance between a and b.
func (c *Calculator) LPIPS(a, b image.Image) float64 {
	return c.lpips(newPair(a, b))
}

func (c *Calculator) lpips(p pair) float64 {
	d, err := c.perceptual.Distance(p.a, p.b)
	if err != nil {
		logging.Debugf("lpips: %v", err)
		return 0
	}
	return d
}

// FrameMetrics computes all six metrics for one frame pair.
func (c *Calculator) FrameMetrics(a, b image.Image, index int) FrameMetrics {
	p := newPair(a, b)
	return FrameMetrics{
		FrameIndex: index,
		PSNR:       p.psnr(),
		SSIM:       p.ssim(),
		MSSSIM:     p.msssim(),
		LPIPS:      c.lpips(p),
		MSE:        p.mse(),
		MAE:        p.mae(),
	}
}

// SequenceMetrics pairs frames positionally up to the shorter sequence and
// returns the averaged metrics plus the per-frame list in index order.
func (c *Calculator) SequenceMetrics(as, bs []image.Image) (SequenceMetrics, []FrameMetrics) {
	n := min(len(as), len(bs))
	frames := make([]FrameMetrics, 0, n)
	for i := 0; i < n; i++ {
		frames = append(frames, c.FrameMetrics(as[i], bs[i], i))
	}
	return Aggregate(frames), frames
}
