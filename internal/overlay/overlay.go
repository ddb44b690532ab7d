/*
Overlay
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

// Package overlay composites a ground truth frame and a predicted frame into a
// single image for visual comparison, and draws optional grids on top.
package overlay

import (
	"image"
	"image/color"

	"github.com/xswordsx/gifcompare/internal/imgutil"
	"github.com/xswordsx/gifcompare/internal/logging"
	"github.com/xswordsx/gifcompare/internal/metrics"
)

const (
	DefaultCheckerSize   = 32
	DefaultGridThickness = 1
	MinCheckerSize       = 4
)

var (
	// DefaultGTTint is the dual-colour tint of the ground truth frame.
	DefaultGTTint = color.NRGBA{0, 255, 0, 255}
	// DefaultPredTint is the dual-colour tint of the predicted frame.
	DefaultPredTint = color.NRGBA{255, 0, 255, 255}

	checkerLineColor = color.NRGBA{80, 80, 80, 255}
	checkerDotColor  = color.NRGBA{255, 80, 255, 255}
)

// Engine composites frame pairs in the selected Mode. The zero value is not
// usable; create one with NewEngine.
type Engine struct {
	mode    Mode
	flicker bool

	checkerSize   int
	gridThickness int
	gtTint        color.NRGBA
	predTint      color.NRGBA
}

// NewEngine returns an engine in SideBySide mode with default settings.
func NewEngine() *Engine {
	return &Engine{
		mode:          SideBySide,
		checkerSize:   DefaultCheckerSize,
		gridThickness: DefaultGridThickness,
		gtTint:        DefaultGTTint,
		predTint:      DefaultPredTint,
	}
}

func (e *Engine) SetMode(m Mode) { e.mode = m }
func (e *Engine) Mode() Mode     { return e.mode }

// ToggleFlicker flips which frame Flicker mode shows.
func (e *Engine) ToggleFlicker() { e.flicker = !e.flicker }

// FlickerPhase reports whether Flicker mode currently shows the ground truth.
func (e *Engine) FlickerPhase() bool { return e.flicker }

// SetCheckerSize sets the checkerboard cell size, at least MinCheckerSize.
func (e *Engine) SetCheckerSize(n int) { e.checkerSize = max(MinCheckerSize, n) }
func (e *Engine) CheckerSize() int     { return e.checkerSize }

// SetGridThickness sets the checkerboard line thickness, at least 1.
func (e *Engine) SetGridThickness(n int) { e.gridThickness = max(1, n) }
func (e *Engine) GridThickness() int     { return e.gridThickness }

// SetTints sets the dual-colour tints for the ground truth and prediction.
func (e *Engine) SetTints(gt, pred color.NRGBA) {
	e.gtTint = gt
	e.predTint = pred
}

func (e *Engine) Tints() (gt, pred color.NRGBA) { return e.gtTint, e.predTint }

// Composite renders a (ground truth) and b (prediction) in the current mode.
// Both are coerced to NRGBA and b is resized to a's dimensions when they
// differ. Composite always returns an image: a mode that fails yields a copy
// of a.
func (e *Engine) Composite(a, b image.Image) (out *image.NRGBA) {
	gt := imgutil.ToNRGBA(a)
	pred := imgutil.ToNRGBA(b)
	if !imgutil.SameSize(gt, pred) {
		pred = imgutil.Resize(pred, gt.Rect.Size())
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Warningf("overlay %s failed, showing ground truth: %v", e.mode, r)
			out = imgutil.Clone(gt)
		}
	}()

	switch e.mode {
	case Normal:
		return pred
	case DualColor:
		return e.dualColor(gt, pred)
	case Difference:
		return difference(gt, pred)
	case SSIMMap:
		return ssimMap(gt, pred)
	case Blend:
		return blend(gt, pred)
	case Flicker:
		if e.flicker {
			return gt
		}
		return pred
	case Checkerboard:
		return e.checkerboard(gt, pred)
	case SideBySide:
		return sideBySide(gt, pred)
	}
	return gt
}

func tintChannel(c color.NRGBA, i int) float64 {
	switch i {
	case 0:
		return float64(c.R)
	case 1:
		return float64(c.G)
	}
	return float64(c.B)
}

func (e *Engine) dualColor(gt, pred *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(gt.Rect)
	for i := 0; i < len(out.Pix); i += 4 {
		lg := imgutil.LumaF(gt.Pix[i], gt.Pix[i+1], gt.Pix[i+2])
		lp := imgutil.LumaF(pred.Pix[i], pred.Pix[i+1], pred.Pix[i+2])
		for c := 0; c < 3; c++ {
			v := imgutil.ClampU8(lg * tintChannel(e.gtTint, c) / 255)
			out.Pix[i+c] = imgutil.ClampU8(float64(v) + lp*tintChannel(e.predTint, c)/255)
		}
		out.Pix[i+3] = 0xff
	}
	return out
}

// heat maps a normalised difference to the blue-green-red band colour.
func heat(v float64) (r, g, b uint8) {
	d := v - 0.5
	if d < 0 {
		d = -d
	}
	return imgutil.ClampU8(v * 4 * 255), imgutil.ClampU8((1 - d*2) * 255), imgutil.ClampU8((1 - v) * 255)
}

func difference(gt, pred *image.NRGBA) *image.NRGBA {
	diff := make([]float64, len(gt.Pix)/4)
	var maxDiff float64
	for i := range diff {
		p := 4 * i
		var s float64
		for c := 0; c < 3; c++ {
			d := float64(gt.Pix[p+c]) - float64(pred.Pix[p+c])
			if d < 0 {
				d = -d
			}
			s += d
		}
		diff[i] = s / 3
		maxDiff = max(maxDiff, diff[i])
	}
	if maxDiff == 0 {
		maxDiff = 1
	}

	out := image.NewNRGBA(gt.Rect)
	for i, d := range diff {
		p := 4 * i
		out.Pix[p], out.Pix[p+1], out.Pix[p+2] = heat(d / maxDiff)
		out.Pix[p+3] = 0xff
	}
	return out
}

func ssimMap(gt, pred *image.NRGBA) *image.NRGBA {
	s, err := metrics.SSIMMap(gt, pred)
	if err != nil {
		logging.Debugf("ssim map unavailable, falling back to difference: %v", err)
		return difference(gt, pred)
	}
	out := image.NewNRGBA(gt.Rect)
	for i, v := range s {
		v = min(max((v+1)/2, 0), 1)
		p := 4 * i
		out.Pix[p] = uint8((1 - v) * 255)
		out.Pix[p+1] = uint8(v * 255)
		out.Pix[p+2] = 0
		out.Pix[p+3] = 0xff
	}
	return out
}

func blend(gt, pred *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(gt.Rect)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = uint8(float64(gt.Pix[i+c])*0.5 + float64(pred.Pix[i+c])*0.5)
		}
		out.Pix[i+3] = 0xff
	}
	return out
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func (e *Engine) checkerboard(gt, pred *image.NRGBA) *image.NRGBA {
	cs := e.checkerSize
	w, h := gt.Rect.Dx(), gt.Rect.Dy()
	out := image.NewNRGBA(gt.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := gt
			if (x/cs+y/cs)%2 != 0 {
				src = pred
			}
			i := out.PixOffset(x, y)
			copy(out.Pix[i:i+4], src.Pix[i:i+4])
		}
	}

	t := e.gridThickness
	for x := 0; x < w; x += cs {
		fillRect(out, image.Rect(x, 0, x+t, h), checkerLineColor)
	}
	for y := 0; y < h; y += cs {
		fillRect(out, image.Rect(0, y, w, y+t), checkerLineColor)
	}

	// Mark predicted tiles with a dot in their top-left corner.
	dot := max(3, cs/10)
	for ty := 0; ty*cs < h; ty++ {
		for tx := 0; tx*cs < w; tx++ {
			if (ty+tx)%2 == 1 {
				x0, y0 := tx*cs+2, ty*cs+2
				fillRect(out, image.Rect(x0, y0, x0+dot, y0+dot), checkerDotColor)
			}
		}
	}
	return out
}

func sideBySide(gt, pred *image.NRGBA) *image.NRGBA {
	w, h := gt.Rect.Dx(), gt.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, 2*w, h))
	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride:]
		copy(row[:4*w], gt.Pix[y*gt.Stride:y*gt.Stride+4*w])
		copy(row[4*w:8*w], pred.Pix[y*pred.Stride:y*pred.Stride+4*w])
	}
	return out
}
