/*
Image utilities
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

// Package imgutil holds the pixel plumbing shared by the overlay and metrics
// engines: coercion to straight-alpha NRGBA, high-quality resampling and
// plane extraction.
package imgutil

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// ToNRGBA returns img as a zero-origin *image.NRGBA. Sources without alpha get
// alpha = 255. The result never aliases img.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			so := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+4*b.Dx()], src.Pix[so:so+4*b.Dx()])
		}
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				v := src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
				i := dst.PixOffset(x, y)
				dst.Pix[i+0] = v
				dst.Pix[i+1] = v
				dst.Pix[i+2] = v
				dst.Pix[i+3] = 0xff
			}
		}
	default:
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	return dst
}

// Clone copies an NRGBA image.
func Clone(img *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(img.Rect)
	copy(dst.Pix, img.Pix)
	return dst
}

// SameSize reports whether two images have identical dimensions.
func SameSize(a, b image.Image) bool {
	return a.Bounds().Size() == b.Bounds().Size()
}

// Resize scales img to exactly size using a Lanczos-3 filter.
func Resize(img image.Image, size image.Point) *image.NRGBA {
	if img.Bounds().Size() == size {
		return ToNRGBA(img)
	}
	return ToNRGBA(resize.Resize(uint(size.X), uint(size.Y), ToNRGBA(img), resize.Lanczos3))
}

// Fit scales img down, preserving aspect ratio, so that it fits inside size.
// Images that already fit are returned at their own size.
func Fit(img image.Image, size image.Point) *image.NRGBA {
	return ToNRGBA(resize.Thumbnail(uint(size.X), uint(size.Y), ToNRGBA(img), resize.Lanczos3))
}

// Luma is the 8-bit luminance of an RGB triple, truncated.
func Luma(r, g, b uint8) uint8 {
	return uint8(LumaF(r, g, b))
}

// LumaF is the floating-point luminance of an RGB triple.
func LumaF(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// Gray returns the truncated luminance plane of img as float64, row-major.
func Gray(img *image.NRGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := row[4*x:]
			out[y*w+x] = float64(Luma(p[0], p[1], p[2]))
		}
	}
	return out
}

// Planes returns the R, G and B planes of img scaled by 1/scale, dropping
// alpha.
func Planes(img *image.NRGBA, scale float64) [3][]float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	var out [3][]float64
	for c := range out {
		out[c] = make([]float64, w*h)
	}
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := row[4*x:]
			for c := 0; c < 3; c++ {
				out[c][y*w+x] = float64(p[c]) / scale
			}
		}
	}
	return out
}

// FlattenOnto composites img over an opaque background colour and returns an
// opaque NRGBA image. Channel values are truncated.
func FlattenOnto(img image.Image, bg color.NRGBA) *image.NRGBA {
	src := ToNRGBA(img)
	dst := image.NewNRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		a := float64(src.Pix[i+3]) / 255
		for c := 0; c < 3; c++ {
			var bc uint8
			switch c {
			case 0:
				bc = bg.R
			case 1:
				bc = bg.G
			default:
				bc = bg.B
			}
			dst.Pix[i+c] = uint8(float64(src.Pix[i+c])*a + float64(bc)*(1-a))
		}
		dst.Pix[i+3] = 0xff
	}
	return dst
}

// ClampU8 truncates v to a byte after clipping to [0, 255].
func ClampU8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
