/*
GIF encoding
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

package framestore

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"io"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/xswordsx/gifcompare/internal/imgutil"
	"github.com/xswordsx/gifcompare/internal/logging"
)

var white = color.NRGBA{255, 255, 255, 255}

// toCentiseconds converts a duration in milliseconds to GIF delay units.
func toCentiseconds(ms int) int {
	return max(1, int(math.Round(float64(ms)/10)))
}

// quantize maps an opaque frame to a paletted image. Frames with at most 256
// distinct colours keep them exactly; others are dithered onto Plan9.
func quantize(img *image.NRGBA) *image.Paletted {
	index := make(map[color.NRGBA]uint8)
	var pal color.Palette
	exact := true
	for i := 0; i < len(img.Pix) && exact; i += 4 {
		c := color.NRGBA{img.Pix[i], img.Pix[i+1], img.Pix[i+2], 0xff}
		if _, ok := index[c]; ok {
			continue
		}
		if len(pal) == 256 {
			exact = false
			break
		}
		index[c] = uint8(len(pal))
		pal = append(pal, c)
	}

	if !exact {
		out := image.NewPaletted(img.Rect, palette.Plan9)
		xdraw.FloydSteinberg.Draw(out, img.Rect, img, img.Rect.Min)
		return out
	}
	out := image.NewPaletted(img.Rect, pal)
	for i, j := 0, 0; i < len(img.Pix); i, j = i+4, j+1 {
		out.Pix[j] = index[color.NRGBA{img.Pix[i], img.Pix[i+1], img.Pix[i+2], 0xff}]
	}
	return out
}

// EncodeGIF writes frames as an infinitely looping GIF. Transparency is
// composited onto white; durations are in milliseconds and missing entries
// use DefaultDuration. A GIF has a single logical screen, so frames whose
// size differs from the first frame's are scaled to it.
func EncodeGIF(w io.Writer, frames []image.Image, durations []int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	size := frames[0].Bounds().Size()
	g := &gif.GIF{
		LoopCount: 0,
		Config:    image.Config{Width: size.X, Height: size.Y},
	}
	for i, f := range frames {
		d := DefaultDuration
		if i < len(durations) {
			d = durations[i]
		}
		if f.Bounds().Size() != size {
			logging.Debugf("Scaling frame %d from %v to %v", i, f.Bounds().Size(), size)
			f = imgutil.Resize(f, size)
		}
		g.Image = append(g.Image, quantize(imgutil.FlattenOnto(f, white)))
		g.Delay = append(g.Delay, toCentiseconds(d))
	}
	return gif.EncodeAll(w, g)
}

// SaveGIF encodes frames to a new file at path.
func SaveGIF(path string, frames []image.Image, durations []int) (err error) {
	if len(frames) == 0 {
		return fmt.Errorf("saving %s: %w", path, ErrNoFrames)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("saving %s: %w", path, cerr)
		}
	}()
	if err := EncodeGIF(f, frames, durations); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	logging.Infof("Saved %d frames to %s", len(frames), path)
	return nil
}
