/*
LPIPS feature network
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

package lpips

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Stage is one convolution of the feature network, followed by a ReLU whose
// output is tapped for the distance.
type Stage struct {
	Out, Kernel, Stride, Pad int
	// PoolBefore applies a 3x3 stride 2 max-pool to the stage input.
	PoolBefore bool
}

// Arch describes the feature network.
type Arch struct {
	In     int
	Stages []Stage
}

// AlexNet is the feature network LPIPS ships linear weights for.
func AlexNet() Arch {
	return Arch{
		In: 3,
		Stages: []Stage{
			{Out: 64, Kernel: 11, Stride: 4, Pad: 2},
			{Out: 192, Kernel: 5, Stride: 1, Pad: 2, PoolBefore: true},
			{Out: 384, Kernel: 3, Stride: 1, Pad: 1, PoolBefore: true},
			{Out: 256, Kernel: 3, Stride: 1, Pad: 1},
			{Out: 256, Kernel: 3, Stride: 1, Pad: 1},
		},
	}
}

// Device selects how convolutions are scheduled.
type Device int

const (
	// DeviceSerial runs every convolution on the calling goroutine.
	DeviceSerial Device = iota
	// DeviceParallel fans output channels out across CPUs.
	DeviceParallel
)

func (d Device) String() string {
	if d == DeviceParallel {
		return "parallel"
	}
	return "serial"
}

// SelectDevice prefers DeviceParallel when more than one CPU is usable.
func SelectDevice() Device {
	if runtime.GOMAXPROCS(0) > 1 {
		return DeviceParallel
	}
	return DeviceSerial
}

// tensor is a CHW float tensor.
type tensor struct {
	c, h, w int
	v       []float64
}

func newTensor(c, h, w int) tensor {
	return tensor{c: c, h: h, w: w, v: make([]float64, c*h*w)}
}

func (t tensor) at(c, y, x int) float64 {
	return t.v[(c*t.h+y)*t.w+x]
}

// layer holds the weights of one stage.
type layer struct {
	stage  Stage
	in     int
	weight []float64 // [out][in][k][k]
	bias   []float64 // [out]
	lin    []float64 // [out], LPIPS channel weights
}

func maxPool3x2(t tensor) (tensor, error) {
	if t.h < 3 || t.w < 3 {
		return tensor{}, ErrTooSmall
	}
	oh, ow := (t.h-3)/2+1, (t.w-3)/2+1
	out := newTensor(t.c, oh, ow)
	for c := 0; c < t.c; c++ {
		for y := 0; y < oh; y++ {
			for x := 0; x < ow; x++ {
				m := math.Inf(-1)
				for ky := 0; ky < 3; ky++ {
					for kx := 0; kx < 3; kx++ {
						m = math.Max(m, t.at(c, 2*y+ky, 2*x+kx))
					}
				}
				out.v[(c*oh+y)*ow+x] = m
			}
		}
	}
	return out, nil
}

// convChannel computes output channel o of the convolution followed by ReLU.
func (l *layer) convChannel(in, out tensor, o int) {
	s := l.stage
	k := s.Kernel
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			sum := l.bias[o]
			for c := 0; c < l.in; c++ {
				wBase := ((o*l.in + c) * k) * k
				for ky := 0; ky < k; ky++ {
					iy := y*s.Stride + ky - s.Pad
					if iy < 0 || iy >= in.h {
						continue
					}
					for kx := 0; kx < k; kx++ {
						ix := x*s.Stride + kx - s.Pad
						if ix < 0 || ix >= in.w {
							continue
						}
						sum += l.weight[wBase+ky*k+kx] * in.at(c, iy, ix)
					}
				}
			}
			out.v[(o*out.h+y)*out.w+x] = math.Max(sum, 0)
		}
	}
}

func (l *layer) forward(ctx context.Context, in tensor, dev Device) (tensor, error) {
	var err error
	if l.stage.PoolBefore {
		if in, err = maxPool3x2(in); err != nil {
			return tensor{}, err
		}
	}
	s := l.stage
	oh := (in.h+2*s.Pad-s.Kernel)/s.Stride + 1
	ow := (in.w+2*s.Pad-s.Kernel)/s.Stride + 1
	if oh <= 0 || ow <= 0 {
		return tensor{}, ErrTooSmall
	}
	out := newTensor(s.Out, oh, ow)

	if dev == DeviceSerial {
		for o := 0; o < s.Out; o++ {
			l.convChannel(in, out, o)
		}
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for o := 0; o < s.Out; o++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l.convChannel(in, out, o)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return tensor{}, err
	}
	return out, nil
}

// unitNormalize scales each spatial feature vector to unit length.
func unitNormalize(t tensor) tensor {
	const eps = 1e-10
	out := newTensor(t.c, t.h, t.w)
	plane := t.h * t.w
	for i := 0; i < plane; i++ {
		var ss float64
		for c := 0; c < t.c; c++ {
			v := t.v[c*plane+i]
			ss += v * v
		}
		n := math.Sqrt(ss) + eps
		for c := 0; c < t.c; c++ {
			out.v[c*plane+i] = t.v[c*plane+i] / n
		}
	}
	return out
}

// layerDistance is the spatially averaged, channel-weighted squared distance
// between two normalised feature tensors.
func layerDistance(a, b tensor, lin []float64) float64 {
	na, nb := unitNormalize(a), unitNormalize(b)
	plane := a.h * a.w
	var total float64
	for i := 0; i < plane; i++ {
		var s float64
		for c := 0; c < a.c; c++ {
			d := na.v[c*plane+i] - nb.v[c*plane+i]
			s += lin[c] * d * d
		}
		total += s
	}
	return total / float64(plane)
}

func (l *layer) String() string {
	s := l.stage
	return fmt.Sprintf("conv %d->%d k%d s%d p%d pool=%t", l.in, s.Out, s.Kernel, s.Stride, s.Pad, s.PoolBefore)
}
