/*
LPIPS
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

// Package lpips implements the Learned Perceptual Image Patch Similarity
// distance on top of a convolutional feature network whose weights are read
// from .npy files.
//
// A weights directory holds, for every stage N counted from 1:
//
//	convN_weight.npy  [out, in, k, k]
//	convN_bias.npy    [out]
//	linN.npy          [out]
//
// The model is expensive to load, so callers normally go through Shared,
// which loads it once on first use and keeps it for the process lifetime.
package lpips

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/sbinet/npyio"

	"github.com/xswordsx/gifcompare/internal/logging"
)

// EnvWeights names the environment variable holding the default weights
// directory.
const EnvWeights = "GIFCOMPARE_LPIPS_WEIGHTS"

var (
	ErrNoWeights    = errors.New("no LPIPS weights directory configured")
	ErrTooSmall     = errors.New("image too small for the feature network")
	ErrSizeMismatch = errors.New("image dimensions differ")
)

// Input scaling applied after mapping RGB to [-1, 1].
var (
	scalingShift = [3]float64{-0.030, -0.088, -0.188}
	scalingScale = [3]float64{0.458, 0.448, 0.450}
)

// Model is a loaded LPIPS network.
type Model struct {
	arch   Arch
	layers []*layer
	device Device
}

// Load reads the weights for arch from dir.
func Load(dir string, arch Arch, dev Device) (*Model, error) {
	if dir == "" {
		return nil, ErrNoWeights
	}
	m := &Model{arch: arch, device: dev}
	in := arch.In
	for i, s := range arch.Stages {
		n := i + 1
		l := &layer{stage: s, in: in}
		var err error
		if l.weight, err = readNpy(filepath.Join(dir, fmt.Sprintf("conv%d_weight.npy", n)), s.Out*in*s.Kernel*s.Kernel); err != nil {
			return nil, err
		}
		if l.bias, err = readNpy(filepath.Join(dir, fmt.Sprintf("conv%d_bias.npy", n)), s.Out); err != nil {
			return nil, err
		}
		if l.lin, err = readNpy(filepath.Join(dir, fmt.Sprintf("lin%d.npy", n)), s.Out); err != nil {
			return nil, err
		}
		m.layers = append(m.layers, l)
		in = s.Out
	}
	return m, nil
}

// readNpy reads a float array of exactly want elements.
func readNpy(path string, want int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open weights %q: %w", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("could not read npy header %q: %w", path, err)
	}

	var out []float64
	switch r.Header.Descr.Type {
	case "<f4", "f4", "float32":
		var data []float32
		if err := r.Read(&data); err != nil {
			return nil, fmt.Errorf("could not read %q: %w", path, err)
		}
		out = make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
	default:
		if err := r.Read(&out); err != nil {
			return nil, fmt.Errorf("could not read %q: %w", path, err)
		}
	}
	if len(out) != want {
		return nil, fmt.Errorf("weights %q hold %d values, want %d", path, len(out), want)
	}
	return out, nil
}

// Device reports where the model runs.
func (m *Model) Device() Device {
	return m.device
}

func (m *Model) input(img *image.NRGBA) tensor {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	t := newTensor(3, h, w)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				v := float64(row[4*x+c])/255*2 - 1
				t.v[(c*h+y)*w+x] = (v - scalingShift[c]) / scalingScale[c]
			}
		}
	}
	return t
}

func (m *Model) features(ctx context.Context, img *image.NRGBA) ([]tensor, error) {
	x := m.input(img)
	taps := make([]tensor, 0, len(m.layers))
	for _, l := range m.layers {
		var err error
		if x, err = l.forward(ctx, x, m.device); err != nil {
			return nil, fmt.Errorf("%s: %w", l, err)
		}
		taps = append(taps, x)
	}
	return taps, nil
}

// Distance computes the LPIPS distance between a and b; lower is more similar.
func (m *Model) Distance(a, b *image.NRGBA) (float64, error) {
	return m.DistanceContext(context.Background(), a, b)
}

// DistanceContext is Distance with cancellation.
func (m *Model) DistanceContext(ctx context.Context, a, b *image.NRGBA) (float64, error) {
	if a.Rect.Size() != b.Rect.Size() {
		return 0, ErrSizeMismatch
	}
	fa, err := m.features(ctx, a)
	if err != nil {
		return 0, err
	}
	fb, err := m.features(ctx, b)
	if err != nil {
		return 0, err
	}
	var d float64
	for i, l := range m.layers {
		d += layerDistance(fa[i], fb[i], l.lin)
	}
	return d, nil
}

// Lazy loads a model on first use and caches the outcome, including a load
// failure, for its lifetime.
type Lazy struct {
	dir  string
	arch Arch

	once  sync.Once
	model *Model
	err   error
}

// NewLazy returns an unloaded model for the weights in dir.
func NewLazy(dir string, arch Arch) *Lazy {
	return &Lazy{dir: dir, arch: arch}
}

// Model loads the model if needed.
func (l *Lazy) Model() (*Model, error) {
	l.once.Do(func() {
		dev := SelectDevice()
		l.model, l.err = Load(l.dir, l.arch, dev)
		if l.err != nil {
			logging.Warningf("LPIPS unavailable, scores will be 0: %v", l.err)
			return
		}
		logging.Infof("LPIPS model loaded from %s on %s device", l.dir, dev)
	})
	return l.model, l.err
}

// Distance implements metrics.PerceptualScorer.
func (l *Lazy) Distance(a, b *image.NRGBA) (float64, error) {
	m, err := l.Model()
	if err != nil {
		return 0, err
	}
	return m.Distance(a, b)
}

var shared = struct {
	sync.Mutex
	models map[string]*Lazy
}{models: map[string]*Lazy{}}

// Shared returns the process-wide AlexNet model for dir. It is never torn
// down.
func Shared(dir string) *Lazy {
	shared.Lock()
	defer shared.Unlock()
	if l, ok := shared.models[dir]; ok {
		return l
	}
	l := NewLazy(dir, AlexNet())
	shared.models[dir] = l
	return l
}

// DefaultWeightsDir returns the directory named by EnvWeights.
func DefaultWeightsDir() string {
	return os.Getenv(EnvWeights)
}
