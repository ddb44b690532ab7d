/*
Batch operations
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

// Package batch runs long, cancellable operations over whole frame
// sequences: exporting an overlay animation and averaging metrics over many
// predictions.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/xswordsx/gifcompare/internal/framestore"
	"github.com/xswordsx/gifcompare/internal/imgutil"
	"github.com/xswordsx/gifcompare/internal/logging"
	"github.com/xswordsx/gifcompare/internal/metrics"
	"github.com/xswordsx/gifcompare/internal/overlay"
)

var (
	ErrNoFrames      = errors.New("both sequences are empty")
	ErrNoGroundTruth = errors.New("no ground truth frames")
	ErrNoPairs       = errors.New("no file pairs")
)

// Progress is told how many of total steps are done after each step. It may
// be nil.
type Progress func(done, total int)

func (p Progress) report(done, total int) {
	if p != nil {
		p(done, total)
	}
}

// Frames is the read side of a frame sequence.
type Frames interface {
	Len() int
	FrameAt(i int) (image.Image, bool)
	DurationAt(i int) int
}

// OverlayFrames composites gt and pred frame by frame up to the longer of the
// two. Where only one side has a frame it is used as is. The grid, if non-nil,
// is drawn over every frame. Frames whose size differs from the first are
// scaled to it so the result forms a valid animation.
func OverlayFrames(ctx context.Context, gt, pred Frames, engine *overlay.Engine, grid *overlay.Grid, progress Progress) ([]image.Image, []int, error) {
	n := max(gt.Len(), pred.Len())
	if n == 0 {
		return nil, nil, ErrNoFrames
	}
	frames := make([]image.Image, 0, n)
	durations := make([]int, 0, n)
	var size image.Point
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		a, okA := gt.FrameAt(i)
		b, okB := pred.FrameAt(i)
		var out image.Image
		switch {
		case okA && okB:
			out = engine.Composite(a, b)
		case okA:
			out = a
		default:
			out = b
		}
		if grid != nil {
			out = grid.Apply(out)
		}
		if i == 0 {
			size = out.Bounds().Size()
		} else if out.Bounds().Size() != size {
			out = imgutil.Resize(out, size)
		}

		d := pred.DurationAt(i)
		if i < gt.Len() {
			d = gt.DurationAt(i)
		}
		frames = append(frames, out)
		durations = append(durations, d)
		progress.report(i+1, n)
	}
	return frames, durations, nil
}

// ExportOverlay renders OverlayFrames and writes them as a GIF to path.
// Nothing is written if ctx is cancelled first.
func ExportOverlay(ctx context.Context, gt, pred Frames, engine *overlay.Engine, grid *overlay.Grid, path string, progress Progress) error {
	frames, durations, err := OverlayFrames(ctx, gt, pred, engine, grid, progress)
	if err != nil {
		return err
	}
	logging.Infof("Exporting %d %s frames to %s", len(frames), engine.Mode(), path)
	return framestore.SaveGIF(path, frames, durations)
}

// FlickerFrames renders a flicker animation: for every index where both
// sequences have a frame, the prediction is followed by the ground truth, each
// shown for interval. Indices with a single frame show it for twice interval.
// Frames are scaled to the size of the first one.
func FlickerFrames(ctx context.Context, gt, pred Frames, grid *overlay.Grid, interval time.Duration, progress Progress) ([]image.Image, []int, error) {
	n := max(gt.Len(), pred.Len())
	if n == 0 {
		return nil, nil, ErrNoFrames
	}
	ms := int(interval / time.Millisecond)
	if ms <= 0 {
		return nil, nil, fmt.Errorf("flicker interval %s is too short", interval)
	}
	engine := overlay.NewEngine()
	engine.SetMode(overlay.Flicker)

	var frames []image.Image
	var durations []int
	var size image.Point
	add := func(img image.Image, d int) {
		if grid != nil {
			img = grid.Apply(img)
		}
		if len(frames) == 0 {
			size = img.Bounds().Size()
		} else if img.Bounds().Size() != size {
			img = imgutil.Resize(img, size)
		}
		frames = append(frames, img)
		durations = append(durations, d)
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		a, okA := gt.FrameAt(i)
		b, okB := pred.FrameAt(i)
		switch {
		case okA && okB:
			add(engine.Composite(a, b), ms)
			engine.ToggleFlicker()
			add(engine.Composite(a, b), ms)
			engine.ToggleFlicker()
		case okA:
			add(a, 2*ms)
		default:
			add(b, 2*ms)
		}
		progress.report(i+1, n)
	}
	return frames, durations, nil
}

// ExportFlicker renders FlickerFrames and writes them as a GIF to path.
// Nothing is written if ctx is cancelled first.
func ExportFlicker(ctx context.Context, gt, pred Frames, grid *overlay.Grid, interval time.Duration, path string, progress Progress) error {
	frames, durations, err := FlickerFrames(ctx, gt, pred, grid, interval, progress)
	if err != nil {
		return err
	}
	logging.Infof("Exporting %d flicker frames (%s each) to %s", len(frames), interval, path)
	return framestore.SaveGIF(path, frames, durations)
}

// FileMetrics is the sequence score of one predicted file.
type FileMetrics struct {
	Path    string                  `json:"path"`
	Metrics metrics.SequenceMetrics `json:"metrics"`
}

// Average is the result of AverageMetrics.
type Average struct {
	Metrics metrics.SequenceMetrics `json:"average"`
	Files   []FileMetrics           `json:"files"`
	// Skipped holds one error per prediction that could not be loaded.
	Skipped *multierror.Error `json:"-"`
}

// AverageMetrics scores every predicted GIF against gt and averages the
// sequence metrics of those that loaded.
func AverageMetrics(ctx context.Context, calc *metrics.Calculator, gt []image.Image, predPaths []string, progress Progress) (Average, error) {
	var res Average
	if len(gt) == 0 {
		return res, ErrNoGroundTruth
	}
	var seqs []metrics.SequenceMetrics
	for i, path := range predPaths {
		if err := ctx.Err(); err != nil {
			return Average{}, err
		}
		store, err := framestore.Open(path)
		if err != nil {
			logging.Warningf("Skipping %s: %v", path, err)
			res.Skipped = multierror.Append(res.Skipped, fmt.Errorf("%s: %w", path, err))
			progress.report(i+1, len(predPaths))
			continue
		}
		seq, _ := calc.SequenceMetrics(gt, store.Frames())
		seqs = append(seqs, seq)
		res.Files = append(res.Files, FileMetrics{Path: path, Metrics: seq})
		progress.report(i+1, len(predPaths))
	}
	res.Metrics = metrics.AverageSequenceMetrics(seqs)
	return res, nil
}

// Pair is a ground truth file and its prediction.
type Pair struct {
	GT   string `json:"gt"`
	Pred string `json:"pred"`
}

// AveragePairs scores each prediction against its own ground truth and
// averages the sequence metrics of the pairs where both files loaded.
func AveragePairs(ctx context.Context, calc *metrics.Calculator, pairs []Pair, progress Progress) (Average, error) {
	var res Average
	if len(pairs) == 0 {
		return res, ErrNoPairs
	}
	var seqs []metrics.SequenceMetrics
	for i, p := range pairs {
		if err := ctx.Err(); err != nil {
			return Average{}, err
		}
		seq, err := scorePair(calc, p)
		if err != nil {
			logging.Warningf("Skipping %s: %v", p.Pred, err)
			res.Skipped = multierror.Append(res.Skipped, err)
		} else {
			seqs = append(seqs, seq)
			res.Files = append(res.Files, FileMetrics{Path: p.Pred, Metrics: seq})
		}
		progress.report(i+1, len(pairs))
	}
	res.Metrics = metrics.AverageSequenceMetrics(seqs)
	return res, nil
}

func scorePair(calc *metrics.Calculator, p Pair) (metrics.SequenceMetrics, error) {
	gt, err := framestore.Open(p.GT)
	if err != nil {
		return metrics.SequenceMetrics{}, fmt.Errorf("%s: %w", p.GT, err)
	}
	pred, err := framestore.Open(p.Pred)
	if err != nil {
		return metrics.SequenceMetrics{}, fmt.Errorf("%s: %w", p.Pred, err)
	}
	seq, _ := calc.SequenceMetrics(gt.Frames(), pred.Frames())
	return seq, nil
}
