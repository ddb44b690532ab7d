package batch

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xswordsx/gifcompare/internal/framestore"
	"github.com/xswordsx/gifcompare/internal/logging"
	"github.com/xswordsx/gifcompare/internal/metrics"
	"github.com/xswordsx/gifcompare/internal/overlay"
)

func init() { logging.SetLogger(nil) }

func solid(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

func store(t *testing.T, w, h int, durations ...int) *framestore.Store {
	t.Helper()
	s := framestore.New()
	for i, d := range durations {
		require.NoError(t, s.Append(solid(w, h, uint8(40*i)), d))
	}
	return s
}

type zeroScorer struct{}

func (zeroScorer) Distance(a, b *image.NRGBA) (float64, error) { return 0, nil }

func TestOverlayFramesDurations(t *testing.T) {
	engine := overlay.NewEngine()
	engine.SetMode(overlay.Blend)

	tests := []struct {
		name      string
		gt, pred  []int
		durations []int
	}{
		{"gt longer", []int{30, 40, 50}, []int{70, 80}, []int{30, 40, 50}},
		{"pred longer", []int{30}, []int{70, 80, 90}, []int{30, 80, 90}},
		{"pred only", nil, []int{70}, []int{70}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frames, durations, err := OverlayFrames(context.Background(),
				store(t, 8, 8, tc.gt...), store(t, 8, 8, tc.pred...), engine, nil, nil)
			require.NoError(t, err)
			assert.Len(t, frames, len(tc.durations))
			assert.Equal(t, tc.durations, durations)
		})
	}
}

func TestOverlayFramesUniformSize(t *testing.T) {
	engine := overlay.NewEngine() // side by side doubles the width
	frames, _, err := OverlayFrames(context.Background(),
		store(t, 8, 6, 10, 10, 10), store(t, 8, 6, 10), engine, nil, nil)
	require.NoError(t, err)
	for _, f := range frames {
		assert.Equal(t, image.Pt(16, 6), f.Bounds().Size())
	}
}

func TestOverlayFramesGridAndProgress(t *testing.T) {
	engine := overlay.NewEngine()
	engine.SetMode(overlay.Normal)
	grid := overlay.NewGrid()
	grid.SetEnabled(true)
	grid.SetSize(4)
	grid.SetColor(color.NRGBA{0, 0, 0, 255})

	var calls [][2]int
	frames, _, err := OverlayFrames(context.Background(),
		store(t, 8, 8, 10, 10), store(t, 8, 8, 10, 10), engine, grid,
		func(done, total int) { calls = append(calls, [2]int{done, total}) })
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)

	r, _, _, _ := frames[1].At(0, 0).RGBA()
	assert.Less(t, r>>8, uint32(40), "grid line darkens the frame")
}

func TestExportOverlay(t *testing.T) {
	out := filepath.Join(t.TempDir(), "overlay.gif")
	engine := overlay.NewEngine()
	require.NoError(t, ExportOverlay(context.Background(),
		store(t, 8, 8, 30, 40), store(t, 8, 8, 50), engine, nil, out, nil))

	back, err := framestore.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 2, back.Len())
	assert.Equal(t, []int{30, 40}, back.Durations())
	assert.Equal(t, image.Pt(16, 8), back.Size())
}

func TestFlickerFrames(t *testing.T) {
	pred := framestore.New()
	require.NoError(t, pred.Append(solid(8, 8, 200), 10))

	frames, durations, err := FlickerFrames(context.Background(),
		store(t, 8, 8, 10, 10), pred, nil, 150*time.Millisecond, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{150, 150, 300}, durations)

	require.Len(t, frames, 3)
	for i, want := range []uint8{200, 0, 40} {
		got := color.NRGBAModel.Convert(frames[i].At(2, 2)).(color.NRGBA)
		assert.Equal(t, want, got.R, "frame %d", i)
	}

	_, _, err = FlickerFrames(context.Background(), framestore.New(), framestore.New(), nil, time.Second, nil)
	assert.ErrorIs(t, err, ErrNoFrames)
	_, _, err = FlickerFrames(context.Background(), pred, pred, nil, time.Microsecond, nil)
	assert.Error(t, err)
}

func TestExportFlicker(t *testing.T) {
	out := filepath.Join(t.TempDir(), "flicker.gif")
	require.NoError(t, ExportFlicker(context.Background(),
		store(t, 8, 8, 10, 10), store(t, 8, 8, 10, 10), nil, 200*time.Millisecond, out, nil))

	back, err := framestore.Open(out)
	require.NoError(t, err)
	assert.Equal(t, []int{200, 200, 200, 200}, back.Durations())
}

func TestExportOverlayErrors(t *testing.T) {
	dir := t.TempDir()
	engine := overlay.NewEngine()

	err := ExportOverlay(context.Background(), framestore.New(), framestore.New(), engine, nil, filepath.Join(dir, "a.gif"), nil)
	assert.ErrorIs(t, err, ErrNoFrames)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(dir, "b.gif")
	err = ExportOverlay(ctx, store(t, 8, 8, 10), store(t, 8, 8, 10), engine, nil, out, nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "nothing written on cancel")
}

func TestAverageMetrics(t *testing.T) {
	dir := t.TempDir()
	gt := []image.Image{solid(16, 16, 100), solid(16, 16, 100)}

	same := filepath.Join(dir, "same.gif")
	require.NoError(t, framestore.SaveGIF(same, gt, []int{100, 100}))
	short := filepath.Join(dir, "short.gif")
	require.NoError(t, framestore.SaveGIF(short, []image.Image{solid(16, 16, 100)}, []int{100}))
	missing := filepath.Join(dir, "missing.gif")

	calc := metrics.NewCalculator(metrics.WithPerceptual(zeroScorer{}))
	var last int
	res, err := AverageMetrics(context.Background(), calc, gt, []string{same, missing, short},
		func(done, total int) { last = done; assert.Equal(t, 3, total) })
	require.NoError(t, err)

	assert.Equal(t, 3, last)
	require.Len(t, res.Files, 2)
	assert.Equal(t, same, res.Files[0].Path)
	require.NotNil(t, res.Skipped)
	assert.Equal(t, 1, res.Skipped.Len())
	assert.Equal(t, metrics.MaxPSNR, res.Metrics.PSNR)
	assert.Equal(t, 1, res.Metrics.FrameCount) // int((2 + 1) / 2)
}

func TestAverageMetricsErrors(t *testing.T) {
	calc := metrics.NewCalculator(metrics.WithPerceptual(zeroScorer{}))
	_, err := AverageMetrics(context.Background(), calc, nil, []string{"x.gif"}, nil)
	assert.ErrorIs(t, err, ErrNoGroundTruth)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AverageMetrics(ctx, calc, []image.Image{solid(8, 8, 1)}, []string{"x.gif"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAveragePairs(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, frames ...image.Image) string {
		path := filepath.Join(dir, name)
		durations := make([]int, len(frames))
		require.NoError(t, framestore.SaveGIF(path, frames, durations))
		return path
	}
	gtA := write("gt_a.gif", solid(16, 16, 50))
	predA := write("pred_a.gif", solid(16, 16, 50))
	gtB := write("gt_b.gif", solid(16, 16, 80), solid(16, 16, 80))
	predB := write("pred_b.gif", solid(16, 16, 80), solid(16, 16, 80))

	calc := metrics.NewCalculator(metrics.WithPerceptual(zeroScorer{}))
	res, err := AveragePairs(context.Background(), calc, []Pair{
		{GT: gtA, Pred: predA},
		{GT: filepath.Join(dir, "gone.gif"), Pred: predA},
		{GT: gtB, Pred: predB},
	}, nil)
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, predB, res.Files[1].Path)
	assert.Equal(t, 1, res.Skipped.Len())
	assert.Equal(t, metrics.MaxPSNR, res.Metrics.PSNR)
	assert.Equal(t, 1.0, res.Metrics.SSIM)

	_, err = AveragePairs(context.Background(), calc, nil, nil)
	assert.ErrorIs(t, err, ErrNoPairs)
}
