package report

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xswordsx/gifcompare/internal/metrics"
)

func sample() (metrics.SequenceMetrics, []metrics.FrameMetrics) {
	frames := []metrics.FrameMetrics{
		{FrameIndex: 0, PSNR: 100, SSIM: 1, MSSSIM: 1, LPIPS: 0, MSE: 0, MAE: 0},
		{FrameIndex: 1, PSNR: 32.5, SSIM: 0.91234, MSSSIM: 0.95, LPIPS: 0.1, MSE: 0.00056, MAE: 0.0123456},
	}
	return metrics.Aggregate(frames), frames
}

func TestParseSeries(t *testing.T) {
	got, err := ParseSeries("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSeries, got)

	got, err = ParseSeries(" PSNR, ms-ssim ,mae")
	require.NoError(t, err)
	assert.Equal(t, []Series{PSNR, MSSSIM, MAE}, got)

	_, err = ParseSeries("psnr,fid")
	assert.Error(t, err)
}

func TestSeriesLabel(t *testing.T) {
	assert.Equal(t, "MS-SSIM", MSSSIM.Label())
	assert.Equal(t, "LPIPS", LPIPS.Label())
}

func TestPlotPNG(t *testing.T) {
	_, frames := sample()
	path := filepath.Join(t.TempDir(), "metrics.png")
	require.NoError(t, PlotPNG(path, frames, nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())

	assert.Error(t, PlotPNG(filepath.Join(t.TempDir(), "empty.png"), nil, nil))
	assert.Error(t, PlotPNG(path, frames, []Series{"bogus"}))
}

func TestWritePlotSVG(t *testing.T) {
	_, frames := sample()
	var buf bytes.Buffer
	require.NoError(t, WritePlot(&buf, "svg", frames, AllSeries))
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderHTML(t *testing.T) {
	seq, frames := sample()
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, seq, frames))
	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Per-frame metrics")
	assert.Contains(t, html, "Sequence averages")
	assert.Contains(t, html, "MS-SSIM")
}

func TestWriteTable(t *testing.T) {
	seq, frames := sample()
	var buf bytes.Buffer
	WriteTable(&buf, seq, frames)
	out := buf.String()

	for _, want := range []string{"0000", "0001", "32.50", "0.9123", "0.000560", "0.012346", "100.00", "AVG (2)"} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 1, strings.Count(out, "MS-SSIM"))
}
