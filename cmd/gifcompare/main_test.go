package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xswordsx/gifcompare/internal/framestore"
	"github.com/xswordsx/gifcompare/internal/logging"
)

func solid(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

func writeGIF(t *testing.T, path string, values ...uint8) string {
	t.Helper()
	frames := make([]image.Image, len(values))
	durations := make([]int, len(values))
	for i, v := range values {
		frames[i] = solid(24, 24, v)
		durations[i] = 80
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, framestore.SaveGIF(path, frames, durations))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fixtures(t *testing.T) (dir, gt, pred string) {
	t.Helper()
	dir = t.TempDir()
	gt = writeGIF(t, filepath.Join(dir, "gt.gif"), 40, 80, 120)
	pred = writeGIF(t, filepath.Join(dir, "pred.gif"), 40, 90)
	return dir, gt, pred
}

func TestOverlayCmd(t *testing.T) {
	dir, gt, pred := fixtures(t)
	out := filepath.Join(dir, "frame.png")
	stdout, err := run(t, "overlay", "--gt", gt, "--pred", pred, "--mode", "side-by-side", "--frame", "1", "--out", out, "--grid")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out)

	img, err := framestore.LoadFrame(out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(48, 24), img.Rect.Size())

	_, err = run(t, "overlay", "--gt", gt, "--pred", pred, "--mode", "sepia", "--out", out)
	assert.Error(t, err)
	_, err = run(t, "overlay", "--gt", gt, "--pred", pred, "--frame", "9", "--out", out)
	assert.ErrorIs(t, err, framestore.ErrIndexOutOfRange)
}

func TestExportCmd(t *testing.T) {
	dir, gt, pred := fixtures(t)
	out := filepath.Join(dir, "overlay.gif")
	_, err := run(t, "export", "--gt", gt, "--pred", pred, "--mode", "blend", "--out", out)
	require.NoError(t, err)

	s, err := framestore.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	f, _ := s.FrameAt(1)
	assert.Equal(t, color.NRGBA{85, 85, 85, 255}, color.NRGBAModel.Convert(f.At(3, 3)))
}

func TestFlickerCmd(t *testing.T) {
	dir, gt, pred := fixtures(t)
	png := filepath.Join(dir, "flicker.png")
	for _, tc := range []struct {
		args []string
		want uint8
	}{
		{nil, 90},
		{[]string{"--flicker-phase"}, 80},
	} {
		args := append([]string{"overlay", "--gt", gt, "--pred", pred, "--mode", "flicker", "--frame", "1", "--out", png}, tc.args...)
		_, err := run(t, args...)
		require.NoError(t, err)
		img, err := framestore.LoadFrame(png)
		require.NoError(t, err)
		assert.Equal(t, tc.want, img.NRGBAAt(5, 5).R, "args %v", tc.args)
	}

	out := filepath.Join(dir, "flicker.gif")
	_, err := run(t, "export", "--gt", gt, "--pred", pred, "--mode", "flicker", "--flicker-interval", "100ms", "--out", out)
	require.NoError(t, err)
	s, err := framestore.Open(out)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 100, 100, 100, 200}, s.Durations())
}

func TestMetricsCmd(t *testing.T) {
	dir, gt, pred := fixtures(t)
	csvPath := filepath.Join(dir, "m.csv")
	jsonPath := filepath.Join(dir, "m.json")
	htmlPath := filepath.Join(dir, "m.html")
	plotPath := filepath.Join(dir, "m.png")

	stdout, err := run(t, "metrics", "--gt", gt, "--pred", pred,
		"--csv", csvPath, "--json", jsonPath, "--html", htmlPath, "--plot", plotPath, "--series", "psnr,mae")
	require.NoError(t, err)
	assert.Contains(t, stdout, "0000")
	assert.Contains(t, stdout, "100.00")
	assert.Contains(t, stdout, "AVG (2)")
	for _, p := range []string{csvPath, jsonPath, htmlPath, plotPath} {
		assert.FileExists(t, p)
	}

	_, err = run(t, "metrics", "--gt", gt, "--pred", pred, "--series", "fid")
	assert.Error(t, err)
}

func TestAverageCmd(t *testing.T) {
	dir, gt, pred := fixtures(t)
	stdout, err := run(t, "average", "--gt", gt, "--pred", pred, "--pred", filepath.Join(dir, "missing.gif"))
	require.NoError(t, err)
	assert.Contains(t, stdout, pred)
	assert.Contains(t, stdout, "skipped 1 file(s)")

	base := t.TempDir()
	writeGIF(t, filepath.Join(base, "a", "gt.gif"), 10)
	writeGIF(t, filepath.Join(base, "a", "pred.gif"), 10)
	writeGIF(t, filepath.Join(base, "b", "gt.gif"), 10)
	jsonPath := filepath.Join(dir, "avg.json")
	stdout, err = run(t, "average", "--base", base, "--gt-name", "gt.gif", "--pred-name", "pred.gif", "--json", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(base, "a", "pred.gif"))
	assert.FileExists(t, jsonPath)

	_, err = run(t, "average")
	assert.Error(t, err)
}

func TestDiscoverCmd(t *testing.T) {
	base := t.TempDir()
	writeGIF(t, filepath.Join(base, "x", "gt.gif"), 10)
	writeGIF(t, filepath.Join(base, "x", "pred.gif"), 10)
	writeGIF(t, filepath.Join(base, "y", "pred.gif"), 10)
	writeGIF(t, filepath.Join(base, "y", "pred_0007.gif"), 10)

	stdout, err := run(t, "discover", "pairs", "--base", base, "--gt-name", "gt.gif", "--pred-name", "pred.gif")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[GT+PRED] x")
	assert.Contains(t, stdout, "[PRED only] y")
	assert.Contains(t, stdout, "2 folder(s), 1 complete")

	stdout, err = run(t, "discover", "similar", "--base", base, "--like", "pred_0001.gif")
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(base, "y", "pred_0007.gif"))
	assert.NotContains(t, stdout, filepath.Join(base, "x", "pred.gif"))
}

func TestPDiffCmd(t *testing.T) {
	dir, gt, _ := fixtures(t)
	other := writeGIF(t, filepath.Join(dir, "other.gif"), 40, 250)
	diffDir := filepath.Join(dir, "diffs")

	stdout, err := run(t, "pdiff", "--gt", gt, "--pred", other, "--diff-dir", diffDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "0000 PASS")
	assert.Contains(t, stdout, "0001 FAIL")
	assert.Contains(t, stdout, "1 frame(s) visibly different")
	assert.FileExists(t, filepath.Join(diffDir, "diff_0001.png"))
}

func TestFramesCmd(t *testing.T) {
	dir, gt, _ := fixtures(t)
	thumbs := filepath.Join(dir, "thumbs")
	stdout, err := run(t, "frames", "--in", gt, "--thumbs", thumbs, "--size", "16")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 frames, 24x24, average 80 ms")
	assert.FileExists(t, filepath.Join(thumbs, "thumb_0002.png"))
}

func TestEditCmd(t *testing.T) {
	dir, gt, _ := fixtures(t)
	out := filepath.Join(dir, "edited.gif")

	_, err := run(t, "edit", "--in", gt, "--out", out, "--delete", "0")
	require.NoError(t, err)
	s, err := framestore.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	still := filepath.Join(dir, "still.png")
	require.NoError(t, writePNG(still, solid(12, 12, 200)))
	_, err = run(t, "edit", "--in", gt, "--out", out, "--insert", "3", "--image", still, "--duration", "250")
	require.NoError(t, err)
	s, err = framestore.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 250, s.DurationAt(3))
	assert.Equal(t, image.Pt(24, 24), s.Size())

	_, err = run(t, "edit", "--in", gt, "--out", out, "--delete", "1", "--resize", "12x8")
	require.NoError(t, err)
	s, err = framestore.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, image.Pt(12, 8), s.Size())

	_, err = run(t, "edit", "--in", gt, "--out", out, "--resize", "12by8")
	assert.Error(t, err)
	_, err = run(t, "edit", "--in", gt, "--out", out)
	assert.Error(t, err)
}

func TestVerboseFlag(t *testing.T) {
	orig := logging.Logger()
	t.Cleanup(func() { logging.SetLogger(orig) })

	_, gt, pred := fixtures(t)
	for _, verbose := range []bool{false, true} {
		args := []string{"pdiff", "--gt", gt, "--pred", pred}
		if verbose {
			args = append([]string{"--verbose"}, args...)
		}
		var out, stderr bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&stderr)
		cmd.SetArgs(args)
		require.NoError(t, cmd.ExecuteContext(context.Background()))
		assert.Equal(t, verbose, strings.Contains(stderr.String(), "pdiff: converting"), "verbose=%v", verbose)
	}
}
