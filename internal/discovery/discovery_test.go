package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestFindPairs(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "gt.gif") // base itself is not a candidate
	touch(t, base, "run_b", "gt.gif")
	touch(t, base, "run_b", "pred.gif")
	touch(t, base, "run_a", "nested", "pred.gif")
	touch(t, base, "run_c", "gt.gif")
	touch(t, base, "run_d", "other.gif")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "run_e", "pred.gif"), 0o755)) // a directory, not a file

	got, err := FindPairs(context.Background(), base, "gt.gif", "pred.gif")
	require.NoError(t, err)

	want := []Folder{
		{Rel: filepath.Join("run_a", "nested"), Pred: filepath.Join(base, "run_a", "nested", "pred.gif")},
		{Rel: "run_b", GT: filepath.Join(base, "run_b", "gt.gif"), Pred: filepath.Join(base, "run_b", "pred.gif")},
		{Rel: "run_c", GT: filepath.Join(base, "run_c", "gt.gif")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindPairs mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"PRED only", "GT+PRED", "GT only"}, []string{got[0].Status(), got[1].Status(), got[2].Status()})
	assert.Equal(t, "[GT+PRED] run_b", got[1].String())
	assert.Equal(t, []Folder{got[1]}, Complete(got))
}

func TestFindPairsEdgeCases(t *testing.T) {
	base := t.TempDir()
	got, err := FindPairs(context.Background(), base, "", "")
	assert.NoError(t, err)
	assert.Empty(t, got)

	_, err = FindPairs(context.Background(), filepath.Join(base, "missing"), "gt.gif", "")
	assert.Error(t, err)

	file := touch(t, base, "plain.txt")
	_, err = FindPairs(context.Background(), file, "gt.gif", "")
	assert.Error(t, err)

	touch(t, base, "a", "gt.gif")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FindPairs(ctx, base, "gt.gif", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindSimilar(t *testing.T) {
	base := t.TempDir()
	want := []string{
		touch(t, base, "Pred_001.GIF"),
		touch(t, base, "deep", "pred_17.png"),
		touch(t, base, "pred_2.gif"),
	}
	touch(t, base, "pred_3.txt")
	touch(t, base, "gt_001.gif")

	got, err := FindSimilar(context.Background(), base, "pred_*")
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)
	assert.IsIncreasing(t, got)

	got, err = FindSimilar(context.Background(), base, "pred_?.gif")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(base, "pred_2.gif")}, got)

	got, err = FindSimilar(context.Background(), base, "[")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindSimilar_LiteralBrackets(t *testing.T) {
	base := t.TempDir()
	want := []string{
		touch(t, base, "clip[1].gif"),
		touch(t, base, "clip[2].gif"),
	}
	touch(t, base, "clip1.gif")
	backslash := touch(t, base, `clip\x.gif`)

	tests := []struct {
		pattern string
		want    []string
	}{
		{"clip[*].gif", want},
		{PatternFromFile("clip[7].gif"), want},
		{"clip[?].GIF", want},
		{"clip[1].gif", want[:1]},
		{"clip]*", nil},
		{`clip\x.gif`, []string{backslash}},
	}
	for _, tc := range tests {
		t.Run(tc.pattern, func(t *testing.T) {
			got, err := FindSimilar(context.Background(), base, tc.pattern)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPatternFromFile(t *testing.T) {
	tests := map[string]string{
		"pred_0012.gif":           "pred_*.gif",
		"/data/run3/out12_v2.png": "out*_v*.png",
		"plain.gif":               "plain.gif",
		"2024.gif":                "*.gif",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, PatternFromFile(in))
		})
	}
}
