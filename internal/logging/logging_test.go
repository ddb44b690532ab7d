package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger_RedirectsOutput(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(New(&buf, false))
	Warningf("frame %d skipped", 7)

	assert.Contains(t, buf.String(), "frame 7 skipped")
}

func TestSetLogger_NilMutes(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(nil)
	assert.NotNil(t, Logger())
	assert.NotPanics(t, func() { Errorf("nothing to see %s", "here") })
}

func TestNew_Debug(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetLogger(New(&buf, tc.debug))
			Debugf("pyramid level %d", 3)
			Infof("loaded %d frames", 12)

			assert.Equal(t, tc.wantDebug, strings.Contains(buf.String(), "pyramid level 3"))
			assert.Contains(t, buf.String(), "loaded 12 frames")
		})
	}
}

func TestNew_KeepsSyncWriter(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	w := &bufferSyncWriter{}
	SetLogger(New(w, false))
	Errorf("decode failed")
	assert.Contains(t, w.buf.String(), "decode failed")
}

type bufferSyncWriter struct {
	buf bytes.Buffer
}

func (c *bufferSyncWriter) Write(p []byte) (int, error) { return c.buf.Write(p) }
func (c *bufferSyncWriter) Sync() error                 { return nil }
