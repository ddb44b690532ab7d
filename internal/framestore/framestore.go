/*
Frame store
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

// Package framestore holds the decoded frames of an animated GIF together
// with their display durations, and supports editing and re-encoding them.
package framestore

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	xdraw "golang.org/x/image/draw"

	"github.com/xswordsx/gifcompare/internal/imgutil"
	"github.com/xswordsx/gifcompare/internal/logging"
)

// DefaultDuration is the display time, in milliseconds, used for frames that
// carry no delay and for out-of-range lookups.
const DefaultDuration = 100

const thumbnailCacheSize = 256

var (
	ErrIndexOutOfRange = errors.New("frame index out of range")
	ErrLastFrame       = errors.New("cannot delete the only remaining frame")
	ErrNoFrames        = errors.New("no frames")
)

// ThumbnailBackground fills the area a thumbnail does not cover.
var ThumbnailBackground = color.NRGBA{40, 40, 40, 255}

// thumbKey includes the store generation so thumbnails rendered before an
// edit can never be served after it.
type thumbKey struct {
	gen   uint64
	index int
	size  image.Point
}

// Store is an ordered, editable sequence of frames. It is safe for concurrent
// use.
type Store struct {
	mu        sync.RWMutex
	path      string
	canvas    image.Point
	frames    []*image.NRGBA
	durations []int
	gen       uint64 // bumped on every mutation
	thumbs    *lru.Cache
}

// New returns an empty store.
func New() *Store {
	c, err := lru.New(thumbnailCacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Store{thumbs: c}
}

// Open is a convenience for New followed by Load.
func Open(path string) (*Store, error) {
	s := New()
	if err := s.Load(path); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the store's content with the frames of the GIF at path. On
// failure the previous content is kept.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	frames, canvas := coalesce(g)
	if len(frames) == 0 {
		return fmt.Errorf("decoding %s: %w", path, ErrNoFrames)
	}
	durations := make([]int, len(frames))
	for i := range durations {
		durations[i] = DefaultDuration
		if i < len(g.Delay) && g.Delay[i] > 0 {
			durations[i] = g.Delay[i] * 10
		}
	}

	s.mu.Lock()
	s.path = path
	s.canvas = canvas
	s.frames = frames
	s.durations = durations
	s.changed()
	s.mu.Unlock()

	logging.Infof("Loaded %d frames (%dx%d) from %s", len(frames), canvas.X, canvas.Y, path)
	return nil
}

// coalesce renders every GIF frame onto the logical screen, honouring each
// frame's disposal method, and returns full-canvas snapshots.
func coalesce(g *gif.GIF) ([]*image.NRGBA, image.Point) {
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		for _, p := range g.Image {
			bounds = bounds.Union(p.Bounds())
		}
		bounds = image.Rect(0, 0, bounds.Max.X, bounds.Max.Y)
	}

	canvas := image.NewNRGBA(bounds)
	frames := make([]*image.NRGBA, 0, len(g.Image))
	for i, p := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var saved *image.NRGBA
		if disposal == gif.DisposalPrevious {
			saved = imgutil.Clone(canvas)
		}

		xdraw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, xdraw.Over)
		frames = append(frames, imgutil.Clone(canvas))

		switch disposal {
		case gif.DisposalBackground:
			xdraw.Draw(canvas, p.Bounds(), image.Transparent, image.Point{}, xdraw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}
	return frames, bounds.Size()
}

// LoadFrame decodes a single still image from any registered format.
func LoadFrame(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	logging.Debugf("Decoded %s frame %v from %s", format, img.Bounds().Size(), path)
	return imgutil.ToNRGBA(img), nil
}

func (s *Store) inRange(i int) bool { return i >= 0 && i < len(s.frames) }

// changed records a mutation. The caller holds the write lock.
func (s *Store) changed() {
	s.gen++
	s.thumbs.Purge()
}

// Len is the number of frames.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// Path is the file the store was last loaded from.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Size is the size of the first frame, or of the decoded canvas when empty.
func (s *Store) Size() image.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.frames) > 0 {
		return s.frames[0].Rect.Size()
	}
	return s.canvas
}

// FrameAt returns frame i, or false if i is out of range.
func (s *Store) FrameAt(i int) (image.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.inRange(i) {
		return nil, false
	}
	return s.frames[i], true
}

// Frames returns a copy of the frame slice. The frames themselves are shared.
func (s *Store) Frames() []image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]image.Image, len(s.frames))
	for i, f := range s.frames {
		out[i] = f
	}
	return out
}

// Durations returns a copy of the per-frame durations in milliseconds.
func (s *Store) Durations() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int(nil), s.durations...)
}

// DurationAt returns the duration of frame i, DefaultDuration when out of
// range.
func (s *Store) DurationAt(i int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.inRange(i) {
		return DefaultDuration
	}
	return s.durations[i]
}

// AverageDuration is the floor of the mean duration, DefaultDuration when
// empty.
func (s *Store) AverageDuration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.durations) == 0 {
		return DefaultDuration
	}
	var sum int
	for _, d := range s.durations {
		sum += d
	}
	return sum / len(s.durations)
}

// DeleteAt removes frame i. The last remaining frame cannot be deleted.
func (s *Store) DeleteAt(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inRange(i) {
		return fmt.Errorf("delete %d of %d: %w", i, len(s.frames), ErrIndexOutOfRange)
	}
	if len(s.frames) == 1 {
		return ErrLastFrame
	}
	s.frames = append(s.frames[:i], s.frames[i+1:]...)
	s.durations = append(s.durations[:i], s.durations[i+1:]...)
	s.changed()
	return nil
}

// InsertAt inserts frame before index i; i == Len() appends. A non-positive
// duration is replaced by DefaultDuration.
func (s *Store) InsertAt(i int, frame image.Image, durationMs int) error {
	if frame == nil {
		return errors.New("insert: nil frame")
	}
	if durationMs <= 0 {
		durationMs = DefaultDuration
	}
	f := imgutil.ToNRGBA(frame)

	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i > len(s.frames) {
		return fmt.Errorf("insert at %d of %d: %w", i, len(s.frames), ErrIndexOutOfRange)
	}
	s.frames = append(s.frames, nil)
	copy(s.frames[i+1:], s.frames[i:])
	s.frames[i] = f
	s.durations = append(s.durations, 0)
	copy(s.durations[i+1:], s.durations[i:])
	s.durations[i] = durationMs
	s.changed()
	return nil
}

// Append adds frame at the end.
func (s *Store) Append(frame image.Image, durationMs int) error {
	return s.InsertAt(s.Len(), frame, durationMs)
}

// ResizeFrames scales every frame to size.
func (s *Store) ResizeFrames(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("invalid frame size %v", size)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.frames {
		if f.Rect.Size() != size {
			s.frames[i] = imgutil.Resize(f, size)
		}
	}
	s.canvas = size
	s.changed()
	return nil
}

// Thumbnail returns frame i scaled down to fit size, centred on an opaque
// ThumbnailBackground canvas of exactly size. Frames smaller than size are
// not enlarged. The caller owns the returned image.
func (s *Store) Thumbnail(i int, size image.Point) (*image.NRGBA, bool) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, false
	}
	s.mu.RLock()
	if !s.inRange(i) {
		s.mu.RUnlock()
		return nil, false
	}
	frame := s.frames[i]
	key := thumbKey{s.gen, i, size}
	s.mu.RUnlock()

	if v, ok := s.thumbs.Get(key); ok {
		return imgutil.Clone(v.(*image.NRGBA)), true
	}
	small := imgutil.Fit(frame, size)
	out := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	xdraw.Draw(out, out.Rect, image.NewUniform(ThumbnailBackground), image.Point{}, xdraw.Src)
	off := image.Pt((size.X-small.Rect.Dx())/2, (size.Y-small.Rect.Dy())/2)
	xdraw.Draw(out, small.Rect.Add(off), small, image.Point{}, xdraw.Over)

	s.thumbs.Add(key, out)
	return imgutil.Clone(out), true
}

// Save writes the store's frames and durations to path as a looping GIF.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	frames := make([]image.Image, len(s.frames))
	for i, f := range s.frames {
		frames[i] = f
	}
	durations := append([]int(nil), s.durations...)
	s.mu.RUnlock()
	return SaveGIF(path, frames, durations)
}
