/*
Frame commands
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

package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xswordsx/gifcompare/internal/framestore"
	"github.com/xswordsx/gifcompare/internal/imgutil"
)

// framesEnv provides the environment for the frames command.
type framesEnv struct {
	in     string
	thumbs string
	size   int
}

// getFramesCmd returns the definition of the frames command.
func getFramesCmd() *cobra.Command {
	env := &framesEnv{}
	cmd := &cobra.Command{
		Use:   "frames",
		Short: "List frames and optionally export thumbnails",
		RunE:  env.runFrames,
	}
	cmd.Flags().StringVar(&env.in, "in", "", "input GIF")
	cmd.Flags().StringVar(&env.thumbs, "thumbs", "", "directory to write thumbnails into")
	cmd.Flags().IntVar(&env.size, "size", 128, "thumbnail edge length in pixels")
	must(cmd.MarkFlagRequired("in"))
	return cmd
}

func (f *framesEnv) runFrames(cmd *cobra.Command, _ []string) error {
	s, err := framestore.Open(f.in)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	size := s.Size()
	fmt.Fprintf(out, "%s: %d frames, %dx%d, average %d ms\n", f.in, s.Len(), size.X, size.Y, s.AverageDuration())
	for i := 0; i < s.Len(); i++ {
		fmt.Fprintf(out, "%04d %5d ms\n", i, s.DurationAt(i))
	}
	if f.thumbs == "" {
		return nil
	}
	if f.size <= 0 {
		return fmt.Errorf("invalid thumbnail size %d", f.size)
	}
	if err := os.MkdirAll(f.thumbs, 0o755); err != nil {
		return err
	}
	for i := 0; i < s.Len(); i++ {
		thumb, ok := s.Thumbnail(i, image.Pt(f.size, f.size))
		if !ok {
			continue
		}
		if err := writePNG(filepath.Join(f.thumbs, fmt.Sprintf("thumb_%04d.png", i)), thumb); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "wrote %d thumbnails to %s\n", s.Len(), f.thumbs)
	return nil
}

// editEnv provides the environment for the edit command.
type editEnv struct {
	in, out  string
	del      int
	insert   int
	image    string
	duration int
	resize   string
}

// getEditCmd returns the definition of the edit command.
func getEditCmd() *cobra.Command {
	env := &editEnv{}
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Delete, insert or resize frames and save the result",
		RunE:  env.runEdit,
	}
	cmd.Flags().StringVar(&env.in, "in", "", "input GIF")
	cmd.Flags().StringVar(&env.out, "out", "", "output GIF")
	cmd.Flags().IntVar(&env.del, "delete", -1, "index of the frame to delete")
	cmd.Flags().IntVar(&env.insert, "insert", -1, "index to insert --image before (frame count appends)")
	cmd.Flags().StringVar(&env.image, "image", "", "still image to insert")
	cmd.Flags().IntVar(&env.duration, "duration", framestore.DefaultDuration, "duration of the inserted frame in ms")
	cmd.Flags().StringVar(&env.resize, "resize", "", "scale every frame to WxH")
	must(cmd.MarkFlagRequired("in"))
	must(cmd.MarkFlagRequired("out"))
	cmd.MarkFlagsMutuallyExclusive("delete", "insert")
	cmd.MarkFlagsRequiredTogether("insert", "image")
	return cmd
}

func (e *editEnv) runEdit(cmd *cobra.Command, _ []string) error {
	s, err := framestore.Open(e.in)
	if err != nil {
		return err
	}
	switch {
	case cmd.Flags().Changed("delete"):
		if err := s.DeleteAt(e.del); err != nil {
			return err
		}
	case cmd.Flags().Changed("insert"):
		frame, err := framestore.LoadFrame(e.image)
		if err != nil {
			return err
		}
		if size := s.Size(); frame.Rect.Size() != size {
			frame = imgutil.Resize(frame, size)
		}
		if err := s.InsertAt(e.insert, frame, e.duration); err != nil {
			return err
		}
	case e.resize == "":
		return errors.New("one of --delete, --insert or --resize is required")
	}
	if e.resize != "" {
		size, err := parseSize(e.resize)
		if err != nil {
			return err
		}
		if err := s.ResizeFrames(size); err != nil {
			return err
		}
	}
	if err := s.Save(e.out); err != nil {
		return err
	}
	reportWritten(cmd, e.out)
	return nil
}

// parseSize parses "WxH".
func parseSize(v string) (image.Point, error) {
	var p image.Point
	if _, err := fmt.Sscanf(v, "%dx%d", &p.X, &p.Y); err != nil || p.X <= 0 || p.Y <= 0 {
		return image.Point{}, fmt.Errorf("invalid size %q, want WxH", v)
	}
	return p, nil
}
