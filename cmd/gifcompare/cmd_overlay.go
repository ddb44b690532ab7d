/*
Overlay commands
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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xswordsx/gifcompare/internal/batch"
	"github.com/xswordsx/gifcompare/internal/framestore"
	"github.com/xswordsx/gifcompare/internal/overlay"
)

// overlayEnv provides the environment for the overlay and export commands.
type overlayEnv struct {
	root *rootEnv

	gt, pred string
	mode     string
	frame    int
	out      string

	grid        bool
	gridSize    int
	gridOpacity float64

	flickerPhase    bool
	flickerInterval time.Duration
}

func (o *overlayEnv) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.gt, "gt", "", "ground truth GIF")
	cmd.Flags().StringVar(&o.pred, "pred", "", "predicted GIF")
	cmd.Flags().StringVar(&o.mode, "mode", "", "overlay mode (normal, dual_color, difference, ssim_map, blend, flicker, checkerboard, side_by_side)")
	cmd.Flags().StringVar(&o.out, "out", "", "output file")
	cmd.Flags().BoolVar(&o.grid, "grid", false, "draw a grid over the output")
	cmd.Flags().IntVar(&o.gridSize, "grid-size", overlay.DefaultGridSize, "grid spacing in pixels")
	cmd.Flags().Float64Var(&o.gridOpacity, "grid-opacity", overlay.DefaultGridOpacity, "grid line opacity [0, 1]")
	must(cmd.MarkFlagRequired("gt"))
	must(cmd.MarkFlagRequired("pred"))
	must(cmd.MarkFlagRequired("out"))
}

// engines builds the overlay engine and grid from config and flags. Flags
// win over config.
func (o *overlayEnv) engines(cmd *cobra.Command) (*overlay.Engine, *overlay.Grid, error) {
	e := overlay.NewEngine()
	o.root.cfg.ApplyOverlay(e)
	if o.mode != "" {
		m, err := overlay.ParseMode(o.mode)
		if err != nil {
			return nil, nil, err
		}
		e.SetMode(m)
	}
	if o.flickerPhase {
		e.ToggleFlicker()
	}

	g := overlay.NewGrid()
	o.root.cfg.ApplyGrid(g)
	if cmd.Flags().Changed("grid") {
		g.SetEnabled(o.grid)
	}
	if cmd.Flags().Changed("grid-size") {
		g.SetSize(o.gridSize)
	}
	if cmd.Flags().Changed("grid-opacity") {
		g.SetOpacity(o.gridOpacity)
	}
	return e, g, nil
}

func (o *overlayEnv) open() (*framestore.Store, *framestore.Store, error) {
	gt, err := framestore.Open(o.gt)
	if err != nil {
		return nil, nil, err
	}
	pred, err := framestore.Open(o.pred)
	if err != nil {
		return nil, nil, err
	}
	return gt, pred, nil
}

// getOverlayCmd returns the definition of the overlay command.
func getOverlayCmd(root *rootEnv) *cobra.Command {
	env := &overlayEnv{root: root}
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Render one composited frame as PNG",
		RunE:  env.runOverlay,
	}
	env.addFlags(cmd)
	cmd.Flags().IntVar(&env.frame, "frame", 0, "frame index")
	cmd.Flags().BoolVar(&env.flickerPhase, "flicker-phase", false, "in flicker mode show the ground truth instead of the prediction")
	return cmd
}

func (o *overlayEnv) runOverlay(cmd *cobra.Command, _ []string) error {
	e, g, err := o.engines(cmd)
	if err != nil {
		return err
	}
	gt, pred, err := o.open()
	if err != nil {
		return err
	}
	a, okA := gt.FrameAt(o.frame)
	b, okB := pred.FrameAt(o.frame)
	if !okA && !okB {
		return fmt.Errorf("frame %d: %w", o.frame, framestore.ErrIndexOutOfRange)
	}
	out := a
	switch {
	case okA && okB:
		out = e.Composite(a, b)
	case okB:
		out = b
	}
	if err := writePNG(o.out, g.Apply(out)); err != nil {
		return err
	}
	reportWritten(cmd, o.out)
	return nil
}

// getExportCmd returns the definition of the export command.
func getExportCmd(root *rootEnv) *cobra.Command {
	env := &overlayEnv{root: root}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the overlay of every frame as a GIF",
		Long: `
Composites every frame pair in the selected mode and writes the result as a
looping GIF. Frame timing follows the ground truth. In flicker mode every
frame pair alternates prediction and ground truth at the flicker interval
instead. Interrupting the export leaves no output file.
`,
		RunE: env.runExport,
	}
	env.addFlags(cmd)
	cmd.Flags().DurationVar(&env.flickerInterval, "flicker-interval", 0, "how long each side shows in flicker mode (default from config, 200ms)")
	return cmd
}

func (o *overlayEnv) runExport(cmd *cobra.Command, _ []string) error {
	e, g, err := o.engines(cmd)
	if err != nil {
		return err
	}
	gt, pred, err := o.open()
	if err != nil {
		return err
	}
	progress := progressPrinter(cmd, "exporting")
	if e.Mode() == overlay.Flicker {
		interval := o.root.cfg.GetFlickerInterval()
		if cmd.Flags().Changed("flicker-interval") {
			interval = o.flickerInterval
		}
		err = batch.ExportFlicker(cmd.Context(), gt, pred, g, interval, o.out, progress)
	} else {
		err = batch.ExportOverlay(cmd.Context(), gt, pred, e, g, o.out, progress)
	}
	if err != nil {
		return err
	}
	reportWritten(cmd, o.out)
	return nil
}
