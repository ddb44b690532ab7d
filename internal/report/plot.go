/*
Metric plot
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

package report

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/xswordsx/gifcompare/internal/metrics"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 4 * vg.Inch
)

func newPlot(frames []metrics.FrameMetrics, series []Series) (*plot.Plot, error) {
	if len(frames) == 0 {
		return nil, errors.New("no frames to plot")
	}
	if len(series) == 0 {
		series = DefaultSeries
	}
	p := plot.New()
	p.Title.Text = "Per-frame metrics"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Value"
	p.Add(plotter.NewGrid())

	for i, s := range series {
		pts := make(plotter.XYs, len(frames))
		for j, f := range frames {
			v, err := s.value(f)
			if err != nil {
				return nil, err
			}
			pts[j] = plotter.XY{X: float64(f.FrameIndex), Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plotting %s: %w", s, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Label(), line)
	}
	return p, nil
}

// PlotPNG writes a line chart of the selected series, one point per frame,
// to path. The image format follows the file extension.
func PlotPNG(path string, frames []metrics.FrameMetrics, series []Series) error {
	p, err := newPlot(frames, series)
	if err != nil {
		return err
	}
	return p.Save(plotWidth, plotHeight, path)
}

// WritePlot writes the same chart as PlotPNG to w in the given format
// ("png", "svg", "pdf", ...).
func WritePlot(w io.Writer, format string, frames []metrics.FrameMetrics, series []Series) error {
	p, err := newPlot(frames, series)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
