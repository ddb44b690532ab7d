/*
HTML report
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
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/xswordsx/gifcompare/internal/metrics"
)

// RenderHTML writes a standalone page with a per-frame line chart of every
// metric and a bar chart of the sequence averages.
func RenderHTML(w io.Writer, seq metrics.SequenceMetrics, frames []metrics.FrameMetrics) error {
	x := make([]string, len(frames))
	for i, f := range frames {
		x[i] = fmt.Sprintf("%04d", f.FrameIndex)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "gifcompare metrics", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Per-frame metrics", Subtitle: fmt.Sprintf("frames=%d", seq.FrameCount)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(x)
	for _, s := range AllSeries {
		data := make([]opts.LineData, len(frames))
		for i, f := range frames {
			v, _ := s.value(f)
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Label(), data)
	}

	names := make([]string, len(AllSeries))
	bars := make([]opts.BarData, len(AllSeries))
	for i, s := range AllSeries {
		names[i] = s.Label()
		bars[i] = opts.BarData{Value: s.aggregate(seq)}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Sequence averages"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("average", bars,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.PageTitle = "gifcompare metrics"
	page.AddCharts(line, bar)
	return page.Render(w)
}
