/*
Metric table
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

	"github.com/olekukonko/tablewriter"

	"github.com/xswordsx/gifcompare/internal/metrics"
)

func row(label string, m metrics.FrameMetrics) []string {
	return []string{
		label,
		fmt.Sprintf("%.2f", m.PSNR),
		fmt.Sprintf("%.4f", m.SSIM),
		fmt.Sprintf("%.4f", m.MSSSIM),
		fmt.Sprintf("%.4f", m.LPIPS),
		fmt.Sprintf("%.6f", m.MSE),
		fmt.Sprintf("%.6f", m.MAE),
	}
}

// WriteTable prints one row per frame followed by the sequence averages.
func WriteTable(w io.Writer, seq metrics.SequenceMetrics, frames []metrics.FrameMetrics) {
	table := tablewriter.NewWriter(w)
	header := []string{"Frame"}
	for _, s := range AllSeries {
		header = append(header, s.Label())
	}
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, f := range frames {
		table.Append(row(fmt.Sprintf("%04d", f.FrameIndex), f))
	}
	table.SetFooter(row(fmt.Sprintf("AVG (%d)", seq.FrameCount), metrics.FrameMetrics{
		PSNR: seq.PSNR, SSIM: seq.SSIM, MSSSIM: seq.MSSSIM, LPIPS: seq.LPIPS, MSE: seq.MSE, MAE: seq.MAE,
	}))
	table.Render()
}
