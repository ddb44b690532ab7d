/*
Metric aggregation
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

package metrics

import (
	"gonum.org/v1/gonum/stat"
)

// Aggregate averages per-frame metrics. An empty list yields the zero record.
func Aggregate(frames []FrameMetrics) SequenceMetrics {
	if len(frames) == 0 {
		return SequenceMetrics{}
	}
	col := func(f func(FrameMetrics) float64) float64 {
		xs := make([]float64, len(frames))
		for i, m := range frames {
			xs[i] = f(m)
		}
		return stat.Mean(xs, nil)
	}
	return SequenceMetrics{
		PSNR:       col(func(m FrameMetrics) float64 { return m.PSNR }),
		SSIM:       col(func(m FrameMetrics) float64 { return m.SSIM }),
		MSSSIM:     col(func(m FrameMetrics) float64 { return m.MSSSIM }),
		LPIPS:      col(func(m FrameMetrics) float64 { return m.LPIPS }),
		MSE:        col(func(m FrameMetrics) float64 { return m.MSE }),
		MAE:        col(func(m FrameMetrics) float64 { return m.MAE }),
		FrameCount: len(frames),
	}
}

// AverageSequenceMetrics averages several sequence records field by field,
// including the frame count (truncated to an int). An empty list yields the
// zero record.
func AverageSequenceMetrics(seqs []SequenceMetrics) SequenceMetrics {
	if len(seqs) == 0 {
		return SequenceMetrics{}
	}
	col := func(f func(SequenceMetrics) float64) float64 {
		xs := make([]float64, len(seqs))
		for i, m := range seqs {
			xs[i] = f(m)
		}
		return stat.Mean(xs, nil)
	}
	return SequenceMetrics{
		PSNR:       col(func(m SequenceMetrics) float64 { return m.PSNR }),
		SSIM:       col(func(m SequenceMetrics) float64 { return m.SSIM }),
		MSSSIM:     col(func(m SequenceMetrics) float64 { return m.MSSSIM }),
		LPIPS:      col(func(m SequenceMetrics) float64 { return m.LPIPS }),
		MSE:        col(func(m SequenceMetrics) float64 { return m.MSE }),
		MAE:        col(func(m SequenceMetrics) float64 { return m.MAE }),
		FrameCount: int(col(func(m SequenceMetrics) float64 { return float64(m.FrameCount) })),
	}
}
