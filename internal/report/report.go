/*
Reports
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

// Package report renders per-frame metrics as charts and tables.
package report

import (
	"fmt"
	"strings"

	"github.com/xswordsx/gifcompare/internal/metrics"
)

// Series names a per-frame metric column.
type Series string

const (
	PSNR   Series = "psnr"
	SSIM   Series = "ssim"
	MSSSIM Series = "ms_ssim"
	LPIPS  Series = "lpips"
	MSE    Series = "mse"
	MAE    Series = "mae"
)

// AllSeries lists every metric in column order.
var AllSeries = []Series{PSNR, SSIM, MSSSIM, LPIPS, MSE, MAE}

// DefaultSeries are plotted when none are requested.
var DefaultSeries = []Series{PSNR, SSIM}

// ParseSeries parses a comma separated list of series names. An empty string
// yields DefaultSeries.
func ParseSeries(s string) ([]Series, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultSeries, nil
	}
	var out []Series
	for _, part := range strings.Split(s, ",") {
		name := Series(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(part)), "-", "_"))
		if _, err := name.value(metrics.FrameMetrics{}); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

func (s Series) value(m metrics.FrameMetrics) (float64, error) {
	switch s {
	case PSNR:
		return m.PSNR, nil
	case SSIM:
		return m.SSIM, nil
	case MSSSIM:
		return m.MSSSIM, nil
	case LPIPS:
		return m.LPIPS, nil
	case MSE:
		return m.MSE, nil
	case MAE:
		return m.MAE, nil
	}
	return 0, fmt.Errorf("unknown metric series %q", string(s))
}

func (s Series) aggregate(m metrics.SequenceMetrics) float64 {
	v, _ := s.value(metrics.FrameMetrics{
		PSNR: m.PSNR, SSIM: m.SSIM, MSSSIM: m.MSSSIM, LPIPS: m.LPIPS, MSE: m.MSE, MAE: m.MAE,
	})
	return v
}

// Label is the display name of the series.
func (s Series) Label() string {
	if s == MSSSIM {
		return "MS-SSIM"
	}
	return strings.ToUpper(string(s))
}
