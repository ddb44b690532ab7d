/*
Metric export
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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{"frame", "psnr", "ssim", "ms_ssim", "lpips", "mse", "mae"}

// Report is the JSON export layout.
type Report struct {
	Sequence SequenceMetrics `json:"sequence"`
	Frames   []FrameMetrics  `json:"frames"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes one row per frame, in the given order.
func WriteCSV(w io.Writer, frames []FrameMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, m := range frames {
		row := []string{
			strconv.Itoa(m.FrameIndex),
			formatFloat(m.PSNR),
			formatFloat(m.SSIM),
			formatFloat(m.MSSSIM),
			formatFloat(m.LPIPS),
			formatFloat(m.MSE),
			formatFloat(m.MAE),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the sequence aggregate and the per-frame list.
func WriteJSON(w io.Writer, seq SequenceMetrics, frames []FrameMetrics) error {
	if frames == nil {
		frames = []FrameMetrics{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Report{Sequence: seq, Frames: frames})
}

// ExportCSV writes frames to a CSV file at path.
func ExportCSV(path string, frames []FrameMetrics) error {
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, frames) })
}

// ExportJSON writes the report to a JSON file at path.
func ExportJSON(path string, seq SequenceMetrics, frames []FrameMetrics) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, seq, frames) })
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("could not write %q: %w", path, err)
	}
	return nil
}
