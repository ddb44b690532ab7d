/*
Metrics commands
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
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xswordsx/gifcompare/internal/batch"
	"github.com/xswordsx/gifcompare/internal/discovery"
	"github.com/xswordsx/gifcompare/internal/framestore"
	"github.com/xswordsx/gifcompare/internal/metrics"
	"github.com/xswordsx/gifcompare/internal/report"
)

// metricsEnv provides the environment for the metrics command.
type metricsEnv struct {
	root *rootEnv

	gt, pred     string
	csvPath      string
	jsonPath     string
	plotPath     string
	htmlPath     string
	series       string
	lpipsWeights string
	table        bool
}

func (m *metricsEnv) calculator() *metrics.Calculator {
	dir := m.lpipsWeights
	if dir == "" {
		dir = m.root.cfg.GetLPIPSWeights()
	}
	return metrics.NewCalculator(metrics.WithLPIPSWeights(dir))
}

// getMetricsCmd returns the definition of the metrics command.
func getMetricsCmd(root *rootEnv) *cobra.Command {
	env := &metricsEnv{root: root}
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compute per-frame quality metrics",
		Long: `
Computes PSNR, SSIM, MS-SSIM, LPIPS, MSE and MAE for every frame pair up to
the shorter of the two animations, prints them as a table and optionally
exports them as CSV, JSON, a PNG chart or an HTML report.
`,
		RunE: env.runMetrics,
	}
	cmd.Flags().StringVar(&env.gt, "gt", "", "ground truth GIF")
	cmd.Flags().StringVar(&env.pred, "pred", "", "predicted GIF")
	cmd.Flags().StringVar(&env.csvPath, "csv", "", "write per-frame metrics as CSV")
	cmd.Flags().StringVar(&env.jsonPath, "json", "", "write aggregate and per-frame metrics as JSON")
	cmd.Flags().StringVar(&env.plotPath, "plot", "", "write a chart of the metrics (PNG, SVG or PDF by extension)")
	cmd.Flags().StringVar(&env.htmlPath, "html", "", "write an interactive HTML report")
	cmd.Flags().StringVar(&env.series, "series", "", "comma separated metrics to plot (default psnr,ssim)")
	cmd.Flags().StringVar(&env.lpipsWeights, "lpips-weights", "", "directory holding the LPIPS .npy weights")
	cmd.Flags().BoolVar(&env.table, "table", true, "print the metrics table")
	must(cmd.MarkFlagRequired("gt"))
	must(cmd.MarkFlagRequired("pred"))
	return cmd
}

func (m *metricsEnv) runMetrics(cmd *cobra.Command, _ []string) error {
	series, err := report.ParseSeries(m.series)
	if err != nil {
		return err
	}
	gt, err := framestore.Open(m.gt)
	if err != nil {
		return err
	}
	pred, err := framestore.Open(m.pred)
	if err != nil {
		return err
	}
	seq, frames := m.calculator().SequenceMetrics(gt.Frames(), pred.Frames())

	if m.table {
		report.WriteTable(cmd.OutOrStdout(), seq, frames)
	}
	if m.csvPath != "" {
		if err := metrics.ExportCSV(m.csvPath, frames); err != nil {
			return err
		}
		reportWritten(cmd, m.csvPath)
	}
	if m.jsonPath != "" {
		if err := metrics.ExportJSON(m.jsonPath, seq, frames); err != nil {
			return err
		}
		reportWritten(cmd, m.jsonPath)
	}
	if m.plotPath != "" && len(frames) > 0 {
		if err := report.PlotPNG(m.plotPath, frames, series); err != nil {
			return err
		}
		reportWritten(cmd, m.plotPath)
	}
	if m.htmlPath != "" {
		f, err := os.Create(m.htmlPath)
		if err != nil {
			return err
		}
		err = report.RenderHTML(f, seq, frames)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		reportWritten(cmd, m.htmlPath)
	}
	return nil
}

// averageEnv provides the environment for the average command.
type averageEnv struct {
	metricsEnv

	preds    []string
	base     string
	gtName   string
	predName string
}

// getAverageCmd returns the definition of the average command.
func getAverageCmd(root *rootEnv) *cobra.Command {
	env := &averageEnv{metricsEnv: metricsEnv{root: root}}
	cmd := &cobra.Command{
		Use:   "average",
		Short: "Average sequence metrics over several predictions",
		Long: `
Either scores several predictions against one ground truth (--gt with repeated
--pred), or scores every complete folder found below --base against its own
ground truth (--base with --gt-name and --pred-name). Files that fail to load
are skipped.
`,
		RunE: env.runAverage,
	}
	cmd.Flags().StringVar(&env.gt, "gt", "", "ground truth GIF")
	cmd.Flags().StringArrayVar(&env.preds, "pred", nil, "predicted GIF (repeatable)")
	cmd.Flags().StringVar(&env.base, "base", "", "directory to search for GT/PRED folders")
	cmd.Flags().StringVar(&env.gtName, "gt-name", "", "ground truth file name inside each folder")
	cmd.Flags().StringVar(&env.predName, "pred-name", "", "prediction file name inside each folder")
	cmd.Flags().StringVar(&env.jsonPath, "json", "", "write the averages as JSON")
	cmd.Flags().StringVar(&env.lpipsWeights, "lpips-weights", "", "directory holding the LPIPS .npy weights")
	cmd.MarkFlagsRequiredTogether("base", "gt-name", "pred-name")
	cmd.MarkFlagsMutuallyExclusive("gt", "base")
	return cmd
}

func (a *averageEnv) runAverage(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	progress := progressPrinter(cmd, "scoring")

	var (
		res batch.Average
		err error
	)
	switch {
	case a.base != "":
		folders, ferr := discovery.FindPairs(ctx, a.base, a.gtName, a.predName)
		if folders == nil && ferr != nil {
			return ferr
		}
		var pairs []batch.Pair
		for _, f := range discovery.Complete(folders) {
			pairs = append(pairs, batch.Pair{GT: f.GT, Pred: f.Pred})
		}
		res, err = batch.AveragePairs(ctx, a.calculator(), pairs, progress)
	case a.gt != "":
		if len(a.preds) == 0 {
			return errors.New("at least one --pred is required with --gt")
		}
		gt, gerr := framestore.Open(a.gt)
		if gerr != nil {
			return gerr
		}
		res, err = batch.AverageMetrics(ctx, a.calculator(), gt.Frames(), a.preds, progress)
	default:
		return errors.New("either --gt or --base is required")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range res.Files {
		fmt.Fprintf(out, "%s\tpsnr=%.2f ssim=%.4f lpips=%.4f frames=%d\n",
			f.Path, f.Metrics.PSNR, f.Metrics.SSIM, f.Metrics.LPIPS, f.Metrics.FrameCount)
	}
	if res.Skipped != nil {
		fmt.Fprintf(out, "skipped %d file(s)\n", res.Skipped.Len())
	}
	report.WriteTable(out, res.Metrics, nil)

	if a.jsonPath != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(a.jsonPath, data, 0o644); err != nil {
			return err
		}
		reportWritten(cmd, a.jsonPath)
	}
	return nil
}
