/*
Perceptual diff command
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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xswordsx/gifcompare/internal/framestore"
	"github.com/xswordsx/gifcompare/internal/pdiff"
)

// pdiffEnv provides the environment for the pdiff command.
type pdiffEnv struct {
	root *rootEnv

	gt, pred  string
	diffDir   string
	threshold int
}

// getPDiffCmd returns the definition of the pdiff command.
func getPDiffCmd(root *rootEnv) *cobra.Command {
	env := &pdiffEnv{root: root}
	cmd := &cobra.Command{
		Use:   "pdiff",
		Short: "Check each frame pair for perceptible differences",
		Long: `
Runs Yee's perceptual metric on every frame pair and reports which frames are
visibly different. With --diff-dir a mask of the failing pixels is written for
every frame that fails.
`,
		RunE: env.runPDiff,
	}
	cmd.Flags().StringVar(&env.gt, "gt", "", "ground truth GIF")
	cmd.Flags().StringVar(&env.pred, "pred", "", "predicted GIF")
	cmd.Flags().StringVar(&env.diffDir, "diff-dir", "", "directory for failure masks")
	cmd.Flags().IntVar(&env.threshold, "threshold", pdiff.DefaultParameters.ThresholdPixels, "number of failing pixels tolerated per frame")
	must(cmd.MarkFlagRequired("gt"))
	must(cmd.MarkFlagRequired("pred"))
	return cmd
}

func (p *pdiffEnv) runPDiff(cmd *cobra.Command, _ []string) error {
	params := p.root.cfg.PDiffParameters()
	if cmd.Flags().Changed("threshold") {
		params.ThresholdPixels = p.threshold
	}
	if err := params.Validate(); err != nil {
		return err
	}
	gt, err := framestore.Open(p.gt)
	if err != nil {
		return err
	}
	pred, err := framestore.Open(p.pred)
	if err != nil {
		return err
	}
	if p.diffDir != "" {
		if err := os.MkdirAll(p.diffDir, 0o755); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range pdiff.CompareSequence(gt.Frames(), pred.Frames(), params) {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		status := "PASS"
		if !r.Pass {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(out, "%04d %s %s (pixels failed: %d)\n", r.Index, status, r.Reason, r.NumPixelsFailed)
		if !r.Pass && p.diffDir != "" && r.Difference != nil {
			if err := writePNG(filepath.Join(p.diffDir, fmt.Sprintf("diff_%04d.png", r.Index)), r.Difference); err != nil {
				return err
			}
		}
	}
	fmt.Fprintf(out, "%d frame(s) visibly different\n", failed)
	return nil
}
