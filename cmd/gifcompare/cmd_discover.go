/*
Discover command
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

	"github.com/spf13/cobra"

	"github.com/xswordsx/gifcompare/internal/discovery"
	"github.com/xswordsx/gifcompare/internal/logging"
)

// discoverEnv provides the environment for the discover commands.
type discoverEnv struct {
	base     string
	gtName   string
	predName string
	pattern  string
	like     string
}

// getDiscoverCmd returns the definition of the discover command group.
func getDiscoverCmd() *cobra.Command {
	env := &discoverEnv{}
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find comparison inputs on disk",
	}
	cmd.PersistentFlags().StringVar(&env.base, "base", ".", "directory to search")

	pairs := &cobra.Command{
		Use:   "pairs",
		Short: "List folders holding a ground truth and/or prediction file",
		RunE:  env.runPairs,
	}
	pairs.Flags().StringVar(&env.gtName, "gt-name", "", "ground truth file name")
	pairs.Flags().StringVar(&env.predName, "pred-name", "", "prediction file name")
	pairs.MarkFlagsOneRequired("gt-name", "pred-name")

	similar := &cobra.Command{
		Use:   "similar",
		Short: "List image files whose names match a pattern",
		RunE:  env.runSimilar,
	}
	similar.Flags().StringVar(&env.pattern, "pattern", "", "case-insensitive glob, e.g. 'pred_*.gif'")
	similar.Flags().StringVar(&env.like, "like", "", "derive the pattern from this file name")
	similar.MarkFlagsMutuallyExclusive("pattern", "like")

	cmd.AddCommand(pairs, similar)
	return cmd
}

func (d *discoverEnv) runPairs(cmd *cobra.Command, _ []string) error {
	folders, err := discovery.FindPairs(cmd.Context(), d.base, d.gtName, d.predName)
	if folders == nil && err != nil {
		return err
	}
	if err != nil {
		logging.Warningf("Some directories could not be read: %v", err)
	}
	out := cmd.OutOrStdout()
	for _, f := range folders {
		fmt.Fprintln(out, f)
	}
	fmt.Fprintf(out, "%d folder(s), %d complete\n", len(folders), len(discovery.Complete(folders)))
	return nil
}

func (d *discoverEnv) runSimilar(cmd *cobra.Command, _ []string) error {
	pattern := d.pattern
	if d.like != "" {
		pattern = discovery.PatternFromFile(d.like)
	}
	if pattern == "" {
		return errors.New("one of --pattern or --like is required")
	}
	files, err := discovery.FindSimilar(cmd.Context(), d.base, pattern)
	if files == nil && err != nil {
		return err
	}
	if err != nil {
		logging.Warningf("Some directories could not be read: %v", err)
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}
