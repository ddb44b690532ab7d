/*
gifcompare
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

// gifcompare compares a ground truth GIF against a predicted GIF: visual
// overlays, per-frame quality metrics and folder discovery.
package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/xswordsx/gifcompare/internal/config"
	"github.com/xswordsx/gifcompare/internal/logging"
)

// rootEnv holds the state shared by every subcommand.
type rootEnv struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	env := &rootEnv{cfg: config.Default()}
	cmd := &cobra.Command{
		Use:           "gifcompare",
		Short:         "Compare ground truth and predicted GIF animations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.SetLogger(logging.New(cmd.ErrOrStderr(), env.verbose))

			cfg, err := config.Resolve(env.configPath)
			if err != nil {
				return err
			}
			env.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&env.configPath, "config", "", "JSON config file")
	cmd.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "log debug messages")

	cmd.AddCommand(
		getOverlayCmd(env),
		getExportCmd(env),
		getMetricsCmd(env),
		getAverageCmd(env),
		getDiscoverCmd(),
		getPDiffCmd(env),
		getFramesCmd(),
		getEditCmd(),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// writePNG encodes img to path.
func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}

// reportWritten prints the path and size of a file just written.
func reportWritten(cmd *cobra.Command, path string) {
	fi, err := os.Stat(path)
	if err != nil {
		logging.Warningf("stat %s: %v", path, err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, humanize.Bytes(uint64(fi.Size())))
}

// progressPrinter reports batch progress on stderr.
func progressPrinter(cmd *cobra.Command, what string) func(done, total int) {
	return func(done, total int) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\r%s %d/%d", what, done, total)
		if done == total {
			fmt.Fprintln(cmd.ErrOrStderr())
		}
	}
}
