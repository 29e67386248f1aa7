// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2png/internal/rasterize"
	"github.com/pdiddy/pdf2png/internal/stopsignal"
	"github.com/pdiddy/pdf2png/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the rasterizer and show the stop signal state",
	Long: `Check confirms that the configured rasterizer backend can run (the
ghostscript binary is on PATH, or the container runtime and image exist)
and reports whether the stop marker is currently set. Nothing is converted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runCheck(os.Stdout, cfg, rasterize.Preflight(cfg.Rasterizer))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(w io.Writer, cfg types.Config, statuses []rasterize.Status) error {
	if err := cfg.ValidateRasterizer(); err != nil {
		return err
	}

	rows := make([][]string, 0, len(statuses)+1)
	for _, s := range statuses {
		state := "ok"
		if !s.Available {
			state = "missing"
		}
		rows = append(rows, []string{s.Name, state, s.Detail})
	}

	sig, err := stopsignal.NewFile(cfg.StopMarker)
	if err != nil {
		return err
	}
	stopState := "clear"
	if sig.Stopped() {
		stopState = "set"
	}
	rows = append(rows, []string{"stop marker", stopState, sig.Path})

	fmt.Fprintln(w, renderTable([]string{"Check", "State", "Detail"}, rows, nil))
	if !rasterize.Ready(statuses) {
		return fmt.Errorf("rasterizer backend %s is not ready", cfg.Rasterizer.Backend)
	}
	return nil
}
