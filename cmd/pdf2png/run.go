// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf2png/internal/archive"
	"github.com/pdiddy/pdf2png/internal/claim"
	"github.com/pdiddy/pdf2png/internal/convert"
	"github.com/pdiddy/pdf2png/internal/discover"
	"github.com/pdiddy/pdf2png/internal/fleet"
	"github.com/pdiddy/pdf2png/internal/ledger"
	"github.com/pdiddy/pdf2png/internal/rasterize"
	"github.com/pdiddy/pdf2png/internal/stopsignal"
	"github.com/pdiddy/pdf2png/pkg/types"
)

// runRoot dispatches to toggle, spawn, or convert.
func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if toggle, _ := cmd.Flags().GetBool("toggle-signal"); toggle {
		return runToggle(cfg, os.Stdout)
	}

	spawn, _ := cmd.Flags().GetInt("spawn")
	cpuTarget, _ := cmd.Flags().GetInt("spawn-to-cpu-utilization")
	if spawn != 0 || cpuTarget != 0 {
		cfgFile, _ := cmd.Flags().GetString("config")
		return runSpawn(cmd.Context(), cfg, cfgFile, spawn, cpuTarget)
	}

	return runConvert(cmd.Context(), cfg)
}

func runToggle(cfg types.Config, w io.Writer) error {
	sig, err := stopsignal.NewFile(cfg.StopMarker)
	if err != nil {
		return err
	}
	stopped, err := sig.Toggle()
	if err != nil {
		return err
	}
	if stopped {
		fmt.Fprintf(w, "Stop signal file created (%s). Conversions will stop after current conversions complete.\n", sig.Path)
	} else {
		fmt.Fprintf(w, "Stop signal file removed (%s). Conversions will continue.\n", sig.Path)
	}
	return nil
}

func runSpawn(ctx context.Context, cfg types.Config, cfgFile string, count, cpuTarget int) error {
	if count != 0 && cpuTarget != 0 {
		return fmt.Errorf("--spawn and --spawn-to-cpu-utilization are mutually exclusive")
	}
	if err := cfg.ValidatePaths(); err != nil {
		return err
	}

	launcher, err := fleet.NewProcessLauncher(cfg.Fleet.LogDir, logger)
	if err != nil {
		return err
	}
	sp := &fleet.Spawner{
		Launcher:     launcher,
		Sampler:      fleet.CPUSampler{},
		Logger:       logger,
		Delay:        cfg.Fleet.Delay,
		SampleWindow: cfg.Fleet.SampleWindow,
		MaxInstances: cfg.Fleet.MaxInstances,
	}
	childArgs := fleet.ChildArgs(cfg, cfgFile)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var n int
	if cpuTarget != 0 {
		n, err = sp.SpawnToUtilization(ctx, cpuTarget, childArgs)
	} else {
		n, err = sp.SpawnCount(ctx, count, childArgs)
	}
	if cpuTarget != 0 && cfg.Fleet.MaxInstances > 0 && n >= cfg.Fleet.MaxInstances {
		fmt.Fprintf(os.Stdout, "Spawned %d worker(s); fleet.max_instances cap of %d reached.\n", n, cfg.Fleet.MaxInstances)
		return err
	}
	fmt.Fprintf(os.Stdout, "Spawned %d worker(s).\n", n)
	return err
}

func runConvert(ctx context.Context, cfg types.Config) error {
	if err := cfg.ValidatePaths(); err != nil {
		return err
	}
	if err := cfg.ValidateRasterizer(); err != nil {
		return err
	}

	sig, err := stopsignal.NewFile(cfg.StopMarker)
	if err != nil {
		return err
	}
	rast, err := rasterize.New(cfg.Rasterizer, os.Stdout)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log := logger.With(zap.String("run_id", runID))

	driver := &convert.Driver{
		Rasterizer: rast,
		Signal:     sig,
		Logger:     log,
		ActiveDir:  cfg.OutputWorkPath,
		ArchiveDir: cfg.CompletedPath,
		RunID:      runID,
	}
	sweeper := &archive.Sweeper{ActiveDir: cfg.OutputWorkPath, ArchiveDir: cfg.CompletedPath}
	if cfg.Claims {
		reg, err := claim.NewRegistry(filepath.Join(cfg.OutputWorkPath, claim.DirName))
		if err != nil {
			return err
		}
		driver.Claims = reg
		sweeper.InFlight = reg.InFlight
	}
	driver.Sweeper = sweeper

	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer l.Close()
		driver.Recorder = l
	}

	docs, err := discover.Find(cfg.InputPath, discover.Options{Reverse: cfg.Reverse, Random: cfg.Random})
	if err != nil {
		return err
	}
	log.Info("documents found", zap.Int("count", len(docs)),
		zap.Bool("reverse", cfg.Reverse), zap.Bool("random", cfg.Random),
		zap.String("backend", string(cfg.Rasterizer.Backend)))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := driver.Run(ctx, docs, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "All conversions complete")
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed conversion", result.Failed)
	}
	return nil
}
