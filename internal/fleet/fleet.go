// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fleet launches additional, independent worker processes against
// the same input, output, and archive directories. Launched workers are not
// tracked; the shared stop marker is the only way to halt them.
package fleet

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf2png/pkg/types"
)

// Launcher starts one detached worker process with the given arguments.
type Launcher interface {
	Launch(args []string) error
}

// Sampler measures average CPU utilization, in percent, over a window.
type Sampler interface {
	Utilization(ctx context.Context, window time.Duration) (float64, error)
}

// Spawner launches workers by count or until a CPU utilization target.
type Spawner struct {
	Launcher Launcher
	Sampler  Sampler
	Logger   *zap.Logger

	// Delay precedes each fixed-count launch to stagger start-up.
	Delay time.Duration

	// SampleWindow is the CPU averaging window. It also gives the previous
	// launch time to ramp up before the next decision.
	SampleWindow time.Duration

	// MaxInstances caps launches in utilization mode; <= 0 is unlimited.
	MaxInstances int
}

// ChildArgs returns the command line for a spawned worker: the three path
// flags, then --config, --stop-marker, --backend, --ledger and --log-level
// when the parent has them set, so the worker watches the same stop marker
// and writes to the same ledger with the same rasterizer. Ordering and
// spawn flags are never forwarded, so children do not spawn in turn and
// each one shuffles its work list independently.
func ChildArgs(cfg types.Config, configFile string) []string {
	args := []string{
		"--input-path", cfg.InputPath,
		"--output-work-path", cfg.OutputWorkPath,
		"--completed-path", cfg.CompletedPath,
	}
	for _, opt := range []struct{ flag, value string }{
		{"--config", configFile},
		{"--stop-marker", cfg.StopMarker},
		{"--backend", string(cfg.Rasterizer.Backend)},
		{"--ledger", cfg.LedgerPath},
		{"--log-level", cfg.LogLevel},
	} {
		if opt.value != "" {
			args = append(args, opt.flag, opt.value)
		}
	}
	return args
}

// SpawnCount launches n workers, waiting Delay before each launch. It
// returns how many were launched.
func (s *Spawner) SpawnCount(ctx context.Context, n int, args []string) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("spawn count must be positive, got %d", n)
	}
	launched := 0
	for launched < n {
		if err := sleep(ctx, s.Delay); err != nil {
			return launched, err
		}
		if err := s.Launcher.Launch(args); err != nil {
			return launched, fmt.Errorf("launching worker %d of %d: %w", launched+1, n, err)
		}
		launched++
		s.Logger.Info("worker launched", zap.Int("launched", launched), zap.Int("requested", n))
	}
	return launched, nil
}

// SpawnToUtilization samples CPU utilization and launches one worker at a
// time while it stays below target percent. It returns how many were
// launched.
func (s *Spawner) SpawnToUtilization(ctx context.Context, target int, args []string) (int, error) {
	if target < 1 || target > 100 {
		return 0, fmt.Errorf("CPU utilization target must be between 1 and 100, got %d", target)
	}
	launched := 0
	for {
		if s.MaxInstances > 0 && launched >= s.MaxInstances {
			s.Logger.Warn("instance cap reached before CPU target",
				zap.Int("launched", launched), zap.Int("target_percent", target))
			return launched, nil
		}

		s.Logger.Info("sampling CPU utilization", zap.Duration("window", s.SampleWindow))
		util, err := s.Sampler.Utilization(ctx, s.SampleWindow)
		if err != nil {
			return launched, fmt.Errorf("sampling CPU utilization: %w", err)
		}
		s.Logger.Info("CPU utilization",
			zap.Float64("percent", util), zap.Int("target_percent", target))
		if util >= float64(target) {
			return launched, nil
		}

		if err := s.Launcher.Launch(args); err != nil {
			return launched, fmt.Errorf("launching worker %d: %w", launched+1, err)
		}
		launched++
		s.Logger.Info("worker launched", zap.Int("launched", launched))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
