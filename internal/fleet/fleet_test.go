// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fleet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf2png/pkg/types"
)

type fakeLauncher struct {
	launches [][]string
	failAt   int // 1-based launch that fails; 0 never
}

func (f *fakeLauncher) Launch(args []string) error {
	if f.failAt > 0 && len(f.launches)+1 == f.failAt {
		return errors.New("fork failed")
	}
	f.launches = append(f.launches, args)
	return nil
}

// scriptedSampler returns readings in order, repeating the last one.
type scriptedSampler struct {
	readings []float64
	windows  []time.Duration
	err      error
}

func (s *scriptedSampler) Utilization(_ context.Context, window time.Duration) (float64, error) {
	s.windows = append(s.windows, window)
	if s.err != nil {
		return 0, s.err
	}
	i := len(s.windows) - 1
	if i >= len(s.readings) {
		i = len(s.readings) - 1
	}
	return s.readings[i], nil
}

func newSpawner(l Launcher, s Sampler) *Spawner {
	return &Spawner{
		Launcher:     l,
		Sampler:      s,
		Logger:       zap.NewNop(),
		SampleWindow: 15 * time.Second,
	}
}

func TestChildArgs(t *testing.T) {
	cfg := types.Config{
		InputPath:      "/library",
		OutputWorkPath: "/work",
		CompletedPath:  "/completed",
		Reverse:        true,
		Random:         false,
	}
	assert.Equal(t, []string{
		"--input-path", "/library",
		"--output-work-path", "/work",
		"--completed-path", "/completed",
	}, ChildArgs(cfg, ""))

	args := ChildArgs(cfg, "/etc/pdf2png.yaml")
	assert.Equal(t, []string{"--config", "/etc/pdf2png.yaml"}, args[len(args)-2:])
	for _, a := range args {
		assert.False(t, strings.HasPrefix(a, "--spawn"), "spawn flags must not be forwarded")
		assert.NotEqual(t, "--reverse", a)
		assert.NotEqual(t, "--random", a)
	}
}

func TestChildArgsForwardsSharedSettings(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.InputPath = "/library"
	cfg.OutputWorkPath = "/work"
	cfg.CompletedPath = "/completed"
	cfg.StopMarker = "/shared/stop"
	cfg.LedgerPath = "/var/pdf2png/ledger.db"
	cfg.LogLevel = "debug"
	cfg.Rasterizer.Backend = types.BackendMuPDF
	cfg.Reverse = true

	assert.Equal(t, []string{
		"--input-path", "/library",
		"--output-work-path", "/work",
		"--completed-path", "/completed",
		"--stop-marker", "/shared/stop",
		"--backend", "mupdf",
		"--ledger", "/var/pdf2png/ledger.db",
		"--log-level", "debug",
	}, ChildArgs(cfg, ""))
}

func TestSpawnCount(t *testing.T) {
	l := &fakeLauncher{}
	s := newSpawner(l, nil)
	s.Delay = time.Millisecond

	n, err := s.SpawnCount(context.Background(), 3, []string{"--input-path", "/lib"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, l.launches, 3)
	assert.Equal(t, []string{"--input-path", "/lib"}, l.launches[2])
}

func TestSpawnCountStaggersLaunches(t *testing.T) {
	s := newSpawner(&fakeLauncher{}, nil)
	s.Delay = 20 * time.Millisecond

	start := time.Now()
	_, err := s.SpawnCount(context.Background(), 3, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestSpawnCountErrors(t *testing.T) {
	_, err := newSpawner(&fakeLauncher{}, nil).SpawnCount(context.Background(), 0, nil)
	assert.Error(t, err)

	l := &fakeLauncher{failAt: 2}
	n, err := newSpawner(l, nil).SpawnCount(context.Background(), 3, nil)
	assert.ErrorContains(t, err, "worker 2 of 3")
	assert.Equal(t, 1, n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newSpawner(&fakeLauncher{}, nil)
	s.Delay = time.Hour
	n, err = s.SpawnCount(ctx, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestSpawnToUtilization(t *testing.T) {
	tests := []struct {
		name     string
		readings []float64
		target   int
		max      int
		want     int
	}{
		{"already above target", []float64{92}, 80, 0, 0},
		{"ramps until target", []float64{10, 35, 60, 81}, 80, 0, 3},
		{"exactly at target stops", []float64{50, 80}, 80, 0, 1},
		{"cap reached first", []float64{5}, 80, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLauncher{}
			smp := &scriptedSampler{readings: tt.readings}
			s := newSpawner(l, smp)
			s.MaxInstances = tt.max

			n, err := s.SpawnToUtilization(context.Background(), tt.target, []string{"--input-path", "/lib"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			assert.Len(t, l.launches, tt.want)
			for _, w := range smp.windows {
				assert.Equal(t, 15*time.Second, w)
			}
		})
	}
}

func TestSpawnToUtilizationErrors(t *testing.T) {
	s := newSpawner(&fakeLauncher{}, &scriptedSampler{readings: []float64{0}})
	for _, target := range []int{0, -5, 101} {
		_, err := s.SpawnToUtilization(context.Background(), target, nil)
		assert.Error(t, err, "target %d", target)
	}

	s = newSpawner(&fakeLauncher{}, &scriptedSampler{err: errors.New("no /proc")})
	_, err := s.SpawnToUtilization(context.Background(), 50, nil)
	assert.ErrorContains(t, err, "sampling CPU utilization")
}

// TestHelperProcess is not a real test; ProcessLauncher starts the test
// binary with it as the entry point.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("PDF2PNG_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Println("helper args:", strings.Join(os.Args[len(os.Args)-2:], " "))
	os.Exit(0)
}

func TestProcessLauncherWritesWorkerLog(t *testing.T) {
	t.Setenv("PDF2PNG_WANT_HELPER_PROCESS", "1")
	logDir := filepath.Join(t.TempDir(), "logs")
	l := &ProcessLauncher{
		Executable: os.Args[0],
		LogDir:     logDir,
		Logger:     zap.NewNop(),
	}

	require.NoError(t, l.Launch([]string{"-test.run=^TestHelperProcess$", "--", "--input-path", "/lib"}))

	var content string
	require.Eventually(t, func() bool {
		logs, _ := filepath.Glob(filepath.Join(logDir, "pdf2png-*.log"))
		if len(logs) != 1 {
			return false
		}
		data, _ := os.ReadFile(logs[0])
		content = string(data)
		return strings.Contains(content, "helper args:")
	}, 10*time.Second, 50*time.Millisecond)
	assert.Contains(t, content, "--input-path /lib")
}

func TestProcessLauncherMissingExecutable(t *testing.T) {
	l := &ProcessLauncher{Executable: filepath.Join(t.TempDir(), "nope")}
	assert.Error(t, l.Launch(nil))
}
