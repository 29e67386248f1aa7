// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fleet

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProcessLauncher starts copies of an executable as detached processes and
// forgets them.
type ProcessLauncher struct {
	// Executable is the program to start, normally os.Executable().
	Executable string

	// LogDir, when set, receives a pdf2png-<uuid>.log file per worker.
	// Otherwise workers share Stdout and Stderr.
	LogDir string

	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// NewProcessLauncher returns a launcher for the running executable.
func NewProcessLauncher(logDir string, logger *zap.Logger) (*ProcessLauncher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable: %w", err)
	}
	return &ProcessLauncher{
		Executable: exe,
		LogDir:     logDir,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Logger:     logger,
	}, nil
}

// Launch starts the executable with args and releases it.
func (l *ProcessLauncher) Launch(args []string) error {
	cmd := exec.Command(l.Executable, args...)
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	cmd.SysProcAttr = detachedAttr()

	var logPath string
	if l.LogDir != "" {
		if err := os.MkdirAll(l.LogDir, 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		logPath = filepath.Join(l.LogDir, "pdf2png-"+uuid.NewString()+".log")
		f, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("creating worker log: %w", err)
		}
		// The child holds its own descriptor once started.
		defer f.Close()
		cmd.Stdout = f
		cmd.Stderr = f
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", l.Executable, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("releasing worker %d: %w", pid, err)
	}
	if l.Logger != nil {
		fields := []zap.Field{zap.Int("pid", pid)}
		if logPath != "" {
			fields = append(fields, zap.String("log", logPath))
		}
		l.Logger.Debug("worker started", fields...)
	}
	return nil
}
