// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/pdf2png/internal/artifact"
	"github.com/pdiddy/pdf2png/pkg/types"
)

// stderrTail bounds how much ghostscript stderr is kept for error messages.
const stderrTail = 2048

// runner abstracts command execution for testing.
type runner interface {
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osRunner is the production runner backed by os/exec.
type osRunner struct{}

func (osRunner) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Ghostscript rasterizes with a ghostscript binary on the host.
type Ghostscript struct {
	Binary     string
	Device     string
	Resolution int

	// Output receives ghostscript's stdout and stderr. Nil discards them.
	Output io.Writer

	run runner
}

// NewGhostscript returns a host ghostscript rasterizer.
func NewGhostscript(cfg types.RasterizerConfig) *Ghostscript {
	return &Ghostscript{
		Binary:     cfg.Binary,
		Device:     cfg.Device,
		Resolution: cfg.Resolution,
		run:        osRunner{},
	}
}

// Args returns the ghostscript arguments that render pdfPath into files
// named by outputPattern:
//
//	-dNOPAUSE -dBATCH -sDEVICE=png16m -r300 -sOutputFile=<pattern> <pdf>
func Args(device string, resolution int, outputPattern, pdfPath string) []string {
	return []string{
		"-dNOPAUSE",
		"-dBATCH",
		"-sDEVICE=" + device,
		"-r" + strconv.Itoa(resolution),
		"-sOutputFile=" + outputPattern,
		pdfPath,
	}
}

// escapePercent protects literal '%' in a base name from ghostscript's
// page-number substitution.
func escapePercent(base string) string {
	return strings.ReplaceAll(base, "%", "%%")
}

// Rasterize runs ghostscript and waits for it to exit. A non-zero exit
// status is returned as an error carrying the end of stderr.
func (g *Ghostscript) Rasterize(ctx context.Context, pdfPath, outDir, base string) error {
	pattern := artifact.OutputPattern(outDir, escapePercent(base))
	args := Args(g.Device, g.Resolution, pattern, pdfPath)
	return runCaptured(ctx, g.run, g.Binary, args, g.Output, filepath.Base(pdfPath))
}

func runCaptured(ctx context.Context, r runner, bin string, args []string, output io.Writer, doc string) error {
	if output == nil {
		output = io.Discard
	}
	tail := &tailBuffer{max: stderrTail}
	if err := r.Run(ctx, bin, args, output, io.MultiWriter(output, tail)); err != nil {
		if msg := strings.TrimSpace(tail.String()); msg != "" {
			return fmt.Errorf("rasterizing %s with %s: %w: %s", doc, bin, err, msg)
		}
		return fmt.Errorf("rasterizing %s with %s: %w", doc, bin, err)
	}
	return nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
