// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/pdiddy/pdf2png/internal/container"
	"github.com/pdiddy/pdf2png/pkg/types"
)

const (
	containerInputDir  = "/in"
	containerOutputDir = "/out"
)

// Container runs ghostscript inside a container image. The document's
// directory is mounted read-only at /in and the output directory at /out.
type Container struct {
	Runtime    container.Runtime
	Image      string
	Binary     string
	Device     string
	Resolution int

	// Output receives the container's stdout and stderr. Nil discards them.
	Output io.Writer
}

// NewContainer creates a container rasterizer. It verifies that the image
// exists locally before returning.
func NewContainer(rt container.Runtime, cfg types.RasterizerConfig) (*Container, error) {
	if err := rt.ImageExists(cfg.Image); err != nil {
		return nil, fmt.Errorf("rasterizer image not available in %s: %w", rt.Name(), err)
	}
	return &Container{
		Runtime:    rt,
		Image:      cfg.Image,
		Binary:     cfg.Binary,
		Device:     cfg.Device,
		Resolution: cfg.Resolution,
	}, nil
}

// Rasterize runs ghostscript in a fresh container and waits for it to exit.
func (c *Container) Rasterize(ctx context.Context, pdfPath, outDir, base string) error {
	absPDF, err := filepath.Abs(pdfPath)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", pdfPath, err)
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", outDir, err)
	}

	mounts := []container.Mount{
		{Source: filepath.Dir(absPDF), Target: containerInputDir, ReadOnly: true},
		{Source: absOut, Target: containerOutputDir},
	}
	pattern := path.Join(containerOutputDir, escapePercent(base)+"_%04d.png")
	args := append([]string{c.Binary},
		Args(c.Device, c.Resolution, pattern, path.Join(containerInputDir, filepath.Base(absPDF)))...)

	return runCaptured(ctx, runtimeRunner{rt: c.Runtime, image: c.Image, mounts: mounts},
		c.Binary, args, c.Output, filepath.Base(pdfPath))
}

// runtimeRunner adapts a container runtime to the runner interface. The
// name argument is ignored; the command is carried in args.
type runtimeRunner struct {
	rt     container.Runtime
	image  string
	mounts []container.Mount
}

func (r runtimeRunner) Run(ctx context.Context, _ string, args []string, stdout, stderr io.Writer) error {
	return r.rt.Run(ctx, r.image, r.mounts, args, stdout, stderr)
}
