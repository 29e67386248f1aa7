// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rasterize turns PDF documents into one PNG file per page.
// Every backend names its output "<base>_%04d.png" inside the output
// directory, the layout the completion checks and the downstream image
// screening depend on.
package rasterize

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/pdf2png/internal/container"
	"github.com/pdiddy/pdf2png/pkg/types"
)

// ErrUnknownBackend is returned by New for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown rasterizer backend")

// Rasterizer renders every page of a PDF into outDir. It blocks until the
// document is done and returns an error if any page could not be produced.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir, base string) error
}

// New builds the rasterizer selected by cfg.Backend. Console output of
// external tools goes to output; nil discards it.
func New(cfg types.RasterizerConfig, output io.Writer) (Rasterizer, error) {
	switch cfg.Backend {
	case types.BackendGhostscript, "":
		gs := NewGhostscript(cfg)
		gs.Output = output
		return gs, nil
	case types.BackendContainer:
		rt, err := container.ForName(cfg.Runtime)
		if err != nil {
			return nil, err
		}
		c, err := NewContainer(rt, cfg)
		if err != nil {
			return nil, err
		}
		c.Output = output
		return c, nil
	case types.BackendMuPDF:
		return NewMuPDF(cfg.Resolution), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
