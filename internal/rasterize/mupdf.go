// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/pdiddy/pdf2png/internal/artifact"
)

// MuPDF rasterizes in process with MuPDF through go-fitz. Pages are
// flattened onto white and encoded as 24-bit PNG to match ghostscript's
// png16m device.
type MuPDF struct {
	DPI int
}

// NewMuPDF returns an in-process rasterizer rendering at dpi.
func NewMuPDF(dpi int) *MuPDF {
	return &MuPDF{DPI: dpi}
}

// Rasterize renders every page of pdfPath. Page 1 is written last so its
// presence, the completion marker, implies every other page is on disk.
func (m *MuPDF) Rasterize(ctx context.Context, pdfPath, outDir, base string) error {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return fmt.Errorf("%s has no pages", filepath.Base(pdfPath))
	}

	for _, page := range renderOrder(n) {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := doc.ImageDPI(page-1, float64(m.DPI))
		if err != nil {
			return fmt.Errorf("rendering %s page %d: %w", filepath.Base(pdfPath), page, err)
		}
		if err := writePNG(filepath.Join(outDir, artifact.PageName(base, page)), img); err != nil {
			return err
		}
	}
	return nil
}

// renderOrder returns pages 2..n followed by page 1.
func renderOrder(n int) []int {
	order := make([]int, 0, n)
	for p := 2; p <= n; p++ {
		order = append(order, p)
	}
	return append(order, 1)
}

// writePNG encodes img as an opaque PNG via a temporary file and renames it
// into place, so readers never see a half-written page.
func writePNG(path string, img image.Image) error {
	flat := image.NewRGBA(img.Bounds())
	draw.Draw(flat, flat.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".page-*.png")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, flat); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}
