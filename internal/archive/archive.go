// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive moves page-1 artifacts from the active output area to the
// archive area once a document no longer needs active review.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf2png/internal/artifact"
)

// Sweeper relocates page-1 artifacts from ActiveDir to ArchiveDir.
type Sweeper struct {
	ActiveDir  string
	ArchiveDir string

	// InFlight reports whether a worker is still converting base. Artifacts
	// of in-flight documents are left in place. Nil means nothing is in
	// flight.
	InFlight func(base string) bool
}

// Sweep scans the active area once. For every file whose name contains the
// page-1 marker, it moves the file to the archive area when no page-2
// artifact for the same document exists in either area. It stops at the
// first error; the sweep is best effort and the caller is expected to retry
// on its next iteration.
func (s *Sweeper) Sweep() (moved int, err error) {
	entries, err := os.ReadDir(s.ActiveDir)
	if err != nil {
		return 0, fmt.Errorf("reading active area: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.Contains(name, artifact.FirstPageMarker) {
			continue
		}
		base := artifact.DocumentBase(name)
		if s.InFlight != nil && s.InFlight(base) {
			continue
		}
		if artifact.Exists(2, base, s.ActiveDir, s.ArchiveDir) {
			continue
		}
		src := filepath.Join(s.ActiveDir, name)
		dst := filepath.Join(s.ArchiveDir, name)
		if err := Move(src, dst); err != nil {
			return moved, fmt.Errorf("archiving %s: %w", name, err)
		}
		moved++
	}
	return moved, nil
}
