// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact names page images and answers whether a document's pages
// have already been produced in the active output area or the archive area.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Ext is the extension of every page artifact.
const Ext = ".png"

// FirstPageMarker is the substring identifying a page-1 artifact.
const FirstPageMarker = "_0001"

// pagePattern matches "<base>_NNNN.png" and captures the base.
var pagePattern = regexp.MustCompile(`^(.*)_(\d{4,})\.png$`)

// PageName returns the artifact file name for page n (1-indexed) of the
// document with the given base name, e.g. "report_0001.png".
func PageName(base string, page int) string {
	return fmt.Sprintf("%s_%04d%s", base, page, Ext)
}

// OutputPattern returns the printf-style pattern rasterizers use to name
// every page of a document inside dir.
func OutputPattern(dir, base string) string {
	return filepath.Join(dir, base+"_%04d"+Ext)
}

// BaseName strips the directory and extension from a document path.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Exists reports whether the page artifact for base exists in either
// activeDir or archiveDir. A directory that does not exist simply holds
// nothing.
func Exists(page int, base, activeDir, archiveDir string) bool {
	name := PageName(base, page)
	for _, dir := range []string{activeDir, archiveDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// DocumentBase derives a document base name from a page-1 artifact file
// name. Names ending in "_0001.png" lose that suffix; anything else loses
// only its extension.
func DocumentBase(name string) string {
	if trimmed, ok := strings.CutSuffix(name, FirstPageMarker+Ext); ok {
		return trimmed
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Remove deletes every page artifact of base in dir and returns how many
// files were removed. Only names of the exact form "<base>_NNNN.png" match,
// so base "a" never touches "a_b_0001.png".
func Remove(dir, base string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pagePattern.FindStringSubmatch(e.Name())
		if m == nil || m[1] != base {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}
