// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stopsignal implements the cooperative stop flag shared by every
// worker on a machine. The flag is the existence of a marker file.
package stopsignal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MarkerName is the file name of the default stop marker in the user's
// home directory.
const MarkerName = "stop_conv.txt"

// Signal reports and flips the stop flag.
type Signal interface {
	// Stopped reports whether workers should halt before their next document.
	Stopped() bool

	// Toggle flips the flag and returns the new state: true means workers
	// will stop, false means they may continue.
	Toggle() (stopped bool, err error)
}

// File is a Signal backed by a marker file. Two workers toggling at the
// same moment race; the last one wins.
type File struct {
	Path string
}

// DefaultPath returns <home>/stop_conv.txt.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, MarkerName), nil
}

// NewFile returns a File signal at path, or at DefaultPath when path is empty.
func NewFile(path string) (*File, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &File{Path: path}, nil
}

// Stopped reports whether the marker file exists.
func (f *File) Stopped() bool {
	info, err := os.Stat(f.Path)
	return err == nil && !info.IsDir()
}

// Toggle removes the marker if it exists, otherwise creates it.
func (f *File) Toggle() (bool, error) {
	if f.Stopped() {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return true, fmt.Errorf("removing stop marker %s: %w", f.Path, err)
		}
		return false, nil
	}
	if err := os.WriteFile(f.Path, []byte("stop"), 0o644); err != nil {
		return false, fmt.Errorf("creating stop marker %s: %w", f.Path, err)
	}
	return true, nil
}
