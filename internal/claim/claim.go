// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package claim keeps concurrent workers from converting the same document.
// A claim is an exclusive advisory lock on <dir>/<base>.lock. The kernel
// drops the lock when its holder exits, so a crashed worker never leaves a
// permanent claim behind. Lock files are never deleted: a peer may already
// have the path open, and unlinking it would let two workers lock
// different inodes under the same name.
package claim

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DirName is the subdirectory of the active output area holding lock files.
const DirName = ".claims"

const lockExt = ".lock"

// Registry hands out claims for document base names.
type Registry struct {
	dir string
}

// NewRegistry returns a registry storing lock files in dir, creating it if
// needed.
func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating claims directory %s: %w", dir, err)
	}
	return &Registry{dir: dir}, nil
}

// Dir returns the directory holding lock files.
func (r *Registry) Dir() string { return r.dir }

func (r *Registry) path(base string) string {
	return filepath.Join(r.dir, base+lockExt)
}

// Claim is a held document lock.
type Claim struct {
	base string
	lock *flock.Flock
}

// Base returns the claimed document base name.
func (c *Claim) Base() string { return c.base }

// Release unlocks the claim. The lock file stays in place for the next
// holder.
func (c *Claim) Release() error {
	if err := c.lock.Unlock(); err != nil {
		return fmt.Errorf("releasing claim %s: %w", c.base, err)
	}
	return nil
}

// Acquire tries to claim base without blocking. ok is false when another
// worker holds the claim.
func (r *Registry) Acquire(base string) (c *Claim, ok bool, err error) {
	lock := flock.New(r.path(base))
	ok, err = lock.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("acquire claim %s: %w", base, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &Claim{base: base, lock: lock}, true, nil
}

// InFlight reports whether some worker, this process included, currently
// holds the claim for base. A lock file with no holder is left alone.
func (r *Registry) InFlight(base string) bool {
	path := r.path(base)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		// Unknown state; treat as busy so the archiver leaves it alone.
		return true
	}
	if !ok {
		return true
	}
	_ = lock.Unlock()
	return false
}
