// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover finds the PDF documents under an input root and orders
// them for processing.
package discover

import (
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const pdfExt = ".pdf"

// Options controls the processing order.
type Options struct {
	// Reverse reverses the walk order.
	Reverse bool

	// Random shuffles the list after any reversal.
	Random bool

	// Seed fixes the shuffle. Zero derives a seed from the clock and pid,
	// so workers launched moments apart walk the library differently.
	Seed uint64
}

// Find walks root recursively and returns the absolute path of every file
// whose name ends in ".pdf", in any case. Subdirectories that cannot be
// read are skipped; an unreadable root is an error.
func Find(root string, opts Options) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	var paths []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), pdfExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	Order(paths, opts)
	return paths, nil
}

// Order reverses and then shuffles paths in place according to opts.
func Order(paths []string, opts Options) {
	if opts.Reverse {
		slices.Reverse(paths)
	}
	if opts.Random {
		seed := opts.Seed
		if seed == 0 {
			seed = TimeSeed()
		}
		r := rand.New(rand.NewPCG(seed, seed>>1^0x9e3779b97f4a7c15))
		r.Shuffle(len(paths), func(i, j int) {
			paths[i], paths[j] = paths[j], paths[i]
		})
	}
}

// TimeSeed mixes the wall clock in nanoseconds with the process id.
func TimeSeed() uint64 {
	return uint64(time.Now().UnixNano()) ^ uint64(os.Getpid())<<32
}
