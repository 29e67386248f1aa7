// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAreas(t *testing.T) (active, archive string) {
	t.Helper()
	root := t.TempDir()
	active = filepath.Join(root, "work")
	archive = filepath.Join(root, "completed")
	require.NoError(t, os.MkdirAll(active, 0o755))
	require.NoError(t, os.MkdirAll(archive, 0o755))
	return active, archive
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
}

func TestSweep(t *testing.T) {
	tests := []struct {
		name          string
		active        []string
		archived      []string
		inFlight      map[string]bool
		wantMoved     int
		wantInActive  []string
		wantInArchive []string
	}{
		{
			name:          "page 1 without page 2 is archived",
			active:        []string{"doc_0001.png"},
			wantMoved:     1,
			wantInArchive: []string{"doc_0001.png"},
		},
		{
			name:         "page 2 in active area keeps page 1 in place",
			active:       []string{"doc_0001.png", "doc_0002.png"},
			wantInActive: []string{"doc_0001.png", "doc_0002.png"},
		},
		{
			name:         "page 2 in archive area keeps page 1 in place",
			active:       []string{"doc_0001.png"},
			archived:     []string{"doc_0002.png"},
			wantInActive: []string{"doc_0001.png"},
		},
		{
			name:         "in-flight document is left alone",
			active:       []string{"doc_0001.png"},
			inFlight:     map[string]bool{"doc": true},
			wantInActive: []string{"doc_0001.png"},
		},
		{
			name:          "only page-1 artifacts move",
			active:        []string{"a_0001.png", "b_0003.png", "notes.txt"},
			wantMoved:     1,
			wantInActive:  []string{"b_0003.png", "notes.txt"},
			wantInArchive: []string{"a_0001.png"},
		},
		{
			name:          "mixed documents",
			active:        []string{"a_0001.png", "a_0002.png", "b_0001.png"},
			wantMoved:     1,
			wantInActive:  []string{"a_0001.png", "a_0002.png"},
			wantInArchive: []string{"b_0001.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, archive := setupAreas(t)
			for _, n := range tt.active {
				writeFile(t, active, n)
			}
			for _, n := range tt.archived {
				writeFile(t, archive, n)
			}

			s := &Sweeper{
				ActiveDir:  active,
				ArchiveDir: archive,
				InFlight:   func(base string) bool { return tt.inFlight[base] },
			}
			moved, err := s.Sweep()
			require.NoError(t, err)
			assert.Equal(t, tt.wantMoved, moved)

			for _, n := range tt.wantInActive {
				assert.FileExists(t, filepath.Join(active, n))
			}
			for _, n := range tt.wantInArchive {
				assert.FileExists(t, filepath.Join(archive, n))
				assert.NoFileExists(t, filepath.Join(active, n))
			}
		})
	}
}

func TestSweepMissingActiveArea(t *testing.T) {
	s := &Sweeper{ActiveDir: filepath.Join(t.TempDir(), "missing"), ArchiveDir: t.TempDir()}
	moved, err := s.Sweep()
	assert.Error(t, err)
	assert.Zero(t, moved)
}

func TestSweepStopsAtFirstError(t *testing.T) {
	active, _ := setupAreas(t)
	writeFile(t, active, "doc_0001.png")

	s := &Sweeper{ActiveDir: active, ArchiveDir: filepath.Join(t.TempDir(), "missing")}
	moved, err := s.Sweep()
	assert.Error(t, err)
	assert.Zero(t, moved)
	assert.FileExists(t, filepath.Join(active, "doc_0001.png"), "failed move leaves the source in place")
}

func TestCopyThenRemove(t *testing.T) {
	src := filepath.Join(t.TempDir(), "doc_0001.png")
	dst := filepath.Join(t.TempDir(), "doc_0001.png")
	require.NoError(t, os.WriteFile(src, []byte("image bytes"), 0o644))

	require.NoError(t, copyThenRemove(src, dst))

	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))
}

func TestCopyThenRemoveMissingDestinationDir(t *testing.T) {
	src := filepath.Join(t.TempDir(), "doc_0001.png")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	err := copyThenRemove(src, filepath.Join(t.TempDir(), "missing", "doc_0001.png"))
	assert.Error(t, err)
	assert.FileExists(t, src)
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a_0001.png")
	dst := filepath.Join(dir, "sub", "a_0001.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	require.NoError(t, Move(src, dst))
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)
}
