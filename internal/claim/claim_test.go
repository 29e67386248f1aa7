// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package claim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(filepath.Join(t.TempDir(), DirName))
	require.NoError(t, err)
	return r
}

func TestAcquireAndRelease(t *testing.T) {
	r := newRegistry(t)

	c, ok, err := r.Acquire("doc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "doc", c.Base())
	assert.FileExists(t, filepath.Join(r.Dir(), "doc.lock"))

	require.NoError(t, c.Release())
	assert.FileExists(t, filepath.Join(r.Dir(), "doc.lock"), "lock files are reused, never unlinked")

	c2, ok, err := r.Acquire("doc")
	require.NoError(t, err)
	require.True(t, ok, "claim should be available again after release")
	require.NoError(t, c2.Release())
}

func TestAcquireHeldClaim(t *testing.T) {
	r := newRegistry(t)

	c, ok, err := r.Acquire("doc")
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = c.Release() })

	_, ok, err = r.Acquire("doc")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must not succeed while the first is held")

	other, ok, err := r.Acquire("other")
	require.NoError(t, err)
	assert.True(t, ok, "claims are per document")
	require.NoError(t, other.Release())
}

func TestInFlight(t *testing.T) {
	r := newRegistry(t)
	assert.False(t, r.InFlight("doc"), "no lock file")

	c, ok, err := r.Acquire("doc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.InFlight("doc"))

	require.NoError(t, c.Release())
	assert.False(t, r.InFlight("doc"))
}

func TestInFlightStaleFile(t *testing.T) {
	r := newRegistry(t)
	stale := filepath.Join(r.Dir(), "doc.lock")
	require.NoError(t, os.WriteFile(stale, nil, 0o644))

	assert.False(t, r.InFlight("doc"))
	assert.FileExists(t, stale, "an unheld lock file is left in place")

	c, ok, err := r.Acquire("doc")
	require.NoError(t, err)
	require.True(t, ok, "an unheld lock file can be claimed")
	assert.True(t, r.InFlight("doc"))
	require.NoError(t, c.Release())
}

func TestNewRegistryCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "work", DirName)
	_, err := NewRegistry(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}
