// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2png/internal/container"
	"github.com/pdiddy/pdf2png/pkg/types"
)

// fakeRunner records the command it was asked to run.
type fakeRunner struct {
	name   string
	args   []string
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, _, stderr io.Writer) error {
	f.name, f.args = name, args
	if f.stderr != "" {
		_, _ = io.WriteString(stderr, f.stderr)
	}
	return f.err
}

func TestGhostscriptCommand(t *testing.T) {
	r := &fakeRunner{}
	gs := NewGhostscript(types.DefaultConfig().Rasterizer)
	gs.run = r

	err := gs.Rasterize(context.Background(), "/library/report.pdf", "/work", "report")
	require.NoError(t, err)

	assert.Equal(t, "gs", r.name)
	assert.Equal(t, []string{
		"-dNOPAUSE",
		"-dBATCH",
		"-sDEVICE=png16m",
		"-r300",
		"-sOutputFile=" + filepath.Join("/work", "report_%04d.png"),
		"/library/report.pdf",
	}, r.args)
}

func TestGhostscriptEscapesPercent(t *testing.T) {
	r := &fakeRunner{}
	gs := NewGhostscript(types.DefaultConfig().Rasterizer)
	gs.run = r

	require.NoError(t, gs.Rasterize(context.Background(), "/lib/100%.pdf", "/work", "100%"))
	assert.Contains(t, r.args, "-sOutputFile="+filepath.Join("/work", "100%%_%04d.png"))
}

func TestGhostscriptFailureIncludesStderr(t *testing.T) {
	r := &fakeRunner{
		stderr: "Error: /undefined in --file--\n",
		err:    errors.New("exit status 1"),
	}
	gs := NewGhostscript(types.DefaultConfig().Rasterizer)
	gs.run = r

	err := gs.Rasterize(context.Background(), "/library/broken.pdf", "/work", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.pdf")
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Contains(t, err.Error(), "/undefined")
}

func TestTailBufferKeepsEnd(t *testing.T) {
	tb := &tailBuffer{max: 5}
	_, _ = tb.Write([]byte("abc"))
	_, _ = tb.Write([]byte("defgh"))
	assert.Equal(t, "defgh", tb.String())
}

// fakeRuntime implements container.Runtime.
type fakeRuntime struct {
	imageErr error
	image    string
	mounts   []container.Mount
	args     []string
	runErr   error
}

func (f *fakeRuntime) Name() string            { return "docker" }
func (f *fakeRuntime) Available() bool         { return true }
func (f *fakeRuntime) ImageExists(string) error { return f.imageErr }
func (f *fakeRuntime) Run(_ context.Context, image string, mounts []container.Mount, args []string, _, _ io.Writer) error {
	f.image, f.mounts, f.args = image, mounts, args
	return f.runErr
}

func TestContainerCommand(t *testing.T) {
	rt := &fakeRuntime{}
	cfg := types.DefaultConfig().Rasterizer
	c, err := NewContainer(rt, cfg)
	require.NoError(t, err)

	pdf := filepath.Join(t.TempDir(), "report.pdf")
	out := t.TempDir()
	require.NoError(t, c.Rasterize(context.Background(), pdf, out, "report"))

	assert.Equal(t, cfg.Image, rt.image)
	assert.Equal(t, []container.Mount{
		{Source: filepath.Dir(pdf), Target: "/in", ReadOnly: true},
		{Source: out, Target: "/out"},
	}, rt.mounts)
	assert.Equal(t, []string{
		"gs", "-dNOPAUSE", "-dBATCH", "-sDEVICE=png16m", "-r300",
		"-sOutputFile=/out/report_%04d.png", "/in/report.pdf",
	}, rt.args)
}

func TestContainerRunFailure(t *testing.T) {
	rt := &fakeRuntime{runErr: errors.New("exit status 2")}
	c, err := NewContainer(rt, types.DefaultConfig().Rasterizer)
	require.NoError(t, err)

	err = c.Rasterize(context.Background(), "/lib/a.pdf", t.TempDir(), "a")
	assert.ErrorContains(t, err, "exit status 2")
}

func TestNewContainerMissingImage(t *testing.T) {
	_, err := NewContainer(&fakeRuntime{imageErr: errors.New("no such image")}, types.DefaultConfig().Rasterizer)
	assert.ErrorContains(t, err, "rasterizer image not available")
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(types.RasterizerConfig{Backend: "imagemagick"}, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := types.DefaultConfig().Rasterizer
	r, err := New(cfg, io.Discard)
	require.NoError(t, err)
	assert.IsType(t, &Ghostscript{}, r)

	cfg.Backend = types.BackendMuPDF
	r, err = New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &MuPDF{}, r)
}

func TestRenderOrderWritesFirstPageLast(t *testing.T) {
	assert.Equal(t, []int{1}, renderOrder(1))
	assert.Equal(t, []int{2, 3, 4, 1}, renderOrder(4))
}

func TestMuPDFMissingFile(t *testing.T) {
	err := NewMuPDF(72).Rasterize(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), t.TempDir(), "missing")
	assert.Error(t, err)
}

func TestPreflight(t *testing.T) {
	found := func(string) (string, error) { return "/usr/bin/gs", nil }
	missing := func(name string) (string, error) { return "", fmt.Errorf("%s not found", name) }
	noRuntime := func(string) (container.Runtime, error) { return nil, errors.New("no container runtime available") }
	withRuntime := func(rt container.Runtime) func(string) (container.Runtime, error) {
		return func(string) (container.Runtime, error) { return rt, nil }
	}

	cfg := types.DefaultConfig().Rasterizer

	st := preflight(cfg, found, noRuntime)
	assert.True(t, Ready(st))
	assert.Equal(t, "/usr/bin/gs", st[0].Detail)

	st = preflight(cfg, missing, noRuntime)
	assert.False(t, Ready(st))
	assert.True(t, strings.Contains(st[0].Detail, "not found"))

	cfg.Backend = types.BackendContainer
	assert.False(t, Ready(preflight(cfg, found, noRuntime)))
	assert.True(t, Ready(preflight(cfg, found, withRuntime(&fakeRuntime{}))))
	assert.False(t, Ready(preflight(cfg, found, withRuntime(&fakeRuntime{imageErr: os.ErrNotExist}))))

	cfg.Backend = types.BackendMuPDF
	assert.True(t, Ready(preflight(cfg, missing, noRuntime)))

	cfg.Backend = "bogus"
	assert.False(t, Ready(preflight(cfg, found, noRuntime)))
}
