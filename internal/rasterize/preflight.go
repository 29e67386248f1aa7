// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"fmt"
	"os/exec"

	"github.com/pdiddy/pdf2png/internal/container"
	"github.com/pdiddy/pdf2png/pkg/types"
)

// Status reports whether one requirement of the configured backend is met.
type Status struct {
	Name      string
	Detail    string
	Available bool
}

// Preflight checks the external pieces the configured backend needs
// without converting anything.
func Preflight(cfg types.RasterizerConfig) []Status {
	return preflight(cfg, exec.LookPath, container.ForName)
}

func preflight(
	cfg types.RasterizerConfig,
	lookPath func(string) (string, error),
	runtimeFor func(string) (container.Runtime, error),
) []Status {
	switch cfg.Backend {
	case types.BackendGhostscript, "":
		st := Status{Name: "ghostscript", Detail: cfg.Binary}
		if p, err := lookPath(cfg.Binary); err != nil {
			st.Detail = fmt.Sprintf("binary %q not found", cfg.Binary)
		} else {
			st.Available = true
			st.Detail = p
		}
		return []Status{st}

	case types.BackendContainer:
		rt, err := runtimeFor(cfg.Runtime)
		if err != nil {
			return []Status{
				{Name: "container runtime", Detail: err.Error()},
				{Name: "image", Detail: cfg.Image + " (runtime unavailable)"},
			}
		}
		statuses := []Status{{Name: "container runtime", Detail: rt.Name(), Available: true}}
		img := Status{Name: "image", Detail: cfg.Image}
		if err := rt.ImageExists(cfg.Image); err != nil {
			img.Detail = err.Error()
		} else {
			img.Available = true
		}
		return append(statuses, img)

	case types.BackendMuPDF:
		return []Status{{Name: "mupdf", Detail: "linked in process", Available: true}}

	default:
		return []Status{{Name: string(cfg.Backend), Detail: ErrUnknownBackend.Error()}}
	}
}

// Ready reports whether every status is available.
func Ready(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Available {
			return false
		}
	}
	return len(statuses) > 0
}
