package types

import (
	"fmt"
	"os"
	"time"
)

// RasterizerBackend identifies the tool that turns a PDF into page images.
type RasterizerBackend string

const (
	BackendGhostscript RasterizerBackend = "ghostscript"
	BackendContainer   RasterizerBackend = "container"
	BackendMuPDF       RasterizerBackend = "mupdf"
)

// RasterizerConfig holds settings for the rasterizer backend.
type RasterizerConfig struct {
	// Backend selects the rasterizer: ghostscript, container, or mupdf.
	Backend RasterizerBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Binary is the ghostscript executable (e.g. "gs", or
	// "C:\Program Files\gs\gs9.52\bin\gswin64c.exe"). Inside a container
	// it is resolved against the image's PATH.
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// Device is the ghostscript output device (default "png16m", 24-bit RGB).
	Device string `json:"device" yaml:"device" mapstructure:"device"`

	// Resolution is the output resolution in DPI (default 300).
	Resolution int `json:"resolution" yaml:"resolution" mapstructure:"resolution"`

	// Image is the container image that provides ghostscript.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Runtime forces "docker" or "podman". Empty means detect, docker first.
	Runtime string `json:"runtime" yaml:"runtime" mapstructure:"runtime"`
}

// FleetConfig holds settings for spawning additional worker processes.
type FleetConfig struct {
	// Delay is the pause before each fixed-count launch (default 300ms).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// SampleWindow is how long CPU utilization is averaged over before each
	// launch decision in CPU-target mode (default 15s).
	SampleWindow time.Duration `json:"sample_window" yaml:"sample_window" mapstructure:"sample_window"`

	// MaxInstances caps the launches of a CPU-target spawn. Zero or negative
	// (the default) removes the cap.
	MaxInstances int `json:"max_instances" yaml:"max_instances" mapstructure:"max_instances"`

	// LogDir, when set, receives one log file per spawned instance instead
	// of sharing the parent's stdout and stderr.
	LogDir string `json:"log_dir,omitempty" yaml:"log_dir,omitempty" mapstructure:"log_dir"`
}

// Config holds the settings for a conversion run.
type Config struct {
	// InputPath is the root searched recursively for PDF files.
	InputPath string `json:"input_path" yaml:"input_path" mapstructure:"input_path"`

	// OutputWorkPath is the active output area receiving page artifacts.
	OutputWorkPath string `json:"output_work_path" yaml:"output_work_path" mapstructure:"output_work_path"`

	// CompletedPath is the archive area holding reviewed page-1 artifacts.
	CompletedPath string `json:"completed_path" yaml:"completed_path" mapstructure:"completed_path"`

	// Reverse processes the enumerated files in reverse order.
	Reverse bool `json:"reverse" yaml:"reverse" mapstructure:"reverse"`

	// Random shuffles the enumerated files (default true).
	Random bool `json:"random" yaml:"random" mapstructure:"random"`

	// StopMarker is the stop signal file. Empty means ~/stop_conv.txt.
	StopMarker string `json:"stop_marker,omitempty" yaml:"stop_marker,omitempty" mapstructure:"stop_marker"`

	// Claims enables per-document lock files in the active output area so
	// concurrent workers never convert the same document (default true).
	Claims bool `json:"claims" yaml:"claims" mapstructure:"claims"`

	// LedgerPath is an optional SQLite database recording every outcome.
	LedgerPath string `json:"ledger_path,omitempty" yaml:"ledger_path,omitempty" mapstructure:"ledger_path"`

	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	Rasterizer RasterizerConfig `json:"rasterizer" yaml:"rasterizer" mapstructure:"rasterizer"`
	Fleet      FleetConfig      `json:"fleet" yaml:"fleet" mapstructure:"fleet"`
}

// DefaultConfig returns the configuration used when no file, environment
// variable, or flag overrides a key.
func DefaultConfig() Config {
	return Config{
		Random:   true,
		Claims:   true,
		LogLevel: "info",
		Rasterizer: RasterizerConfig{
			Backend:    BackendGhostscript,
			Binary:     "gs",
			Device:     "png16m",
			Resolution: 300,
			Image:      "minidocks/ghostscript:latest",
		},
		Fleet: FleetConfig{
			Delay:        300 * time.Millisecond,
			SampleWindow: 15 * time.Second,
		},
	}
}

// ValidatePaths checks that the input, output, and completed paths exist
// and are directories. The error names the flag the user should fix.
func (c Config) ValidatePaths() error {
	for _, p := range []struct {
		flag, path string
	}{
		{"input-path", c.InputPath},
		{"output-work-path", c.OutputWorkPath},
		{"completed-path", c.CompletedPath},
	} {
		if p.path == "" {
			return fmt.Errorf("--%s is required", p.flag)
		}
		info, err := os.Stat(p.path)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%s: path does not exist: %s", p.flag, p.path)
		}
	}
	return nil
}

// ValidateRasterizer checks the rasterizer settings.
func (c Config) ValidateRasterizer() error {
	r := c.Rasterizer
	switch r.Backend {
	case BackendGhostscript, BackendContainer:
		if r.Binary == "" {
			return fmt.Errorf("rasterizer.binary is required for backend %s", r.Backend)
		}
		if r.Device == "" {
			return fmt.Errorf("rasterizer.device is required for backend %s", r.Backend)
		}
		if r.Backend == BackendContainer && r.Image == "" {
			return fmt.Errorf("rasterizer.image is required for backend %s", r.Backend)
		}
	case BackendMuPDF:
	default:
		return fmt.Errorf("unknown rasterizer backend %q: use ghostscript, container, or mupdf", r.Backend)
	}
	if r.Resolution <= 0 {
		return fmt.Errorf("rasterizer.resolution must be positive, got %d", r.Resolution)
	}
	return nil
}
