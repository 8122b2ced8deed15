package types

import (
	"fmt"
	"path/filepath"
)

// Backend identifies the set of tools and libraries that carry out the
// pipeline stages.
type Backend string

const (
	// BackendMagick uses Ghostscript, pdftk, and ImageMagick for every stage.
	BackendMagick Backend = "magick"

	// BackendNative uses Ghostscript for color normalization, rendering, and
	// compression; pdfcpu for splitting, counting, wrapping, and merging; and
	// an in-process distortion pipeline.
	BackendNative Backend = "native"
)

// Backends lists the supported backends in the order they are documented.
var Backends = []Backend{BackendMagick, BackendNative}

const (
	// DefaultDPI is the rasterization density used when none is configured.
	DefaultDPI = 300

	// DefaultWorkers processes pages one at a time.
	DefaultWorkers = 1
)

// ScanConfig holds the resolved settings for one pipeline run.
type ScanConfig struct {
	// Document is the path of the input PDF.
	Document string `json:"document" yaml:"document"`

	// Output is the path the final PDF is written to.
	Output string `json:"output" yaml:"output"`

	// DPI is the rasterization density. It is also embedded as the
	// resolution metadata of the assembled and compressed output.
	DPI int `json:"dpi" yaml:"dpi"`

	// Backend selects the stage implementations.
	Backend Backend `json:"backend" yaml:"backend"`

	// Workers bounds how many pages are degraded concurrently (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// Seed drives rotation angles and noise. Zero picks a random seed.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// Validate reports the first problem with the configuration, if any.
func (c ScanConfig) Validate() error {
	if c.Document == "" {
		return fmt.Errorf("input document is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output file name is required")
	}
	if filepath.Clean(c.Document) == filepath.Clean(c.Output) {
		return fmt.Errorf("output %s would overwrite the input document", c.Output)
	}
	if c.DPI <= 0 {
		return fmt.Errorf("density must be positive, got %d", c.DPI)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if !c.Backend.Valid() {
		return fmt.Errorf("unknown backend %q (want one of %v)", c.Backend, Backends)
	}
	return nil
}

// Valid reports whether b names a supported backend.
func (b Backend) Valid() bool {
	for _, known := range Backends {
		if b == known {
			return true
		}
	}
	return false
}
