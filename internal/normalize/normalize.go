// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts input PDFs to the sRGB/DeviceRGB color space so
// every later stage sees a uniform color model.
package normalize

import (
	"context"
	"fmt"

	"github.com/pdiddy/printandscan/internal/toolchain"
)

// Normalizer converts a PDF of any color space (DeviceGray, CMYK, ICC-based,
// mixed) into an RGB PDF written to outputPath.
type Normalizer interface {
	Normalize(ctx context.Context, inputPath, outputPath string) error
}

// Ghostscript normalizes with the gs pdfwrite device.
type Ghostscript struct {
	runner toolchain.Runner
}

// NewGhostscript returns a Normalizer that runs gs through runner.
func NewGhostscript(runner toolchain.Runner) *Ghostscript {
	return &Ghostscript{runner: runner}
}

// Normalize rewrites inputPath with sRGB color conversion.
func (g *Ghostscript) Normalize(ctx context.Context, inputPath, outputPath string) error {
	if err := g.runner.Run(ctx, toolchain.Ghostscript, Args(inputPath, outputPath)...); err != nil {
		return fmt.Errorf("converting %s to RGB: %w", inputPath, err)
	}
	return nil
}

// Args returns the gs command line for an RGB conversion.
func Args(inputPath, outputPath string) []string {
	return []string{
		"-sDEVICE=pdfwrite",
		"-dBATCH",
		"-dNOPAUSE",
		"-dCompatibilityLevel=1.4",
		"-dColorConversionStrategy=/sRGB",
		"-dProcessColorModel=/DeviceRGB",
		"-dUseCIEColor=true",
		"-sOutputFile=" + outputPath,
		inputPath,
	}
}
