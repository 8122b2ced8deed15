// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compress recompresses the assembled document into the final output.
package compress

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pdiddy/printandscan/internal/toolchain"
)

// Compressor rewrites inputPath into outputPath with font compression and
// duplicate-image detection, embedding dpi as the resolution metadata.
type Compressor interface {
	Compress(ctx context.Context, inputPath, outputPath string, dpi int) error
}

// Ghostscript compresses with the gs pdfwrite device.
type Ghostscript struct {
	runner toolchain.Runner
}

// NewGhostscript returns a Compressor that runs gs through runner.
func NewGhostscript(runner toolchain.Runner) *Ghostscript {
	return &Ghostscript{runner: runner}
}

// Compress writes the optimized PDF to outputPath.
func (g *Ghostscript) Compress(ctx context.Context, inputPath, outputPath string, dpi int) error {
	if err := g.runner.Run(ctx, toolchain.Ghostscript, Args(inputPath, outputPath, dpi)...); err != nil {
		return fmt.Errorf("compressing %s: %w", inputPath, err)
	}
	return nil
}

// Args returns the gs command line for the final recompression.
func Args(inputPath, outputPath string, dpi int) []string {
	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/default",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-dDetectDuplicateImages",
		"-dCompressFonts=true",
		"-r" + strconv.Itoa(dpi),
		"-sOutputFile=" + outputPath,
		inputPath,
	}
}
