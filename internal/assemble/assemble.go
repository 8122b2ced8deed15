// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble concatenates degraded pages into one multi-page PDF.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pdiddy/printandscan/internal/pdflib"
	"github.com/pdiddy/printandscan/internal/toolchain"
	"github.com/pdiddy/printandscan/pkg/types"
)

// ErrNothingToAssemble is returned when Assemble receives no pages.
var ErrNothingToAssemble = errors.New("no pages to assemble")

// Assembler writes pages, in the order given, to outputPath. dpi is the
// page density of the assembled document.
type Assembler interface {
	Assemble(ctx context.Context, pages []types.DegradedPage, dpi int, outputPath string) error
}

// Magick assembles with ImageMagick.
type Magick struct {
	runner toolchain.Runner
}

// NewMagick returns an Assembler that runs magick through runner.
func NewMagick(runner toolchain.Runner) *Magick {
	return &Magick{runner: runner}
}

// Assemble reads every page at dpi and writes them as one PDF.
func (m *Magick) Assemble(ctx context.Context, pages []types.DegradedPage, dpi int, outputPath string) error {
	if len(pages) == 0 {
		return ErrNothingToAssemble
	}
	if err := m.runner.Run(ctx, toolchain.Magick, Args(pages, dpi, outputPath)...); err != nil {
		return fmt.Errorf("assembling %d pages: %w", len(pages), err)
	}
	return nil
}

// Args returns the magick command line that concatenates pages.
func Args(pages []types.DegradedPage, dpi int, outputPath string) []string {
	args := make([]string, 0, len(pages)+3)
	args = append(args, "-density", strconv.Itoa(dpi))
	for _, p := range pages {
		args = append(args, p.Path)
	}
	return append(args, outputPath)
}

// Pdfcpu assembles by merging the page PDFs with pdfcpu. Pages keep the
// density they were wrapped at, so dpi is not re-applied.
type Pdfcpu struct{}

// NewPdfcpu returns an Assembler backed by pdfcpu.
func NewPdfcpu() *Pdfcpu {
	return &Pdfcpu{}
}

// Assemble merges pages into outputPath.
func (p *Pdfcpu) Assemble(ctx context.Context, pages []types.DegradedPage, dpi int, outputPath string) error {
	if len(pages) == 0 {
		return ErrNothingToAssemble
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	paths := make([]string, len(pages))
	for i, pg := range pages {
		paths[i] = pg.Path
	}
	return pdflib.Merge(paths, outputPath)
}
