// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"

	"github.com/pdiddy/printandscan/internal/assemble"
	"github.com/pdiddy/printandscan/internal/compress"
	"github.com/pdiddy/printandscan/internal/degrade"
	"github.com/pdiddy/printandscan/internal/normalize"
	"github.com/pdiddy/printandscan/internal/split"
	"github.com/pdiddy/printandscan/internal/toolchain"
	"github.com/pdiddy/printandscan/pkg/types"
)

// Toolset bundles one implementation of every stage capability.
type Toolset struct {
	Backend types.Backend

	// Required lists the external tools the stages invoke.
	Required []string

	Normalizer normalize.Normalizer
	Splitter   split.Splitter
	Counter    split.PageCounter
	Rasterizer degrade.Rasterizer
	Distorter  degrade.Distorter
	Wrapper    degrade.Wrapper
	Assembler  assemble.Assembler
	Compressor compress.Compressor
}

// RequiredTools returns the external tools backend b needs on PATH.
func RequiredTools(b types.Backend) []string {
	switch b {
	case types.BackendNative:
		return []string{toolchain.Ghostscript}
	default:
		return []string{toolchain.Ghostscript, toolchain.Pdftk, toolchain.Magick}
	}
}

// NewToolset wires the stage implementations for backend b. dpi is needed
// by stages that fix page density when they are constructed.
func NewToolset(b types.Backend, runner toolchain.Runner, dpi int) (*Toolset, error) {
	gsNormalizer := normalize.NewGhostscript(runner)
	gsCompressor := compress.NewGhostscript(runner)

	switch b {
	case types.BackendMagick:
		pdftk := split.NewPdftk(runner)
		magick := degrade.NewMagick(runner)
		return &Toolset{
			Backend:    b,
			Required:   RequiredTools(b),
			Normalizer: gsNormalizer,
			Splitter:   pdftk,
			Counter:    pdftk,
			Rasterizer: magick,
			Distorter:  magick,
			Wrapper:    magick,
			Assembler:  assemble.NewMagick(runner),
			Compressor: gsCompressor,
		}, nil
	case types.BackendNative:
		pdfcpu := split.NewPdfcpu()
		return &Toolset{
			Backend:    b,
			Required:   RequiredTools(b),
			Normalizer: gsNormalizer,
			Splitter:   pdfcpu,
			Counter:    pdfcpu,
			Rasterizer: degrade.NewGhostscriptRasterizer(runner),
			Distorter:  degrade.NativeDistorter{},
			Wrapper:    degrade.NewPdfcpuWrapper(dpi),
			Assembler:  assemble.NewPdfcpu(),
			Compressor: gsCompressor,
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", b)
	}
}
