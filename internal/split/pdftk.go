// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package split

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pdiddy/printandscan/internal/toolchain"
	"github.com/pdiddy/printandscan/pkg/types"
)

var numberOfPages = regexp.MustCompile(`NumberOfPages:\s*(\d+)`)

// Pdftk splits with `pdftk burst` and counts pages from `pdftk dump_data`.
type Pdftk struct {
	runner toolchain.Runner
}

// NewPdftk returns a Splitter and PageCounter backed by pdftk.
func NewPdftk(runner toolchain.Runner) *Pdftk {
	return &Pdftk{runner: runner}
}

// Split bursts inputPath into dir.
func (p *Pdftk) Split(ctx context.Context, inputPath, dir, prefix string) ([]types.PageUnit, error) {
	pattern := filepath.Join(dir, fmt.Sprintf("%s-%%0%dd.pdf", prefix, types.OrdinalWidth))
	if err := p.runner.Run(ctx, toolchain.Pdftk, inputPath, "burst", "output", pattern); err != nil {
		return nil, fmt.Errorf("extracting pages of %s: %w", inputPath, err)
	}
	return ListPages(dir, prefix)
}

// PageCount reads the NumberOfPages field of the document metadata.
func (p *Pdftk) PageCount(ctx context.Context, pdfPath string) (int, error) {
	out, err := p.runner.Output(ctx, toolchain.Pdftk, pdfPath, "dump_data")
	if err != nil {
		return 0, fmt.Errorf("getting page count of %s: %w", pdfPath, err)
	}
	n, err := ParseNumberOfPages(out)
	if err != nil {
		return 0, fmt.Errorf("getting page count of %s: %w", pdfPath, err)
	}
	return n, nil
}

// ParseNumberOfPages extracts the page count from pdftk dump_data output.
func ParseNumberOfPages(dump string) (int, error) {
	m := numberOfPages.FindStringSubmatch(dump)
	if m == nil {
		return 0, ErrPageCountUndeterminable
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPageCountUndeterminable, err)
	}
	return n, nil
}
