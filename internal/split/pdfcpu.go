// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package split

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/printandscan/internal/pdflib"
	"github.com/pdiddy/printandscan/pkg/types"
)

// Pdfcpu splits and counts pages in-process with the pdfcpu library.
type Pdfcpu struct{}

// NewPdfcpu returns a Splitter and PageCounter backed by pdfcpu.
func NewPdfcpu() *Pdfcpu {
	return &Pdfcpu{}
}

// Split writes each page of inputPath to dir.
func (p *Pdfcpu) Split(ctx context.Context, inputPath, dir, prefix string) ([]types.PageUnit, error) {
	var pages []types.PageUnit
	_, err := pdflib.ExtractPages(inputPath, func(pageNr int, page io.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := PagePath(dir, prefix, pageNr)
		if err := writeFile(path, page); err != nil {
			return err
		}
		pages = append(pages, types.PageUnit{Index: pageNr, Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extracting pages of %s: %w", inputPath, err)
	}
	return pages, nil
}

// PageCount returns the page count recorded in the document's page tree.
func (p *Pdfcpu) PageCount(ctx context.Context, pdfPath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return pdflib.PageCount(pdfPath)
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
