// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdflib adapts the pdfcpu library to the operations the native
// backend needs: page counting, page extraction, merging, and wrapping
// images as PDF pages.
package pdflib

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Config returns a default pdfcpu configuration. pdfcpu's per-user config
// directory is disabled so runs never write outside their workspace.
func Config() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	return model.NewDefaultConfiguration()
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	Config()
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading page count of %s: %w", path, err)
	}
	return n, nil
}

// ExtractPages reads the PDF at path and calls write with each page, in
// order, as a standalone single-page PDF.
func ExtractPages(path string, write func(pageNr int, page io.Reader) error) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), Config())
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := api.ExtractPage(ctx, pageNr)
		if err != nil {
			return pageNr - 1, fmt.Errorf("extracting page %d of %s: %w", pageNr, path, err)
		}
		if err := write(pageNr, r); err != nil {
			return pageNr - 1, err
		}
	}
	return ctx.PageCount, nil
}

// Merge concatenates inputs, in order, into a new PDF at outputPath.
func Merge(inputs []string, outputPath string) error {
	if err := api.MergeCreateFile(inputs, outputPath, false, Config()); err != nil {
		return fmt.Errorf("merging %d files into %s: %w", len(inputs), outputPath, err)
	}
	return nil
}

// WrapImages writes a PDF at outputPath with one page per image file,
// scaled to fill an A4 page. dpi is recorded as the image resolution.
func WrapImages(images []string, outputPath string, dpi int) error {
	imp := pdfcpu.DefaultImportConfig()
	imp.DPI = dpi
	if err := api.ImportImagesFile(images, outputPath, imp, Config()); err != nil {
		return fmt.Errorf("wrapping %d image(s) into %s: %w", len(images), outputPath, err)
	}
	return nil
}
