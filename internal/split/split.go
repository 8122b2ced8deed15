// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package split bursts a PDF into single-page PDFs and answers page-count
// queries. Two backends are provided: pdftk (external tool) and pdfcpu
// (in-process library).
package split

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdiddy/printandscan/pkg/types"
)

// ErrPageCountUndeterminable is returned when a page-count query succeeds
// as an invocation but its output carries no page count.
var ErrPageCountUndeterminable = errors.New("could not determine number of pages")

// Splitter writes one single-page PDF per page of inputPath into dir, named
// prefix-NNNN.pdf with 1-based indexes, and returns them in page order.
type Splitter interface {
	Split(ctx context.Context, inputPath, dir, prefix string) ([]types.PageUnit, error)
}

// PageCounter returns the number of pages in a PDF.
type PageCounter interface {
	PageCount(ctx context.Context, pdfPath string) (int, error)
}

// PagePath returns the path of page index inside dir.
func PagePath(dir, prefix string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.pdf", prefix, types.Ordinal(index)))
}

// ListPages finds the page files named prefix-NNNN.pdf in dir and returns
// them sorted by index. Other files in dir are ignored.
func ListPages(dir, prefix string) ([]types.PageUnit, error) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d{` + strconv.Itoa(types.OrdinalWidth) + `,})\.pdf$`)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading split directory %s: %w", dir, err)
	}

	var pages []types.PageUnit
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, types.PageUnit{
			Index: index,
			Path:  filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	return pages, nil
}
