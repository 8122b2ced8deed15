// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdflib

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePNGs creates n small solid-color PNGs and returns their paths.
func writePNGs(t *testing.T, dir string, n int) []string {
	t.Helper()
	paths := make([]string, n)
	for i := range n {
		img := image.NewRGBA(image.Rect(0, 0, 62, 88))
		shade := uint8(40 * (i + 1))
		for y := 0; y < 88; y++ {
			for x := 0; x < 62; x++ {
				img.Set(x, y, color.RGBA{R: shade, G: 255 - shade, B: 128, A: 255})
			}
		}
		paths[i] = filepath.Join(dir, fmt.Sprintf("img-%d.png", i+1))
		f, err := os.Create(paths[i])
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}
	return paths
}

func TestWrapCountExtractMerge(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.pdf")

	require.NoError(t, WrapImages(writePNGs(t, dir, 3), doc, 300))

	n, err := PageCount(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var pages []string
	total, err := ExtractPages(doc, func(pageNr int, page io.Reader) error {
		path := filepath.Join(dir, fmt.Sprintf("page-%d.pdf", pageNr))
		data, err := io.ReadAll(page)
		if err != nil {
			return err
		}
		pages = append(pages, path)
		return os.WriteFile(path, data, 0o644)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, pages, 3)

	for _, p := range pages {
		n, err := PageCount(p)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "extracted page %s should be single-page", p)
	}

	merged := filepath.Join(dir, "merged.pdf")
	require.NoError(t, Merge(pages, merged))
	n, err = PageCount(merged)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestExtractPagesCallbackError(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.pdf")
	require.NoError(t, WrapImages(writePNGs(t, dir, 2), doc, 300))

	stop := fmt.Errorf("stop")
	done, err := ExtractPages(doc, func(pageNr int, _ io.Reader) error {
		if pageNr == 2 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, done)
}

func TestPageCountMissingFile(t *testing.T) {
	_, err := PageCount(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.pdf")
}
