// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package split

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/printandscan/internal/pdflib"
	"github.com/pdiddy/printandscan/internal/toolchain"
	"github.com/pdiddy/printandscan/internal/toolchain/toolchaintest"
	"github.com/pdiddy/printandscan/pkg/types"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0o644))
	}
}

func TestListPages(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"report-0003.pdf",
		"report-0001.pdf",
		"report-0002.pdf",
		"report_RGB.pdf",
		"report-0001.png",
		"report-0001-scanned.pdf",
		"other-0001.pdf",
		"doc_data.txt",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "report-0004.pdf"), 0o755))

	pages, err := ListPages(dir, "report")
	require.NoError(t, err)

	want := []types.PageUnit{
		{Index: 1, Path: filepath.Join(dir, "report-0001.pdf")},
		{Index: 2, Path: filepath.Join(dir, "report-0002.pdf")},
		{Index: 3, Path: filepath.Join(dir, "report-0003.pdf")},
	}
	if diff := cmp.Diff(want, pages); diff != "" {
		t.Errorf("ListPages mismatch (-want +got):\n%s", diff)
	}
}

func TestListPagesWideOrdinals(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "big-9999.pdf", "big-10000.pdf", "big-0001.pdf")

	pages, err := ListPages(dir, "big")
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, []int{1, 9999, 10000}, []int{pages[0].Index, pages[1].Index, pages[2].Index})
}

func TestListPagesQuotesPrefix(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.b[1]-0001.pdf", "axb11-0001.pdf")

	pages, err := ListPages(dir, "a.b[1]")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, filepath.Join(dir, "a.b[1]-0001.pdf"), pages[0].Path)
}

func TestParseNumberOfPages(t *testing.T) {
	tests := []struct {
		name    string
		dump    string
		want    int
		wantErr bool
	}{
		{
			name: "typical dump",
			dump: "InfoBegin\nInfoKey: Producer\nInfoValue: GPL Ghostscript\nPdfID0: abc\nNumberOfPages: 12\nPageMediaBegin\n",
			want: 12,
		},
		{name: "no space after colon", dump: "NumberOfPages:3", want: 3},
		{name: "zero pages", dump: "NumberOfPages: 0\n", want: 0},
		{name: "field absent", dump: "InfoBegin\nInfoKey: Title\n", wantErr: true},
		{name: "empty output", dump: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNumberOfPages(tt.dump)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrPageCountUndeterminable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPdftkSplit(t *testing.T) {
	dir := t.TempDir()
	rec := &toolchaintest.Recorder{
		Handlers: map[string]toolchaintest.Handler{
			// Simulate `pdftk in.pdf burst output dir/prefix-%04d.pdf` for 3 pages.
			toolchain.Pdftk: func(_ context.Context, args []string) (string, error) {
				pattern := args[len(args)-1]
				for i := 1; i <= 3; i++ {
					if err := os.WriteFile(fmt.Sprintf(pattern, i), []byte("%PDF"), 0o644); err != nil {
						return "", err
					}
				}
				return "", nil
			},
		},
	}

	pages, err := NewPdftk(rec).Split(context.Background(), "ws/doc_RGB.pdf", dir, "doc")
	require.NoError(t, err)

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"ws/doc_RGB.pdf", "burst", "output", filepath.Join(dir, "doc-%04d.pdf")}, calls[0].Args)

	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Index)
		assert.Equal(t, PagePath(dir, "doc", i+1), p.Path)
	}
}

func TestPdftkSplitFailure(t *testing.T) {
	rec := &toolchaintest.Recorder{
		Handlers: map[string]toolchaintest.Handler{
			toolchain.Pdftk: toolchaintest.Fail("pdftk", 1, "Error: Unable to find file."),
		},
	}
	_, err := NewPdftk(rec).Split(context.Background(), "missing.pdf", t.TempDir(), "doc")
	require.Error(t, err)
	assert.ErrorIs(t, err, toolchain.ErrToolFailed)
}

func TestPdftkPageCount(t *testing.T) {
	tests := []struct {
		name          string
		handler       toolchaintest.Handler
		want          int
		wantToolErr   bool
		wantUndetermd bool
	}{
		{
			name: "count parsed",
			handler: func(context.Context, []string) (string, error) {
				return "NumberOfPages: 3\n", nil
			},
			want: 3,
		},
		{
			name: "field missing is a data error",
			handler: func(context.Context, []string) (string, error) {
				return "InfoBegin\n", nil
			},
			wantUndetermd: true,
		},
		{
			name:        "tool failure is an invocation error",
			handler:     toolchaintest.Fail("pdftk", 3, "Error: Failed to open PDF file"),
			wantToolErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &toolchaintest.Recorder{Handlers: map[string]toolchaintest.Handler{toolchain.Pdftk: tt.handler}}
			got, err := NewPdftk(rec).PageCount(context.Background(), "doc.pdf")

			switch {
			case tt.wantToolErr:
				require.Error(t, err)
				assert.ErrorIs(t, err, toolchain.ErrToolFailed)
				assert.NotErrorIs(t, err, ErrPageCountUndeterminable)
			case tt.wantUndetermd:
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrPageCountUndeterminable)
				assert.NotErrorIs(t, err, toolchain.ErrToolFailed)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				assert.Equal(t, "pdftk doc.pdf dump_data", rec.Calls()[0].String())
			}
		})
	}
}

func TestPdfcpuSplitAndCount(t *testing.T) {
	dir := t.TempDir()
	var images []string
	for i := range 3 {
		path := filepath.Join(dir, fmt.Sprintf("src-%d.png", i))
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 31, 44))))
		require.NoError(t, f.Close())
		images = append(images, path)
	}
	doc := filepath.Join(dir, "doc_RGB.pdf")
	require.NoError(t, pdflib.WrapImages(images, doc, 300))

	s := NewPdfcpu()
	n, err := s.PageCount(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	outDir := filepath.Join(dir, "pages")
	require.NoError(t, os.Mkdir(outDir, 0o755))
	pages, err := s.Split(context.Background(), doc, outDir, "doc")
	require.NoError(t, err)
	require.Len(t, pages, n)

	listed, err := ListPages(outDir, "doc")
	require.NoError(t, err)
	if diff := cmp.Diff(pages, listed); diff != "" {
		t.Errorf("split result differs from directory listing (-split +listed):\n%s", diff)
	}
	for _, p := range pages {
		assert.True(t, strings.HasSuffix(p.Path, "doc-"+p.Ordinal()+".pdf"))
	}
}

func TestPdfcpuCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPdfcpu().PageCount(ctx, "doc.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}
