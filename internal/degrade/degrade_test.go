// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package degrade

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/printandscan/pkg/types"
)

// fakeStages implements Rasterizer, Distorter, and Wrapper in memory. It
// writes each output file so later steps see real artifacts.
type fakeStages struct {
	mu          sync.Mutex
	rasterized  []string
	distortions map[string]Distortion
	dpis        []int

	// delay, when set, returns how long to stall before distorting src.
	delay func(src string) time.Duration

	// failOn makes the step handling this path fail.
	failOn string
}

func newFakeStages() *fakeStages {
	return &fakeStages{distortions: map[string]Distortion{}}
}

func (f *fakeStages) Rasterize(ctx context.Context, pdfPath, imagePath string, dpi int) error {
	if pdfPath == f.failOn {
		return errors.New("magick exited with status 1")
	}
	f.mu.Lock()
	f.rasterized = append(f.rasterized, pdfPath)
	f.dpis = append(f.dpis, dpi)
	f.mu.Unlock()
	return os.WriteFile(imagePath, []byte("png"), 0o644)
}

func (f *fakeStages) Distort(ctx context.Context, src, dst string, d Distortion) error {
	if f.delay != nil {
		select {
		case <-time.After(f.delay(src)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	f.distortions[src] = d
	f.mu.Unlock()
	return os.WriteFile(dst, []byte("png"), 0o644)
}

func (f *fakeStages) Wrap(ctx context.Context, imagePath, pdfPath string) error {
	return os.WriteFile(pdfPath, []byte("%PDF"), 0o644)
}

func makePages(t *testing.T, n int) []types.PageUnit {
	t.Helper()
	dir := t.TempDir()
	pages := make([]types.PageUnit, n)
	for i := range pages {
		path := filepath.Join(dir, fmt.Sprintf("doc-%s.pdf", types.Ordinal(i+1)))
		require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
		pages[i] = types.PageUnit{Index: i + 1, Path: path}
	}
	return pages
}

func newDegrader(f *fakeStages, workers int, progress *bytes.Buffer) *Degrader {
	d := &Degrader{Rasterizer: f, Distorter: f, Wrapper: f, DPI: 300, Workers: workers}
	if progress != nil {
		d.Progress = progress
	}
	return d
}

func TestDegradePreservesCountAndOrder(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			const n = 7
			pages := makePages(t, n)
			f := newFakeStages()
			// Earlier pages finish later, so completion order is reversed
			// whenever pages overlap.
			f.delay = func(src string) time.Duration {
				for _, p := range pages {
					if strings.TrimSuffix(p.Path, ".pdf")+".png" == src {
						return time.Duration(n-p.Index) * 2 * time.Millisecond
					}
				}
				return 0
			}
			var progress bytes.Buffer

			out, err := newDegrader(f, workers, &progress).Degrade(context.Background(), pages, rand.New(rand.NewPCG(1, 2)))
			require.NoError(t, err)
			require.Len(t, out, n)

			for i, dp := range out {
				assert.Equal(t, i+1, dp.Index, "slot %d holds the wrong page", i)
				assert.Equal(t, strings.TrimSuffix(pages[i].Path, ".pdf")+"-scanned.pdf", dp.Path)
				assert.FileExists(t, dp.Path)
			}
			assert.Equal(t, n, strings.Count(progress.String(), "done "))
			assert.Contains(t, progress.String(), fmt.Sprintf("done %d/%d\n", n, n))
		})
	}
}

func TestDegradeRemovesIntermediateRasters(t *testing.T) {
	pages := makePages(t, 2)
	f := newFakeStages()

	_, err := newDegrader(f, 1, nil).Degrade(context.Background(), pages, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)

	for _, p := range pages {
		names := artifactNames(p.Path)
		assert.NoFileExists(t, names.raster)
		assert.NoFileExists(t, names.scanned)
		assert.FileExists(t, names.pdf)
		assert.FileExists(t, p.Path, "page PDFs are never modified or removed")
	}
}

func TestDegradeAnglesBoundedAndIndependent(t *testing.T) {
	const n = 20
	pages := makePages(t, n)
	f := newFakeStages()

	out, err := newDegrader(f, 3, nil).Degrade(context.Background(), pages, rand.New(rand.NewPCG(42, 7)))
	require.NoError(t, err)

	distinct := map[float64]bool{}
	for _, dp := range out {
		assert.GreaterOrEqual(t, dp.Angle, -MaxAngle)
		assert.LessOrEqual(t, dp.Angle, MaxAngle)
		distinct[dp.Angle] = true
	}
	assert.Greater(t, len(distinct), 1, "angles must be drawn per page")

	seeds := map[uint64]bool{}
	for _, d := range f.distortions {
		seeds[d.Seed] = true
	}
	assert.Len(t, seeds, n, "every page gets its own noise seed")
}

func TestDegradeDeterministicForSeed(t *testing.T) {
	run := func(workers int) []types.DegradedPage {
		out, err := newDegrader(newFakeStages(), workers, nil).
			Degrade(context.Background(), makePages(t, 5), rand.New(rand.NewPCG(99, 100)))
		require.NoError(t, err)
		return out
	}
	a, b := run(1), run(5)
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Angle, b[i].Angle, "page %d angle depends on scheduling", i+1)
	}
}

func TestDegradePassesFixedParameters(t *testing.T) {
	pages := makePages(t, 1)
	f := newFakeStages()

	_, err := newDegrader(f, 1, nil).Degrade(context.Background(), pages, rand.New(rand.NewPCG(5, 5)))
	require.NoError(t, err)

	require.Equal(t, []int{300}, f.dpis)
	require.Len(t, f.distortions, 1)
	for _, d := range f.distortions {
		assert.Equal(t, "white", d.Background)
		assert.Equal(t, 0.6, d.BlurSigma)
		assert.Equal(t, 0.4, d.NoiseAttenuation)
		assert.Equal(t, -10.0, d.Brightness)
		assert.Equal(t, -20.0, d.Contrast)
		assert.Equal(t, Modulation{Brightness: 100, Saturation: 80, Hue: 100}, d.Modulate)
	}
}

func TestDegradeFailureAbortsRun(t *testing.T) {
	pages := makePages(t, 4)
	f := newFakeStages()
	f.failOn = pages[1].Path

	out, err := newDegrader(f, 1, nil).Degrade(context.Background(), pages, rand.New(rand.NewPCG(1, 1)))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "page 2")
	assert.Contains(t, err.Error(), "rasterizing")

	assert.Equal(t, []string{pages[0].Path}, f.rasterized, "pages after the failure must not start")
}

func TestDegradeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFakeStages()
	_, err := newDegrader(f, 2, nil).Degrade(ctx, makePages(t, 3), rand.New(rand.NewPCG(1, 1)))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.rasterized)
}

func TestDegradeNoPages(t *testing.T) {
	out, err := newDegrader(newFakeStages(), 1, nil).Degrade(context.Background(), nil, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPlan(t *testing.T) {
	plans := Plan(rand.New(rand.NewPCG(11, 12)), 1000)
	require.Len(t, plans, 1000)

	var neg, pos int
	for _, p := range plans {
		require.GreaterOrEqual(t, p.Angle, -MaxAngle)
		require.LessOrEqual(t, p.Angle, MaxAngle)
		if p.Angle < 0 {
			neg++
		} else {
			pos++
		}
	}
	// A uniform draw over a symmetric interval lands on both sides.
	assert.Greater(t, neg, 400)
	assert.Greater(t, pos, 400)
}

// fixedSource returns the same 64-bit value on every draw.
type fixedSource uint64

func (s fixedSource) Uint64() uint64 { return uint64(s) }

func TestPlanReachesBothBounds(t *testing.T) {
	tests := []struct {
		name string
		src  fixedSource
		want float64
	}{
		{name: "lowest draw", src: 0, want: -MaxAngle},
		{name: "highest draw", src: fixedSource(^uint64(0)), want: MaxAngle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := Plan(rand.New(tt.src), 2)
			for _, p := range plans {
				assert.Equal(t, tt.want, p.Angle)
			}
		})
	}
}

func TestArtifactNames(t *testing.T) {
	got := artifactNames("/tmp/ws/report-0012.pdf")
	assert.Equal(t, pageArtifacts{
		raster:  "/tmp/ws/report-0012.png",
		scanned: "/tmp/ws/report-0012-scanned.png",
		pdf:     "/tmp/ws/report-0012-scanned.pdf",
	}, got)
}
