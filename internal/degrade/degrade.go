// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package degrade turns each page of a document into a rasterized,
// slightly rotated, blurred, noisy, flattened copy of itself: the
// printed-then-scanned look.
//
// A page passes through three capabilities in order. The Rasterizer renders
// it onto the fixed A4 canvas, the Distorter applies the scan distortion
// pipeline, and the Wrapper turns the result back into a single-page PDF.
// Degrader fans pages out over a bounded worker pool and collects results
// by page index, so output order never depends on completion order.
package degrade

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/printandscan/pkg/types"
)

// Every rasterized page is forced to the 300-DPI A4 portrait pixel size,
// whatever the configured DPI.
const (
	CanvasWidth  = 2480
	CanvasHeight = 3508
)

// MaxAngle bounds the per-page rotation in degrees: angles lie in
// [-MaxAngle, MaxAngle].
const MaxAngle = 0.5

// Modulation scales brightness, saturation, and hue as percentages; 100
// leaves a component unchanged.
type Modulation struct {
	Brightness float64
	Saturation float64
	Hue        float64
}

// Distortion holds the parameters of one page's distortion pipeline. The
// steps run in field order: background, rotation, blur, noise,
// brightness/contrast, modulation.
type Distortion struct {
	Background       string
	Angle            float64 // degrees, positive is clockwise
	BlurRadius       float64
	BlurSigma        float64
	NoiseAttenuation float64
	Brightness       float64 // percent, -100..100
	Contrast         float64 // percent, -100..100
	Modulate         Modulation

	// Seed drives the noise generator so a run can be reproduced.
	Seed uint64
}

// NewDistortion returns the scan distortion for a page rotated by angle
// degrees, with noise seeded by seed.
func NewDistortion(angle float64, seed uint64) Distortion {
	return Distortion{
		Background:       "white",
		Angle:            angle,
		BlurRadius:       0,
		BlurSigma:        0.6,
		NoiseAttenuation: 0.4,
		Brightness:       -10,
		Contrast:         -20,
		Modulate:         Modulation{Brightness: 100, Saturation: 80, Hue: 100},
		Seed:             seed,
	}
}

// Plan draws one Distortion per page from rng, in page order. Each page
// gets its own uniformly distributed angle.
func Plan(rng *rand.Rand, pages int) []Distortion {
	plans := make([]Distortion, pages)
	for i := range plans {
		angle := -MaxAngle + unitClosed(rng)*2*MaxAngle
		plans[i] = NewDistortion(angle, rng.Uint64())
	}
	return plans
}

// unitClosed returns a uniform float64 in the closed interval [0, 1].
func unitClosed(rng *rand.Rand) float64 {
	const steps = 1 << 53
	return float64(rng.Uint64N(steps)) / (steps - 1)
}

// Rasterizer renders a single-page PDF at dpi and resizes it, ignoring
// aspect ratio, to CanvasWidth x CanvasHeight.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, imagePath string, dpi int) error
}

// Distorter applies d to the image at src, writing the result to dst.
type Distorter interface {
	Distort(ctx context.Context, src, dst string, d Distortion) error
}

// Wrapper emits the image at imagePath as a single-page PDF.
type Wrapper interface {
	Wrap(ctx context.Context, imagePath, pdfPath string) error
}

// Degrader runs every page through rasterize, distort, and wrap.
type Degrader struct {
	Rasterizer Rasterizer
	Distorter  Distorter
	Wrapper    Wrapper

	// DPI is the rasterization density.
	DPI int

	// Workers bounds concurrent pages. Values below 1 mean 1.
	Workers int

	// Progress receives one "done i/N" line per finished page.
	Progress io.Writer
}

// Degrade processes pages and returns their degraded forms in the same
// order. Angles and noise seeds are drawn from rng before any page starts.
// The first page failure cancels the remaining pages and is returned.
func (d *Degrader) Degrade(ctx context.Context, pages []types.PageUnit, rng *rand.Rand) ([]types.DegradedPage, error) {
	plans := Plan(rng, len(pages))
	results := make([]types.DegradedPage, len(pages))

	progress := d.Progress
	if progress == nil {
		progress = io.Discard
	}
	var (
		mu   sync.Mutex
		done int
	)

	p := pool.New().WithMaxGoroutines(max(d.Workers, 1)).WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, page := range pages {
		p.Go(func(ctx context.Context) error {
			out, err := d.degradePage(ctx, page, plans[i])
			if err != nil {
				return fmt.Errorf("page %d: %w", page.Index, err)
			}
			results[i] = out

			mu.Lock()
			done++
			fmt.Fprintf(progress, "done %d/%d\n", done, len(pages))
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Degrader) degradePage(ctx context.Context, page types.PageUnit, dist Distortion) (types.DegradedPage, error) {
	if err := ctx.Err(); err != nil {
		return types.DegradedPage{}, err
	}

	names := artifactNames(page.Path)
	defer os.Remove(names.raster)
	defer os.Remove(names.scanned)

	if err := d.Rasterizer.Rasterize(ctx, page.Path, names.raster, d.DPI); err != nil {
		return types.DegradedPage{}, fmt.Errorf("rasterizing: %w", err)
	}
	if err := d.Distorter.Distort(ctx, names.raster, names.scanned, dist); err != nil {
		return types.DegradedPage{}, fmt.Errorf("applying scan effect: %w", err)
	}
	if err := d.Wrapper.Wrap(ctx, names.scanned, names.pdf); err != nil {
		return types.DegradedPage{}, fmt.Errorf("wrapping as PDF: %w", err)
	}

	return types.DegradedPage{Index: page.Index, Path: names.pdf, Angle: dist.Angle}, nil
}

// pageArtifacts names the files derived from one page. Every step writes a
// new file; nothing is edited in place.
type pageArtifacts struct {
	raster  string // doc-0001.png
	scanned string // doc-0001-scanned.png
	pdf     string // doc-0001-scanned.pdf
}

func artifactNames(pagePath string) pageArtifacts {
	base := strings.TrimSuffix(pagePath, ".pdf")
	return pageArtifacts{
		raster:  base + ".png",
		scanned: base + "-scanned.png",
		pdf:     base + "-scanned.pdf",
	}
}
