// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package degrade

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/pdiddy/printandscan/internal/pdflib"
	"github.com/pdiddy/printandscan/internal/toolchain"
)

// noiseStream separates the noise generator's second PCG word from its seed.
const noiseStream = 0x9e3779b97f4a7c15

// GhostscriptRasterizer renders pages with the gs png16m device and resizes
// them to the canvas in-process.
type GhostscriptRasterizer struct {
	runner toolchain.Runner
}

// NewGhostscriptRasterizer returns a Rasterizer that runs gs through runner.
func NewGhostscriptRasterizer(runner toolchain.Runner) *GhostscriptRasterizer {
	return &GhostscriptRasterizer{runner: runner}
}

// Rasterize renders pdfPath at dpi, then force-resizes to the canvas.
func (g *GhostscriptRasterizer) Rasterize(ctx context.Context, pdfPath, imagePath string, dpi int) error {
	rendered := imagePath + ".render.png"
	defer os.Remove(rendered)

	args := []string{
		"-sDEVICE=png16m",
		"-dBATCH",
		"-dNOPAUSE",
		"-dQUIET",
		"-r" + strconv.Itoa(dpi),
		"-sOutputFile=" + rendered,
		pdfPath,
	}
	if err := g.runner.Run(ctx, toolchain.Ghostscript, args...); err != nil {
		return fmt.Errorf("rendering %s: %w", pdfPath, err)
	}

	img, err := readImage(rendered)
	if err != nil {
		return err
	}
	return writePNG(imagePath, resize(img, CanvasWidth, CanvasHeight))
}

// NativeDistorter runs the distortion pipeline in-process on PNG images.
type NativeDistorter struct{}

// Distort applies d to src and writes a PNG to dst.
func (NativeDistorter) Distort(ctx context.Context, src, dst string, d Distortion) error {
	img, err := readImage(src)
	if err != nil {
		return err
	}
	out, err := Apply(ctx, toRGBA(img), d)
	if err != nil {
		return err
	}
	return writePNG(dst, out)
}

// Apply runs the distortion steps on img in order and returns the result.
// img may be modified. Cancellation is checked between steps.
func Apply(ctx context.Context, img *image.RGBA, d Distortion) (*image.RGBA, error) {
	bg, err := parseBackground(d.Background)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(d.Seed, d.Seed^noiseStream))

	steps := []func(*image.RGBA) *image.RGBA{
		func(m *image.RGBA) *image.RGBA { return rotate(m, d.Angle, bg) },
		func(m *image.RGBA) *image.RGBA { return gaussianBlur(m, d.BlurRadius, d.BlurSigma) },
		func(m *image.RGBA) *image.RGBA { gaussianNoise(m, d.NoiseAttenuation, rng); return m },
		func(m *image.RGBA) *image.RGBA { applyLUT(m, brightnessContrastLUT(d.Brightness, d.Contrast)); return m },
		func(m *image.RGBA) *image.RGBA { modulate(m, d.Modulate); return m },
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img = step(img)
	}
	return img, nil
}

// PdfcpuWrapper wraps images as PDF pages with pdfcpu.
type PdfcpuWrapper struct {
	dpi int
}

// NewPdfcpuWrapper returns a Wrapper that records dpi as the image
// resolution.
func NewPdfcpuWrapper(dpi int) *PdfcpuWrapper {
	return &PdfcpuWrapper{dpi: dpi}
}

// Wrap writes imagePath as the only page of pdfPath.
func (w *PdfcpuWrapper) Wrap(ctx context.Context, imagePath, pdfPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return pdflib.WrapImages([]string{imagePath}, pdfPath, w.dpi)
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image %s: %w", path, err)
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding image %s: %w", path, err)
	}
	return f.Close()
}
