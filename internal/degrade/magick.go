// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package degrade

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pdiddy/printandscan/internal/toolchain"
)

// Magick implements Rasterizer, Distorter, and Wrapper with ImageMagick.
type Magick struct {
	runner toolchain.Runner
}

// NewMagick returns the ImageMagick-backed page stages.
func NewMagick(runner toolchain.Runner) *Magick {
	return &Magick{runner: runner}
}

// Rasterize renders pdfPath at dpi and force-resizes it to the canvas.
func (m *Magick) Rasterize(ctx context.Context, pdfPath, imagePath string, dpi int) error {
	if err := m.runner.Run(ctx, toolchain.Magick, RasterizeArgs(pdfPath, imagePath, dpi)...); err != nil {
		return fmt.Errorf("converting %s to image: %w", pdfPath, err)
	}
	return nil
}

// Distort runs the scan distortion pipeline as a single magick invocation.
func (m *Magick) Distort(ctx context.Context, src, dst string, d Distortion) error {
	if err := m.runner.Run(ctx, toolchain.Magick, DistortArgs(src, dst, d)...); err != nil {
		return fmt.Errorf("distorting %s: %w", src, err)
	}
	return nil
}

// Wrap converts imagePath to a single-page PDF at magick's default density.
func (m *Magick) Wrap(ctx context.Context, imagePath, pdfPath string) error {
	if err := m.runner.Run(ctx, toolchain.Magick, imagePath, pdfPath); err != nil {
		return fmt.Errorf("wrapping %s: %w", imagePath, err)
	}
	return nil
}

// RasterizeArgs returns the magick command line that renders a page onto
// the fixed canvas. The "!" suffix discards the aspect ratio.
func RasterizeArgs(pdfPath, imagePath string, dpi int) []string {
	return []string{
		"-density", strconv.Itoa(dpi),
		pdfPath,
		"-resize", fmt.Sprintf("%dx%d!", CanvasWidth, CanvasHeight),
		imagePath,
	}
}

// DistortArgs returns the magick command line for d. Operator order is
// significant: each step sees the artifacts of the previous ones.
func DistortArgs(src, dst string, d Distortion) []string {
	return []string{
		src,
		"-seed", strconv.FormatUint(d.Seed%(1<<31), 10),
		"-background", d.Background,
		"-rotate", fmt.Sprintf("%.4f", d.Angle),
		"+repage",
		"-blur", formatFloat(d.BlurRadius) + "x" + formatFloat(d.BlurSigma),
		"-attenuate", formatFloat(d.NoiseAttenuation),
		"+noise", "Gaussian",
		"-brightness-contrast", formatFloat(d.Brightness) + "x" + formatFloat(d.Contrast),
		"-modulate", fmt.Sprintf("%s,%s,%s",
			formatFloat(d.Modulate.Brightness),
			formatFloat(d.Modulate.Saturation),
			formatFloat(d.Modulate.Hue)),
		dst,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
