// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package degrade

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Noise model constants, matching ImageMagick's Gaussian noise generator
// on a 16-bit quantum.
const (
	quantumRange  = 65535.0
	sigmaGaussian = 0.015625
	tauGaussian   = 0.078125
)

var backgrounds = map[string]color.RGBA{
	"white": {R: 255, G: 255, B: 255, A: 255},
	"black": {A: 255},
	"gray":  {R: 128, G: 128, B: 128, A: 255},
}

func parseBackground(name string) (color.RGBA, error) {
	c, ok := backgrounds[name]
	if !ok {
		return color.RGBA{}, fmt.Errorf("unsupported background color %q", name)
	}
	return c, nil
}

// toRGBA returns img as an *image.RGBA whose bounds start at the origin.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// resize scales img to exactly w x h, ignoring its aspect ratio.
func resize(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// rotate turns img clockwise by degrees about its center. The result is
// sized to the rotated bounding box, so no content is cropped, and the
// uncovered corners are filled with bg.
func rotate(img *image.RGBA, degrees float64, bg color.RGBA) *image.RGBA {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	nw := int(math.Ceil(math.Abs(w*cos) + math.Abs(h*sin) - 1e-9))
	nh := int(math.Ceil(math.Abs(w*sin) + math.Abs(h*cos) - 1e-9))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	cx, cy := w/2, h/2
	dx, dy := float64(nw)/2, float64(nh)/2
	s2d := f64.Aff3{
		cos, -sin, dx - cos*cx + sin*cy,
		sin, cos, dy - sin*cx - cos*cy,
	}
	draw.BiLinear.Transform(dst, s2d, img, img.Bounds(), draw.Over, nil)
	return dst
}

// gaussianBlur convolves img with a separable Gaussian kernel. A radius of
// zero picks one from sigma.
func gaussianBlur(img *image.RGBA, radius, sigma float64) *image.RGBA {
	if sigma <= 0 {
		return img
	}
	r := int(radius)
	if r <= 0 {
		r = int(math.Ceil(3 * sigma))
	}
	kernel := make([]float64, 2*r+1)
	var sum float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+r] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	tmp := image.NewRGBA(img.Bounds())
	out := image.NewRGBA(img.Bounds())

	// Horizontal pass.
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			var acc [3]float64
			for k := -r; k <= r; k++ {
				sx := min(max(x+k, 0), w-1)
				off := row + sx*4
				kv := kernel[k+r]
				acc[0] += kv * float64(img.Pix[off])
				acc[1] += kv * float64(img.Pix[off+1])
				acc[2] += kv * float64(img.Pix[off+2])
			}
			off := row + x*4
			tmp.Pix[off] = clamp8(acc[0])
			tmp.Pix[off+1] = clamp8(acc[1])
			tmp.Pix[off+2] = clamp8(acc[2])
			tmp.Pix[off+3] = img.Pix[off+3]
		}
	}

	// Vertical pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [3]float64
			for k := -r; k <= r; k++ {
				sy := min(max(y+k, 0), h-1)
				off := sy*tmp.Stride + x*4
				kv := kernel[k+r]
				acc[0] += kv * float64(tmp.Pix[off])
				acc[1] += kv * float64(tmp.Pix[off+1])
				acc[2] += kv * float64(tmp.Pix[off+2])
			}
			off := y*out.Stride + x*4
			out.Pix[off] = clamp8(acc[0])
			out.Pix[off+1] = clamp8(acc[1])
			out.Pix[off+2] = clamp8(acc[2])
			out.Pix[off+3] = tmp.Pix[off+3]
		}
	}
	return out
}

// gaussianNoise perturbs every color channel in place. The noise amplitude
// scales with attenuate.
func gaussianNoise(img *image.RGBA, attenuate float64, rng *rand.Rand) {
	if attenuate <= 0 {
		return
	}
	sigma := attenuate * sigmaGaussian
	tau := attenuate * tauGaussian
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			off := row + x*4
			for c := 0; c < 3; c++ {
				p := float64(img.Pix[off+c]) * 257
				n := p + math.Sqrt(p)*sigma*rng.NormFloat64() + quantumRange*tau*rng.NormFloat64()
				img.Pix[off+c] = clamp8(n / 257)
			}
		}
	}
}

// brightnessContrastLUT maps channel values through a linear
// brightness/contrast adjustment. Both arguments are percentages in
// [-100, 100]; negative contrast flattens the tonal range.
func brightnessContrastLUT(brightness, contrast float64) [256]uint8 {
	slope := math.Tan(math.Pi * (contrast/100 + 1) / 4)
	if slope < 0 {
		slope = 0
	}
	intercept := brightness/100 + ((100-brightness)/200)*(1-slope)

	var lut [256]uint8
	for i := range lut {
		v := slope*float64(i)/255 + intercept
		lut[i] = clamp8(v * 255)
	}
	return lut
}

func applyLUT(img *image.RGBA, lut [256]uint8) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = lut[img.Pix[i]]
		img.Pix[i+1] = lut[img.Pix[i+1]]
		img.Pix[i+2] = lut[img.Pix[i+2]]
	}
}

// modulate scales lightness and saturation and shifts hue in HSL space.
func modulate(img *image.RGBA, m Modulation) {
	if m.Brightness == 100 && m.Saturation == 100 && m.Hue == 100 {
		return
	}
	hueShift := math.Mod(m.Hue-100, 200) / 200
	for i := 0; i < len(img.Pix); i += 4 {
		h, s, l := rgbToHSL(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		h += hueShift
		h -= math.Floor(h)
		s = math.Min(math.Max(s*m.Saturation/100, 0), 1)
		l = math.Min(math.Max(l*m.Brightness/100, 0), 1)
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = hslToRGB(h, s, l)
	}
}

func rgbToHSL(r8, g8, b8 uint8) (h, s, l float64) {
	r, g, b := float64(r8)/255, float64(g8)/255, float64(b8)/255
	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	l = (hi + lo) / 2
	if hi == lo {
		return 0, 0, l
	}
	d := hi - lo
	if l > 0.5 {
		s = d / (2 - hi - lo)
	} else {
		s = d / (hi + lo)
	}
	switch hi {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, l
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	if s == 0 {
		v := clamp8(l * 255)
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return clamp8(hueToRGB(p, q, h+1.0/3) * 255),
		clamp8(hueToRGB(p, q, h) * 255),
		clamp8(hueToRGB(p, q, h-1.0/3) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
