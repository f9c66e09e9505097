// Package preprocess implements the binarization utilities the detection core
// treats as external collaborators (grayscale conversion and threshold/blur):
// fixed threshold, adaptive box threshold, and adaptive Gaussian threshold.
// No suitable third-party imaging library covers adaptive-threshold blur
// anywhere in the retrieval pack (see DESIGN.md); this package is a deliberate
// standard-library-only implementation built on image/image.Gray.
package preprocess

import (
	"image"
	"image/color"
	"math"
)

// Grayscale converts an arbitrary image to 8-bit luma using the standard
// library's built-in color.GrayModel conversion (ITU-R 601-2 luma transform).
func Grayscale(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
	return dst
}

// Threshold applies a fixed global threshold: output is 255 where the input
// sample is strictly greater than t, else 0.
func Threshold(src *image.Gray, t uint8) *image.Gray {
	return mapColors(src, func(v uint8) uint8 {
		if v > t {
			return 255
		}
		return 0
	})
}

// AdaptiveBoxThreshold binarizes src against a local mean computed with a box
// filter of the given radius (window side 2*radius+1): output is 255 where
// the input sample exceeds (local mean - diffThreshold), else 0. The
// subtraction saturates at zero, mirroring the reference's use of an unsigned
// saturating_sub so the comparison never underflows.
func AdaptiveBoxThreshold(src *image.Gray, radius int, diffThreshold uint8) *image.Gray {
	mean := boxBlur(src, radius)
	return mapColors2(src, mean, diffThreshold)
}

// AdaptiveGaussianThreshold binarizes src against a Gaussian-blurred copy of
// itself with the given sigma, the same way as AdaptiveBoxThreshold.
func AdaptiveGaussianThreshold(src *image.Gray, sigma float64, diffThreshold uint8) *image.Gray {
	blurred := gaussianBlur(src, sigma)
	return mapColors2(src, blurred, diffThreshold)
}

func mapColors(src *image.Gray, f func(uint8) uint8) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetGray(x, y, color.Gray{Y: f(src.GrayAt(x, y).Y)})
		}
	}
	return dst
}

func mapColors2(src, other *image.Gray, diffThreshold uint8) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			mean := other.GrayAt(x, y).Y
			bound := saturatingSub(mean, diffThreshold)
			v := src.GrayAt(x, y).Y
			out := uint8(0)
			if v > bound {
				out = 255
			}
			dst.SetGray(x, y, color.Gray{Y: out})
		}
	}
	return dst
}

func saturatingSub(a, b uint8) uint8 {
	if a < b {
		return 0
	}
	return a - b
}

// boxBlur computes, for each pixel, the mean of the radius-bounded square
// window around it (clamped at image edges), matching imageproc's
// box_filter(image, radius, radius) semantics.
func boxBlur(src *image.Gray, radius int) *image.Gray {
	if radius < 1 {
		out := image.NewGray(src.Bounds())
		copy(out.Pix, src.Pix)
		return out
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	// Horizontal pass into a float accumulator, then vertical pass, each
	// averaging a clamped window of 2*radius+1 samples — O(W*H*radius) total
	// rather than the O(W*H*radius²) of a direct 2D window.
	horiz := make([]float64, w*h)
	for y := 0; y < h; y++ {
		rowOff := y * w
		for x := 0; x < w; x++ {
			sum := 0.0
			count := 0
			for dx := -radius; dx <= radius; dx++ {
				sx := clamp(x+dx, 0, w-1)
				sum += float64(src.GrayAt(b.Min.X+sx, b.Min.Y+y).Y)
				count++
			}
			horiz[rowOff+x] = sum / float64(count)
		}
	}

	out := image.NewGray(b)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			sum := 0.0
			count := 0
			for dy := -radius; dy <= radius; dy++ {
				sy := clamp(y+dy, 0, h-1)
				sum += horiz[sy*w+x]
				count++
			}
			mean := sum / float64(count)
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: round(mean)})
		}
	}
	return out
}

// gaussianBlur applies a separable Gaussian blur with the given sigma. The
// kernel radius is chosen as ceil(3*sigma), the conventional cutoff beyond
// which the Gaussian's contribution is negligible.
func gaussianBlur(src *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		out := image.NewGray(src.Bounds())
		copy(out.Pix, src.Pix)
		return out
	}
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	horiz := make([]float64, w*h)
	for y := 0; y < h; y++ {
		rowOff := y * w
		for x := 0; x < w; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				sx := clamp(x+k, 0, w-1)
				acc += float64(src.GrayAt(b.Min.X+sx, b.Min.Y+y).Y) * kernel[k+radius]
			}
			horiz[rowOff+x] = acc
		}
	}

	out := image.NewGray(b)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				sy := clamp(y+k, 0, h-1)
				acc += horiz[sy*w+x] * kernel[k+radius]
			}
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: round(acc)})
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}
