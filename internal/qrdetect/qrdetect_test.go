package qrdetect

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// drawFinderPattern paints a classic 7x7-module concentric-ring finder
// pattern (black border, white ring, solid 3x3 black core) centered at
// (cx, cy) with the given module size in pixels.
func drawFinderPattern(img *image.Gray, cx, cy, moduleSize float64) {
	half := 3.5 * moduleSize
	originX := cx - half
	originY := cy - half
	b := img.Bounds()

	for py := b.Min.Y; py < b.Max.Y; py++ {
		for px := b.Min.X; px < b.Max.X; px++ {
			jx := int(math.Floor((float64(px) - originX) / moduleSize))
			jy := int(math.Floor((float64(py) - originY) / moduleSize))
			if jx < 0 || jx >= 7 || jy < 0 || jy >= 7 {
				continue
			}
			kx := abs(jx - 3)
			ky := abs(jy - 3)
			k := kx
			if ky > k {
				k = ky
			}
			black := k == 3 || k <= 1
			if black {
				img.SetGray(px, py, color.Gray{Y: 0})
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func whiteCanvas(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestDetectEmptyImageYieldsNoSymbols(t *testing.T) {
	img := whiteCanvas(100, 100)
	if symbols := Detect(img, Options{}); len(symbols) != 0 {
		t.Errorf("expected 0 symbols on a blank image, got %d", len(symbols))
	}
}

func TestDetectFindsThreeFinderPatterns(t *testing.T) {
	const moduleSize = 4.0
	const spacing = 200.0
	const margin = 60.0

	img := whiteCanvas(int(spacing+2*margin), int(spacing+2*margin))

	topLeftX, topLeftY := margin, margin
	drawFinderPattern(img, topLeftX, topLeftY, moduleSize)
	drawFinderPattern(img, topLeftX+spacing, topLeftY, moduleSize)
	drawFinderPattern(img, topLeftX, topLeftY+spacing, moduleSize)

	symbols := Detect(img, Options{Dedup: true})
	if len(symbols) == 0 {
		t.Fatal("expected at least one detected symbol")
	}

	sym := symbols[0]
	if sym.Position.Version < minVersion || sym.Position.Version > maxVersion {
		t.Errorf("version %d out of valid range", sym.Position.Version)
	}
	n := int(sym.Position.Version.NumberOfModules())
	if len(sym.Modules.Bits) != n {
		t.Errorf("module grid has %d columns, want %d", len(sym.Modules.Bits), n)
	}
}
