package modules

import (
	"image"
	"testing"

	"github.com/dfbb/qrscan/internal/geom"
	"github.com/dfbb/qrscan/internal/position"
)

func solidGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func square(side float64, version position.Version) position.Estimation {
	return position.Estimation{
		TopLeft:     geom.Point{X: 0, Y: 0},
		TopRight:    geom.Point{X: side, Y: 0},
		BottomLeft:  geom.Point{X: 0, Y: side},
		BottomRight: geom.Point{X: side, Y: side},
		Version:     version,
	}
}

func TestSampleShapeMatchesVersion(t *testing.T) {
	version := position.Version(1)
	n := int(version.NumberOfModules())
	img := solidGray(n*4, n*4, 128)
	grid := Sample(img, square(float64(n*4), version))

	if len(grid.Bits) != n {
		t.Fatalf("Bits has %d columns, want %d", len(grid.Bits), n)
	}
	for x, col := range grid.Bits {
		if len(col) != n {
			t.Fatalf("column %d has %d rows, want %d", x, len(col), n)
		}
	}
}

func TestSampleAllBlack(t *testing.T) {
	version := position.Version(1)
	n := int(version.NumberOfModules())
	img := solidGray(n*4, n*4, 0)
	grid := Sample(img, square(float64(n*4), version))

	for x, col := range grid.Bits {
		for y, bit := range col {
			if !bit {
				t.Fatalf("bit[%d][%d] = false, want true on an all-black image", x, y)
			}
		}
	}
}

func TestSampleAllWhite(t *testing.T) {
	version := position.Version(1)
	n := int(version.NumberOfModules())
	img := solidGray(n*4, n*4, 255)
	grid := Sample(img, square(float64(n*4), version))

	for x, col := range grid.Bits {
		for y, bit := range col {
			if bit {
				t.Fatalf("bit[%d][%d] = true, want false on an all-white image", x, y)
			}
		}
	}
}
