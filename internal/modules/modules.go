// Package modules samples a QR code symbol's module grid from a binarized
// image, given its estimated corner positions.
package modules

import (
	"image"
	"math"

	"github.com/dfbb/qrscan/internal/geom"
	"github.com/dfbb/qrscan/internal/position"
)

// Grid is a sampled module matrix: Bits[x][y] is true where the module at
// column x, row y was read as black.
type Grid struct {
	Version position.Version
	Bits    [][]bool
}

// pointsAlongBorder returns n module-center points evenly spaced along the
// segment from first to second, each offset by half a module so the first
// and last points land at the centers of the first and last modules rather
// than on the symbol's outer edge.
func pointsAlongBorder(n int, first, second geom.Point) []geom.Point {
	vector := geom.Between(first, second)
	normalized := vector.Normalize()
	moduleSize := vector.Length() / float64(n)

	points := make([]geom.Point, n)
	for i := 0; i < n; i++ {
		points[i] = first.Add(normalized.Scale(moduleSize * (0.5 + float64(i))))
	}
	return points
}

// intersection finds where the line through section1Start/section1End
// crosses the line through section2Start/section2End, returning the point
// as an offset along the second section (matching the reference's
// parametrization so the two lines need not be axis-aligned).
func intersection(section1Start, section1End, section2Start, section2End geom.Point) geom.Point {
	a := section1Start
	b := geom.Between(section1Start, section1End)
	c := section2Start
	d := geom.Between(section2Start, section2End)

	u := (b.X*(c.Y-a.Y) + b.Y*(a.X-c.X)) / (d.X*b.Y - d.Y*b.X)

	return c.Add(geom.Vec{X: u * d.X, Y: u * d.Y})
}

// Sample reads the module grid for a single symbol from img, intersecting
// evenly-spaced points along the symbol's left/right and top/bottom edges to
// locate each module's center, then reading the nearest pixel there.
func Sample(img *image.Gray, est position.Estimation) Grid {
	n := int(est.Version.NumberOfModules())
	bounds := img.Bounds()
	maxX := bounds.Dx() - 1
	maxY := bounds.Dy() - 1

	leftEdge := pointsAlongBorder(n, est.TopLeft, est.BottomLeft)
	rightEdge := pointsAlongBorder(n, est.TopRight, est.BottomRight)
	topEdge := pointsAlongBorder(n, est.TopLeft, est.TopRight)
	bottomEdge := pointsAlongBorder(n, est.BottomLeft, est.BottomRight)

	bits := make([][]bool, n)
	for x := 0; x < n; x++ {
		col := make([]bool, n)
		for y := 0; y < n; y++ {
			p := intersection(leftEdge[y], rightEdge[y], topEdge[x], bottomEdge[x])

			px := clampInt(int(math.Round(math.Max(p.X, 0))), 0, maxX)
			py := clampInt(int(math.Round(math.Max(p.Y, 0))), 0, maxY)

			col[y] = img.GrayAt(bounds.Min.X+px, bounds.Min.Y+py).Y == 0
		}
		bits[x] = col
	}

	return Grid{Version: est.Version, Bits: bits}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
