// Package position estimates a QR code symbol's four corners and version
// from a triple of position markers, extrapolating the unobserved fourth
// corner (bottom-right) by parallelogram completion.
package position

import (
	"math"

	"github.com/dfbb/qrscan/internal/geom"
	"github.com/dfbb/qrscan/internal/triple"
)

// Version is a QR code's size class: a symbol of version v has
// NumberOfModules() = 4*v + 17 modules per side.
type Version uint32

// FromEstimatedModules rounds a continuous module-count estimate to the
// nearest valid QR version.
func FromEstimatedModules(estimated float64) Version {
	return Version(math.Round((estimated - 17) / 4))
}

// NumberOfModules returns the exact per-side module count for this version.
func (v Version) NumberOfModules() uint32 {
	return 4*uint32(v) + 17
}

// Estimation is a symbol's four corners (in source-image pixel
// coordinates) and its estimated version.
type Estimation struct {
	TopLeft, TopRight, BottomLeft, BottomRight geom.Point
	Version                                    Version
}

// FindAll turns every valid marker triple into a full corner-and-version
// estimate. The bottom-right corner is never directly observed (no finder
// pattern sits there); it is extrapolated by averaging the two
// parallelogram-completion candidates built from the top-right and
// bottom-left corners.
func FindAll(markers []triple.Triple) []Estimation {
	estimations := make([]Estimation, 0, len(markers))
	for _, t := range markers {
		estimations = append(estimations, estimateOne(t))
	}
	return estimations
}

func estimateOne(t triple.Triple) Estimation {
	estimatedModuleSize := t.MeanSize / 7.
	halfMarkerSize := 3.5 * estimatedModuleSize

	toTopRight := geom.Between(t.TopLeft, t.TopRight).Normalize()
	toBottomLeft := geom.Between(t.TopLeft, t.BottomLeft).Normalize()

	topLeft := t.TopLeft.
		Add(toTopRight.Scale(-halfMarkerSize)).
		Add(toBottomLeft.Scale(-halfMarkerSize))
	topRight := t.TopRight.
		Add(toTopRight.Scale(halfMarkerSize)).
		Add(toBottomLeft.Scale(-halfMarkerSize))
	bottomLeft := t.BottomLeft.
		Add(toTopRight.Scale(-halfMarkerSize)).
		Add(toBottomLeft.Scale(halfMarkerSize))

	meanEdgeLength := (geom.Distance(topLeft, topRight) + geom.Distance(topLeft, bottomLeft)) / 2.
	estimatedModules := meanEdgeLength / estimatedModuleSize
	version := FromEstimatedModules(estimatedModules)
	numberOfModules := float64(version.NumberOfModules())
	moduleSize := meanEdgeLength / numberOfModules

	bottomRight1 := topRight.Add(toBottomLeft.Scale(numberOfModules * moduleSize))
	bottomRight2 := bottomLeft.Add(toTopRight.Scale(numberOfModules * moduleSize))
	bottomRight := geom.Point{
		X: (bottomRight1.X + bottomRight2.X) / 2.,
		Y: (bottomRight1.Y + bottomRight2.Y) / 2.,
	}

	return Estimation{
		TopLeft:     topLeft,
		TopRight:    topRight,
		BottomLeft:  bottomLeft,
		BottomRight: bottomRight,
		Version:     version,
	}
}
