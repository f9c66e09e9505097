// Package triple finds ordered triples of position markers that plausibly
// form the top-left, top-right, and bottom-left finder patterns of a single
// QR code symbol.
package triple

import (
	"math"

	"github.com/dfbb/qrscan/internal/cluster"
	"github.com/dfbb/qrscan/internal/geom"
)

const (
	dimensionsThreshold = 0.1
	markerSizeThreshold = 0.2
)

// Triple is three markers assigned corner roles, plus the mean of their
// estimated sizes.
type Triple struct {
	TopLeft, TopRight, BottomLeft geom.Point
	MeanSize                      float64
}

func approxEq(x, y float64) bool {
	return math.Abs(x-y) < dimensionsThreshold
}

// Find enumerates every ordered triple of distinct markers and keeps those
// whose pairwise distances normalize to the 1:1:√2 right-triangle signature
// of two finder patterns sharing a third at a right angle, whose sizes agree
// within tolerance, and whose orientation (index1→index2 then index1→index3)
// turns the expected way: top_left → top_right → bottom_left.
func Find(markers []cluster.Marker) []Triple {
	n := len(markers)
	if n < 3 {
		return nil
	}

	centers := make([]geom.Point, n)
	for i, m := range markers {
		centers[i] = geom.Point{X: m.CenterX, Y: m.CenterY}
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dist[i][j] = geom.Distance(centers[i], centers[j])
		}
	}

	sqrt2 := math.Sqrt2
	totalNorm := 1. + 1. + sqrt2

	var triples []Triple
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				if i == j || i == k || j == k {
					continue
				}

				d12 := dist[i][j]
				d13 := dist[i][k]
				d23 := dist[j][k]
				totalDistance := d12 + d13 + d23
				if totalDistance == 0 {
					continue
				}

				n12 := totalNorm * d12 / totalDistance
				n13 := totalNorm * d13 / totalDistance
				n23 := totalNorm * d23 / totalDistance

				if !approxEq(n12, 1) || !approxEq(n13, 1) || !approxEq(n23, sqrt2) {
					continue
				}

				m1, m2, m3 := markers[i], markers[j], markers[k]
				meanSize := (m1.Size + m2.Size + m3.Size) / 3.
				sizesMatch := true
				for _, sz := range [3]float64{m1.Size, m2.Size, m3.Size} {
					if (sz-meanSize)/meanSize >= markerSizeThreshold {
						sizesMatch = false
						break
					}
				}
				if !sizesMatch {
					continue
				}

				angle1 := geom.Angle(
					geom.Between(centers[i], centers[j]),
					geom.Between(centers[i], centers[k]),
				)
				if angle1 >= 0 {
					continue
				}

				triples = append(triples, Triple{
					TopLeft:    centers[i],
					TopRight:   centers[j],
					BottomLeft: centers[k],
					MeanSize:   meanSize,
				})
			}
		}
	}

	return triples
}
