package cluster

import "github.com/dfbb/qrscan/internal/hints"

// eps and minPoints are the DBSCAN tuning constants for fusing per-axis scan
// hints into marker centroids: a marker only needs a handful of row/column
// hits within a few pixels of each other to be confirmed.
const (
	eps       = 4.0
	minPoints = 9
)

// Marker is a finder pattern candidate, fused from the hints of one DBSCAN
// cluster; a lone hint, or a group of fewer than minPoints hints within eps
// of each other, never forms a marker.
type Marker struct {
	CenterX, CenterY float64
	Size             float64
}

// FuseHints groups the scanner's per-axis hints with DBSCAN and averages
// each cluster into a single marker center and size. Hints classified as
// noise are dropped.
func FuseHints(hs []hints.Hint) []Marker {
	points := make([]Point, len(hs))
	for i, h := range hs {
		points[i] = Point{X: h.CenterX, Y: h.CenterY}
	}
	labels := Cluster(eps, minPoints, points)

	groups := make(map[int][]hints.Hint)
	for i, l := range labels {
		if l.Noise {
			continue
		}
		groups[l.Cluster] = append(groups[l.Cluster], hs[i])
	}

	markers := make([]Marker, 0, len(groups))
	for _, members := range groups {
		var sumX, sumY, sumSize float64
		for _, m := range members {
			sumX += m.CenterX
			sumY += m.CenterY
			sumSize += m.Size
		}
		n := float64(len(members))
		markers = append(markers, Marker{
			CenterX: sumX / n,
			CenterY: sumY / n,
			Size:    sumSize / n,
		})
	}
	return markers
}
