// Package cluster implements density-based clustering (DBSCAN) over 2D
// points. No DBSCAN library is present anywhere in the retrieval pack or
// appears to be an idiomatic ecosystem fit for this narrow a use (clustering
// a few dozen scan hints per image), so this is a deliberate hand-rolled
// implementation matching the reference's eps/min_points contract exactly.
package cluster

import "math"

// Classification is the label DBSCAN assigns to one input point.
type Classification struct {
	// Noise is true when the point belongs to no cluster.
	Noise bool
	// Cluster is the cluster index the point belongs to, valid only when
	// Noise is false. Core and edge points share the same cluster index.
	Cluster int
}

// Point is a single 2D observation to cluster.
type Point struct {
	X, Y float64
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func neighbors(points []Point, idx int, eps float64) []int {
	var out []int
	for i, p := range points {
		if i == idx {
			continue
		}
		if distance(points[idx], p) <= eps {
			out = append(out, i)
		}
	}
	return out
}

// Cluster runs DBSCAN over points with neighborhood radius eps and the
// minimum neighbor count minPoints required for a point to seed a cluster
// (a point needs minPoints-1 neighbors plus itself, matching the reference's
// inclusive-of-self convention). The returned slice has one Classification
// per input point, in the same order.
func Cluster(eps float64, minPoints int, points []Point) []Classification {
	n := len(points)
	labels := make([]Classification, n)
	for i := range labels {
		labels[i] = Classification{Noise: true}
	}
	visited := make([]bool, n)
	nextCluster := 0

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neigh := neighbors(points, i, eps)
		if len(neigh)+1 < minPoints {
			continue
		}

		cluster := nextCluster
		nextCluster++
		labels[i] = Classification{Noise: false, Cluster: cluster}

		seeds := append([]int{}, neigh...)
		for s := 0; s < len(seeds); s++ {
			j := seeds[s]
			if !visited[j] {
				visited[j] = true
				jNeigh := neighbors(points, j, eps)
				if len(jNeigh)+1 >= minPoints {
					seeds = append(seeds, jNeigh...)
				}
			}
			if labels[j].Noise {
				labels[j] = Classification{Noise: false, Cluster: cluster}
			}
		}
	}

	return labels
}
