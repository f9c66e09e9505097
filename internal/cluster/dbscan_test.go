package cluster

import "testing"

func TestClusterGroupsTightPoints(t *testing.T) {
	// Two tight groups of 4 points each, far apart, plus one isolated point.
	// With minPoints=3, both groups should form clusters; the loner is noise.
	points := []Point{
		{0, 0}, {0.5, 0}, {0, 0.5}, {0.5, 0.5},
		{100, 100}, {100.5, 100}, {100, 100.5}, {100.5, 100.5},
		{500, 500},
	}
	labels := Cluster(2.0, 3, points)

	if labels[8].Noise != true {
		t.Errorf("isolated point should be noise, got %+v", labels[8])
	}

	firstGroup := labels[0].Cluster
	for i := 1; i < 4; i++ {
		if labels[i].Noise || labels[i].Cluster != firstGroup {
			t.Errorf("point %d should share cluster %d, got %+v", i, firstGroup, labels[i])
		}
	}

	secondGroup := labels[4].Cluster
	for i := 5; i < 8; i++ {
		if labels[i].Noise || labels[i].Cluster != secondGroup {
			t.Errorf("point %d should share cluster %d, got %+v", i, secondGroup, labels[i])
		}
	}

	if firstGroup == secondGroup {
		t.Errorf("the two distant groups should not share a cluster index")
	}
}

func TestClusterAllNoiseWhenSparse(t *testing.T) {
	points := []Point{{0, 0}, {50, 50}, {100, 100}}
	labels := Cluster(4.0, 9, points)
	for i, l := range labels {
		if !l.Noise {
			t.Errorf("point %d: expected noise, got cluster %d", i, l.Cluster)
		}
	}
}

func TestClusterEmptyInput(t *testing.T) {
	if labels := Cluster(4.0, 9, nil); len(labels) != 0 {
		t.Errorf("expected no labels for empty input, got %d", len(labels))
	}
}
