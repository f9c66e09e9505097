package cluster

import (
	"testing"

	"github.com/dfbb/qrscan/internal/hints"
)

func TestFuseHintsAveragesCluster(t *testing.T) {
	var hs []hints.Hint
	for i := 0; i < 10; i++ {
		hs = append(hs, hints.Hint{CenterX: 10 + float64(i%2), CenterY: 10, Size: 7})
	}
	markers := FuseHints(hs)
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d: %+v", len(markers), markers)
	}
	if markers[0].CenterX < 10 || markers[0].CenterX > 11 {
		t.Errorf("CenterX = %v, want roughly 10.5", markers[0].CenterX)
	}
	if markers[0].Size != 7 {
		t.Errorf("Size = %v, want 7", markers[0].Size)
	}
}

func TestFuseHintsDropsSparseNoise(t *testing.T) {
	hs := []hints.Hint{
		{CenterX: 1, CenterY: 1, Size: 7},
		{CenterX: 500, CenterY: 500, Size: 7},
	}
	if markers := FuseHints(hs); len(markers) != 0 {
		t.Errorf("expected no markers from isolated hints, got %d", len(markers))
	}
}
