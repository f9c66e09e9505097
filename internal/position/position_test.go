package position

import (
	"math"
	"testing"

	"github.com/dfbb/qrscan/internal/geom"
	"github.com/dfbb/qrscan/internal/triple"
)

func TestVersionRoundTrip(t *testing.T) {
	for v := Version(1); v < 40; v++ {
		modules := float64(v.NumberOfModules())
		got := FromEstimatedModules(modules)
		if got != v {
			t.Errorf("version %d: round trip gave %d (modules=%v)", v, got, modules)
		}
	}
}

func TestNumberOfModules(t *testing.T) {
	if got := Version(1).NumberOfModules(); got != 21 {
		t.Errorf("version 1 = %d modules, want 21", got)
	}
	if got := Version(40).NumberOfModules(); got != 177 {
		t.Errorf("version 40 = %d modules, want 177", got)
	}
}

func TestEstimateOneVersion1(t *testing.T) {
	// Marker centers 14*moduleSize apart leave room for the 3.5-module
	// half-marker extrapolation on each side to land on a 21-module
	// (version 1) full symbol edge: 14 + 3.5 + 3.5 = 21.
	const moduleSize = 4.0
	markerSize := 7 * moduleSize
	centerSpacing := 14 * moduleSize

	tr := triple.Triple{
		TopLeft:    geom.Point{X: 0, Y: 0},
		TopRight:   geom.Point{X: centerSpacing, Y: 0},
		BottomLeft: geom.Point{X: 0, Y: centerSpacing},
		MeanSize:   markerSize,
	}

	est := estimateOne(tr)
	if est.Version != 1 {
		t.Fatalf("version = %d, want 1", est.Version)
	}

	wantTopLeft := geom.Point{X: -14, Y: -14}
	if math.Abs(est.TopLeft.X-wantTopLeft.X) > 1e-6 || math.Abs(est.TopLeft.Y-wantTopLeft.Y) > 1e-6 {
		t.Errorf("TopLeft = %+v, want %+v", est.TopLeft, wantTopLeft)
	}

	wantEdge := 21.0 * moduleSize
	if math.Abs(geom.Distance(est.TopLeft, est.TopRight)-wantEdge) > 1e-6 {
		t.Errorf("top edge length = %v, want %v", geom.Distance(est.TopLeft, est.TopRight), wantEdge)
	}
	if math.Abs(geom.Distance(est.TopLeft, est.BottomLeft)-wantEdge) > 1e-6 {
		t.Errorf("left edge length = %v, want %v", geom.Distance(est.TopLeft, est.BottomLeft), wantEdge)
	}

	wantBottomRight := geom.Point{X: 70, Y: 70}
	if math.Abs(est.BottomRight.X-wantBottomRight.X) > 1e-6 || math.Abs(est.BottomRight.Y-wantBottomRight.Y) > 1e-6 {
		t.Errorf("BottomRight = %+v, want %+v", est.BottomRight, wantBottomRight)
	}
}
