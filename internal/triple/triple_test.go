package triple

import (
	"testing"

	"github.com/dfbb/qrscan/internal/cluster"
)

func TestFindRequiresThreeMarkers(t *testing.T) {
	markers := []cluster.Marker{{CenterX: 0, CenterY: 0, Size: 7}, {CenterX: 10, CenterY: 0, Size: 7}}
	if got := Find(markers); got != nil {
		t.Errorf("expected nil with fewer than 3 markers, got %+v", got)
	}
}

func TestFindDetectsRightAngleTriple(t *testing.T) {
	// top_left at origin, top_right to the east, bottom_left to the south:
	// a clean right-angle L with equal legs and matching sizes.
	markers := []cluster.Marker{
		{CenterX: 0, CenterY: 0, Size: 7},
		{CenterX: 100, CenterY: 0, Size: 7},
		{CenterX: 0, CenterY: 100, Size: 7},
	}
	triples := Find(markers)
	if len(triples) != 1 {
		t.Fatalf("expected exactly 1 triple, got %d: %+v", len(triples), triples)
	}
	tr := triples[0]
	if tr.TopLeft.X != 0 || tr.TopLeft.Y != 0 {
		t.Errorf("TopLeft = %+v, want origin", tr.TopLeft)
	}
	if tr.TopRight.X != 100 || tr.TopRight.Y != 0 {
		t.Errorf("TopRight = %+v, want (100,0)", tr.TopRight)
	}
	if tr.BottomLeft.X != 0 || tr.BottomLeft.Y != 100 {
		t.Errorf("BottomLeft = %+v, want (0,100)", tr.BottomLeft)
	}
}

func TestFindRejectsMismatchedSizes(t *testing.T) {
	markers := []cluster.Marker{
		{CenterX: 0, CenterY: 0, Size: 7},
		{CenterX: 100, CenterY: 0, Size: 7},
		{CenterX: 0, CenterY: 100, Size: 20},
	}
	if triples := Find(markers); len(triples) != 0 {
		t.Errorf("expected no triples with mismatched marker sizes, got %d", len(triples))
	}
}

func TestFindRejectsNonRightTriangle(t *testing.T) {
	markers := []cluster.Marker{
		{CenterX: 0, CenterY: 0, Size: 7},
		{CenterX: 100, CenterY: 0, Size: 7},
		{CenterX: 50, CenterY: 10, Size: 7},
	}
	if triples := Find(markers); len(triples) != 0 {
		t.Errorf("expected no triples from a near-collinear configuration, got %d", len(triples))
	}
}
