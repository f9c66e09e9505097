package geom_test

import (
	"math"
	"testing"

	"github.com/dfbb/qrscan/internal/geom"
)

func TestDistance(t *testing.T) {
	a := geom.Point{X: 0, Y: 0}
	b := geom.Point{X: 3, Y: 4}
	if got := geom.Distance(a, b); got != 5 {
		t.Errorf("Distance = %v, want 5", got)
	}
}

func TestNormalize(t *testing.T) {
	v := geom.Vec{X: 3, Y: 4}.Normalize()
	if got := v.Length(); math.Abs(got-1) > 1e-9 {
		t.Errorf("Normalize length = %v, want 1", got)
	}
}

func TestNormalizeZero(t *testing.T) {
	v := geom.Vec{}.Normalize()
	if v != (geom.Vec{}) {
		t.Errorf("Normalize(zero) = %v, want zero vector", v)
	}
}

func TestAngleSign(t *testing.T) {
	// i->j points right (east), i->k points down (south, since Y grows
	// downward). This is the orientation the triple finder must accept:
	// top_left -> top_right -> bottom_left, and it must yield a negative angle.
	ij := geom.Vec{X: 1, Y: 0}
	ik := geom.Vec{X: 0, Y: 1}
	if got := geom.Angle(ij, ik); got >= 0 {
		t.Errorf("Angle(east, south) = %v, want negative", got)
	}
	// Swapped roles (i->j points down, i->k points right) must flip the sign.
	if got := geom.Angle(ik, ij); got <= 0 {
		t.Errorf("Angle(south, east) = %v, want positive", got)
	}
}

func TestAddVec(t *testing.T) {
	sum := geom.AddVec(geom.Vec{X: 1, Y: 2}, geom.Vec{X: 3, Y: 4})
	if sum != (geom.Vec{X: 4, Y: 6}) {
		t.Errorf("AddVec = %v, want {4 6}", sum)
	}
}
