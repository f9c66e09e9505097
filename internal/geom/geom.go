// Package geom provides the 2D point/vector primitives the detection pipeline
// builds its geometry on: length, difference, normalization, scaling, addition,
// Euclidean distance and the signed angle between two vectors.
package geom

import "math"

// Point is a location in image pixel space. X grows rightward, Y downward.
type Point struct {
	X, Y float64
}

// Vec is a free vector; it shares Point's representation since both are pairs
// of float64 components, but keeping the name distinct documents intent at
// call sites (a Point is a place, a Vec is a displacement).
type Vec struct {
	X, Y float64
}

// Between returns the vector from a to b (b - a).
func Between(a, b Point) Vec {
	return Vec{X: b.X - a.X, Y: b.Y - a.Y}
}

// Length returns the Euclidean length of v.
func (v Vec) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns v scaled to unit length. The zero vector normalizes to
// itself rather than producing NaN, since a degenerate triple should fail
// downstream geometric checks rather than poison arithmetic with NaN.
func (v Vec) Normalize() Vec {
	l := v.Length()
	if l == 0 {
		return v
	}
	return Vec{X: v.X / l, Y: v.Y / l}
}

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec {
	return Vec{X: v.X * s, Y: v.Y * s}
}

// Add returns p translated by v.
func (p Point) Add(v Vec) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// AddVec returns the sum of two vectors.
func AddVec(a, b Vec) Vec {
	return Vec{X: a.X + b.X, Y: a.Y + b.Y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return Between(a, b).Length()
}

// Angle returns the signed angle between two vectors' directions, computed as
// the polar angle of a minus the polar angle of b (atan2(a.Y,a.X) -
// atan2(b.Y,b.X)), not normalized beyond atan2's own (-pi, pi] range per term.
// This matches the reference pipeline's angle() exactly, including its
// argument order — callers rely on the sign, not the magnitude.
func Angle(a, b Vec) float64 {
	return math.Atan2(a.Y, a.X) - math.Atan2(b.Y, b.X)
}
