// Package geometry provides the float-valued primitives used by the layout engine.
package geometry

import "math"

// Point represents a coordinate in world space. Y grows downward.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// IsFinite reports whether both coordinates are neither NaN nor infinite.
func (p Point) IsFinite() bool {
	return IsFinite(p.X) && IsFinite(p.Y)
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width" yaml:"width" validate:"gt=0"`
	Height float64 `json:"height" yaml:"height" validate:"gt=0"`
}

// Half returns half of the size as a point offset.
func (s Size) Half() Point {
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	Min  Point
	Size Size
}

// RectAt returns the rectangle of the given size whose top-left is p.
func RectAt(p Point, s Size) Rect {
	return Rect{Min: p, Size: s}
}

// RectAround returns the rectangle of the given size centered on c.
func RectAround(c Point, s Size) Rect {
	return Rect{Min: c.Sub(s.Half()), Size: s}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.Min.X + r.Size.Width, Y: r.Min.Y + r.Size.Height}
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return r.Min.Add(r.Size.Half())
}

// Inflate grows the rectangle by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{
		Min:  Point{X: r.Min.X - d, Y: r.Min.Y - d},
		Size: Size{Width: r.Size.Width + 2*d, Height: r.Size.Height + 2*d},
	}
}

// Distance returns the Euclidean distance between two points.
func Distance(p1, p2 Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// Midpoint returns the point halfway between p1 and p2.
func Midpoint(p1, p2 Point) Point {
	return Point{X: (p1.X + p2.X) / 2, Y: (p1.Y + p2.Y) / 2}
}

// RectsOverlap reports whether r1 and r2, each grown by buffer on every side,
// intersect. Comparisons are strict: rectangles whose padded edges exactly
// touch do not overlap.
func RectsOverlap(r1, r2 Rect, buffer float64) bool {
	a := r1.Inflate(buffer)
	b := r2.Inflate(buffer)
	aMax, bMax := a.Max(), b.Max()

	return a.Min.X < bMax.X && b.Min.X < aMax.X &&
		a.Min.Y < bMax.Y && b.Min.Y < aMax.Y
}

// orientation returns the sign of the cross product (b-a)x(c-a).
func orientation(a, b, c Point) int {
	v := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// SegmentsIntersect reports whether the open segments a1-a2 and b1-b2 cross.
// Collinear segments and segments that only touch at an endpoint are treated
// as non-intersecting.
func SegmentsIntersect(a1, a2, b1, b2 Point) bool {
	o1 := orientation(a1, a2, b1)
	o2 := orientation(a1, a2, b2)
	o3 := orientation(b1, b2, a1)
	o4 := orientation(b1, b2, a2)

	return o1*o2 < 0 && o3*o4 < 0
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Normalize returns the unit vector in the direction of v. A zero-length or
// non-finite vector yields fallback.
func Normalize(v, fallback Point) Point {
	l := math.Hypot(v.X, v.Y)
	if l == 0 || !IsFinite(l) {
		return fallback
	}
	return Point{X: v.X / l, Y: v.Y / l}
}

// Perpendicular returns v rotated by +90 degrees.
func Perpendicular(v Point) Point {
	return Point{X: -v.Y, Y: v.X}
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Polar returns the point at the given distance and angle (degrees) from c.
func Polar(c Point, radius, deg float64) Point {
	rad := Radians(deg)
	return Point{X: c.X + radius*math.Cos(rad), Y: c.Y + radius*math.Sin(rad)}
}
