// Package geom holds the axis-aligned rectangle math used by drag hit testing.
package geom

import "math"

// Point is a position in board space. Terminal cells are treated as unit pixels.
type Point struct {
	X float64
	Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle. Right and Bottom are exclusive edges.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// RectAt builds a rectangle from its top-left corner and size.
func RectAt(origin Point, width, height float64) Rect {
	return Rect{Left: origin.X, Top: origin.Y, Right: origin.X + width, Bottom: origin.Y + height}
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Area is zero for degenerate or inverted rectangles.
func (r Rect) Area() float64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point {
	return Point{X: r.Left, Y: r.Top}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Overlap returns the width and height of the intersection of a and b,
// each clamped at zero.
func Overlap(a, b Rect) (width, height float64) {
	width = math.Max(0, math.Min(a.Right, b.Right)-math.Max(a.Left, b.Left))
	height = math.Max(0, math.Min(a.Bottom, b.Bottom)-math.Max(a.Top, b.Top))
	return width, height
}

// OverlapRatio is the intersection area of subject and zone divided by the
// area of subject, in [0, 1]. A degenerate subject never overlaps anything.
func OverlapRatio(subject, zone Rect) float64 {
	area := subject.Area()
	if area == 0 {
		return 0
	}
	w, h := Overlap(subject, zone)
	return (w * h) / area
}
