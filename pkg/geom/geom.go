// Package geom provides the axis-aligned geometry primitives shared by the
// router, the diagram format and the renderers.
//
// All coordinates are float64 in diagram units. Routing only ever combines
// coordinates by addition and subtraction of configured margins, so exact
// comparison is used for node identity and [Eps] only where values are
// derived by division (midpoints).
package geom

import (
	"fmt"
	"math"
)

// Eps is the tolerance used when comparing derived coordinates.
const Eps = 1e-9

// Orientation is the direction of a rail or a polyline segment.
type Orientation int

const (
	// None marks the absence of an orientation, e.g. the start of a search.
	None Orientation = iota
	Horizontal
	Vertical
)

// String returns "horizontal", "vertical" or "none".
func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return "none"
}

// Perpendicular returns the other axis. None stays None.
func (o Orientation) Perpendicular() Orientation {
	switch o {
	case Horizontal:
		return Vertical
	case Vertical:
		return Horizontal
	}
	return None
}

// Point is a location in diagram space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p translated by d.
func (p Point) Add(d Point) Point { return Point{X: p.X + d.X, Y: p.Y + d.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Manhattan returns the L1 distance between p and q.
func (p Point) Manhattan(q Point) float64 {
	return math.Abs(p.X-q.X) + math.Abs(p.Y-q.Y)
}

func (p Point) String() string { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }

// Rect is an axis-aligned rectangle with X1 < X2 and Y1 < Y2 once validated.
// Y grows downwards, matching SVG.
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// RectAt builds a rectangle from its top-left corner and size.
func RectAt(x, y, w, h float64) Rect { return Rect{X1: x, Y1: y, X2: x + w, Y2: y + h} }

// Width returns X2-X1.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns Y2-Y1.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Min returns the top-left corner.
func (r Rect) Min() Point { return Point{X: r.X1, Y: r.Y1} }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point { return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2} }

// Valid reports whether the rectangle has a positive, finite area.
func (r Rect) Valid() bool {
	for _, v := range []float64{r.X1, r.Y1, r.X2, r.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.X1 < r.X2 && r.Y1 < r.Y2
}

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{X1: r.X1 + d.X, Y1: r.Y1 + d.Y, X2: r.X2 + d.X, Y2: r.Y2 + d.Y}
}

// Grow returns r expanded by m on every side.
func (r Rect) Grow(m float64) Rect {
	return Rect{X1: r.X1 - m, Y1: r.Y1 - m, X2: r.X2 + m, Y2: r.Y2 + m}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X1: math.Min(r.X1, o.X1), Y1: math.Min(r.Y1, o.Y1),
		X2: math.Max(r.X2, o.X2), Y2: math.Max(r.Y2, o.Y2),
	}
}

// Extend returns r grown to include p.
func (r Rect) Extend(p Point) Rect {
	return Rect{
		X1: math.Min(r.X1, p.X), Y1: math.Min(r.Y1, p.Y),
		X2: math.Max(r.X2, p.X), Y2: math.Max(r.Y2, p.Y),
	}
}

// Contains reports whether p lies in the closed rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// ContainsInterior reports whether p lies strictly inside r.
func (r Rect) ContainsInterior(p Point) bool {
	return p.X > r.X1 && p.X < r.X2 && p.Y > r.Y1 && p.Y < r.Y2
}

// ContainsRect reports whether o lies within the closed rectangle r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X1 >= r.X1 && o.X2 <= r.X2 && o.Y1 >= r.Y1 && o.Y2 <= r.Y2
}

// Overlaps reports whether the interiors of r and o intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.X1 < o.X2 && o.X1 < r.X2 && r.Y1 < o.Y2 && o.Y1 < r.Y2
}

// Segment is a straight piece between two points. Routing only uses
// axis-aligned segments; a zero-length segment denotes a single point.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Seg builds a segment from a to b.
func Seg(a, b Point) Segment { return Segment{A: a, B: b} }

// Degenerate reports whether both ends coincide.
func (s Segment) Degenerate() bool { return s.A == s.B }

// Orientation returns Horizontal or Vertical for axis-aligned segments and
// None for degenerate or diagonal ones.
func (s Segment) Orientation() Orientation {
	switch {
	case s.Degenerate():
		return None
	case s.A.Y == s.B.Y:
		return Horizontal
	case s.A.X == s.B.X:
		return Vertical
	}
	return None
}

// AxisAligned reports whether the segment is horizontal, vertical or a point.
func (s Segment) AxisAligned() bool {
	return s.A.X == s.B.X || s.A.Y == s.B.Y
}

// Length returns the Manhattan length of the segment.
func (s Segment) Length() float64 { return s.A.Manhattan(s.B) }

// Midpoint returns the middle of the segment.
func (s Segment) Midpoint() Point {
	return Point{X: (s.A.X + s.B.X) / 2, Y: (s.A.Y + s.B.Y) / 2}
}

// Bounds returns the segment's bounding rectangle, which may be degenerate.
func (s Segment) Bounds() Rect {
	return Rect{
		X1: math.Min(s.A.X, s.B.X), Y1: math.Min(s.A.Y, s.B.Y),
		X2: math.Max(s.A.X, s.B.X), Y2: math.Max(s.A.Y, s.B.Y),
	}
}

// Contains reports whether p lies on the axis-aligned segment.
func (s Segment) Contains(p Point) bool {
	b := s.Bounds()
	return p.X >= b.X1-Eps && p.X <= b.X2+Eps && p.Y >= b.Y1-Eps && p.Y <= b.Y2+Eps &&
		(s.A.X == s.B.X && math.Abs(p.X-s.A.X) <= Eps ||
			s.A.Y == s.B.Y && math.Abs(p.Y-s.A.Y) <= Eps)
}

// DistanceTo returns the Manhattan distance from p to the closest point of
// the axis-aligned segment.
func (s Segment) DistanceTo(p Point) float64 {
	b := s.Bounds()
	q := Point{X: clamp(p.X, b.X1, b.X2), Y: clamp(p.Y, b.Y1, b.Y2)}
	return p.Manhattan(q)
}

// CrossesInterior reports whether the axis-aligned segment passes through
// the open interior of r.
func (s Segment) CrossesInterior(r Rect) bool {
	b := s.Bounds()
	switch s.Orientation() {
	case Horizontal:
		return b.Y1 > r.Y1 && b.Y1 < r.Y2 && b.X1 < r.X2 && b.X2 > r.X1
	case Vertical:
		return b.X1 > r.X1 && b.X1 < r.X2 && b.Y1 < r.Y2 && b.Y2 > r.Y1
	}
	return r.ContainsInterior(s.A)
}

// Touches reports whether the segment meets the closed rectangle r.
func (s Segment) Touches(r Rect) bool {
	b := s.Bounds()
	return b.X1 <= r.X2 && b.X2 >= r.X1 && b.Y1 <= r.Y2 && b.Y2 >= r.Y1
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Segments turns an ordered point list into consecutive segments. A single
// point yields one degenerate segment.
func Segments(pts []Point) []Segment {
	if len(pts) == 1 {
		return []Segment{{A: pts[0], B: pts[0]}}
	}
	out := make([]Segment, 0, len(pts))
	for i := 1; i < len(pts); i++ {
		out = append(out, Segment{A: pts[i-1], B: pts[i]})
	}
	return out
}

// Simplify drops repeated points and interior points of collinear runs.
func Simplify(pts []Point) []Point {
	out := make([]Point, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		if n := len(out); n >= 2 {
			a, b := out[n-2], out[n-1]
			if (a.X == b.X && b.X == p.X) || (a.Y == b.Y && b.Y == p.Y) {
				out[n-1] = p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// Orthogonal reports whether consecutive points share exactly one coordinate.
func Orthogonal(pts []Point) bool {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		if (a.X == b.X) == (a.Y == b.Y) {
			return false
		}
	}
	return true
}
