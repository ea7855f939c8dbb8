package geometry

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
)

// Point is a 2D integer pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Vec returns the point as a floating-point vector.
func (p Point) Vec() r2.Point {
	return r2.Point{X: float64(p.X), Y: float64(p.Y)}
}

// Segment is a line segment between two integer endpoints.
type Segment struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.P2.Vec().Sub(s.P1.Vec()).Norm()
}

// crossingBand is the open interval of normalized direction dot products that
// counts as a useful crossing angle. Dot products outside it are near-parallel
// or near-anti-parallel.
const crossingBand = 0.6

// SegmentsLikelyIntersect reports whether segments p1-p2 and q1-q2 cross at an
// angle useful for a plate corner.
//
// Both direction vectors are normalized and the result is true when their dot
// product lies strictly inside (-0.6, 0.6). Zero-length segments are not
// meaningful here; callers filter them out by minimum length first.
func SegmentsLikelyIntersect(p1, p2, q1, q2 Point) bool {
	d1 := p2.Vec().Sub(p1.Vec()).Normalize()
	d2 := q2.Vec().Sub(q1.Vec()).Normalize()
	dot := d1.Dot(d2)
	return dot > -crossingBand && dot < crossingBand
}

// SegmentIntersection returns the point where segment p1-p2 meets segment
// p3-p4, and false when the segments do not touch.
//
// The test is exact for the segments themselves, not their supporting lines.
// Endpoints count as part of a segment. For collinear overlapping segments
// the start of the overlap nearest p1 is returned.
func SegmentIntersection(p1, p2, p3, p4 Point) (r2.Point, bool) {
	a := p1.Vec()
	r := p2.Vec().Sub(a)
	c := p3.Vec()
	s := p4.Vec().Sub(c)

	denom := r.Cross(s)
	ca := c.Sub(a)

	if denom == 0 {
		if ca.Cross(r) != 0 {
			// Parallel, never meeting.
			return r2.Point{}, false
		}
		return collinearOverlap(a, r, c, s)
	}

	t := ca.Cross(s) / denom
	u := ca.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return r2.Point{}, false
	}
	return a.Add(r.Mul(t)), true
}

// collinearOverlap handles segments lying on the same line.
func collinearOverlap(a, r, c, s r2.Point) (r2.Point, bool) {
	rr := r.Dot(r)
	if rr == 0 {
		// p1 == p2: a point segment, which touches the other segment only if
		// it lies within it.
		ss := s.Dot(s)
		if ss == 0 {
			if a == c {
				return a, true
			}
			return r2.Point{}, false
		}
		u := a.Sub(c).Dot(s) / ss
		if u < 0 || u > 1 {
			return r2.Point{}, false
		}
		return a, true
	}

	t0 := c.Sub(a).Dot(r) / rr
	t1 := t0 + s.Dot(r)/rr
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	if t1 < 0 || t0 > 1 {
		return r2.Point{}, false
	}
	start := math.Max(t0, 0)
	return a.Add(r.Mul(start)), true
}

// Centroid returns the arithmetic mean of the points.
func Centroid(points []Point) r2.Point {
	var c r2.Point
	if len(points) == 0 {
		return c
	}
	for _, p := range points {
		c = c.Add(p.Vec())
	}
	return c.Mul(1 / float64(len(points)))
}

// OrderClockwise returns a copy of points sorted by atan2(y-cy, x-cx) around
// their centroid. In image coordinates that is a clockwise sweep starting on
// the left. Equal angles keep their input order, so applying OrderClockwise
// to its own output returns the same order.
func OrderClockwise(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	if len(out) < 2 {
		return out
	}

	c := Centroid(out)
	angles := make(map[Point]float64, len(out))
	for _, p := range out {
		angles[p] = math.Atan2(float64(p.Y)-c.Y, float64(p.X)-c.X)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return angles[out[i]] < angles[out[j]]
	})
	return out
}

// InBounds reports whether p lies inside [0,width) x [0,height).
func InBounds(p Point, width, height int) bool {
	return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
}

// Quad is four corner points, conventionally ordered by OrderClockwise.
type Quad [4]Point

// Points returns the corners as a slice.
func (q Quad) Points() []Point {
	return q[:]
}
