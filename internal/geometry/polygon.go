// Package geometry provides the planar predicates used by the table packer:
// polygon validity, rectangle containment and intersection, inward fencing
// of enabled zones and the merged restricted region.
//
// Polygons are github.com/ctessum/geom values: the first ring is the outer
// boundary and any further rings are holes. Rings may or may not repeat their
// first point at the end; both forms are accepted.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// ErrInvalidGeometry is wrapped by every validity failure.
var ErrInvalidGeometry = errors.New("invalid geometry")

// eps absorbs floating point noise when deciding whether a point lies
// strictly inside a rectangle.
const eps = 1e-9

// Rect is an axis-aligned rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewRect builds a rectangle from its lower-left corner and size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() geom.Point {
	return geom.Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Bounds converts the rectangle to a geom.Bounds.
func (r Rect) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: r.MinX, Y: r.MinY},
		Max: geom.Point{X: r.MaxX, Y: r.MaxY},
	}
}

// Polygon returns the rectangle as a counter-clockwise closed ring.
func (r Rect) Polygon() geom.Polygon {
	return geom.Polygon{{
		{X: r.MinX, Y: r.MinY},
		{X: r.MaxX, Y: r.MinY},
		{X: r.MaxX, Y: r.MaxY},
		{X: r.MinX, Y: r.MaxY},
		{X: r.MinX, Y: r.MinY},
	}}
}

// Expand returns r grown by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{MinX: r.MinX - d, MinY: r.MinY - d, MaxX: r.MaxX + d, MaxY: r.MaxY + d}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

func (r Rect) edges() [4]segment {
	a := geom.Point{X: r.MinX, Y: r.MinY}
	b := geom.Point{X: r.MaxX, Y: r.MinY}
	c := geom.Point{X: r.MaxX, Y: r.MaxY}
	d := geom.Point{X: r.MinX, Y: r.MaxY}
	return [4]segment{{a, b}, {b, c}, {c, d}, {d, a}}
}

// segment is one polygon edge.
type segment struct {
	a, b geom.Point
}

// shape caches the normalized rings and edges of a polygon.
type shape struct {
	rings  [][]geom.Point
	edges  []segment
	bounds Rect
}

func newShape(p geom.Polygon) shape {
	s := shape{rings: normalizeRings(p)}
	s.bounds = Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, ring := range s.rings {
		for i, pt := range ring {
			s.edges = append(s.edges, segment{pt, ring[(i+1)%len(ring)]})
			s.bounds.MinX = math.Min(s.bounds.MinX, pt.X)
			s.bounds.MinY = math.Min(s.bounds.MinY, pt.Y)
			s.bounds.MaxX = math.Max(s.bounds.MaxX, pt.X)
			s.bounds.MaxY = math.Max(s.bounds.MaxY, pt.Y)
		}
	}
	return s
}

// normalizeRings drops consecutive duplicate points and the closing point.
func normalizeRings(p geom.Polygon) [][]geom.Point {
	rings := make([][]geom.Point, 0, len(p))
	for _, path := range p {
		ring := make([]geom.Point, 0, len(path))
		for _, pt := range path {
			if n := len(ring); n > 0 && ring[n-1] == pt {
				continue
			}
			ring = append(ring, pt)
		}
		if n := len(ring); n > 1 && ring[0] == ring[n-1] {
			ring = ring[:n-1]
		}
		if len(ring) > 0 {
			rings = append(rings, ring)
		}
	}
	return rings
}

// Bounds returns the bounding box of p.
func Bounds(p geom.Polygon) Rect {
	return newShape(p).bounds
}

// Validate reports whether p is a simple polygon: every ring has at least
// three distinct vertices and non-zero area, and no two edges cross or
// touch except consecutive edges at their shared vertex.
func Validate(p geom.Polygon) error {
	rings := normalizeRings(p)
	if len(rings) == 0 {
		return fmt.Errorf("%w: polygon has no vertices", ErrInvalidGeometry)
	}
	type edgeRef struct {
		ring, pos, size int
		s               segment
	}
	var all []edgeRef
	for ri, ring := range rings {
		if len(ring) < 3 {
			return fmt.Errorf("%w: ring %d has %d distinct vertices", ErrInvalidGeometry, ri, len(ring))
		}
		if ringArea(ring) == 0 {
			return fmt.Errorf("%w: ring %d has zero area", ErrInvalidGeometry, ri)
		}
		for i := range ring {
			all = append(all, edgeRef{ring: ri, pos: i, size: len(ring), s: segment{ring[i], ring[(i+1)%len(ring)]}})
		}
	}

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			e, f := all[i], all[j]
			if e.ring == f.ring && adjacent(e.pos, f.pos, e.size) {
				if overlapsBack(e.s, f.s) {
					return fmt.Errorf("%w: ring %d folds back on itself at vertex %d", ErrInvalidGeometry, e.ring, f.pos)
				}
				continue
			}
			if segmentsIntersect(e.s.a, e.s.b, f.s.a, f.s.b) {
				return fmt.Errorf("%w: self-intersection between ring %d edge %d and ring %d edge %d",
					ErrInvalidGeometry, e.ring, e.pos, f.ring, f.pos)
			}
		}
	}
	return nil
}

func adjacent(i, j, n int) bool {
	return j == (i+1)%n || i == (j+1)%n
}

// overlapsBack reports whether two consecutive edges are collinear and point
// in opposite directions, which makes the ring retrace itself.
func overlapsBack(e, f segment) bool {
	// Order the pair so that e ends where f starts.
	if e.a == f.b {
		e, f = f, e
	}
	u := geom.Point{X: e.b.X - e.a.X, Y: e.b.Y - e.a.Y}
	v := geom.Point{X: f.b.X - f.a.X, Y: f.b.Y - f.a.Y}
	cross := u.X*v.Y - u.Y*v.X
	dot := u.X*v.X + u.Y*v.Y
	return cross == 0 && dot < 0
}

func ringArea(ring []geom.Point) float64 {
	var a float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		a += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(a) / 2
}

// ContainsRect reports whether r lies entirely inside p. Touching the
// boundary from the inside is allowed.
func ContainsRect(p geom.Polygon, r Rect) bool {
	return newShape(p).containsRect(r)
}

// IntersectsRect reports whether r and p share at least one point,
// boundary contact included.
func IntersectsRect(p geom.Polygon, r Rect) bool {
	return newShape(p).intersectsRect(r)
}

func (s shape) containsRect(r Rect) bool {
	if r.Empty() || len(s.rings) == 0 {
		return false
	}
	if r.MinX < s.bounds.MinX-eps || r.MaxX > s.bounds.MaxX+eps ||
		r.MinY < s.bounds.MinY-eps || r.MaxY > s.bounds.MaxY+eps {
		return false
	}
	for _, e := range s.edges {
		if crossesInterior(e, r) {
			return false
		}
	}
	// No edge enters the open rectangle, so it is wholly in or wholly out.
	return pointInRings(r.Center(), s.rings)
}

func (s shape) intersectsRect(r Rect) bool {
	if len(s.rings) == 0 {
		return false
	}
	if r.MaxX < s.bounds.MinX || r.MinX > s.bounds.MaxX ||
		r.MaxY < s.bounds.MinY || r.MinY > s.bounds.MaxY {
		return false
	}
	for _, e := range s.edges {
		if _, _, ok := clipSegment(e.a, e.b, r); ok {
			return true
		}
	}
	return pointInRings(r.Center(), s.rings)
}

// crossesInterior reports whether edge e passes through the open interior
// of r. The clipped chord of a convex region is either interior or lies on a
// single side, so testing its midpoint is enough.
func crossesInterior(e segment, r Rect) bool {
	t0, t1, ok := clipSegment(e.a, e.b, r)
	if !ok {
		return false
	}
	t := (t0 + t1) / 2
	mx := e.a.X + t*(e.b.X-e.a.X)
	my := e.a.Y + t*(e.b.Y-e.a.Y)
	return mx > r.MinX+eps && mx < r.MaxX-eps && my > r.MinY+eps && my < r.MaxY-eps
}

// clipSegment clips a→b to the closed rectangle (Liang–Barsky) and returns
// the parameter range of the surviving piece.
func clipSegment(a, b geom.Point, r Rect) (t0, t1 float64, ok bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{a.X - r.MinX, r.MaxX - a.X, a.Y - r.MinY, r.MaxY - a.Y}
	t0, t1 = 0, 1
	for i := range p {
		if p[i] == 0 {
			if q[i] < 0 {
				return 0, 0, false
			}
			continue
		}
		t := q[i] / p[i]
		if p[i] < 0 {
			if t > t1 {
				return 0, 0, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return 0, 0, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return t0, t1, true
}

// pointInRings applies the even-odd rule over all rings, so holes are
// excluded automatically. Points on the boundary give an arbitrary answer.
func pointInRings(pt geom.Point, rings [][]geom.Point) bool {
	inside := false
	for _, ring := range rings {
		n := len(ring)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			a, b := ring[i], ring[j]
			if (a.Y > pt.Y) != (b.Y > pt.Y) {
				x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
				if pt.X < x {
					inside = !inside
				}
			}
		}
	}
	return inside
}

func orient(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p geom.Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// segmentsIntersect reports whether the closed segments p1p2 and q1q2 share
// a point.
func segmentsIntersect(p1, p2, q1, q2 geom.Point) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

func pointSegmentDistance(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

func segmentDistance(e, f segment) float64 {
	if segmentsIntersect(e.a, e.b, f.a, f.b) {
		return 0
	}
	return math.Min(
		math.Min(pointSegmentDistance(e.a, f.a, f.b), pointSegmentDistance(e.b, f.a, f.b)),
		math.Min(pointSegmentDistance(f.a, e.a, e.b), pointSegmentDistance(f.b, e.a, e.b)),
	)
}

// boundaryDistance returns the distance from pt to the nearest edge.
func boundaryDistance(pt geom.Point, edges []segment) float64 {
	d := math.Inf(1)
	for _, e := range edges {
		d = math.Min(d, pointSegmentDistance(pt, e.a, e.b))
	}
	return d
}

// rectBoundaryDistance returns the distance between the outline of r and
// the nearest edge.
func rectBoundaryDistance(r Rect, edges []segment) float64 {
	d := math.Inf(1)
	for _, re := range r.edges() {
		for _, e := range edges {
			d = math.Min(d, segmentDistance(re, e))
			if d == 0 {
				return 0
			}
		}
	}
	return d
}
