package geometry

import (
	"errors"
	"math"

	"github.com/ctessum/geom"
)

// ErrNegativeClearance is returned by Fence for a clearance below zero.
var ErrNegativeClearance = errors.New("fenced distance must not be negative")

// fenceTolerance is the slack, in CRS units, accepted when comparing a
// distance against the clearance.
const fenceTolerance = 1e-7

// FencedZone is an enabled zone shrunk inward by a clearance: the set of
// points of the source polygon whose distance to its boundary is at least
// the clearance. Convex corners stay sharp and reflex corners become arcs,
// as with a standard inward buffer.
type FencedZone struct {
	source    geom.Polygon
	shape     shape
	edges     *edgeIndex
	clearance float64
	bounds    Rect
	empty     bool
}

// Fence validates p and erodes it by clearance. A zero clearance returns the
// zone unchanged. An erosion that leaves no area is reported through Empty,
// not as an error.
func Fence(p geom.Polygon, clearance float64) (*FencedZone, error) {
	if clearance < 0 {
		return nil, ErrNegativeClearance
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	z := &FencedZone{
		source:    p,
		shape:     newShape(p),
		clearance: clearance,
	}
	if clearance == 0 {
		z.bounds = z.shape.bounds
		return z, nil
	}
	z.edges = newEdgeIndex(z.shape.edges)
	z.bounds, z.empty = erodedBounds(z.shape, z.edges, clearance)
	return z, nil
}

// Source returns the polygon before fencing.
func (z *FencedZone) Source() geom.Polygon { return z.source }

// Clearance returns the inward offset that was applied.
func (z *FencedZone) Clearance() float64 { return z.clearance }

// Empty reports whether nothing of the zone survived the fencing.
func (z *FencedZone) Empty() bool { return z.empty }

// Bounds returns the bounding box of the fenced zone.
func (z *FencedZone) Bounds() Rect { return z.bounds }

// SourceArea returns the area of the zone before fencing.
func (z *FencedZone) SourceArea() float64 {
	var a float64
	for i, ring := range z.shape.rings {
		if i == 0 {
			a += ringArea(ring)
		} else {
			a -= ringArea(ring)
		}
	}
	return a
}

// ContainsRect reports whether r lies inside the fenced zone.
func (z *FencedZone) ContainsRect(r Rect) bool {
	if z.empty {
		return false
	}
	if z.clearance > 0 {
		b := z.bounds
		if r.MinX < b.MinX-fenceTolerance || r.MaxX > b.MaxX+fenceTolerance ||
			r.MinY < b.MinY-fenceTolerance || r.MaxY > b.MaxY+fenceTolerance {
			return false
		}
	}
	if !z.shape.containsRect(r) {
		return false
	}
	if z.clearance == 0 {
		return true
	}
	return z.edges.rectDistance(r, z.clearance) >= z.clearance-fenceTolerance
}

// erodedBounds finds the bounding box of the erosion of s by d. The eroded
// boundary is made of pieces of edge lines shifted by d and of arcs of
// radius d around vertices, so its extreme points are among the pairwise
// intersections of those curves and the axis extremes of the arcs. Two
// curves can only meet on the eroded boundary when their edges or vertices
// lie within 2d of each other, so pairs are drawn from the edge index.
// Every candidate is kept only if it really belongs to the eroded set.
func erodedBounds(s shape, idx *edgeIndex, d float64) (Rect, bool) {
	type line struct {
		p, dir geom.Point
	}
	// The edge lines shifted by d towards the interior, one per edge.
	lines := make([]line, 0, len(s.edges))
	for ri, ring := range s.rings {
		others := make([][]geom.Point, 0, len(s.rings)-1)
		others = append(others, s.rings[:ri]...)
		others = append(others, s.rings[ri+1:]...)
		// The interior is left of a counter-clockwise outer ring and right
		// of a counter-clockwise hole.
		side := 1.0
		if (signedRingArea(ring) < 0) != pointInRings(ring[0], others) {
			side = -1
		}
		for i, a := range ring {
			b := ring[(i+1)%len(ring)]
			dx, dy := b.X-a.X, b.Y-a.Y
			l := math.Hypot(dx, dy)
			if l == 0 {
				l = 1
			}
			nx, ny := -dy/l*d*side, dx/l*d*side
			lines = append(lines, line{geom.Point{X: a.X + nx, Y: a.Y + ny}, geom.Point{X: dx, Y: dy}})
		}
	}

	// A point of the erosion is at least d from every edge, so it lies in
	// the source bounds shrunk by d.
	inner := s.bounds.Expand(fenceTolerance - d)
	if inner.Width() < 0 || inner.Height() < 0 {
		return Rect{}, true
	}

	b := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	found := false
	consider := func(pt geom.Point) {
		if found && pt.X >= b.MinX && pt.X <= b.MaxX && pt.Y >= b.MinY && pt.Y <= b.MaxY {
			return
		}
		if pt.X < inner.MinX || pt.X > inner.MaxX || pt.Y < inner.MinY || pt.Y > inner.MaxY {
			return
		}
		if !idx.clearOf(pt, d) || !pointInRings(pt, s.rings) {
			return
		}
		found = true
		b.MinX = math.Min(b.MinX, pt.X)
		b.MinY = math.Min(b.MinY, pt.Y)
		b.MaxX = math.Max(b.MaxX, pt.X)
		b.MaxY = math.Max(b.MaxY, pt.Y)
	}

	reach := 2*d + fenceTolerance
	for i := range s.edges {
		for _, j := range idx.near(idx.edgeBox(i), reach) {
			if j > i {
				if pt, ok := lineIntersection(lines[i].p, lines[i].dir, lines[j].p, lines[j].dir); ok {
					consider(pt)
				}
			}
			// Edge j starts at the vertex it contributes as an arc center.
			for _, pt := range lineCircle(lines[i].p, lines[i].dir, s.edges[j].a, d) {
				consider(pt)
			}
		}
	}
	for i, e := range s.edges {
		c := e.a
		consider(geom.Point{X: c.X - d, Y: c.Y})
		consider(geom.Point{X: c.X + d, Y: c.Y})
		consider(geom.Point{X: c.X, Y: c.Y - d})
		consider(geom.Point{X: c.X, Y: c.Y + d})
		for _, j := range idx.near(Rect{MinX: c.X, MinY: c.Y, MaxX: c.X, MaxY: c.Y}, reach) {
			if j > i {
				for _, pt := range circleCircle(c, s.edges[j].a, d) {
					consider(pt)
				}
			}
		}
	}

	if !found || b.Width() <= fenceTolerance || b.Height() <= fenceTolerance {
		return Rect{}, true
	}
	return b, false
}

func signedRingArea(ring []geom.Point) float64 {
	var a float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

func lineIntersection(p, u, q, v geom.Point) (geom.Point, bool) {
	den := u.X*v.Y - u.Y*v.X
	if math.Abs(den) <= 1e-12*math.Hypot(u.X, u.Y)*math.Hypot(v.X, v.Y) {
		return geom.Point{}, false
	}
	t := ((q.X-p.X)*v.Y - (q.Y-p.Y)*v.X) / den
	return geom.Point{X: p.X + t*u.X, Y: p.Y + t*u.Y}, true
}

func lineCircle(p, u, c geom.Point, r float64) []geom.Point {
	fx, fy := p.X-c.X, p.Y-c.Y
	a := u.X*u.X + u.Y*u.Y
	b := 2 * (fx*u.X + fy*u.Y)
	k := fx*fx + fy*fy - r*r
	disc := b*b - 4*a*k
	if a == 0 || disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)
	return []geom.Point{
		{X: p.X + t1*u.X, Y: p.Y + t1*u.Y},
		{X: p.X + t2*u.X, Y: p.Y + t2*u.Y},
	}
}

func circleCircle(c1, c2 geom.Point, r float64) []geom.Point {
	dx, dy := c2.X-c1.X, c2.Y-c1.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 || dist > 2*r {
		return nil
	}
	h := math.Sqrt(math.Max(0, r*r-dist*dist/4))
	mx, my := c1.X+dx/2, c1.Y+dy/2
	ox, oy := -dy/dist*h, dx/dist*h
	return []geom.Point{
		{X: mx + ox, Y: my + oy},
		{X: mx - ox, Y: my - oy},
	}
}
