package geometry

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// indexedEdge is one polygon edge stored in an edgeIndex.
type indexedEdge struct {
	geom.LineString
	i int
}

// edgeIndex is an R-tree over the edges of a shape, so that distance
// queries only visit the edges near the query point.
type edgeIndex struct {
	edges []segment
	tree  *rtree.Rtree
}

func newEdgeIndex(edges []segment) *edgeIndex {
	x := &edgeIndex{edges: edges, tree: rtree.NewTree(25, 50)}
	for i, e := range edges {
		x.tree.Insert(&indexedEdge{LineString: geom.LineString{e.a, e.b}, i: i})
	}
	return x
}

// near returns the indices of the edges whose bounding box comes within d
// of r. Every edge closer than d to r is among them.
func (x *edgeIndex) near(r Rect, d float64) []int {
	hits := x.tree.SearchIntersect(r.Expand(d).Bounds())
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		if e, ok := h.(*indexedEdge); ok {
			out = append(out, e.i)
		}
	}
	return out
}

// edgeBox returns the bounding box of edge i.
func (x *edgeIndex) edgeBox(i int) Rect {
	e := x.edges[i]
	return Rect{
		MinX: math.Min(e.a.X, e.b.X), MinY: math.Min(e.a.Y, e.b.Y),
		MaxX: math.Max(e.a.X, e.b.X), MaxY: math.Max(e.a.Y, e.b.Y),
	}
}

// clearOf reports whether no edge lies closer than d to pt.
func (x *edgeIndex) clearOf(pt geom.Point, d float64) bool {
	for _, i := range x.near(Rect{MinX: pt.X, MinY: pt.Y, MaxX: pt.X, MaxY: pt.Y}, d) {
		e := x.edges[i]
		if pointSegmentDistance(pt, e.a, e.b) < d-fenceTolerance {
			return false
		}
	}
	return true
}

// rectDistance returns the distance between the outline of r and the
// nearest edge, or +Inf when no edge comes within limit of r.
func (x *edgeIndex) rectDistance(r Rect, limit float64) float64 {
	idx := x.near(r, limit)
	edges := make([]segment, len(idx))
	for k, i := range idx {
		edges[k] = x.edges[i]
	}
	return rectBoundaryDistance(r, edges)
}
