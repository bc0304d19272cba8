package geometry

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// restrictedZone is one member of the restricted region, indexed by its
// bounding box.
type restrictedZone struct {
	geom.Polygon
	shape shape
}

// RestrictedUnion is the merged region where no table may be placed. It is
// built once per zone set and only read afterwards, so it can be shared by
// concurrent pitch trials.
type RestrictedUnion struct {
	members []*restrictedZone
	index   *rtree.Rtree
	union   geom.Polygon
}

// NewRestrictedUnion merges the restricted polygons. Empty polygons are
// ignored; an empty input yields a region that intersects nothing.
func NewRestrictedUnion(polys []geom.Polygon) *RestrictedUnion {
	u := &RestrictedUnion{index: rtree.NewTree(25, 50)}
	for _, p := range polys {
		s := newShape(p)
		if len(s.rings) == 0 {
			continue
		}
		z := &restrictedZone{Polygon: p, shape: s}
		u.members = append(u.members, z)
		u.index.Insert(z)
		if u.union == nil {
			u.union = p
		} else if merged, ok := u.union.Union(p).(geom.Polygon); ok {
			u.union = merged
		}
	}
	return u
}

// Len returns the number of restricted polygons merged into the region.
func (u *RestrictedUnion) Len() int {
	if u == nil {
		return 0
	}
	return len(u.members)
}

// Polygon returns the merged region.
func (u *RestrictedUnion) Polygon() geom.Polygon {
	if u == nil {
		return nil
	}
	return u.union
}

// Area returns the area of the merged region.
func (u *RestrictedUnion) Area() float64 {
	if u == nil || u.union == nil {
		return 0
	}
	return u.union.Area()
}

// IntersectsRect reports whether r touches or overlaps the region. A point
// belongs to the union exactly when it belongs to one of its members, so
// the members found through the index are tested one by one.
func (u *RestrictedUnion) IntersectsRect(r Rect) bool {
	if u == nil || len(u.members) == 0 {
		return false
	}
	for _, hit := range u.index.SearchIntersect(r.Expand(eps).Bounds()) {
		z, ok := hit.(*restrictedZone)
		if !ok {
			continue
		}
		if z.shape.intersectsRect(r) {
			return true
		}
	}
	return false
}
