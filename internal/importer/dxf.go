package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// Zone drawings are in projected metres.
const (
	// snapTolerance is the endpoint gap, in metres, closed when LINE and ARC
	// pieces are joined into one zone boundary.
	snapTolerance = 0.01
	// arcTolerance is the largest gap, in metres, left between a curved
	// zone boundary and its polygon approximation.
	arcTolerance = 0.05
	// maxArcSegments caps the number of segments generated for one curve.
	maxArcSegments = 720
)

// boundaryPiece is one straight piece of a zone boundary drawn with LINE or
// ARC entities.
type boundaryPiece struct {
	from, to geom.Point
}

// ImportDXFZones reads enabled zones from one DXF drawing and restricted
// zones from another; restrictedPath may be empty. Every closed LWPOLYLINE,
// every CIRCLE and every loop of LINE and ARC entities becomes one zone, in
// drawing coordinates, which must already be the projected CRS.
func ImportDXFZones(enabledPath, restrictedPath string) ZoneResult {
	result := ZoneResult{}

	enabled, errs, warns := readDXFZones(enabledPath)
	result.Errors = append(result.Errors, errs...)
	result.Warnings = append(result.Warnings, warns...)
	result.Zones.Enabled = enabled

	if restrictedPath != "" {
		restricted, errs, warns := readDXFZones(restrictedPath)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warns...)
		result.Zones.Restricted = restricted
	}
	return result
}

func readDXFZones(path string) (zones []geom.Polygon, errs, warnings []string) {
	drawing, err := dxf.Open(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("Cannot open DXF file %s: %v", path, err)}, nil
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		return nil, []string{fmt.Sprintf("DXF file %s contains no entities", path)}, nil
	}

	var rings []geom.Path
	var pieces []boundaryPiece

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			if ring := lwPolylineRing(e); len(ring) >= 3 {
				rings = append(rings, ring)
			} else {
				warnings = append(warnings, fmt.Sprintf("%s: skipped LWPOLYLINE with %d vertices", path, len(ring)))
			}

		case *entity.Circle:
			c := geom.Point{X: e.Center[0], Y: e.Center[1]}
			full := arcPath(c, e.Radius, 0, 2*math.Pi)
			rings = append(rings, full[:len(full)-1])

		case *entity.Arc:
			pieces = append(pieces, piecesAlong(arcEntityPath(e))...)

		case *entity.Line:
			pieces = append(pieces, boundaryPiece{
				from: geom.Point{X: e.Start[0], Y: e.Start[1]},
				to:   geom.Point{X: e.End[0], Y: e.End[1]},
			})
		}
	}

	joined, open := joinPieces(pieces, snapTolerance)
	rings = append(rings, joined...)
	if open > 0 {
		warnings = append(warnings, fmt.Sprintf("%s: %d open boundary chain(s) of LINE/ARC entities skipped", path, open))
	}

	for _, ring := range rings {
		p := geom.Polygon{ring}
		if p.Area() < snapTolerance*snapTolerance {
			warnings = append(warnings, fmt.Sprintf("%s: skipped zone without area", path))
			continue
		}
		zones = append(zones, p)
	}
	if len(zones) == 0 {
		errs = append(errs, fmt.Sprintf("No closed zone boundary found in DXF file %s", path))
	}
	return zones, errs, warnings
}

// lwPolylineRing returns the vertices of lw with bulged spans expanded into
// arcs. The polyline is treated as closed.
func lwPolylineRing(lw *entity.LwPolyline) geom.Path {
	n := len(lw.Vertices)
	ring := make(geom.Path, 0, n)
	for i, v := range lw.Vertices {
		from := geom.Point{X: v[0], Y: v[1]}
		var bulge float64
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) < 1e-9 {
			ring = append(ring, from)
			continue
		}
		w := lw.Vertices[(i+1)%n]
		span := bulgeSpan(from, geom.Point{X: w[0], Y: w[1]}, bulge)
		ring = append(ring, span[:len(span)-1]...)
	}
	return ring
}

// bulgeSpan expands the span from a to b of an LWPOLYLINE. The bulge is the
// tangent of a quarter of the included angle; positive bulges turn
// counter-clockwise.
func bulgeSpan(a, b geom.Point, bulge float64) geom.Path {
	dx, dy := b.X-a.X, b.Y-a.Y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return geom.Path{a, b}
	}
	sweep := 4 * math.Atan(bulge)
	// The center sits on the chord bisector, left of a→b for a
	// counter-clockwise minor arc.
	off := chord / 2 / math.Tan(sweep/2)
	c := geom.Point{
		X: (a.X+b.X)/2 - dy/chord*off,
		Y: (a.Y+b.Y)/2 + dx/chord*off,
	}
	r := math.Hypot(a.X-c.X, a.Y-c.Y)
	span := arcPath(c, r, math.Atan2(a.Y-c.Y, a.X-c.X), sweep)
	span[0], span[len(span)-1] = a, b
	return span
}

// arcEntityPath samples an ARC entity, whose angles are in degrees and run
// counter-clockwise.
func arcEntityPath(a *entity.Arc) geom.Path {
	start := a.Angle[0] * math.Pi / 180
	sweep := a.Angle[1]*math.Pi/180 - start
	for sweep <= 0 {
		sweep += 2 * math.Pi
	}
	c := geom.Point{X: a.Circle.Center[0], Y: a.Circle.Center[1]}
	return arcPath(c, a.Circle.Radius, start, sweep)
}

// arcPath samples the arc of radius r around c from angle start over sweep
// radians, both ends included, so that no chord strays more than
// arcTolerance from the curve.
func arcPath(c geom.Point, r, start, sweep float64) geom.Path {
	n := arcSegments(r, sweep)
	path := make(geom.Path, n+1)
	for i := range path {
		t := start + sweep*float64(i)/float64(n)
		path[i] = geom.Point{X: c.X + r*math.Cos(t), Y: c.Y + r*math.Sin(t)}
	}
	return path
}

func arcSegments(r, sweep float64) int {
	step := math.Pi / 2
	if r > arcTolerance {
		step = math.Min(step, 2*math.Acos(1-arcTolerance/r))
	}
	n := int(math.Ceil(math.Abs(sweep) / step))
	return max(2, min(n, maxArcSegments))
}

func piecesAlong(path geom.Path) []boundaryPiece {
	pieces := make([]boundaryPiece, 0, len(path))
	for i := 1; i < len(path); i++ {
		pieces = append(pieces, boundaryPiece{from: path[i-1], to: path[i]})
	}
	return pieces
}

// endpointGrid buckets piece endpoints in square cells of the snap
// tolerance, so a lookup only visits the 3x3 cells around a point.
type endpointGrid struct {
	cell  float64
	cells map[[2]int64][]int
}

func newEndpointGrid(pieces []boundaryPiece, cell float64) *endpointGrid {
	g := &endpointGrid{cell: cell, cells: make(map[[2]int64][]int)}
	for i, p := range pieces {
		g.add(p.from, i)
		if g.key(p.to) != g.key(p.from) {
			g.add(p.to, i)
		}
	}
	return g
}

func (g *endpointGrid) key(p geom.Point) [2]int64 {
	return [2]int64{int64(math.Floor(p.X / g.cell)), int64(math.Floor(p.Y / g.cell))}
}

func (g *endpointGrid) add(p geom.Point, i int) {
	k := g.key(p)
	g.cells[k] = append(g.cells[k], i)
}

// candidates returns the pieces with an endpoint in the cells around p, in
// ascending order.
func (g *endpointGrid) candidates(p geom.Point) []int {
	k := g.key(p)
	var out []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			out = append(out, g.cells[[2]int64{k[0] + dx, k[1] + dy}]...)
		}
	}
	sort.Ints(out)
	return out
}

// joinPieces links boundary pieces end to end into closed rings, largest
// first. Chains whose ends never meet are dropped and counted in open.
func joinPieces(pieces []boundaryPiece, tol float64) (rings []geom.Path, open int) {
	if len(pieces) == 0 {
		return nil, 0
	}
	grid := newEndpointGrid(pieces, tol)
	used := make([]bool, len(pieces))

	next := func(tail geom.Point) (geom.Point, bool) {
		for _, i := range grid.candidates(tail) {
			if used[i] {
				continue
			}
			p := pieces[i]
			switch {
			case near(tail, p.from, tol):
				used[i] = true
				return p.to, true
			case near(tail, p.to, tol):
				used[i] = true
				return p.from, true
			}
		}
		return geom.Point{}, false
	}

	for start := range pieces {
		if used[start] {
			continue
		}
		used[start] = true
		chain := geom.Path{pieces[start].from, pieces[start].to}
		for {
			pt, ok := next(chain[len(chain)-1])
			if !ok {
				break
			}
			chain = append(chain, pt)
		}
		if len(chain) < 4 || !near(chain[0], chain[len(chain)-1], tol) {
			open++
			continue
		}
		rings = append(rings, chain[:len(chain)-1])
	}

	sort.SliceStable(rings, func(i, j int) bool {
		return geom.Polygon{rings[i]}.Area() > geom.Polygon{rings[j]}.Area()
	})
	return rings, open
}

func near(a, b geom.Point, tol float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tol
}
