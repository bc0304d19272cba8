package importer

import (
	"math"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

func ringArea(ring geom.Path) float64 {
	return geom.Polygon{ring}.Area()
}

func TestJoinPieces_ClosesLoop(t *testing.T) {
	pieces := []boundaryPiece{
		{from: geom.Point{X: 0, Y: 0}, to: geom.Point{X: 10, Y: 0}},
		{from: geom.Point{X: 10, Y: 8}, to: geom.Point{X: 10, Y: 0}}, // reversed
		{from: geom.Point{X: 10, Y: 8}, to: geom.Point{X: 0, Y: 8}},
		{from: geom.Point{X: 0, Y: 8}, to: geom.Point{X: 0, Y: 0.005}},
	}

	rings, open := joinPieces(pieces, snapTolerance)

	require.Len(t, rings, 1)
	assert.Zero(t, open)
	assert.Len(t, rings[0], 4)
	assert.InDelta(t, 80, ringArea(rings[0]), 0.1)
}

func TestJoinPieces_LargestFirstAndOpenChains(t *testing.T) {
	square := func(x, s float64) []boundaryPiece {
		return piecesAlong(geom.Path{{X: x, Y: 0}, {X: x + s, Y: 0}, {X: x + s, Y: s}, {X: x, Y: s}, {X: x, Y: 0}})
	}
	pieces := append(square(0, 1), square(10, 5)...)
	pieces = append(pieces, boundaryPiece{from: geom.Point{X: 30, Y: 0}, to: geom.Point{X: 30, Y: 50}})

	rings, open := joinPieces(pieces, snapTolerance)

	require.Len(t, rings, 2)
	assert.Equal(t, 1, open)
	assert.InDelta(t, 25, ringArea(rings[0]), 1e-9)
	assert.InDelta(t, 1, ringArea(rings[1]), 1e-9)
}

func TestLwPolylineRing(t *testing.T) {
	lw := &entity.LwPolyline{
		Vertices: [][]float64{{0, 0}, {20, 0}, {20, 10}, {0, 10}},
		Bulges:   []float64{0, 0, 0, 0},
	}

	ring := lwPolylineRing(lw)

	require.Len(t, ring, 4)
	assert.Equal(t, geom.Point{X: 20, Y: 10}, ring[2])
	assert.InDelta(t, 200, ringArea(ring), 1e-9)
}

func TestBulgeSpan_Semicircle(t *testing.T) {
	a, b := geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 0}
	span := bulgeSpan(a, b, 1)

	require.Greater(t, len(span), 3)
	assert.Equal(t, a, span[0])
	assert.Equal(t, b, span[len(span)-1])
	for _, p := range span {
		assert.InDelta(t, 5, math.Hypot(p.X-5, p.Y), 1e-9)
		// A positive bulge turns left, below the chord going east.
		assert.LessOrEqual(t, p.Y, 1e-9)
	}
}

func TestArcSegments_MeetsTolerance(t *testing.T) {
	for _, r := range []float64{0.01, 1, 5, 100, 5000} {
		n := arcSegments(r, math.Pi)
		assert.GreaterOrEqual(t, n, 2)
		assert.LessOrEqual(t, n, maxArcSegments)
		if n < maxArcSegments {
			sagitta := r * (1 - math.Cos(math.Pi/float64(n)/2))
			assert.LessOrEqual(t, sagitta, arcTolerance+1e-12, "radius %g", r)
		}
	}
}

func TestImportDXFZones_LinesArcsAndCircles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.dxf")
	d := dxf.NewDrawing()
	_, err := d.Line(0, 0, 0, 10, 0, 0)
	require.NoError(t, err)
	_, err = d.Line(10, 0, 0, 10, 5, 0)
	require.NoError(t, err)
	_, err = d.Arc(5, 5, 0, 5, 0, 180)
	require.NoError(t, err)
	_, err = d.Line(0, 5, 0, 0, 0, 0)
	require.NoError(t, err)
	_, err = d.Line(50, 0, 0, 60, 0, 0)
	require.NoError(t, err)
	_, err = d.Circle(30, 30, 0, 2)
	require.NoError(t, err)
	require.NoError(t, d.SaveAs(path))

	res := ImportDXFZones(path, "")
	require.NoError(t, res.Err())
	require.Len(t, res.Zones.Enabled, 2)
	assert.Len(t, res.Warnings, 1, "the stray line is reported")

	areas := []float64{res.Zones.Enabled[0].Area(), res.Zones.Enabled[1].Area()}
	sort.Float64s(areas)
	assert.InDelta(t, 4*math.Pi, areas[0], 0.5)
	assert.InDelta(t, 50+25*math.Pi/2, areas[1], 0.5)
}

func TestImportDXFZones_MissingFile(t *testing.T) {
	result := ImportDXFZones("/nonexistent/enabled.dxf", "")
	assert.NotEmpty(t, result.Errors)
	assert.Error(t, result.Err())
}
