package engine

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/pvlayout/internal/geometry"
	"github.com/piwi3910/pvlayout/internal/model"
)

func rectZone(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}}
}

func fenced(t *testing.T, p geom.Polygon, clearance float64) *geometry.FencedZone {
	t.Helper()
	z, err := geometry.Fence(p, clearance)
	require.NoError(t, err)
	return z
}

func columnOrigins(layout model.ZoneLayout, size model.TableSize) []float64 {
	var xs []float64
	for _, tbl := range layout.Tables {
		minX, _, _, _ := tbl.Footprint(size)
		if len(xs) == 0 || xs[len(xs)-1] != minX {
			xs = append(xs, minX)
		}
	}
	return xs
}

var scenarioSize = model.TableSize{Width: 2, Height: 6}

func TestPackZone_ColumnsAndRows(t *testing.T) {
	zone := fenced(t, rectZone(0, 0, 10, 12), 0)

	layout := PackZone(zone, geometry.NewRestrictedUnion(nil), scenarioSize, 1, StreetConfig{}, 0)

	require.Len(t, layout.Tables, 6)
	assert.Empty(t, layout.Streets)
	assert.Equal(t, 3, layout.Columns)
	assert.Equal(t, []float64{0, 3, 6}, columnOrigins(layout, scenarioSize))

	// Bottom to top within a column, centerline at the horizontal midpoint.
	assert.Equal(t, model.Segment{Start: geom.Point{X: 1, Y: 0}, End: geom.Point{X: 1, Y: 6}}, layout.Tables[0].Centerline)
	assert.Equal(t, model.Segment{Start: geom.Point{X: 1, Y: 6}, End: geom.Point{X: 1, Y: 12}}, layout.Tables[1].Centerline)
	assert.Equal(t, model.Segment{Start: geom.Point{X: 7, Y: 6}, End: geom.Point{X: 7, Y: 12}}, layout.Tables[5].Centerline)
}

func TestPackZone_StreetAfterColumnInterval(t *testing.T) {
	zone := fenced(t, rectZone(0, 0, 10, 12), 0)
	streets := StreetConfig{TablesBetweenStreets: 2, Width: 4}

	layout := PackZone(zone, nil, scenarioSize, 1, streets, 0)

	require.Len(t, layout.Streets, 1)
	st := layout.Streets[0]
	assert.Equal(t, 5.0, st.Left.Start.X)
	assert.Equal(t, 9.0, st.Right.Start.X)
	assert.Equal(t, 4.0, st.Width)
	assert.Equal(t, 0.0, st.Left.Start.Y)
	assert.Equal(t, 12.0, st.Left.End.Y)

	// The column after the street would start at 3+2+4 = 9 and does not fit.
	assert.Equal(t, []float64{0, 3}, columnOrigins(layout, scenarioSize))
	assert.Len(t, layout.Tables, 4)
}

func TestPackZone_StreetAdvanceUsesStreetWidth(t *testing.T) {
	zone := fenced(t, rectZone(0, 0, 20, 12), 0)
	streets := StreetConfig{TablesBetweenStreets: 2, Width: 4}

	layout := PackZone(zone, nil, scenarioSize, 1, streets, 3)

	xs := columnOrigins(layout, scenarioSize)
	require.Equal(t, []float64{0, 3, 9, 12, 18}, xs)
	assert.Equal(t, xs[1]+scenarioSize.Width+streets.Width, xs[2], "advance after a street is width + street, not width + pitch")
	require.Len(t, layout.Streets, 2)
	assert.Equal(t, 14.0, layout.Streets[1].Left.Start.X)
	assert.Equal(t, 18.0, layout.Streets[1].Right.Start.X)
	for _, tbl := range layout.Tables {
		assert.Equal(t, 3, tbl.ZoneIndex)
	}
	assert.Equal(t, 3, layout.Streets[0].ZoneIndex)
}

func TestPackZone_RestrictedSlotIsSkipped(t *testing.T) {
	zone := fenced(t, rectZone(0, 0, 10, 12), 0)
	restricted := geometry.NewRestrictedUnion([]geom.Polygon{rectZone(3.5, 0.5, 4.5, 5.5)})

	layout := PackZone(zone, restricted, scenarioSize, 1, StreetConfig{}, 0)

	require.Len(t, layout.Tables, 5)
	// The rejected slot is not retried higher up: the next table in that
	// column still starts at y=6.
	for _, tbl := range layout.Tables {
		minX, minY, maxX, maxY := tbl.Footprint(scenarioSize)
		r := geometry.Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
		assert.False(t, restricted.IntersectsRect(r))
		assert.True(t, zone.ContainsRect(r))
		assert.Contains(t, []float64{0, 6}, minY)
	}
}

func TestPackZone_FootprintsStayInsideIrregularZone(t *testing.T) {
	poly := geom.Polygon{{
		{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 40, Y: 15}, {X: 20, Y: 30}, {X: 0, Y: 20},
	}}
	zone := fenced(t, poly, 1.5)
	restricted := geometry.NewRestrictedUnion([]geom.Polygon{rectZone(10, 5, 14, 9)})

	layout := PackZone(zone, restricted, model.TableSize{Width: 2.3, Height: 4.5}, 2.7, StreetConfig{TablesBetweenStreets: 3, Width: 5}, 0)

	require.NotEmpty(t, layout.Tables)
	for _, tbl := range layout.Tables {
		minX, minY, maxX, maxY := tbl.Footprint(model.TableSize{Width: 2.3, Height: 4.5})
		r := geometry.Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
		assert.True(t, geometry.ContainsRect(poly, r))
		assert.True(t, zone.ContainsRect(r))
		assert.False(t, restricted.IntersectsRect(r))
	}
	for _, st := range layout.Streets {
		assert.Less(t, st.Left.Start.X, st.Right.Start.X)
		assert.InDelta(t, 5.0, st.Right.Start.X-st.Left.Start.X, 1e-9)
	}
}

func TestPackZone_Degenerate(t *testing.T) {
	zone := fenced(t, rectZone(0, 0, 10, 12), 0)

	assert.Empty(t, PackZone(nil, nil, scenarioSize, 1, StreetConfig{}, 0).Tables)
	assert.Empty(t, PackZone(zone, nil, model.TableSize{}, 1, StreetConfig{}, 0).Tables)
	assert.Empty(t, PackZone(zone, nil, scenarioSize, -2, StreetConfig{}, 0).Tables, "scan must advance")
	assert.Empty(t, PackZone(zone, nil, model.TableSize{Width: 11, Height: 6}, 1, StreetConfig{}, 0).Tables)

	empty := fenced(t, rectZone(0, 0, 4, 4), 3)
	layout := PackZone(empty, nil, scenarioSize, 1, StreetConfig{}, 0)
	assert.Empty(t, layout.Tables)
	assert.Zero(t, layout.Columns)
}
