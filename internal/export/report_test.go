package export

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/pvlayout/internal/model"
)

func square(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY},
	}}
}

func table(zone int, cx, y0, h float64) model.PlacedTable {
	return model.PlacedTable{
		ZoneIndex: zone,
		Centerline: model.Segment{
			Start: geom.Point{X: cx, Y: y0},
			End:   geom.Point{X: cx, Y: y0 + h},
		},
	}
}

// buildTestReport returns a 20 x 12 m zone holding two 2 x 2 m columns of
// two tables each, followed by a 4 m street.
func buildTestReport() Report {
	tables := []model.PlacedTable{
		table(0, 1, 0, 2), table(0, 1, 2, 2),
		table(0, 4, 0, 2), table(0, 4, 2, 2),
	}
	streets := []model.Street{{
		ZoneIndex: 0,
		Left:      model.Segment{Start: geom.Point{X: 5, Y: 0}, End: geom.Point{X: 5, Y: 12}},
		Right:     model.Segment{Start: geom.Point{X: 9, Y: 0}, End: geom.Point{X: 9, Y: 12}},
		Width:     4,
	}}
	best := model.PitchCandidate{
		Pitch:       1,
		Tables:      tables,
		Streets:     streets,
		Columns:     2,
		TotalTables: 4,
		TotalPanels: 8,
		TotalEnergy: 3200,
	}
	settings := model.DefaultLayoutSettings()
	settings.PanelsPerTable = 2
	settings.PitchMin, settings.PitchMax, settings.PitchStep = 1, 2, 1
	settings.TablesBetweenStreets = 2
	settings.StreetWidth = 4

	return Report{
		ProjectName: "Test Park",
		Module:      model.ModuleSpec{ID: "7", Model: "Test 400", Length: 2, Width: 1, STC: 400},
		Settings:    settings,
		Zones: model.ZoneSet{
			Enabled:    []geom.Polygon{square(0, 0, 20, 12)},
			Restricted: []geom.Polygon{square(14, 8, 16, 10)},
		},
		Result: model.OptimizationResult{
			RunID: "run-1",
			Best:  best,
			Candidates: []model.CandidateSummary{
				best.Summary(),
				{Pitch: 2, Columns: 1, TotalTables: 2, TotalPanels: 4, TotalEnergy: 1600, StreetCount: 0},
			},
			FencedArea: 240,
		},
		Racking:          "Fixed",
		ModulesPerString: 28,
	}
}

func TestReport_TableSizeAndCapacity(t *testing.T) {
	rep := buildTestReport()

	assert.Equal(t, model.TableSize{Width: 2, Height: 2}, rep.TableSize())

	c := rep.Capacity()
	assert.Equal(t, 4, c.TotalTables)
	assert.Equal(t, 8, c.TotalPanels)
	assert.InDelta(t, 0.0032, c.DCCapacityMWp, 1e-12)
	assert.Equal(t, "2P", c.StructureConfig)
}

func TestReport_Footprints(t *testing.T) {
	rects := buildTestReport().footprints()
	if assert.Len(t, rects, 4) {
		assert.Equal(t, 0.0, rects[0].MinX)
		assert.Equal(t, 2.0, rects[0].MaxX)
		assert.Equal(t, 2.0, rects[1].MinY)
		assert.Equal(t, 4.0, rects[1].MaxY)
	}
}

func TestReport_Extent(t *testing.T) {
	ext, ok := buildTestReport().extent()
	assert.True(t, ok)
	assert.Equal(t, 0.0, ext.MinX)
	assert.Equal(t, 0.0, ext.MinY)
	assert.Equal(t, 20.0, ext.MaxX)
	assert.Equal(t, 12.0, ext.MaxY)

	_, ok = Report{}.extent()
	assert.False(t, ok)
}
