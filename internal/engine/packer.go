package engine

import (
	"github.com/ctessum/geom"

	"github.com/piwi3910/pvlayout/internal/geometry"
	"github.com/piwi3910/pvlayout/internal/model"
)

// StreetConfig controls street insertion inside a zone.
type StreetConfig struct {
	// TablesBetweenStreets is the number of table columns between two
	// streets; model.Unbounded disables streets.
	TablesBetweenStreets int
	Width                float64
}

// PackZone scans one fenced zone column by column, left to right, and each
// column bottom to top, keeping every table slot that fits inside the zone
// and stays clear of the restricted region. Rejected slots are skipped, not
// retried at another offset. After every TablesBetweenStreets columns a
// street is inserted instead of the usual pitch gap.
func PackZone(zone *geometry.FencedZone, restricted *geometry.RestrictedUnion, size model.TableSize, pitch float64, streets StreetConfig, zoneIndex int) model.ZoneLayout {
	layout := model.ZoneLayout{ZoneIndex: zoneIndex}
	if zone == nil || zone.Empty() || size.Width <= 0 || size.Height <= 0 {
		return layout
	}
	// The column scan must move right on every iteration.
	if size.Width+pitch <= 0 || (streets.TablesBetweenStreets > 0 && size.Width+streets.Width <= 0) {
		return layout
	}

	b := zone.Bounds()
	w, h := size.Width, size.Height
	columnCount := 0

	for x := b.MinX; x+w <= b.MaxX; {
		for y := b.MinY; y+h <= b.MaxY; y += h {
			r := geometry.NewRect(x, y, w, h)
			if zone.ContainsRect(r) && !restricted.IntersectsRect(r) {
				cx := x + w/2
				layout.Tables = append(layout.Tables, model.PlacedTable{
					ZoneIndex: zoneIndex,
					Centerline: model.Segment{
						Start: geom.Point{X: cx, Y: y},
						End:   geom.Point{X: cx, Y: y + h},
					},
				})
			}
		}
		layout.Columns++
		columnCount++

		if columnCount == streets.TablesBetweenStreets {
			left := x + w
			right := left + streets.Width
			layout.Streets = append(layout.Streets, model.Street{
				ZoneIndex: zoneIndex,
				Left:      verticalSegment(left, b.MinY, b.MaxY),
				Right:     verticalSegment(right, b.MinY, b.MaxY),
				Width:     streets.Width,
			})
			x += w + streets.Width
			columnCount = 0
		} else {
			x += w + pitch
		}
	}
	return layout
}

func verticalSegment(x, y0, y1 float64) model.Segment {
	return model.Segment{
		Start: geom.Point{X: x, Y: y0},
		End:   geom.Point{X: x, Y: y1},
	}
}
