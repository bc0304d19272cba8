// Package export writes the outcome of a layout run to files: an Excel
// report, a KMZ for GIS tools, a DXF drawing, a PDF plot with summary, a
// QR label sheet for field staking and an HTML chart of the pitch sweep.
package export

import (
	"errors"

	"github.com/ctessum/geom"

	"github.com/piwi3910/pvlayout/internal/geometry"
	"github.com/piwi3910/pvlayout/internal/model"
)

// ErrNoTables is returned by exporters that have nothing to draw.
var ErrNoTables = errors.New("layout has no tables")

// Report bundles everything an exporter needs about one run.
type Report struct {
	ProjectName      string
	Module           model.ModuleSpec
	Settings         model.LayoutSettings
	Zones            model.ZoneSet
	Result           model.OptimizationResult
	Racking          string // "Tracker" or "Fixed"
	ModulesPerString int
	SparePercent     float64
	PalletSize       int
}

// TableSize returns the footprint of one table of the run.
func (r Report) TableSize() model.TableSize {
	return r.Module.TableSize(r.Settings.PanelsPerTable)
}

// Capacity returns the headline figures of the winning layout.
func (r Report) Capacity() model.CapacityReport {
	return model.CalculateCapacity(r.Result.Best, r.Module, r.Settings.PanelsPerTable,
		r.Result.FencedArea, r.Racking, r.ModulesPerString)
}

// Procurement returns the module order for the winning layout.
func (r Report) Procurement() model.ProcurementEstimate {
	return model.CalculateProcurement(r.Result.Best.TotalPanels, r.ModulesPerString,
		r.SparePercent, r.PalletSize, r.Module.STC)
}

// footprints returns the rectangle of every placed table.
func (r Report) footprints() []geometry.Rect {
	size := r.TableSize()
	rects := make([]geometry.Rect, len(r.Result.Best.Tables))
	for i, t := range r.Result.Best.Tables {
		minX, minY, maxX, maxY := t.Footprint(size)
		rects[i] = geometry.Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	}
	return rects
}

// extent returns the bounding box of the zones and tables, or false when
// there is nothing to draw.
func (r Report) extent() (geometry.Rect, bool) {
	var polys []geom.Polygon
	polys = append(polys, r.Zones.Enabled...)
	polys = append(polys, r.Zones.Restricted...)

	var ext geometry.Rect
	found := false
	grow := func(b geometry.Rect) {
		if !found {
			ext, found = b, true
			return
		}
		ext.MinX = min(ext.MinX, b.MinX)
		ext.MinY = min(ext.MinY, b.MinY)
		ext.MaxX = max(ext.MaxX, b.MaxX)
		ext.MaxY = max(ext.MaxY, b.MaxY)
	}
	for _, p := range polys {
		if len(p) == 0 || len(p[0]) == 0 {
			continue
		}
		grow(geometry.Bounds(p))
	}
	for _, f := range r.footprints() {
		grow(f)
	}
	if !found || ext.Width() <= 0 || ext.Height() <= 0 {
		return geometry.Rect{}, false
	}
	return ext, true
}
