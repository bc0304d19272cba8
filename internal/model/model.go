package model

import (
	"math"

	"github.com/ctessum/geom"
)

// ModuleSpec describes one PV panel as listed in a module catalog.
type ModuleSpec struct {
	ID     string  `json:"id"`
	Model  string  `json:"model"`
	Length float64 `json:"length"` // m, along the table's x axis
	Width  float64 `json:"width"`  // m, stacked panelsPerTable times along y
	STC    float64 `json:"stc"`    // W per panel at standard test conditions
}

// TableSize returns the footprint of a table holding panelsPerTable panels.
func (m ModuleSpec) TableSize(panelsPerTable int) TableSize {
	return TableSize{
		Width:  m.Length,
		Height: m.Width * float64(panelsPerTable),
	}
}

// TableSize is the axis-aligned footprint of one mounted table.
type TableSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the footprint area in square metres.
func (s TableSize) Area() float64 {
	return s.Width * s.Height
}

// Segment is a straight line between two points in the projected CRS.
type Segment struct {
	Start geom.Point `json:"start"`
	End   geom.Point `json:"end"`
}

// Length returns the euclidean length of the segment.
func (s Segment) Length() float64 {
	return math.Hypot(s.End.X-s.Start.X, s.End.Y-s.Start.Y)
}

// PlacedTable is a table accepted by the packer, stored as its centerline:
// Start is the midpoint of the bottom edge, End the midpoint of the top edge.
type PlacedTable struct {
	ZoneIndex  int     `json:"zone_index"`
	Centerline Segment `json:"centerline"`
}

// Footprint rebuilds the table rectangle from its centerline.
func (t PlacedTable) Footprint(size TableSize) (minX, minY, maxX, maxY float64) {
	half := size.Width / 2
	return t.Centerline.Start.X - half, t.Centerline.Start.Y,
		t.Centerline.End.X + half, t.Centerline.End.Y
}

// Street is a reserved access corridor between two groups of table columns.
// Left always has the smaller x coordinate.
type Street struct {
	ZoneIndex int     `json:"zone_index"`
	Left      Segment `json:"left_boundary"`
	Right     Segment `json:"right_boundary"`
	Width     float64 `json:"width"`
}

// ZoneLayout is the packing outcome for a single enabled zone at one pitch.
type ZoneLayout struct {
	ZoneIndex int           `json:"zone_index"`
	Tables    []PlacedTable `json:"tables"`
	Streets   []Street      `json:"streets"`
	Columns   int           `json:"columns"`
}

// PitchCandidate holds the full layout obtained for one sampled pitch.
type PitchCandidate struct {
	Pitch       float64       `json:"pitch"`
	Tables      []PlacedTable `json:"tables"`
	Streets     []Street      `json:"streets"`
	Columns     int           `json:"columns"`
	TotalTables int           `json:"total_tables"`
	TotalPanels int           `json:"total_panels"`
	TotalEnergy float64       `json:"total_energy"` // W
}

// Summary drops the geometry and keeps the headline figures.
func (c PitchCandidate) Summary() CandidateSummary {
	return CandidateSummary{
		Pitch:       c.Pitch,
		Columns:     c.Columns,
		TotalTables: c.TotalTables,
		TotalPanels: c.TotalPanels,
		TotalEnergy: c.TotalEnergy,
		StreetCount: len(c.Streets),
	}
}

// CandidateSummary is the geometry-free view of a PitchCandidate.
type CandidateSummary struct {
	Pitch       float64 `json:"pitch"`
	Columns     int     `json:"columns"`
	TotalTables int     `json:"total_tables"`
	TotalPanels int     `json:"total_panels"`
	TotalEnergy float64 `json:"total_energy"`
	StreetCount int     `json:"street_count"`
}

// DiagnosticKind classifies a per-zone condition recorded during a run.
type DiagnosticKind string

const (
	DiagnosticInvalidGeometry DiagnosticKind = "invalid_geometry"
	DiagnosticFencedEmpty     DiagnosticKind = "fenced_empty"
)

// Diagnostic records a zone that did not take part in packing.
type Diagnostic struct {
	ZoneIndex int            `json:"zone_index"`
	Kind      DiagnosticKind `json:"kind"`
	Message   string         `json:"message"`
}

// OptimizationResult is the winning candidate of a pitch sweep plus the
// per-pitch summaries that led to it. FencedArea sums the source area of
// every valid enabled zone, including zones that fencing left empty;
// invalid zones are not counted.
type OptimizationResult struct {
	RunID       string             `json:"run_id"`
	Best        PitchCandidate     `json:"best"`
	Candidates  []CandidateSummary `json:"candidates"`
	Diagnostics []Diagnostic       `json:"diagnostics,omitempty"`
	FencedArea  float64            `json:"fenced_area"` // m²
}

// BestIndex returns the index of the winning pitch within Candidates, or -1.
func (r OptimizationResult) BestIndex() int {
	for i, c := range r.Candidates {
		if c.Pitch == r.Best.Pitch {
			return i
		}
	}
	return -1
}

// ZoneSet is the planar input of one optimization run.
type ZoneSet struct {
	Enabled    []geom.Polygon `json:"enabled"`
	Restricted []geom.Polygon `json:"restricted"`
}

// EnabledArea returns the summed area of the enabled zones before fencing.
func (z ZoneSet) EnabledArea() float64 {
	var total float64
	for _, p := range z.Enabled {
		total += p.Area()
	}
	return total
}
