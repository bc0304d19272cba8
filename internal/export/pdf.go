package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/pvlayout/internal/geometry"
)

// rgb is a fill or stroke color.
type rgb struct {
	R, G, B int
}

// Plot colors: enabled green, restricted red, tables blue, streets grey.
var (
	enabledColor    = rgb{R: 76, G: 175, B: 80}
	restrictedColor = rgb{R: 244, G: 67, B: 54}
	tableColor      = rgb{R: 33, G: 150, B: 243}
	streetColor     = rgb{R: 158, G: 158, B: 158}
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendWidth  = 70.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	summaryQR    = 45.0
)

// WritePDF renders the winning layout on one page, followed by a summary
// page with the key figures and a QR code holding them as JSON.
func WritePDF(path string, rep Report) error {
	ext, ok := rep.extent()
	if !ok {
		return fmt.Errorf("nothing to plot: no zones and no tables")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderLayoutPage(pdf, rep, ext)

	pdf.AddPage()
	if err := renderSummaryPage(pdf, rep); err != nil {
		return err
	}

	return pdf.OutputFileAndClose(path)
}

// plotTransform maps projected coordinates onto the drawing area. Page y
// grows downward, so northing is flipped.
type plotTransform struct {
	scale            float64
	minX, maxY       float64
	offsetX, offsetY float64
}

func newPlotTransform(minX, minY, maxX, maxY, drawW, drawH float64) plotTransform {
	scale := math.Min(drawW/(maxX-minX), drawH/(maxY-minY))
	return plotTransform{
		scale:   scale,
		minX:    minX,
		maxY:    maxY,
		offsetX: marginLeft + (drawW-(maxX-minX)*scale)/2,
		offsetY: drawAreaTop,
	}
}

func (t plotTransform) point(x, y float64) fpdf.PointType {
	return fpdf.PointType{
		X: t.offsetX + (x-t.minX)*t.scale,
		Y: t.offsetY + (t.maxY-y)*t.scale,
	}
}

func (t plotTransform) ring(path geom.Path) []fpdf.PointType {
	pts := make([]fpdf.PointType, len(path))
	for i, p := range path {
		pts[i] = t.point(p.X, p.Y)
	}
	return pts
}

// renderLayoutPage draws zones, streets and tables with a legend on the right.
func renderLayoutPage(pdf *fpdf.Fpdf, rep Report, ext geometry.Rect) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%s: PV Layout (pitch %.2f m)", projectTitle(rep), rep.Result.Best.Pitch)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	drawW := pageWidth - marginLeft - marginRight - legendWidth - 5
	drawH := pageHeight - drawAreaTop - marginBottom
	t := newPlotTransform(ext.MinX, ext.MinY, ext.MaxX, ext.MaxY, drawW, drawH)

	pdf.SetLineWidth(0.3)
	for _, p := range rep.Zones.Enabled {
		drawPolygon(pdf, t, p, enabledColor, 0.25)
	}
	for _, p := range rep.Zones.Restricted {
		drawPolygon(pdf, t, p, restrictedColor, 0.35)
	}

	pdf.SetDrawColor(streetColor.R, streetColor.G, streetColor.B)
	pdf.SetLineWidth(0.2)
	for _, s := range rep.Result.Best.Streets {
		for _, seg := range []struct{ x0, y0, x1, y1 float64 }{
			{s.Left.Start.X, s.Left.Start.Y, s.Left.End.X, s.Left.End.Y},
			{s.Right.Start.X, s.Right.Start.Y, s.Right.End.X, s.Right.End.Y},
		} {
			a, b := t.point(seg.x0, seg.y0), t.point(seg.x1, seg.y1)
			pdf.Line(a.X, a.Y, b.X, b.Y)
		}
	}

	pdf.SetFillColor(tableColor.R, tableColor.G, tableColor.B)
	pdf.SetDrawColor(tableColor.R, tableColor.G, tableColor.B)
	pdf.SetLineWidth(0.1)
	for _, f := range rep.footprints() {
		tl := t.point(f.MinX, f.MaxY)
		pdf.Rect(tl.X, tl.Y, f.Width()*t.scale, f.Height()*t.scale, "F")
	}

	drawLegend(pdf, rep, pageWidth-marginRight-legendWidth, drawAreaTop)
	drawScaleBar(pdf, t, drawH)
}

func drawPolygon(pdf *fpdf.Fpdf, t plotTransform, p geom.Polygon, c rgb, alpha float64) {
	for i, ring := range p {
		if len(ring) < 3 {
			continue
		}
		if i == 0 {
			pdf.SetAlpha(alpha, "Normal")
			pdf.SetFillColor(c.R, c.G, c.B)
			pdf.Polygon(t.ring(ring), "F")
			pdf.SetAlpha(1, "Normal")
		} else {
			// Holes are painted white over the fill.
			pdf.SetFillColor(255, 255, 255)
			pdf.Polygon(t.ring(ring), "F")
		}
		pdf.SetDrawColor(c.R, c.G, c.B)
		pdf.Polygon(t.ring(ring), "D")
	}
}

// drawLegend lists the color keys and the module and layout figures.
func drawLegend(pdf *fpdf.Fpdf, rep Report, x, y float64) {
	keys := []struct {
		label string
		c     rgb
	}{
		{"Enabled Zone", enabledColor},
		{"Restricted Zone", restrictedColor},
		{"PV Tables", tableColor},
		{"Streets", streetColor},
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x, y)
	pdf.CellFormat(legendWidth, 5, "Legend", "", 0, "L", false, 0, "")
	y += 6

	pdf.SetFont("Helvetica", "", 8)
	for _, k := range keys {
		pdf.SetFillColor(k.c.R, k.c.G, k.c.B)
		pdf.Rect(x, y+0.5, 3, 3, "F")
		pdf.SetXY(x+5, y)
		pdf.CellFormat(legendWidth-5, 4, k.label, "", 0, "L", false, 0, "")
		y += 5
	}

	y += 4
	size := rep.TableSize()
	best := rep.Result.Best
	lines := []string{
		fmt.Sprintf("Module: %s", rep.Module.Model),
		fmt.Sprintf("Module size: %.3f x %.3f m", rep.Module.Length, rep.Module.Width),
		fmt.Sprintf("Module power: %.0f Wp", rep.Module.STC),
		fmt.Sprintf("Panels per table: %d", rep.Settings.PanelsPerTable),
		fmt.Sprintf("Table size: %.2f x %.2f m", size.Width, size.Height),
		fmt.Sprintf("Pitch: %.2f m", best.Pitch),
		fmt.Sprintf("Tables: %d", best.TotalTables),
		fmt.Sprintf("Panels: %d", best.TotalPanels),
		fmt.Sprintf("Streets: %d", len(best.Streets)),
		fmt.Sprintf("Total energy: %.2f MWp", best.TotalEnergy/1_000_000),
	}
	for _, l := range lines {
		pdf.SetXY(x, y)
		pdf.CellFormat(legendWidth, 4, l, "", 0, "L", false, 0, "")
		y += 4.5
	}
}

// drawScaleBar draws a round-length bar under the plot.
func drawScaleBar(pdf *fpdf.Fpdf, t plotTransform, drawH float64) {
	target := 40 / t.scale // metres covered by about 40 mm
	length := math.Pow(10, math.Floor(math.Log10(target)))
	for _, m := range []float64{5, 2} {
		if length*m <= target {
			length *= m
			break
		}
	}
	y := drawAreaTop + drawH + 4
	w := length * t.scale
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.4)
	pdf.Line(marginLeft, y, marginLeft+w, y)
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(marginLeft+w+2, y-2)
	pdf.CellFormat(30, 4, fmt.Sprintf("%g m", length), "", 0, "L", false, 0, "")
}

// SummaryInfo is the payload of the summary QR code.
type SummaryInfo struct {
	RunID       string  `json:"run_id"`
	Project     string  `json:"project"`
	Module      string  `json:"module"`
	Pitch       float64 `json:"pitch_m"`
	Tables      int     `json:"tables"`
	Panels      int     `json:"panels"`
	Streets     int     `json:"streets"`
	DCCapacityW float64 `json:"dc_capacity_w"`
	FencedHa    float64 `json:"fenced_area_ha"`
}

// CollectSummary extracts the QR payload of a report.
func CollectSummary(rep Report) SummaryInfo {
	c := rep.Capacity()
	return SummaryInfo{
		RunID:       rep.Result.RunID,
		Project:     rep.ProjectName,
		Module:      rep.Module.Model,
		Pitch:       rep.Result.Best.Pitch,
		Tables:      c.TotalTables,
		Panels:      c.TotalPanels,
		Streets:     len(rep.Result.Best.Streets),
		DCCapacityW: c.DCCapacityW,
		FencedHa:    c.FencedAreaHa,
	}
}

// renderSummaryPage draws the summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, rep Report) error {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, projectTitle(rep)+": Layout Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	c := rep.Capacity()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Capacity", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"DC Capacity", fmt.Sprintf("%.2f MWp", c.DCCapacityMWp)},
		{"Total Table Qty", fmt.Sprintf("%d", c.TotalTables)},
		{"Total Module Qty", fmt.Sprintf("%d", c.TotalPanels)},
		{"Fenced Area", fmt.Sprintf("%.2f Ha", c.FencedAreaHa)},
		{"Ground Coverage", fmt.Sprintf("%.1f%%", c.GroundCoverage)},
		{"Capacity Density", fmt.Sprintf("%.3f MWp/Ha", c.CapacityDensity)},
		{"Structure Conf.", c.StructureConfig},
		{"Modules per String", fmt.Sprintf("%d", c.ModulesPerString)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Pitch Sweep", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{25, 25, 25, 30, 40}
	headers := []string{"Pitch (m)", "Tables", "Streets", "Panels", "Energy (MWp)"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	best := rep.Result.BestIndex()
	pdf.SetFont("Helvetica", "", 9)
	for i, cand := range rep.Result.Candidates {
		if y > pageHeight-marginBottom-10 {
			break
		}
		rowData := []string{
			fmt.Sprintf("%.2f", cand.Pitch),
			fmt.Sprintf("%d", cand.TotalTables),
			fmt.Sprintf("%d", cand.StreetCount),
			fmt.Sprintf("%d", cand.TotalPanels),
			fmt.Sprintf("%.3f", cand.TotalEnergy/1_000_000),
		}

		switch {
		case i == best:
			pdf.SetFillColor(200, 230, 201)
		case i%2 == 0:
			pdf.SetFillColor(245, 245, 245)
		default:
			pdf.SetFillColor(255, 255, 255)
		}

		xPos = marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if len(rep.Result.Diagnostics) > 0 {
		dy := marginTop + 18
		dx := marginLeft + 160
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(dx, dy)
		pdf.CellFormat(100, 7, "Skipped Zones", "", 0, "L", false, 0, "")
		dy += 8
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
		for _, d := range rep.Result.Diagnostics {
			pdf.SetXY(dx, dy)
			pdf.CellFormat(100, 4, fmt.Sprintf("- zone %d: %s", d.ZoneIndex, d.Kind), "", 0, "L", false, 0, "")
			dy += 4.5
		}
	}

	qrData, err := json.Marshal(CollectSummary(rep))
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}
	pdf.RegisterImageOptionsReader("summary_qr", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	pdf.ImageOptions("summary_qr", pageWidth-marginRight-summaryQR, pageHeight-marginBottom-summaryQR-6,
		summaryQR, summaryQR, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	footer := "Generated by pvlayout - run " + rep.Result.RunID
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, footer, "", 0, "C", false, 0, "")
	return nil
}

func projectTitle(rep Report) string {
	if rep.ProjectName == "" {
		return "Project"
	}
	return rep.ProjectName
}
