package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each table label's QR code.
type LabelInfo struct {
	TableID string  `json:"table"`
	Zone    int     `json:"zone"`
	X       float64 `json:"x"` // table center, projected CRS
	Y       float64 `json:"y"`
	Width   float64 `json:"width_m"`
	Height  float64 `json:"height_m"`
	Panels  int     `json:"panels"`
	RunID   string  `json:"run_id"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportTableLabels generates a PDF of QR-coded stake labels, one per placed
// table, for marking table positions on site. Each QR code carries the
// table metadata as JSON.
func ExportTableLabels(path string, rep Report) error {
	labels := CollectLabelInfos(rep)
	if len(labels) == 0 {
		return ErrNoTables
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.TableID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	// Draw light border for cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := "qr_" + info.TableID
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, info.TableID, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%.2f x %.2f m, %d panels", info.Width, info.Height, info.Panels), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("E %.2f", info.X), "", 1, "L", false, 0, "")
	pdf.SetXY(textX, y+labelPadding+12)
	pdf.CellFormat(textW, 3, fmt.Sprintf("N %.2f", info.Y), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// CollectLabelInfos extracts one label per placed table, numbered in
// placement order within each zone.
func CollectLabelInfos(rep Report) []LabelInfo {
	size := rep.TableSize()
	perZone := make(map[int]int)
	labels := make([]LabelInfo, 0, len(rep.Result.Best.Tables))
	for _, t := range rep.Result.Best.Tables {
		perZone[t.ZoneIndex]++
		labels = append(labels, LabelInfo{
			TableID: fmt.Sprintf("Z%d-T%04d", t.ZoneIndex+1, perZone[t.ZoneIndex]),
			Zone:    t.ZoneIndex,
			X:       t.Centerline.Start.X,
			Y:       (t.Centerline.Start.Y + t.Centerline.End.Y) / 2,
			Width:   size.Width,
			Height:  size.Height,
			Panels:  rep.Settings.PanelsPerTable,
			RunID:   rep.Result.RunID,
		})
	}
	return labels
}
