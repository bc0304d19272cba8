package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SheetTechnology  = "Technology"
	SheetCapacity    = "Capacity"
	SheetAssumptions = "Assumptions"
	SheetTables      = "Tables"
	SheetStreets     = "Streets"
	SheetSweep       = "Sweep"
)

// sheet is one worksheet: a header row followed by data rows.
type sheet struct {
	name   string
	header []interface{}
	rows   [][]interface{}
}

// WriteWorkbook saves the run report as an Excel workbook. The first three
// sheets hold key/value pairs in the layout used by the project summary;
// the rest list every table, street and sweep sample.
func WriteWorkbook(path string, rep Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := workbookSheets(rep)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", s.name, err)
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	header := s.header
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", s.name, err)
	}
	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", s.name, err)
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(s.name, cell, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", s.name, i+1, err)
		}
	}
	return nil
}

func workbookSheets(rep Report) []sheet {
	capacity := rep.Capacity()
	order := rep.Procurement()
	size := rep.TableSize()
	best := rep.Result.Best

	racking := rep.Racking
	if racking == "" {
		racking = "Fixed"
	}

	technology := sheet{
		name:   SheetTechnology,
		header: []interface{}{"Parameter", "Value"},
		rows: [][]interface{}{
			{"Module", rep.Module.Model},
			{"Module ID", rep.Module.ID},
			{"Racking", racking},
		},
	}

	capacitySheet := sheet{
		name:   SheetCapacity,
		header: []interface{}{"Parameter", "Value", "Unit"},
		rows: [][]interface{}{
			{"DC capacity", capacity.DCCapacityMWp, "MWp"},
			{"Module power", rep.Module.STC, "W"},
			{"Module qty", capacity.TotalPanels, ""},
			{"Module width", rep.Module.Width, "m"},
			{"Module length", rep.Module.Length, "m"},
		},
	}

	assumptions := sheet{
		name:   SheetAssumptions,
		header: []interface{}{"Parameter", "Value", "Unit"},
		rows: [][]interface{}{
			{"Fenced area", capacity.FencedAreaHa, "Ha"},
			{"Pitch", best.Pitch, "m"},
			{"Structure conf.", capacity.StructureConfig, ""},
			{"Modules per string", rep.ModulesPerString, ""},
			{"Modules per table", rep.Settings.PanelsPerTable, ""},
			{"Table qty", capacity.TotalTables, ""},
			{"Ground coverage", capacity.GroundCoverage, "%"},
			{"Fenced distance", rep.Settings.FencedDistance, "m"},
			{"Tables between streets", rep.Settings.TablesBetweenStreets, ""},
			{"Street width", rep.Settings.StreetWidth, "m"},
			{"Complete strings", order.CompleteStrings, ""},
			{"Modules to order", order.ModulesToOrder, ""},
			{"Pallets", order.Pallets, ""},
		},
	}

	tables := sheet{
		name:   SheetTables,
		header: []interface{}{"Table", "Zone", "Start X", "Start Y", "End X", "End Y", "Width", "Height"},
	}
	for i, t := range best.Tables {
		tables.rows = append(tables.rows, []interface{}{
			i + 1, t.ZoneIndex + 1,
			t.Centerline.Start.X, t.Centerline.Start.Y,
			t.Centerline.End.X, t.Centerline.End.Y,
			size.Width, size.Height,
		})
	}

	streets := sheet{
		name:   SheetStreets,
		header: []interface{}{"Street", "Zone", "Left X", "Right X", "Min Y", "Max Y", "Width"},
	}
	for i, s := range best.Streets {
		streets.rows = append(streets.rows, []interface{}{
			i + 1, s.ZoneIndex + 1,
			s.Left.Start.X, s.Right.Start.X,
			s.Left.Start.Y, s.Left.End.Y,
			s.Width,
		})
	}

	sweep := sheet{
		name:   SheetSweep,
		header: []interface{}{"Pitch", "Columns", "Tables", "Panels", "Energy (W)", "Streets", "Best"},
	}
	bestIdx := rep.Result.BestIndex()
	for i, c := range rep.Result.Candidates {
		mark := ""
		if i == bestIdx {
			mark = "yes"
		}
		sweep.rows = append(sweep.rows, []interface{}{
			c.Pitch, c.Columns, c.TotalTables, c.TotalPanels, c.TotalEnergy, c.StreetCount, mark,
		})
	}

	return []sheet{technology, capacitySheet, assumptions, tables, streets, sweep}
}
