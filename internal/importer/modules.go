// Package importer loads project inputs: PV module catalogs from CSV or
// Excel files, and enabled/restricted zone polygons from KML or DXF files.
// Catalog import supports automatic delimiter detection and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/pvlayout/internal/model"
)

// ErrModuleNotFound is returned by Catalog.Lookup for an unknown module ID.
var ErrModuleNotFound = errors.New("module not found in catalog")

// CatalogResult holds the results of a catalog import. Row problems are
// collected rather than returned, so one bad line does not hide the rest.
type CatalogResult struct {
	Catalog  Catalog
	Errors   []string
	Warnings []string
}

// Err folds the collected row errors into a single error, or nil.
func (r CatalogResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("module catalog: %s", strings.Join(r.Errors, "; "))
}

// Catalog is an ordered list of module datasheets.
type Catalog []model.ModuleSpec

// Lookup returns the module whose ID matches id. IDs that both parse as
// numbers are compared numerically, so "7" matches "7.0"; otherwise the
// trimmed strings must be equal.
func (c Catalog) Lookup(id string) (model.ModuleSpec, error) {
	id = strings.TrimSpace(id)
	want, wantErr := strconv.ParseFloat(id, 64)
	for _, m := range c {
		if wantErr == nil {
			if got, err := strconv.ParseFloat(m.ID, 64); err == nil && got == want {
				return m, nil
			}
		}
		if m.ID == id {
			return m, nil
		}
	}
	return model.ModuleSpec{}, fmt.Errorf("%w: %q", ErrModuleNotFound, id)
}

// ColumnMapping maps catalog column roles to their indices in the data.
type ColumnMapping struct {
	ID     int
	Model  int
	Length int
	Width  int
	STC    int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":     {"id", "module id", "module_id", "code"},
	"model":  {"modelo", "model", "module", "name", "pv module model"},
	"length": {"length", "largo", "len", "l"},
	"width":  {"width", "ancho", "w"},
	"stc":    {"stc", "pmax", "power", "wp", "potencia"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping. Matching
// is case-insensitive; the first column matching a role wins. The boolean is
// false when no cell looked like a header, in which case the positional
// layout ID, Model, Length, Width, STC is returned.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{ID: -1, Model: -1, Length: -1, Width: -1, STC: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				var slot *int
				switch role {
				case "id":
					slot = &mapping.ID
				case "model":
					slot = &mapping.Model
				case "length":
					slot = &mapping.Length
				case "width":
					slot = &mapping.Width
				case "stc":
					slot = &mapping.STC
				}
				if *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{ID: 0, Model: 1, Length: 2, Width: 3, STC: 4}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber accepts a decimal comma as well as a decimal point.
func parseNumber(s string) (float64, error) {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// parseRow extracts a ModuleSpec from a row. Returns the module, any error
// message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.ModuleSpec, string, string) {
	id := getCell(row, mapping.ID)
	if id == "" {
		return model.ModuleSpec{}, fmt.Sprintf("%s: Missing module ID", rowLabel), ""
	}

	values := make(map[string]float64, 3)
	for _, col := range []struct {
		name string
		idx  int
	}{{"length", mapping.Length}, {"width", mapping.Width}, {"STC", mapping.STC}} {
		s := getCell(row, col.idx)
		if s == "" {
			return model.ModuleSpec{}, fmt.Sprintf("%s: Missing %s value", rowLabel, col.name), ""
		}
		v, err := parseNumber(s)
		if err != nil {
			return model.ModuleSpec{}, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, col.name, s), ""
		}
		values[col.name] = v
	}

	m := model.ModuleSpec{
		ID:     id,
		Model:  getCell(row, mapping.Model),
		Length: values["length"],
		Width:  values["width"],
		STC:    values["STC"],
	}
	if err := m.Validate(); err != nil {
		return model.ModuleSpec{}, fmt.Sprintf("%s: %v", rowLabel, err), ""
	}

	var warning string
	if m.Model == "" {
		m.Model = "Module " + id
		warning = fmt.Sprintf("%s: Missing model name, using '%s'", rowLabel, m.Model)
	}
	return m, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// LoadModuleCatalog reads a catalog from a .csv, .xlsx or .xls file,
// choosing the reader by extension.
func LoadModuleCatalog(path string) CatalogResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls", ".xlsm":
		return ImportCatalogExcel(path)
	default:
		return ImportCatalogCSV(path)
	}
}

// ImportCatalogCSV imports modules from a CSV file. It automatically
// detects the delimiter and maps columns by header names.
func ImportCatalogCSV(path string) CatalogResult {
	result := CatalogResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	result = ImportCatalogCSVFromReader(bytes.NewReader(data), delimiter)
	result.Warnings = append(warnings, result.Warnings...)
	return result
}

// ImportCatalogCSVFromReader imports modules from a CSV reader with a
// known delimiter.
func ImportCatalogCSVFromReader(reader io.Reader, delimiter rune) CatalogResult {
	result := CatalogResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line")
}

// ImportCatalogExcel imports modules from the first sheet of an Excel file.
func ImportCatalogExcel(path string) CatalogResult {
	result := CatalogResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row")
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string) CatalogResult {
	result := CatalogResult{}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		missing := []string{}
		if mapping.ID == -1 {
			missing = append(missing, "ID")
		}
		if mapping.Length == -1 {
			missing = append(missing, "Length")
		}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.STC == -1 {
			missing = append(missing, "STC")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	seen := make(map[string]bool)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		m, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if seen[m.ID] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Duplicate module ID '%s', first entry wins on lookup", rowLabel, m.ID))
		}
		seen[m.ID] = true
		result.Catalog = append(result.Catalog, m)
	}

	if len(result.Catalog) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
