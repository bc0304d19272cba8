package model

// TotalPanels returns the number of panels mounted on the given tables.
func TotalPanels(tables, panelsPerTable int) int {
	return tables * panelsPerTable
}

// TotalEnergy returns the installed DC capacity in watts. The panel count is
// formed in integer arithmetic and multiplied by the STC rating once.
func TotalEnergy(tables, panelsPerTable int, stc float64) float64 {
	return float64(TotalPanels(tables, panelsPerTable)) * stc
}

// CapacityReport holds the headline figures derived from a layout.
type CapacityReport struct {
	TotalTables      int     `json:"total_tables"`
	TotalPanels      int     `json:"total_panels"`
	DCCapacityW      float64 `json:"dc_capacity_w"`
	DCCapacityMWp    float64 `json:"dc_capacity_mwp"`
	FencedAreaHa     float64 `json:"fenced_area_ha"`
	TableArea        float64 `json:"table_area"`         // m²
	GroundCoverage   float64 `json:"ground_coverage"`    // table area / fenced area, percent
	CapacityDensity  float64 `json:"capacity_density"`   // MWp per hectare
	StructureConfig  string  `json:"structure_config"`   // "1P" or "2P"
	ModulesPerString int     `json:"modules_per_string"` // informational
}

// m2PerHectare is the number of square metres in one hectare.
const m2PerHectare = 10_000.0

// CalculateCapacity summarizes a candidate for reporting. fencedArea is in
// square metres; racking "Tracker" yields a 1P structure, anything else 2P.
func CalculateCapacity(c PitchCandidate, module ModuleSpec, panelsPerTable int, fencedArea float64, racking string, modulesPerString int) CapacityReport {
	size := module.TableSize(panelsPerTable)
	energy := TotalEnergy(c.TotalTables, panelsPerTable, module.STC)
	tableArea := float64(c.TotalTables) * size.Area()

	report := CapacityReport{
		TotalTables:      c.TotalTables,
		TotalPanels:      TotalPanels(c.TotalTables, panelsPerTable),
		DCCapacityW:      energy,
		DCCapacityMWp:    energy / 1_000_000,
		FencedAreaHa:     fencedArea / m2PerHectare,
		TableArea:        tableArea,
		StructureConfig:  "2P",
		ModulesPerString: modulesPerString,
	}
	if racking == "Tracker" {
		report.StructureConfig = "1P"
	}
	if fencedArea > 0 {
		report.GroundCoverage = tableArea / fencedArea * 100
		report.CapacityDensity = report.DCCapacityMWp / report.FencedAreaHa
	}
	return report
}
