package model

import "math"

// ProcurementEstimate holds the module order derived from a layout.
type ProcurementEstimate struct {
	TotalPanels      int     `json:"total_panels"`
	ModulesPerString int     `json:"modules_per_string"`
	CompleteStrings  int     `json:"complete_strings"`
	LeftoverModules  int     `json:"leftover_modules"` // panels not forming a full string
	SparePercent     float64 `json:"spare_percent"`    // e.g. 2 for 2% breakage reserve
	ModulesToOrder   int     `json:"modules_to_order"`
	PalletSize       int     `json:"pallet_size"`
	Pallets          int     `json:"pallets"`
	OrderPowerW      float64 `json:"order_power_w"` // STC power of ModulesToOrder
}

// CalculateProcurement computes how many modules to order for a layout of
// totalPanels panels. modulesPerString and palletSize may be zero, in which
// case the corresponding figures stay zero.
func CalculateProcurement(totalPanels, modulesPerString int, sparePercent float64, palletSize int, stc float64) ProcurementEstimate {
	est := ProcurementEstimate{
		TotalPanels:      totalPanels,
		ModulesPerString: modulesPerString,
		SparePercent:     sparePercent,
		PalletSize:       palletSize,
	}
	if totalPanels <= 0 {
		return est
	}

	if modulesPerString > 0 {
		est.CompleteStrings = totalPanels / modulesPerString
		est.LeftoverModules = totalPanels % modulesPerString
	}

	// Apply spare factor
	spareFactor := 1.0 + (math.Max(sparePercent, 0) / 100.0)
	est.ModulesToOrder = int(math.Ceil(float64(totalPanels) * spareFactor))
	if est.ModulesToOrder < totalPanels {
		est.ModulesToOrder = totalPanels
	}

	if palletSize > 0 {
		est.Pallets = (est.ModulesToOrder + palletSize - 1) / palletSize
	}
	est.OrderPowerW = float64(est.ModulesToOrder) * stc
	return est
}
