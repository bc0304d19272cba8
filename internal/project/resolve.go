package project

import (
	"fmt"

	"github.com/piwi3910/pvlayout/internal/importer"
	"github.com/piwi3910/pvlayout/internal/model"
)

// Zones is the outcome of loading the configured zone source.
type Zones struct {
	Set      model.ZoneSet
	Warnings []string
	// ToWGS84 maps projected coordinates back to lon/lat for KMZ export.
	// It is nil for DXF sources, whose CRS is not declared.
	ToWGS84 *importer.Reprojector
}

// LoadZones reads the enabled and restricted polygons named in the zone
// section. KML input is reprojected from input_crs to output_crs; DXF
// input is taken as already projected.
func (z ZonesConfig) LoadZones() (Zones, error) {
	if z.KML != "" {
		rep, err := importer.NewReprojector(z.InputCRS, z.OutputCRS)
		if err != nil {
			return Zones{}, fmt.Errorf("zones: %w", err)
		}
		res := importer.LoadKML(z.KML, rep)
		if err := res.Err(); err != nil {
			return Zones{}, err
		}
		back, err := importer.NewReprojector(z.OutputCRS, importer.DefaultInputCRS)
		if err != nil {
			return Zones{}, fmt.Errorf("zones: %w", err)
		}
		return Zones{Set: res.Zones, Warnings: res.Warnings, ToWGS84: back}, nil
	}

	res := importer.ImportDXFZones(z.EnabledDXF, z.RestrictedDXF)
	if err := res.Err(); err != nil {
		return Zones{}, err
	}
	return Zones{Set: res.Zones, Warnings: res.Warnings}, nil
}

// Resolve returns the configured panel, looking it up in the catalog when
// one is set.
func (m ModuleConfig) Resolve() (model.ModuleSpec, error) {
	if m.Catalog == "" {
		spec := m.inline()
		if spec.Model == "" {
			spec.Model = "Custom module"
		}
		return spec, spec.Validate()
	}
	res := importer.LoadModuleCatalog(m.Catalog)
	if err := res.Err(); err != nil {
		return model.ModuleSpec{}, err
	}
	return res.Catalog.Lookup(m.ID)
}
