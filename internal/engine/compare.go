package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/pvlayout/internal/model"
)

// ComparisonScenario defines a named set of layout settings to compare.
type ComparisonScenario struct {
	Name     string               `json:"name"`
	Settings model.LayoutSettings `json:"settings"`
}

// ComparisonResult holds the sweep outcome of a single scenario.
type ComparisonResult struct {
	Scenario    ComparisonScenario
	Result      model.OptimizationResult
	BestPitch   float64
	TotalTables int
	TotalEnergy float64
	// EnergyDelta is the energy difference to the first scenario, in W.
	EnergyDelta float64
	Err         error
}

// CompareScenarios runs the sweep for each scenario on the same zones and
// module and returns the results in scenario order. A scenario with invalid
// settings keeps its error in Err and does not stop the others; a cancelled
// context does.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, module model.ModuleSpec, zones model.ZoneSet, opts ...Option) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		cr := ComparisonResult{Scenario: scenario}
		opt, err := New(scenario.Settings, module, opts...)
		if err != nil {
			cr.Err = err
			results = append(results, cr)
			continue
		}
		result, err := opt.Optimize(ctx, zones)
		if err != nil {
			if ctx.Err() != nil {
				return results, err
			}
			cr.Err = err
			results = append(results, cr)
			continue
		}
		cr.Result = result
		cr.BestPitch = result.Best.Pitch
		cr.TotalTables = result.Best.TotalTables
		cr.TotalEnergy = result.Best.TotalEnergy
		results = append(results, cr)
	}

	if len(results) > 0 && results[0].Err == nil {
		base := results[0].TotalEnergy
		for i := range results {
			if results[i].Err == nil {
				results[i].EnergyDelta = results[i].TotalEnergy - base
			}
		}
	}
	return results, nil
}

// BuildDefaultScenarios generates what-if variants of the current settings:
// streets removed, fencing removed and the other common table configuration.
func BuildDefaultScenarios(base model.LayoutSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	if base.StreetsEnabled() {
		noStreets := base
		noStreets.TablesBetweenStreets = model.Unbounded
		noStreets.StreetWidth = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "No Streets",
			Settings: noStreets,
		})
	}

	if base.FencedDistance > 0 {
		noFence := base
		noFence.FencedDistance = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "No Fencing",
			Settings: noFence,
		})
	}

	// 1P and 2P are the two usual table heights.
	alt := base
	if base.PanelsPerTable == 2 {
		alt.PanelsPerTable = 1
	} else {
		alt.PanelsPerTable = 2
	}
	scenarios = append(scenarios, ComparisonScenario{
		Name:     fmt.Sprintf("%dP Tables", alt.PanelsPerTable),
		Settings: alt,
	})

	return scenarios
}
