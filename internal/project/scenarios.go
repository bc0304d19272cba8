package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/pvlayout/internal/engine"
	"github.com/piwi3910/pvlayout/internal/model"
)

// scenarioEntry is one scenario as stored on disk. Settings may be partial.
type scenarioEntry struct {
	Name     string          `json:"name"`
	Settings json.RawMessage `json:"settings"`
}

// SaveScenarios writes comparison scenarios to a JSON file.
func SaveScenarios(path string, scenarios []engine.ComparisonScenario) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(scenarios, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadScenarios reads comparison scenarios from a JSON file. Each entry's
// settings are applied over base, so a scenario only lists what it changes:
//
//	[{"name": "Wide streets", "settings": {"street_width": 8}}]
func LoadScenarios(path string, base model.LayoutSettings) ([]engine.ComparisonScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []scenarioEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("scenario file lists no scenarios")
	}

	scenarios := make([]engine.ComparisonScenario, 0, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("scenario %d has no name", i+1)
		}
		settings := base
		if len(e.Settings) > 0 {
			if err := json.Unmarshal(e.Settings, &settings); err != nil {
				return nil, fmt.Errorf("scenario %q: %w", e.Name, err)
			}
		}
		scenarios = append(scenarios, engine.ComparisonScenario{Name: e.Name, Settings: settings})
	}
	return scenarios, nil
}
