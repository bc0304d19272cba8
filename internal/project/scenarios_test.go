package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/pvlayout/internal/engine"
	"github.com/piwi3910/pvlayout/internal/model"
)

func TestLoadScenarios_OverridesBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"name": "Baseline"},
  {"name": "Wide streets", "settings": {"tables_between_streets": 10, "street_width": 8}},
  {"name": "Single row", "settings": {"panels_per_table": 1}}
]`), 0o644))

	base := model.DefaultLayoutSettings()
	base.PitchMin, base.PitchMax = 4, 6

	scenarios, err := LoadScenarios(path, base)
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	assert.Equal(t, "Baseline", scenarios[0].Name)
	assert.Equal(t, base, scenarios[0].Settings)

	wide := scenarios[1].Settings
	assert.Equal(t, 10, wide.TablesBetweenStreets)
	assert.Equal(t, 8.0, wide.StreetWidth)
	assert.Equal(t, 4.0, wide.PitchMin, "untouched fields keep the base value")

	assert.Equal(t, 1, scenarios[2].Settings.PanelsPerTable)
}

func TestSaveScenarios_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "scenarios.json")
	base := model.DefaultLayoutSettings()
	saved := engine.BuildDefaultScenarios(base)

	require.NoError(t, SaveScenarios(path, saved))

	loaded, err := LoadScenarios(path, model.LayoutSettings{})
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestLoadScenarios_Errors(t *testing.T) {
	dir := t.TempDir()
	base := model.DefaultLayoutSettings()

	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", "{not json"},
		{"empty list", "[]"},
		{"missing name", `[{"settings": {"street_width": 4}}]`},
		{"bad settings", `[{"name": "x", "settings": {"street_width": "wide"}}]`},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "s"+string(rune('a'+i))+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadScenarios(path, base)
			assert.Error(t, err)
		})
	}

	_, err := LoadScenarios(filepath.Join(dir, "missing.json"), base)
	assert.Error(t, err)
}
