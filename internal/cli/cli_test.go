package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/pvlayout/internal/project"
)

const parcelKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
<Document>
  <Placemark>
    <name>enabled</name>
    <Polygon><outerBoundaryIs><LinearRing><coordinates>
      500000,5800000 500020,5800000 500020,5800012 500000,5800012 500000,5800000
    </coordinates></LinearRing></outerBoundaryIs></Polygon>
  </Placemark>
  <Placemark>
    <name>enabled</name>
    <Polygon><outerBoundaryIs><LinearRing><coordinates>
      500100,5800000 500101,5800000 500101,5800001 500100,5800001 500100,5800000
    </coordinates></LinearRing></outerBoundaryIs></Polygon>
  </Placemark>
  <Placemark>
    <name>restricted</name>
    <Polygon><outerBoundaryIs><LinearRing><coordinates>
      500014,5800008 500016,5800008 500016,5800010 500014,5800010 500014,5800008
    </coordinates></LinearRing></outerBoundaryIs></Polygon>
  </Placemark>
</Document>
</kml>`

const projectYAML = `project:
  name: Test Park
  modules_per_string: 28
zones:
  kml: parcel.kml
  input_crs: EPSG:25833
  output_crs: EPSG:25833
module:
  model: Test 400
  length: 2
  width: 1
  stc: 400
layout:
  panels_per_table: 2
  pitch_min: 1
  pitch_max: 2
  pitch_step: 1
  tables_between_streets: 2
  street_width: 4
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parcel.kml"), []byte(parcelKML), 0o644))
	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(projectYAML), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestOptimize_WritesExports(t *testing.T) {
	cfgPath := writeProject(t)
	outDir := filepath.Join(t.TempDir(), "out")
	metricsPath := filepath.Join(t.TempDir(), "pvlayout.prom")

	out, err := execute(t, "optimize", "-c", cfgPath, "-o", outDir, "--workers", "2", "--metrics", metricsPath)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Best pitch:   1.00 m")
	assert.Contains(t, out, "Streets:      2")

	for _, name := range []string{
		"Test_Park.xlsx", "Test_Park.kmz", "Test_Park.dxf", "Test_Park.pdf",
		"Test_Park_labels.pdf", "Test_Park_sweep.html", "Test_Park_manifest.json",
	} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	m, err := project.LoadManifest(filepath.Join(outDir, "Test_Park_manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Best.Pitch)
	assert.Len(t, m.Candidates, 2)
	assert.Len(t, m.Outputs, 6)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pvlayout_pitch_trials_total 2")
}

func TestOptimize_FormatsFlag(t *testing.T) {
	cfgPath := writeProject(t)
	outDir := t.TempDir()

	_, err := execute(t, "optimize", "-c", cfgPath, "-o", outDir, "--formats", "xlsx,chart")
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestOptimize_UnknownFormat(t *testing.T) {
	cfgPath := writeProject(t)
	_, err := execute(t, "optimize", "-c", cfgPath, "--formats", "svg")
	assert.ErrorContains(t, err, "export.formats")
}

func TestOptimize_Compare(t *testing.T) {
	cfgPath := writeProject(t)
	outDir := t.TempDir()

	out, err := execute(t, "optimize", "-c", cfgPath, "-o", outDir, "--compare")
	require.NoError(t, err)

	assert.Contains(t, out, "SCENARIO")
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "No Streets")
	assert.Contains(t, out, "1P Tables")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "comparison writes no exports")
}

func TestOptimize_CompareScenarioFile(t *testing.T) {
	cfgPath := writeProject(t)
	scenarios := filepath.Join(t.TempDir(), "scenarios.json")
	require.NoError(t, os.WriteFile(scenarios, []byte(`[
  {"name": "Base"},
  {"name": "Wide", "settings": {"street_width": 8}}
]`), 0o644))

	out, err := execute(t, "optimize", "-c", cfgPath, "-o", t.TempDir(), "--compare", "--scenarios", scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "Base")
	assert.Contains(t, out, "Wide")
}

func TestOptimize_MissingConfig(t *testing.T) {
	_, err := execute(t, "optimize", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfgPath := writeProject(t)

	out, err := execute(t, "validate", "-c", cfgPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "enabled 1: ok, area 240.0 m²")
	assert.Contains(t, out, "enabled 2: ok")
	assert.Contains(t, out, "restricted union: 1 polygon(s), 4.0 m²")
}

func TestValidate_FencedCollapse(t *testing.T) {
	cfgPath := writeProject(t)
	t.Setenv("PVLAYOUT_LAYOUT__FENCED_DISTANCE", "1")

	out, err := execute(t, "validate", "-c", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 zone(s)")
	assert.Contains(t, out, "enabled 2: empty after 1.00 m fencing")
}

func TestModules(t *testing.T) {
	catalog := filepath.Join(t.TempDir(), "modules.csv")
	require.NoError(t, os.WriteFile(catalog, []byte("ID,Model,Length,Width,STC\n1,Alpha 450,2.094,1.038,450\n"), 0o644))

	out, err := execute(t, "modules", "--catalog", catalog)
	require.NoError(t, err)
	assert.Contains(t, out, "Alpha 450")
	assert.Contains(t, out, "2.094")
}

func TestModules_RequiresCatalog(t *testing.T) {
	_, err := execute(t, "modules")
	assert.Error(t, err)
}
