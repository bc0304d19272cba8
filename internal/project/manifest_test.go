package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/pvlayout/internal/model"
)

func testResult() model.OptimizationResult {
	best := model.PitchCandidate{Pitch: 4.5, Columns: 3, TotalTables: 12, TotalPanels: 24, TotalEnergy: 9600}
	return model.OptimizationResult{
		RunID: "run-42",
		Best:  best,
		Candidates: []model.CandidateSummary{
			{Pitch: 4, Columns: 3, TotalTables: 12, TotalPanels: 24, TotalEnergy: 9600},
			best.Summary(),
		},
		Diagnostics: []model.Diagnostic{{ZoneIndex: 1, Kind: model.DiagnosticFencedEmpty, Message: "collapsed"}},
		FencedArea:  5000,
	}
}

func TestSaveAndLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "manifest.json")

	cfg := Default()
	cfg.Project.Name = "North Field"
	module := model.ModuleSpec{ID: "1", Model: "Test 400", Length: 2, Width: 1, STC: 400}

	m := NewManifest(cfg, module, testResult(), []string{"out/a.pdf"})
	if err := SaveManifest(path, m); err != nil {
		t.Fatalf("SaveManifest failed: %v", err)
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	if loaded.Version != ManifestVersion {
		t.Errorf("expected version %s, got %s", ManifestVersion, loaded.Version)
	}
	if loaded.RunID != "run-42" {
		t.Errorf("expected RunID run-42, got %s", loaded.RunID)
	}
	if loaded.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if loaded.Project != "North Field" {
		t.Errorf("expected project North Field, got %s", loaded.Project)
	}
	if loaded.Best.Pitch != 4.5 || loaded.Best.TotalTables != 12 {
		t.Errorf("unexpected best summary: %+v", loaded.Best)
	}
	if loaded.Capacity.TotalPanels != 24 || loaded.Capacity.FencedAreaHa != 0.5 {
		t.Errorf("unexpected capacity: %+v", loaded.Capacity)
	}
	if len(loaded.Candidates) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(loaded.Candidates))
	}
	if len(loaded.Diagnostics) != 1 || loaded.Diagnostics[0].Kind != model.DiagnosticFencedEmpty {
		t.Errorf("unexpected diagnostics: %+v", loaded.Diagnostics)
	}
	if len(loaded.Outputs) != 1 || loaded.Outputs[0] != "out/a.pdf" {
		t.Errorf("unexpected outputs: %v", loaded.Outputs)
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadManifestInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadManifestMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noversion.json")
	if err := os.WriteFile(path, []byte(`{"run_id": "x"}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for manifest without version")
	}
}
