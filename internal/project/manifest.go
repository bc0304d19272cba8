package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/pvlayout/internal/model"
)

// ManifestVersion is the format version written to new manifests.
const ManifestVersion = "1.0.0"

// Manifest records what a run did: its inputs, the sweep and the files it
// wrote. It is the only state a run leaves besides its exports.
type Manifest struct {
	Version     string                    `json:"version"`
	RunID       string                    `json:"run_id"`
	CreatedAt   string                    `json:"created_at"`
	Project     string                    `json:"project"`
	Module      model.ModuleSpec          `json:"module"`
	Settings    model.LayoutSettings      `json:"settings"`
	Best        model.CandidateSummary    `json:"best"`
	Capacity    model.CapacityReport      `json:"capacity"`
	Procurement model.ProcurementEstimate `json:"procurement"`
	Candidates  []model.CandidateSummary  `json:"candidates"`
	Diagnostics []model.Diagnostic        `json:"diagnostics,omitempty"`
	Outputs     []string                  `json:"outputs,omitempty"`
}

// NewManifest builds the manifest of a finished run.
func NewManifest(cfg Config, module model.ModuleSpec, result model.OptimizationResult, outputs []string) Manifest {
	return Manifest{
		Version:     ManifestVersion,
		RunID:       result.RunID,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Project:     cfg.Project.Name,
		Module:      module,
		Settings:    cfg.Layout,
		Best:        result.Best.Summary(),
		Capacity:    model.CalculateCapacity(result.Best, module, cfg.Layout.PanelsPerTable, result.FencedArea, cfg.Project.Racking, cfg.Project.ModulesPerString),
		Procurement: model.CalculateProcurement(result.Best.TotalPanels, cfg.Project.ModulesPerString, cfg.Project.SparePercent, cfg.Project.PalletSize, module.STC),
		Candidates:  result.Candidates,
		Diagnostics: result.Diagnostics,
		Outputs:     outputs,
	}
}

// SaveManifest writes m as indented JSON, creating parent directories.
func SaveManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by SaveManifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Version == "" {
		return Manifest{}, fmt.Errorf("invalid manifest: missing version field")
	}
	if m.Candidates == nil {
		m.Candidates = []model.CandidateSummary{}
	}
	return m, nil
}
