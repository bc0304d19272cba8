// Package project loads the project file of a layout run and resolves it
// into the inputs of the optimizer: zones, module and layout settings.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/piwi3910/pvlayout/internal/importer"
	"github.com/piwi3910/pvlayout/internal/model"
)

// EnvPrefix marks environment variables that override project file values.
// PVLAYOUT_LAYOUT__PITCH_MIN=4.5 sets layout.pitch_min.
const EnvPrefix = "PVLAYOUT_"

// DefaultConfigName is looked up in the working directory when no project
// file is given.
const DefaultConfigName = "pvlayout.yaml"

// Export formats.
const (
	FormatXLSX     = "xlsx"
	FormatKMZ      = "kmz"
	FormatDXF      = "dxf"
	FormatPDF      = "pdf"
	FormatLabels   = "labels"
	FormatChart    = "chart"
	FormatManifest = "manifest"
)

// AllFormats lists every export format in the order they are written.
var AllFormats = []string{FormatXLSX, FormatKMZ, FormatDXF, FormatPDF, FormatLabels, FormatChart, FormatManifest}

// Config is the content of a project file.
type Config struct {
	Project ProjectConfig        `json:"project"`
	Zones   ZonesConfig          `json:"zones"`
	Module  ModuleConfig         `json:"module"`
	Layout  model.LayoutSettings `json:"layout"`
	Export  ExportConfig         `json:"export"`
	Logging LoggingConfig        `json:"logging"`
	Metrics MetricsConfig        `json:"metrics"`
}

// ProjectConfig names the plant and the reporting figures that do not
// affect packing.
type ProjectConfig struct {
	Name             string `json:"name"`
	Racking          string `json:"racking"` // "Tracker" or "Fixed"
	ModulesPerString int    `json:"modules_per_string"`

	// Procurement: breakage reserve in percent and modules per pallet
	SparePercent float64 `json:"spare_percent"`
	PalletSize   int     `json:"pallet_size"`
}

// ZonesConfig points at the zone sources. Either KML or EnabledDXF is set.
type ZonesConfig struct {
	KML           string `json:"kml"`
	EnabledDXF    string `json:"enabled_dxf"`
	RestrictedDXF string `json:"restricted_dxf"`
	InputCRS      string `json:"input_crs"`
	OutputCRS     string `json:"output_crs"`
}

// ModuleConfig selects the panel, either from a catalog by ID or inline.
type ModuleConfig struct {
	Catalog string  `json:"catalog"`
	ID      string  `json:"id"`
	Model   string  `json:"model"`
	Length  float64 `json:"length"`
	Width   float64 `json:"width"`
	STC     float64 `json:"stc"`
}

// ExportConfig selects the files written after a run.
type ExportConfig struct {
	Dir     string   `json:"dir"`
	Formats []string `json:"formats"`
}

// LoggingConfig sets the log output.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or console
}

// MetricsConfig enables the Prometheus textfile written after a run.
type MetricsConfig struct {
	Textfile string `json:"textfile"`
}

// Default returns a configuration with every default applied and no zone
// or module source.
func Default() Config {
	cfg := Config{Layout: model.DefaultLayoutSettings()}
	cfg.SetDefaults()
	return cfg
}

// Load reads a YAML or JSON project file, applies PVLAYOUT_ environment
// overrides, fills defaults and validates the result. Relative paths in the
// file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Unmarshal over the defaults so keys absent from the file keep them.
	cfg := Config{Layout: model.DefaultLayoutSettings()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	cfg.SetDefaults()
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills empty fields.
func (c *Config) SetDefaults() {
	if c.Project.Racking == "" {
		c.Project.Racking = "Fixed"
	}
	if c.Zones.InputCRS == "" {
		c.Zones.InputCRS = importer.DefaultInputCRS
	}
	if c.Zones.OutputCRS == "" {
		c.Zones.OutputCRS = importer.DefaultOutputCRS
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "output"
	}
	if len(c.Export.Formats) == 0 {
		c.Export.Formats = append([]string(nil), AllFormats...)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{
		&c.Zones.KML, &c.Zones.EnabledDXF, &c.Zones.RestrictedDXF,
		&c.Module.Catalog, &c.Export.Dir, &c.Metrics.Textfile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Validate checks every section and returns the first problem found.
func (c Config) Validate() error {
	if err := c.Zones.Validate(); err != nil {
		return err
	}
	if err := c.Module.Validate(); err != nil {
		return err
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.Export.Validate(); err != nil {
		return err
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	if c.Project.ModulesPerString < 0 {
		return &model.ConfigError{Field: "project.modules_per_string", Reason: "must not be negative"}
	}
	if c.Project.SparePercent < 0 {
		return &model.ConfigError{Field: "project.spare_percent", Reason: "must not be negative"}
	}
	if c.Project.PalletSize < 0 {
		return &model.ConfigError{Field: "project.pallet_size", Reason: "must not be negative"}
	}
	return nil
}

// Validate checks that exactly one zone source is configured.
func (z ZonesConfig) Validate() error {
	switch {
	case z.KML == "" && z.EnabledDXF == "":
		return &model.ConfigError{Field: "zones", Reason: "needs a kml file or an enabled_dxf file"}
	case z.KML != "" && z.EnabledDXF != "":
		return &model.ConfigError{Field: "zones", Reason: "takes either kml or enabled_dxf, not both"}
	case z.RestrictedDXF != "" && z.EnabledDXF == "":
		return &model.ConfigError{Field: "zones.restricted_dxf", Reason: "requires enabled_dxf"}
	}
	return nil
}

// Validate checks that the module can be resolved.
func (m ModuleConfig) Validate() error {
	if m.Catalog != "" {
		if m.ID == "" {
			return &model.ConfigError{Field: "module.id", Reason: "is required with a catalog"}
		}
		return nil
	}
	return m.inline().Validate()
}

func (m ModuleConfig) inline() model.ModuleSpec {
	return model.ModuleSpec{ID: m.ID, Model: m.Model, Length: m.Length, Width: m.Width, STC: m.STC}
}

// Validate rejects unknown export formats.
func (e ExportConfig) Validate() error {
	for _, f := range e.Formats {
		if !isKnownFormat(f) {
			return &model.ConfigError{Field: "export.formats", Reason: fmt.Sprintf("has unknown format %q", f)}
		}
	}
	return nil
}

func isKnownFormat(f string) bool {
	for _, known := range AllFormats {
		if f == known {
			return true
		}
	}
	return false
}

// Wants reports whether format is selected for export.
func (e ExportConfig) Wants(format string) bool {
	for _, f := range e.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Path returns the output file for a format, named after the project.
func (c Config) Path(format string) string {
	base := c.Project.Name
	if base == "" {
		base = "layout"
	}
	base = strings.ReplaceAll(strings.TrimSpace(base), " ", "_")
	var name string
	switch format {
	case FormatLabels:
		name = base + "_labels.pdf"
	case FormatChart:
		name = base + "_sweep.html"
	case FormatManifest:
		name = base + "_manifest.json"
	default:
		name = base + "." + format
	}
	return filepath.Join(c.Export.Dir, name)
}

// FindConfig returns path if set, else DefaultConfigName when it exists in
// the working directory.
func FindConfig(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if _, err := os.Stat(DefaultConfigName); err != nil {
		return "", fmt.Errorf("no project file given and %s not found", DefaultConfigName)
	}
	return DefaultConfigName, nil
}
