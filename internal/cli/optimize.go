package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/pvlayout/internal/engine"
	"github.com/piwi3910/pvlayout/internal/export"
	"github.com/piwi3910/pvlayout/internal/logger"
	"github.com/piwi3910/pvlayout/internal/metrics"
	"github.com/piwi3910/pvlayout/internal/model"
	"github.com/piwi3910/pvlayout/internal/project"
)

type optimizeOptions struct {
	*rootOptions
	outDir        string
	formats       []string
	workers       int
	metricsFile   string
	compare       bool
	scenariosFile string
}

func newOptimizeCmd(root *rootOptions) *cobra.Command {
	opts := &optimizeOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run the pitch sweep and write the layout exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.outDir, "out", "o", "", "output directory (overrides export.dir)")
	f.StringSliceVar(&opts.formats, "formats", nil, "export formats (overrides export.formats)")
	f.IntVar(&opts.workers, "workers", 0, "parallel pitch trials, 0 for one per CPU (overrides layout.workers)")
	f.StringVar(&opts.metricsFile, "metrics", "", "write Prometheus metrics to this textfile (overrides metrics.textfile)")
	f.BoolVar(&opts.compare, "compare", false, "compare layout scenarios instead of exporting a single layout")
	f.StringVar(&opts.scenariosFile, "scenarios", "", "JSON scenario file for --compare; built-in what-ifs when empty")
	return cmd
}

func (o *optimizeOptions) applyFlags(cmd *cobra.Command, cfg *project.Config) error {
	if cmd.Flags().Changed("out") {
		cfg.Export.Dir = o.outDir
	}
	if cmd.Flags().Changed("formats") {
		cfg.Export.Formats = o.formats
	}
	if cmd.Flags().Changed("workers") {
		cfg.Layout.Workers = o.workers
	}
	if cmd.Flags().Changed("metrics") {
		cfg.Metrics.Textfile = o.metricsFile
	}
	return cfg.Validate()
}

func (o *optimizeOptions) run(cmd *cobra.Command) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	if err := o.applyFlags(cmd, cfg); err != nil {
		return err
	}
	log := logger.New("optimize")

	module, err := cfg.Module.Resolve()
	if err != nil {
		return fmt.Errorf("module: %w", err)
	}
	zones, err := cfg.Zones.LoadZones()
	if err != nil {
		return err
	}
	for _, w := range zones.Warnings {
		log.Warnf("%s", w)
	}
	log.Infof("loaded %d enabled and %d restricted zones, module %s (%.0f W)",
		len(zones.Set.Enabled), len(zones.Set.Restricted), module.Model, module.STC)

	var sink *metrics.PromSink
	engineOpts := []engine.Option{engine.WithLogger(logger.New("optimizer"))}
	if cfg.Metrics.Textfile != "" {
		if sink, err = metrics.NewPromSink(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		engineOpts = append(engineOpts, engine.WithRecorder(sink))
	}

	if o.compare {
		if err := o.runComparison(cmd, cfg, module, zones.Set, engineOpts); err != nil {
			return err
		}
		return writeMetrics(sink, cfg.Metrics.Textfile, log)
	}

	opt, err := engine.New(cfg.Layout, module, engineOpts...)
	if err != nil {
		return err
	}
	result, err := opt.Optimize(cmd.Context(), zones.Set)
	if err != nil {
		return err
	}
	for _, d := range result.Diagnostics {
		log.Warnf("zone %d skipped (%s): %s", d.ZoneIndex+1, d.Kind, d.Message)
	}

	rep := export.Report{
		ProjectName:      cfg.Project.Name,
		Module:           module,
		Settings:         cfg.Layout,
		Zones:            zones.Set,
		Result:           result,
		Racking:          cfg.Project.Racking,
		ModulesPerString: cfg.Project.ModulesPerString,
		SparePercent:     cfg.Project.SparePercent,
		PalletSize:       cfg.Project.PalletSize,
	}
	var toWGS84 export.PointProjector
	if zones.ToWGS84 != nil {
		toWGS84 = zones.ToWGS84
	}
	outputs, err := writeExports(*cfg, rep, toWGS84, log)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), rep, outputs)
	return writeMetrics(sink, cfg.Metrics.Textfile, log)
}

func (o *optimizeOptions) runComparison(cmd *cobra.Command, cfg *project.Config, module model.ModuleSpec, zones model.ZoneSet, engineOpts []engine.Option) error {
	scenarios := engine.BuildDefaultScenarios(cfg.Layout)
	if o.scenariosFile != "" {
		var err error
		if scenarios, err = project.LoadScenarios(o.scenariosFile, cfg.Layout); err != nil {
			return fmt.Errorf("scenarios: %w", err)
		}
	}
	results, err := engine.CompareScenarios(cmd.Context(), scenarios, module, zones, engineOpts...)
	if err != nil {
		return err
	}
	printComparison(cmd.OutOrStdout(), results)
	return nil
}

func writeMetrics(sink *metrics.PromSink, path string, log logger.Logger) error {
	if sink == nil {
		return nil
	}
	if err := sink.WriteTextfile(path); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	log.Debugf("metrics written to %s", path)
	return nil
}

// writeExports writes every selected format and returns the written paths.
func writeExports(cfg project.Config, rep export.Report, toWGS84 export.PointProjector, log logger.Logger) ([]string, error) {
	if err := os.MkdirAll(cfg.Export.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	writers := map[string]func(path string) error{
		project.FormatXLSX: func(p string) error { return export.WriteWorkbook(p, rep) },
		project.FormatKMZ:  func(p string) error { return export.WriteKMZ(p, rep, toWGS84) },
		project.FormatDXF:  func(p string) error { return export.WriteDXF(p, rep) },
		project.FormatPDF:  func(p string) error { return export.WritePDF(p, rep) },
		project.FormatLabels: func(p string) error {
			return export.ExportTableLabels(p, rep)
		},
		project.FormatChart: func(p string) error { return export.WriteSweepChart(p, rep.Result) },
	}

	var outputs []string
	for _, format := range project.AllFormats {
		write, ok := writers[format]
		if !ok || !cfg.Export.Wants(format) {
			continue
		}
		path := cfg.Path(format)
		err := write(path)
		if format == project.FormatLabels && errors.Is(err, export.ErrNoTables) {
			log.Infof("no tables placed, label sheet skipped")
			continue
		}
		if err != nil {
			return outputs, fmt.Errorf("export %s: %w", format, err)
		}
		log.Infof("wrote %s", path)
		outputs = append(outputs, path)
	}

	if cfg.Export.Wants(project.FormatManifest) {
		path := cfg.Path(project.FormatManifest)
		m := project.NewManifest(cfg, rep.Module, rep.Result, outputs)
		if err := project.SaveManifest(path, m); err != nil {
			return outputs, err
		}
		log.Infof("wrote %s", path)
		outputs = append(outputs, path)
	}
	return outputs, nil
}

func printSummary(w io.Writer, rep export.Report, outputs []string) {
	c := rep.Capacity()
	fmt.Fprintf(w, "Run %s\n", rep.Result.RunID)
	fmt.Fprintf(w, "Best pitch:   %.2f m\n", rep.Result.Best.Pitch)
	fmt.Fprintf(w, "Tables:       %d\n", c.TotalTables)
	fmt.Fprintf(w, "Panels:       %d\n", c.TotalPanels)
	fmt.Fprintf(w, "Streets:      %d\n", len(rep.Result.Best.Streets))
	fmt.Fprintf(w, "DC capacity:  %.3f MWp\n", c.DCCapacityMWp)
	fmt.Fprintf(w, "Fenced area:  %.2f ha\n", c.FencedAreaHa)
	if order := rep.Procurement(); order.ModulesToOrder > 0 {
		fmt.Fprintf(w, "Order:        %d modules", order.ModulesToOrder)
		if order.Pallets > 0 {
			fmt.Fprintf(w, " on %d pallets", order.Pallets)
		}
		fmt.Fprintln(w)
	}
	for _, p := range outputs {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

func printComparison(w io.Writer, results []engine.ComparisonResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tPITCH\tTABLES\tENERGY (kWp)\tDELTA (kWp)")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%v\n", r.Scenario.Name, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%d\t%.1f\t%+.1f\n",
			r.Scenario.Name, r.BestPitch, r.TotalTables, r.TotalEnergy/1000, r.EnergyDelta/1000)
	}
	tw.Flush()
}
