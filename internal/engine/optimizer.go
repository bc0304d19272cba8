// Package engine packs PV tables into fenced zones and sweeps the column
// pitch to find the layout with the highest installed energy.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/piwi3910/pvlayout/internal/geometry"
	"github.com/piwi3910/pvlayout/internal/logger"
	"github.com/piwi3910/pvlayout/internal/model"
)

var (
	// ErrEmptySweep is returned when a pitch range yields no sample.
	ErrEmptySweep = errors.New("pitch range yields no sample")
	// ErrSweepTooLarge is returned when a pitch range yields more than
	// model.MaxPitchSamples samples.
	ErrSweepTooLarge = fmt.Errorf("pitch range yields more than %d samples", model.MaxPitchSamples)
)

// Recorder receives run statistics. internal/metrics provides a Prometheus
// implementation.
type Recorder interface {
	TrialCompleted(pitch float64, tables int)
	ZoneSkipped(kind model.DiagnosticKind)
	BestSelected(pitch, energy float64)
}

type nopRecorder struct{}

func (nopRecorder) TrialCompleted(float64, int)       {}
func (nopRecorder) ZoneSkipped(model.DiagnosticKind) {}
func (nopRecorder) BestSelected(float64, float64)    {}

// Optimizer runs the pitch sweep for one module and one set of layout
// settings.
type Optimizer struct {
	Settings model.LayoutSettings
	Module   model.ModuleSpec

	log      logger.Logger
	recorder Recorder
	newRunID func() string
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger used during a run.
func WithLogger(l logger.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRecorder sets the statistics sink of the optimizer.
func WithRecorder(r Recorder) Option {
	return func(o *Optimizer) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithRunID fixes the run identifier instead of generating a random UUID.
func WithRunID(id string) Option {
	return func(o *Optimizer) {
		o.newRunID = func() string { return id }
	}
}

// New validates the settings and the module and returns an Optimizer. A
// rejected configuration is reported as a *model.ConfigError.
func New(settings model.LayoutSettings, module model.ModuleSpec, opts ...Option) (*Optimizer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := module.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{
		Settings: settings,
		Module:   module,
		log:      logger.Nop{},
		recorder: nopRecorder{},
		newRunID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// SampleCount returns the number of pitches pitchMin + i*step that stay at
// or below pitchMax.
func SampleCount(pitchMin, pitchMax, step float64) (int, error) {
	if !(step > 0) || math.IsNaN(pitchMin) || math.IsNaN(pitchMax) || pitchMin > pitchMax {
		return 0, ErrEmptySweep
	}
	n := model.PitchSampleCount(pitchMin, pitchMax, step)
	if n > model.MaxPitchSamples {
		return 0, ErrSweepTooLarge
	}
	return int(n), nil
}

func pitchAt(pitchMin, step float64, i int) float64 {
	return pitchMin + float64(i)*step
}

// SamplePitches returns pitchMin + i*step for every i that keeps the value
// at or below pitchMax, in ascending order.
func SamplePitches(pitchMin, pitchMax, step float64) ([]float64, error) {
	n, err := SampleCount(pitchMin, pitchMax, step)
	if err != nil {
		return nil, err
	}
	pitches := make([]float64, n)
	for i := range pitches {
		pitches[i] = pitchAt(pitchMin, step, i)
	}
	return pitches, nil
}

// preparedZone is an enabled zone ready for packing.
type preparedZone struct {
	index int
	zone  *geometry.FencedZone
}

// preparation is the pitch-independent part of a run, computed once.
type preparation struct {
	zones       []preparedZone
	restricted  *geometry.RestrictedUnion
	diagnostics []model.Diagnostic
	fencedArea  float64
}

func (o *Optimizer) prepare(zones model.ZoneSet) preparation {
	var prep preparation
	for i, p := range zones.Enabled {
		fz, err := geometry.Fence(p, o.Settings.FencedDistance)
		if err != nil {
			o.log.Warnf("skipping enabled zone %d: %v", i, err)
			o.recorder.ZoneSkipped(model.DiagnosticInvalidGeometry)
			prep.diagnostics = append(prep.diagnostics, model.Diagnostic{
				ZoneIndex: i,
				Kind:      model.DiagnosticInvalidGeometry,
				Message:   err.Error(),
			})
			continue
		}
		prep.fencedArea += fz.SourceArea()
		if fz.Empty() {
			o.log.Infof("enabled zone %d has no area left after fencing by %g", i, o.Settings.FencedDistance)
			o.recorder.ZoneSkipped(model.DiagnosticFencedEmpty)
			prep.diagnostics = append(prep.diagnostics, model.Diagnostic{
				ZoneIndex: i,
				Kind:      model.DiagnosticFencedEmpty,
				Message:   fmt.Sprintf("no area left after fencing by %g", o.Settings.FencedDistance),
			})
			continue
		}
		prep.zones = append(prep.zones, preparedZone{index: i, zone: fz})
	}
	for i, p := range zones.Restricted {
		if err := geometry.Validate(p); err != nil {
			o.log.Warnf("restricted zone %d: %v", i, err)
		}
	}
	prep.restricted = geometry.NewRestrictedUnion(zones.Restricted)
	return prep
}

// evaluate packs every prepared zone at one pitch and totals the result.
func (o *Optimizer) evaluate(prep *preparation, size model.TableSize, pitch float64) model.PitchCandidate {
	streets := StreetConfig{
		TablesBetweenStreets: o.Settings.TablesBetweenStreets,
		Width:                o.Settings.StreetWidth,
	}
	c := model.PitchCandidate{Pitch: pitch}
	for _, pz := range prep.zones {
		layout := PackZone(pz.zone, prep.restricted, size, pitch, streets, pz.index)
		c.Tables = append(c.Tables, layout.Tables...)
		c.Streets = append(c.Streets, layout.Streets...)
		c.Columns += layout.Columns
	}
	c.TotalTables = len(c.Tables)
	c.TotalPanels = model.TotalPanels(c.TotalTables, o.Settings.PanelsPerTable)
	c.TotalEnergy = model.TotalEnergy(c.TotalTables, o.Settings.PanelsPerTable, o.Module.STC)
	return c
}

// Optimize runs one packing trial per sampled pitch and returns the trial
// with the highest energy; ties go to the lowest pitch. Invalid enabled
// zones are skipped and reported in the result diagnostics. A cancelled
// context stops the sweep between trials and its error is returned.
//
// Only the summary of each trial is kept; the winning pitch is packed a
// second time to produce its geometry.
func (o *Optimizer) Optimize(ctx context.Context, zones model.ZoneSet) (model.OptimizationResult, error) {
	pitchMin, step := o.Settings.PitchMin, o.Settings.PitchStep
	n, err := SampleCount(pitchMin, o.Settings.PitchMax, step)
	if err != nil {
		return model.OptimizationResult{}, err
	}
	runID := o.newRunID()
	prep := o.prepare(zones)
	size := o.Module.TableSize(o.Settings.PanelsPerTable)

	o.log.Debugw("starting pitch sweep", map[string]any{
		"run_id":  runID,
		"pitches": n,
		"zones":   len(prep.zones),
		"skipped": len(prep.diagnostics),
		"workers": o.Settings.WorkerCount(),
	})

	summaries := make([]model.CandidateSummary, n)
	energies := make([]float64, n)
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := min(o.Settings.WorkerCount(), n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				c := o.evaluate(&prep, size, pitchAt(pitchMin, step, i))
				summaries[i] = c.Summary()
				energies[i] = c.TotalEnergy
				o.recorder.TrialCompleted(c.Pitch, c.TotalTables)
				o.log.Debugf("pitch %.3f: %d tables, %d streets, %.0f W", c.Pitch, c.TotalTables, len(c.Streets), c.TotalEnergy)
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		o.log.Warnf("pitch sweep %s cancelled: %v", runID, err)
		return model.OptimizationResult{}, err
	}

	best := o.evaluate(&prep, size, pitchAt(pitchMin, step, floats.MaxIdx(energies)))
	o.recorder.BestSelected(best.Pitch, best.TotalEnergy)
	o.log.Infof("best pitch %.3f: %d tables, %d panels, %.0f W", best.Pitch, best.TotalTables, best.TotalPanels, best.TotalEnergy)

	return model.OptimizationResult{
		RunID:       runID,
		Best:        best,
		Candidates:  summaries,
		Diagnostics: prep.diagnostics,
		FencedArea:  prep.fencedArea,
	}, nil
}
