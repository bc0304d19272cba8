package model

import (
	"fmt"
	"math"
	"runtime"
)

// LayoutSettings holds every knob of the packer and the pitch sweep.
type LayoutSettings struct {
	PanelsPerTable int `json:"panels_per_table"`

	// Pitch sweep, in metres of spacing added after each table column
	PitchMin  float64 `json:"pitch_min"`
	PitchMax  float64 `json:"pitch_max"`
	PitchStep float64 `json:"pitch_step"`

	// Streets: a corridor of StreetWidth after every TablesBetweenStreets
	// columns. Zero means no streets at all.
	TablesBetweenStreets int     `json:"tables_between_streets"`
	StreetWidth          float64 `json:"street_width"`

	// Inward clearance applied to every enabled zone before packing
	FencedDistance float64 `json:"fenced_distance"`

	// Parallel pitch trials; 0 picks runtime.NumCPU()
	Workers int `json:"workers"`
}

// Unbounded is the TablesBetweenStreets sentinel that disables streets.
const Unbounded = 0

// MaxPitchSamples bounds the number of pitches one sweep may evaluate.
const MaxPitchSamples = 100_000

// sampleTolerance absorbs the rounding of pitchMin + i*step so that a
// pitchMax reachable in exact arithmetic is still sampled.
const sampleTolerance = 1e-9

// PitchSampleCount returns how many values pitchMin + i*step stay at or
// below pitchMax. The count is a float so that a tiny step cannot overflow
// an int; callers compare it against MaxPitchSamples first.
func PitchSampleCount(pitchMin, pitchMax, step float64) float64 {
	return math.Floor((pitchMax-pitchMin)/step+sampleTolerance) + 1
}

// PitchSamples returns the sample count of the sweep settings.
func (s LayoutSettings) PitchSamples() float64 {
	return PitchSampleCount(s.PitchMin, s.PitchMax, s.PitchStep)
}

// DefaultLayoutSettings returns a single-pitch run with two panels per table,
// no streets and no fencing.
func DefaultLayoutSettings() LayoutSettings {
	return LayoutSettings{
		PanelsPerTable:       2,
		PitchMin:             5.0,
		PitchMax:             5.0,
		PitchStep:            0.5,
		TablesBetweenStreets: Unbounded,
		StreetWidth:          0,
		FencedDistance:       0,
		Workers:              0,
	}
}

// FixedPitch returns a copy of s whose sweep degenerates to a single pitch.
func (s LayoutSettings) FixedPitch(pitch float64) LayoutSettings {
	s.PitchMin = pitch
	s.PitchMax = pitch
	if s.PitchStep <= 0 {
		s.PitchStep = 1
	}
	return s
}

// StreetsEnabled reports whether the packer will insert streets.
func (s LayoutSettings) StreetsEnabled() bool {
	return s.TablesBetweenStreets > 0
}

// WorkerCount resolves the effective number of sweep workers.
func (s LayoutSettings) WorkerCount() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

// ConfigError reports a setting that makes the run impossible. It is returned
// before any packing starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Validate checks the settings and returns the first *ConfigError found.
func (s LayoutSettings) Validate() error {
	switch {
	case s.PanelsPerTable <= 0:
		return &ConfigError{Field: "panels_per_table", Reason: "must be a positive integer"}
	case s.PitchStep <= 0:
		return &ConfigError{Field: "pitch_step", Reason: "must be positive"}
	case s.PitchMin <= 0:
		return &ConfigError{Field: "pitch_min", Reason: "must be positive"}
	case s.PitchMin > s.PitchMax:
		return &ConfigError{Field: "pitch_min", Reason: fmt.Sprintf("(%g) is greater than pitch_max (%g)", s.PitchMin, s.PitchMax)}
	case s.PitchSamples() > MaxPitchSamples:
		return &ConfigError{Field: "pitch_step", Reason: fmt.Sprintf("(%g) yields more than %d pitch samples", s.PitchStep, MaxPitchSamples)}
	case s.TablesBetweenStreets < 0:
		return &ConfigError{Field: "tables_between_streets", Reason: "must be positive, or 0 for no streets"}
	case s.StreetWidth < 0:
		return &ConfigError{Field: "street_width", Reason: "must not be negative"}
	case s.FencedDistance < 0:
		return &ConfigError{Field: "fenced_distance", Reason: "must not be negative"}
	case s.Workers < 0:
		return &ConfigError{Field: "workers", Reason: "must not be negative"}
	}
	return nil
}

// Validate checks that the module can form a table footprint.
func (m ModuleSpec) Validate() error {
	switch {
	case m.Length <= 0:
		return &ConfigError{Field: "module.length", Reason: "must be positive"}
	case m.Width <= 0:
		return &ConfigError{Field: "module.width", Reason: "must be positive"}
	case m.STC < 0:
		return &ConfigError{Field: "module.stc", Reason: "must not be negative"}
	}
	return nil
}
