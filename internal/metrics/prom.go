// Package metrics records pitch sweep statistics in Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/piwi3910/pvlayout/internal/model"
)

// PromSink implements engine.Recorder with Prometheus collectors.
type PromSink struct {
	gatherer prometheus.Gatherer

	trials     prometheus.Counter
	tables     prometheus.Counter
	skipped    *prometheus.CounterVec
	bestEnergy prometheus.Gauge
	bestPitch  prometheus.Gauge
}

// NewPromSink registers the sweep metrics on a fresh registry.
func NewPromSink() (*PromSink, error) {
	reg := prometheus.NewRegistry()
	return NewPromSinkWithRegistry(reg, reg)
}

// NewPromSinkWithRegistry registers the sweep metrics on reg. A nil
// registerer defaults to the global Prometheus registerer; a nil gatherer to
// the global gatherer.
func NewPromSinkWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	trials := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pvlayout_pitch_trials_total",
		Help: "Number of pitch values packed",
	})
	tables := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pvlayout_tables_placed_total",
		Help: "Tables placed over all pitch trials",
	})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pvlayout_zones_skipped_total",
		Help: "Enabled zones left out of packing",
	}, []string{"kind"})
	bestEnergy := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pvlayout_best_energy_watts",
		Help: "Installed DC capacity of the selected layout",
	})
	bestPitch := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pvlayout_best_pitch_meters",
		Help: "Pitch of the selected layout",
	})

	if err := reg.Register(trials); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			trials = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(tables); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			tables = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(skipped); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			skipped = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(bestEnergy); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			bestEnergy = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(bestPitch); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			bestPitch = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		gatherer:   gatherer,
		trials:     trials,
		tables:     tables,
		skipped:    skipped,
		bestEnergy: bestEnergy,
		bestPitch:  bestPitch,
	}, nil
}

// TrialCompleted counts one packed pitch and the tables it placed.
func (s *PromSink) TrialCompleted(_ float64, tables int) {
	s.trials.Inc()
	s.tables.Add(float64(tables))
}

// ZoneSkipped counts an enabled zone that did not take part in packing.
func (s *PromSink) ZoneSkipped(kind model.DiagnosticKind) {
	s.skipped.WithLabelValues(string(kind)).Inc()
}

// BestSelected sets the gauges of the winning layout.
func (s *PromSink) BestSelected(pitch, energy float64) {
	s.bestPitch.Set(pitch)
	s.bestEnergy.Set(energy)
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format, for the node exporter textfile collector.
func (s *PromSink) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, s.gatherer); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
