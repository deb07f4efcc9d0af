// Package automation runs families of propagations that differ in one
// setting.
package automation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/metrics"
	"github.com/san-kum/orbitprop/internal/physics"
	"github.com/san-kum/orbitprop/internal/sim"
)

// SweepParams lists the settings a sweep can vary.
var SweepParams = []string{"mu", "safety", "accuracy", "initial_step", "max_growth", "min_step", "min_radius"}

// ParameterSweep propagates Config once per value of the setting Param,
// all other settings taken from Base.
type ParameterSweep struct {
	Config dynamo.Config
	Base   dynamo.Settings
	Param  string
	Values []float64
}

// SweepResult holds one propagation of a sweep.
type SweepResult struct {
	Value       float64
	Samples     int
	Steps       int
	EnergyDrift float64 // max |E - E0| / |E0| over the samples
	Final       dynamo.State
	Elapsed     time.Duration
	Err         error
}

// ApplyParam returns s with the named setting replaced by v, validated.
func ApplyParam(s dynamo.Settings, name string, v float64) (dynamo.Settings, error) {
	switch name {
	case "mu":
		s.Mu = v
	case "safety":
		s.Safety = v
	case "accuracy":
		s.Accuracy = v
	case "initial_step":
		s.InitialStep = v
	case "max_growth":
		s.MaxGrowth = v
	case "min_step":
		s.MinStep = v
	case "min_radius":
		s.MinRadius = v
	default:
		return s, fmt.Errorf("%w: cannot sweep %q (want one of %v)", dynamo.ErrInvalidSettings, name, SweepParams)
	}
	return s, s.Validate()
}

// RunSweep runs the sweep on batch, replacing its metrics. Every value is
// checked before any propagation starts. Failed propagations are reported in their result.
func RunSweep(ctx context.Context, sweep *ParameterSweep, batch *sim.Batch) ([]SweepResult, error) {
	if len(sweep.Values) == 0 {
		return nil, fmt.Errorf("sweep of %s has no values", sweep.Param)
	}

	jobs := make([]sim.Job, len(sweep.Values))
	for i, v := range sweep.Values {
		s, err := ApplyParam(sweep.Base, sweep.Param, v)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}
		cfg := sweep.Config
		cfg.Name = fmt.Sprintf("%s %s=%g", sweep.Config.Name, sweep.Param, v)
		jobs[i] = sim.Job{Config: cfg, Settings: s}
	}

	batch.WithMetrics(func() []dynamo.Metric {
		return []dynamo.Metric{metrics.NewStepStats()}
	})
	batchResults, err := batch.Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(batchResults))
	for i, br := range batchResults {
		r := SweepResult{Value: sweep.Values[i], Elapsed: br.Elapsed, Err: br.Err}
		if br.Err == nil {
			r.Samples = br.Trajectory.Len()
			r.Steps = int(br.Metrics["steps"])
			r.Final = br.Trajectory.Last().State
			r.EnergyDrift = energyDrift(br.Trajectory, physics.NewTwoBody(br.Job.Settings.Mu))
		}
		results[i] = r
	}
	return results, nil
}

func energyDrift(traj *dynamo.Trajectory, h dynamo.Hamiltonian) float64 {
	e0 := h.Energy(traj.First().State)
	var drift float64
	for _, s := range traj.Samples[1:] {
		drift = math.Max(drift, math.Abs(h.Energy(s.State)-e0))
	}
	if e0 != 0 {
		drift /= math.Abs(e0)
	}
	return drift
}
