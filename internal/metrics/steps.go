package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// StepStats counts accepted and rejected steps and keeps the accepted step
// sizes. Its value is the number of accepted steps.
type StepStats struct {
	name     string
	accepted int
	rejected int
	sizes    []float64
	errs     []float64
}

func NewStepStats() *StepStats {
	return &StepStats{name: "steps"}
}

func (s *StepStats) Name() string { return s.name }

func (s *StepStats) Observe(info dynamo.StepInfo) {
	if !info.Accepted {
		s.rejected++
		return
	}
	s.accepted++
	s.sizes = append(s.sizes, info.H)
	s.errs = append(s.errs, info.Err)
}

func (s *StepStats) Value() float64 { return float64(s.accepted) }

func (s *StepStats) Accepted() int { return s.accepted }
func (s *StepStats) Rejected() int { return s.rejected }

func (s *StepStats) MinStep() float64 {
	if len(s.sizes) == 0 {
		return 0
	}
	return floats.Min(s.sizes)
}

func (s *StepStats) MaxStep() float64 {
	if len(s.sizes) == 0 {
		return 0
	}
	return floats.Max(s.sizes)
}

func (s *StepStats) MeanStep() float64 {
	if len(s.sizes) == 0 {
		return 0
	}
	return floats.Sum(s.sizes) / float64(len(s.sizes))
}

// MaxErr is the largest error estimate among accepted steps.
func (s *StepStats) MaxErr() float64 {
	if len(s.errs) == 0 {
		return 0
	}
	return floats.Max(s.errs)
}

func (s *StepStats) Reset() {
	s.accepted = 0
	s.rejected = 0
	s.sizes = s.sizes[:0]
	s.errs = s.errs[:0]
}
