package dynamo

import (
	"errors"
	"fmt"
	"math"
)

// StepPolicy decides what happens to a step whose error estimate exceeds
// the accuracy target.
type StepPolicy string

const (
	// AcceptAlways advances with the 5th-order estimate regardless of the
	// error; only the next step shrinks.
	AcceptAlways StepPolicy = "accept_always"
	// RejectOnExceededTolerance retries the step from the same time with
	// the shrunk step size.
	RejectOnExceededTolerance StepPolicy = "reject_on_exceeded_tolerance"
)

// Boundary decides how the run ends at the stop time.
type Boundary string

const (
	// BoundaryClamp truncates the final step so the last sample lies
	// exactly on the stop time.
	BoundaryClamp Boundary = "clamp"
	// BoundaryLegacy keeps the reference loop's bookkeeping: after each
	// step t advances by the updated step size rather than the step just
	// taken, samples are recorded while t <= stop, and the step that
	// crosses stop is discarded.
	BoundaryLegacy Boundary = "legacy"
)

const (
	DefaultMu          = 398600.4418 // km^3/s^2, Earth
	DefaultSafety      = 0.9
	DefaultAccuracy    = 1.0
	DefaultInitialStep = 0.1
	DefaultMaxGrowth   = 10.0
	DefaultMinStep     = 1e-12
	DefaultMinRadius   = 6378.137 // km, Earth's equatorial radius
	DefaultMaxSteps    = 1_000_000
	DefaultMaxRejects  = 100
)

// Settings holds the tuning constants of the adaptive integrator.
type Settings struct {
	Mu          float64    `yaml:"mu" json:"mu" koanf:"mu"`
	Safety      float64    `yaml:"safety" json:"safety" koanf:"safety"`
	Accuracy    float64    `yaml:"accuracy" json:"accuracy" koanf:"accuracy"`
	InitialStep float64    `yaml:"initial_step" json:"initial_step" koanf:"initial_step"`
	MaxGrowth   float64    `yaml:"max_growth" json:"max_growth" koanf:"max_growth"`
	MinStep     float64    `yaml:"min_step" json:"min_step" koanf:"min_step"`
	MinRadius   float64    `yaml:"min_radius" json:"min_radius" koanf:"min_radius"`
	MaxSteps    int        `yaml:"max_steps" json:"max_steps" koanf:"max_steps"`
	MaxRejects  int        `yaml:"max_rejects" json:"max_rejects" koanf:"max_rejects"`
	Policy      StepPolicy `yaml:"policy" json:"policy" koanf:"policy"`
	Boundary    Boundary   `yaml:"boundary" json:"boundary" koanf:"boundary"`
}

func DefaultSettings() Settings {
	return Settings{
		Mu:          DefaultMu,
		Safety:      DefaultSafety,
		Accuracy:    DefaultAccuracy,
		InitialStep: DefaultInitialStep,
		MaxGrowth:   DefaultMaxGrowth,
		MinStep:     DefaultMinStep,
		MinRadius:   DefaultMinRadius,
		MaxSteps:    DefaultMaxSteps,
		MaxRejects:  DefaultMaxRejects,
		Policy:      AcceptAlways,
		Boundary:    BoundaryClamp,
	}
}

// Validate checks every field and joins all problems into one error
// wrapping ErrInvalidSettings.
func (s Settings) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s must be positive and finite, got %g", name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s must be non-negative and finite, got %g", name, v))
		}
	}

	positive("mu", s.Mu)
	positive("safety", s.Safety)
	positive("accuracy", s.Accuracy)
	positive("initial_step", s.InitialStep)
	nonNegative("max_growth", s.MaxGrowth)
	nonNegative("min_step", s.MinStep)
	nonNegative("min_radius", s.MinRadius)
	if s.MaxGrowth > 0 && s.MaxGrowth < 1 {
		errs = append(errs, fmt.Errorf("max_growth must be 0 (disabled) or >= 1, got %g", s.MaxGrowth))
	}
	if s.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("max_steps must be positive, got %d", s.MaxSteps))
	}
	if s.MaxRejects < 0 {
		errs = append(errs, fmt.Errorf("max_rejects must be non-negative, got %d", s.MaxRejects))
	}
	switch s.Policy {
	case AcceptAlways, RejectOnExceededTolerance:
	default:
		errs = append(errs, fmt.Errorf("unknown policy %q", s.Policy))
	}
	switch s.Boundary {
	case BoundaryClamp, BoundaryLegacy:
	default:
		errs = append(errs, fmt.Errorf("unknown boundary %q", s.Boundary))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
}
