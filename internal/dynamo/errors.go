package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for propagation and its collaborators.
var (
	// ErrConfigUnreadable indicates the config path could not be opened or read.
	ErrConfigUnreadable = errors.New("dynamo: config unreadable")

	// ErrConfigMalformed indicates missing or non-numeric config values.
	ErrConfigMalformed = errors.New("dynamo: config malformed")

	// ErrNumericDegeneracy indicates the force singularity was reached or the
	// error estimate vanished with the growth clamp disabled.
	ErrNumericDegeneracy = errors.New("dynamo: numeric degeneracy")

	// ErrDivergence indicates the step size or the state became non-finite.
	ErrDivergence = errors.New("dynamo: propagation diverged (NaN or Inf detected)")

	// ErrNonTermination indicates the run stopped making progress or hit its
	// step or rejection cap.
	ErrNonTermination = errors.New("dynamo: propagation does not terminate")

	// ErrInvalidInterval indicates a stop time before the start time.
	ErrInvalidInterval = errors.New("dynamo: stop time before start time")

	// ErrInvalidSettings indicates a tuning constant outside its valid range.
	ErrInvalidSettings = errors.New("dynamo: invalid settings")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: propagation canceled by context")
)

// SimulationError wraps an error with propagation context.
type SimulationError struct {
	Step    int
	Time    float64
	H       float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g, h=%.6g): %v", e.Step, e.Time, e.H, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// ConfigError carries the offending path of a config failure. Line is 0
// when the failure is not tied to a line.
type ConfigError struct {
	Path    string
	Line    int
	Wrapped error
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Wrapped)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Wrapped)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}
