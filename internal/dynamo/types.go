package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// State is the position/velocity pair of the propagated point mass.
type State struct {
	Position r3.Vec
	Velocity r3.Vec
}

// NewState builds a state from six components.
func NewState(px, py, pz, vx, vy, vz float64) State {
	return State{
		Position: r3.Vec{X: px, Y: py, Z: pz},
		Velocity: r3.Vec{X: vx, Y: vy, Z: vz},
	}
}

func (s State) Add(other State) State {
	return State{
		Position: r3.Add(s.Position, other.Position),
		Velocity: r3.Add(s.Velocity, other.Velocity),
	}
}

func (s State) Sub(other State) State {
	return State{
		Position: r3.Sub(s.Position, other.Position),
		Velocity: r3.Sub(s.Velocity, other.Velocity),
	}
}

func (s State) Scale(factor float64) State {
	return State{
		Position: r3.Scale(factor, s.Position),
		Velocity: r3.Scale(factor, s.Velocity),
	}
}

// ErrorNorm is the Euclidean norm of the position part only. Position and
// velocity errors carry different units, so the controller works on a
// distance error.
func (s State) ErrorNorm() float64 {
	return r3.Norm(s.Position)
}

func (s State) Radius() float64 { return r3.Norm(s.Position) }
func (s State) Speed() float64  { return r3.Norm(s.Velocity) }

// IsDegenerate reports a position at the force singularity.
func (s State) IsDegenerate() bool {
	return s.Position == r3.Vec{}
}

func (s State) IsValid() bool {
	for _, v := range s.Components() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Components returns px, py, pz, vx, vy, vz in output column order.
func (s State) Components() [6]float64 {
	return [6]float64{
		s.Position.X, s.Position.Y, s.Position.Z,
		s.Velocity.X, s.Velocity.Y, s.Velocity.Z,
	}
}

func (s State) String() string {
	return fmt.Sprintf("r=(%g, %g, %g) v=(%g, %g, %g)",
		s.Position.X, s.Position.Y, s.Position.Z,
		s.Velocity.X, s.Velocity.Y, s.Velocity.Z)
}

// System maps (time, state) to the state derivative.
type System interface {
	Derive(t float64, s State) State
}

type Hamiltonian interface {
	Energy(s State) float64
}

// Integrator advances a state by one fixed step.
type Integrator interface {
	Step(dyn System, t float64, x State, h float64) State
}

// EmbeddedIntegrator also returns the local error estimate of the step.
type EmbeddedIntegrator interface {
	Integrator
	StepWithError(dyn System, t float64, x State, h float64) (State, float64, error)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// StepInfo describes one attempted integration step.
type StepInfo struct {
	Step     int
	Time     float64 // time at the start of the step
	H        float64 // attempted step size
	NextH    float64
	Err      float64
	Accepted bool
	Start    State // state at the start of the step
	State    State // state after the step if accepted, before it otherwise
}

type Metric interface {
	Name() string
	Observe(info StepInfo)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(info StepInfo)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(info StepInfo)

func (f ObserverFunc) OnStep(info StepInfo) { f(info) }

// Config is the initial condition and integration interval of a run.
type Config struct {
	Name         string
	InitialState State
	StartTime    float64
	StopTime     float64
}

func (c Config) Duration() float64 { return c.StopTime - c.StartTime }

type Sample struct {
	Time  float64
	State State
}

// Trajectory is an ordered sequence of samples with strictly increasing time.
type Trajectory struct {
	Samples []Sample
}

func NewTrajectory(capacity int) *Trajectory {
	return &Trajectory{Samples: make([]Sample, 0, capacity)}
}

func (tr *Trajectory) Append(t float64, s State) {
	tr.Samples = append(tr.Samples, Sample{Time: t, State: s})
}

func (tr *Trajectory) Len() int { return len(tr.Samples) }

func (tr *Trajectory) First() Sample { return tr.Samples[0] }

func (tr *Trajectory) Last() Sample { return tr.Samples[len(tr.Samples)-1] }

func (tr *Trajectory) Times() []float64 {
	times := make([]float64, len(tr.Samples))
	for i, s := range tr.Samples {
		times[i] = s.Time
	}
	return times
}

func (tr *Trajectory) Radii() []float64 {
	radii := make([]float64, len(tr.Samples))
	for i, s := range tr.Samples {
		radii[i] = s.State.Radius()
	}
	return radii
}
