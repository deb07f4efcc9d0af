package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitprop/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// EarthMu is Earth's gravitational parameter in km^3/s^2.
const EarthMu = dynamo.DefaultMu

// TwoBody implements motion about a single central body.
// State: position (km) and velocity (km/s) relative to the body's center.
type TwoBody struct {
	mu float64 // Gravitational parameter
}

func NewTwoBody(mu float64) *TwoBody {
	return &TwoBody{mu: mu}
}

func (tb *TwoBody) Mu() float64 { return tb.mu }

// Derive returns the velocity and an acceleration of magnitude
// Acceleration(|r|) pointing at the center. The time argument is unused. A
// zero position is a caller precondition violation and yields non-finite
// components.
func (tb *TwoBody) Derive(_ float64, s dynamo.State) dynamo.State {
	r := r3.Norm(s.Position)
	return dynamo.State{
		Position: s.Velocity,
		Velocity: r3.Scale(-tb.Acceleration(r)/r, s.Position),
	}
}

// Energy implements dynamo.Hamiltonian as the specific orbital energy.
func (tb *TwoBody) Energy(s dynamo.State) float64 {
	v := r3.Norm(s.Velocity)
	return 0.5*v*v - tb.mu/r3.Norm(s.Position)
}

// AngularMomentum returns the specific angular momentum vector r x v.
func (tb *TwoBody) AngularMomentum(s dynamo.State) r3.Vec {
	return r3.Cross(s.Position, s.Velocity)
}

// Acceleration returns the magnitude mu/r^2 at the given radius.
func (tb *TwoBody) Acceleration(r float64) float64 {
	return tb.mu / (r * r)
}

// GetParams implements dynamo.Configurable
func (tb *TwoBody) GetParams() map[string]float64 {
	return map[string]float64{"mu": tb.mu}
}

// SetParam implements dynamo.Configurable
func (tb *TwoBody) SetParam(name string, value float64) error {
	if name != "mu" {
		return fmt.Errorf("%w: unknown parameter %q", dynamo.ErrInvalidSettings, name)
	}
	if !(value > 0) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: mu must be positive and finite, got %g", dynamo.ErrInvalidSettings, value)
	}
	tb.mu = value
	return nil
}
