package metrics

import (
	"math"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// EnergyDrift tracks the largest relative change of the specific orbital
// energy over accepted steps, measured against the state before the first
// step. Systems without an energy function report 0.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	dyn           dynamo.System
}

func NewEnergyDrift(dyn dynamo.System) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		dyn:  dyn,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(info dynamo.StepInfo) {
	if !info.Accepted {
		return
	}
	ec, ok := e.dyn.(dynamo.Hamiltonian)
	if !ok {
		return
	}

	if e.samples == 0 {
		e.initialEnergy = ec.Energy(info.Start)
	}

	energy := ec.Energy(info.State)
	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Final is the relative drift of the last observed state.
func (e *EnergyDrift) Final() float64 {
	if e.samples == 0 || e.initialEnergy == 0 {
		return 0
	}
	return math.Abs(e.currentEnergy-e.initialEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
