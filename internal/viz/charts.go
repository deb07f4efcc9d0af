package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// RadiusChart plots the radius of every sample against the sample index.
func RadiusChart(traj *dynamo.Trajectory, width, height int) string {
	return lineChart(traj.Radii(), width, height, "radius (km)")
}

// EnergyChart plots the specific energy of every sample.
func EnergyChart(traj *dynamo.Trajectory, h dynamo.Hamiltonian, width, height int) string {
	energy := make([]float64, traj.Len())
	for i, s := range traj.Samples {
		energy[i] = h.Energy(s.State)
	}
	return lineChart(energy, width, height, "energy (km^2/s^2)")
}

func lineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
