// Package physics provides the dynamics models for propagation.
//
// Each model implements the [dynamo.System] interface, defining the
// differential equation governing the propagated state:
//
//   - [TwoBody]: point mass under a central inverse-square gravity field
//
// Models also implement [dynamo.Hamiltonian] so energy drift can be
// monitored:
//
//	dyn := physics.NewTwoBody(physics.EarthMu)
//	if h, ok := dyn.(dynamo.Hamiltonian); ok {
//	    energy := h.Energy(state)
//	}
package physics
