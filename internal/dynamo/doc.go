// Package dynamo provides the core propagation primitives for point-mass
// motion under a central force.
//
// The package defines the value types and interfaces shared by the
// integrators, the propagation driver and the I/O collaborators:
//
//   - [State]: position/velocity pair with the arithmetic needed to combine
//     weighted stage derivatives
//   - [System]: dynamics model interface (dX/dt = f(t, X))
//   - [Config]: initial condition and integration bounds
//   - [Settings]: tuning constants of the adaptive integrator
//   - [Trajectory]: time-ordered samples produced by a run
//
// # Example
//
//	dyn := physics.NewTwoBody(physics.EarthMu)
//	p := sim.New(dyn, dynamo.DefaultSettings())
//	traj, err := p.Run(ctx, cfg)
//
// # Thread Safety
//
// State, Sample and Config are plain values and safe to share. A Trajectory
// is appended to by a single owner during a run and must not be read
// concurrently with that run.
package dynamo
