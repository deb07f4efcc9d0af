// Package analysis inspects propagated trajectories.
//
//   - [Apsides]: periapsis and apoapsis passages, found as sign changes of
//     the radial velocity between consecutive samples
//   - [EstimatePeriod]: orbital period measured from successive passages
//
// The measured period of an eccentric orbit can be checked against the
// Keplerian one:
//
//	aps := analysis.Apsides(traj)
//	if T, ok := analysis.EstimatePeriod(aps); ok {
//	    fmt.Println(T, el.Period(mu))
//	}
//
// For near-circular orbits the radial velocity is dominated by integration
// noise and the passages carry no meaning.
package analysis
