package integrators

import "github.com/san-kum/orbitprop/internal/dynamo"

// RK4 is the classical fixed-step fourth-order method, kept as a reference
// for the adaptive stepper.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(dyn dynamo.System, t float64, x dynamo.State, h float64) dynamo.State {
	half := h * 0.5

	k1 := dyn.Derive(t, x)
	k2 := dyn.Derive(t+half, x.Add(k1.Scale(half)))
	k3 := dyn.Derive(t+half, x.Add(k2.Scale(half)))
	k4 := dyn.Derive(t+h, x.Add(k3.Scale(h)))

	sum := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	return x.Add(sum.Scale(h / 6.0))
}

// Propagate runs fixed steps of size h from start to stop, shortening the
// last step so the final sample lands on stop.
func (r *RK4) Propagate(dyn dynamo.System, cfg dynamo.Config, h float64) *dynamo.Trajectory {
	steps := int(cfg.Duration()/h) + 2
	traj := dynamo.NewTrajectory(steps)

	x := cfg.InitialState
	t := cfg.StartTime
	traj.Append(t, x)

	for t < cfg.StopTime {
		hs := h
		if t+hs > cfg.StopTime {
			hs = cfg.StopTime - t
		}
		x = r.Step(dyn, t, x, hs)
		if t+hs >= cfg.StopTime {
			t = cfg.StopTime
		} else {
			t += hs
		}
		traj.Append(t, x)
	}

	return traj
}
