package analysis

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

type ApsisKind int

const (
	Periapsis ApsisKind = iota
	Apoapsis
)

func (k ApsisKind) String() string {
	if k == Periapsis {
		return "periapsis"
	}
	return "apoapsis"
}

// Apsis is one passage through periapsis or apoapsis.
type Apsis struct {
	Kind   ApsisKind
	Time   float64
	Radius float64
}

// Apsides records a periapsis where the radial velocity r·v turns from
// negative to non-negative and an apoapsis where it turns from positive to
// non-positive. Time and radius are interpolated linearly between the two
// samples around the crossing.
func Apsides(traj *dynamo.Trajectory) []Apsis {
	if traj == nil || traj.Len() < 2 {
		return nil
	}

	var out []Apsis
	prev := traj.Samples[0]
	prevRate := radialRate(prev.State)

	for _, s := range traj.Samples[1:] {
		rate := radialRate(s.State)

		var kind ApsisKind
		crossed := false
		switch {
		case prevRate < 0 && rate >= 0:
			kind, crossed = Periapsis, true
		case prevRate > 0 && rate <= 0:
			kind, crossed = Apoapsis, true
		}

		if crossed {
			frac := prevRate / (prevRate - rate)
			r0, r1 := prev.State.Radius(), s.State.Radius()
			out = append(out, Apsis{
				Kind:   kind,
				Time:   prev.Time + frac*(s.Time-prev.Time),
				Radius: r0 + frac*(r1-r0),
			})
		}

		prev, prevRate = s, rate
	}
	return out
}

// EstimatePeriod averages the spacing of successive periapses, or of
// apoapses when fewer than two periapses were passed.
func EstimatePeriod(apsides []Apsis) (float64, bool) {
	for _, kind := range []ApsisKind{Periapsis, Apoapsis} {
		var first, last float64
		n := 0
		for _, a := range apsides {
			if a.Kind != kind {
				continue
			}
			if n == 0 {
				first = a.Time
			}
			last = a.Time
			n++
		}
		if n >= 2 {
			return (last - first) / float64(n-1), true
		}
	}
	return 0, false
}

func radialRate(s dynamo.State) float64 {
	return r3.Dot(s.Position, s.Velocity)
}
