package metrics

import (
	"math"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// RadiusBounds records the smallest and largest radius seen, including the
// initial state. Its value is the spread max - min, which stays near zero
// on a well-resolved circular orbit.
type RadiusBounds struct {
	name     string
	min, max float64
	samples  int
}

func NewRadiusBounds() *RadiusBounds {
	r := &RadiusBounds{name: "radius_spread"}
	r.Reset()
	return r
}

func (r *RadiusBounds) Name() string { return r.name }

func (r *RadiusBounds) Observe(info dynamo.StepInfo) {
	if !info.Accepted {
		return
	}
	if r.samples == 0 {
		r.add(info.Start.Radius())
	}
	r.add(info.State.Radius())
	r.samples++
}

func (r *RadiusBounds) add(v float64) {
	r.min = math.Min(r.min, v)
	r.max = math.Max(r.max, v)
}

func (r *RadiusBounds) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return r.max - r.min
}

func (r *RadiusBounds) Min() float64 { return r.min }
func (r *RadiusBounds) Max() float64 { return r.max }

func (r *RadiusBounds) Reset() {
	r.min = math.Inf(1)
	r.max = math.Inf(-1)
	r.samples = 0
}
