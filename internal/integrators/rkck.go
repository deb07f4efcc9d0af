package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// stepExponent is 1/(ErrorOrder+1) for a 5(4) pair.
const stepExponent = 0.2

// RKCK is the Cash-Karp embedded Runge-Kutta stepper. The stage buffer is
// reused across steps, so an RKCK must not be shared between goroutines.
type RKCK struct {
	tab Tableau
	k   []dynamo.State
}

func NewRKCK() *RKCK {
	tab := CashKarp()
	return &RKCK{
		tab: tab,
		k:   make([]dynamo.State, tab.Stages()),
	}
}

func (r *RKCK) Tableau() Tableau { return CashKarp() }

// Step advances x by h with the 5th-order estimate and drops the error
// estimate. A failed step returns an all-NaN state, so callers detect it
// with IsValid the same way as an RK4 step through the singularity.
func (r *RKCK) Step(dyn dynamo.System, t float64, x dynamo.State, h float64) dynamo.State {
	y5, _, err := r.StepWithError(dyn, t, x, h)
	if err != nil {
		nan := math.NaN()
		return dynamo.NewState(nan, nan, nan, nan, nan, nan)
	}
	return y5
}

// StepWithError evaluates the six stages and returns the 5th-order
// estimate together with the position norm of its difference to the
// 4th-order estimate.
func (r *RKCK) StepWithError(dyn dynamo.System, t float64, x dynamo.State, h float64) (dynamo.State, float64, error) {
	tab := r.tab

	for i := range r.k {
		in := x
		if i > 0 {
			var sum dynamo.State
			for j, a := range tab.A[i] {
				sum = sum.Add(r.k[j].Scale(a))
			}
			in = x.Add(sum.Scale(h))
		}

		if in.IsDegenerate() {
			return x, 0, fmt.Errorf("%w: stage %d input at the origin", dynamo.ErrNumericDegeneracy, i)
		}

		r.k[i] = dyn.Derive(t+tab.C[i]*h, in)
		if !r.k[i].IsValid() {
			return x, 0, fmt.Errorf("%w: stage %d derivative", dynamo.ErrDivergence, i)
		}
	}

	var sum5, sum4 dynamo.State
	for i, k := range r.k {
		sum5 = sum5.Add(k.Scale(tab.B[i]))
		sum4 = sum4.Add(k.Scale(tab.Bhat[i]))
	}

	y5 := x.Add(sum5.Scale(h))
	y4 := x.Add(sum4.Scale(h))

	return y5, y5.Sub(y4).ErrorNorm(), nil
}

// StepControl adapts the step size from the local error estimate:
//
//	h' = Safety * h * (Accuracy/err)^0.2
//
// The law is applied uncapped. MaxGrowth is only the factor used when the
// estimate is exactly zero and the law has no finite value.
type StepControl struct {
	Safety    float64
	Accuracy  float64
	MaxGrowth float64
}

func NewStepControl(s dynamo.Settings) StepControl {
	return StepControl{
		Safety:    s.Safety,
		Accuracy:  s.Accuracy,
		MaxGrowth: s.MaxGrowth,
	}
}

// Next returns the step size following a step of size h with error err.
// A zero error grows the step by MaxGrowth, or fails with
// ErrNumericDegeneracy when the cap is disabled.
func (c StepControl) Next(h, err float64) (float64, error) {
	if math.IsNaN(err) || math.IsInf(err, 0) {
		return 0, fmt.Errorf("%w: error estimate %g", dynamo.ErrDivergence, err)
	}

	var factor float64
	if err == 0 {
		if c.MaxGrowth <= 0 {
			return 0, fmt.Errorf("%w: zero error estimate with unbounded growth", dynamo.ErrNumericDegeneracy)
		}
		factor = c.MaxGrowth
	} else {
		factor = c.Safety * math.Pow(c.Accuracy/err, stepExponent)
	}

	next := h * factor
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return 0, fmt.Errorf("%w: step size %g", dynamo.ErrDivergence, next)
	}
	return next, nil
}

// Exceeded reports whether err is above the accuracy target.
func (c StepControl) Exceeded(err float64) bool {
	return err > c.Accuracy
}
