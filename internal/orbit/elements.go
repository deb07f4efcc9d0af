package orbit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// Below these magnitudes the orbit is treated as circular or equatorial.
const (
	circularTol   = 1e-10
	equatorialTol = 1e-10
)

var (
	xAxis = r3.Vec{X: 1}
	yAxis = r3.Vec{Y: 1}
	zAxis = r3.Vec{Z: 1}
)

// Elements are the classical orbital elements of a closed orbit.
type Elements struct {
	A           float64 `json:"a" yaml:"a"` // semi-major axis, km
	E           float64 `json:"e" yaml:"e"`
	I           float64 `json:"i" yaml:"i"`
	RAAN        float64 `json:"raan" yaml:"raan"`
	ArgPerigee  float64 `json:"arg_perigee" yaml:"arg_perigee"`
	TrueAnomaly float64 `json:"true_anomaly" yaml:"true_anomaly"`
}

// FromState computes the elements of s around a body with gravitational
// parameter mu. A state at the origin or with zero angular momentum has no
// orbital plane and fails with ErrNumericDegeneracy.
func FromState(s dynamo.State, mu float64) (Elements, error) {
	r, v := s.Position, s.Velocity
	R := r3.Norm(r)
	if R == 0 {
		return Elements{}, fmt.Errorf("%w: position at the origin", dynamo.ErrNumericDegeneracy)
	}

	h := r3.Cross(r, v)
	hn := r3.Norm(h)
	if hn == 0 {
		return Elements{}, fmt.Errorf("%w: zero angular momentum", dynamo.ErrNumericDegeneracy)
	}

	energy := 0.5*r3.Dot(v, v) - mu/R
	evec := r3.Sub(r3.Scale(1/mu, r3.Cross(v, h)), r3.Scale(1/R, r))
	e := r3.Norm(evec)

	var el Elements
	el.A = -0.5 * mu / energy
	el.E = e
	el.I = acos(r3.Dot(h, zAxis) / hn)

	n := r3.Cross(zAxis, h)
	if r3.Norm(n) < equatorialTol*hn {
		n = xAxis
	} else {
		n = r3.Unit(n)
	}

	el.RAAN = acos(r3.Dot(n, xAxis))
	if r3.Dot(n, yAxis) < 0 {
		el.RAAN = 2*math.Pi - el.RAAN
	}

	if e < circularTol {
		el.E = 0
	} else {
		el.ArgPerigee = acos(r3.Dot(n, evec) / e)
		if evec.Z < 0 {
			el.ArgPerigee = 2*math.Pi - el.ArgPerigee
		}
		if el.I < equatorialTol || el.I > math.Pi-equatorialTol {
			// In the plane the perigee direction is measured from x.
			el.ArgPerigee = math.Atan2(evec.Y, evec.X)
			if el.I > math.Pi/2 {
				el.ArgPerigee = -el.ArgPerigee
			}
		}
	}

	// Argument of latitude, measured from the node along the motion.
	u := math.Atan2(r3.Dot(r3.Cross(n, r), h)/hn, r3.Dot(n, r))
	el.TrueAnomaly = wrap(u - el.ArgPerigee)
	el.ArgPerigee = wrap(el.ArgPerigee)
	return el, nil
}

// State returns the Cartesian state at the true anomaly of el.
func (el Elements) State(mu float64) (dynamo.State, error) {
	if el.E < 0 || el.E >= 1 {
		return dynamo.State{}, fmt.Errorf("%w: eccentricity %g outside [0, 1)", dynamo.ErrInvalidSettings, el.E)
	}
	p := el.A * (1 - el.E*el.E)
	if !(p > 0) || math.IsInf(p, 0) {
		return dynamo.State{}, fmt.Errorf("%w: semi-major axis %g", dynamo.ErrInvalidSettings, el.A)
	}

	sinT, cosT := math.Sincos(el.TrueAnomaly)
	R := p / (1 + el.E*cosT)
	rp := r3.Vec{X: R * cosT, Y: R * sinT}

	k := math.Sqrt(mu / p)
	vp := r3.Vec{X: -k * sinT, Y: k * (el.E + cosT)}

	m := perifocalToInertial(el.RAAN, el.I, el.ArgPerigee)
	return dynamo.State{Position: m.MulVec(rp), Velocity: m.MulVec(vp)}, nil
}

func (el Elements) Period(mu float64) float64 { return Period(el.A, mu) }

func (el Elements) Perigee() float64 { return el.A * (1 - el.E) }
func (el Elements) Apogee() float64  { return el.A * (1 + el.E) }

func (el Elements) String() string {
	return fmt.Sprintf("a=%.3f km e=%.6f i=%.4f° raan=%.4f° argp=%.4f° nu=%.4f°",
		el.A, el.E, Degrees(el.I), Degrees(el.RAAN), Degrees(el.ArgPerigee), Degrees(el.TrueAnomaly))
}

// Period of an elliptic orbit with semi-major axis a.
func Period(a, mu float64) float64 {
	return 2 * math.Pi * math.Sqrt(a*a*a/mu)
}

// CircularSpeed is the speed of a circular orbit of radius r.
func CircularSpeed(r, mu float64) float64 {
	return math.Sqrt(mu / r)
}

func Radians(deg float64) float64 { return deg * math.Pi / 180 }
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

func perifocalToInertial(raan, inc, argp float64) *r3.Mat {
	sO, cO := math.Sincos(raan)
	si, ci := math.Sincos(inc)
	sw, cw := math.Sincos(argp)
	return r3.NewMat([]float64{
		cO*cw - sO*ci*sw, -cO*sw - sO*ci*cw, sO * si,
		sO*cw + cO*ci*sw, -sO*sw + cO*ci*cw, -cO * si,
		si * sw, si * cw, ci,
	})
}

func acos(x float64) float64 {
	return math.Acos(math.Max(-1, math.Min(1, x)))
}

func wrap(angle float64) float64 {
	angle = math.Mod(angle, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}
