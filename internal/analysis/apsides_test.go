package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/orbit"
	"github.com/san-kum/orbitprop/internal/physics"
	"github.com/san-kum/orbitprop/internal/sim"
)

func TestApsides_Synthetic(t *testing.T) {
	traj := dynamo.NewTrajectory(4)
	// r·v = x*vx: -2, 2, 2, -2
	traj.Append(0, dynamo.NewState(10, 0, 0, -0.2, 0, 0))
	traj.Append(10, dynamo.NewState(12, 0, 0, 1.0/6, 0, 0))
	traj.Append(20, dynamo.NewState(20, 0, 0, 0.1, 0, 0))
	traj.Append(30, dynamo.NewState(16, 0, 0, -0.125, 0, 0))

	aps := Apsides(traj)
	require.Len(t, aps, 2)

	assert.Equal(t, Periapsis, aps[0].Kind)
	assert.InDelta(t, 5, aps[0].Time, 1e-12)
	assert.InDelta(t, 11, aps[0].Radius, 1e-12)

	assert.Equal(t, Apoapsis, aps[1].Kind)
	assert.InDelta(t, 25, aps[1].Time, 1e-12)
	assert.InDelta(t, 18, aps[1].Radius, 1e-12)
	assert.Equal(t, "apoapsis", aps[1].Kind.String())
}

func TestApsides_TooShort(t *testing.T) {
	assert.Nil(t, Apsides(nil))
	traj := dynamo.NewTrajectory(1)
	traj.Append(0, dynamo.NewState(7000, 0, 0, 0, 7.5, 0))
	assert.Nil(t, Apsides(traj))
}

func TestEstimatePeriod(t *testing.T) {
	_, ok := EstimatePeriod(nil)
	assert.False(t, ok)

	p, ok := EstimatePeriod([]Apsis{
		{Kind: Apoapsis, Time: 50},
		{Kind: Periapsis, Time: 100},
		{Kind: Apoapsis, Time: 150},
		{Kind: Periapsis, Time: 200},
		{Kind: Periapsis, Time: 302},
	})
	require.True(t, ok)
	assert.InDelta(t, 101, p, 1e-12)

	p, ok = EstimatePeriod([]Apsis{{Kind: Apoapsis, Time: 10}, {Kind: Periapsis, Time: 40}, {Kind: Apoapsis, Time: 80}})
	require.True(t, ok)
	assert.InDelta(t, 70, p, 1e-12)
}

func TestApsides_EccentricOrbit(t *testing.T) {
	mu := physics.EarthMu
	el := orbit.Elements{A: 26600, E: 0.7, I: orbit.Radians(63.4), ArgPerigee: orbit.Radians(270), TrueAnomaly: orbit.Radians(90)}
	x0, err := el.State(mu)
	require.NoError(t, err)

	period := el.Period(mu)
	settings := dynamo.DefaultSettings()
	settings.Accuracy = 1e-3

	prop := sim.New(physics.NewTwoBody(mu), settings)
	traj, err := prop.Run(context.Background(), dynamo.Config{InitialState: x0, StopTime: 2.5 * period})
	require.NoError(t, err)

	aps := Apsides(traj)
	require.GreaterOrEqual(t, len(aps), 4)
	for _, a := range aps {
		switch a.Kind {
		case Periapsis:
			assert.InDelta(t, el.Perigee(), a.Radius, 0.01*el.Perigee())
		case Apoapsis:
			assert.InDelta(t, el.Apogee(), a.Radius, 0.01*el.Apogee())
		}
	}

	measured, ok := EstimatePeriod(aps)
	require.True(t, ok)
	assert.InDelta(t, period, measured, 0.005*period)
}
