package automation

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/physics"
	"github.com/san-kum/orbitprop/internal/sim"
	"github.com/san-kum/orbitprop/internal/testutil"
)

func leoSweep(param string, values ...float64) *ParameterSweep {
	r := 7000.0
	base := dynamo.DefaultSettings()
	base.Accuracy = 1e-3
	return &ParameterSweep{
		Config: dynamo.Config{
			Name:         "leo",
			InitialState: dynamo.NewState(r, 0, 0, 0, math.Sqrt(physics.EarthMu/r), 0),
			StopTime:     2 * math.Pi * math.Sqrt(r*r*r/physics.EarthMu),
		},
		Base:   base,
		Param:  param,
		Values: values,
	}
}

func TestApplyParam(t *testing.T) {
	s, err := ApplyParam(dynamo.DefaultSettings(), "accuracy", 1e-6)
	require.NoError(t, err)
	assert.Equal(t, 1e-6, s.Accuracy)

	s, err = ApplyParam(dynamo.DefaultSettings(), "min_radius", 6378)
	require.NoError(t, err)
	assert.Equal(t, 6378.0, s.MinRadius)

	_, err = ApplyParam(dynamo.DefaultSettings(), "safety", -1)
	assert.ErrorIs(t, err, dynamo.ErrInvalidSettings)

	_, err = ApplyParam(dynamo.DefaultSettings(), "policy", 1)
	assert.ErrorIs(t, err, dynamo.ErrInvalidSettings)
}

func TestRunSweep_Accuracy(t *testing.T) {
	batch := sim.NewBatch(2, testutil.NewTestLogger(t))
	results, err := RunSweep(context.Background(), leoSweep("accuracy", 1, 1e-2, 1e-4), batch)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		require.NoError(t, r.Err, "accuracy=%g", r.Value)
		assert.Equal(t, r.Samples-1, r.Steps)
	}
	assert.Equal(t, 1.0, results[0].Value)
	assert.Less(t, results[0].Steps, results[2].Steps)
	assert.Less(t, results[2].EnergyDrift, results[0].EnergyDrift)
}

func TestRunSweep_Mu(t *testing.T) {
	batch := sim.NewBatch(0, nil)
	results, err := RunSweep(context.Background(), leoSweep("mu", physics.EarthMu, 0.8*physics.EarthMu), batch)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NoError(t, results[1].Err)

	// one period for the nominal mu closes the orbit, a weaker body does not
	assert.InDelta(t, 7000, results[0].Final.Position.X, 5)
	assert.Greater(t, math.Abs(results[1].Final.Position.X-7000), 100.0)
}

func TestRunSweep_Invalid(t *testing.T) {
	batch := sim.NewBatch(1, nil)

	_, err := RunSweep(context.Background(), leoSweep("accuracy"), batch)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), leoSweep("accuracy", 1, -1), batch)
	assert.ErrorIs(t, err, dynamo.ErrInvalidSettings)
}

func TestRunSweep_FailedJob(t *testing.T) {
	sweep := leoSweep("min_radius", 0, 8000)
	results, err := RunSweep(context.Background(), sweep, sim.NewBatch(2, nil))
	require.NoError(t, err)

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, dynamo.ErrNumericDegeneracy)
	assert.Zero(t, results[1].Samples)
}
