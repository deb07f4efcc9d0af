package config

import (
	"sort"

	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/orbit"
)

// guiEpoch is 2015-09-16 17:00:00 UTC, the default epoch of the desktop
// front end that wrote legacy configs.
const guiEpoch = 1442422800

// Preset is a named initial condition. The state is given either directly
// or as elements (radians). A zero Duration propagates one orbital period.
type Preset struct {
	Description string
	State       *dynamo.State
	Elements    *orbit.Elements
	StartTime   float64
	Duration    float64
}

var Presets = map[string]Preset{
	"leo": {
		Description: "circular equatorial orbit at 7000 km",
		State:       stateOf(7000, 0, 0, 0, orbit.CircularSpeed(7000, dynamo.DefaultMu), 0),
	},
	"iss": {
		Description: "ISS-like orbit, 51.64 deg inclination",
		Elements: &orbit.Elements{
			A: 6778, E: 0.0005,
			I: orbit.Radians(51.64), RAAN: orbit.Radians(247.46),
			ArgPerigee: orbit.Radians(130.54), TrueAnomaly: orbit.Radians(325),
		},
	},
	"geo": {
		Description: "geostationary orbit",
		Elements:    &orbit.Elements{A: 42164.17},
	},
	"molniya": {
		Description: "Molniya orbit, perigee over the southern hemisphere",
		Elements: &orbit.Elements{
			A: 26600, E: 0.74,
			I: orbit.Radians(63.4), RAAN: orbit.Radians(40),
			ArgPerigee: orbit.Radians(270),
		},
	},
	"gui-default": {
		Description: "default state of the desktop front end",
		State:       stateOf(-2703.79, 4554.88, 4220.74, -3.68, -5.62, 6.69),
		StartTime:   guiEpoch,
		Duration:    5400,
	},
	"radial-fall": {
		Description: "released at rest from 7000 km, falls until it reaches the surface",
		State:       stateOf(7000, 0, 0, 0, 0, 0),
		Duration:    2000,
	},
}

func stateOf(px, py, pz, vx, vy, vz float64) *dynamo.State {
	s := dynamo.NewState(px, py, pz, vx, vy, vz)
	return &s
}

// Config resolves the preset around a body with gravitational parameter mu.
func (p Preset) Config(mu float64) (dynamo.Config, error) {
	cfg := dynamo.Config{StartTime: p.StartTime}

	switch {
	case p.State != nil:
		cfg.InitialState = *p.State
	case p.Elements != nil:
		s, err := p.Elements.State(mu)
		if err != nil {
			return cfg, err
		}
		cfg.InitialState = s
	}

	duration := p.Duration
	if duration == 0 {
		el, err := orbit.FromState(cfg.InitialState, mu)
		if err != nil {
			return cfg, err
		}
		duration = el.Period(mu)
	}
	cfg.StopTime = cfg.StartTime + duration
	return cfg, nil
}

func GetPreset(name string) (Preset, bool) {
	p, ok := Presets[name]
	return p, ok
}

// PresetConfig returns the named preset as a config with its name set.
func PresetConfig(name string, mu float64) (dynamo.Config, bool, error) {
	p, ok := GetPreset(name)
	if !ok {
		return dynamo.Config{}, false, nil
	}
	cfg, err := p.Config(mu)
	cfg.Name = name
	return cfg, true, err
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
