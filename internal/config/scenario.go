package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/orbit"
)

// Scenario is the YAML form of an initial condition. The state comes from
// position and velocity, from an elements block, or from a preset, in that
// order. Times left unset fall back to the preset.
type Scenario struct {
	Name      string          `yaml:"name,omitempty"`
	Preset    string          `yaml:"preset,omitempty"`
	StartTime *float64        `yaml:"start_time,omitempty"`
	StopTime  *float64        `yaml:"stop_time,omitempty"`
	Position  []float64       `yaml:"position,omitempty,flow"`
	Velocity  []float64       `yaml:"velocity,omitempty,flow"`
	Elements  *ElementsConfig `yaml:"elements,omitempty"`
}

// ElementsConfig holds orbital elements with angles in degrees.
type ElementsConfig struct {
	A           float64 `yaml:"a"`
	E           float64 `yaml:"e"`
	I           float64 `yaml:"i"`
	RAAN        float64 `yaml:"raan"`
	ArgPerigee  float64 `yaml:"arg_perigee"`
	TrueAnomaly float64 `yaml:"true_anomaly"`
}

func (ec ElementsConfig) Elements() orbit.Elements {
	return orbit.Elements{
		A:           ec.A,
		E:           ec.E,
		I:           orbit.Radians(ec.I),
		RAAN:        orbit.Radians(ec.RAAN),
		ArgPerigee:  orbit.Radians(ec.ArgPerigee),
		TrueAnomaly: orbit.Radians(ec.TrueAnomaly),
	}
}

// Config resolves the scenario into a propagation config around a body
// with gravitational parameter mu. Problems wrap ErrConfigMalformed.
func (s *Scenario) Config(mu float64) (dynamo.Config, error) {
	var cfg dynamo.Config
	haveState := false

	if s.Preset != "" {
		p, ok := GetPreset(s.Preset)
		if !ok {
			return cfg, fmt.Errorf("%w: unknown preset %q", dynamo.ErrConfigMalformed, s.Preset)
		}
		var err error
		if cfg, err = p.Config(mu); err != nil {
			return cfg, fmt.Errorf("%w: preset %q: %w", dynamo.ErrConfigMalformed, s.Preset, err)
		}
		haveState = true
	}

	switch {
	case s.Position != nil || s.Velocity != nil:
		if s.Elements != nil {
			return cfg, fmt.Errorf("%w: position/velocity and elements are exclusive", dynamo.ErrConfigMalformed)
		}
		if len(s.Position) != 3 || len(s.Velocity) != 3 {
			return cfg, fmt.Errorf("%w: position and velocity need 3 components each, got %d and %d",
				dynamo.ErrConfigMalformed, len(s.Position), len(s.Velocity))
		}
		cfg.InitialState = dynamo.NewState(
			s.Position[0], s.Position[1], s.Position[2],
			s.Velocity[0], s.Velocity[1], s.Velocity[2])
		haveState = true
	case s.Elements != nil:
		st, err := s.Elements.Elements().State(mu)
		if err != nil {
			return cfg, fmt.Errorf("%w: elements: %w", dynamo.ErrConfigMalformed, err)
		}
		cfg.InitialState = st
		haveState = true
	}

	if !haveState {
		return cfg, fmt.Errorf("%w: no initial state (position/velocity, elements or preset)", dynamo.ErrConfigMalformed)
	}

	if s.StartTime != nil {
		cfg.StartTime = *s.StartTime
	}
	if s.StopTime != nil {
		cfg.StopTime = *s.StopTime
	} else if s.Preset == "" {
		return cfg, fmt.Errorf("%w: stop_time is required", dynamo.ErrConfigMalformed)
	}
	if s.Name != "" {
		cfg.Name = s.Name
	}
	return cfg, nil
}

// IsScenarioPath reports whether path is loaded as a YAML scenario.
func IsScenarioPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads an initial condition from path, as a YAML scenario for
// .yaml/.yml files and in the legacy format otherwise.
func Load(path string, mu float64) (dynamo.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dynamo.Config{}, &dynamo.ConfigError{
			Path:    path,
			Wrapped: fmt.Errorf("%w: %w", dynamo.ErrConfigUnreadable, err),
		}
	}

	if !IsScenarioPath(path) {
		cfg, err := ParseLegacy(bytes.NewReader(data), path)
		if err != nil {
			return cfg, err
		}
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return cfg, nil
	}

	sc, err := ParseScenario(data)
	if err != nil {
		return dynamo.Config{}, &dynamo.ConfigError{Path: path, Line: yamlLine(err), Wrapped: err}
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	cfg, err := sc.Config(mu)
	if err != nil {
		return dynamo.Config{}, &dynamo.ConfigError{Path: path, Wrapped: err}
	}
	return cfg, nil
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %w", dynamo.ErrConfigMalformed, err)
	}
	return &sc, nil
}

// SaveScenario writes sc as YAML.
func SaveScenario(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ScenarioFromConfig builds a position/velocity scenario from cfg.
func ScenarioFromConfig(cfg dynamo.Config) *Scenario {
	start, stop := cfg.StartTime, cfg.StopTime
	p, v := cfg.InitialState.Position, cfg.InitialState.Velocity
	return &Scenario{
		Name:      cfg.Name,
		StartTime: &start,
		StopTime:  &stop,
		Position:  []float64{p.X, p.Y, p.Z},
		Velocity:  []float64{v.X, v.Y, v.Z},
	}
}

// SaveLegacy writes cfg to path in the legacy format.
func SaveLegacy(path string, cfg dynamo.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteLegacy(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func yamlLine(err error) int {
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		var line int
		if _, scanErr := fmt.Sscanf(te.Errors[0], "line %d:", &line); scanErr == nil {
			return line
		}
	}
	var line int
	msg := err.Error()
	if i := strings.Index(msg, "yaml: line "); i >= 0 {
		if _, scanErr := fmt.Sscanf(msg[i:], "yaml: line %d:", &line); scanErr == nil {
			return line
		}
	}
	return 0
}
