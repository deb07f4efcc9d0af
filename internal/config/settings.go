package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// EnvPrefix prefixes environment overrides: ORBITPROP_ACCURACY -> accuracy.
const EnvPrefix = "ORBITPROP_"

// DefaultSettingsFile is looked up in the working directory when no
// settings path is given.
const DefaultSettingsFile = "orbitprop.yaml"

// LoadSettings layers propagator settings. Precedence (highest to lowest):
// explicitly set flags > ORBITPROP_* environment > settings file > defaults.
// Flags are matched by name with dashes turned into underscores
// (--initial-step -> initial_step). The result is validated.
func LoadSettings(path string, flags *pflag.FlagSet) (dynamo.Settings, error) {
	k := koanf.New(".")
	def := dynamo.DefaultSettings()

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"mu":           def.Mu,
		"safety":       def.Safety,
		"accuracy":     def.Accuracy,
		"initial_step": def.InitialStep,
		"max_growth":   def.MaxGrowth,
		"min_step":     def.MinStep,
		"min_radius":   def.MinRadius,
		"max_steps":    def.MaxSteps,
		"max_rejects":  def.MaxRejects,
		"policy":       string(def.Policy),
		"boundary":     string(def.Boundary),
	}, "."), nil); err != nil {
		return def, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultSettingsFile); err == nil {
			path = DefaultSettingsFile
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return def, &dynamo.ConfigError{
				Path:    path,
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrConfigUnreadable, err),
			}
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return def, &dynamo.ConfigError{
				Path:    path,
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrConfigMalformed, err),
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return def, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return def, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var s dynamo.Settings
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return def, fmt.Errorf("%w: %w", dynamo.ErrInvalidSettings, err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// SaveSettings writes s as a settings file that LoadSettings accepts.
func SaveSettings(path string, s dynamo.Settings) error {
	data, err := yamlv3.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RegisterSettingsFlags adds a flag for every settings field to fs.
// Only flags the user sets override other layers.
func RegisterSettingsFlags(fs *pflag.FlagSet) {
	def := dynamo.DefaultSettings()
	fs.Float64("mu", def.Mu, "gravitational parameter (km^3/s^2)")
	fs.Float64("safety", def.Safety, "step-size safety factor")
	fs.Float64("accuracy", def.Accuracy, "target local position error (km)")
	fs.Float64("initial-step", def.InitialStep, "initial step size (s)")
	fs.Float64("max-growth", def.MaxGrowth, "step growth factor for a zero error estimate (0 fails instead)")
	fs.Float64("min-step", def.MinStep, "smallest step size before giving up (s)")
	fs.Float64("min-radius", def.MinRadius, "radius treated as a collision with the centre (km)")
	fs.Int("max-steps", def.MaxSteps, "maximum number of attempted steps")
	fs.Int("max-rejects", def.MaxRejects, "maximum consecutive rejected steps")
	fs.String("policy", string(def.Policy), "step policy: accept_always or reject_on_exceeded_tolerance")
	fs.String("boundary", string(def.Boundary), "stop-time handling: clamp or legacy")
}
