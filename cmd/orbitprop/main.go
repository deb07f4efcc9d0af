package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/orbitprop/internal/config"
	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/metrics"
	"github.com/san-kum/orbitprop/internal/physics"
	"github.com/san-kum/orbitprop/internal/sim"
	"github.com/san-kum/orbitprop/internal/store"
)

var (
	dataDir      string
	settingsPath string
	logLevel     string
	precision    int
	withTime     bool
	progressStep int
)

// main runs the orbitprop CLI and exits with status 1 if the command fails.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "orbitprop <config> <output>",
		Short: "adaptive two-body orbit propagator",
		Long: `Propagates a spacecraft around a central body with an adaptive
Cash-Karp Runge-Kutta integrator and writes one line per sample
(px py pz vx vy vz) to the output file.

<config> is a legacy 8-number file, a YAML scenario or a preset name.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         propagateToFile,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".orbitprop", "run store directory")
	pf.StringVar(&settingsPath, "settings", "", "settings file (default ./"+config.DefaultSettingsFile+" if present)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (env ORBITPROP_LOG_LEVEL)")
	config.RegisterSettingsFlags(pf)

	rootCmd.Flags().IntVar(&precision, "precision", -1, "significant digits (-1 for shortest round-trip form)")
	rootCmd.Flags().BoolVar(&withTime, "with-time", false, "prepend the sample time column")
	rootCmd.Flags().IntVar(&progressStep, "progress-every", 100, "log progress every n steps at debug level")

	rootCmd.AddCommand(
		newRunCmd(),
		newListCmd(),
		newShowCmd(),
		newPlotCmd(),
		newExportCmd(),
		newElementsCmd(),
		newPresetsCmd(),
		newLiveCmd(),
		newBatchCmd(),
		newCompareCmd(),
		newSweepCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newLogger() *slog.Logger {
	level := logLevel
	if level == "" {
		level = os.Getenv(config.EnvPrefix + "LOG_LEVEL")
	}

	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func loadSettings(cmd *cobra.Command) (dynamo.Settings, error) {
	return config.LoadSettings(settingsPath, cmd.Flags())
}

// resolveConfig loads arg as a config file, falling back to a preset of
// that name when no such file exists.
func resolveConfig(arg string, mu float64) (dynamo.Config, error) {
	if _, err := os.Stat(arg); errors.Is(err, fs.ErrNotExist) {
		if cfg, ok, err := config.PresetConfig(arg, mu); ok {
			return cfg, err
		}
	}
	return config.Load(arg, mu)
}

type outcome struct {
	traj    *dynamo.Trajectory
	metrics map[string]float64
	steps   *metrics.StepStats
	elapsed time.Duration
}

func propagate(ctx context.Context, cfg dynamo.Config, settings dynamo.Settings, logger *slog.Logger) (*outcome, error) {
	dyn := physics.NewTwoBody(settings.Mu)
	steps := metrics.NewStepStats()
	prop := sim.New(dyn, settings,
		sim.WithLogger(logger),
		sim.WithObserver(sim.NewProgressLogger(logger, cfg, progressStep)),
		sim.WithMetric(metrics.NewEnergyDrift(dyn)),
		sim.WithMetric(metrics.NewRadiusBounds()),
		sim.WithMetric(steps),
	)

	logger.Info("propagating",
		"config", cfg.Name,
		"start", cfg.StartTime,
		"stop", cfg.StopTime,
		"accuracy", settings.Accuracy,
		"policy", settings.Policy,
	)

	begin := time.Now()
	traj, err := prop.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &outcome{
		traj:    traj,
		metrics: prop.Metrics(),
		steps:   steps,
		elapsed: time.Since(begin),
	}, nil
}

func propagateToFile(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(args[0], settings.Mu)
	if err != nil {
		return err
	}

	out, err := propagate(cmd.Context(), cfg, settings, logger)
	if err != nil {
		return err
	}

	opts := store.Options{Precision: precision, WithTime: withTime}
	if err := store.WriteFile(args[1], out.traj, opts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.Info("done",
		"samples", out.traj.Len(),
		"accepted", out.steps.Accepted(),
		"rejected", out.steps.Rejected(),
		"elapsed", out.elapsed,
		"output", args[1],
	)
	return nil
}

func printMetrics(m map[string]float64) {
	for _, name := range sortedKeys(m) {
		fmt.Printf("  %-16s %.6g\n", name, m[name])
	}
}
