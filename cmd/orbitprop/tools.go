package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/orbitprop/internal/automation"
	"github.com/san-kum/orbitprop/internal/config"
	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/integrators"
	"github.com/san-kum/orbitprop/internal/metrics"
	"github.com/san-kum/orbitprop/internal/orbit"
	"github.com/san-kum/orbitprop/internal/physics"
	"github.com/san-kum/orbitprop/internal/sim"
	"github.com/san-kum/orbitprop/internal/store"
	"github.com/san-kum/orbitprop/internal/viz"
)

func newElementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "elements <config>",
		Short: "print the orbital elements of a config's initial state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			cfg, err := resolveConfig(args[0], settings.Mu)
			if err != nil {
				return err
			}
			el, err := orbit.FromState(cfg.InitialState, settings.Mu)
			if err != nil {
				return err
			}

			fmt.Println(viz.Title.Render(cfg.Name))
			fmt.Println(viz.KeyValue("a", fmt.Sprintf("%.3f km", el.A)))
			fmt.Println(viz.KeyValue("e", fmt.Sprintf("%.6f", el.E)))
			fmt.Println(viz.KeyValue("i", fmt.Sprintf("%.4f deg", orbit.Degrees(el.I))))
			fmt.Println(viz.KeyValue("raan", fmt.Sprintf("%.4f deg", orbit.Degrees(el.RAAN))))
			fmt.Println(viz.KeyValue("arg perigee", fmt.Sprintf("%.4f deg", orbit.Degrees(el.ArgPerigee))))
			fmt.Println(viz.KeyValue("true anomaly", fmt.Sprintf("%.4f deg", orbit.Degrees(el.TrueAnomaly))))
			fmt.Println(viz.KeyValue("perigee", fmt.Sprintf("%.3f km", el.Perigee())))
			fmt.Println(viz.KeyValue("apogee", fmt.Sprintf("%.3f km", el.Apogee())))
			if el.E < 1 {
				fmt.Println(viz.KeyValue("period", fmt.Sprintf("%.3f s", el.Period(settings.Mu))))
			}
			fmt.Println(viz.KeyValue("energy", fmt.Sprintf("%.6f km^2/s^2", physics.NewTwoBody(settings.Mu).Energy(cfg.InitialState))))

			// start times of GUI-written configs are Unix seconds
			if cfg.StartTime > 0 {
				epoch := time.Unix(0, 0).Add(time.Duration(cfg.StartTime * float64(time.Second))).UTC()
				fmt.Println(viz.KeyValue("epoch", epoch.Format(time.RFC3339)))
				fmt.Println(viz.KeyValue("julian date", fmt.Sprintf("%.6f", orbit.JulianDate(epoch))))
			}
			return nil
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				p, _ := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\n", name, p.Description)
			}
			return w.Flush()
		},
	}
}

func newLiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "live [config]",
		Short: "propagate with a live orbit view",
		Long:  "Without an argument a menu of the built-in scenarios is shown.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			var model tea.Model
			if len(args) == 1 {
				cfg, err := resolveConfig(args[0], settings.Mu)
				if err != nil {
					return err
				}
				model = viz.NewLive(cmd.Context(), physics.NewTwoBody(settings.Mu), settings, cfg)
			} else {
				var entries []viz.MenuEntry
				for _, name := range config.ListPresets() {
					cfg, _, err := config.PresetConfig(name, settings.Mu)
					if err != nil {
						return err
					}
					p, _ := config.GetPreset(name)
					entries = append(entries, viz.MenuEntry{Name: name, Description: p.Description, Config: cfg})
				}
				model = viz.NewMenu(cmd.Context(), entries, settings, func(s dynamo.Settings) dynamo.System {
					return physics.NewTwoBody(s.Mu)
				})
			}

			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

func newBatchCmd() *cobra.Command {
	var (
		workers int
		outDir  string
	)
	cmd := &cobra.Command{
		Use:   "batch <config>...",
		Short: "propagate several configs concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			jobs := make([]sim.Job, 0, len(args))
			for _, arg := range args {
				cfg, err := resolveConfig(arg, settings.Mu)
				if err != nil {
					return err
				}
				jobs = append(jobs, sim.Job{Config: cfg, Settings: settings})
			}

			batch := sim.NewBatch(workers, logger).WithMetrics(func() []dynamo.Metric {
				return []dynamo.Metric{
					metrics.NewEnergyDrift(physics.NewTwoBody(settings.Mu)),
					metrics.NewRadiusBounds(),
					metrics.NewStepStats(),
				}
			})
			results, err := batch.Run(cmd.Context(), jobs)
			if err != nil {
				return err
			}

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0755); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSAMPLES\tSTEPS\tENERGY DRIFT\tELAPSED\tSTATUS")
			var failed int
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(w, "%s\t-\t-\t-\t%s\t%s\n", r.Job.Config.Name, r.Elapsed.Round(time.Microsecond), r.Err)
					continue
				}
				status := "ok"
				if outDir != "" {
					path := filepath.Join(outDir, batchFileName(r.Job.Config.Name))
					if err := store.WriteFile(path, r.Trajectory, store.Options{Precision: precision, WithTime: withTime}); err != nil {
						failed++
						status = err.Error()
					}
				}
				fmt.Fprintf(w, "%s\t%d\t%.0f\t%.3g\t%s\t%s\n",
					r.Job.Config.Name, r.Trajectory.Len(), r.Metrics["steps"], r.Metrics["energy_drift"],
					r.Elapsed.Round(time.Microsecond), status)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent propagations (0 for GOMAXPROCS)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write each trajectory to <dir>/<name>.tsv")
	cmd.Flags().IntVar(&precision, "precision", -1, "significant digits (-1 for shortest round-trip form)")
	cmd.Flags().BoolVar(&withTime, "with-time", false, "prepend the sample time column")
	return cmd
}

func batchFileName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		name = "run"
	}
	return name + ".tsv"
}

func newCompareCmd() *cobra.Command {
	var step float64
	cmd := &cobra.Command{
		Use:   "compare <config>",
		Short: "compare the adaptive integrator with fixed-step RK4",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !(step > 0) || math.IsInf(step, 0) {
				return fmt.Errorf("--step must be a positive finite number, got %g", step)
			}
			logger := newLogger()
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			cfg, err := resolveConfig(args[0], settings.Mu)
			if err != nil {
				return err
			}

			adaptive, err := propagate(cmd.Context(), cfg, settings, logger)
			if err != nil {
				return err
			}

			dyn := physics.NewTwoBody(settings.Mu)
			begin := time.Now()
			fixed := integrators.NewRK4().Propagate(dyn, cfg, step)
			fixedElapsed := time.Since(begin)

			a, f := adaptive.traj.Last(), fixed.Last()
			if !f.State.IsValid() {
				logger.Warn("fixed-step run diverged", "name", cfg.Name, "step", step, "t", f.Time)
			}
			e0 := dyn.Energy(cfg.InitialState)
			drift := func(s dynamo.State) float64 { return math.Abs((dyn.Energy(s) - e0) / e0) }

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INTEGRATOR\tSAMPLES\tFINAL TIME\tENERGY DRIFT\tELAPSED")
			fmt.Fprintf(w, "rkck\t%d\t%g\t%.3e\t%s\n", adaptive.traj.Len(), a.Time, drift(a.State), adaptive.elapsed.Round(time.Microsecond))
			fmt.Fprintf(w, "rk4 (h=%g)\t%d\t%g\t%.3e\t%s\n", step, fixed.Len(), f.Time, drift(f.State), fixedElapsed.Round(time.Microsecond))
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Println()
			fmt.Println("rkck " + stateRow(a.State))
			fmt.Println("rk4  " + stateRow(f.State))
			diff := a.State.Sub(f.State)
			fmt.Println(viz.KeyValue("position diff", fmt.Sprintf("%.6g km", diff.ErrorNorm())))
			return nil
		},
	}
	cmd.Flags().Float64Var(&step, "step", 10, "RK4 step size (s)")
	return cmd
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage settings and scenario files",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a settings file with the current settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultSettingsFile
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := config.SaveSettings(path, settings); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	convertCmd := &cobra.Command{
		Use:   "convert <config> <output>",
		Short: "convert between legacy and YAML scenario files",
		Long:  "The output format follows the extension: .yaml/.yml writes a scenario, anything else the legacy 8-number form.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			cfg, err := resolveConfig(args[0], settings.Mu)
			if err != nil {
				return err
			}
			if config.IsScenarioPath(args[1]) {
				return config.SaveScenario(args[1], config.ScenarioFromConfig(cfg))
			}
			return config.SaveLegacy(args[1], cfg)
		},
	}

	configCmd.AddCommand(initCmd, convertCmd)
	return configCmd
}

func newSweepCmd() *cobra.Command {
	var (
		param   string
		values  []float64
		workers int
	)
	cmd := &cobra.Command{
		Use:     "sweep <config>",
		Short:   "propagate once per value of one setting",
		Example: "  orbitprop sweep leo --param accuracy --values 1,0.1,0.01,0.001",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			cfg, err := resolveConfig(args[0], settings.Mu)
			if err != nil {
				return err
			}

			sweep := &automation.ParameterSweep{Config: cfg, Base: settings, Param: param, Values: values}
			results, err := automation.RunSweep(cmd.Context(), sweep, sim.NewBatch(workers, logger))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tSTEPS\tENERGY DRIFT\tFINAL RADIUS\tELAPSED\tSTATUS\n", strings.ToUpper(param))
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(w, "%g\t-\t-\t-\t%s\t%s\n", r.Value, r.Elapsed.Round(time.Microsecond), r.Err)
					continue
				}
				fmt.Fprintf(w, "%g\t%d\t%.3e\t%.3f\t%s\tok\n",
					r.Value, r.Steps, r.EnergyDrift, r.Final.Radius(), r.Elapsed.Round(time.Microsecond))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&param, "param", "accuracy", "setting to vary: "+strings.Join(automation.SweepParams, ", "))
	cmd.Flags().Float64SliceVar(&values, "values", []float64{1, 0.1, 0.01, 0.001}, "comma-separated values")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent propagations (0 for GOMAXPROCS)")
	return cmd
}
