package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/orbitprop/internal/analysis"
	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/orbit"
	"github.com/san-kum/orbitprop/internal/physics"
	"github.com/san-kum/orbitprop/internal/storage"
	"github.com/san-kum/orbitprop/internal/store"
	"github.com/san-kum/orbitprop/internal/viz"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <config>",
		Short: "propagate and save the run to the store",
		Args:  cobra.ExactArgs(1),
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

			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}

			out, err := propagate(cmd.Context(), cfg, settings, logger)
			if err != nil {
				return err
			}
			runID, err := st.Save(cfg, settings, out.traj, out.metrics, out.elapsed)
			if err != nil {
				return err
			}

			fmt.Println(viz.StatusOK.Render("completed") + " in " + out.elapsed.Round(time.Microsecond).String())
			fmt.Println(viz.KeyValue("run id", runID))
			fmt.Println(viz.KeyValue("samples", fmt.Sprint(out.traj.Len())))
			fmt.Println(viz.KeyValue("steps", fmt.Sprintf("%d accepted, %d rejected", out.steps.Accepted(), out.steps.Rejected())))
			fmt.Println("\nmetrics:")
			printMetrics(out.metrics)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tINTERVAL\tSAMPLES\tTIMESTAMP")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%g..%g\t%d\t%s\n",
					shortID(run.ID), run.Name, run.StartTime, run.StopTime, run.Samples,
					run.Timestamp.Local().Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run_id>",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			traj, err := st.LoadTrajectory(meta.ID)
			if err != nil {
				return err
			}

			fmt.Println(viz.Title.Render(meta.Name) + "  " + viz.Subtle.Render(meta.ID))
			fmt.Println(viz.KeyValue("interval", fmt.Sprintf("%g .. %g s", meta.StartTime, meta.StopTime)))
			fmt.Println(viz.KeyValue("samples", fmt.Sprint(meta.Samples)))
			fmt.Println(viz.KeyValue("elapsed", meta.Elapsed.String()))
			fmt.Println(viz.KeyValue("accuracy", fmt.Sprintf("%g km", meta.Settings.Accuracy)))
			fmt.Println(viz.KeyValue("policy", string(meta.Settings.Policy)))

			cfg := meta.Config()
			el, elErr := orbit.FromState(cfg.InitialState, meta.Settings.Mu)
			if elErr == nil {
				fmt.Println(viz.KeyValue("initial", el.String()))
			}
			if traj.Len() > 0 {
				last := traj.Last()
				fmt.Println(viz.KeyValue("final", last.State.String()))
			}
			if elErr == nil && el.E > 1e-3 {
				printApsides(traj, el.Period(meta.Settings.Mu))
			}

			fmt.Println("\nmetrics:")
			printMetrics(meta.Metrics)
			return nil
		},
	}
}

func newPlotCmd() *cobra.Command {
	var (
		pngPath string
		svgPath string
		kind    string
		energy  bool
	)
	cmd := &cobra.Command{
		Use:   "plot <run_id>",
		Short: "plot a stored run in the terminal or to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			traj, err := st.LoadTrajectory(meta.ID)
			if err != nil {
				return err
			}
			if traj.Len() == 0 {
				return fmt.Errorf("run %s has no samples", meta.ID)
			}

			for _, path := range []string{pngPath, svgPath} {
				if path == "" {
					continue
				}
				if err := viz.SavePlot(path, traj, viz.PlotKind(kind), meta.Name); err != nil {
					return err
				}
				fmt.Printf("saved %s\n", path)
			}
			if pngPath != "" || svgPath != "" {
				return nil
			}

			fmt.Println(viz.RadiusChart(traj, 70, 15))
			if energy {
				fmt.Println()
				fmt.Println(viz.EnergyChart(traj, physics.NewTwoBody(meta.Settings.Mu), 70, 10))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pngPath, "png", "", "write a PNG image")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write an SVG image")
	cmd.Flags().StringVar(&kind, "kind", string(viz.PlotOrbitXY), "image kind: "+joinKinds())
	cmd.Flags().BoolVar(&energy, "energy", false, "also chart the specific energy")
	return cmd
}

func joinKinds() string {
	names := make([]string, len(viz.PlotKinds))
	for i, k := range viz.PlotKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func newExportCmd() *cobra.Command {
	var (
		format  string
		output  string
		digits  int
		timeCol bool
	)
	cmd := &cobra.Command{
		Use:   "export <run_id>",
		Short: "export a stored run as JSON or TSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			traj, err := st.LoadTrajectory(meta.ID)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				data := store.NewExportData(meta.Config(), &meta.Settings, traj, meta.Metrics)
				return writeOutput(output, func(w io.Writer) error { return store.ExportJSON(w, data) })
			case "tsv":
				opts := store.Options{Precision: digits, WithTime: timeCol}
				if output != "" {
					return store.WriteFile(output, traj, opts)
				}
				return store.Write(os.Stdout, traj, opts)
			default:
				return fmt.Errorf("unknown format %q (want json or tsv)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or tsv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&digits, "precision", -1, "significant digits for tsv")
	cmd.Flags().BoolVar(&timeCol, "with-time", true, "include the time column in tsv")
	return cmd
}

func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stateRow(s dynamo.State) string {
	c := s.Components()
	return fmt.Sprintf("%12.4f %12.4f %12.4f %10.6f %10.6f %10.6f", c[0], c[1], c[2], c[3], c[4], c[5])
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printApsides(traj *dynamo.Trajectory, kepler float64) {
	aps := analysis.Apsides(traj)
	if len(aps) == 0 {
		return
	}
	fmt.Println("\napsides:")
	for _, a := range aps {
		fmt.Printf("  %-10s t=%-14.3f r=%.3f km\n", a.Kind, a.Time, a.Radius)
	}
	if period, ok := analysis.EstimatePeriod(aps); ok {
		fmt.Println(viz.KeyValue("period", fmt.Sprintf("%.3f s measured, %.3f s Kepler", period, kepler)))
	}
}
