package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/physics"
	"github.com/san-kum/orbitprop/internal/sim"
)

var _ = Describe("Propagator", func() {
	const r0 = 7000.0
	var settings dynamo.Settings

	BeforeEach(func() {
		settings = dynamo.DefaultSettings()
		settings.Accuracy = 1e-3
	})

	run := func(cfg dynamo.Config) (*dynamo.Trajectory, error) {
		p := sim.New(physics.NewTwoBody(settings.Mu), settings)
		return p.Run(context.Background(), cfg)
	}

	Context("on a circular orbit", func() {
		var (
			cfg    dynamo.Config
			period float64
		)

		BeforeEach(func() {
			v := math.Sqrt(physics.EarthMu / r0)
			period = 2 * math.Pi * math.Sqrt(r0*r0*r0/physics.EarthMu)
			cfg = dynamo.Config{
				Name:         "circular",
				InitialState: dynamo.NewState(r0, 0, 0, 0, v, 0),
				StopTime:     period,
			}
		})

		It("returns to the start after one period", func() {
			traj, err := run(cfg)
			Expect(err).NotTo(HaveOccurred())

			last := traj.Last()
			Expect(last.Time).To(Equal(period))
			Expect(last.State.Sub(cfg.InitialState).ErrorNorm()).To(BeNumerically("<", 1.0))
		})

		It("keeps the radius within a kilometre", func() {
			traj, err := run(cfg)
			Expect(err).NotTo(HaveOccurred())

			for _, r := range traj.Radii() {
				Expect(r).To(BeNumerically("~", r0, 1.0))
			}
		})

		It("starts at the start time and strictly increases", func() {
			cfg.StartTime = 1000
			cfg.StopTime += 1000

			traj, err := run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.First().Time).To(Equal(1000.0))
			Expect(traj.First().State).To(Equal(cfg.InitialState))

			times := traj.Times()
			for i := 1; i < len(times); i++ {
				Expect(times[i]).To(BeNumerically(">", times[i-1]))
			}
		})

		It("conserves energy to a small relative drift", func() {
			dyn := physics.NewTwoBody(settings.Mu)
			traj, err := run(cfg)
			Expect(err).NotTo(HaveOccurred())

			e0 := dyn.Energy(traj.First().State)
			e1 := dyn.Energy(traj.Last().State)
			Expect(math.Abs((e1 - e0) / e0)).To(BeNumerically("<", 1e-3))
		})

		It("stops at or before the stop time with the legacy boundary", func() {
			settings.Boundary = dynamo.BoundaryLegacy

			traj, err := run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Last().Time).To(BeNumerically("<=", period))
		})
	})

	Context("on a radial fall", func() {
		var cfg dynamo.Config

		BeforeEach(func() {
			settings = dynamo.DefaultSettings()
			cfg = dynamo.Config{
				Name:         "radial-fall",
				InitialState: dynamo.NewState(r0, 0, 0, 0, 0, 0),
				StopTime:     2000,
			}
		})

		collect := func() ([]dynamo.Sample, error) {
			var samples []dynamo.Sample
			p := sim.New(physics.NewTwoBody(settings.Mu), settings)
			err := p.RunWithCallback(context.Background(), cfg, func(s dynamo.Sample) bool {
				samples = append(samples, s)
				return true
			})
			return samples, err
		}

		It("falls monotonically until it reports degeneracy", func() {
			samples, err := collect()
			Expect(err).To(MatchError(dynamo.ErrNumericDegeneracy))

			var simErr *dynamo.SimulationError
			Expect(err).To(BeAssignableToTypeOf(simErr))
			Expect(len(samples)).To(BeNumerically(">", 2))
			for i := 1; i < len(samples); i++ {
				Expect(samples[i].State.Radius()).To(BeNumerically("<", samples[i-1].State.Radius()))
			}
		})

		It("still reports degeneracy with a tighter accuracy and a smaller guard radius", func() {
			settings.Accuracy = 1e-3
			settings.MinRadius = 500

			samples, err := collect()
			Expect(err).To(MatchError(dynamo.ErrNumericDegeneracy))
			for i := 1; i < len(samples); i++ {
				Expect(samples[i].State.Radius()).To(BeNumerically("<", samples[i-1].State.Radius()))
			}
			Expect(samples[len(samples)-1].State.Radius()).To(BeNumerically("<", 1000))
		})

		It("discards the trajectory on failure", func() {
			traj, err := run(cfg)
			Expect(err).To(HaveOccurred())
			Expect(traj).To(BeNil())
		})

		It("rejects oversized steps under the reject policy", func() {
			settings.Policy = dynamo.RejectOnExceededTolerance

			rejected := 0
			p := sim.New(physics.NewTwoBody(settings.Mu), settings,
				sim.WithObserver(dynamo.ObserverFunc(func(info dynamo.StepInfo) {
					if !info.Accepted {
						rejected++
					}
				})))

			var radii []float64
			err := p.RunWithCallback(context.Background(), cfg, func(s dynamo.Sample) bool {
				radii = append(radii, s.State.Radius())
				return true
			})

			Expect(err).To(MatchError(dynamo.ErrNumericDegeneracy))
			Expect(rejected).To(BeNumerically(">", 0))
			for i := 1; i < len(radii); i++ {
				Expect(radii[i]).To(BeNumerically("<", radii[i-1]))
			}
		})
	})
})
