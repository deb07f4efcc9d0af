package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/integrators"
)

// Propagator drives an embedded stepper from the start to the stop time of
// a Config, adapting the step size after every step. A Propagator owns the
// stepper's scratch buffers and must not run concurrently with itself.
type Propagator struct {
	dyn       dynamo.System
	stepper   dynamo.EmbeddedIntegrator
	settings  dynamo.Settings
	control   integrators.StepControl
	logger    *slog.Logger
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

type Option func(*Propagator)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Propagator) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithObserver(o dynamo.Observer) Option {
	return func(p *Propagator) { p.observers = append(p.observers, o) }
}

func WithMetric(m dynamo.Metric) Option {
	return func(p *Propagator) { p.metrics = append(p.metrics, m) }
}

// WithStepper replaces the default Cash-Karp stepper.
func WithStepper(s dynamo.EmbeddedIntegrator) Option {
	return func(p *Propagator) { p.stepper = s }
}

func New(dyn dynamo.System, settings dynamo.Settings, opts ...Option) *Propagator {
	p := &Propagator{
		dyn:      dyn,
		stepper:  integrators.NewRKCK(),
		settings: settings,
		control:  integrators.NewStepControl(settings),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Propagator) AddMetric(m dynamo.Metric)     { p.metrics = append(p.metrics, m) }
func (p *Propagator) AddObserver(o dynamo.Observer) { p.observers = append(p.observers, o) }

func (p *Propagator) Settings() dynamo.Settings { return p.settings }

// Metrics returns the current value of every attached metric by name.
func (p *Propagator) Metrics() map[string]float64 {
	out := make(map[string]float64, len(p.metrics))
	for _, m := range p.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Run propagates cfg and returns the recorded trajectory. The first sample
// is (StartTime, InitialState) and times are strictly increasing. On any
// failure the trajectory is discarded and the error is returned, wrapped
// in a *dynamo.SimulationError once stepping has begun.
func (p *Propagator) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Trajectory, error) {
	traj := dynamo.NewTrajectory(p.estimateSamples(cfg))
	err := p.run(ctx, cfg, func(s dynamo.Sample) bool {
		traj.Append(s.Time, s.State)
		return true
	})
	if err != nil {
		return nil, err
	}
	return traj, nil
}

// RunWithCallback propagates cfg and hands every recorded sample to fn.
// Returning false from fn stops the run without error.
func (p *Propagator) RunWithCallback(ctx context.Context, cfg dynamo.Config, fn func(dynamo.Sample) bool) error {
	return p.run(ctx, cfg, fn)
}

func (p *Propagator) run(ctx context.Context, cfg dynamo.Config, emit func(dynamo.Sample) bool) error {
	if err := p.validate(cfg); err != nil {
		return err
	}

	s := p.settings
	clamp := s.Boundary == dynamo.BoundaryClamp
	reject := s.Policy == dynamo.RejectOnExceededTolerance

	for _, m := range p.metrics {
		m.Reset()
	}

	t, y := cfg.StartTime, cfg.InitialState
	h := s.InitialStep
	steps, rejects, recorded := 0, 0, 1

	fail := func(hs float64, err error) error {
		p.logger.Debug("propagation failed", "name", cfg.Name, "step", steps, "t", t, "h", hs, "error", err)
		return &dynamo.SimulationError{Step: steps, Time: t, H: hs, State: y, Wrapped: err}
	}

	if !y.IsValid() {
		return fail(h, fmt.Errorf("%w: initial state %v", dynamo.ErrDivergence, y))
	}
	if err := p.checkRadius(y); err != nil {
		return fail(h, err)
	}

	p.logger.Debug("propagation started",
		"name", cfg.Name, "start", cfg.StartTime, "stop", cfg.StopTime,
		"policy", s.Policy, "boundary", s.Boundary, "accuracy", s.Accuracy)

	if !emit(dynamo.Sample{Time: t, State: y}) {
		return nil
	}

	for (clamp && t < cfg.StopTime) || (!clamp && t <= cfg.StopTime) {
		if err := ctx.Err(); err != nil {
			return fail(h, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err))
		}
		if h < s.MinStep {
			return fail(h, fmt.Errorf("%w: step size %g below minimum %g", dynamo.ErrNonTermination, h, s.MinStep))
		}
		if steps >= s.MaxSteps {
			return fail(h, fmt.Errorf("%w: exceeded %d steps", dynamo.ErrNonTermination, s.MaxSteps))
		}
		steps++

		hs := h
		last := false
		if clamp && t+hs >= cfg.StopTime {
			hs = cfg.StopTime - t
			last = true
		}

		y5, errEst, err := p.stepper.StepWithError(p.dyn, t, y, hs)
		if err != nil {
			return fail(hs, err)
		}
		next, err := p.control.Next(hs, errEst)
		if err != nil {
			return fail(hs, err)
		}

		info := dynamo.StepInfo{Step: steps, Time: t, H: hs, NextH: next, Err: errEst, Start: y}

		if reject && p.control.Exceeded(errEst) {
			rejects++
			info.State = y
			p.notify(info)
			if rejects > s.MaxRejects {
				return fail(hs, fmt.Errorf("%w: %d consecutive rejections", dynamo.ErrNonTermination, rejects))
			}
			h = next
			continue
		}
		rejects = 0

		tNext := t + hs
		if !clamp {
			tNext = t + next
		}
		if last {
			tNext = cfg.StopTime
		}
		if tNext == t {
			return fail(hs, fmt.Errorf("%w: step %g makes no progress at t=%g", dynamo.ErrNonTermination, hs, t))
		}
		if !y5.IsValid() {
			return fail(hs, fmt.Errorf("%w: state %v", dynamo.ErrDivergence, y5))
		}
		if err := p.checkRadius(y5); err != nil {
			return fail(hs, err)
		}

		info.Accepted = true
		info.State = y5
		p.notify(info)

		h = next
		if !clamp && tNext > cfg.StopTime {
			break
		}
		t, y = tNext, y5
		recorded++
		if !emit(dynamo.Sample{Time: t, State: y}) {
			break
		}
	}

	p.logger.Debug("propagation complete", "name", cfg.Name, "steps", steps, "samples", recorded, "t", t)
	return nil
}

func (p *Propagator) validate(cfg dynamo.Config) error {
	if err := p.settings.Validate(); err != nil {
		return err
	}
	if math.IsNaN(cfg.StartTime) || math.IsInf(cfg.StartTime, 0) ||
		math.IsNaN(cfg.StopTime) || math.IsInf(cfg.StopTime, 0) {
		return fmt.Errorf("%w: non-finite interval [%g, %g]", dynamo.ErrInvalidInterval, cfg.StartTime, cfg.StopTime)
	}
	if cfg.StopTime < cfg.StartTime {
		return fmt.Errorf("%w: start %g, stop %g", dynamo.ErrInvalidInterval, cfg.StartTime, cfg.StopTime)
	}
	return nil
}

func (p *Propagator) checkRadius(y dynamo.State) error {
	if y.IsDegenerate() {
		return fmt.Errorf("%w: position at the origin", dynamo.ErrNumericDegeneracy)
	}
	if r := y.Radius(); r <= p.settings.MinRadius {
		return fmt.Errorf("%w: radius %g at or below minimum %g", dynamo.ErrNumericDegeneracy, r, p.settings.MinRadius)
	}
	return nil
}

func (p *Propagator) notify(info dynamo.StepInfo) {
	for _, m := range p.metrics {
		m.Observe(info)
	}
	for _, o := range p.observers {
		o.OnStep(info)
	}
}

func (p *Propagator) estimateSamples(cfg dynamo.Config) int {
	const maxPrealloc = 1 << 12
	n := cfg.Duration()/p.settings.InitialStep + 1
	if !(n > 0) {
		return 1
	}
	if n > maxPrealloc {
		return maxPrealloc
	}
	return int(n)
}
