package sim

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/orbitprop/internal/dynamo"
	"github.com/san-kum/orbitprop/internal/physics"
)

// Job is one independent two-body propagation.
type Job struct {
	Config   dynamo.Config
	Settings dynamo.Settings
}

type BatchResult struct {
	Job        Job
	Trajectory *dynamo.Trajectory
	Metrics    map[string]float64
	Elapsed    time.Duration
	Err        error
}

// Batch runs jobs concurrently, each on its own propagator.
type Batch struct {
	workers int
	logger  *slog.Logger
	metrics func() []dynamo.Metric
}

// NewBatch limits concurrency to workers; workers < 1 uses GOMAXPROCS.
func NewBatch(workers int, logger *slog.Logger) *Batch {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Batch{workers: workers, logger: logger}
}

// WithMetrics sets a factory for the metrics attached to every job.
// Metrics keep state, so each job needs fresh instances.
func (b *Batch) WithMetrics(factory func() []dynamo.Metric) *Batch {
	b.metrics = factory
	return b
}

// Run propagates every job. A failing job records its error in its result
// and does not stop the others; only cancellation of ctx aborts the batch.
// Results are in job order.
func (b *Batch) Run(ctx context.Context, jobs []Job) ([]BatchResult, error) {
	results := make([]BatchResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			opts := []Option{WithLogger(b.logger.With("job", job.Config.Name))}
			if b.metrics != nil {
				for _, m := range b.metrics() {
					opts = append(opts, WithMetric(m))
				}
			}
			prop := New(physics.NewTwoBody(job.Settings.Mu), job.Settings, opts...)

			begin := time.Now()
			traj, err := prop.Run(ctx, job.Config)
			results[i] = BatchResult{
				Job:        job,
				Trajectory: traj,
				Metrics:    prop.Metrics(),
				Elapsed:    time.Since(begin),
				Err:        err,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
