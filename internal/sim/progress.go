package sim

import (
	"log/slog"

	"github.com/san-kum/orbitprop/internal/dynamo"
)

// ProgressLogger logs per-step diagnostics at debug level: the fraction of
// the interval covered, the attempted step size and its error estimate.
// Rejected steps are always logged.
type ProgressLogger struct {
	logger      *slog.Logger
	start, stop float64
	every       int
}

// NewProgressLogger logs every n-th step of cfg; n < 1 logs every step.
func NewProgressLogger(logger *slog.Logger, cfg dynamo.Config, n int) *ProgressLogger {
	if n < 1 {
		n = 1
	}
	return &ProgressLogger{logger: logger, start: cfg.StartTime, stop: cfg.StopTime, every: n}
}

func (p *ProgressLogger) OnStep(info dynamo.StepInfo) {
	if info.Accepted && info.Step%p.every != 0 {
		return
	}

	progress := 1.0
	if span := p.stop - p.start; span > 0 {
		progress = (info.Time - p.start) / span
	}

	p.logger.Debug("step",
		"step", info.Step,
		"progress", progress,
		"h", info.H,
		"err", info.Err,
		"accepted", info.Accepted)
}
