package harness

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Runner repeats an operation and reduces the trials into a Result.
type Runner struct {
	Reps    int
	Timeout time.Duration
	Probe   MemoryProbe
	Logger  *slog.Logger
}

// NewRunner creates a Runner. A nil probe falls back to ProcProbe.
func NewRunner(
	reps int,
	timeout time.Duration,
	probe MemoryProbe,
	logger *slog.Logger,
) *Runner {
	if probe == nil {
		probe = ProcProbe{}
	}

	return &Runner{
		Reps:    reps,
		Timeout: timeout,
		Probe:   probe,
		Logger:  logger,
	}
}

// Run executes op Reps times, one trial after another. Only successful
// trials contribute to the timings; a failed trial replaces the
// previously retained failure. The memory probe is sampled once after
// the last trial. Identifying fields are left empty for the emitter.
func (r *Runner) Run(ctx context.Context, op Operation) *Result {
	times := make([]float64, 0, r.Reps)

	var lastErr error

	for trial := 1; trial <= r.Reps; trial++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			continue
		}

		start := time.Now()
		err := Execute(ctx, r.Timeout, op)
		elapsed := time.Since(start)

		if err == nil {
			times = append(times, elapsed.Seconds())
			continue
		}

		lastErr = err
		r.logFailure(ctx, trial, elapsed, err)
	}

	result := &Result{
		Times:        times,
		PeakMemoryKB: r.Probe.PeakKB(),
	}

	if len(times) == 0 {
		result.Status = StatusError
		switch {
		case lastErr == nil:
			result.Error = "no trials run"
		case lastErr.Error() == "":
			result.Error = "unknown error"
		default:
			result.Error = lastErr.Error()
		}

		return result
	}

	sum := Summarize(times)
	result.Mean = sum.Mean
	result.Min = sum.Min
	result.Max = sum.Max
	result.Stdev = sum.Stdev
	result.Status = StatusOK

	return result
}

func (r *Runner) logFailure(
	ctx context.Context,
	trial int,
	elapsed time.Duration,
	err error,
) {
	if r.Logger == nil {
		return
	}

	attrs := []any{
		slog.Int("trial", trial),
		slog.Duration("elapsed", elapsed),
		slog.String("error", err.Error()),
	}

	var perr *PanicError
	if errors.As(err, &perr) {
		attrs = append(attrs, slog.String("stack", perr.Stack))
	}

	r.Logger.DebugContext(ctx, "trial failed", attrs...)
}
