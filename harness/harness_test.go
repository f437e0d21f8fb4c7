package harness

import (
	"context"
	"errors"
	"testing"
	"time"
)

// sequence returns an operation whose n-th call returns outcomes[n].
// Calls past the end succeed.
func sequence(outcomes ...error) (Operation, *int) {
	calls := 0

	return func(context.Context) error {
		i := calls
		calls++
		if i < len(outcomes) {
			return outcomes[i]
		}
		return nil
	}, &calls
}

func fixedProbe(kb uint64) ProbeFunc {
	return func() uint64 { return kb }
}

func TestRunAllTrialsSucceed(t *testing.T) {
	op, calls := sequence()
	runner := NewRunner(3, time.Second, fixedProbe(42), nil)

	result := runner.Run(context.Background(), op)

	if *calls != 3 {
		t.Errorf("calls = %d, want 3", *calls)
	}
	if result.Status != StatusOK {
		t.Fatalf("status = %q, want ok (error %q)", result.Status, result.Error)
	}
	if len(result.Times) != 3 {
		t.Errorf("times = %d, want 3", len(result.Times))
	}
	if result.Error != "" {
		t.Errorf("error = %q, want empty", result.Error)
	}
	if result.Min > result.Mean || result.Mean > result.Max {
		t.Errorf("want min <= mean <= max, got %v <= %v <= %v",
			result.Min, result.Mean, result.Max)
	}
	if result.Stdev < 0 {
		t.Errorf("stdev = %v, want >= 0", result.Stdev)
	}
	if result.PeakMemoryKB != 42 {
		t.Errorf("peak_memory_kb = %d, want 42", result.PeakMemoryKB)
	}
	if result.Library != "" || result.File != "" || result.Operation != "" {
		t.Errorf("runner set identifying fields: %+v", result)
	}
}

func TestRunMixedTrials(t *testing.T) {
	op, _ := sequence(nil, errors.New("bad header"), nil)
	runner := NewRunner(3, time.Second, fixedProbe(0), nil)

	result := runner.Run(context.Background(), op)

	if result.Status != StatusOK {
		t.Fatalf("status = %q, want ok", result.Status)
	}
	if len(result.Times) != 2 {
		t.Errorf("times = %d, want 2", len(result.Times))
	}
	if result.Error != "" {
		t.Errorf("error = %q, want empty", result.Error)
	}
}

func TestRunLastErrorWins(t *testing.T) {
	op, _ := sequence(
		errors.New("first"),
		errors.New("second"),
		errors.New("third"),
	)
	runner := NewRunner(3, time.Second, fixedProbe(7), nil)

	result := runner.Run(context.Background(), op)

	if result.Status != StatusError {
		t.Fatalf("status = %q, want error", result.Status)
	}
	if result.Error != "third" {
		t.Errorf("error = %q, want third", result.Error)
	}
	if result.Times == nil || len(result.Times) != 0 {
		t.Errorf("times = %v, want empty non-nil", result.Times)
	}
	if result.Mean != 0 || result.Min != 0 || result.Max != 0 || result.Stdev != 0 {
		t.Errorf("stats not zeroed: %+v", result)
	}
	if result.PeakMemoryKB != 7 {
		t.Errorf("peak_memory_kb = %d, want 7", result.PeakMemoryKB)
	}
}

func TestRunFailureAfterSuccess(t *testing.T) {
	op, _ := sequence(nil, errors.New("late failure"))
	runner := NewRunner(2, time.Second, fixedProbe(0), nil)

	result := runner.Run(context.Background(), op)

	if result.Status != StatusOK {
		t.Fatalf("status = %q, want ok", result.Status)
	}
	if len(result.Times) != 1 {
		t.Errorf("times = %d, want 1", len(result.Times))
	}
}

func TestRunPanicsBecomeErrors(t *testing.T) {
	runner := NewRunner(2, time.Second, fixedProbe(0), nil)

	result := runner.Run(context.Background(), func(context.Context) error {
		panic("boom")
	})

	if result.Status != StatusError {
		t.Fatalf("status = %q, want error", result.Status)
	}
	if result.Error != "panic: boom" {
		t.Errorf("error = %q, want %q", result.Error, "panic: boom")
	}
}

func TestRunEmptyErrorMessage(t *testing.T) {
	op, _ := sequence(errors.New(""))
	result := NewRunner(1, time.Second, fixedProbe(0), nil).Run(context.Background(), op)

	if result.Status != StatusError {
		t.Fatalf("status = %q, want error", result.Status)
	}
	if result.Error != "unknown error" {
		t.Errorf("error = %q, want %q", result.Error, "unknown error")
	}
}

func TestRunTimeout(t *testing.T) {
	runner := NewRunner(2, 10*time.Millisecond, fixedProbe(0), nil)

	result := runner.Run(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if result.Status != StatusError {
		t.Fatalf("status = %q, want error", result.Status)
	}
	if result.Error != "timeout" {
		t.Errorf("error = %q, want timeout", result.Error)
	}
	if len(result.Times) != 0 {
		t.Errorf("times = %d, want 0", len(result.Times))
	}
}

func TestRunTimeoutFullLength(t *testing.T) {
	if testing.Short() {
		t.Skip("slow timeout test")
	}

	runner := NewRunner(3, time.Second, fixedProbe(0), nil)

	start := time.Now()
	result := runner.Run(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	elapsed := time.Since(start)

	if result.Error != "timeout" {
		t.Errorf("error = %q, want timeout", result.Error)
	}
	if elapsed < 3*time.Second {
		t.Errorf("elapsed = %v, want at least 3s", elapsed)
	}
	if elapsed > 5*time.Second {
		t.Errorf("elapsed = %v, want well under 5s", elapsed)
	}
}

func TestRunSamplesProbeOnce(t *testing.T) {
	samples := 0
	probe := ProbeFunc(func() uint64 {
		samples++
		return 1
	})

	op, _ := sequence()
	NewRunner(5, time.Second, probe, nil).Run(context.Background(), op)

	if samples != 1 {
		t.Errorf("probe sampled %d times, want 1", samples)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op, calls := sequence()
	result := NewRunner(3, time.Second, fixedProbe(0), nil).Run(ctx, op)

	if *calls != 0 {
		t.Errorf("calls = %d, want 0", *calls)
	}
	if result.Error != context.Canceled.Error() {
		t.Errorf("error = %q, want %q", result.Error, context.Canceled.Error())
	}
}

func TestRunNoReps(t *testing.T) {
	op, _ := sequence()
	result := NewRunner(0, time.Second, fixedProbe(0), nil).Run(context.Background(), op)

	if result.Status != StatusError {
		t.Fatalf("status = %q, want error", result.Status)
	}
	if result.Error != "no trials run" {
		t.Errorf("error = %q, want %q", result.Error, "no trials run")
	}
}

func TestNewRunnerDefaultsProbe(t *testing.T) {
	runner := NewRunner(1, time.Second, nil, nil)

	if _, ok := runner.Probe.(ProcProbe); !ok {
		t.Errorf("probe = %T, want ProcProbe", runner.Probe)
	}
}
