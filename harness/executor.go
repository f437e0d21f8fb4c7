package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ErrTimeout is returned by Execute when an operation does not finish
// within its timeout. The message is part of the output contract.
var ErrTimeout = errors.New("timeout")

var errGoexit = errors.New("runtime.Goexit called")

// Operation is a single unit of benchmarked work. A nil return is
// success; any error is an operation-reported failure.
type Operation func(ctx context.Context) error

// PanicError is returned by Execute when an operation panics.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return "panic: " + panicMessage(e.Value)
}

func panicMessage(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case error:
		return p.Error()
	case fmt.Stringer:
		return p.String()
	default:
		return "unknown panic"
	}
}

// Execute runs op on its own goroutine and waits at most timeout for
// it. A panic inside op is recovered and returned as *PanicError. On
// timeout the worker's context is cancelled and ErrTimeout is returned
// immediately; a worker that ignores its context is abandoned and its
// late result is dropped. A non-positive timeout waits indefinitely.
func Execute(ctx context.Context, timeout time.Duration, op Operation) error {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so an abandoned worker can always deliver and exit.
	done := make(chan error, 1)

	go func() {
		returned := false

		defer func() {
			r := recover()
			if r == nil && returned {
				return
			}
			if r == nil {
				// runtime.Goexit unwinds without a panic value.
				r = errGoexit
			}

			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			done <- &PanicError{Value: r, Stack: string(buf[:n])}
		}()

		err := op(workCtx)
		returned = true
		done <- err
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err := <-done:
		return err
	case <-expired:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
