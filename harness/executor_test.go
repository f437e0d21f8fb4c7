package harness

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringer struct{}

func (stringer) String() string { return "from stringer" }

func TestExecuteSuccess(t *testing.T) {
	err := Execute(context.Background(), time.Second, func(context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestExecuteReturnsOperationError(t *testing.T) {
	want := errors.New("bad header")

	err := Execute(context.Background(), time.Second, func(context.Context) error {
		return want
	})
	require.ErrorIs(t, err, want)
	assert.Equal(t, "bad header", err.Error())
}

func TestExecutePanic(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{name: "string", payload: "boom", want: "panic: boom"},
		{name: "error", payload: errors.New("index out of range"), want: "panic: index out of range"},
		{name: "stringer", payload: stringer{}, want: "panic: from stringer"},
		{name: "other", payload: 42, want: "panic: unknown panic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Execute(context.Background(), time.Second, func(context.Context) error {
				panic(tt.payload)
			})
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())

			var perr *PanicError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.payload, perr.Value)
			assert.NotEmpty(t, perr.Stack)
		})
	}
}

func TestExecuteTimeoutCancelsWorker(t *testing.T) {
	cancelled := make(chan struct{})

	err := Execute(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "timeout", err.Error())

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("worker context was not cancelled")
	}
}

func TestExecuteAbandonsUncooperativeWorker(t *testing.T) {
	start := time.Now()

	err := Execute(context.Background(), 10*time.Millisecond, func(context.Context) error {
		time.Sleep(300 * time.Millisecond)
		return nil
	})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestExecuteParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Execute(ctx, time.Second, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteWithoutTimeout(t *testing.T) {
	err := Execute(context.Background(), 0, func(context.Context) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	assert.NoError(t, err)
}

func TestExecuteGoexit(t *testing.T) {
	start := time.Now()
	err := Execute(context.Background(), 5*time.Second, func(context.Context) error {
		runtime.Goexit()
		return nil
	})

	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "panic: runtime.Goexit called", err.Error())
	assert.NotEmpty(t, perr.Stack)
	assert.Less(t, time.Since(start), time.Second)
}
