package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/weiihann/wavebench/harness"
	"github.com/weiihann/wavebench/vcd"
)

// ctxCheckEvery is how many commands are streamed between checks for
// cancellation.
const ctxCheckEvery = 4096

var (
	errNoVariables = errors.New("no variables found")
	errNoSignals   = errors.New("no signals to query")
)

func goVCDOperation(op Op, path string) harness.Operation {
	switch op {
	case OpFullParse:
		return func(ctx context.Context) error {
			return withVCD(path, func(r *vcd.Reader) error {
				if _, err := r.ReadHeader(); err != nil {
					return err
				}

				_, err := stream(ctx, r, nil)

				return err
			})
		}

	case OpSignalList:
		return func(ctx context.Context) error {
			return withVCD(path, func(r *vcd.Reader) error {
				h, err := r.ReadHeader()
				if err != nil {
					return err
				}
				if len(h.Vars) == 0 {
					return errNoVariables
				}

				return nil
			})
		}

	case OpValueQuery:
		return func(ctx context.Context) error {
			return withVCD(path, func(r *vcd.Reader) error {
				h, err := r.ReadHeader()
				if err != nil {
					return err
				}

				codes := h.Codes(querySignals)
				if len(codes) == 0 {
					return errNoSignals
				}

				_, err = stream(ctx, r, codes)

				return err
			})
		}

	case OpPipeline:
		return func(ctx context.Context) error {
			return withVCD(path, func(r *vcd.Reader) error {
				h, err := r.ReadHeader()
				if err != nil {
					return err
				}
				if len(h.Vars) == 0 {
					return errNoVariables
				}

				st, err := stream(ctx, r, h.Codes(querySignals))
				if err != nil {
					return err
				}
				if st.last < st.first {
					return fmt.Errorf("time range %d..%d is inverted", st.first, st.last)
				}

				return nil
			})
		}

	default:
		return func(context.Context) error {
			return fmt.Errorf("unknown operation %q", op)
		}
	}
}

func withVCD(path string, fn func(r *vcd.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return fn(vcd.NewReader(f))
}

type streamStats struct {
	first, last uint64
	changes     uint64
	matches     uint64
}

// stream drains the value section, counting changes to any of codes.
func stream(ctx context.Context, r *vcd.Reader, codes []string) (streamStats, error) {
	want := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		want[c] = struct{}{}
	}

	var (
		st      streamStats
		seenTS  bool
		counter int
	)

	for {
		counter++
		if counter%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return st, err
			}
		}

		cmd, err := r.Next()
		if errors.Is(err, io.EOF) {
			return st, nil
		}
		if err != nil {
			return st, err
		}

		if cmd.Kind == vcd.Timestamp {
			if !seenTS {
				st.first = cmd.Time
				seenTS = true
			}
			st.last = cmd.Time

			continue
		}

		st.changes++
		if _, ok := want[cmd.Code]; ok {
			st.matches++
		}
	}
}
