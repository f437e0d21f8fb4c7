// Package suite drives every (library, format, file, operation) tuple
// through the trial runner and emits one result per tuple.
package suite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weiihann/wavebench/adapter"
	"github.com/weiihann/wavebench/harness"
)

// Recorder persists emitted results alongside the primary output.
type Recorder interface {
	Record(ctx context.Context, res *harness.Result) error
}

// Suite runs the benchmark matrix sequentially.
type Suite struct {
	Runner    *harness.Runner
	Emitter   *harness.Emitter
	Libraries []adapter.Library
	// Binaries maps external libraries to their harness binary.
	Binaries map[adapter.Library]string
	Recorder Recorder
	Logger   *slog.Logger
}

// Run benchmarks files format by format, file by file, library by
// library and operation by operation. Trial failures end up in the
// emitted results; only output and cancellation errors stop the run.
func (s *Suite) Run(ctx context.Context, files Files) error {
	for _, format := range adapter.Formats() {
		for _, path := range files[format] {
			s.Logger.InfoContext(ctx, "benchmarking file",
				slog.String("format", string(format)),
				slog.String("file", path),
			)

			if err := s.runFile(ctx, format, path); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Suite) runFile(ctx context.Context, format adapter.Format, path string) error {
	for _, lib := range s.Libraries {
		if !lib.Supports(format) {
			continue
		}

		logger := s.Logger.With(
			slog.String("library", string(lib)),
			slog.String("file", path),
		)
		logger.InfoContext(ctx, "running library")

		for _, op := range adapter.Ops() {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("benchmark interrupted: %w", err)
			}

			res := s.Runner.Run(ctx, lib.Operation(op, path, s.Binaries[lib]))

			if err := s.Emitter.Emit(
				res, string(lib), string(format), path, string(op),
			); err != nil {
				return fmt.Errorf("emit %s/%s: %w", lib, op, err)
			}

			if !res.OK() {
				logger.WarnContext(ctx, "operation failed",
					slog.String("operation", string(op)),
					slog.String("error", res.Error),
				)
			}

			if s.Recorder == nil {
				continue
			}

			if err := s.Recorder.Record(ctx, res); err != nil {
				logger.WarnContext(ctx, "failed to record result",
					slog.String("operation", string(op)),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return nil
}
