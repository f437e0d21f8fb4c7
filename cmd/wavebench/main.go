// Package main provides the CLI entry point for wavebench, a
// benchmarking harness for waveform (VCD/FST) parsing libraries.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/weiihann/wavebench/adapter"
	"github.com/weiihann/wavebench/config"
	"github.com/weiihann/wavebench/harness"
	"github.com/weiihann/wavebench/report"
	"github.com/weiihann/wavebench/store"
	"github.com/weiihann/wavebench/suite"
	"github.com/weiihann/wavebench/workload"
)

func main() {
	var level slog.LevelVar

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: &level,
	}))

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)

	root := newRootCmd(logger, &level)
	err := root.ExecuteContext(ctx)
	stop()

	if err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "wavebench",
		Short: "Waveform parser benchmarking harness",
		Long: `Wavebench runs the same workloads (full parse, signal listing,
value query and an end-to-end pipeline) through several VCD and FST
parsing libraries and emits one JSON line of timings per run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("parse log level: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(logger),
		newGenerateCmd(logger),
		newReportCmd(logger),
		newBuildCmd(logger),
	)

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [data-dir] [scale]",
		Short: "Benchmark every library against the traces in a directory",
		Long: `Discover .vcd and .fst files in the data directory and run each
supported (library, file, operation) combination, writing one JSON
result per line to stdout.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), args)
			if err != nil {
				return err
			}

			return runBenchmark(cmd.Context(), logger, cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runBenchmark(ctx context.Context, logger *slog.Logger, cfg config.Config) error {
	libs, err := parseLibraries(cfg.Libraries)
	if err != nil {
		return err
	}

	harnessesDir, err := filepath.Abs(cfg.HarnessesDir)
	if err != nil {
		return fmt.Errorf("resolve harnesses dir: %w", err)
	}

	if cfg.Build {
		for _, lib := range libs {
			if !lib.External() {
				continue
			}
			if _, err := adapter.Build(ctx, logger, harnessesDir, lib); err != nil {
				logger.WarnContext(ctx, "harness build failed",
					slog.String("library", string(lib)),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	active := make([]adapter.Library, 0, len(libs))
	binaries := make(map[adapter.Library]string, len(libs))

	for _, lib := range libs {
		if !adapter.Available(harnessesDir, lib) {
			logger.WarnContext(ctx, "skipping library without harness binary",
				slog.String("library", string(lib)),
				slog.String("binary", adapter.ResolveBinary(harnessesDir, lib)),
			)
			continue
		}

		active = append(active, lib)
		binaries[lib] = adapter.ResolveBinary(harnessesDir, lib)
	}

	files, err := suite.Discover(cfg.DataDir)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("data_dir", cfg.DataDir),
		slog.Int("scale", cfg.Scale),
		slog.Int("reps", cfg.Reps),
		slog.Duration("timeout", cfg.Timeout),
		slog.Int("vcd_files", files.Count(adapter.FormatVCD)),
		slog.Int("fst_files", files.Count(adapter.FormatFST)),
		slog.Int("libraries", len(active)),
	)

	var recorder suite.Recorder

	if cfg.DB != "" {
		st, err := store.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer st.Close()

		runID := store.NewRunID()
		if err := st.BeginRun(ctx, store.Run{
			ID:        runID,
			StartedAt: time.Now(),
			DataDir:   cfg.DataDir,
			Reps:      cfg.Reps,
			Timeout:   cfg.Timeout,
		}); err != nil {
			return err
		}

		recorder = st.Recorder(runID)

		logger.InfoContext(ctx, "recording results",
			slog.String("db", cfg.DB),
			slog.String("run_id", runID),
		)
	}

	s := &suite.Suite{
		Runner:    harness.NewRunner(cfg.Reps, cfg.Timeout, nil, logger),
		Emitter:   harness.NewEmitter(bufio.NewWriter(os.Stdout)),
		Libraries: active,
		Binaries:  binaries,
		Recorder:  recorder,
		Logger:    logger,
	}

	start := time.Now()
	if err := s.Run(ctx, files); err != nil {
		return err
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.Duration("elapsed", time.Since(start)),
	)

	return nil
}

func newGenerateCmd(logger *slog.Logger) *cobra.Command {
	var (
		scale   string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic VCD traces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generateTraces(cmd.Context(), logger, scale, dataDir)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&scale, "scale", "small",
		"Trace scale: small, medium, large or all")
	flags.StringVar(&dataDir, "data-dir", config.DefaultDataDir,
		"Directory to write bench_<scale>.vcd into")

	return cmd
}

func generateTraces(
	ctx context.Context,
	logger *slog.Logger,
	scale, dataDir string,
) error {
	scales := []string{scale}
	if scale == "all" {
		scales = workload.ScaleNames()
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	for _, name := range scales {
		cfg, err := workload.ForScale(name)
		if err != nil {
			return err
		}

		path := filepath.Join(dataDir, "bench_"+name+".vcd")
		if err := writeTrace(ctx, logger, cfg, path); err != nil {
			return fmt.Errorf("generate %s: %w", name, err)
		}
	}

	return nil
}

func writeTrace(
	ctx context.Context,
	logger *slog.Logger,
	cfg workload.Config,
	path string,
) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}

	summary, err := workload.NewGenerator(cfg).Generate(f)
	if err != nil {
		f.Close()
		os.Remove(path)

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close trace file: %w", err)
	}

	var size uint64
	if info, err := os.Stat(path); err == nil {
		size = uint64(info.Size())
	}

	logger.InfoContext(ctx, "trace generated",
		slog.String("path", path),
		slog.Int("signals", summary.Signals),
		slog.Int("timesteps", summary.Timesteps),
		slog.Int("changes", summary.Changes),
		slog.String("size", humanize.IBytes(size)),
	)

	return nil
}

func newReportCmd(logger *slog.Logger) *cobra.Command {
	var (
		dbPath     string
		runID      string
		outputJSON bool
		chartPath  string
		operation  string
	)

	cmd := &cobra.Command{
		Use:   "report [results.jsonl...]",
		Short: "Summarize benchmark results",
		Long: `Read JSONL results from the given files (or stdin), or from a
result store with --db, and print a markdown comparison report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				results []harness.Result
				err     error
			)

			if dbPath != "" {
				results, err = loadStoredResults(ctx, logger, dbPath, runID)
			} else {
				results, err = loadResultFiles(cmd.InOrStdin(), args)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				if err := report.GenerateJSON(out, results); err != nil {
					return fmt.Errorf("generate JSON report: %w", err)
				}
			} else if err := report.Generate(out, results); err != nil {
				return fmt.Errorf("generate report: %w", err)
			}

			if chartPath == "" {
				return nil
			}

			if err := report.Chart(results, operation, chartPath); err != nil {
				return err
			}

			logger.InfoContext(ctx, "chart written",
				slog.String("path", chartPath),
				slog.String("operation", operation),
			)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&dbPath, "db", "",
		"Read results from this SQLite store instead of JSONL")
	flags.StringVar(&runID, "run", "",
		"Run ID to report (default: latest run)")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of markdown")
	flags.StringVar(&chartPath, "chart", "",
		"Also render a bar chart to this path (.png, .svg, .pdf)")
	flags.StringVar(&operation, "operation", string(adapter.OpFullParse),
		"Operation to chart")

	return cmd
}

func loadResultFiles(stdin io.Reader, paths []string) ([]harness.Result, error) {
	if len(paths) == 0 {
		return report.ReadResults(stdin)
	}

	var results []harness.Result

	for _, path := range paths {
		rs, err := readResultFile(stdin, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		results = append(results, rs...)
	}

	return results, nil
}

func readResultFile(stdin io.Reader, path string) ([]harness.Result, error) {
	if path == "-" {
		return report.ReadResults(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return report.ReadResults(f)
}

func loadStoredResults(
	ctx context.Context,
	logger *slog.Logger,
	dbPath, runID string,
) ([]harness.Result, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if runID == "" {
		run, err := st.LatestRun(ctx)
		if errors.Is(err, store.ErrNoRuns) {
			return nil, fmt.Errorf("no runs in %s", dbPath)
		}
		if err != nil {
			return nil, err
		}

		runID = run.ID
		logger.InfoContext(ctx, "reporting latest run",
			slog.String("run_id", runID),
			slog.String("started", humanize.Time(run.StartedAt)),
		)
	}

	return st.Results(ctx, runID)
}

func newBuildCmd(logger *slog.Logger) *cobra.Command {
	var (
		libraries    []string
		harnessesDir string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the external harness binaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			libs, err := parseLibraries(libraries)
			if err != nil {
				return err
			}

			dir, err := filepath.Abs(harnessesDir)
			if err != nil {
				return fmt.Errorf("resolve harnesses dir: %w", err)
			}

			for _, lib := range libs {
				if !lib.External() {
					continue
				}
				if _, err := adapter.Build(cmd.Context(), logger, dir, lib); err != nil {
					return err
				}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&libraries, "libraries", nil,
		"Libraries to build (default: all external libraries)")
	flags.StringVar(&harnessesDir, "harnesses-dir", config.DefaultHarnessesDir,
		"Directory holding the harness sources")

	return cmd
}

// parseLibraries resolves library names, defaulting to all of them.
func parseLibraries(names []string) ([]adapter.Library, error) {
	if len(names) == 0 {
		return adapter.KnownLibraries(), nil
	}

	libs := make([]adapter.Library, 0, len(names))
	for _, name := range names {
		lib, err := adapter.Parse(name)
		if err != nil {
			return nil, err
		}
		libs = append(libs, lib)
	}

	return libs, nil
}
