package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/weiihann/wavebench/harness"
)

// ErrNoRuns is returned by LatestRun on an empty store.
var ErrNoRuns = errors.New("no runs recorded")

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run describes one invocation of the benchmark suite.
type Run struct {
	ID        string
	StartedAt time.Time
	DataDir   string
	Reps      int
	Timeout   time.Duration
}

// BeginRun records the start of a run.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, data_dir, reps, timeout_ms)
		VALUES (?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.DataDir,
		run.Reps,
		run.Timeout.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	return nil
}

// Insert appends a result to the given run.
func (s *Store) Insert(ctx context.Context, runID string, res *harness.Result) error {
	times := res.Times
	if times == nil {
		times = []float64{}
	}

	timesJSON, err := json.Marshal(times)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results
		(run_id, library, format, file, operation, times, mean, min, max,
		 stdev, peak_memory_kb, status, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		res.Library,
		res.Format,
		res.File,
		res.Operation,
		string(timesJSON),
		res.Mean,
		res.Min,
		res.Max,
		res.Stdev,
		int64(res.PeakMemoryKB),
		string(res.Status),
		res.Error,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	return nil
}

// Results returns the results of a run in insertion order.
func (s *Store) Results(ctx context.Context, runID string) ([]harness.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT library, format, file, operation, times, mean, min, max,
		       stdev, peak_memory_kb, status, error
		FROM results
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []harness.Result

	for rows.Next() {
		var (
			res       harness.Result
			timesJSON string
			peak      int64
			status    string
		)

		if err := rows.Scan(
			&res.Library, &res.Format, &res.File, &res.Operation,
			&timesJSON, &res.Mean, &res.Min, &res.Max, &res.Stdev,
			&peak, &status, &res.Error,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		if err := json.Unmarshal([]byte(timesJSON), &res.Times); err != nil {
			return nil, fmt.Errorf("decode times: %w", err)
		}

		res.PeakMemoryKB = uint64(peak)
		res.Status = harness.Status(status)
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return results, nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, data_dir, reps, timeout_ms
		FROM runs
		ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var (
			run       Run
			startedAt string
			timeoutMs int64
		)

		if err := rows.Scan(
			&run.ID, &startedAt, &run.DataDir, &run.Reps, &timeoutMs,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}

		run.Timeout = time.Duration(timeoutMs) * time.Millisecond
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var (
		run       Run
		startedAt string
		timeoutMs int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, data_dir, reps, timeout_ms
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`).Scan(&run.ID, &startedAt, &run.DataDir, &run.Reps, &timeoutMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("query latest run: %w", err)
	}

	run.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}

	run.Timeout = time.Duration(timeoutMs) * time.Millisecond

	return run, nil
}

// Recorder binds a run ID so the store can receive results as the
// suite emits them.
func (s *Store) Recorder(runID string) *RunRecorder {
	return &RunRecorder{store: s, runID: runID}
}

// RunRecorder records results under a fixed run ID.
type RunRecorder struct {
	store *Store
	runID string
}

// Record inserts res under the recorder's run.
func (r *RunRecorder) Record(ctx context.Context, res *harness.Result) error {
	return r.store.Insert(ctx, r.runID, res)
}
