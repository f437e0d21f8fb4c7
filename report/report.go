// Package report formats benchmark results into comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/weiihann/wavebench/adapter"
	"github.com/weiihann/wavebench/harness"
)

const barWidth = 30

// Generate writes a markdown comparison report for the given results:
// one section per operation, one table per file, rows ordered from
// fastest to slowest, followed by the failures.
func Generate(w io.Writer, results []harness.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	var ok, failed []harness.Result
	for _, r := range results {
		if r.OK() {
			ok = append(ok, r)
		} else {
			failed = append(failed, r)
		}
	}

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- Results: %d\n", len(results))
	fmt.Fprintf(w, "- Passed: %d, Failed: %d\n", len(ok), len(failed))

	for _, op := range operations(ok) {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "### %s\n", op)

		byFile := groupByFile(ok, op)
		for _, file := range sortedKeys(byFile) {
			writeFileTable(w, file, byFile[file])
		}
	}

	if len(failed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Failures")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Library | Format | File | Operation | Error |")
		fmt.Fprintln(w, "|---------|--------|------|-----------|-------|")

		for _, r := range failed {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				r.Library, r.Format, filepath.Base(r.File), r.Operation,
				escapeCell(r.Error),
			)
		}
	}

	return nil
}

func writeFileTable(w io.Writer, file string, rows []harness.Result) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Mean != rows[j].Mean {
			return rows[i].Mean < rows[j].Mean
		}
		if rows[i].Library != rows[j].Library {
			return rows[i].Library < rows[j].Library
		}
		return rows[i].Format < rows[j].Format
	})

	fastest := rows[0].Mean
	slowest := rows[len(rows)-1].Mean

	fmt.Fprintln(w)
	fmt.Fprintf(w, "#### `%s`\n", filepath.Base(file))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Library | Format | Mean | Stdev | Min | Max "+
		"| Peak Mem | Speedup |")
	fmt.Fprintln(w, "|---------|--------|------|-------|-----|-----"+
		"|----------|---------|")

	for _, r := range rows {
		speedup := 1.0
		if fastest > 0 && r.Mean > 0 {
			speedup = r.Mean / fastest
		}

		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s | %.2fx |\n",
			r.Library,
			r.Format,
			formatSeconds(r.Mean),
			formatSeconds(r.Stdev),
			formatSeconds(r.Min),
			formatSeconds(r.Max),
			formatKB(r.PeakMemoryKB),
			speedup,
		)
	}

	if len(rows) < 2 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "```")
	for _, r := range rows {
		fmt.Fprintf(w, "%-12s |%-*s| %s\n",
			r.Library, barWidth, bar(r.Mean, slowest), formatSeconds(r.Mean))
	}
	fmt.Fprintln(w, "```")
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []harness.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

// operations returns the operations present in results: the known
// workload operations first, in suite order, then any others sorted.
func operations(results []harness.Result) []string {
	seen := make(map[string]bool)
	for _, r := range results {
		seen[r.Operation] = true
	}

	var ops []string
	for _, op := range adapter.Ops() {
		if seen[string(op)] {
			ops = append(ops, string(op))
			delete(seen, string(op))
		}
	}

	return append(ops, sortedKeys(seen)...)
}

func groupByFile(results []harness.Result, op string) map[string][]harness.Result {
	byFile := make(map[string][]harness.Result)
	for _, r := range results {
		if r.Operation == op {
			byFile[r.File] = append(byFile[r.File], r)
		}
	}

	return byFile
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}

func bar(value, top float64) string {
	if top <= 0 || value <= 0 {
		return ""
	}

	n := int(value / top * barWidth)
	n = min(barWidth, max(1, n))

	return strings.Repeat("#", n)
}

func formatSeconds(s float64) string {
	switch {
	case s <= 0:
		return "-"
	case s < 0.001:
		return fmt.Sprintf("%.1fus", s*1e6)
	case s < 1:
		return fmt.Sprintf("%.2fms", s*1e3)
	default:
		return fmt.Sprintf("%.3fs", s)
	}
}

func formatKB(kb uint64) string {
	if kb == 0 {
		return "-"
	}

	return humanize.IBytes(kb * 1024)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
