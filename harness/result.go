// Package harness runs waveform-library operations under isolation and
// turns repeated trials into benchmark results.
package harness

// Status is the outcome of a benchmarked operation.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result holds the structured output for one (library, format, file,
// operation) tuple. Times are in seconds.
type Result struct {
	Library      string    `json:"library"`
	Format       string    `json:"format"`
	File         string    `json:"file"`
	Operation    string    `json:"operation"`
	Times        []float64 `json:"times"`
	Mean         float64   `json:"mean"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	Stdev        float64   `json:"stdev"`
	PeakMemoryKB uint64    `json:"peak_memory_kb"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
}

// OK reports whether at least one trial succeeded.
func (r *Result) OK() bool {
	return r.Status == StatusOK
}
