package harness

import "github.com/aclements/go-moremath/stats"

// Summary is the reduction of a set of trial durations.
type Summary struct {
	Mean  float64
	Min   float64
	Max   float64
	Stdev float64
}

// Summarize computes mean, bounds and sample standard deviation (n-1)
// over times. An empty input yields the zero Summary and a single
// value has zero deviation.
func Summarize(times []float64) Summary {
	if len(times) == 0 {
		return Summary{}
	}

	lo, hi := stats.Bounds(times)

	return Summary{
		Mean:  stats.Mean(times),
		Min:   lo,
		Max:   hi,
		Stdev: stats.StdDev(times),
	}
}
