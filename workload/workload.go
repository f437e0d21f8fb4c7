// Package workload generates deterministic synthetic VCD traces for
// waveform-parser benchmarking. A trace holds one scope of 1, 8 and
// 32-bit wires whose change frequency falls with the signal index.
package workload

import (
	"fmt"
	"io"
	"sort"

	"github.com/weiihann/wavebench/vcd"
)

// denseThreshold is the signal count above which signals change more
// often, so large traces reach their target size.
const denseThreshold = 500

// timeStep is the simulation time between two steps, in timescale
// units.
const timeStep = 10

// Summary contains statistics about the generated trace.
type Summary struct {
	Signals   int
	Timesteps int
	Changes   int
}

// Config controls trace generation.
type Config struct {
	NumSignals   int
	NumTimesteps int
	Scope        string
	Timescale    string
}

// Scales maps the named scales to their configurations.
var Scales = map[string]Config{
	"small":  {NumSignals: 50, NumTimesteps: 1000},
	"medium": {NumSignals: 200, NumTimesteps: 10000},
	"large":  {NumSignals: 2000, NumTimesteps: 200000},
}

// ScaleNames returns the known scale names, smallest first.
func ScaleNames() []string {
	names := make([]string, 0, len(Scales))
	for name := range Scales {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		return Scales[names[i]].NumSignals < Scales[names[j]].NumSignals
	})

	return names
}

// ForScale returns the Config for a named scale.
func ForScale(name string) (Config, error) {
	cfg, ok := Scales[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown scale %q", name)
	}

	return cfg, nil
}

// Generator produces deterministic traces from a Config.
type Generator struct {
	cfg Config
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	if cfg.Scope == "" {
		cfg.Scope = "bench"
	}
	if cfg.Timescale == "" {
		cfg.Timescale = "1ns"
	}

	return &Generator{cfg: cfg}
}

type signal struct {
	code string
	size int
}

// Generate writes a VCD trace to w and returns a Summary.
func (g *Generator) Generate(w io.Writer) (Summary, error) {
	vw := vcd.NewWriter(w)

	signals := make([]signal, g.cfg.NumSignals)
	header := &vcd.Header{
		Date:      "benchmark",
		Version:   "wavebench",
		Timescale: g.cfg.Timescale,
		Vars:      make([]vcd.Var, 0, g.cfg.NumSignals),
	}

	for i := range signals {
		signals[i] = signal{code: vcd.IDCode(i), size: signalWidth(i)}

		header.Vars = append(header.Vars, vcd.Var{
			Type:      "wire",
			Size:      signals[i].size,
			Code:      signals[i].code,
			Reference: fmt.Sprintf("sig_%04d", i),
			Scope:     []string{g.cfg.Scope},
		})
	}

	if err := vw.WriteHeader(header); err != nil {
		return Summary{}, fmt.Errorf("write header: %w", err)
	}

	summary := Summary{Signals: len(signals)}
	dense := len(signals) > denseThreshold

	for t := 0; t < g.cfg.NumTimesteps; t++ {
		if err := vw.Timestamp(uint64(t * timeStep)); err != nil {
			return summary, fmt.Errorf("write timestamp: %w", err)
		}

		for i, sig := range signals {
			if t%changePeriod(i, dense) != 0 {
				continue
			}

			var err error
			if sig.size == 1 {
				err = vw.Scalar(sig.code, byte('0'+t%2))
			} else {
				err = vw.Vector(sig.code, vectorValue(t, i, sig.size))
			}
			if err != nil {
				return summary, fmt.Errorf("write change: %w", err)
			}

			summary.Changes++
		}

		summary.Timesteps++
	}

	if err := vw.Flush(); err != nil {
		return summary, fmt.Errorf("flush trace: %w", err)
	}

	return summary, nil
}

func signalWidth(i int) int {
	switch i % 3 {
	case 0:
		return 1
	case 1:
		return 8
	default:
		return 32
	}
}

func changePeriod(i int, dense bool) int {
	if dense {
		return max(1, (i+1)/10)
	}

	return i + 1
}

func vectorValue(t, i, size int) uint64 {
	mask := uint64(1)<<uint(size) - 1

	return uint64(t) * uint64(i+1) & mask
}
