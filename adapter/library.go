// Package adapter defines the closed set of waveform libraries under
// benchmark and the four workload operations each of them implements.
//
// The go-vcd library runs in process. Every other library is driven
// through an external harness binary that follows a small protocol:
//
//	<binary> <operation> <file>
//
// Exit status 0 means the operation succeeded. Any other status is a
// failure, described by the last non-empty line the binary wrote to
// stderr.
package adapter

import (
	"context"
	"fmt"
	"slices"

	"github.com/weiihann/wavebench/harness"
)

// Format is a waveform trace format.
type Format string

const (
	FormatVCD Format = "vcd"
	FormatFST Format = "fst"
)

// Formats lists the supported formats in suite order.
func Formats() []Format {
	return []Format{FormatVCD, FormatFST}
}

// Op names one of the fixed workload shapes.
type Op string

const (
	OpFullParse  Op = "full_parse"
	OpSignalList Op = "signal_list"
	OpValueQuery Op = "value_query"
	OpPipeline   Op = "pipeline"
)

// Ops lists the workload operations in suite order.
func Ops() []Op {
	return []Op{OpFullParse, OpSignalList, OpValueQuery, OpPipeline}
}

// querySignals is how many signals value_query and pipeline select.
const querySignals = 10

// Library is one of the benchmarked waveform libraries.
type Library string

const (
	GoVCD     Library = "go-vcd"
	Wellen    Library = "wellen"
	RustVCD   Library = "rust-vcd"
	VCDNG     Library = "vcd-ng"
	FSTReader Library = "fst-reader"
	FSTAPI    Library = "fstapi"
)

// KnownLibraries returns every library in suite order.
func KnownLibraries() []Library {
	return []Library{GoVCD, Wellen, RustVCD, VCDNG, FSTReader, FSTAPI}
}

// Parse resolves a library name.
func Parse(name string) (Library, error) {
	for _, lib := range KnownLibraries() {
		if string(lib) == name {
			return lib, nil
		}
	}

	return "", fmt.Errorf("unknown library %q", name)
}

// Formats returns the trace formats lib can read.
func (l Library) Formats() []Format {
	switch l {
	case GoVCD, RustVCD, VCDNG:
		return []Format{FormatVCD}
	case Wellen:
		return []Format{FormatVCD, FormatFST}
	case FSTReader, FSTAPI:
		return []Format{FormatFST}
	default:
		return nil
	}
}

// Supports reports whether lib reads format f.
func (l Library) Supports(f Format) bool {
	return slices.Contains(l.Formats(), f)
}

// External reports whether lib runs through a harness binary.
func (l Library) External() bool {
	return l != GoVCD
}

// Operation returns the closure benchmarking op against the file at
// path. binary is the harness binary for external libraries and is
// ignored for in-process ones.
func (l Library) Operation(op Op, path, binary string) harness.Operation {
	if !l.External() {
		return goVCDOperation(op, path)
	}

	return func(ctx context.Context) error {
		return runExternal(ctx, binary, op, path)
	}
}
