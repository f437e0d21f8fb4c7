package harness

import "github.com/prometheus/procfs"

// MemoryProbe reports the peak memory usage of the whole process.
type MemoryProbe interface {
	PeakKB() uint64
}

// ProcProbe reads VmPeak from /proc/self/status. It reports 0 when the
// proc filesystem is unavailable or unparsable.
type ProcProbe struct{}

// PeakKB returns the process's peak virtual memory size in KiB.
func (ProcProbe) PeakKB() uint64 {
	proc, err := procfs.Self()
	if err != nil {
		return 0
	}

	status, err := proc.NewStatus()
	if err != nil {
		return 0
	}

	return status.VmPeak / 1024
}

// ProbeFunc adapts a plain function to MemoryProbe.
type ProbeFunc func() uint64

// PeakKB calls f.
func (f ProbeFunc) PeakKB() uint64 {
	return f()
}
