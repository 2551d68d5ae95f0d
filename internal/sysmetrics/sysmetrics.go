// Package sysmetrics samples this process's own CPU and memory usage
// for the scheduler's per-minute telemetry row. The underlying reads
// are platform-specific; this file holds the shared delta bookkeeping.
package sysmetrics

import "time"

// Monitor tracks the process CPU time and wall time observed on the
// previous sample, so CPU percentage can be derived from the delta
// between two samples rather than a cumulative average since start.
type Monitor struct {
	lastWallSec float64
	lastCPUSec  float64
}

// NewMonitor returns a Monitor ready for its first Sample call.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Sample returns the CPU usage percentage since the previous call (0.0
// on the first call) and the current memory use in megabytes: the
// process's resident set size on Linux and Darwin, system-wide physical
// memory in use on Windows.
func (m *Monitor) Sample() (cpuPercent, memoryMB float64) {
	cpuSec, err := processCPUTimeSeconds()
	if err != nil {
		cpuSec = m.lastCPUSec
	}
	wallSec := float64(time.Now().UnixNano()) / 1e9

	if m.lastCPUSec != 0 {
		diffCPU := cpuSec - m.lastCPUSec
		diffWall := wallSec - m.lastWallSec
		if diffWall > 0 {
			cpuPercent = (diffCPU / diffWall) * 100.0
		}
	}

	m.lastCPUSec = cpuSec
	m.lastWallSec = wallSec

	mb, err := residentMemoryMB()
	if err != nil {
		mb = 0
	}
	return cpuPercent, mb
}
