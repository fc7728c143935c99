package monitor

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

// SystemSource reads host-wide CPU and memory usage.
//
// CPU utilization is a delta between two readings, so the source primes
// the counter once at construction. The first Sample happens a full
// interval later and measures that window; no warm-up value ever reaches
// a Report.
type SystemSource struct {
	log *zap.Logger
}

// NewSystemSource creates the source and primes the CPU counter.
func NewSystemSource(log *zap.Logger) *SystemSource {
	// Warm-up reading, discarded. gopsutil computes the percentage
	// against the counters stored by the previous call.
	if _, err := cpu.Percent(0, false); err != nil {
		log.Warn("cpu warm-up reading failed", zap.Error(err))
	}
	return &SystemSource{log: log}
}

// Sample returns current system-wide resource usage.
func (s *SystemSource) Sample() (SystemSnapshot, error) {
	var snap SystemSnapshot

	percs, err := cpu.Percent(0, false)
	if err != nil {
		return snap, err
	}
	if len(percs) > 0 {
		snap.CPUPercent = percs[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return snap, err
	}
	snap.MemoryUsed = vm.Used
	snap.MemoryTotal = vm.Total

	return snap, nil
}
