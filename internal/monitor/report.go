package monitor

import "time"

// SystemSnapshot holds host-wide resource usage for one tick.
type SystemSnapshot struct {
	CPUPercent  float64 // 0-100 across all cores
	MemoryUsed  uint64  // bytes
	MemoryTotal uint64  // bytes
}

// GpuSnapshot holds one tick's reading from the first NVML device.
type GpuSnapshot struct {
	Name        string
	Utilization uint32 // 0-100
	MemoryUsed  uint64 // bytes
	MemoryTotal uint64 // bytes
	Temperature uint32 // degrees C
}

// ProcessSnapshot holds one tick's reading for the monitored process.
// CPUPercent is aggregated across cores, so it ranges 0-100*NumCPU.
type ProcessSnapshot struct {
	Name       string
	PID        int32
	CPUPercent float64
	MemoryRSS  uint64 // bytes
}

// TrainingSnapshot holds metric lines extracted from the training log.
// Metrics may be empty when the log was readable but nothing matched.
type TrainingSnapshot struct {
	Metrics []string
}

// Report is the per-tick union of all sources. Optional fields are nil
// only when the source legitimately had nothing to report this tick: no
// GPU or a failed device query, no process with the monitored name, no
// readable training log. They are never nil because of an unhandled
// error; those are fatal before the loop starts.
type Report struct {
	Tick      int
	Timestamp time.Time
	System    SystemSnapshot
	GPU       *GpuSnapshot
	Process   *ProcessSnapshot
	Training  *TrainingSnapshot
}
