package monitor

import (
	"sort"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// TableProc is the subset of a live process table entry the monitor
// reads. *process.Process provides everything except the PID accessor,
// which gopsutil exposes as a struct field.
type TableProc interface {
	PID() int32
	Name() (string, error)
	CPUPercent() (float64, error)
	MemoryInfo() (*process.MemoryInfoStat, error)
}

type gopsProc struct {
	*process.Process
}

func (p gopsProc) PID() int32 { return p.Process.Pid }

// Table returns a snapshot of the live OS process table.
type Table func() ([]TableProc, error)

// SystemTable reads the host process table via gopsutil.
func SystemTable() ([]TableProc, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	entries := make([]TableProc, 0, len(procs))
	for _, p := range procs {
		entries = append(entries, gopsProc{p})
	}
	return entries, nil
}

// ProcessHandle references one live process for the duration of a tick.
type ProcessHandle struct {
	Name string
	PID  int32
	proc TableProc
}

// Resolve returns the live process whose executable name equals name, or
// nil when none matches. With several matches the lowest PID wins, which
// keeps the choice stable across ticks for as long as that process
// lives. Entries whose name cannot be read (already exited, permission
// denied) are skipped.
func Resolve(table Table, name string) (*ProcessHandle, error) {
	entries, err := table()
	if err != nil {
		return nil, err
	}

	var matches []TableProc
	for _, p := range entries {
		pname, err := p.Name()
		if err != nil {
			continue
		}
		if pname == name {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].PID() < matches[j].PID()
	})

	return &ProcessHandle{Name: name, PID: matches[0].PID(), proc: matches[0]}, nil
}

// ProcessSource reads CPU and resident memory for the resolved process.
//
// gopsutil's CPUPercent measures against the counters held by a specific
// process object, so the source keeps the object from the previous tick
// and reuses it while the resolved PID stays the same. The tick right
// after a PID change reports the process's lifetime average instead of
// the last interval; subsequent ticks are interval deltas. The handle
// itself is still re-resolved every tick and never survives a PID
// change.
type ProcessSource struct {
	log  *zap.Logger
	pid  int32
	proc TableProc
}

// NewProcessSource creates an empty source. Measurement state builds up
// as PIDs are sampled.
func NewProcessSource(log *zap.Logger) *ProcessSource {
	return &ProcessSource{log: log}
}

// Sample reads the handle resolved this tick, or returns nil when
// resolution found nothing. A read failure (the process exited between
// resolution and sampling) also returns nil for this tick.
func (s *ProcessSource) Sample(h *ProcessHandle) *ProcessSnapshot {
	if h == nil {
		s.pid = 0
		s.proc = nil
		return nil
	}

	if h.PID != s.pid || s.proc == nil {
		s.pid = h.PID
		s.proc = h.proc
	}

	cpuPerc, err := s.proc.CPUPercent()
	if err != nil {
		s.log.Warn("process cpu read failed", zap.Int32("pid", h.PID), zap.Error(err))
		return nil
	}
	memInfo, err := s.proc.MemoryInfo()
	if err != nil {
		s.log.Warn("process memory read failed", zap.Int32("pid", h.PID), zap.Error(err))
		return nil
	}

	return &ProcessSnapshot{
		Name:       h.Name,
		PID:        h.PID,
		CPUPercent: cpuPerc,
		MemoryRSS:  memInfo.RSS,
	}
}
