package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SystemSampler yields one SystemSnapshot per tick.
type SystemSampler interface {
	Sample() (SystemSnapshot, error)
}

// GpuSampler yields an optional GpuSnapshot per tick and owns the
// underlying device handle.
type GpuSampler interface {
	Sample() *GpuSnapshot
	Close()
}

// TrainSampler yields an optional TrainingSnapshot per tick.
type TrainSampler interface {
	Sample() *TrainingSnapshot
}

// Renderer consumes one Report per tick.
type Renderer interface {
	Render(Report)
}

// Sampler drives the tick loop: resolve the process, sample every
// source, assemble one Report, hand it to the renderer again after each
// interval. Single-threaded; no tick starts before the previous one
// finished.
type Sampler struct {
	ProcessName string
	Interval    time.Duration
	Table       Table
	System      SystemSampler
	GPU         GpuSampler
	Process     *ProcessSource
	Training    TrainSampler // nil when no training log is configured
	Renderer    Renderer
	Log         *zap.Logger

	// MaxTicks stops the loop after that many reports; 0 means run
	// until the context is cancelled.
	MaxTicks int
}

// Run executes the loop until ctx is cancelled or MaxTicks is reached.
// The GPU handle is released on every exit path. The only fatal
// condition is an unreadable process table at startup; per-tick source
// failures degrade the affected Report field and the loop keeps going.
func (s *Sampler) Run(ctx context.Context) error {
	defer s.GPU.Close()

	// Startup probe. If the process table cannot be read at all there
	// is nothing to monitor.
	if _, err := s.Table(); err != nil {
		return fmt.Errorf("cannot read process table: %w", err)
	}

	s.Log.Info("sampler started",
		zap.String("process", s.ProcessName),
		zap.Duration("interval", s.Interval),
	)

	// Fixed-rate pacing: the ticker fires on interval boundaries
	// measured from loop start, so one slow tick does not push every
	// later tick back.
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			s.Log.Info("sampler stopped", zap.Int("ticks", tick))
			return nil
		case <-ticker.C:
		}

		tick++
		s.Renderer.Render(s.tick(tick))

		if s.MaxTicks > 0 && tick >= s.MaxTicks {
			s.Log.Info("sampler finished", zap.Int("ticks", tick))
			return nil
		}
	}
}

// tick assembles one Report. Resolution runs fresh every time: the
// monitored process may have exited, restarted under a new PID, or
// appeared for the first time since the last tick.
func (s *Sampler) tick(n int) Report {
	rep := Report{Tick: n, Timestamp: time.Now()}

	sys, err := s.System.Sample()
	if err != nil {
		s.Log.Warn("system sample failed", zap.Int("tick", n), zap.Error(err))
	}
	rep.System = sys

	handle, err := Resolve(s.Table, s.ProcessName)
	if err != nil {
		s.Log.Warn("process table read failed", zap.Int("tick", n), zap.Error(err))
	}
	rep.Process = s.Process.Sample(handle)

	rep.GPU = s.GPU.Sample()

	if s.Training != nil {
		rep.Training = s.Training.Sample()
	}

	return rep
}
