package monitor

import (
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProc struct {
	pid     int32
	name    string
	nameErr error
	cpu     float64
	cpuErr  error
	rss     uint64
	memErr  error
}

func (f *fakeProc) PID() int32 { return f.pid }

func (f *fakeProc) Name() (string, error) { return f.name, f.nameErr }

func (f *fakeProc) CPUPercent() (float64, error) { return f.cpu, f.cpuErr }

func (f *fakeProc) MemoryInfo() (*process.MemoryInfoStat, error) {
	if f.memErr != nil {
		return nil, f.memErr
	}
	return &process.MemoryInfoStat{RSS: f.rss}, nil
}

func tableOf(procs ...TableProc) Table {
	return func() ([]TableProc, error) { return procs, nil }
}

func TestResolveExactMatch(t *testing.T) {
	table := tableOf(
		&fakeProc{pid: 10, name: "bash"},
		&fakeProc{pid: 20, name: "python"},
		&fakeProc{pid: 30, name: "pythonic"},
	)

	handle, err := Resolve(table, "python")
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, int32(20), handle.PID)
	assert.Equal(t, "python", handle.Name)
}

func TestResolveLowestPIDWins(t *testing.T) {
	table := tableOf(
		&fakeProc{pid: 300, name: "python"},
		&fakeProc{pid: 100, name: "python"},
		&fakeProc{pid: 200, name: "python"},
	)

	handle, err := Resolve(table, "python")
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, int32(100), handle.PID)
}

func TestResolveNotFound(t *testing.T) {
	handle, err := Resolve(tableOf(&fakeProc{pid: 1, name: "init"}), "python")
	require.NoError(t, err)
	assert.Nil(t, handle)
}

func TestResolveSkipsUnreadableEntries(t *testing.T) {
	table := tableOf(
		&fakeProc{pid: 10, name: "", nameErr: errors.New("exited")},
		&fakeProc{pid: 20, name: "python"},
	)

	handle, err := Resolve(table, "python")
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, int32(20), handle.PID)
}

func TestResolveTableError(t *testing.T) {
	table := func() ([]TableProc, error) { return nil, errors.New("proc unreadable") }

	handle, err := Resolve(table, "python")
	assert.Error(t, err)
	assert.Nil(t, handle)
}

func TestProcessSourceSample(t *testing.T) {
	src := NewProcessSource(zap.NewNop())
	proc := &fakeProc{pid: 42, name: "python", cpu: 230.5, rss: 8 << 30}

	snap := src.Sample(&ProcessHandle{Name: "python", PID: 42, proc: proc})
	require.NotNil(t, snap)
	assert.Equal(t, int32(42), snap.PID)
	assert.Equal(t, "python", snap.Name)
	assert.Equal(t, 230.5, snap.CPUPercent)
	assert.Equal(t, uint64(8<<30), snap.MemoryRSS)
}

func TestProcessSourceNilHandle(t *testing.T) {
	src := NewProcessSource(zap.NewNop())
	assert.Nil(t, src.Sample(nil))
}

func TestProcessSourceReadFailure(t *testing.T) {
	src := NewProcessSource(zap.NewNop())
	proc := &fakeProc{pid: 42, name: "python", cpuErr: errors.New("gone")}

	assert.Nil(t, src.Sample(&ProcessHandle{Name: "python", PID: 42, proc: proc}))
}

func TestProcessSourceReusesObjectForSamePID(t *testing.T) {
	src := NewProcessSource(zap.NewNop())
	first := &fakeProc{pid: 42, name: "python", cpu: 10}

	snap := src.Sample(&ProcessHandle{Name: "python", PID: 42, proc: first})
	require.NotNil(t, snap)

	// Same PID on the next tick: the previous object keeps measuring so
	// CPU deltas stay per-interval.
	second := &fakeProc{pid: 42, name: "python", cpu: 99}
	snap = src.Sample(&ProcessHandle{Name: "python", PID: 42, proc: second})
	require.NotNil(t, snap)
	assert.Equal(t, 10.0, snap.CPUPercent)
}

func TestProcessSourceSwapsObjectOnPIDChange(t *testing.T) {
	src := NewProcessSource(zap.NewNop())

	snap := src.Sample(&ProcessHandle{Name: "python", PID: 42, proc: &fakeProc{pid: 42, cpu: 10}})
	require.NotNil(t, snap)

	// Restarted under a new PID: measurement state must not survive.
	snap = src.Sample(&ProcessHandle{Name: "python", PID: 43, proc: &fakeProc{pid: 43, cpu: 55}})
	require.NotNil(t, snap)
	assert.Equal(t, 55.0, snap.CPUPercent)
	assert.Equal(t, int32(43), snap.PID)
}

func TestProcessSourceClearsStateWhenAbsent(t *testing.T) {
	src := NewProcessSource(zap.NewNop())

	require.NotNil(t, src.Sample(&ProcessHandle{Name: "python", PID: 42, proc: &fakeProc{pid: 42, cpu: 10}}))
	assert.Nil(t, src.Sample(nil))

	// Reappearing under the same PID starts from a fresh object.
	fresh := &fakeProc{pid: 42, name: "python", cpu: 77}
	snap := src.Sample(&ProcessHandle{Name: "python", PID: 42, proc: fresh})
	require.NotNil(t, snap)
	assert.Equal(t, 77.0, snap.CPUPercent)
}
