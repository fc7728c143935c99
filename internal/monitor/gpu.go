package monitor

import (
	"errors"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"go.uber.org/zap"
)

// GpuDevice is the subset of an NVML device handle the source reads.
type GpuDevice interface {
	Name() (string, error)
	UtilizationRates() (uint32, error)
	MemoryInfo() (used, total uint64, err error)
	Temperature() (uint32, error)
}

// GpuAPI abstracts the NVML entry points the source touches.
type GpuAPI interface {
	Init() error
	Shutdown()
	DeviceCount() (int, error)
	DeviceByIndex(i int) (GpuDevice, error)
}

// NVML implements GpuAPI against the real driver library.
type NVML struct{}

func nvmlError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return errors.New(nvml.ErrorString(ret))
}

func (NVML) Init() error {
	return nvmlError(nvml.Init())
}

func (NVML) Shutdown() {
	_ = nvml.Shutdown()
}

func (NVML) DeviceCount() (int, error) {
	count, ret := nvml.DeviceGetCount()
	return count, nvmlError(ret)
}

func (NVML) DeviceByIndex(i int) (GpuDevice, error) {
	dev, ret := nvml.DeviceGetHandleByIndex(i)
	if err := nvmlError(ret); err != nil {
		return nil, err
	}
	return nvmlDevice{dev}, nil
}

type nvmlDevice struct {
	dev nvml.Device
}

func (d nvmlDevice) Name() (string, error) {
	name, ret := d.dev.GetName()
	return name, nvmlError(ret)
}

func (d nvmlDevice) UtilizationRates() (uint32, error) {
	util, ret := d.dev.GetUtilizationRates()
	return util.Gpu, nvmlError(ret)
}

func (d nvmlDevice) MemoryInfo() (uint64, uint64, error) {
	info, ret := d.dev.GetMemoryInfo()
	return info.Used, info.Total, nvmlError(ret)
}

func (d nvmlDevice) Temperature() (uint32, error) {
	temp, ret := d.dev.GetTemperature(nvml.TEMPERATURE_GPU)
	return temp, nvmlError(ret)
}

// GpuSource reads utilization, memory and temperature from the first
// NVML device. Hosts without an NVIDIA driver or device are an expected
// configuration: initialization fails closed into a permanent
// unavailable state and is never retried, so a CPU-only host pays one
// failed Init for the whole run.
type GpuSource struct {
	api    GpuAPI
	log    *zap.Logger
	device GpuDevice
	inited bool
}

// NewGpuSource initializes NVML and acquires the first device. Any
// failure leaves the source in the unavailable state; the returned
// source is always usable.
func NewGpuSource(api GpuAPI, log *zap.Logger) *GpuSource {
	s := &GpuSource{api: api, log: log}

	if err := api.Init(); err != nil {
		log.Info("gpu telemetry unavailable", zap.Error(err))
		return s
	}
	s.inited = true

	count, err := api.DeviceCount()
	if err != nil || count == 0 {
		log.Info("no compatible gpu device", zap.Int("count", count), zap.Error(err))
		return s
	}

	dev, err := api.DeviceByIndex(0)
	if err != nil {
		log.Info("gpu device handle unavailable", zap.Error(err))
		return s
	}
	s.device = dev

	return s
}

// Available reports whether a device handle was acquired at startup.
func (s *GpuSource) Available() bool {
	return s.device != nil
}

// Sample reads the device acquired at startup. It returns nil when no
// device is available or when a query fails this tick; a transient query
// failure does not invalidate the handle for future ticks.
func (s *GpuSource) Sample() *GpuSnapshot {
	if s.device == nil {
		return nil
	}

	util, err := s.device.UtilizationRates()
	if err != nil {
		s.log.Warn("gpu utilization query failed", zap.Error(err))
		return nil
	}
	used, total, err := s.device.MemoryInfo()
	if err != nil {
		s.log.Warn("gpu memory query failed", zap.Error(err))
		return nil
	}

	snap := &GpuSnapshot{
		Utilization: util,
		MemoryUsed:  used,
		MemoryTotal: total,
	}

	// Name and temperature are nice to have; a failed read does not
	// discard the tick.
	if name, err := s.device.Name(); err == nil {
		snap.Name = name
	}
	if temp, err := s.device.Temperature(); err == nil {
		snap.Temperature = temp
	}

	return snap
}

// Close shuts NVML down if it was initialized.
func (s *GpuSource) Close() {
	if s.inited {
		s.api.Shutdown()
		s.inited = false
		s.device = nil
	}
}
