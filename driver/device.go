// Copyright 2026 Flint ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package driver

import (
	"fmt"

	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/graph"
	"github.com/flintml/flint/internal/logger"
	"github.com/flintml/flint/internal/ops"
	"github.com/flintml/flint/model"
)

// PerformanceInfo estimates one aspect of device performance relative to a
// CPU baseline of 1.0.
type PerformanceInfo struct {
	ExecTime   float32 `json:"exec_time"`
	PowerUsage float32 `json:"power_usage"`
}

// Capabilities describes the device's performance for each tensor type it
// accelerates.
type Capabilities struct {
	Float32Performance    PerformanceInfo `json:"float32_performance"`
	Quantized8Performance PerformanceInfo `json:"quantized8_performance"`
}

// DeviceStatus reports the accelerator's availability.
type DeviceStatus int32

// Device availability states.
const (
	DeviceAvailable DeviceStatus = iota
	DeviceBusy
	DeviceOffline
)

// String returns the canonical status name.
func (s DeviceStatus) String() string {
	switch s {
	case DeviceAvailable:
		return "AVAILABLE"
	case DeviceBusy:
		return "BUSY"
	case DeviceOffline:
		return "OFFLINE"
	default:
		return "UNKNOWN"
	}
}

// Device fronts one accelerator controller. It is safe for concurrent use;
// every prepared model gets its own graph session.
type Device struct {
	ctrl     accel.Controller
	registry graph.Registry
	log      logger.Logger
}

// NewDevice wraps a controller with the full operation registry.
func NewDevice(ctrl accel.Controller, log logger.Logger) *Device {
	if log == nil {
		log = logger.Discard()
	}
	return &Device{ctrl: ctrl, registry: ops.NewRegistry(), log: log}
}

// Capabilities reports the device's relative performance estimates.
func (d *Device) Capabilities() Capabilities {
	return Capabilities{
		Float32Performance:    PerformanceInfo{ExecTime: 100.0, PowerUsage: 1.0},
		Quantized8Performance: PerformanceInfo{ExecTime: 100.0, PowerUsage: 1.0},
	}
}

// Status probes the accelerator library. The device is available only when
// the library reports the version this driver was built against.
func (d *Device) Status() DeviceStatus {
	version, status := d.ctrl.Version()
	if status != 0 {
		d.log.Warn("version probe failed", "status", status)
		return DeviceOffline
	}
	if version != accel.LibraryVersion {
		d.log.Warn("library version mismatch",
			"got", version, "want", accel.LibraryVersion)
		return DeviceBusy
	}
	return DeviceAvailable
}

// SupportedOperations reports, per operation, whether the device can run
// it. The query opens a throwaway session for shape propagation and never
// leaves state behind.
func (d *Device) SupportedOperations(m *model.Model) ([]bool, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b, err := graph.NewBuilder(m, d.ctrl, d.registry, d.log)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return b.SupportedOperations(), nil
}

// PrepareModel lowers a model into a new graph session and returns a
// handle for executing requests against it. Compilation is attempted
// eagerly but a failure here is not fatal: the graph recompiles from
// scratch on the first Execute.
func (d *Device) PrepareModel(m *model.Model) (*PreparedModel, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b, err := graph.NewBuilder(m, d.ctrl, d.registry, d.log)
	if err != nil {
		return nil, err
	}
	if err := b.Compile(); err != nil {
		d.log.Warn("eager compile failed, deferring to first execute", "err", err)
	}
	return &PreparedModel{model: m, builder: b, log: d.log}, nil
}

// SetPowerSaveLevel adjusts the accelerator's power/performance tradeoff
// for all subsequent executions on this device.
func (d *Device) SetPowerSaveLevel(level uint) error {
	if status := d.ctrl.SetPowerSaveLevel(level); status != 0 {
		return fmt.Errorf("powersave level %d: status %d", level, status)
	}
	return nil
}
