// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// AdapterInfo describes one adapter exposed by a backend.
type AdapterInfo struct {
	Name    string
	Backend string
	Type    string
}

// Device is an open HAL device and queue. Devices opened by this package
// own their instance; devices borrowed from a provider do not.
type Device struct {
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance
	info     AdapterInfo
	borrowed bool

	// surfaceFormat is the provider's swapchain format, zero otherwise.
	surfaceFormat gputypes.TextureFormat
	// validate runs naga over the embedded shaders before pipeline
	// creation. Off for the noop backend, which never compiles WGSL.
	validate bool
}

// instanceFactory is the part of a HAL backend this package needs.
type instanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// OpenNoop opens the no-op backend. Every call succeeds without a GPU and
// readbacks return zeroed memory.
func OpenNoop() (*Device, error) {
	d, err := openFrom(noop.API{}, "noop")
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Open opens the first hardware adapter of backend, preferring discrete and
// integrated GPUs over software adapters.
func Open(backend gputypes.Backend) (*Device, error) {
	b, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, backendName(backend))
	}
	d, err := openFrom(b, backendName(backend))
	if err != nil {
		return nil, err
	}
	d.validate = true
	return d, nil
}

func openFrom(f instanceFactory, name string) (*Device, error) {
	instance, err := f.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, name)
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	info := adapterInfo(selected, name)
	slogger().Info("gpu: device opened", "adapter", info.Name, "backend", name, "type", info.Type)
	return &Device{
		device:   openDev.Device,
		queue:    openDev.Queue,
		instance: instance,
		info:     info,
	}, nil
}

// FromProvider borrows the device and queue of a host window. The provider
// must implement HalDevice() any and HalQueue() any returning hal.Device
// and hal.Queue, as gogpu windows do.
func FromProvider(p gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	slogger().Info("gpu: using provider device", "surface_format", p.SurfaceFormat())
	return &Device{
		device:        device,
		queue:         queue,
		info:          AdapterInfo{Name: "provider", Backend: "provider", Type: "external"},
		borrowed:      true,
		surfaceFormat: p.SurfaceFormat(),
	}, nil
}

// ListAdapters enumerates the adapters of backend without opening them.
func ListAdapters(backend gputypes.Backend) ([]AdapterInfo, error) {
	b, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, backendName(backend))
	}
	return listFrom(b, backendName(backend))
}

// ListNoopAdapters enumerates the adapters of the no-op backend.
func ListNoopAdapters() ([]AdapterInfo, error) {
	return listFrom(noop.API{}, "noop")
}

func listFrom(f instanceFactory, name string) ([]AdapterInfo, error) {
	instance, err := f.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	out := make([]AdapterInfo, 0, len(adapters))
	for i := range adapters {
		out = append(out, adapterInfo(&adapters[i], name))
	}
	return out, nil
}

func adapterInfo(a *hal.ExposedAdapter, backend string) AdapterInfo {
	return AdapterInfo{
		Name:    a.Info.Name,
		Backend: backend,
		Type:    deviceTypeName(a.Info.DeviceType),
	}
}

func deviceTypeName(t gputypes.DeviceType) string {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return "discrete"
	case gputypes.DeviceTypeIntegratedGPU:
		return "integrated"
	default:
		return "other"
	}
}

func backendName(b gputypes.Backend) string {
	if b == gputypes.BackendVulkan {
		return "vulkan"
	}
	return fmt.Sprintf("backend(%d)", b)
}

// Info returns the adapter description.
func (d *Device) Info() AdapterInfo { return d.info }

// SurfaceFormat returns the provider's surface format, or the zero format
// for devices opened by this package.
func (d *Device) SurfaceFormat() gputypes.TextureFormat { return d.surfaceFormat }

// Borrowed reports whether the device belongs to a host window.
func (d *Device) Borrowed() bool { return d.borrowed }

// Close destroys an owned device and its instance. Borrowed devices are
// left untouched. Safe to call multiple times.
func (d *Device) Close() {
	if d == nil || d.borrowed || d.instance == nil {
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	d.instance.Destroy()
	d.instance = nil
}
