// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device errors.
var (
	// ErrNoAdapter is returned when the backend exposes no usable adapter.
	ErrNoAdapter = errors.New("gpu: no compatible adapter found")

	// ErrUnknownBackend is returned by ParseBackend for unrecognized names.
	ErrUnknownBackend = errors.New("gpu: unknown backend")
)

// autoBackendOrder is tried by OpenDevice when no backend is requested.
// BackendEmpty is the CPU fallback registered by hal/software.
var autoBackendOrder = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
	gputypes.BackendEmpty,
}

// BackendAuto requests the first registered backend in preference order.
const BackendAuto gputypes.Backend = 0xFF

// ParseBackend maps a configuration name to a backend.
// "auto" (or "") yields BackendAuto; "software" and "noop" both select
// BackendEmpty, whichever of the two is registered.
func ParseBackend(name string) (gputypes.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return BackendAuto, nil
	case "vulkan":
		return gputypes.BackendVulkan, nil
	case "metal":
		return gputypes.BackendMetal, nil
	case "dx12", "d3d12":
		return gputypes.BackendDX12, nil
	case "gl", "gles", "opengl":
		return gputypes.BackendGL, nil
	case "software", "cpu", "noop", "empty":
		return gputypes.BackendEmpty, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// Device bundles the HAL objects opened for one presentation surface.
type Device struct {
	instance hal.Instance
	adapter  hal.Adapter
	device   hal.Device
	queue    hal.Queue
	surface  hal.Surface
	info     gputypes.AdapterInfo
	backend  gputypes.Backend
	caps     *hal.SurfaceCapabilities
}

// OpenDevice creates an instance on the requested backend, a surface for
// the native handles and a device on the best adapter that can present to
// it. Discrete and integrated GPUs are preferred over other adapter types.
//
// A window handle of 0 creates a headless surface on backends that
// support one (software, noop).
func OpenDevice(backend gputypes.Backend, display, window uintptr) (*Device, error) {
	candidates := []gputypes.Backend{backend}
	if backend == BackendAuto {
		candidates = candidates[:0]
		available := hal.AvailableBackends()
		for _, b := range autoBackendOrder {
			if slices.Contains(available, b) {
				candidates = append(candidates, b)
			}
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("gpu: open device: %w", hal.ErrBackendNotFound)
		}
	}

	var errs []error
	for _, b := range candidates {
		d, err := openOn(b, display, window)
		if err == nil {
			return d, nil
		}
		slogger().Warn("gpu: backend unavailable", "backend", b, "err", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func openOn(variant gputypes.Backend, display, window uintptr) (*Device, error) {
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("gpu: %s backend: %w", variant, hal.ErrBackendNotFound)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: %s: create instance: %w", variant, err)
	}

	surface, err := instance.CreateSurface(display, window)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: %s: create surface: %w", variant, err)
	}

	selected, caps := selectAdapter(instance.EnumerateAdapters(surface), surface)
	if selected == nil {
		surface.Destroy()
		instance.Destroy()
		return nil, fmt.Errorf("gpu: %s: %w", variant, ErrNoAdapter)
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		surface.Destroy()
		instance.Destroy()
		return nil, fmt.Errorf("gpu: %s: open device: %w", variant, err)
	}

	slogger().Info("gpu: adapter selected",
		"backend", variant,
		"name", selected.Info.Name,
		"type", selected.Info.DeviceType)

	return &Device{
		instance: instance,
		adapter:  selected.Adapter,
		device:   openDev.Device,
		queue:    openDev.Queue,
		surface:  surface,
		info:     selected.Info,
		backend:  variant,
		caps:     caps,
	}, nil
}

// selectAdapter prefers hardware adapters that can present to the surface.
func selectAdapter(adapters []hal.ExposedAdapter, surface hal.Surface) (*hal.ExposedAdapter, *hal.SurfaceCapabilities) {
	var fallback *hal.ExposedAdapter
	var fallbackCaps *hal.SurfaceCapabilities
	for i := range adapters {
		caps := adapters[i].Adapter.SurfaceCapabilities(surface)
		if caps == nil {
			continue
		}
		switch adapters[i].Info.DeviceType {
		case gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU:
			return &adapters[i], caps
		}
		if fallback == nil {
			fallback, fallbackCaps = &adapters[i], caps
		}
	}
	return fallback, fallbackCaps
}

// HAL returns the logical device.
func (d *Device) HAL() hal.Device { return d.device }

// Queue returns the device queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// Surface returns the presentation surface created for the native handles.
func (d *Device) Surface() hal.Surface { return d.surface }

// Info returns metadata of the selected adapter.
func (d *Device) Info() gputypes.AdapterInfo { return d.info }

// Backend returns the backend the device was opened on.
func (d *Device) Backend() gputypes.Backend { return d.backend }

// SurfaceFormat returns preferred if the surface supports it, otherwise the
// first supported format. Without capability information preferred is
// returned unchanged.
func (d *Device) SurfaceFormat(preferred gputypes.TextureFormat) gputypes.TextureFormat {
	if d.caps == nil || len(d.caps.Formats) == 0 || slices.Contains(d.caps.Formats, preferred) {
		return preferred
	}
	return d.caps.Formats[0]
}

// PresentMode returns preferred if the surface supports it, otherwise Fifo,
// which every surface supports.
func (d *Device) PresentMode(preferred gputypes.PresentMode) gputypes.PresentMode {
	if d.caps == nil || len(d.caps.PresentModes) == 0 || slices.Contains(d.caps.PresentModes, preferred) {
		return preferred
	}
	return gputypes.PresentModeFifo
}

// Destroy releases the surface, device and instance in dependency order.
func (d *Device) Destroy() {
	if d.surface != nil {
		d.surface.Destroy()
		d.surface = nil
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Destroy()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
