// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package brushview

import (
	"fmt"
	"strings"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/brushview/postfx"
	"github.com/gogpu/brushview/scene"
)

// Backend selects where frames are rendered.
type Backend int

const (
	// BackendAuto tries the GPU and falls back to software rendering.
	BackendAuto Backend = iota
	// BackendGPU requires a hardware adapter.
	BackendGPU
	// BackendSoftware renders on the CPU.
	BackendSoftware
	// BackendNoop runs the GPU pass sequence on the no-op HAL backend.
	// Frames come back black; it exercises the GPU path without hardware.
	BackendNoop
)

var backendNames = [...]string{"auto", "gpu", "software", "noop"}

// String returns the backend name.
func (b Backend) String() string {
	if b < 0 || int(b) >= len(backendNames) {
		return fmt.Sprintf("Backend(%d)", int(b))
	}
	return backendNames[b]
}

// ParseBackend parses a backend name as accepted by the CLI.
func ParseBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range backendNames {
		if n == name {
			return Backend(i), nil
		}
	}
	return BackendAuto, fmt.Errorf("brushview: unknown backend %q", name)
}

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := brushview.New(
//	    brushview.WithSize(800, 600),
//	    brushview.WithBackend(brushview.BackendSoftware),
//	)
type Option func(*options)

type options struct {
	width, height  int
	backend        Backend
	provider       gpucontext.DeviceProvider
	post           postfx.Config
	workers        int
	entityCapacity int
}

func defaultOptions() options {
	return options{
		width:          640,
		height:         480,
		backend:        BackendAuto,
		post:           postfx.DefaultConfig(),
		entityCapacity: scene.DefaultEntityCapacity,
	}
}

// WithSize sets the render target size in pixels.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithBackend selects the rendering backend.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithDeviceProvider shares the GPU device of a host window, typically a
// gogpu window. The provider must also expose its HAL device and queue.
// It implies BackendGPU.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
		o.backend = BackendGPU
	}
}

// WithPost sets the post-process chain configuration.
func WithPost(cfg postfx.Config) Option {
	return func(o *options) {
		o.post = cfg
	}
}

// WithWorkers sets the number of CPU workers used for batching and
// software rasterization. Zero selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithEntityCapacity sizes the initial entity transform storage. The
// storage grows past it on demand.
func WithEntityCapacity(n int) Option {
	return func(o *options) {
		o.entityCapacity = n
	}
}
