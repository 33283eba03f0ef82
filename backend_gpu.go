// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package brushview

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/brushview/internal/batch"
	"github.com/gogpu/brushview/internal/gpu"
	"github.com/gogpu/brushview/postfx"
	"github.com/gogpu/brushview/scene"
)

// AdapterInfo describes a GPU adapter.
type AdapterInfo = gpu.AdapterInfo

// ListAdapters enumerates the adapters of kind without opening them.
// BackendNoop lists the no-op adapter; every other kind lists Vulkan.
func ListAdapters(kind Backend) ([]AdapterInfo, error) {
	if kind == BackendNoop {
		return gpu.ListNoopAdapters()
	}
	return gpu.ListAdapters(gputypes.BackendVulkan)
}

func propagateLogger(l *slog.Logger) {
	gpu.SetLogger(l)
}

// gpuBackend runs the pass sequence on a HAL device.
type gpuBackend struct {
	dev     *gpu.Device
	r       *gpu.Renderer
	builder *batch.Builder
	kind    Backend
}

func newGPUBackend(o *options, builder *batch.Builder) (*gpuBackend, error) {
	var (
		dev *gpu.Device
		err error
	)
	kind := BackendGPU
	switch {
	case o.provider != nil:
		dev, err = gpu.FromProvider(o.provider)
	case o.backend == BackendNoop:
		kind = BackendNoop
		dev, err = gpu.OpenNoop()
	default:
		dev, err = gpu.Open(gputypes.BackendVulkan)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGPUUnavailable, err)
	}

	r, err := gpu.New(dev, gpu.Options{
		Width:          o.width,
		Height:         o.height,
		EntityCapacity: o.entityCapacity,
		Post:           o.post,
	})
	if err != nil {
		dev.Close()
		return nil, err
	}
	info := dev.Info()
	Logger().Info("brushview: GPU backend ready", "adapter", info.Name, "backend", info.Backend, "type", info.Type)
	return &gpuBackend{dev: dev, r: r, builder: builder, kind: kind}, nil
}

func (b *gpuBackend) name() string { return b.kind.String() }

func (b *gpuBackend) layers() uint32 { return b.r.Layers() }

func (b *gpuBackend) loadMaterials(m preparedMaterials) error {
	return b.r.LoadMaterials(gpu.MaterialSet{Layers: m.layers, Lightmap: m.lightmap, Sky: m.sky})
}

func (b *gpuBackend) setPost(cfg postfx.Config) { b.r.SetPost(cfg) }

func (b *gpuBackend) resize(w, h int) error { return b.r.Resize(w, h) }

func (b *gpuBackend) size() (int, int) { return b.r.Size() }

func (b *gpuBackend) render(ctx context.Context, frame *scene.Frame, res *batch.Result) (*image.RGBA, error) {
	verts := b.builder.Pack(res)
	defer b.builder.Release(verts)
	return b.r.Render(ctx, frame, res, verts)
}

func (b *gpuBackend) renderToSurface(ctx context.Context, frame *scene.Frame, res *batch.Result, view any) error {
	v, ok := view.(hal.TextureView)
	if !ok || v == nil {
		return fmt.Errorf("%w: view is %T, want hal.TextureView", ErrNoSurface, view)
	}
	format := b.dev.SurfaceFormat()
	var undefined gputypes.TextureFormat
	if format == undefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	verts := b.builder.Pack(res)
	defer b.builder.Release(verts)
	return b.r.RenderToView(ctx, frame, res, verts, v, format)
}

func (b *gpuBackend) fillStats(st *Stats) {
	s := b.r.Stats()
	st.Draws = s.Draws
	st.PostPasses = s.PostPasses
	st.BufferGrowths = s.BufferGrowths
}

func (b *gpuBackend) close() {
	b.r.Close()
	b.dev.Close()
}
