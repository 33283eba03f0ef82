// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// MipGenerator fills mip levels 1..n-1 of every layer of an RGBA8Unorm
// texture by rendering each level from the one above it. Each texel is the
// bilinear sample at the center of its 2x2 footprint, which equals the box
// filter of postfx.Downsample for even sizes.
type MipGenerator struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	sampler    hal.Sampler
}

// NewMipGenerator compiles the mip shader and creates its pipeline.
func NewMipGenerator(device hal.Device, queue hal.Queue) (*MipGenerator, error) {
	g := &MipGenerator{device: device, queue: queue}
	if err := g.createPipeline(); err != nil {
		g.Destroy()
		return nil, err
	}
	return g, nil
}

func (g *MipGenerator) createPipeline() error {
	shader, err := createShader(g.device, "mipgen_shader", mipgenShaderSource)
	if err != nil {
		return err
	}
	g.shader = shader

	layout, err := g.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "mipgen_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create mipgen layout: %w", err)
	}
	g.layout = layout

	pipeLayout, err := g.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "mipgen_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{g.layout},
	})
	if err != nil {
		return fmt.Errorf("create mipgen pipeline layout: %w", err)
	}
	g.pipeLayout = pipeLayout

	sampler, err := g.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "mipgen_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("create mipgen sampler: %w", err)
	}
	g.sampler = sampler

	pipeline, err := g.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "mipgen_pipeline",
		Layout: g.pipeLayout,
		Vertex: hal.VertexState{
			Module:     g.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     g.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: gputypes.TextureFormatRGBA8Unorm, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive:   fullscreenPrimitive(),
		Multisample: singleSample(),
	})
	if err != nil {
		return fmt.Errorf("%w: mipgen pipeline: %v", ErrShaderCompile, err)
	}
	g.pipeline = pipeline
	return nil
}

// levelView creates a single-level, single-layer 2D view.
func (g *MipGenerator) levelView(tex hal.Texture, level, layer uint32) (hal.TextureView, error) {
	return g.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           fmt.Sprintf("mip_%d_layer_%d", level, layer),
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    level,
		MipLevelCount:   1,
		BaseArrayLayer:  layer,
		ArrayLayerCount: 1,
	})
}

// Generate renders levels 1..levels-1 of each of the layers of tex and
// waits for completion. Level 0 must already be uploaded.
func (g *MipGenerator) Generate(tex hal.Texture, layers, levels uint32) error {
	if levels <= 1 || layers == 0 {
		return nil
	}

	var (
		views  []hal.TextureView
		groups []hal.BindGroup
	)
	defer func() {
		for _, bg := range groups {
			g.device.DestroyBindGroup(bg)
		}
		for _, v := range views {
			g.device.DestroyTextureView(v)
		}
	}()

	encoder, err := g.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "mipgen_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("mipgen"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	for layer := uint32(0); layer < layers; layer++ {
		for level := uint32(1); level < levels; level++ {
			src, err := g.levelView(tex, level-1, layer)
			if err != nil {
				encoder.DiscardEncoding()
				return fmt.Errorf("create source view: %w", err)
			}
			views = append(views, src)
			dst, err := g.levelView(tex, level, layer)
			if err != nil {
				encoder.DiscardEncoding()
				return fmt.Errorf("create target view: %w", err)
			}
			views = append(views, dst)

			bg, err := g.device.CreateBindGroup(&hal.BindGroupDescriptor{
				Label:  "mipgen_bind",
				Layout: g.layout,
				Entries: []gputypes.BindGroupEntry{
					{Binding: 0, Resource: textureBinding(src)},
					{Binding: 1, Resource: samplerBinding(g.sampler)},
				},
			})
			if err != nil {
				encoder.DiscardEncoding()
				return fmt.Errorf("create bind group: %w", err)
			}
			groups = append(groups, bg)

			rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
				Label: "mipgen_pass",
				ColorAttachments: []hal.RenderPassColorAttachment{{
					View:    dst,
					LoadOp:  gputypes.LoadOpClear,
					StoreOp: gputypes.StoreOpStore,
				}},
			})
			rp.SetPipeline(g.pipeline)
			rp.SetBindGroup(0, bg, nil)
			rp.Draw(3, 1, 0, 0)
			rp.End()
		}
	}

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer g.device.FreeCommandBuffer(cmd)

	if err := submitAndWait(g.device, g.queue, cmd); err != nil {
		return err
	}
	slogger().Debug("gpu: mips generated", "layers", layers, "levels", levels)
	return nil
}

// Destroy releases all pipeline resources in reverse creation order.
func (g *MipGenerator) Destroy() {
	if g.pipeline != nil {
		g.device.DestroyRenderPipeline(g.pipeline)
		g.pipeline = nil
	}
	if g.sampler != nil {
		g.device.DestroySampler(g.sampler)
		g.sampler = nil
	}
	if g.pipeLayout != nil {
		g.device.DestroyPipelineLayout(g.pipeLayout)
		g.pipeLayout = nil
	}
	if g.layout != nil {
		g.device.DestroyBindGroupLayout(g.layout)
		g.layout = nil
	}
	if g.shader != nil {
		g.device.DestroyShaderModule(g.shader)
		g.shader = nil
	}
}

// submitAndWait submits one command buffer and blocks until the GPU is
// done with it.
func submitAndWait(device hal.Device, queue hal.Queue, cmd hal.CommandBuffer) error {
	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit([]hal.CommandBuffer{cmd}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := device.Wait(fence, 1, 5*time.Second)
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

func textureBinding(v hal.TextureView) gputypes.TextureViewBinding {
	return gputypes.TextureViewBinding{TextureView: v.NativeHandle()}
}

func samplerBinding(s hal.Sampler) gputypes.SamplerBinding {
	return gputypes.SamplerBinding{Sampler: s.NativeHandle()}
}

func fullscreenPrimitive() gputypes.PrimitiveState {
	return gputypes.PrimitiveState{
		Topology: gputypes.PrimitiveTopologyTriangleList,
		CullMode: gputypes.CullModeNone,
	}
}

func singleSample() gputypes.MultisampleState {
	return gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF}
}
