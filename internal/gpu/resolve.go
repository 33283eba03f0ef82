// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// resolvePipeline composites the accumulation targets over the scene color
// with a premultiplied over blend. Pixels with zero coverage are discarded
// so the opaque color passes through untouched.
type resolvePipeline struct {
	device hal.Device

	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

func newResolvePipeline(device hal.Device) (*resolvePipeline, error) {
	p := &resolvePipeline{device: device}
	if err := p.create(); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *resolvePipeline) create() error {
	var err error
	if p.shader, err = createShader(p.device, "resolve_shader", resolveShaderSource); err != nil {
		return err
	}

	unfilterable := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		}
	}
	if p.layout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "resolve_layout",
		Entries: []gputypes.BindGroupLayoutEntry{unfilterable(0), unfilterable(1)},
	}); err != nil {
		return fmt.Errorf("create resolve layout: %w", err)
	}

	if p.pipeLayout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "resolve_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	}); err != nil {
		return fmt.Errorf("create resolve pipeline layout: %w", err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	if p.pipeline, err = p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "resolve_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: colorFormat, Blend: &premulBlend, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive:   fullscreenPrimitive(),
		Multisample: singleSample(),
	}); err != nil {
		return fmt.Errorf("%w: resolve pipeline: %v", ErrShaderCompile, err)
	}
	return nil
}

func (p *resolvePipeline) bindGroup(t *targets) (hal.BindGroup, error) {
	return p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "resolve_bind",
		Layout: p.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: textureBinding(t.accum.view)},
			{Binding: 1, Resource: textureBinding(t.reveal.view)},
		},
	})
}

// record draws the resolve triangle into the scene color target.
func (p *resolvePipeline) record(encoder hal.CommandEncoder, t *targets, bg hal.BindGroup) {
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "resolve_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    t.color.view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bg, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()
}

func (p *resolvePipeline) destroy() {
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.layout != nil {
		p.device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
