// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/brushview/internal/wire"
)

// skyUniformSize is the byte size of the skybox uniform buffer.
// Layout: inverse view-projection (mat4x4<f32>) + camera (vec4<f32>).
const skyUniformSize = 80

// scenePipelines owns the pipelines of the scene and accumulation passes.
//
// The scene pass renders into [color, linear depth] with the
// depth/stencil attachment:
//
//	prepass  sky faces only, color writes off, depth LessEqual with
//	         write, stencil IncrementClamp so covered pixels read non-zero
//	mask     the prepass without depth write, for frames drawn beyond
//	         the sky
//	skybox   fullscreen, stencil NotEqual 0, depth Always without write
//	opaque   depth LessEqual with write, alpha forced to 1
//
// The accumulation pass renders into [accum, reveal] with additive
// One/One blending and a read-only depth test against the scene depth.
type scenePipelines struct {
	device hal.Device

	sceneShader  hal.ShaderModule
	skyboxShader hal.ShaderModule

	sceneLayout  hal.BindGroupLayout
	skyLayout    hal.BindGroupLayout
	scenePipe    hal.PipelineLayout
	skyPipe      hal.PipelineLayout
	albedoSamp   hal.Sampler
	clampSampler hal.Sampler

	prepass hal.RenderPipeline
	mask    hal.RenderPipeline
	skybox  hal.RenderPipeline
	opaque  hal.RenderPipeline
	accum   hal.RenderPipeline
}

func newScenePipelines(device hal.Device) (*scenePipelines, error) {
	p := &scenePipelines{device: device}
	if err := p.create(); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

// sceneVertexLayout mirrors the wire vertex layout.
func sceneVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: wire.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1}, // texcoord
				{Format: gputypes.VertexFormatFloat32x3, Offset: 20, ShaderLocation: 2}, // normal
				{Format: gputypes.VertexFormatUint32, Offset: 32, ShaderLocation: 3},    // layer
				{Format: gputypes.VertexFormatUint32, Offset: 36, ShaderLocation: 4},    // surface
				{Format: gputypes.VertexFormatFloat32x3, Offset: 40, ShaderLocation: 5}, // aux_a
				{Format: gputypes.VertexFormatUint32x3, Offset: 52, ShaderLocation: 6},  // aux_b
			},
		},
	}
}

func (p *scenePipelines) create() error { //nolint:funlen // GPU pipeline descriptors are inherently verbose
	var err error
	if p.sceneShader, err = createShader(p.device, "scene_shader", sceneShaderSource); err != nil {
		return err
	}
	if p.skyboxShader, err = createShader(p.device, "skybox_shader", skyboxShaderSource); err != nil {
		return err
	}

	// Scene bind group layout:
	//   0 frame uniforms, 1 entity matrices, 2 albedo array,
	//   3 lightmap, 4 albedo sampler, 5 lightmap sampler.
	p.sceneLayout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "scene_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2DArray,
				},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    4,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{
				Binding:    5,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create scene layout: %w", err)
	}

	p.skyLayout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "skybox_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimensionCube,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create skybox layout: %w", err)
	}

	if p.scenePipe, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "scene_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.sceneLayout},
	}); err != nil {
		return fmt.Errorf("create scene pipeline layout: %w", err)
	}
	if p.skyPipe, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "skybox_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.skyLayout},
	}); err != nil {
		return fmt.Errorf("create skybox pipeline layout: %w", err)
	}

	if p.albedoSamp, err = p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "albedo_sampler",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	}); err != nil {
		return fmt.Errorf("create albedo sampler: %w", err)
	}
	if p.clampSampler, err = p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "clamp_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	}); err != nil {
		return fmt.Errorf("create clamp sampler: %w", err)
	}

	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}

	// --- Prepass ---
	mark := keep
	mark.PassOp = hal.StencilOperationIncrementClamp
	if p.prepass, err = p.scenePipeline("prepass_pipeline", "vs_prepass", "fs_prepass",
		sceneTargets(gputypes.ColorWriteMaskNone),
		&hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLessEqual,
			StencilFront:      mark,
			StencilBack:       mark,
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		}); err != nil {
		return err
	}
	if p.mask, err = p.scenePipeline("sky_mask_pipeline", "vs_prepass", "fs_prepass",
		sceneTargets(gputypes.ColorWriteMaskNone),
		&hal.DepthStencilState{
			Format:           depthFormat,
			DepthCompare:     gputypes.CompareFunctionLessEqual,
			StencilFront:     mark,
			StencilBack:      mark,
			StencilReadMask:  0xFF,
			StencilWriteMask: 0xFF,
		}); err != nil {
		return err
	}

	// --- Skybox ---
	sky := keep
	sky.Compare = gputypes.CompareFunctionNotEqual
	targets := sceneTargets(gputypes.ColorWriteMaskAll)
	targets[1].WriteMask = gputypes.ColorWriteMaskNone
	if p.skybox, err = p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "skybox_pipeline",
		Layout: p.skyPipe,
		Vertex: hal.VertexState{
			Module:     p.skyboxShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.skyboxShader,
			EntryPoint: "fs_main",
			Targets:    targets,
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      sky,
			StencilBack:       sky,
			StencilReadMask:   0xFF,
			StencilWriteMask:  0x00,
		},
		Primitive:   fullscreenPrimitive(),
		Multisample: singleSample(),
	}); err != nil {
		return fmt.Errorf("%w: skybox pipeline: %v", ErrShaderCompile, err)
	}

	// --- Opaque ---
	if p.opaque, err = p.scenePipeline("opaque_pipeline", "vs_main", "fs_opaque",
		sceneTargets(gputypes.ColorWriteMaskAll),
		&hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLessEqual,
			StencilFront:      keep,
			StencilBack:       keep,
		}); err != nil {
		return err
	}

	// --- Accumulation ---
	add := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	if p.accum, err = p.scenePipeline("accum_pipeline", "vs_main", "fs_accum",
		[]gputypes.ColorTargetState{
			{Format: accumFormat, Blend: &add, WriteMask: gputypes.ColorWriteMaskAll},
			{Format: revealFormat, Blend: &add, WriteMask: gputypes.ColorWriteMaskAll},
		},
		&hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionLessEqual,
			StencilFront:      keep,
			StencilBack:       keep,
		}); err != nil {
		return err
	}

	slogger().Info("gpu: scene pipelines created")
	return nil
}

// sceneTargets returns the [color, linear depth] target states.
func sceneTargets(mask gputypes.ColorWriteMask) []gputypes.ColorTargetState {
	return []gputypes.ColorTargetState{
		{Format: colorFormat, WriteMask: mask},
		{Format: linearFormat, WriteMask: mask},
	}
}

func (p *scenePipelines) scenePipeline(label, vs, fs string, targets []gputypes.ColorTargetState, ds *hal.DepthStencilState) (hal.RenderPipeline, error) {
	pipe, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.scenePipe,
		Vertex: hal.VertexState{
			Module:     p.sceneShader,
			EntryPoint: vs,
			Buffers:    sceneVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.sceneShader,
			EntryPoint: fs,
			Targets:    targets,
		},
		DepthStencil: ds,
		Primitive:    fullscreenPrimitive(),
		Multisample:  singleSample(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrShaderCompile, label, err)
	}
	return pipe, nil
}

// sceneBindGroup binds the per-frame buffers and the material textures.
func (p *scenePipelines) sceneBindGroup(uniforms hal.Buffer, entities *growBuffer, m *materials) (hal.BindGroup, error) {
	return p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "scene_bind",
		Layout: p.sceneLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniforms.NativeHandle(), Offset: 0, Size: wire.FrameUniformSize,
			}},
			{Binding: 1, Resource: entities.binding()},
			{Binding: 2, Resource: textureBinding(m.albedoV)},
			{Binding: 3, Resource: textureBinding(m.lightmap.view)},
			{Binding: 4, Resource: samplerBinding(p.albedoSamp)},
			{Binding: 5, Resource: samplerBinding(p.clampSampler)},
		},
	})
}

func (p *scenePipelines) skyBindGroup(uniforms hal.Buffer, m *materials) (hal.BindGroup, error) {
	return p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "skybox_bind",
		Layout: p.skyLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniforms.NativeHandle(), Offset: 0, Size: skyUniformSize,
			}},
			{Binding: 1, Resource: textureBinding(m.skyV)},
			{Binding: 2, Resource: samplerBinding(p.clampSampler)},
		},
	})
}

// destroy releases all pipeline resources in reverse creation order.
func (p *scenePipelines) destroy() {
	for _, pipe := range []*hal.RenderPipeline{&p.accum, &p.opaque, &p.skybox, &p.mask, &p.prepass} {
		if *pipe != nil {
			p.device.DestroyRenderPipeline(*pipe)
			*pipe = nil
		}
	}
	for _, s := range []*hal.Sampler{&p.clampSampler, &p.albedoSamp} {
		if *s != nil {
			p.device.DestroySampler(*s)
			*s = nil
		}
	}
	for _, l := range []*hal.PipelineLayout{&p.skyPipe, &p.scenePipe} {
		if *l != nil {
			p.device.DestroyPipelineLayout(*l)
			*l = nil
		}
	}
	for _, l := range []*hal.BindGroupLayout{&p.skyLayout, &p.sceneLayout} {
		if *l != nil {
			p.device.DestroyBindGroupLayout(*l)
			*l = nil
		}
	}
	for _, s := range []*hal.ShaderModule{&p.skyboxShader, &p.sceneShader} {
		if *s != nil {
			p.device.DestroyShaderModule(*s)
			*s = nil
		}
	}
}
