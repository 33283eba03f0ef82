// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/brushview/postfx"
)

// postUniformSize is the byte size of the post uniform block. Layout:
//
//	texel (vec2<f32>) @0, size (vec2<f32>) @8
//	threshold, strength, blur_offset (f32), pixel_size (u32) @16
//	radius (i32), focus_depth, focus_range, chroma (f32) @32
//	palette_count, has_depth (u32), 2 x pad @48
//	palette (array<vec4<f32>, 64>) @64
const postUniformSize = 64 + postfx.MaxPaletteColors*16

// Fragment entry points of post.wgsl.
const (
	entryCopy      = "fs_copy"
	entryBright    = "fs_bright"
	entryBlur      = "fs_blur"
	entryComposite = "fs_composite"
	entryGrayscale = "fs_grayscale"
	entryPosterize = "fs_posterize"
	entryPixelate  = "fs_pixelate"
	entryKuwahara  = "fs_kuwahara"
	entryChromatic = "fs_chromatic"
)

// stageEntries are the entries rendered into the intermediates.
var stageEntries = []string{
	entryBright, entryBlur, entryComposite, entryGrayscale,
	entryPosterize, entryPixelate, entryKuwahara, entryChromatic,
}

// postParams is the per-pass content of the post uniform block.
type postParams struct {
	width, height uint32
	threshold     float32
	strength      float32
	blurOffset    float32
	pixelSize     uint32
	radius        int32
	focusDepth    float32
	focusRange    float32
	chroma        float32
	hasDepth      bool
	palette       postfx.Palette
}

func (p *postParams) bytes() []byte {
	buf := make([]byte, postUniformSize)
	f := func(off int, v float32) { binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v)) }
	u := func(off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:], v) }

	f(0, 1/float32(max(p.width, 1)))
	f(4, 1/float32(max(p.height, 1)))
	f(8, float32(p.width))
	f(12, float32(p.height))
	f(16, p.threshold)
	f(20, p.strength)
	f(24, p.blurOffset)
	u(28, p.pixelSize)
	u(32, uint32(p.radius))
	f(36, p.focusDepth)
	f(40, p.focusRange)
	f(44, p.chroma)
	n := min(len(p.palette), postfx.MaxPaletteColors)
	u(48, uint32(n))
	if p.hasDepth {
		u(52, 1)
	}
	for i := 0; i < n; i++ {
		c := p.palette[i]
		f(64+i*16, c[0])
		f(68+i*16, c[1])
		f(72+i*16, c[2])
		f(76+i*16, 1)
	}
	return buf
}

// postPass is one fullscreen draw of the chain.
type postPass struct {
	entry  string
	src    hal.TextureView
	aux    hal.TextureView
	dst    hal.TextureView
	params postParams
}

// planPost expands cfg into the ordered draws over the frame targets:
// bloom (bright, blur iterations, composite), the active style, chromatic
// aberration. The returned view holds the final image; the caller blits it
// to the output.
func planPost(cfg postfx.Config, t *targets) (passes []postPass, final hal.TextureView) {
	base := postParams{width: t.width, height: t.height}
	cur := t.color.view
	free := [2]hal.TextureView{t.ping.view, t.pong.view}
	next := 0
	other := func() hal.TextureView {
		v := free[next]
		next ^= 1
		return v
	}
	add := func(entry string, src, aux, dst hal.TextureView, p postParams) {
		passes = append(passes, postPass{entry: entry, src: src, aux: aux, dst: dst, params: p})
	}

	if cfg.Bloom.Enabled {
		p := base
		p.threshold = cfg.Bloom.Threshold
		blurred := other()
		add(entryBright, cur, t.linear.view, blurred, p)
		for i := 0; i < cfg.Bloom.Iterations; i++ {
			bp := base
			bp.blurOffset = float32(i + 1)
			dst := other()
			add(entryBlur, blurred, t.linear.view, dst, bp)
			blurred = dst
		}
		cp := base
		cp.strength = cfg.Bloom.Strength
		dst := other()
		add(entryComposite, cur, blurred, dst, cp)
		cur = dst
	}

	if entry, p, ok := styleEntry(cfg, base); ok {
		dst := other()
		add(entry, cur, t.linear.view, dst, p)
		cur = dst
	}

	if cfg.Chromatic.Enabled {
		p := base
		p.focusDepth = cfg.Chromatic.FocusDepth
		p.focusRange = cfg.Chromatic.FocusRange
		p.chroma = cfg.Chromatic.Strength
		p.hasDepth = true
		dst := other()
		add(entryChromatic, cur, t.linear.view, dst, p)
		cur = dst
	}
	return passes, cur
}

func styleEntry(cfg postfx.Config, base postParams) (string, postParams, bool) {
	p := base
	switch cfg.Style {
	case postfx.StylePixelate:
		p.pixelSize = uint32(max(cfg.PixelSize, 1))
		return entryPixelate, p, true
	case postfx.StyleGrayscale:
		return entryGrayscale, p, true
	case postfx.StylePalette:
		p.palette = cfg.Palette
		return entryPosterize, p, true
	case postfx.StyleKuwahara:
		p.radius = int32(cfg.KuwaharaRadius)
		return entryKuwahara, p, true
	default:
		return "", p, false
	}
}

// postChain owns the post pipelines. Stage pipelines render to the
// RGBA16Float intermediates; blit pipelines are created per output format
// on first use.
type postChain struct {
	device hal.Device

	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler
	stages     map[string]hal.RenderPipeline
	blits      map[gputypes.TextureFormat]hal.RenderPipeline
}

func newPostChain(device hal.Device) (*postChain, error) {
	c := &postChain{
		device: device,
		stages: make(map[string]hal.RenderPipeline),
		blits:  make(map[gputypes.TextureFormat]hal.RenderPipeline),
	}
	if err := c.create(); err != nil {
		c.destroy()
		return nil, err
	}
	return c, nil
}

func (c *postChain) create() error {
	var err error
	if c.shader, err = createShader(c.device, "post_shader", postShaderSource); err != nil {
		return err
	}

	// Post bind group layout:
	//   0 uniforms, 1 source (filterable), 2 aux (textureLoad only), 3 sampler.
	if c.layout, err = c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "post_layout",
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
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	}); err != nil {
		return fmt.Errorf("create post layout: %w", err)
	}

	if c.pipeLayout, err = c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "post_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.layout},
	}); err != nil {
		return fmt.Errorf("create post pipeline layout: %w", err)
	}

	if c.sampler, err = c.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "post_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	}); err != nil {
		return fmt.Errorf("create post sampler: %w", err)
	}

	for _, entry := range stageEntries {
		pipe, err := c.pipeline("post_"+entry, entry, colorFormat)
		if err != nil {
			return err
		}
		c.stages[entry] = pipe
	}
	if _, err := c.blit(outputFormat); err != nil {
		return err
	}
	return nil
}

func (c *postChain) pipeline(label, entry string, format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	pipe, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: c.pipeLayout,
		Vertex: hal.VertexState{
			Module:     c.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     c.shader,
			EntryPoint: entry,
			Targets: []gputypes.ColorTargetState{
				{Format: format, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive:   fullscreenPrimitive(),
		Multisample: singleSample(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrShaderCompile, label, err)
	}
	return pipe, nil
}

// blit returns the copy pipeline for an output format, creating it on
// first use.
func (c *postChain) blit(format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	if pipe, ok := c.blits[format]; ok {
		return pipe, nil
	}
	pipe, err := c.pipeline(fmt.Sprintf("post_blit_%d", format), entryCopy, format)
	if err != nil {
		return nil, err
	}
	c.blits[format] = pipe
	return pipe, nil
}

func (c *postChain) passPipeline(entry string, last bool, outFormat gputypes.TextureFormat) (hal.RenderPipeline, error) {
	if last {
		return c.blit(outFormat)
	}
	return c.stages[entry], nil
}

// postFrame holds the per-frame buffers and bind groups of the chain.
type postFrame struct {
	buffers []hal.Buffer
	groups  []hal.BindGroup
}

func (f *postFrame) release(device hal.Device) {
	for _, bg := range f.groups {
		device.DestroyBindGroup(bg)
	}
	for _, b := range f.buffers {
		device.DestroyBuffer(b)
	}
	f.groups, f.buffers = nil, nil
}

// record encodes every pass of the chain followed by the blit of the final
// image into out. The returned resources must be released after the
// command buffer completes.
func (c *postChain) record(encoder hal.CommandEncoder, queue hal.Queue, cfg postfx.Config, t *targets,
	out hal.TextureView, outFormat gputypes.TextureFormat,
) (*postFrame, int, error) {
	passes, final := planPost(cfg, t)
	passes = append(passes, postPass{
		entry:  entryCopy,
		src:    final,
		aux:    t.linear.view,
		dst:    out,
		params: postParams{width: t.width, height: t.height},
	})

	frame := &postFrame{}
	for i := range passes {
		ps := &passes[i]
		pipe, err := c.passPipeline(ps.entry, i == len(passes)-1, outFormat)
		if err != nil {
			frame.release(c.device)
			return nil, 0, err
		}

		ub, err := createAndUploadBuffer(c.device, queue, "post_uniform", ps.params.bytes(),
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			frame.release(c.device)
			return nil, 0, err
		}
		frame.buffers = append(frame.buffers, ub)

		bg, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "post_bind",
			Layout: c.layout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: ub.NativeHandle(), Offset: 0, Size: postUniformSize,
				}},
				{Binding: 1, Resource: textureBinding(ps.src)},
				{Binding: 2, Resource: textureBinding(ps.aux)},
				{Binding: 3, Resource: samplerBinding(c.sampler)},
			},
		})
		if err != nil {
			frame.release(c.device)
			return nil, 0, fmt.Errorf("create post bind group: %w", err)
		}
		frame.groups = append(frame.groups, bg)

		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "post_" + ps.entry,
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    ps.dst,
				LoadOp:  gputypes.LoadOpClear,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		rp.SetPipeline(pipe)
		rp.SetBindGroup(0, bg, nil)
		rp.Draw(3, 1, 0, 0)
		rp.End()
	}
	return frame, len(passes), nil
}

func (c *postChain) destroy() {
	for f, pipe := range c.blits {
		c.device.DestroyRenderPipeline(pipe)
		delete(c.blits, f)
	}
	for e, pipe := range c.stages {
		c.device.DestroyRenderPipeline(pipe)
		delete(c.stages, e)
	}
	if c.sampler != nil {
		c.device.DestroySampler(c.sampler)
		c.sampler = nil
	}
	if c.pipeLayout != nil {
		c.device.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.layout != nil {
		c.device.DestroyBindGroupLayout(c.layout)
		c.layout = nil
	}
	if c.shader != nil {
		c.device.DestroyShaderModule(c.shader)
		c.shader = nil
	}
}
