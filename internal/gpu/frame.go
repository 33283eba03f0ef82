// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/brushview/internal/batch"
	"github.com/gogpu/brushview/internal/wire"
	"github.com/gogpu/brushview/postfx"
	"github.com/gogpu/brushview/scene"
)

// copyRowAlignment is the required bytes-per-row alignment of texture to
// buffer copies.
const copyRowAlignment = 256

// Options configures a Renderer.
type Options struct {
	Width, Height int
	// EntityCapacity sizes the initial entity storage buffer.
	EntityCapacity int
	Post           postfx.Config
}

// Stats describes the last rendered frame.
type Stats struct {
	// Draws per pass, counting one draw per batch.
	Draws [batch.NumPasses]int
	// Vertices uploaded for the frame.
	Vertices int
	// PostPasses is the number of post draws including the final blit.
	PostPasses int
	// BufferGrowths counts vertex and entity buffer reallocations since
	// the renderer was created.
	BufferGrowths int
	Frames        uint64
}

// Renderer draws frames on one device. Methods must be called from a
// single control goroutine; the mutex only guards against Close racing a
// frame.
type Renderer struct {
	mu  sync.Mutex
	dev *Device

	scene   *scenePipelines
	resolve *resolvePipeline
	post    *postChain
	mipgen  *MipGenerator

	targets   targets
	materials *materials
	vertices  *growBuffer
	entities  *growBuffer

	cfg    postfx.Config
	stats  Stats
	closed bool
}

// New creates every pipeline and the size-dependent targets. Pipeline
// creation failure is fatal and wraps ErrShaderCompile.
func New(dev *Device, opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	if dev.validate {
		if err := ValidateShaders(); err != nil {
			return nil, err
		}
	}

	capacity := opts.EntityCapacity
	if capacity <= 0 {
		capacity = scene.DefaultEntityCapacity
	}
	r := &Renderer{
		dev:      dev,
		cfg:      opts.Post,
		vertices: newGrowBuffer("vertices", gputypes.BufferUsageVertex, 0),
		entities: newGrowBuffer("entities", gputypes.BufferUsageStorage, uint64(capacity)*wire.MatrixSize),
	}

	var err error
	if r.scene, err = newScenePipelines(dev.device); err != nil {
		r.Close()
		return nil, err
	}
	if r.resolve, err = newResolvePipeline(dev.device); err != nil {
		r.Close()
		return nil, err
	}
	if r.post, err = newPostChain(dev.device); err != nil {
		r.Close()
		return nil, err
	}
	if r.mipgen, err = NewMipGenerator(dev.device, dev.queue); err != nil {
		r.Close()
		return nil, err
	}
	if r.materials, err = uploadMaterials(dev.device, dev.queue, r.mipgen, MaterialSet{}); err != nil {
		r.Close()
		return nil, fmt.Errorf("upload fallback materials: %w", err)
	}
	if err := r.targets.ensure(dev.device, uint32(opts.Width), uint32(opts.Height)); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// LoadMaterials replaces the bound textures.
func (r *Renderer) LoadMaterials(set MaterialSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	m, err := uploadMaterials(r.dev.device, r.dev.queue, r.mipgen, set)
	if err != nil {
		return err
	}
	if r.materials != nil {
		r.materials.destroy(r.dev.device)
	}
	r.materials = m
	return nil
}

// Layers returns the number of bound albedo layers.
func (r *Renderer) Layers() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.materials == nil {
		return 0
	}
	return r.materials.layers
}

// SetPost replaces the post-process configuration.
func (r *Renderer) SetPost(cfg postfx.Config) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

// Resize recreates the size-dependent targets.
func (r *Renderer) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return r.targets.ensure(r.dev.device, uint32(w), uint32(h))
}

// Size returns the current target size.
func (r *Renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.targets.width), int(r.targets.height)
}

// Stats returns the statistics of the last frame.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Render draws a frame offscreen and reads the result back. vertices is
// the packed vertex buffer of res.
func (r *Renderer) Render(ctx context.Context, frame *scene.Frame, res *batch.Result, vertices []byte) (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	w, h := r.targets.width, r.targets.height
	bytesPerRow := (w*4 + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment
	staging, err := r.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback_staging",
		Size:  uint64(bytesPerRow) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer r.dev.device.DestroyBuffer(staging)

	readback := func(encoder hal.CommandEncoder) {
		// After the blit the output is in render-attachment layout; the
		// copy requires it as a transfer source.
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: r.targets.output.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		encoder.CopyTextureToBuffer(r.targets.output.tex, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: bytesPerRow, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: r.targets.output.tex, MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: r.targets.output.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	}

	if err := r.draw(ctx, frame, res, vertices, r.targets.output.view, outputFormat, readback); err != nil {
		return nil, err
	}

	data := make([]byte, uint64(bytesPerRow)*uint64(h))
	if err := r.dev.queue.ReadBuffer(staging, 0, data); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for y := 0; y < int(h); y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+int(w)*4], data[y*int(bytesPerRow):])
	}
	return img, nil
}

// RenderToView draws a frame into a host-owned texture view, typically the
// current swapchain image. format must be the view's format; a blit
// pipeline is created for it on first use.
func (r *Renderer) RenderToView(ctx context.Context, frame *scene.Frame, res *batch.Result, vertices []byte,
	view hal.TextureView, format gputypes.TextureFormat,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return r.draw(ctx, frame, res, vertices, view, format, nil)
}

// draw uploads the frame data, encodes every pass and waits for the GPU.
// ctx is checked before upload and again before submission; a cancelled
// frame submits nothing.
func (r *Renderer) draw(ctx context.Context, frame *scene.Frame, res *batch.Result, vertices []byte,
	out hal.TextureView, outFormat gputypes.TextureFormat, after func(hal.CommandEncoder),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	device, queue := r.dev.device, r.dev.queue
	r.stats = Stats{BufferGrowths: r.stats.BufferGrowths, Frames: r.stats.Frames}

	// Upload: the only CPU to GPU synchronization point of the frame.
	matrices := wire.Matrices(frame.Transforms.Matrices())
	if err := r.entities.write(device, queue, matrices); err != nil {
		return err
	}
	if err := r.vertices.write(device, queue, vertices); err != nil {
		return err
	}
	r.stats.BufferGrowths = r.entities.grows + r.vertices.grows
	r.stats.Vertices = len(vertices) / wire.VertexStride

	uniforms := wire.FrameUniforms{
		View:       frame.Camera.View,
		Projection: frame.Camera.Projection,
		Camera:     frame.Camera.Position,
		Flags:      frame.Flags,
		Time:       float32(frame.Time),
		Layers:     r.materials.layers,
		Entities:   uint32(len(matrices) / wire.MatrixSize),
		AlbedoSize: mgl32.Vec2(r.materials.albedoSize()),
	}
	frameBuf, err := createAndUploadBuffer(device, queue, "frame_uniforms", uniforms.Bytes(),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	defer device.DestroyBuffer(frameBuf)

	skyBuf, err := createAndUploadBuffer(device, queue, "sky_uniforms", skyUniforms(frame.Camera),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	defer device.DestroyBuffer(skyBuf)

	sceneBG, err := r.scene.sceneBindGroup(frameBuf, r.entities, r.materials)
	if err != nil {
		return fmt.Errorf("create scene bind group: %w", err)
	}
	defer device.DestroyBindGroup(sceneBG)

	skyBG, err := r.scene.skyBindGroup(skyBuf, r.materials)
	if err != nil {
		return fmt.Errorf("create skybox bind group: %w", err)
	}
	defer device.DestroyBindGroup(skyBG)

	resolveBG, err := r.resolve.bindGroup(&r.targets)
	if err != nil {
		return fmt.Errorf("create resolve bind group: %w", err)
	}
	defer device.DestroyBindGroup(resolveBG)

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	r.recordScene(encoder, frame.Flags, res, sceneBG, skyBG)
	if !frame.Flags.Has(scene.FlagHideTransparent) {
		r.recordAccum(encoder, res, sceneBG)
		r.resolve.record(encoder, &r.targets, resolveBG)
	}

	postRes, passes, err := r.post.record(encoder, queue, r.cfg, &r.targets, out, outFormat)
	if err != nil {
		encoder.DiscardEncoding()
		return err
	}
	defer postRes.release(device)
	r.stats.PostPasses = passes

	if after != nil {
		after(encoder)
	}

	if err := ctx.Err(); err != nil {
		encoder.DiscardEncoding()
		return err
	}

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmd)

	if err := submitAndWait(device, queue, cmd); err != nil {
		return err
	}
	r.stats.Frames++
	slogger().Debug("gpu: frame done",
		"sky", r.stats.Draws[batch.PassSky],
		"opaque", r.stats.Draws[batch.PassOpaque],
		"transparent", r.stats.Draws[batch.PassTransparent],
		"vertices", r.stats.Vertices,
		"post", r.stats.PostPasses)
	return nil
}

// recordScene encodes the prepass, skybox and opaque draws in one pass.
// FlagHideSkybox drops the first two; FlagBeyondSky swaps the prepass for
// the stencil-only mask.
func (r *Renderer) recordScene(encoder hal.CommandEncoder, flags scene.RenderFlags, res *batch.Result, sceneBG, skyBG hal.BindGroup) {
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "scene_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       r.targets.color.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
			{
				View:       r.targets.linear.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: FarDepth},
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              r.targets.depth.view,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: 0,
		},
	})

	if !flags.Has(scene.FlagHideSkybox) {
		prepass := r.scene.prepass
		if flags.Has(scene.FlagBeyondSky) {
			prepass = r.scene.mask
		}
		rp.SetPipeline(prepass)
		rp.SetBindGroup(0, sceneBG, nil)
		rp.SetVertexBuffer(0, r.vertices.buf, 0)
		r.drawBatches(rp, res, batch.PassSky)

		rp.SetPipeline(r.scene.skybox)
		rp.SetBindGroup(0, skyBG, nil)
		rp.Draw(3, 1, 0, 0)
	}

	rp.SetPipeline(r.scene.opaque)
	rp.SetBindGroup(0, sceneBG, nil)
	rp.SetVertexBuffer(0, r.vertices.buf, 0)
	r.drawBatches(rp, res, batch.PassOpaque)
	rp.End()
}

// recordAccum encodes the transparent draws into the OIT targets, testing
// against the scene depth without writing it.
func (r *Renderer) recordAccum(encoder hal.CommandEncoder, res *batch.Result, sceneBG hal.BindGroup) {
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "accum_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       r.targets.accum.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{},
			},
			{
				View:       r.targets.reveal.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{},
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:           r.targets.depth.view,
			DepthLoadOp:    gputypes.LoadOpLoad,
			DepthStoreOp:   gputypes.StoreOpStore,
			StencilLoadOp:  gputypes.LoadOpLoad,
			StencilStoreOp: gputypes.StoreOpStore,
		},
	})
	rp.SetPipeline(r.scene.accum)
	rp.SetBindGroup(0, sceneBG, nil)
	rp.SetVertexBuffer(0, r.vertices.buf, 0)
	r.drawBatches(rp, res, batch.PassTransparent)
	rp.End()
}

func (r *Renderer) drawBatches(rp hal.RenderPassEncoder, res *batch.Result, pass batch.Pass) {
	for _, b := range res.Batches {
		if b.Pass != pass || b.Count == 0 {
			continue
		}
		rp.Draw(b.Count, 1, b.First, 0)
		r.stats.Draws[pass]++
	}
}

// skyUniforms encodes the inverse view-projection and camera position.
func skyUniforms(cam scene.Camera) []byte {
	buf := make([]byte, skyUniformSize)
	inv := cam.ViewProjection().Inv()
	for i, v := range inv {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	pos := cam.Position.Vec4(1)
	for i, v := range pos {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(v))
	}
	return buf
}

// Close releases every GPU resource. The device itself is closed by its
// owner. Safe to call multiple times.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	device := r.dev.device

	r.targets.destroy(device)
	if r.materials != nil {
		r.materials.destroy(device)
		r.materials = nil
	}
	r.entities.destroy(device)
	r.vertices.destroy(device)
	if r.mipgen != nil {
		r.mipgen.Destroy()
	}
	if r.post != nil {
		r.post.destroy()
	}
	if r.resolve != nil {
		r.resolve.destroy()
	}
	if r.scene != nil {
		r.scene.destroy()
	}
}
