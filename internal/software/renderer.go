// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software is the CPU fallback backend. It runs the same pass
// sequence as the GPU backend on a scanline triangle rasterizer:
// depth/mask prepass with skybox, opaque pass, transparency accumulation,
// resolve and post chain.
//
// Rows of the frame are split into bands rasterized in parallel. Each band
// owns its pixels, so no two workers write the same memory.
package software

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/brushview/internal/batch"
	"github.com/gogpu/brushview/internal/billboard"
	"github.com/gogpu/brushview/internal/oit"
	"github.com/gogpu/brushview/internal/parallel"
	"github.com/gogpu/brushview/internal/shade"
	"github.com/gogpu/brushview/postfx"
	"github.com/gogpu/brushview/scene"
)

// FarDepth is the cleared value of the linear depth target.
const FarDepth = 1e6

// bandHeight is the number of rows each parallel work item rasterizes.
const bandHeight = 16

// ErrInvalidSize is returned for non-positive target dimensions.
var ErrInvalidSize = errors.New("software: invalid target size")

// Stats counts the work done for one frame.
type Stats struct {
	Triangles [batch.NumPasses]int
	Fragments [batch.NumPasses]int
	Discarded int
}

// Renderer draws frames into float images.
type Renderer struct {
	width, height int
	pool          *parallel.WorkerPool
	materials     *Materials
	log           *slog.Logger

	// Frame-transient targets, reused across frames and cleared each frame.
	color   []mgl32.Vec4
	depth   []float32
	linear  []float32
	stencil []uint8
	accum   []oit.Accum

	stats Stats
}

// New returns a renderer for a width x height target. pool may be nil.
func New(width, height int, pool *parallel.WorkerPool, log *slog.Logger) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	n := width * height
	return &Renderer{
		width:   width,
		height:  height,
		pool:    pool,
		log:     log,
		color:   make([]mgl32.Vec4, n),
		depth:   make([]float32, n),
		linear:  make([]float32, n),
		stencil: make([]uint8, n),
		accum:   make([]oit.Accum, n),
	}, nil
}

// Size returns the target dimensions.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

// SetMaterials replaces the bound textures.
func (r *Renderer) SetMaterials(m *Materials) { r.materials = m }

// Stats returns the counters of the last rendered frame.
func (r *Renderer) Stats() Stats { return r.stats }

// drawTri is a prepared triangle: its screen setups and surface state.
type drawTri struct {
	setups  []setup
	surface scene.Surface
	layer   uint32
}

// Render draws frame from the prepared geometry in res and runs chain over
// the result. The pass toggles in frame.Flags skip the skybox and
// transparency passes. ctx is checked between passes; a cancelled context
// abandons the frame and returns ctx.Err().
func (r *Renderer) Render(ctx context.Context, frame *scene.Frame, res *batch.Result, chain *postfx.Chain) (*postfx.Image, error) {
	r.stats = Stats{}
	r.clear()

	var tris [batch.NumPasses][]drawTri
	for p := range tris {
		tris[p] = r.prepare(frame, res.Triangles[p])
		r.stats.Triangles[p] = len(res.Triangles[p])
	}

	var steps []func()
	if !frame.Flags.Has(scene.FlagHideSkybox) {
		writeDepth := !frame.Flags.Has(scene.FlagBeyondSky)
		steps = append(steps,
			func() { r.prepass(tris[batch.PassSky], writeDepth) },
			func() { r.skybox(frame.Camera) })
	}
	steps = append(steps, func() { r.opaque(frame, tris[batch.PassOpaque]) })
	if !frame.Flags.Has(scene.FlagHideTransparent) {
		steps = append(steps,
			func() { r.accumulate(frame, tris[batch.PassTransparent]) },
			r.resolve)
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step()
	}

	img := &postfx.Image{
		Width:  r.width,
		Height: r.height,
		Pix:    append([]mgl32.Vec4(nil), r.color...),
		Depth:  append([]float32(nil), r.linear...),
	}
	if chain != nil {
		img = chain.Apply(img)
	}
	r.log.Debug("software: frame done",
		"sky", r.stats.Triangles[batch.PassSky],
		"opaque", r.stats.Triangles[batch.PassOpaque],
		"transparent", r.stats.Triangles[batch.PassTransparent],
		"discarded", r.stats.Discarded)
	return img, nil
}

func (r *Renderer) clear() {
	for i := range r.color {
		r.color[i] = mgl32.Vec4{0, 0, 0, 1}
		r.depth[i] = 1
		r.linear[i] = FarDepth
		r.stencil[i] = 0
		r.accum[i] = oit.Accum{}
	}
}

// prepare runs the vertex stage for every triangle.
func (r *Renderer) prepare(frame *scene.Frame, in []batch.Triangle) []drawTri {
	out := make([]drawTri, len(in))
	vp := frame.Camera.ViewProjection()
	r.forEach(len(in), func(i int) {
		t := &in[i]
		var cv [3]clipVert
		for k := range t {
			cv[k] = vertexStage(&t[k], frame, vp)
		}
		out[i] = drawTri{
			setups:  triangulate(cv, r.width, r.height),
			surface: t[0].Surface,
			layer:   t[0].Layer,
		}
	})
	return out
}

func vertexStage(v *scene.Vertex, frame *scene.Frame, vp mgl32.Mat4) clipVert {
	model := frame.Transforms.At(int(v.Entity))
	var world mgl32.Vec3
	if s, ok := v.Surface.(scene.SpriteSurface); ok {
		world, _ = billboard.Resolve(v.Position, model, frame.Camera, s.Orientation)
	} else {
		world = model.Mul4x1(v.Position.Vec4(1)).Vec3()
	}
	normal := model.Mat3().Mul3x1(v.Normal)
	if l := normal.Len(); l > 0 {
		normal = normal.Mul(1 / l)
	}
	var lm mgl32.Vec2
	if b, ok := v.Surface.(scene.BrushSurface); ok {
		lm = b.LightmapUV
	}
	return clipVert{
		pos: vp.Mul4x1(world.Vec4(1)),
		v:   varying{uv: v.TexCoord, lm: lm, normal: normal, world: world},
	}
}

// bands runs fn over horizontal bands of rows in parallel.
func (r *Renderer) bands(fn func(y0, y1 int)) {
	n := (r.height + bandHeight - 1) / bandHeight
	r.forEach(n, func(i int) {
		y0 := i * bandHeight
		fn(y0, min(y0+bandHeight, r.height))
	})
}

func (r *Renderer) forEach(n int, fn func(i int)) {
	if r.pool == nil {
		for i := range n {
			fn(i)
		}
		return
	}
	r.pool.ForEach(n, fn)
}

// prepass writes the sky stencil for sky faces, and their depth when
// writeDepth is set.
func (r *Renderer) prepass(tris []drawTri, writeDepth bool) {
	r.bands(func(y0, y1 int) {
		for i := range tris {
			for _, s := range tris[i].setups {
				s.raster(y0, y1, func(f *fragment) {
					idx := f.y*r.width + f.x
					if f.depth <= r.depth[idx] {
						if writeDepth {
							r.depth[idx] = f.depth
						}
						r.stencil[idx] = 1
					}
				})
			}
		}
	})
}

// skybox fills sky-stenciled pixels from the cubemap by view direction.
func (r *Renderer) skybox(cam scene.Camera) {
	inv := cam.ViewProjection().Inv()
	r.bands(func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < r.width; x++ {
				idx := y*r.width + x
				if r.stencil[idx] != 1 {
					continue
				}
				ndcX := (float32(x)+0.5)/float32(r.width)*2 - 1
				ndcY := 1 - (float32(y)+0.5)/float32(r.height)*2
				p := inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
				dir := p.Vec3().Mul(1 / p[3]).Sub(cam.Position)
				r.color[idx] = r.materials.Sky(dir).Vec4(1)
			}
		}
	})
}

func (r *Renderer) shadeFragment(frame *scene.Frame, t *drawTri, f *fragment) (mgl32.Vec4, bool) {
	layer := t.layer
	if s, ok := t.surface.(scene.SpriteSurface); ok {
		layer = shade.SpriteLayer(layer, frame.Time, s.FrameRate, s.FrameCount)
	}
	layer = shade.ClampLayer(layer, r.materials.Layers())

	size := r.materials.Size()
	mip := shade.MipLevel(f.duvdx, f.duvdy, size)
	return shade.Evaluate(shade.Input{
		Albedo:   r.materials.Albedo(layer, f.v.uv, mip),
		Lightmap: r.materials.Lightmap(f.v.lm),
		Normal:   f.v.normal,
		Mip:      mip,
		Flags:    frame.Flags,
		Surface:  t.surface,
	})
}

// opaque draws opaque surfaces with LessEqual depth and alpha forced to 1.
func (r *Renderer) opaque(frame *scene.Frame, tris []drawTri) {
	frags := make([]int, (r.height+bandHeight-1)/bandHeight)
	discards := make([]int, len(frags))
	r.bands(func(y0, y1 int) {
		band := y0 / bandHeight
		for i := range tris {
			t := &tris[i]
			for _, s := range t.setups {
				s.raster(y0, y1, func(f *fragment) {
					idx := f.y*r.width + f.x
					if f.depth > r.depth[idx] {
						return
					}
					c, ok := r.shadeFragment(frame, t, f)
					if !ok {
						discards[band]++
						return
					}
					frags[band]++
					r.color[idx] = c.Vec3().Vec4(1)
					r.depth[idx] = f.depth
					r.linear[idx] = frame.Camera.ViewDepth(f.v.world)
				})
			}
		}
	})
	r.stats.Fragments[batch.PassOpaque] = sum(frags)
	r.stats.Discarded += sum(discards)
}

// accumulate adds transparent fragments in front of the opaque depth into
// the OIT targets.
func (r *Renderer) accumulate(frame *scene.Frame, tris []drawTri) {
	frags := make([]int, (r.height+bandHeight-1)/bandHeight)
	discards := make([]int, len(frags))
	r.bands(func(y0, y1 int) {
		band := y0 / bandHeight
		for i := range tris {
			t := &tris[i]
			for _, s := range t.setups {
				s.raster(y0, y1, func(f *fragment) {
					idx := f.y*r.width + f.x
					if f.depth > r.depth[idx] {
						return
					}
					c, ok := r.shadeFragment(frame, t, f)
					if !ok {
						discards[band]++
						return
					}
					frags[band]++
					r.accum[idx].Add(c, frame.Camera.ViewDepth(f.v.world))
				})
			}
		}
	})
	r.stats.Fragments[batch.PassTransparent] = sum(frags)
	r.stats.Discarded += sum(discards)
}

// resolve composites the accumulated transparency over the opaque color.
func (r *Renderer) resolve() {
	r.bands(func(y0, y1 int) {
		for i := y0 * r.width; i < y1*r.width; i++ {
			r.color[i] = r.accum[i].Composite(r.color[i])
		}
	})
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}
