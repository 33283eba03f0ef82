// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package batch turns a frame's meshes into per-pass draw batches.
//
// Triangles are classified into the sky, opaque and transparent passes,
// grouped by albedo layer and packed into one vertex buffer per frame. The
// work runs on a parallel.WorkerPool; every work item reads shared frame
// state and writes only its own output slot.
package batch

import (
	"sort"

	"github.com/gogpu/brushview/internal/parallel"
	"github.com/gogpu/brushview/internal/wire"
	"github.com/gogpu/brushview/scene"
)

// Pass identifies the render pass a triangle is drawn in.
type Pass uint8

const (
	// PassSky holds sky-flagged brush faces, drawn by the depth/mask prepass.
	PassSky Pass = iota
	// PassOpaque holds surfaces drawn with depth writes and forced alpha.
	PassOpaque
	// PassTransparent holds surfaces accumulated by the OIT pass.
	PassTransparent

	NumPasses
)

// String returns the pass name.
func (p Pass) String() string {
	switch p {
	case PassSky:
		return "sky"
	case PassOpaque:
		return "opaque"
	case PassTransparent:
		return "transparent"
	default:
		return "unknown"
	}
}

// Classify returns the pass a surface belongs to. Brushes in the lit modes
// are opaque, other brush modes are transparent. Models are always opaque:
// masked models rely on the alpha test and the additive flag has no effect.
// Sprites are always transparent.
func Classify(s scene.Surface) Pass {
	switch s := s.(type) {
	case scene.BrushSurface:
		if s.IsSky() {
			return PassSky
		}
		if s.RenderMode.Lit() {
			return PassOpaque
		}
		return PassTransparent
	case scene.SpriteSurface:
		return PassTransparent
	default:
		return PassOpaque
	}
}

// Triangle is three vertices sharing the surface of the first.
type Triangle [3]scene.Vertex

// Layer returns the albedo layer the triangle is grouped by.
func (t *Triangle) Layer() uint32 { return t[0].Layer }

// Batch is a contiguous vertex range of one pass sharing an albedo layer.
type Batch struct {
	Pass  Pass
	Layer uint32
	// First and Count are in vertices.
	First, Count uint32
}

// Result is the prepared geometry of one frame.
type Result struct {
	// Triangles per pass, sorted by layer. Entity and layer indices are
	// already clamped.
	Triangles [NumPasses][]Triangle
	Batches   []Batch

	// ClampedEntities and ClampedLayers count vertices whose indices were
	// out of range.
	ClampedEntities int
	ClampedLayers   int
}

// Vertices returns the total vertex count over all passes.
func (r *Result) Vertices() int {
	n := 0
	for _, tris := range r.Triangles {
		n += len(tris) * 3
	}
	return n
}

// PassBatches returns the batches of one pass.
func (r *Result) PassBatches(p Pass) []Batch {
	var out []Batch
	for _, b := range r.Batches {
		if b.Pass == p {
			out = append(out, b)
		}
	}
	return out
}

// Builder prepares frames on a worker pool.
type Builder struct {
	pool    *parallel.WorkerPool
	buffers *BufferPool
}

// NewBuilder returns a builder running on pool. A nil pool runs everything
// on the calling goroutine.
func NewBuilder(pool *parallel.WorkerPool) *Builder {
	return &Builder{pool: pool, buffers: NewBufferPool()}
}

type meshOut struct {
	tris            [NumPasses][]Triangle
	clampedEntities int
	clampedLayers   int
}

// Build classifies and groups every complete triangle of frame. layers is
// the number of bound albedo layers; zero disables layer clamping.
func (b *Builder) Build(frame *scene.Frame, layers uint32) *Result {
	outs := make([]meshOut, len(frame.Meshes))
	b.forEach(len(frame.Meshes), func(i int) {
		outs[i] = classifyMesh(&frame.Meshes[i], frame.Transforms, layers)
	})

	res := &Result{}
	for i := range outs {
		for p := range res.Triangles {
			res.Triangles[p] = append(res.Triangles[p], outs[i].tris[p]...)
		}
		res.ClampedEntities += outs[i].clampedEntities
		res.ClampedLayers += outs[i].clampedLayers
	}

	b.forEach(int(NumPasses), func(p int) {
		tris := res.Triangles[p]
		sort.SliceStable(tris, func(i, j int) bool { return tris[i].Layer() < tris[j].Layer() })
	})

	var first uint32
	for p, tris := range res.Triangles {
		for i := 0; i < len(tris); {
			j := i
			for j < len(tris) && tris[j].Layer() == tris[i].Layer() {
				j++
			}
			count := uint32(j-i) * 3
			res.Batches = append(res.Batches, Batch{
				Pass:  Pass(p),
				Layer: tris[i].Layer(),
				First: first,
				Count: count,
			})
			first += count
			i = j
		}
	}
	return res
}

// Pack encodes the result into a single vertex buffer laid out in batch
// order. Batches are encoded in parallel into disjoint ranges. The buffer
// comes from the builder's pool; pass it to Release once uploaded.
func (b *Builder) Pack(r *Result) []byte {
	buf := b.buffers.Get(r.Vertices() * wire.VertexStride)
	offsets := [NumPasses]int{}
	off := 0
	for p, tris := range r.Triangles {
		offsets[p] = off
		off += len(tris) * 3 * wire.VertexStride
	}
	b.forEach(len(r.Batches), func(i int) {
		bt := r.Batches[i]
		tris := r.Triangles[bt.Pass]
		base := int(bt.First) * wire.VertexStride
		start := (base - offsets[bt.Pass]) / (3 * wire.VertexStride)
		for t := 0; t < int(bt.Count)/3; t++ {
			for k := 0; k < 3; k++ {
				wire.PutVertex(buf[base+(t*3+k)*wire.VertexStride:], &tris[start+t][k])
			}
		}
	})
	return buf
}

// Release returns a buffer obtained from Pack for reuse.
func (b *Builder) Release(buf []byte) {
	b.buffers.Put(buf)
}

func (b *Builder) forEach(n int, fn func(i int)) {
	if b.pool == nil {
		for i := range n {
			fn(i)
		}
		return
	}
	b.pool.ForEach(n, fn)
}

func classifyMesh(m *scene.Mesh, transforms *scene.Transforms, layers uint32) meshOut {
	var out meshOut
	entities := transforms.Len()
	for t := 0; t < m.Triangles(); t++ {
		var tri Triangle
		copy(tri[:], m.Vertices[t*3:t*3+3])
		if tri[0].Surface == nil {
			continue
		}
		for k := range tri {
			v := &tri[k]
			if entities > 0 && int(v.Entity) >= entities {
				v.Entity = uint32(entities - 1)
				out.clampedEntities++
			} else if entities == 0 && v.Entity != 0 {
				v.Entity = 0
				out.clampedEntities++
			}
			if layers > 0 && v.Layer >= layers {
				v.Layer = layers - 1
				out.clampedLayers++
			}
			v.Surface = tri[0].Surface
		}
		p := Classify(tri[0].Surface)
		out.tris[p] = append(out.tris[p], tri)
	}
	return out
}
