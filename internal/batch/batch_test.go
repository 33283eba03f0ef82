// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/brushview/internal/parallel"
	"github.com/gogpu/brushview/internal/wire"
	"github.com/gogpu/brushview/scene"
)

func tri(layer, entity uint32, s scene.Surface) []scene.Vertex {
	vs := make([]scene.Vertex, 3)
	for i := range vs {
		vs[i] = scene.Vertex{
			Position: mgl32.Vec3{float32(i), float32(layer), 0},
			Layer:    layer,
			Entity:   entity,
			Surface:  s,
		}
	}
	return vs
}

func testFrame() *scene.Frame {
	transforms := scene.NewTransforms(0)
	transforms.Append(mgl32.Ident4())
	transforms.Append(mgl32.Translate3D(1, 0, 0))

	wall := scene.BrushSurface{RenderMode: scene.RenderNormal, RenderAmt: 1}
	sky := scene.BrushSurface{RenderMode: scene.RenderNormal, Flags: scene.BrushSky, RenderAmt: 1}
	glass := scene.BrushSurface{RenderMode: scene.RenderTexture, RenderAmt: 0.5}
	sprite := scene.SpriteSurface{RenderMode: scene.RenderAdditive, FrameCount: 1}

	var a, b []scene.Vertex
	a = append(a, tri(3, 0, wall)...)
	a = append(a, tri(1, 0, wall)...)
	a = append(a, tri(0, 0, sky)...)
	a = append(a, tri(2, 1, glass)...)
	b = append(b, tri(1, 1, scene.ModelSurface{Flags: scene.ModelAdditive})...)
	b = append(b, tri(5, 9, sprite)...)
	b = append(b, b[0]) // trailing partial triangle

	return &scene.Frame{
		Transforms: transforms,
		Meshes:     []scene.Mesh{{Vertices: a}, {Vertices: b}},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		s    scene.Surface
		want Pass
	}{
		{"sky", scene.BrushSurface{Flags: scene.BrushSky}, PassSky},
		{"sky flag in texture mode", scene.BrushSurface{RenderMode: scene.RenderTexture, Flags: scene.BrushSky}, PassTransparent},
		{"normal brush", scene.BrushSurface{}, PassOpaque},
		{"solid brush", scene.BrushSurface{RenderMode: scene.RenderSolid}, PassOpaque},
		{"additive brush", scene.BrushSurface{RenderMode: scene.RenderAdditive}, PassTransparent},
		{"glow brush", scene.BrushSurface{RenderMode: scene.RenderGlow}, PassTransparent},
		{"model", scene.ModelSurface{}, PassOpaque},
		{"additive model", scene.ModelSurface{Flags: scene.ModelAdditive}, PassOpaque},
		{"sprite", scene.SpriteSurface{}, PassTransparent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.s); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildGroupsByPassAndLayer(t *testing.T) {
	res := NewBuilder(nil).Build(testFrame(), 4)

	if got := len(res.Triangles[PassSky]); got != 1 {
		t.Errorf("sky triangles = %d, want 1", got)
	}
	if got := len(res.Triangles[PassOpaque]); got != 3 {
		t.Errorf("opaque triangles = %d, want 3", got)
	}
	if got := len(res.Triangles[PassTransparent]); got != 2 {
		t.Errorf("transparent triangles = %d, want 2", got)
	}

	var first uint32
	var prevPass Pass
	for i, b := range res.Batches {
		if b.First != first {
			t.Errorf("batch %d First = %d, want %d", i, b.First, first)
		}
		if b.Pass < prevPass {
			t.Errorf("batch %d pass %v after %v", i, b.Pass, prevPass)
		}
		first += b.Count
		prevPass = b.Pass
	}
	if int(first) != res.Vertices() {
		t.Errorf("batches cover %d vertices, want %d", first, res.Vertices())
	}

	opaque := res.PassBatches(PassOpaque)
	wantLayers := []uint32{1, 3}
	if len(opaque) != len(wantLayers) {
		t.Fatalf("opaque batches = %+v", opaque)
	}
	for i, b := range opaque {
		if b.Layer != wantLayers[i] {
			t.Errorf("opaque batch %d layer = %d, want %d", i, b.Layer, wantLayers[i])
		}
	}
	if opaque[0].Count != 6 {
		t.Errorf("layer 1 batch has %d vertices, want 6", opaque[0].Count)
	}
}

func TestBuildClampsIndices(t *testing.T) {
	res := NewBuilder(nil).Build(testFrame(), 4)
	if res.ClampedEntities != 3 {
		t.Errorf("ClampedEntities = %d, want 3", res.ClampedEntities)
	}
	if res.ClampedLayers != 3 {
		t.Errorf("ClampedLayers = %d, want 3", res.ClampedLayers)
	}
	for _, tri := range res.Triangles[PassTransparent] {
		for _, v := range tri {
			if v.Entity > 1 || v.Layer > 3 {
				t.Errorf("unclamped vertex %+v", v)
			}
		}
	}
}

func TestClampCountsVertices(t *testing.T) {
	transforms := scene.NewTransforms(0)
	transforms.Append(mgl32.Ident4())

	vs := tri(0, 0, scene.ModelSurface{})
	vs[1].Entity = 4
	vs[2].Layer = 7
	frame := &scene.Frame{Transforms: transforms, Meshes: []scene.Mesh{{Vertices: vs}}}

	res := NewBuilder(nil).Build(frame, 2)
	if res.ClampedEntities != 1 || res.ClampedLayers != 1 {
		t.Errorf("clamped entities/layers = %d/%d, want 1/1", res.ClampedEntities, res.ClampedLayers)
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	pool := parallel.NewWorkerPool(4)
	defer pool.Close()

	frame := testFrame()
	serial := NewBuilder(nil)
	par := NewBuilder(pool)

	want := serial.Pack(serial.Build(frame, 4))
	for range 10 {
		got := par.Pack(par.Build(frame, 4))
		if !bytes.Equal(got, want) {
			t.Fatal("parallel pack differs from serial pack")
		}
	}
}

func TestPackOrder(t *testing.T) {
	b := NewBuilder(nil)
	res := b.Build(testFrame(), 0)
	buf := b.Pack(res)
	if len(buf) != res.Vertices()*wire.VertexStride {
		t.Fatalf("len = %d", len(buf))
	}
	for _, bt := range res.Batches {
		v := wire.ReadVertex(buf[int(bt.First)*wire.VertexStride:])
		if v.Layer != bt.Layer {
			t.Errorf("batch %v/%d starts with layer %d", bt.Pass, bt.Layer, v.Layer)
		}
		if Classify(v.Surface) != bt.Pass {
			t.Errorf("batch %v starts with %v surface", bt.Pass, Classify(v.Surface))
		}
	}
}

func TestPackReusesReleasedBuffer(t *testing.T) {
	b := NewBuilder(nil)
	res := b.Build(testFrame(), 0)
	want := bytes.Clone(b.Pack(res))

	dirty := b.buffers.Get(len(want))
	for i := range dirty {
		dirty[i] = 0xAA
	}
	b.Release(dirty)

	got := b.Pack(res)
	defer b.Release(got)
	if !bytes.Equal(got, want) {
		t.Fatal("pack into a recycled buffer left stale bytes")
	}
}
