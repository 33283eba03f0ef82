// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wire

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/brushview/scene"
)

func TestVertexLayoutOffsets(t *testing.T) {
	v := scene.Vertex{
		Position: mgl32.Vec3{1, 2, 3},
		TexCoord: mgl32.Vec2{0.25, 0.75},
		Normal:   mgl32.Vec3{0, 0, 1},
		Layer:    7,
		Entity:   42,
		Surface: scene.SpriteSurface{
			RenderMode:  scene.RenderAdditive,
			FrameRate:   10,
			FrameCount:  6,
			Orientation: scene.OrientParallelOriented,
		},
	}
	buf := make([]byte, VertexStride)
	PutVertex(buf, &v)

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	u := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }

	if f(0) != 1 || f(4) != 2 || f(8) != 3 {
		t.Errorf("position = %v %v %v", f(0), f(4), f(8))
	}
	if f(12) != 0.25 || f(16) != 0.75 {
		t.Errorf("texcoord = %v %v", f(12), f(16))
	}
	if f(28) != 1 {
		t.Errorf("normal.z = %v", f(28))
	}
	if u(32) != 7 {
		t.Errorf("layer = %d", u(32))
	}
	if u(36) != uint32(scene.SurfaceSprite) {
		t.Errorf("surface = %d", u(36))
	}
	if f(40) != 10 {
		t.Errorf("aux_a.x (frame rate) = %v", f(40))
	}
	if u(52) != uint32(scene.RenderAdditive) {
		t.Errorf("aux_b.x (mode) = %d", u(52))
	}
	if u(56) != 42 {
		t.Errorf("aux_b.y (entity) = %d", u(56))
	}
	if want := uint32(6)<<16 | uint32(scene.OrientParallelOriented); u(60) != want {
		t.Errorf("aux_b.z = %#x, want %#x", u(60), want)
	}
}

func TestVertexRoundTripPerSurface(t *testing.T) {
	surfaces := []scene.Surface{
		scene.BrushSurface{
			RenderMode: scene.RenderSolid,
			Flags:      scene.BrushSky | scene.BrushNoDraw,
			LightmapUV: mgl32.Vec2{0.5, 0.125},
			RenderAmt:  0.6,
		},
		scene.ModelSurface{Flags: scene.ModelMasked | scene.ModelFlatShade},
		scene.SpriteSurface{RenderMode: scene.RenderGlow, FrameRate: 15, FrameCount: 9, Orientation: scene.OrientParallel},
	}
	for _, s := range surfaces {
		t.Run(s.Type().String(), func(t *testing.T) {
			in := scene.Vertex{Position: mgl32.Vec3{4, 5, 6}, Layer: 3, Entity: 1500, Surface: s}
			buf := AppendVertices(nil, []scene.Vertex{in})
			if len(buf) != VertexStride {
				t.Fatalf("len = %d, want %d", len(buf), VertexStride)
			}
			out := ReadVertex(buf)
			if out != in {
				t.Errorf("round trip = %+v, want %+v", out, in)
			}
		})
	}
}

func TestFrameCountSaturates(t *testing.T) {
	aux := PackAux(scene.SpriteSurface{FrameCount: 1 << 20, Orientation: scene.OrientOriented}, 0)
	s, _ := UnpackAux(scene.SurfaceSprite, aux)
	sp := s.(scene.SpriteSurface)
	if sp.FrameCount != frameCountMask || sp.Orientation != scene.OrientOriented {
		t.Errorf("unpacked = %+v", sp)
	}
	if want := uint32(frameCountMask)<<16 | uint32(scene.OrientOriented); aux.B[2] != want {
		t.Errorf("aux_b.z = %#x, want %#x", aux.B[2], want)
	}
}

func TestFrameUniforms(t *testing.T) {
	u := FrameUniforms{
		View:       mgl32.Translate3D(1, 2, 3),
		Projection: mgl32.Ident4(),
		Camera:     mgl32.Vec3{-1, -2, -3},
		Flags:      scene.FlagFullBright,
		Time:       12.5,
		Layers:     16,
		Entities:   2000,
		AlbedoSize: mgl32.Vec2{256, 128},
	}
	buf := u.Bytes()
	if len(buf) != FrameUniformSize {
		t.Fatalf("len = %d, want %d", len(buf), FrameUniformSize)
	}
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	// Column-major translation lives in elements 12..14.
	if f(offView+48) != 1 || f(offView+52) != 2 || f(offView+56) != 3 {
		t.Error("view translation not column-major")
	}
	if f(offCamera+8) != -3 {
		t.Errorf("camera.z = %v", f(offCamera+8))
	}
	if got := binary.LittleEndian.Uint32(buf[offFlags:]); got != uint32(scene.FlagFullBright) {
		t.Errorf("flags = %d", got)
	}
	if f(offTime) != 12.5 || f(offAlbedoSize) != 256 || f(offAlbedoSize+4) != 128 {
		t.Error("scalar fields misplaced")
	}
	if got := binary.LittleEndian.Uint32(buf[offEntities:]); got != 2000 {
		t.Errorf("entities = %d", got)
	}
}

func TestMatrices(t *testing.T) {
	if got := len(Matrices(nil)); got != MatrixSize {
		t.Errorf("empty store packs %d bytes, want one identity", got)
	}
	ms := []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(9, 8, 7)}
	buf := Matrices(ms)
	if len(buf) != 2*MatrixSize {
		t.Fatalf("len = %d", len(buf))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[MatrixSize+48:])); got != 9 {
		t.Errorf("second matrix translation.x = %v", got)
	}
}
