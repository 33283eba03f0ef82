// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wire packs scene data into the byte layouts read by the WGSL
// shaders. It is the only place where typed surfaces are bit-packed.
package wire

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/brushview/scene"
)

// VertexStride is the byte stride per vertex. Layout:
//
//	position  (vec3<f32>) = 12 bytes @0   (location 0)
//	texcoord  (vec2<f32>) =  8 bytes @12  (location 1)
//	normal    (vec3<f32>) = 12 bytes @20  (location 2)
//	layer     (u32)       =  4 bytes @32  (location 3)
//	surface   (u32)       =  4 bytes @36  (location 4)
//	aux_a     (vec3<f32>) = 12 bytes @40  (location 5)
//	aux_b     (vec3<u32>) = 12 bytes @52  (location 6)
//
// aux_a holds lightmap uv and renderamt for brushes and the frame rate for
// sprites. aux_b holds the render mode or flags, the entity index, and the
// frame count in the high 16 bits with the orientation below it.
const VertexStride = 64

// Frame uniform layout.
const (
	FrameUniformSize = 176

	offView       = 0
	offProjection = 64
	offCamera     = 128
	offFlags      = 144
	offTime       = 148
	offLayers     = 152
	offEntities   = 156
	offAlbedoSize = 160
)

// MatrixSize is the byte size of one mat4x4<f32>.
const MatrixSize = 64

const frameCountMask = 0xFFFF

// Aux holds the unpacked auxiliary fields of a vertex.
type Aux struct {
	A [3]float32
	B [3]uint32
}

// PackAux encodes a surface and entity index into the auxiliary fields.
func PackAux(s scene.Surface, entity uint32) Aux {
	var aux Aux
	aux.B[1] = entity
	switch s := s.(type) {
	case scene.BrushSurface:
		aux.A = [3]float32{s.LightmapUV[0], s.LightmapUV[1], s.RenderAmt}
		aux.B[0] = uint32(s.RenderMode)&0xFF | uint32(s.Flags)<<8
	case scene.ModelSurface:
		aux.B[0] = uint32(s.Flags)
	case scene.SpriteSurface:
		aux.A[0] = s.FrameRate
		aux.B[0] = uint32(s.RenderMode)
		// Frame count in the high half, orientation in the low half.
		aux.B[2] = min(s.FrameCount, frameCountMask)<<16 | uint32(s.Orientation)&0xFFFF
	}
	return aux
}

// UnpackAux decodes the auxiliary fields of a vertex with the given surface
// type. It returns nil for unknown types.
func UnpackAux(t scene.SurfaceType, aux Aux) (s scene.Surface, entity uint32) {
	entity = aux.B[1]
	switch t {
	case scene.SurfaceBrush:
		return scene.BrushSurface{
			RenderMode: scene.RenderMode(aux.B[0] & 0xFF),
			Flags:      scene.BrushFlags(aux.B[0] >> 8),
			LightmapUV: mgl32.Vec2{aux.A[0], aux.A[1]},
			RenderAmt:  aux.A[2],
		}, entity
	case scene.SurfaceModel:
		return scene.ModelSurface{Flags: scene.ModelFlags(aux.B[0])}, entity
	case scene.SurfaceSprite:
		return scene.SpriteSurface{
			RenderMode:  scene.RenderMode(aux.B[0]),
			FrameRate:   aux.A[0],
			FrameCount:  aux.B[2] >> 16,
			Orientation: scene.Orientation(aux.B[2] & 0xFFFF),
		}, entity
	}
	return nil, entity
}

// PutVertex writes v into buf, which must hold at least VertexStride bytes.
func PutVertex(buf []byte, v *scene.Vertex) {
	putVec3(buf[0:], v.Position)
	putF32(buf[12:], v.TexCoord[0])
	putF32(buf[16:], v.TexCoord[1])
	putVec3(buf[20:], v.Normal)
	putU32(buf[32:], v.Layer)

	var t scene.SurfaceType
	if v.Surface != nil {
		t = v.Surface.Type()
	}
	putU32(buf[36:], uint32(t))

	aux := PackAux(v.Surface, v.Entity)
	for i := 0; i < 3; i++ {
		putF32(buf[40+i*4:], aux.A[i])
		putU32(buf[52+i*4:], aux.B[i])
	}
}

// ReadVertex decodes a vertex written by PutVertex.
func ReadVertex(buf []byte) scene.Vertex {
	var aux Aux
	for i := 0; i < 3; i++ {
		aux.A[i] = f32(buf[40+i*4:])
		aux.B[i] = u32(buf[52+i*4:])
	}
	surface, entity := UnpackAux(scene.SurfaceType(u32(buf[36:])), aux)
	return scene.Vertex{
		Position: vec3(buf[0:]),
		TexCoord: mgl32.Vec2{f32(buf[12:]), f32(buf[16:])},
		Normal:   vec3(buf[20:]),
		Layer:    u32(buf[32:]),
		Entity:   entity,
		Surface:  surface,
	}
}

// AppendVertices appends the packed form of vs to dst.
func AppendVertices(dst []byte, vs []scene.Vertex) []byte {
	n := len(dst)
	dst = append(dst, make([]byte, len(vs)*VertexStride)...)
	for i := range vs {
		PutVertex(dst[n+i*VertexStride:], &vs[i])
	}
	return dst
}

// FrameUniforms is the per-frame constant block.
type FrameUniforms struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Camera     mgl32.Vec3
	Flags      scene.RenderFlags
	Time       float32
	Layers     uint32
	Entities   uint32
	AlbedoSize mgl32.Vec2
}

// Bytes returns the uniform-buffer encoding of u.
func (u *FrameUniforms) Bytes() []byte {
	buf := make([]byte, FrameUniformSize)
	putMat4(buf[offView:], u.View)
	putMat4(buf[offProjection:], u.Projection)
	putVec3(buf[offCamera:], u.Camera)
	putU32(buf[offFlags:], uint32(u.Flags))
	putF32(buf[offTime:], u.Time)
	putU32(buf[offLayers:], u.Layers)
	putU32(buf[offEntities:], u.Entities)
	putF32(buf[offAlbedoSize:], u.AlbedoSize[0])
	putF32(buf[offAlbedoSize+4:], u.AlbedoSize[1])
	return buf
}

// Matrices packs model matrices as a tightly packed array of column-major
// mat4x4<f32>. An empty input yields a single identity matrix, since storage
// bindings cannot be zero-sized.
func Matrices(ms []mgl32.Mat4) []byte {
	if len(ms) == 0 {
		ms = []mgl32.Mat4{mgl32.Ident4()}
	}
	buf := make([]byte, len(ms)*MatrixSize)
	for i, m := range ms {
		putMat4(buf[i*MatrixSize:], m)
	}
	return buf
}

func putMat4(buf []byte, m mgl32.Mat4) {
	// mgl32 matrices are column-major like WGSL.
	for i, v := range m {
		putF32(buf[i*4:], v)
	}
}

func putVec3(buf []byte, v mgl32.Vec3) {
	putF32(buf[0:], v[0])
	putF32(buf[4:], v[1])
	putF32(buf[8:], v[2])
}

func putF32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

func putU32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

func vec3(buf []byte) mgl32.Vec3 {
	return mgl32.Vec3{f32(buf[0:]), f32(buf[4:]), f32(buf[8:])}
}

func f32(buf []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf))
}

func u32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}
