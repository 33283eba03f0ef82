// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "github.com/go-gl/mathgl/mgl32"

// RenderFlags is the per-frame global flag set. The low two bits are read
// by the shaders; the others toggle whole passes.
type RenderFlags uint32

const (
	// FlagShowNoDraw makes nodraw tool faces visible.
	FlagShowNoDraw RenderFlags = 1 << 0
	// FlagFullBright replaces the shaded color of every surviving fragment
	// with its raw texture color.
	FlagFullBright RenderFlags = 1 << 1
	// FlagHideSkybox skips the sky mask and the skybox draw. Sky faces are
	// then not drawn at all.
	FlagHideSkybox RenderFlags = 1 << 2
	// FlagHideTransparent skips transparency accumulation and resolve.
	FlagHideTransparent RenderFlags = 1 << 3
	// FlagBeyondSky keeps sky faces out of the depth buffer, so geometry
	// behind them is drawn over the skybox.
	FlagBeyondSky RenderFlags = 1 << 4
)

// Has reports whether all bits of f are set.
func (r RenderFlags) Has(f RenderFlags) bool { return r&f == f }

// Vertex is one corner of a triangle. Position is in entity-local space; for
// sprites only X and Y are used, as the quad extent.
type Vertex struct {
	Position mgl32.Vec3
	TexCoord mgl32.Vec2
	Normal   mgl32.Vec3
	// Layer is the albedo texture-array layer. Sprites use it as the first
	// frame of their animation run.
	Layer uint32
	// Entity indexes Frame.Transforms.
	Entity  uint32
	Surface Surface
}

// Mesh is a triangle list. len(Vertices) should be a multiple of 3; a
// trailing partial triangle is ignored.
type Mesh struct {
	Vertices []Vertex
}

// Triangles returns the number of complete triangles in the mesh.
func (m *Mesh) Triangles() int {
	return len(m.Vertices) / 3
}

// Frame is everything the core needs to draw one image.
type Frame struct {
	Camera     Camera
	Transforms *Transforms
	Flags      RenderFlags
	// Time is the elapsed playback time in seconds, used for sprite
	// animation.
	Time   float64
	Meshes []Mesh
}
