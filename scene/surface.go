// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "github.com/go-gl/mathgl/mgl32"

// SurfaceType tags which shading branch a vertex belongs to. The numeric
// values are part of the GPU wire format.
type SurfaceType uint32

const (
	SurfaceBrush  SurfaceType = 0
	SurfaceModel  SurfaceType = 1
	SurfaceSprite SurfaceType = 2
)

// String returns the surface type name.
func (s SurfaceType) String() string {
	switch s {
	case SurfaceBrush:
		return "brush"
	case SurfaceModel:
		return "model"
	case SurfaceSprite:
		return "sprite"
	default:
		return "unknown"
	}
}

// RenderMode is the legacy per-entity transparency mode.
type RenderMode uint32

const (
	RenderNormal RenderMode = iota
	RenderColor
	RenderTexture
	RenderGlow
	RenderSolid
	RenderAdditive
)

// Lit reports whether surfaces in this mode receive lightmap lighting.
func (m RenderMode) Lit() bool {
	return m == RenderNormal || m == RenderSolid
}

// BrushFlags are per-face flags of world-brush surfaces.
type BrushFlags uint32

const (
	// BrushNoDraw marks tool faces that are hidden unless FlagShowNoDraw
	// is set for the frame.
	BrushNoDraw BrushFlags = 1 << iota
	// BrushSky marks faces that show the skybox.
	BrushSky
)

// ModelFlags are per-texture flags of model surfaces.
type ModelFlags uint32

const (
	// ModelFlatShade disables the directional fake-light term.
	ModelFlatShade ModelFlags = 1 << iota
	// ModelMasked enables the mip-aware alpha test.
	ModelMasked
	// ModelAdditive is recognized but currently has no shading effect.
	ModelAdditive
)

// Orientation selects how a sprite quad is aligned to the camera.
type Orientation uint32

const (
	OrientParallelUpright Orientation = iota
	// OrientFacingUpright has no implemented behavior and renders as
	// OrientOriented.
	OrientFacingUpright
	OrientParallel
	OrientOriented
	OrientParallelOriented
)

// Surface describes how a vertex is shaded. It is a closed sum type:
// the only implementations are BrushSurface, ModelSurface and SpriteSurface.
type Surface interface {
	Type() SurfaceType
	sealed()
}

// BrushSurface is world geometry decoded from the map.
type BrushSurface struct {
	RenderMode RenderMode
	Flags      BrushFlags
	// LightmapUV addresses the shared lightmap texture.
	LightmapUV mgl32.Vec2
	// RenderAmt is the legacy opacity scalar in [0,1].
	RenderAmt float32
}

// ModelSurface is a rigid posed triangle mesh.
type ModelSurface struct {
	Flags ModelFlags
}

// SpriteSurface is a camera-oriented quad animated through a contiguous run
// of texture-array layers starting at the vertex layer.
type SpriteSurface struct {
	RenderMode  RenderMode
	FrameRate   float32
	FrameCount  uint32
	Orientation Orientation
}

func (BrushSurface) Type() SurfaceType  { return SurfaceBrush }
func (ModelSurface) Type() SurfaceType  { return SurfaceModel }
func (SpriteSurface) Type() SurfaceType { return SurfaceSprite }

func (BrushSurface) sealed()  {}
func (ModelSurface) sealed()  {}
func (SpriteSurface) sealed() {}

// IsSky reports whether the face is drawn by the skybox mask instead of the
// regular passes.
func (s BrushSurface) IsSky() bool {
	return s.RenderMode == RenderNormal && s.Flags&BrushSky != 0
}

// IsNoDraw reports whether the face is a hidden tool face.
func (s BrushSurface) IsNoDraw() bool {
	return s.Flags&BrushNoDraw != 0
}
