// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package billboard resolves sprite vertices into world and clip space.
// vs_main in internal/gpu/shaders/scene.wgsl implements the same rules.
package billboard

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/brushview/scene"
)

// WorldUp is the vertical axis used by upright orientations. Map geometry
// is Z-up, so the local up of an upright sprite is world +Z.
var WorldUp = mgl32.Vec3{0, 0, 1}

// Origin returns the translation of an entity transform.
func Origin(model mgl32.Mat4) mgl32.Vec3 {
	return model.Col(3).Vec3()
}

// Scale returns the uniform scale of an entity transform, taken from the
// length of its first basis column.
func Scale(model mgl32.Mat4) float32 {
	return model.Col(0).Vec3().Len()
}

// Rotation returns the rotation part of model with scale removed.
func Rotation(model mgl32.Mat4) mgl32.Mat3 {
	s := Scale(model)
	if s == 0 {
		return mgl32.Ident3()
	}
	return model.Mat3().Mul(1 / s)
}

// Axes returns the world-space horizontal and vertical axes of a quad for the
// given orientation. OrientParallelUpright keeps the quad vertical along
// WorldUp and turns it only about that axis. ok is false for orientations
// that use the full entity transform instead of a billboard basis.
func Axes(cam scene.Camera, model mgl32.Mat4, mode scene.Orientation) (right, up mgl32.Vec3, ok bool) {
	switch mode {
	case scene.OrientParallelUpright:
		return cam.Right(), WorldUp, true
	case scene.OrientParallel:
		return cam.Right(), cam.Up(), true
	case scene.OrientParallelOriented:
		r := Rotation(model)
		return r.Mul3x1(cam.Right()), r.Mul3x1(cam.Up()), true
	default:
		// OrientOriented, the unimplemented OrientFacingUpright and any
		// unknown value.
		return mgl32.Vec3{}, mgl32.Vec3{}, false
	}
}

// Resolve maps a local sprite vertex to world and clip space. For billboard
// orientations only local X and Y are used, as offsets along the quad axes
// scaled by the entity scale and placed at the entity origin. Other modes
// apply the entity transform unchanged.
func Resolve(local mgl32.Vec3, model mgl32.Mat4, cam scene.Camera, mode scene.Orientation) (world mgl32.Vec3, clip mgl32.Vec4) {
	right, up, ok := Axes(cam, model, mode)
	if ok {
		s := Scale(model)
		world = Origin(model).
			Add(right.Mul(local.X() * s)).
			Add(up.Mul(local.Y() * s))
	} else {
		world = model.Mul4x1(local.Vec4(1)).Vec3()
	}
	return world, cam.ViewProjection().Mul4x1(world.Vec4(1))
}
