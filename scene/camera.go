// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "github.com/go-gl/mathgl/mgl32"

// Camera is the per-frame view state. It is rebuilt every frame by the
// controller and never mutated by the renderer.
type Camera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Position   mgl32.Vec3
}

// NewCamera returns a camera from explicit matrices.
func NewCamera(view, projection mgl32.Mat4, position mgl32.Vec3) Camera {
	return Camera{View: view, Projection: projection, Position: position}
}

// LookAt builds a perspective camera at eye looking toward target.
// fovy is in degrees.
func LookAt(eye, target, up mgl32.Vec3, fovy, aspect, near, far float32) Camera {
	return Camera{
		View:       mgl32.LookAtV(eye, target, up),
		Projection: mgl32.Perspective(mgl32.DegToRad(fovy), aspect, near, far),
		Position:   eye,
	}
}

// Right returns the camera right vector in world space, taken from the
// first row of the view rotation.
func (c Camera) Right() mgl32.Vec3 {
	return c.View.Row(0).Vec3()
}

// Up returns the camera up vector in world space, taken from the second
// row of the view rotation.
func (c Camera) Up() mgl32.Vec3 {
	return c.View.Row(1).Vec3()
}

// ViewProjection returns Projection * View.
func (c Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}

// ViewDepth returns the positive distance of a world-space point along the
// camera's forward axis.
func (c Camera) ViewDepth(world mgl32.Vec3) float32 {
	return -c.View.Mul4x1(world.Vec4(1)).Z()
}
