// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package billboard

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/brushview/scene"
)

const tol = 1e-4

func testCamera() scene.Camera {
	return scene.LookAt(
		mgl32.Vec3{-120, 40, 64},
		mgl32.Vec3{30, -10, 20},
		mgl32.Vec3{0, 0, 1},
		90, 16.0/9.0, 4, 8192,
	)
}

func testModel() mgl32.Mat4 {
	return mgl32.Translate3D(10, 20, 30).
		Mul4(mgl32.HomogRotate3DZ(0.7)).
		Mul4(mgl32.HomogRotate3DX(0.3)).
		Mul4(mgl32.Scale3D(2, 2, 2))
}

var corners = []mgl32.Vec3{{-8, -8, 0}, {8, -8, 0}, {8, 8, 0}, {-8, 8, 0}, {3, -5, 0}}

func TestParallelLiesInCameraPlane(t *testing.T) {
	cam := testCamera()
	model := testModel()
	origin := Origin(model)
	normal := cam.Right().Cross(cam.Up()).Normalize()

	for _, c := range corners {
		world, _ := Resolve(c, model, cam, scene.OrientParallel)
		if d := world.Sub(origin).Dot(normal); d > tol || d < -tol {
			t.Errorf("corner %v: distance from camera plane = %v", c, d)
		}
	}
}

func TestOrientedMatchesRawTransform(t *testing.T) {
	cam := testCamera()
	model := testModel()
	for _, mode := range []scene.Orientation{scene.OrientOriented, scene.OrientFacingUpright, 17} {
		for _, c := range []mgl32.Vec3{{1, 2, 3}, {-8, 8, 0}, {0, 0, 0}} {
			world, clip := Resolve(c, model, cam, mode)
			want := model.Mul4x1(c.Vec4(1))
			if !world.ApproxEqualThreshold(want.Vec3(), tol) {
				t.Errorf("mode %d corner %v: world = %v, want %v", mode, c, world, want.Vec3())
			}
			wantClip := cam.ViewProjection().Mul4x1(want)
			if !clip.ApproxEqualThreshold(wantClip, tol) {
				t.Errorf("mode %d corner %v: clip = %v, want %v", mode, c, clip, wantClip)
			}
		}
	}
}

func TestParallelUprightKeepsVerticalAxis(t *testing.T) {
	cam := testCamera()
	model := mgl32.Translate3D(5, 5, 5)
	bottom, _ := Resolve(mgl32.Vec3{0, -1, 0}, model, cam, scene.OrientParallelUpright)
	top, _ := Resolve(mgl32.Vec3{0, 1, 0}, model, cam, scene.OrientParallelUpright)
	dir := top.Sub(bottom)
	if !dir.ApproxEqualThreshold(mgl32.Vec3{0, 0, 2}, tol) {
		t.Errorf("vertical span = %v, want along +Z", dir)
	}
}

func TestParallelOrientedRotatesCameraAxes(t *testing.T) {
	cam := testCamera()
	model := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(90)))
	right, up, ok := Axes(cam, model, scene.OrientParallelOriented)
	if !ok {
		t.Fatal("parallel-oriented reported no billboard basis")
	}
	rot := mgl32.Rotate3DZ(mgl32.DegToRad(90))
	if want := rot.Mul3x1(cam.Right()); !right.ApproxEqualThreshold(want, tol) {
		t.Errorf("right = %v, want %v", right, want)
	}
	if want := rot.Mul3x1(cam.Up()); !up.ApproxEqualThreshold(want, tol) {
		t.Errorf("up = %v, want %v", up, want)
	}
}

func TestScaleAndRotation(t *testing.T) {
	model := testModel()
	if s := Scale(model); s < 2-tol || s > 2+tol {
		t.Errorf("Scale = %v, want 2", s)
	}
	r := Rotation(model)
	for i := 0; i < 3; i++ {
		if l := r.Col(i).Len(); l < 1-tol || l > 1+tol {
			t.Errorf("rotation column %d length = %v", i, l)
		}
	}
	if r := Rotation(mgl32.Mat4{}); r != mgl32.Ident3() {
		t.Errorf("degenerate rotation = %v, want identity", r)
	}
}
