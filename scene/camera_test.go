// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraBasis(t *testing.T) {
	// Looking along +X with Z up.
	cam := LookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{10, 0, 0}, mgl32.Vec3{0, 0, 1}, 90, 1, 1, 100)

	r, u := cam.Right(), cam.Up()
	if d := r.Dot(u); math.Abs(float64(d)) > 1e-6 {
		t.Errorf("right.up = %v, want 0", d)
	}
	if l := r.Len(); math.Abs(float64(l-1)) > 1e-6 {
		t.Errorf("|right| = %v, want 1", l)
	}
	if !u.ApproxEqual(mgl32.Vec3{0, 0, 1}) {
		t.Errorf("up = %v, want +Z", u)
	}
	if d := r.Dot(mgl32.Vec3{1, 0, 0}); math.Abs(float64(d)) > 1e-6 {
		t.Errorf("right %v not perpendicular to forward", r)
	}
}

func TestCameraViewDepth(t *testing.T) {
	cam := LookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, 60, 1, 1, 100)

	tests := []struct {
		name  string
		point mgl32.Vec3
		want  float32
	}{
		{"in front", mgl32.Vec3{0, 25, 0}, 25},
		{"offset sideways", mgl32.Vec3{7, 10, 3}, 10},
		{"behind", mgl32.Vec3{0, -5, 0}, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cam.ViewDepth(tt.point)
			if math.Abs(float64(got-tt.want)) > 1e-4 {
				t.Errorf("ViewDepth(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}
