// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTransformsGrowPastLegacyCapacity(t *testing.T) {
	tr := NewTransforms(0)
	if cap(tr.Matrices()) != DefaultEntityCapacity {
		t.Fatalf("initial capacity = %d, want %d", cap(tr.Matrices()), DefaultEntityCapacity)
	}

	m := mgl32.Translate3D(1, 2, 3)
	tr.Set(DefaultEntityCapacity+10, m)

	if tr.Len() != DefaultEntityCapacity+11 {
		t.Errorf("Len = %d, want %d", tr.Len(), DefaultEntityCapacity+11)
	}
	if got := tr.At(DefaultEntityCapacity + 10); got != m {
		t.Errorf("At(last) = %v, want %v", got, m)
	}
	if got := tr.At(5); got != mgl32.Ident4() {
		t.Errorf("gap entry = %v, want identity", got)
	}
}

func TestTransformsClamp(t *testing.T) {
	tr := NewTransforms(4)
	a := tr.Append(mgl32.Translate3D(1, 0, 0))
	b := tr.Append(mgl32.Translate3D(2, 0, 0))

	tests := []struct {
		in, want int
	}{
		{-3, 0},
		{a, a},
		{b, b},
		{99, b},
	}
	for _, tt := range tests {
		if got := tr.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := tr.At(99); got != tr.At(b) {
		t.Errorf("At(99) = %v, want last entry", got)
	}
}

func TestTransformsEmpty(t *testing.T) {
	var tr *Transforms
	if got := tr.At(3); got != mgl32.Ident4() {
		t.Errorf("nil At = %v, want identity", got)
	}
	if tr.Len() != 0 {
		t.Errorf("nil Len = %d, want 0", tr.Len())
	}

	tr = NewTransforms(2)
	tr.Set(-1, mgl32.Translate3D(1, 1, 1))
	if tr.Len() != 0 {
		t.Errorf("Set(-1) grew the store to %d", tr.Len())
	}
}

func TestSurfaceTags(t *testing.T) {
	tests := []struct {
		s    Surface
		want SurfaceType
	}{
		{BrushSurface{}, SurfaceBrush},
		{ModelSurface{}, SurfaceModel},
		{SpriteSurface{}, SurfaceSprite},
	}
	for _, tt := range tests {
		if got := tt.s.Type(); got != tt.want {
			t.Errorf("%T.Type() = %v, want %v", tt.s, got, tt.want)
		}
	}

	sky := BrushSurface{RenderMode: RenderNormal, Flags: BrushSky}
	if !sky.IsSky() {
		t.Error("normal+sky brush not detected as sky")
	}
	sky.RenderMode = RenderTexture
	if sky.IsSky() {
		t.Error("texture-mode brush with sky flag must not be sky")
	}
}
