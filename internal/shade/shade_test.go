// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shade

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/brushview/scene"
)

const eps = 1e-5

func near(a, b float32) bool { return math.Abs(float64(a-b)) <= eps }

func nearVec4(a, b mgl32.Vec4) bool {
	for i := range a {
		if !near(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestBrushNoDraw(t *testing.T) {
	in := Input{
		Albedo:   mgl32.Vec4{1, 1, 1, 1},
		Lightmap: mgl32.Vec3{1, 1, 1},
		Surface:  scene.BrushSurface{Flags: scene.BrushNoDraw, RenderAmt: 1},
	}
	if _, ok := Evaluate(in); ok {
		t.Error("nodraw face survived without FlagShowNoDraw")
	}

	in.Flags = scene.FlagShowNoDraw
	if _, ok := Evaluate(in); !ok {
		t.Error("nodraw face dropped with FlagShowNoDraw")
	}
}

func TestBrushLitAndUnlit(t *testing.T) {
	albedo := mgl32.Vec4{0.5, 0.25, 1, 1}
	lm := mgl32.Vec3{0.75, 0.75, 0.75}

	lit, ok := Evaluate(Input{
		Albedo:   albedo,
		Lightmap: lm,
		Surface:  scene.BrushSurface{RenderMode: scene.RenderNormal, RenderAmt: 1},
	})
	if !ok {
		t.Fatal("lit brush dropped")
	}
	for i := 0; i < 3; i++ {
		want := float32(math.Pow(float64(albedo[i]*2*lm[i]*(128.0/192.0)), 1/1.6))
		if !near(lit[i], want) {
			t.Errorf("lit[%d] = %v, want %v", i, lit[i], want)
		}
	}
	if lit[3] != 1 {
		t.Errorf("lit alpha = %v, want 1", lit[3])
	}

	// Texture mode is flat: lightmap ignored, only premultiply and overbright.
	flat, ok := Evaluate(Input{
		Albedo:   albedo,
		Lightmap: mgl32.Vec3{0, 0, 0},
		Surface:  scene.BrushSurface{RenderMode: scene.RenderTexture, RenderAmt: 0.5},
	})
	if !ok {
		t.Fatal("texture-mode brush dropped")
	}
	want := mgl32.Vec4{0.5 * 0.5 * 2, 0.25 * 0.5 * 2, 1 * 0.5 * 2, 0.5}
	if !nearVec4(flat, want) {
		t.Errorf("flat = %v, want %v", flat, want)
	}
}

func TestBrushRenderAmtCapsAlpha(t *testing.T) {
	out, ok := Evaluate(Input{
		Albedo:  mgl32.Vec4{1, 1, 1, 0.3},
		Surface: scene.BrushSurface{RenderMode: scene.RenderAdditive, RenderAmt: 0.8},
	})
	if !ok {
		t.Fatal("dropped")
	}
	if !near(out[3], 0.3) {
		t.Errorf("alpha = %v, want min(0.3, 0.8)", out[3])
	}
}

func TestSolidAlphaTestScenario(t *testing.T) {
	in := Input{
		Albedo:   mgl32.Vec4{1, 1, 1, 0.5},
		Lightmap: mgl32.Vec3{1, 1, 1},
		Surface:  scene.BrushSurface{RenderMode: scene.RenderSolid, RenderAmt: 1},
	}

	in.Mip = 0
	if _, ok := Evaluate(in); ok {
		t.Error("alpha 0.5 passed the 0.95 threshold at mip 0")
	}

	// Mip at which the adjusted threshold is 0.4.
	in.Mip = float32(2 * math.Log2(0.95/0.4))
	if th := Threshold(in.Mip); !near(th, 0.4) {
		t.Fatalf("Threshold(%v) = %v, want 0.4", in.Mip, th)
	}
	out, ok := Evaluate(in)
	if !ok {
		t.Fatal("alpha 0.5 failed at threshold 0.4")
	}

	base := float32(math.Pow(0.5*2*(128.0/192.0), 1/1.6))
	if want := base * (1 + 0.5*in.Mip); !near(out[0], want) {
		t.Errorf("boosted red = %v, want %v", out[0], want)
	}
}

func TestThresholdMonotonic(t *testing.T) {
	prev := Threshold(-1)
	if prev != AlphaThreshold {
		t.Errorf("Threshold(-1) = %v, want clamp to %v", prev, AlphaThreshold)
	}
	for mip := float32(0); mip <= 12; mip += 0.125 {
		th := Threshold(mip)
		if th > prev {
			t.Fatalf("Threshold(%v) = %v > previous %v", mip, th, prev)
		}
		prev = th
	}
}

func TestFullBrightOnlyForSurvivors(t *testing.T) {
	albedo := mgl32.Vec4{0.2, 0.4, 0.6, 0.5}
	tests := []struct {
		name    string
		surface scene.Surface
		flags   scene.RenderFlags
		mip     float32
		want    bool
	}{
		{"nodraw stays dropped", scene.BrushSurface{Flags: scene.BrushNoDraw, RenderAmt: 1}, scene.FlagFullBright, 0, false},
		{"alpha test stays dropped", scene.BrushSurface{RenderMode: scene.RenderSolid, RenderAmt: 1}, scene.FlagFullBright, 0, false},
		{"masked model stays dropped", scene.ModelSurface{Flags: scene.ModelMasked}, scene.FlagFullBright, 0, false},
		{"brush survivor", scene.BrushSurface{RenderAmt: 1}, scene.FlagFullBright, 0, true},
		{"model survivor", scene.ModelSurface{}, scene.FlagFullBright, 0, true},
		{"sprite survivor", scene.SpriteSurface{}, scene.FlagFullBright, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := Evaluate(Input{
				Albedo:   albedo,
				Lightmap: mgl32.Vec3{1, 1, 1},
				Normal:   mgl32.Vec3{0, 0, 1},
				Mip:      tt.mip,
				Flags:    tt.flags,
				Surface:  tt.surface,
			})
			if ok != tt.want {
				t.Fatalf("survived = %v, want %v", ok, tt.want)
			}
			if ok && out != albedo {
				t.Errorf("full-bright output = %v, want raw %v", out, albedo)
			}
		})
	}
}

func TestModelShading(t *testing.T) {
	albedo := mgl32.Vec4{1, 0.5, 0.25, 1}

	down, _ := Evaluate(Input{Albedo: albedo, Normal: mgl32.Vec3{0, 0, -1}, Surface: scene.ModelSurface{}})
	if down.Vec3() != (mgl32.Vec3{}) {
		t.Errorf("downward normal = %v, want black", down)
	}

	side, _ := Evaluate(Input{Albedo: albedo, Normal: mgl32.Vec3{1, 0, 0}, Surface: scene.ModelSurface{}})
	if !near(side[0], 0.5) {
		t.Errorf("side red = %v, want 0.5", side[0])
	}

	flat, _ := Evaluate(Input{Albedo: albedo, Normal: mgl32.Vec3{0, 0, -1}, Surface: scene.ModelSurface{Flags: scene.ModelFlatShade}})
	if flat != albedo {
		t.Errorf("flat-shaded = %v, want %v", flat, albedo)
	}

	add, _ := Evaluate(Input{Albedo: albedo, Normal: mgl32.Vec3{0, 0, 1}, Surface: scene.ModelSurface{Flags: scene.ModelAdditive}})
	plain, _ := Evaluate(Input{Albedo: albedo, Normal: mgl32.Vec3{0, 0, 1}, Surface: scene.ModelSurface{}})
	if add != plain {
		t.Errorf("additive flag changed output: %v vs %v", add, plain)
	}
}

func TestUnknownSurfaceDropped(t *testing.T) {
	if _, ok := Evaluate(Input{Albedo: mgl32.Vec4{1, 1, 1, 1}}); ok {
		t.Error("fragment without surface survived")
	}
}

func TestMipLevel(t *testing.T) {
	size := mgl32.Vec2{256, 256}
	tests := []struct {
		name   string
		dx, dy mgl32.Vec2
		want   float32
	}{
		{"magnified", mgl32.Vec2{0.5 / 256, 0}, mgl32.Vec2{0, 0.5 / 256}, 0},
		{"one texel per pixel", mgl32.Vec2{1.0 / 256, 0}, mgl32.Vec2{0, 1.0 / 256}, 0},
		{"four texels", mgl32.Vec2{4.0 / 256, 0}, mgl32.Vec2{0, 1.0 / 256}, 2},
		{"clamped", mgl32.Vec2{1e6, 0}, mgl32.Vec2{}, MaxMip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MipLevel(tt.dx, tt.dy, size); !near(got, tt.want) {
				t.Errorf("MipLevel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpriteLayer(t *testing.T) {
	tests := []struct {
		base  uint32
		time  float64
		rate  float32
		count uint32
		want  uint32
	}{
		{10, 0, 10, 4, 10},
		{10, 0.25, 10, 4, 12},
		{10, 0.45, 10, 4, 10},
		{10, 1.0, 10, 4, 12},
		{3, 5, 0, 8, 3},
		{3, 5, 10, 1, 3},
	}
	for _, tt := range tests {
		if got := SpriteLayer(tt.base, tt.time, tt.rate, tt.count); got != tt.want {
			t.Errorf("SpriteLayer(%d, %v, %v, %d) = %d, want %d", tt.base, tt.time, tt.rate, tt.count, got, tt.want)
		}
	}
	if got := ClampLayer(99, 8); got != 7 {
		t.Errorf("ClampLayer(99, 8) = %d, want 7", got)
	}
}
