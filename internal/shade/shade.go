// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shade is the CPU form of the material shading evaluator. The WGSL
// function shade() in internal/gpu/shaders/scene.wgsl mirrors it line for
// line; both must stay numerically identical.
package shade

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/brushview/scene"
)

// Legacy shading constants.
const (
	// LightmapRemap maps the legacy 0..192 lightmap brightness range.
	LightmapRemap = 128.0 / 192.0
	// Overbright doubles lighting stored at half intensity.
	Overbright = 2.0
	// DisplayGamma is the exponent of the display curve applied to lit
	// brush surfaces.
	DisplayGamma = 1.0 / 1.6
)

// Input is everything the evaluator needs for one fragment.
type Input struct {
	// Albedo is the sampled base color (straight alpha).
	Albedo mgl32.Vec4
	// Lightmap is the sampled lightmap value; only brush surfaces read it.
	Lightmap mgl32.Vec3
	Normal   mgl32.Vec3
	// Mip is the approximate texture mip level, see MipLevel.
	Mip     float32
	Flags   scene.RenderFlags
	Surface scene.Surface
}

// Evaluate shades a fragment. It returns the pre-multiplied color and alpha,
// and false when the fragment is discarded (nodraw or failed alpha test).
// A discarded fragment must write neither color nor depth.
func Evaluate(in Input) (mgl32.Vec4, bool) {
	var (
		out mgl32.Vec4
		ok  bool
	)
	switch s := in.Surface.(type) {
	case scene.BrushSurface:
		out, ok = shadeBrush(in, s)
	case scene.ModelSurface:
		out, ok = shadeModel(in, s)
	case scene.SpriteSurface:
		out, ok = shadeSprite(in)
	default:
		return mgl32.Vec4{}, false
	}
	if !ok {
		return mgl32.Vec4{}, false
	}
	// Full-bright is evaluated last so it never resurrects a discarded
	// fragment.
	if in.Flags.Has(scene.FlagFullBright) {
		return in.Albedo, true
	}
	return out, true
}

func shadeBrush(in Input, s scene.BrushSurface) (mgl32.Vec4, bool) {
	if s.IsNoDraw() && !in.Flags.Has(scene.FlagShowNoDraw) {
		return mgl32.Vec4{}, false
	}

	alpha := min(in.Albedo.W(), s.RenderAmt)
	rgb := in.Albedo.Vec3().Mul(alpha * Overbright)

	if s.RenderMode.Lit() {
		lm := in.Lightmap.Mul(LightmapRemap)
		rgb = gamma(mgl32.Vec3{rgb[0] * lm[0], rgb[1] * lm[1], rgb[2] * lm[2]})
	}

	if s.RenderMode == scene.RenderSolid {
		boost, pass := AlphaTest(alpha, in.Mip)
		if !pass {
			return mgl32.Vec4{}, false
		}
		rgb = rgb.Mul(boost)
	}
	return rgb.Vec4(alpha), true
}

func shadeModel(in Input, s scene.ModelSurface) (mgl32.Vec4, bool) {
	alpha := in.Albedo.W()
	rgb := in.Albedo.Vec3().Mul(alpha)

	if s.Flags&scene.ModelFlatShade == 0 {
		rgb = rgb.Mul(FakeLight(in.Normal))
	}
	if s.Flags&scene.ModelMasked != 0 {
		boost, pass := AlphaTest(alpha, in.Mip)
		if !pass {
			return mgl32.Vec4{}, false
		}
		rgb = rgb.Mul(boost)
	}
	// ModelAdditive is intentionally a no-op until its blending is defined.
	return rgb.Vec4(alpha), true
}

func shadeSprite(in Input) (mgl32.Vec4, bool) {
	alpha := in.Albedo.W()
	return in.Albedo.Vec3().Mul(alpha).Vec4(alpha), true
}

// FakeLight is the directional term applied to models: 1 for normals facing
// +Z, 0 for normals facing -Z.
func FakeLight(n mgl32.Vec3) float32 {
	return (n.Z() + 1) / 2
}

func gamma(c mgl32.Vec3) mgl32.Vec3 {
	for i := range c {
		c[i] = float32(math.Pow(float64(max(c[i], 0)), DisplayGamma))
	}
	return c
}
