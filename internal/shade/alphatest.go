// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shade

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// AlphaThreshold is the nominal alpha-test cutoff at mip 0.
	AlphaThreshold = 0.95
	// MaxMip bounds the mip estimate.
	MaxMip = 10.0
)

// MipLevel approximates the sampled mip level from the screen-space
// derivatives of the texture coordinate, scaled by the texture resolution.
// The result is clamped to [0, MaxMip].
func MipLevel(dUVdx, dUVdy, texSize mgl32.Vec2) float32 {
	dx := mgl32.Vec2{dUVdx[0] * texSize[0], dUVdx[1] * texSize[1]}
	dy := mgl32.Vec2{dUVdy[0] * texSize[0], dUVdy[1] * texSize[1]}
	rho2 := max(dx.Dot(dx), dy.Dot(dy))
	if !(rho2 > 1) {
		return 0
	}
	return min(float32(0.5*math.Log2(float64(rho2))), MaxMip)
}

// Threshold returns the adjusted alpha cutoff for a mip level. It is
// non-increasing in mip.
func Threshold(mip float32) float32 {
	mip = mgl32.Clamp(mip, 0, MaxMip)
	return AlphaThreshold * float32(math.Exp2(float64(-mip*0.5)))
}

// AlphaTest reports whether alpha survives the mip-aware test. Survivors
// also get the brightness boost that compensates for minification
// darkening.
func AlphaTest(alpha, mip float32) (boost float32, pass bool) {
	mip = mgl32.Clamp(mip, 0, MaxMip)
	if alpha < Threshold(mip) {
		return 0, false
	}
	return 1 + 0.5*mip, true
}
