// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package oit implements weighted blended order-independent transparency on
// the CPU. fs_accum and fs_resolve in internal/gpu/shaders mirror it.
//
// Each transparent fragment contributes additively to two accumulators: a
// weighted pre-multiplied color and a log-transmittance sum. Addition is
// commutative, so the resolved result does not depend on submission order.
package oit

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Epsilon floors both the reveal logarithm argument and the resolve
	// divisor.
	Epsilon = 1e-5
	// MinRevealLog bounds the accumulated log-transmittance.
	MinRevealLog = -20
)

// Weight returns the blending weight of a pre-multiplied fragment at the
// given positive view depth. Nearer and more opaque fragments weigh more.
func Weight(color mgl32.Vec4, depth float32) float32 {
	d := float64(depth) / 200
	dist := 0.03 / (1e-5 + d*d*d*d)
	dist = math.Min(math.Max(dist, 1e-2), 3e3)

	peak := max(color[0], color[1], color[2], color[3])
	a := min(1, float64(peak)*40+0.01)
	return float32(dist * a * a)
}

// RevealLog returns the log-transmittance contribution of a fragment with the
// given alpha.
func RevealLog(alpha float32) float32 {
	return float32(math.Log(math.Max(Epsilon, float64(1-alpha))))
}

// Accum is one pixel of the two accumulation targets. The zero value is the
// cleared state: no color and transmittance 1.
type Accum struct {
	// Color holds sum(weight*rgb) and sum(weight*alpha).
	Color mgl32.Vec4
	// Reveal holds sum(log(1-alpha)).
	Reveal float32
}

// Add accumulates one pre-multiplied fragment.
func (a *Accum) Add(color mgl32.Vec4, depth float32) {
	a.Color = a.Color.Add(color.Mul(Weight(color, depth)))
	a.Reveal += RevealLog(color[3])
}

// Merge adds another accumulator into a, as the additive blend state does
// for two draws hitting the same pixel.
func (a *Accum) Merge(b Accum) {
	a.Color = a.Color.Add(b.Color)
	a.Reveal += b.Reveal
}

// Resolve reconstructs the average color and coverage of the pixel. The
// average is defined (zero) when nothing was accumulated.
func (a Accum) Resolve() (avg mgl32.Vec3, coverage float32) {
	reveal := mgl32.Clamp(a.Reveal, MinRevealLog, 0)
	coverage = 1 - float32(math.Exp(float64(reveal)))

	div := max(a.Color[3], Epsilon)
	for i := 0; i < 3; i++ {
		avg[i] = mgl32.Clamp(a.Color[i]/div, 0, 1)
	}
	return avg, coverage
}

// Over composites a straight color with coverage over dst using the standard
// alpha-over operator.
func Over(src mgl32.Vec3, coverage float32, dst mgl32.Vec4) mgl32.Vec4 {
	inv := 1 - coverage
	return mgl32.Vec4{
		src[0]*coverage + dst[0]*inv,
		src[1]*coverage + dst[1]*inv,
		src[2]*coverage + dst[2]*inv,
		coverage + dst[3]*inv,
	}
}

// Composite resolves a and blends the result over the opaque color.
func (a Accum) Composite(opaque mgl32.Vec4) mgl32.Vec4 {
	avg, cov := a.Resolve()
	return Over(avg, cov, opaque)
}
