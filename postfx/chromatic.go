// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package postfx

import "github.com/go-gl/mathgl/mgl32"

// FocusFactor returns the depth-of-field term in [0,1]: 0 at the focus
// depth, 1 at or beyond focusRange from it. A zero range disables the
// depth term.
func FocusFactor(depth, focusDepth, focusRange float32) float32 {
	if focusRange <= 0 {
		return 1
	}
	d := depth - focusDepth
	if d < 0 {
		d = -d
	}
	return min(d/focusRange, 1)
}

// Chromatic splits the color channels radially. Red is sampled outward and
// blue inward along the direction from the screen center, by an offset
// proportional to the distance from the center, cfg.Strength and the focus
// factor of the pixel depth. Images without depth use a focus factor of 1.
func Chromatic(src *Image, cfg ChromaticConfig) *Image {
	out := src.like()
	w, h := float32(src.Width), float32(src.Height)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			u := (float32(x) + 0.5) / w
			v := (float32(y) + 0.5) / h

			f := float32(1)
			if depth, ok := src.DepthAt(x, y); ok {
				f = FocusFactor(depth, cfg.FocusDepth, cfg.FocusRange)
			}
			off := mgl32.Vec2{u - 0.5, v - 0.5}.Mul(cfg.Strength * f)

			center := src.At(x, y)
			r := src.Sample(u+off[0], v+off[1])
			b := src.Sample(u-off[0], v-off[1])
			out.Pix[y*src.Width+x] = mgl32.Vec4{r[0], center[1], b[2], center[3]}
		}
	}
	return out
}
