// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package postfx

import "github.com/go-gl/mathgl/mgl32"

// BrightPass keeps pixels whose luminance exceeds threshold and blacks out
// the rest.
func BrightPass(src *Image, threshold float32) *Image {
	out := src.like()
	for i, c := range src.Pix {
		if Luminance(c.Vec3()) > threshold {
			out.Pix[i] = c
		} else {
			out.Pix[i] = mgl32.Vec4{0, 0, 0, c[3]}
		}
	}
	return out
}

// BoxBlur runs iterations passes of a four-tap diagonal blur. Pass i samples
// the diagonal neighbors at distance i+1, so the kernel widens every pass.
func BoxBlur(src *Image, iterations int) *Image {
	cur := src
	for i := 0; i < iterations; i++ {
		cur = diagonalBlur(cur, i+1)
	}
	if cur == src {
		return src.Clone()
	}
	return cur
}

func diagonalBlur(src *Image, d int) *Image {
	out := src.like()
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			sum := src.At(x-d, y-d).
				Add(src.At(x+d, y-d)).
				Add(src.At(x-d, y+d)).
				Add(src.At(x+d, y+d))
			out.Pix[y*src.Width+x] = sum.Mul(0.25)
		}
	}
	return out
}

// Composite adds the blurred bright image to the scene, scaled by strength.
// Alpha is taken from the scene.
func Composite(sceneImg, blurred *Image, strength float32) *Image {
	out := sceneImg.like()
	for i, c := range sceneImg.Pix {
		b := blurred.At(i%sceneImg.Width, i/sceneImg.Width)
		out.Pix[i] = c.Vec3().Add(b.Vec3().Mul(strength)).Vec4(c[3])
	}
	return out
}

// Bloom runs bright-pass, blur and composite.
func Bloom(src *Image, cfg BloomConfig) *Image {
	bright := BrightPass(src, cfg.Threshold)
	return Composite(src, BoxBlur(bright, cfg.Iterations), cfg.Strength)
}
