// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package postfx

import "github.com/go-gl/mathgl/mgl32"

// Grayscale replaces each color with its luminance.
func Grayscale(src *Image) *Image {
	out := src.like()
	for i, c := range src.Pix {
		l := Luminance(c.Vec3())
		out.Pix[i] = mgl32.Vec4{l, l, l, c[3]}
	}
	return out
}

// Posterize maps every pixel to the palette color whose luminance is
// nearest to the pixel luminance. An empty palette returns a copy.
func Posterize(src *Image, palette Palette) *Image {
	if len(palette) == 0 {
		return src.Clone()
	}
	lum := make([]float32, len(palette))
	for i, c := range palette {
		lum[i] = Luminance(c)
	}
	out := src.like()
	for i, c := range src.Pix {
		out.Pix[i] = palette[nearest(lum, Luminance(c.Vec3()))].Vec4(c[3])
	}
	return out
}

func nearest(lum []float32, l float32) int {
	best, bestD := 0, float32(-1)
	for i, v := range lum {
		d := v - l
		if d < 0 {
			d = -d
		}
		if bestD < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Pixelate resamples the image in size x size blocks. Each block takes the
// color of its own sample closest to the block mean luminance, which keeps
// hard edges instead of smearing them.
func Pixelate(src *Image, size int) *Image {
	if size <= 1 {
		return src.Clone()
	}
	out := src.like()
	for by := 0; by < src.Height; by += size {
		for bx := 0; bx < src.Width; bx += size {
			x1, y1 := min(bx+size, src.Width), min(by+size, src.Height)

			var mean float32
			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					mean += Luminance(src.At(x, y).Vec3())
				}
			}
			mean /= float32((x1 - bx) * (y1 - by))

			pick, bestD := src.At(bx, by), float32(-1)
			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					c := src.At(x, y)
					d := Luminance(c.Vec3()) - mean
					if d < 0 {
						d = -d
					}
					if bestD < 0 || d < bestD {
						pick, bestD = c, d
					}
				}
			}
			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					out.Pix[y*src.Width+x] = pick
				}
			}
		}
	}
	return out
}
