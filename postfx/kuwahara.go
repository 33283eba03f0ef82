// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package postfx

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	kuwaharaSectors = 8
	kuwaharaEps     = 1e-4
	// ditherScale is the amplitude of the ordered dither, one 8-bit step.
	ditherScale = 1.0 / 255
)

var bayer4 = [16]float32{
	0, 8, 2, 10,
	12, 4, 14, 6,
	3, 11, 1, 9,
	15, 7, 13, 5,
}

// Kuwahara is an anisotropic sector filter. The disk of the given radius
// around each pixel is split into eight sectors, rotated so that the first
// sector is aligned with the local luminance gradient. Sector means are
// blended with weights 1/(eps+variance)^2, favoring flat sectors, and the
// result is ordered-dithered to hide banding.
func Kuwahara(src *Image, radius int) *Image {
	if radius < 1 {
		return src.Clone()
	}
	out := src.like()
	r2 := radius * radius
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			theta := gradientAngle(src, x, y)

			var (
				sum   [kuwaharaSectors]mgl32.Vec3
				sumSq [kuwaharaSectors]mgl32.Vec3
				count [kuwaharaSectors]float32
			)
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					if dx*dx+dy*dy > r2 {
						continue
					}
					c := src.At(x+dx, y+dy).Vec3()
					sq := mgl32.Vec3{c[0] * c[0], c[1] * c[1], c[2] * c[2]}
					if dx == 0 && dy == 0 {
						for k := range sum {
							sum[k] = sum[k].Add(c)
							sumSq[k] = sumSq[k].Add(sq)
							count[k]++
						}
						continue
					}
					k := sector(float64(dx), float64(dy), theta)
					sum[k] = sum[k].Add(c)
					sumSq[k] = sumSq[k].Add(sq)
					count[k]++
				}
			}

			var (
				acc  mgl32.Vec3
				wsum float32
			)
			for k := range sum {
				if count[k] == 0 {
					continue
				}
				mean := sum[k].Mul(1 / count[k])
				msq := sumSq[k].Mul(1 / count[k])
				variance := max(msq[0]-mean[0]*mean[0], 0) +
					max(msq[1]-mean[1]*mean[1], 0) +
					max(msq[2]-mean[2]*mean[2], 0)
				w := 1 / ((kuwaharaEps + variance) * (kuwaharaEps + variance))
				acc = acc.Add(mean.Mul(w))
				wsum += w
			}
			c := acc.Mul(1 / wsum)

			d := (bayer4[(y&3)*4+(x&3)]/16 - 0.5) * ditherScale
			c = c.Add(mgl32.Vec3{d, d, d})
			out.Pix[y*src.Width+x] = c.Vec4(src.At(x, y)[3])
		}
	}
	return out
}

// gradientAngle returns the Sobel gradient direction of luminance at (x, y).
func gradientAngle(src *Image, x, y int) float64 {
	l := func(dx, dy int) float32 { return Luminance(src.At(x+dx, y+dy).Vec3()) }
	gx := -l(-1, -1) - 2*l(-1, 0) - l(-1, 1) + l(1, -1) + 2*l(1, 0) + l(1, 1)
	gy := -l(-1, -1) - 2*l(0, -1) - l(1, -1) + l(-1, 1) + 2*l(0, 1) + l(1, 1)
	return math.Atan2(float64(gy), float64(gx))
}

func sector(dx, dy, theta float64) int {
	a := math.Atan2(dy, dx) - theta
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	k := int(a / (2 * math.Pi / kuwaharaSectors))
	return min(k, kuwaharaSectors-1)
}
