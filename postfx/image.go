// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package postfx implements the post-process chain on floating-point images.
//
// It is the reference for the WGSL passes in internal/gpu and the whole
// post chain of the software backend. Every stage consumes the previous
// stage's output and returns a new image; inputs are never modified.
//
//	cfg := postfx.DefaultConfig()
//	cfg.Style = postfx.StylePalette
//	out := postfx.NewChain(cfg).Apply(img)
package postfx

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Image is a linear RGBA float image with an optional per-pixel linear view
// depth plane. Colors are straight alpha.
type Image struct {
	Width, Height int
	Pix           []mgl32.Vec4
	// Depth is nil when no depth is attached.
	Depth []float32
}

// NewImage returns a transparent black image.
func NewImage(w, h int) *Image {
	w, h = max(w, 0), max(h, 0)
	return &Image{Width: w, Height: h, Pix: make([]mgl32.Vec4, w*h)}
}

// Bounds returns the image rectangle.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

// Empty reports whether the image has no pixels.
func (m *Image) Empty() bool { return m == nil || m.Width == 0 || m.Height == 0 }

// At returns the pixel at (x, y), clamping coordinates to the edge.
func (m *Image) At(x, y int) mgl32.Vec4 {
	if m.Empty() {
		return mgl32.Vec4{}
	}
	return m.Pix[m.index(x, y)]
}

// Set stores c at (x, y). Out-of-range writes are ignored.
func (m *Image) Set(x, y int, c mgl32.Vec4) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = c
}

// DepthAt returns the depth at (x, y) clamped to the edge, and false when
// the image has no depth plane.
func (m *Image) DepthAt(x, y int) (float32, bool) {
	if m.Empty() || len(m.Depth) != len(m.Pix) {
		return 0, false
	}
	return m.Depth[m.index(x, y)], true
}

func (m *Image) index(x, y int) int {
	x = min(max(x, 0), m.Width-1)
	y = min(max(y, 0), m.Height-1)
	return y*m.Width + x
}

// Sample bilinearly filters the image at normalized coordinates with clamp
// to edge addressing. Texel centers sit at (i+0.5)/size.
func (m *Image) Sample(u, v float32) mgl32.Vec4 {
	if m.Empty() {
		return mgl32.Vec4{}
	}
	fx := u*float32(m.Width) - 0.5
	fy := v*float32(m.Height) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	top := lerp(m.At(x0, y0), m.At(x0+1, y0), tx)
	bottom := lerp(m.At(x0, y0+1), m.At(x0+1, y0+1), tx)
	return lerp(top, bottom, ty)
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	out := &Image{Width: m.Width, Height: m.Height, Pix: append([]mgl32.Vec4(nil), m.Pix...)}
	if m.Depth != nil {
		out.Depth = append([]float32(nil), m.Depth...)
	}
	return out
}

// like returns an empty image of the same size sharing m's depth plane.
func (m *Image) like() *Image {
	out := NewImage(m.Width, m.Height)
	out.Depth = m.Depth
	return out
}

// FromImage converts any image to a float image. Colors are converted to
// straight alpha in [0,1].
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	out := NewImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.Pix[y*out.Width+x] = mgl32.Vec4{
				float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255,
			}
		}
	}
	return out
}

// RGBA quantizes the image to 8-bit pre-multiplied RGBA, clamping each
// channel to [0,1].
func (m *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(m.Bounds())
	for i, c := range m.Pix {
		a := clamp01(c[3])
		out.Pix[i*4+0] = quantize(clamp01(c[0]) * a)
		out.Pix[i*4+1] = quantize(clamp01(c[1]) * a)
		out.Pix[i*4+2] = quantize(clamp01(c[2]) * a)
		out.Pix[i*4+3] = quantize(a)
	}
	return out
}

// Luminance returns the Rec. 709 luma of a linear color.
func Luminance(c mgl32.Vec3) float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

func lerp(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	return min(v, 1)
}

func quantize(v float32) uint8 {
	return uint8(v*255 + 0.5)
}
