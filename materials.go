// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package brushview

import (
	"image"

	"golang.org/x/image/draw"
)

// Materials are the decoded textures of a map.
type Materials struct {
	// Layers are the albedo textures, addressed by Vertex.Layer. They are
	// resampled to a common size before upload.
	Layers []image.Image
	// Lightmap is the shared lightmap atlas. Nil samples as white.
	Lightmap image.Image
	// Sky holds the skybox faces in +X, -X, +Y, -Y, +Z, -Z order. Missing
	// faces sample as black.
	Sky [6]image.Image
}

// preparedMaterials is the uniform-size RGBA form both backends upload.
type preparedMaterials struct {
	layers   []*image.RGBA
	lightmap *image.RGBA
	sky      [6]*image.RGBA
}

// prepare resamples layers to the largest layer extent and sky faces to the
// largest face extent with Catmull-Rom filtering.
func (m *Materials) prepare() preparedMaterials {
	var out preparedMaterials
	size := maxExtent(m.Layers)
	for _, l := range m.Layers {
		out.layers = append(out.layers, resample(l, size))
	}
	if m.Lightmap != nil {
		out.lightmap = toRGBA(m.Lightmap)
	}
	skySize := maxExtent(m.Sky[:])
	for i, f := range m.Sky {
		if f != nil {
			out.sky[i] = resample(f, skySize)
		}
	}
	return out
}

func maxExtent(imgs []image.Image) image.Point {
	var p image.Point
	for _, img := range imgs {
		if img == nil {
			continue
		}
		s := img.Bounds().Size()
		p.X = max(p.X, s.X)
		p.Y = max(p.Y, s.Y)
	}
	return image.Point{X: max(p.X, 1), Y: max(p.Y, 1)}
}

// resample scales src to size. Images already at size are only converted.
func resample(src image.Image, size image.Point) *image.RGBA {
	if src.Bounds().Size() == size {
		return toRGBA(src)
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// toRGBA returns src as a zero-origin *image.RGBA, copying when needed.
func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
