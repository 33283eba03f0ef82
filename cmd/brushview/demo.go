// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/gogpu/brushview"
	"github.com/gogpu/brushview/scene"
)

// Albedo layers of the demo map.
const (
	layerFloor = iota
	layerCrate
	layerGlass
	layerFlame  // first of flameFrames sprite frames
	flameFrames = 4
	demoTexSize = 64
)

// Entity indices of the demo map.
const (
	entityWorld = iota
	entityCrate
	entityFlame
)

// demoMaterials generates the textures of the demo map.
func demoMaterials() *brushview.Materials {
	m := &brushview.Materials{}
	m.Layers = append(m.Layers,
		checker(colorful.Hsv(30, 0.3, 0.6), colorful.Hsv(30, 0.3, 0.4)),
		checker(colorful.Hsv(25, 0.7, 0.7), colorful.Hsv(25, 0.8, 0.45)),
		tinted(colorful.Hsv(190, 0.5, 0.9), 110),
	)
	for i := 0; i < flameFrames; i++ {
		m.Layers = append(m.Layers, flame(float64(i)/flameFrames))
	}
	m.Lightmap = lightmap()
	for i := range m.Sky {
		m.Sky[i] = skyFace(i)
	}
	return m
}

func rgba(c colorful.Color, a uint8) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: a}
}

func checker(a, b colorful.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, demoTexSize, demoTexSize))
	ca, cb := rgba(a, 255), rgba(b, 255)
	for y := 0; y < demoTexSize; y++ {
		for x := 0; x < demoTexSize; x++ {
			if (x/8+y/8)%2 == 0 {
				img.SetRGBA(x, y, ca)
			} else {
				img.SetRGBA(x, y, cb)
			}
		}
	}
	return img
}

func tinted(c colorful.Color, alpha uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, demoTexSize, demoTexSize))
	px := rgba(c, alpha)
	for y := 0; y < demoTexSize; y++ {
		for x := 0; x < demoTexSize; x++ {
			img.SetRGBA(x, y, px)
		}
	}
	return img
}

// flame draws a soft radial blob whose hue shifts with phase.
func flame(phase float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, demoTexSize, demoTexSize))
	c := demoTexSize / 2.0
	for y := 0; y < demoTexSize; y++ {
		for x := 0; x < demoTexSize; x++ {
			dx, dy := (float64(x)-c)/c, (float64(y)-c)/c
			d := math.Sqrt(dx*dx + dy*dy*0.6)
			v := math.Max(0, 1-d)
			col := colorful.Hsv(20+40*phase+30*v, 0.9, v)
			img.SetRGBA(x, y, rgba(col, uint8(255*v)))
		}
	}
	return img
}

func lightmap() *image.RGBA {
	const size = 32
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := 0.35 + 0.65*float64(x)/size
			img.SetRGBA(x, y, rgba(colorful.Color{R: v, G: v * 0.95, B: v * 0.85}, 255))
		}
	}
	return img
}

// skyFace is a vertical gradient from horizon haze to zenith blue.
func skyFace(face int) *image.RGBA {
	const size = 32
	horizon := colorful.Hsv(35, 0.25, 0.95)
	zenith := colorful.Hsv(215, 0.7, 0.55)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		t := float64(y) / size
		switch face {
		case 4: // +Z
			t = 0
		case 5: // -Z
			t = 1
		}
		c := rgba(zenith.BlendLab(horizon, t), 255)
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// demoFrame builds the demo map as seen at time t.
func demoFrame(width, height int, t float64, flags scene.RenderFlags) *scene.Frame {
	transforms := scene.NewTransforms(0)
	transforms.Set(entityWorld, mgl32.Ident4())
	spin := mgl32.Translate3D(0, 0, 0.75).Mul4(mgl32.HomogRotate3DZ(float32(t)))
	transforms.Set(entityCrate, spin)
	transforms.Set(entityFlame, mgl32.Translate3D(1.5, -1.5, 1.2))

	aspect := float32(width) / float32(height)
	frame := &scene.Frame{
		Camera:     scene.LookAt(mgl32.Vec3{-5, 1.5, 2}, mgl32.Vec3{0, 0, 0.8}, mgl32.Vec3{0, 0, 1}, 75, aspect, 0.1, 1000),
		Transforms: transforms,
		Flags:      flags,
		Time:       t,
	}

	lit := scene.BrushSurface{RenderMode: scene.RenderNormal, RenderAmt: 1}
	sky := scene.BrushSurface{RenderMode: scene.RenderNormal, Flags: scene.BrushSky, RenderAmt: 1}
	clip := scene.BrushSurface{RenderMode: scene.RenderNormal, Flags: scene.BrushNoDraw, RenderAmt: 1}
	glass := scene.BrushSurface{RenderMode: scene.RenderTexture, RenderAmt: 0.6}

	frame.Meshes = append(frame.Meshes,
		quad(mgl32.Vec3{-8, -8, 0}, mgl32.Vec3{16, 0, 0}, mgl32.Vec3{0, 16, 0}, layerFloor, entityWorld, lit, true),
		quad(mgl32.Vec3{-8, 8, 6}, mgl32.Vec3{16, 0, 0}, mgl32.Vec3{0, -16, 0}, 0, entityWorld, sky, false),
		quad(mgl32.Vec3{2, -3, 0}, mgl32.Vec3{0, 6, 0}, mgl32.Vec3{0, 0, 3}, 0, entityWorld, clip, false),
		quad(mgl32.Vec3{-1.5, -2, 0.2}, mgl32.Vec3{0, 4, 0}, mgl32.Vec3{0, 0, 2.5}, layerGlass, entityWorld, glass, false),
		cube(0.75, layerCrate, entityCrate),
		sprite(0.6, 1.2, layerFlame, entityFlame),
	)
	return frame
}

// quad returns two triangles spanning origin + s*u + t*v. Brush faces get
// lightmap coordinates over the unit square when lightmapped is set.
func quad(origin, u, v mgl32.Vec3, layer, entity uint32, s scene.BrushSurface, lightmapped bool) scene.Mesh {
	n := u.Cross(v).Normalize()
	corners := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	tile := float32(u.Len() / 2)
	var vs []scene.Vertex
	for _, i := range []int{0, 1, 2, 0, 2, 3} {
		c := corners[i]
		surf := s
		if lightmapped {
			surf.LightmapUV = c
		}
		vs = append(vs, scene.Vertex{
			Position: origin.Add(u.Mul(c[0])).Add(v.Mul(c[1])),
			TexCoord: c.Mul(tile),
			Normal:   n,
			Layer:    layer,
			Entity:   entity,
			Surface:  surf,
		})
	}
	return scene.Mesh{Vertices: vs}
}

// cube returns an axis-aligned model cube of half extent h centered on the
// entity origin.
func cube(h float32, layer, entity uint32) scene.Mesh {
	faces := [6][3]mgl32.Vec3{
		{{h, -h, -h}, {0, 2 * h, 0}, {0, 0, 2 * h}},
		{{-h, h, -h}, {0, -2 * h, 0}, {0, 0, 2 * h}},
		{{h, h, -h}, {-2 * h, 0, 0}, {0, 0, 2 * h}},
		{{-h, -h, -h}, {2 * h, 0, 0}, {0, 0, 2 * h}},
		{{-h, -h, h}, {2 * h, 0, 0}, {0, 2 * h, 0}},
		{{-h, h, -h}, {2 * h, 0, 0}, {0, -2 * h, 0}},
	}
	var m scene.Mesh
	for _, f := range faces {
		q := quad(f[0], f[1], f[2], layer, entity, scene.BrushSurface{}, false)
		for i := range q.Vertices {
			q.Vertices[i].Surface = scene.ModelSurface{}
		}
		m.Vertices = append(m.Vertices, q.Vertices...)
	}
	return m
}

// sprite returns an animated camera-facing quad. Sprite positions carry
// only the quad extent.
func sprite(w, h float32, layer, entity uint32) scene.Mesh {
	s := scene.SpriteSurface{
		RenderMode:  scene.RenderAdditive,
		FrameRate:   8,
		FrameCount:  flameFrames,
		Orientation: scene.OrientParallelUpright,
	}
	corners := [4]mgl32.Vec2{{-w / 2, -h / 2}, {w / 2, -h / 2}, {w / 2, h / 2}, {-w / 2, h / 2}}
	uvs := [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	var vs []scene.Vertex
	for _, i := range []int{0, 1, 2, 0, 2, 3} {
		vs = append(vs, scene.Vertex{
			Position: corners[i].Vec3(0),
			TexCoord: uvs[i],
			Normal:   mgl32.Vec3{0, 0, 1},
			Layer:    layer,
			Entity:   entity,
			Surface:  s,
		})
	}
	return scene.Mesh{Vertices: vs}
}
