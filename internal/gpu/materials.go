// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/brushview/postfx"
)

// ErrLayerSize is returned when albedo layers or sky faces differ in size.
var ErrLayerSize = errors.New("gpu: material images differ in size")

// MaterialSet is the decoded texture data of a map. All layers share one
// size and all sky faces share one size; the caller resamples them first.
type MaterialSet struct {
	Layers   []*image.RGBA
	Lightmap *image.RGBA
	// Sky faces in +X, -X, +Y, -Y, +Z, -Z order.
	Sky [6]*image.RGBA
}

// materials are the GPU textures bound by the scene and skybox passes.
type materials struct {
	albedo   hal.Texture
	albedoV  hal.TextureView
	lightmap texture
	sky      hal.Texture
	skyV     hal.TextureView

	layers uint32
	levels uint32
	width  uint32
	height uint32
}

// fallbackMaterials returns a one-layer magenta albedo, a white lightmap
// and a black sky, matching the software renderer's defaults.
func fallbackMaterials() MaterialSet {
	return MaterialSet{
		Layers:   []*image.RGBA{solid(color.RGBA{255, 0, 255, 255})},
		Lightmap: solid(color.RGBA{255, 255, 255, 255}),
		Sky: [6]*image.RGBA{
			solid(color.RGBA{A: 255}), solid(color.RGBA{A: 255}), solid(color.RGBA{A: 255}),
			solid(color.RGBA{A: 255}), solid(color.RGBA{A: 255}), solid(color.RGBA{A: 255}),
		},
	}
}

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)
	return img
}

// withDefaults fills missing entries from the fallback set.
func (m MaterialSet) withDefaults() MaterialSet {
	fb := fallbackMaterials()
	if len(m.Layers) == 0 {
		m.Layers = fb.Layers
	}
	if m.Lightmap == nil {
		m.Lightmap = fb.Lightmap
	}
	missing := false
	for _, f := range m.Sky {
		if f == nil {
			missing = true
		}
	}
	if missing {
		size := 1
		for _, f := range m.Sky {
			if f != nil {
				size = f.Bounds().Dx()
				break
			}
		}
		for i, f := range m.Sky {
			if f == nil {
				m.Sky[i] = image.NewRGBA(image.Rect(0, 0, size, size))
				fillOpaque(m.Sky[i])
			}
		}
	}
	return m
}

func fillOpaque(img *image.RGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
}

// validate checks that layers and sky faces are uniformly sized.
func (m MaterialSet) validate() error {
	b := m.Layers[0].Bounds()
	for i, l := range m.Layers {
		if l.Bounds().Size() != b.Size() {
			return fmt.Errorf("%w: layer %d is %v, want %v", ErrLayerSize, i, l.Bounds().Size(), b.Size())
		}
	}
	s := m.Sky[0].Bounds()
	for i, f := range m.Sky {
		if f.Bounds().Size() != s.Size() {
			return fmt.Errorf("%w: sky face %d is %v, want %v", ErrLayerSize, i, f.Bounds().Size(), s.Size())
		}
	}
	return nil
}

// packed returns the tightly packed RGBA bytes of img.
func packed(img *image.RGBA) []byte {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if img.Stride == w*4 && len(img.Pix) == w*h*4 {
		return img.Pix
	}
	out := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Bounds().Min.X, img.Bounds().Min.Y+y)
		out = append(out, img.Pix[off:off+w*4]...)
	}
	return out
}

func packLayers(imgs []*image.RGBA) []byte {
	var out []byte
	for _, img := range imgs {
		out = append(out, packed(img)...)
	}
	return out
}

// uploadMaterials creates and fills all material textures. Albedo mips are
// rendered by gen.
func uploadMaterials(device hal.Device, queue hal.Queue, gen *MipGenerator, set MaterialSet) (*materials, error) {
	set = set.withDefaults()
	if err := set.validate(); err != nil {
		return nil, err
	}

	m := &materials{}
	b := set.Layers[0].Bounds()
	m.width, m.height = uint32(b.Dx()), uint32(b.Dy())
	m.layers = uint32(len(set.Layers))
	m.levels = uint32(postfx.MipLevels(b.Dx(), b.Dy()))

	if err := m.createAlbedo(device, queue, set.Layers); err != nil {
		m.destroy(device)
		return nil, err
	}
	if err := gen.Generate(m.albedo, m.layers, m.levels); err != nil {
		m.destroy(device)
		return nil, fmt.Errorf("generate albedo mips: %w", err)
	}

	lb := set.Lightmap.Bounds()
	lm, err := newTarget(device, "lightmap", uint32(lb.Dx()), uint32(lb.Dy()),
		gputypes.TextureFormatRGBA8Unorm, gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		m.destroy(device)
		return nil, err
	}
	m.lightmap = lm
	writeLayers(queue, lm.tex, uint32(lb.Dx()), uint32(lb.Dy()), 1, packed(set.Lightmap))

	if err := m.createSky(device, queue, set.Sky); err != nil {
		m.destroy(device)
		return nil, err
	}

	slogger().Info("gpu: materials uploaded",
		"layers", m.layers, "size", fmt.Sprintf("%dx%d", m.width, m.height), "mips", m.levels)
	return m, nil
}

func (m *materials) createAlbedo(device hal.Device, queue hal.Queue, layers []*image.RGBA) error {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "albedo_array",
		Size:          hal.Extent3D{Width: m.width, Height: m.height, DepthOrArrayLayers: m.layers},
		MipLevelCount: m.levels,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage: gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create albedo array: %w", err)
	}
	m.albedo = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "albedo_array_view",
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimension2DArray,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   m.levels,
		ArrayLayerCount: m.layers,
	})
	if err != nil {
		return fmt.Errorf("create albedo array view: %w", err)
	}
	m.albedoV = view

	writeLayers(queue, tex, m.width, m.height, m.layers, packLayers(layers))
	return nil
}

func (m *materials) createSky(device hal.Device, queue hal.Queue, faces [6]*image.RGBA) error {
	size := uint32(faces[0].Bounds().Dx())
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sky_cube",
		Size:          hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 6},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create sky cube: %w", err)
	}
	m.sky = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "sky_cube_view",
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimensionCube,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 6,
	})
	if err != nil {
		return fmt.Errorf("create sky cube view: %w", err)
	}
	m.skyV = view

	writeLayers(queue, tex, size, size, 6, packLayers(faces[:]))
	return nil
}

// writeLayers uploads level 0 of count consecutive layers in one call.
func writeLayers(queue hal.Queue, tex hal.Texture, w, h, count uint32, data []byte) {
	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: count},
	)
}

// albedoSize returns the common layer size in texels.
func (m *materials) albedoSize() [2]float32 {
	return [2]float32{float32(m.width), float32(m.height)}
}

func (m *materials) destroy(device hal.Device) {
	if m.skyV != nil {
		device.DestroyTextureView(m.skyV)
		m.skyV = nil
	}
	if m.sky != nil {
		device.DestroyTexture(m.sky)
		m.sky = nil
	}
	m.lightmap.destroy(device)
	if m.albedoV != nil {
		device.DestroyTextureView(m.albedoV)
		m.albedoV = nil
	}
	if m.albedo != nil {
		device.DestroyTexture(m.albedo)
		m.albedo = nil
	}
}
