// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Render target formats.
const (
	colorFormat  = gputypes.TextureFormatRGBA16Float
	linearFormat = gputypes.TextureFormatR32Float
	depthFormat  = gputypes.TextureFormatDepth24PlusStencil8
	accumFormat  = gputypes.TextureFormatRGBA16Float
	revealFormat = gputypes.TextureFormatR16Float
	outputFormat = gputypes.TextureFormatRGBA8Unorm
)

// FarDepth is the cleared value of the linear depth target.
const FarDepth = 1e6

// texture is a texture with its default view.
type texture struct {
	tex  hal.Texture
	view hal.TextureView
}

func (t *texture) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

func newTarget(device hal.Device, label string, w, h uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) (texture, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return texture{}, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return texture{}, fmt.Errorf("create %s view: %w", label, err)
	}
	return texture{tex: tex, view: view}, nil
}

// targets holds every size-dependent texture of a frame.
type targets struct {
	color  texture
	linear texture
	depth  texture
	accum  texture
	reveal texture
	// ping and pong are the post-process intermediates.
	ping   texture
	pong   texture
	output texture

	width, height uint32
}

// ensure recreates all targets when the size changes. On failure every
// partially created target is released.
func (t *targets) ensure(device hal.Device, w, h uint32) error {
	if t.width == w && t.height == h && t.color.tex != nil {
		return nil
	}
	t.destroy(device)

	sampled := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding
	specs := []struct {
		dst    *texture
		label  string
		format gputypes.TextureFormat
		usage  gputypes.TextureUsage
	}{
		{&t.color, "scene_color", colorFormat, sampled},
		{&t.linear, "scene_linear_depth", linearFormat, sampled},
		{&t.depth, "scene_depth_stencil", depthFormat, gputypes.TextureUsageRenderAttachment},
		{&t.accum, "oit_accum", accumFormat, sampled},
		{&t.reveal, "oit_reveal", revealFormat, sampled},
		{&t.ping, "post_ping", colorFormat, sampled},
		{&t.pong, "post_pong", colorFormat, sampled},
		{&t.output, "output", outputFormat, gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc},
	}
	for _, s := range specs {
		tex, err := newTarget(device, s.label, w, h, s.format, s.usage)
		if err != nil {
			t.destroy(device)
			return err
		}
		*s.dst = tex
	}
	t.width, t.height = w, h
	slogger().Debug("gpu: targets allocated", "width", w, "height", h)
	return nil
}

// destroy releases all targets in reverse creation order.
func (t *targets) destroy(device hal.Device) {
	t.output.destroy(device)
	t.pong.destroy(device)
	t.ping.destroy(device)
	t.reveal.destroy(device)
	t.accum.destroy(device)
	t.depth.destroy(device)
	t.linear.destroy(device)
	t.color.destroy(device)
	t.width, t.height = 0, 0
}
