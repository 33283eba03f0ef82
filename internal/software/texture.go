// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/brushview/postfx"
)

// Cube face order, matching the GPU cubemap layers.
const (
	FacePosX = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// Materials are the CPU copies of the bound textures.
type Materials struct {
	// layers[i] is the full mip chain of albedo layer i.
	layers   [][]*postfx.Image
	lightmap *postfx.Image
	sky      [6]*postfx.Image
	size     mgl32.Vec2
}

// NewMaterials converts decoded images into sampled textures. All layers
// must share one size; the caller resamples them first. A nil lightmap
// samples as white, nil sky faces as black.
func NewMaterials(layers []image.Image, lightmap image.Image, sky [6]image.Image) *Materials {
	m := &Materials{}
	for _, l := range layers {
		m.layers = append(m.layers, postfx.MipChain(postfx.FromImage(l)))
	}
	if len(m.layers) > 0 {
		base := m.layers[0][0]
		m.size = mgl32.Vec2{float32(base.Width), float32(base.Height)}
	}
	if lightmap != nil {
		m.lightmap = postfx.FromImage(lightmap)
	}
	for i, f := range sky {
		if f != nil {
			m.sky[i] = postfx.FromImage(f)
		}
	}
	return m
}

// Layers returns the number of albedo layers.
func (m *Materials) Layers() uint32 {
	if m == nil {
		return 0
	}
	return uint32(len(m.layers))
}

// Size returns the common albedo size in texels.
func (m *Materials) Size() mgl32.Vec2 {
	if m == nil || len(m.layers) == 0 {
		return mgl32.Vec2{1, 1}
	}
	return m.size
}

// Albedo samples a layer with repeat addressing and trilinear filtering.
// Missing layers sample as opaque magenta.
func (m *Materials) Albedo(layer uint32, uv mgl32.Vec2, mip float32) mgl32.Vec4 {
	if m == nil || len(m.layers) == 0 {
		return mgl32.Vec4{1, 0, 1, 1}
	}
	chain := m.layers[min(int(layer), len(m.layers)-1)]
	u, v := fract(uv[0]), fract(uv[1])

	mip = mgl32.Clamp(mip, 0, float32(len(chain)-1))
	lo := int(mip)
	hi := min(lo+1, len(chain)-1)
	a := chain[lo].Sample(u, v)
	if hi == lo {
		return a
	}
	b := chain[hi].Sample(u, v)
	t := mip - float32(lo)
	return a.Add(b.Sub(a).Mul(t))
}

// Lightmap samples the shared lightmap.
func (m *Materials) Lightmap(uv mgl32.Vec2) mgl32.Vec3 {
	if m == nil || m.lightmap == nil {
		return mgl32.Vec3{1, 1, 1}
	}
	return m.lightmap.Sample(uv[0], uv[1]).Vec3()
}

// Sky samples the cubemap along a world direction.
func (m *Materials) Sky(dir mgl32.Vec3) mgl32.Vec3 {
	if m == nil {
		return mgl32.Vec3{}
	}
	face, u, v := cubeCoord(dir)
	if m.sky[face] == nil {
		return mgl32.Vec3{}
	}
	return m.sky[face].Sample(u, v).Vec3()
}

// cubeCoord maps a direction to a cube face and face coordinates using the
// usual major-axis convention.
func cubeCoord(d mgl32.Vec3) (face int, u, v float32) {
	ax, ay, az := abs(d[0]), abs(d[1]), abs(d[2])
	var sc, tc, ma float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if d[0] > 0 {
			face, sc, tc = FacePosX, -d[2], -d[1]
		} else {
			face, sc, tc = FaceNegX, d[2], -d[1]
		}
	case ay >= az:
		ma = ay
		if d[1] > 0 {
			face, sc, tc = FacePosY, d[0], d[2]
		} else {
			face, sc, tc = FaceNegY, d[0], -d[2]
		}
	default:
		ma = az
		if d[2] > 0 {
			face, sc, tc = FacePosZ, d[0], -d[1]
		} else {
			face, sc, tc = FaceNegZ, -d[0], -d[1]
		}
	}
	if ma == 0 {
		return FacePosX, 0.5, 0.5
	}
	return face, (sc/ma + 1) / 2, (tc/ma + 1) / 2
}

func fract(x float32) float32 {
	return x - float32(math.Floor(float64(x)))
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
