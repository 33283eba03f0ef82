// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package postfx

// Stage names, in chain order.
const (
	StageBloom     = "bloom"
	StageStyle     = "style"
	StageChromatic = "chromatic"
)

// Chain applies the configured stages in fixed order: bloom, stylization,
// chromatic aberration.
type Chain struct {
	cfg Config
}

// NewChain returns a chain for cfg. cfg is not validated; see Config.Validate.
func NewChain(cfg Config) *Chain {
	return &Chain{cfg: cfg}
}

// Config returns the chain configuration.
func (c *Chain) Config() Config { return c.cfg }

// Stages returns the names of the enabled stages in execution order.
func (c *Chain) Stages() []string {
	var s []string
	if c.cfg.Bloom.Enabled {
		s = append(s, StageBloom)
	}
	if c.cfg.Style != StyleNone {
		s = append(s, StageStyle)
	}
	if c.cfg.Chromatic.Enabled {
		s = append(s, StageChromatic)
	}
	return s
}

// Apply runs every enabled stage on src and returns the result. With no
// stage enabled it returns a copy of src.
func (c *Chain) Apply(src *Image) *Image {
	cur := src
	if c.cfg.Bloom.Enabled {
		cur = Bloom(cur, c.cfg.Bloom)
	}
	cur = c.stylize(cur)
	if c.cfg.Chromatic.Enabled {
		cur = Chromatic(cur, c.cfg.Chromatic)
	}
	if cur == src {
		return src.Clone()
	}
	return cur
}

func (c *Chain) stylize(src *Image) *Image {
	switch c.cfg.Style {
	case StylePixelate:
		return Pixelate(src, c.cfg.PixelSize)
	case StyleGrayscale:
		return Grayscale(src)
	case StylePalette:
		return Posterize(src, c.cfg.Palette)
	case StyleKuwahara:
		return Kuwahara(src, c.cfg.KuwaharaRadius)
	default:
		return src
	}
}
