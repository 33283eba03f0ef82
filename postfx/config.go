// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package postfx

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Default chain parameters.
const (
	DefaultBrightThreshold = 0.8
	DefaultBlurIterations  = 3
	DefaultBloomStrength   = 1.2
	DefaultPixelSize       = 4
	DefaultKuwaharaRadius  = 4
	DefaultChromatic       = 0.005
	// MaxPaletteColors is the size of the palette uniform array.
	MaxPaletteColors = 64
)

// Configuration errors.
var (
	ErrUnknownStyle    = errors.New("postfx: unknown style")
	ErrPaletteTooLarge = errors.New("postfx: palette exceeds 64 colors")
	ErrEmptyPalette    = errors.New("postfx: palette style requires at least one color")
	ErrInvalidConfig   = errors.New("postfx: invalid config")
)

// Style selects the stylization stage. Exactly one style is active.
type Style int

const (
	StyleNone Style = iota
	StylePixelate
	StyleGrayscale
	StylePalette
	StyleKuwahara
)

var styleNames = [...]string{"none", "pixelate", "grayscale", "palette", "kuwahara"}

// String returns the style name as used in config files.
func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// ParseStyle parses a style name.
func ParseStyle(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return StyleNone, nil
	}
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	return StyleNone, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
}

// MarshalYAML implements yaml.Marshaler.
func (s Style) MarshalYAML() (any, error) { return s.String(), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Style) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	v, err := ParseStyle(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Palette is an ordered list of posterize colors, sorted by luminance.
type Palette []mgl32.Vec3

// ParsePalette parses hex colors ("#rrggbb" or "#rgb") into a palette sorted
// by luminance.
func ParsePalette(hex []string) (Palette, error) {
	if len(hex) > MaxPaletteColors {
		return nil, fmt.Errorf("%w: %d", ErrPaletteTooLarge, len(hex))
	}
	p := make(Palette, 0, len(hex))
	for _, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("postfx: palette color %q: %w", h, err)
		}
		c = c.Clamped()
		p = append(p, mgl32.Vec3{float32(c.R), float32(c.G), float32(c.B)})
	}
	sort.SliceStable(p, func(i, j int) bool { return Luminance(p[i]) < Luminance(p[j]) })
	return p, nil
}

// Hex returns the palette as hex strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = colorful.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2])}.Hex()
	}
	return out
}

// MarshalYAML implements yaml.Marshaler.
func (p Palette) MarshalYAML() (any, error) { return p.Hex(), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Palette) UnmarshalYAML(node *yaml.Node) error {
	var hex []string
	if err := node.Decode(&hex); err != nil {
		return err
	}
	v, err := ParsePalette(hex)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// BloomConfig controls bright-pass extraction, blur and composite.
type BloomConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Threshold  float32 `yaml:"threshold"`
	Iterations int     `yaml:"iterations"`
	Strength   float32 `yaml:"strength"`
}

// ChromaticConfig controls chromatic aberration and depth of field.
// The per-channel offset grows with distance from FocusDepth (saturating at
// FocusRange) and with distance from the screen center.
type ChromaticConfig struct {
	Enabled    bool    `yaml:"enabled"`
	FocusDepth float32 `yaml:"focus_depth"`
	FocusRange float32 `yaml:"focus_range"`
	Strength   float32 `yaml:"strength"`
}

// Config describes the whole chain.
type Config struct {
	Bloom          BloomConfig     `yaml:"bloom"`
	Style          Style           `yaml:"style"`
	PixelSize      int             `yaml:"pixel_size"`
	Palette        Palette         `yaml:"palette"`
	KuwaharaRadius int             `yaml:"kuwahara_radius"`
	Chromatic      ChromaticConfig `yaml:"chromatic"`
}

// DefaultConfig returns a config with every stage disabled and all
// parameters at their defaults.
func DefaultConfig() Config {
	return Config{
		Bloom: BloomConfig{
			Threshold:  DefaultBrightThreshold,
			Iterations: DefaultBlurIterations,
			Strength:   DefaultBloomStrength,
		},
		PixelSize:      DefaultPixelSize,
		KuwaharaRadius: DefaultKuwaharaRadius,
		Chromatic: ChromaticConfig{
			FocusRange: 512,
			Strength:   DefaultChromatic,
		},
	}
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	switch {
	case c.Style < StyleNone || c.Style > StyleKuwahara:
		return fmt.Errorf("%w: %d", ErrUnknownStyle, int(c.Style))
	case len(c.Palette) > MaxPaletteColors:
		return ErrPaletteTooLarge
	case c.Style == StylePalette && len(c.Palette) == 0:
		return ErrEmptyPalette
	case c.Bloom.Enabled && c.Bloom.Iterations < 0:
		return fmt.Errorf("%w: negative blur iterations", ErrInvalidConfig)
	case c.Style == StylePixelate && c.PixelSize < 1:
		return fmt.Errorf("%w: pixel size %d", ErrInvalidConfig, c.PixelSize)
	case c.Style == StyleKuwahara && c.KuwaharaRadius < 1:
		return fmt.Errorf("%w: kuwahara radius %d", ErrInvalidConfig, c.KuwaharaRadius)
	case c.Chromatic.FocusRange < 0:
		return fmt.Errorf("%w: negative focus range", ErrInvalidConfig)
	}
	return nil
}

// Active reports whether any stage would modify the image.
func (c Config) Active() bool {
	return c.Bloom.Enabled || c.Style != StyleNone || c.Chromatic.Enabled
}
