// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/brushview/postfx"
)

func newTestTargets(t *testing.T, w, h uint32) (*Device, *targets, func()) {
	t.Helper()
	dev, cleanup := createNoopDevice(t)
	tg := &targets{}
	if err := tg.ensure(dev.device, w, h); err != nil {
		cleanup()
		t.Fatalf("ensure failed: %v", err)
	}
	return dev, tg, func() {
		tg.destroy(dev.device)
		cleanup()
	}
}

func entries(passes []postPass) []string {
	out := make([]string, len(passes))
	for i, p := range passes {
		out[i] = p.entry
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPlanPostDisabled(t *testing.T) {
	_, tg, cleanup := newTestTargets(t, 64, 32)
	defer cleanup()

	passes, final := planPost(postfx.DefaultConfig(), tg)
	if len(passes) != 0 {
		t.Errorf("expected no passes, got %v", entries(passes))
	}
	if final != tg.color.view {
		t.Error("final view should be the scene color target")
	}
}

func TestPlanPostOrder(t *testing.T) {
	_, tg, cleanup := newTestTargets(t, 64, 32)
	defer cleanup()

	cfg := postfx.DefaultConfig()
	cfg.Bloom.Enabled = true
	cfg.Bloom.Iterations = 2
	cfg.Style = postfx.StyleKuwahara
	cfg.Chromatic.Enabled = true

	passes, final := planPost(cfg, tg)
	want := []string{entryBright, entryBlur, entryBlur, entryComposite, entryKuwahara, entryChromatic}
	if got := entries(passes); !equalStrings(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}

	// Composite reads the unmodified scene and the blurred image.
	comp := passes[3]
	if comp.src != tg.color.view {
		t.Error("composite src should be the scene color")
	}
	if comp.aux != passes[2].dst {
		t.Error("composite aux should be the last blur output")
	}

	for i, p := range passes {
		if p.src == p.dst {
			t.Errorf("pass %d (%s) reads and writes the same view", i, p.entry)
		}
		if p.dst != tg.ping.view && p.dst != tg.pong.view {
			t.Errorf("pass %d (%s) writes outside the intermediates", i, p.entry)
		}
	}
	for i := 1; i < len(passes); i++ {
		if i == 1 || i == 2 {
			if passes[i].src != passes[i-1].dst {
				t.Errorf("blur %d does not read the previous output", i)
			}
		}
	}
	if passes[4].src != comp.dst || passes[5].src != passes[4].dst {
		t.Error("style and chromatic must chain from the previous stage")
	}
	if final != passes[5].dst {
		t.Error("final view should be the chromatic output")
	}

	if passes[1].params.blurOffset != 1 || passes[2].params.blurOffset != 2 {
		t.Errorf("blur offsets = %v, %v; want 1, 2", passes[1].params.blurOffset, passes[2].params.blurOffset)
	}
	if !passes[5].params.hasDepth || passes[5].aux != tg.linear.view {
		t.Error("chromatic should read linear depth")
	}
}

func TestPlanPostStyleOnly(t *testing.T) {
	_, tg, cleanup := newTestTargets(t, 16, 16)
	defer cleanup()

	tests := []struct {
		style postfx.Style
		entry string
	}{
		{postfx.StylePixelate, entryPixelate},
		{postfx.StyleGrayscale, entryGrayscale},
		{postfx.StylePalette, entryPosterize},
		{postfx.StyleKuwahara, entryKuwahara},
	}
	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			cfg := postfx.DefaultConfig()
			cfg.Style = tt.style
			cfg.Palette = postfx.Palette{{0, 0, 0}, {1, 1, 1}}
			passes, final := planPost(cfg, tg)
			if len(passes) != 1 || passes[0].entry != tt.entry {
				t.Fatalf("entries = %v, want [%s]", entries(passes), tt.entry)
			}
			if passes[0].src != tg.color.view || final != passes[0].dst {
				t.Error("single stage should read color and produce the final view")
			}
		})
	}
}

func TestPlanPostZeroIterations(t *testing.T) {
	_, tg, cleanup := newTestTargets(t, 16, 16)
	defer cleanup()

	cfg := postfx.DefaultConfig()
	cfg.Bloom.Enabled = true
	cfg.Bloom.Iterations = 0
	passes, _ := planPost(cfg, tg)
	want := []string{entryBright, entryComposite}
	if got := entries(passes); !equalStrings(got, want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	if passes[1].aux != passes[0].dst {
		t.Error("composite should read the bright pass directly")
	}
}

func TestPostParamsBytes(t *testing.T) {
	p := postParams{
		width: 200, height: 100,
		threshold: 0.8, strength: 1.2, blurOffset: 3,
		pixelSize: 4, radius: 5,
		focusDepth: 100, focusRange: 50, chroma: 0.01,
		hasDepth: true,
		palette:  postfx.Palette{mgl32.Vec3{1, 0.5, 0.25}},
	}
	buf := p.bytes()
	if len(buf) != postUniformSize {
		t.Fatalf("len = %d, want %d", len(buf), postUniformSize)
	}
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	u := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }

	if f(0) != 1.0/200 || f(4) != 1.0/100 {
		t.Errorf("texel = (%v, %v)", f(0), f(4))
	}
	if f(8) != 200 || f(12) != 100 {
		t.Errorf("size = (%v, %v)", f(8), f(12))
	}
	if f(16) != 0.8 || f(20) != 1.2 || f(24) != 3 {
		t.Errorf("bloom params = %v %v %v", f(16), f(20), f(24))
	}
	if u(28) != 4 || u(32) != 5 {
		t.Errorf("pixel/radius = %d %d", u(28), u(32))
	}
	if u(48) != 1 || u(52) != 1 {
		t.Errorf("palette count/has depth = %d %d", u(48), u(52))
	}
	if f(64) != 1 || f(68) != 0.5 || f(72) != 0.25 || f(76) != 1 {
		t.Errorf("palette[0] = %v %v %v %v", f(64), f(68), f(72), f(76))
	}
}

func TestPostParamsPaletteTruncated(t *testing.T) {
	p := postParams{width: 1, height: 1, palette: make(postfx.Palette, postfx.MaxPaletteColors+8)}
	buf := p.bytes()
	if n := binary.LittleEndian.Uint32(buf[48:]); n != postfx.MaxPaletteColors {
		t.Errorf("palette count = %d, want %d", n, postfx.MaxPaletteColors)
	}
}
