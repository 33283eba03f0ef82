// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gogpu/brushview"
	"github.com/gogpu/brushview/scene"
)

func TestDemoMaterials(t *testing.T) {
	m := demoMaterials()
	if got := len(m.Layers); got != layerFlame+flameFrames {
		t.Errorf("layers = %d, want %d", got, layerFlame+flameFrames)
	}
	for i, l := range m.Layers {
		if l.Bounds().Dx() != demoTexSize {
			t.Errorf("layer %d width = %d", i, l.Bounds().Dx())
		}
	}
	for i, f := range m.Sky {
		if f == nil {
			t.Errorf("sky face %d missing", i)
		}
	}
}

func TestDemoFrame(t *testing.T) {
	frame := demoFrame(320, 240, 1.5, scene.FlagShowNoDraw)
	if frame.Transforms.Len() != 3 {
		t.Errorf("entities = %d, want 3", frame.Transforms.Len())
	}
	for i, m := range frame.Meshes {
		if len(m.Vertices)%3 != 0 {
			t.Errorf("mesh %d has a partial triangle", i)
		}
	}
	if !frame.Flags.Has(scene.FlagShowNoDraw) {
		t.Error("flags not applied")
	}
}

func TestDemoRenderSoftware(t *testing.T) {
	r, err := brushview.New(brushview.WithSize(64, 48), brushview.WithBackend(brushview.BackendSoftware))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r.Close()
	if err := r.LoadMaterials(demoMaterials()); err != nil {
		t.Fatalf("LoadMaterials failed: %v", err)
	}
	if _, err := r.Render(context.Background(), demoFrame(64, 48, 0.5, 0)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	st := r.Stats()
	if st.Triangles[brushview.PassSky] != 2 {
		t.Errorf("sky triangles = %d, want 2", st.Triangles[brushview.PassSky])
	}
	if st.Triangles[brushview.PassTransparent] != 4 {
		t.Errorf("transparent triangles = %d, want 4 (glass and sprite)", st.Triangles[brushview.PassTransparent])
	}

	var buf bytes.Buffer
	writeStats(&buf, st)
	for _, want := range []string{"sky", "opaque", "transparent", "software"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("stats table missing %q:\n%s", want, buf.String())
		}
	}
}

func TestWriteAdapters(t *testing.T) {
	var buf bytes.Buffer
	writeAdapters(&buf, []brushview.AdapterInfo{{Name: "Test GPU", Backend: "vulkan", Type: "discrete"}})
	if !strings.Contains(buf.String(), "Test GPU") || !strings.Contains(buf.String(), "discrete") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
}
