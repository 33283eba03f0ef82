// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/brushview/internal/batch"
	"github.com/gogpu/brushview/postfx"
	"github.com/gogpu/brushview/scene"
)

func tri(s scene.Surface, entity, layer uint32, z float32) []scene.Vertex {
	pos := []mgl32.Vec3{{-1, -1, z}, {1, -1, z}, {0, 1, z}}
	out := make([]scene.Vertex, 3)
	for i := range out {
		out[i] = scene.Vertex{
			Position: pos[i],
			TexCoord: mgl32.Vec2{pos[i][0], pos[i][1]},
			Normal:   mgl32.Vec3{0, 0, 1},
			Layer:    layer,
			Entity:   entity,
			Surface:  s,
		}
	}
	return out
}

func testFrame() *scene.Frame {
	tr := scene.NewTransforms(0)
	tr.Append(mgl32.Ident4())
	tr.Append(mgl32.Translate3D(0, 0, -1))

	var verts []scene.Vertex
	verts = append(verts, tri(scene.BrushSurface{RenderMode: scene.RenderNormal, RenderAmt: 1}, 0, 0, -5)...)
	verts = append(verts, tri(scene.BrushSurface{RenderMode: scene.RenderNormal, Flags: scene.BrushSky}, 0, 0, -9)...)
	verts = append(verts, tri(scene.BrushSurface{RenderMode: scene.RenderTexture, RenderAmt: 0.5}, 1, 0, -3)...)
	verts = append(verts, tri(scene.ModelSurface{}, 1, 0, -4)...)
	verts = append(verts, tri(scene.SpriteSurface{RenderMode: scene.RenderAdditive, FrameCount: 1, FrameRate: 10}, 0, 0, -2)...)

	return &scene.Frame{
		Camera:     scene.LookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, 90, 1, 0.1, 100),
		Transforms: tr,
		Time:       0.25,
		Meshes:     []scene.Mesh{{Vertices: verts}},
	}
}

func newTestRenderer(t *testing.T, w, h int, cfg postfx.Config) (*Renderer, func()) {
	t.Helper()
	dev, cleanup := createNoopDevice(t)
	r, err := New(dev, Options{Width: w, Height: h, Post: cfg})
	if err != nil {
		cleanup()
		t.Fatalf("New failed: %v", err)
	}
	return r, func() {
		r.Close()
		cleanup()
	}
}

func prepare(r *Renderer, frame *scene.Frame) (*batch.Result, []byte) {
	b := batch.NewBuilder(nil)
	res := b.Build(frame, r.Layers())
	return res, b.Pack(res)
}

func TestNewInvalidSize(t *testing.T) {
	dev, cleanup := createNoopDevice(t)
	defer cleanup()

	_, err := New(dev, Options{Width: 0, Height: 10})
	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("err = %v, want ErrInvalidSize", err)
	}
}

func TestRendererRender(t *testing.T) {
	r, cleanup := newTestRenderer(t, 96, 64, postfx.DefaultConfig())
	defer cleanup()

	frame := testFrame()
	res, verts := prepare(r, frame)
	img, err := r.Render(context.Background(), frame, res, verts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 96 || b.Dy() != 64 {
		t.Errorf("image size = %v, want 96x64", b.Size())
	}

	st := r.Stats()
	if st.Frames != 1 {
		t.Errorf("Frames = %d, want 1", st.Frames)
	}
	if st.Vertices != 15 {
		t.Errorf("Vertices = %d, want 15", st.Vertices)
	}
	if st.Draws[batch.PassSky] != 1 || st.Draws[batch.PassOpaque] == 0 || st.Draws[batch.PassTransparent] == 0 {
		t.Errorf("Draws = %v", st.Draws)
	}
	if st.PostPasses != 1 {
		t.Errorf("PostPasses = %d, want only the final blit", st.PostPasses)
	}
}

func TestRendererPassToggles(t *testing.T) {
	tests := []struct {
		name        string
		flags       scene.RenderFlags
		sky, transp int
	}{
		{"all passes", 0, 1, 1},
		{"skybox hidden", scene.FlagHideSkybox, 0, 1},
		{"transparent hidden", scene.FlagHideTransparent, 1, 0},
		{"beyond sky", scene.FlagBeyondSky, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, cleanup := newTestRenderer(t, 16, 16, postfx.DefaultConfig())
			defer cleanup()

			frame := testFrame()
			frame.Flags = tt.flags
			res, verts := prepare(r, frame)
			if _, err := r.Render(context.Background(), frame, res, verts); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			st := r.Stats()
			if st.Draws[batch.PassSky] != tt.sky {
				t.Errorf("sky draws = %d, want %d", st.Draws[batch.PassSky], tt.sky)
			}
			if st.Draws[batch.PassTransparent] != tt.transp {
				t.Errorf("transparent draws = %d, want %d", st.Draws[batch.PassTransparent], tt.transp)
			}
			if st.Draws[batch.PassOpaque] == 0 {
				t.Error("opaque pass skipped")
			}
		})
	}
}

func TestRendererRenderEmptyFrame(t *testing.T) {
	r, cleanup := newTestRenderer(t, 8, 8, postfx.DefaultConfig())
	defer cleanup()

	frame := &scene.Frame{Camera: scene.NewCamera(mgl32.Ident4(), mgl32.Ident4(), mgl32.Vec3{})}
	res, verts := prepare(r, frame)
	if _, err := r.Render(context.Background(), frame, res, verts); err != nil {
		t.Fatalf("Render of empty frame failed: %v", err)
	}
	if st := r.Stats(); st.Vertices != 0 {
		t.Errorf("Vertices = %d, want 0", st.Vertices)
	}
}

func TestRendererPostPasses(t *testing.T) {
	cfg := postfx.DefaultConfig()
	cfg.Bloom.Enabled = true
	cfg.Bloom.Iterations = 3
	cfg.Style = postfx.StylePixelate
	cfg.Chromatic.Enabled = true

	r, cleanup := newTestRenderer(t, 32, 32, cfg)
	defer cleanup()

	frame := testFrame()
	res, verts := prepare(r, frame)
	if _, err := r.Render(context.Background(), frame, res, verts); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// bright + 3 blur + composite + pixelate + chromatic + blit
	if got := r.Stats().PostPasses; got != 8 {
		t.Errorf("PostPasses = %d, want 8", got)
	}

	r.SetPost(postfx.DefaultConfig())
	if _, err := r.Render(context.Background(), frame, res, verts); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := r.Stats().PostPasses; got != 1 {
		t.Errorf("PostPasses after SetPost = %d, want 1", got)
	}
}

func TestRendererCancelledContext(t *testing.T) {
	r, cleanup := newTestRenderer(t, 16, 16, postfx.DefaultConfig())
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frame := testFrame()
	res, verts := prepare(r, frame)
	if _, err := r.Render(ctx, frame, res, verts); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if st := r.Stats(); st.Frames != 0 {
		t.Errorf("cancelled frame was counted")
	}
}

func TestRendererResize(t *testing.T) {
	r, cleanup := newTestRenderer(t, 16, 16, postfx.DefaultConfig())
	defer cleanup()

	if err := r.Resize(40, 20); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if w, h := r.Size(); w != 40 || h != 20 {
		t.Errorf("Size = %dx%d, want 40x20", w, h)
	}
	if err := r.Resize(-1, 5); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("err = %v, want ErrInvalidSize", err)
	}

	frame := testFrame()
	res, verts := prepare(r, frame)
	img, err := r.Render(context.Background(), frame, res, verts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("image size = %v, want 40x20", b.Size())
	}
}

func TestRendererLoadMaterials(t *testing.T) {
	r, cleanup := newTestRenderer(t, 16, 16, postfx.DefaultConfig())
	defer cleanup()

	if got := r.Layers(); got != 1 {
		t.Errorf("fallback layers = %d, want 1", got)
	}
	set := MaterialSet{}
	for i := 0; i < 4; i++ {
		set.Layers = append(set.Layers, solid(testColor(i)))
	}
	if err := r.LoadMaterials(set); err != nil {
		t.Fatalf("LoadMaterials failed: %v", err)
	}
	if got := r.Layers(); got != 4 {
		t.Errorf("layers = %d, want 4", got)
	}
}

func TestRendererRenderToView(t *testing.T) {
	r, cleanup := newTestRenderer(t, 16, 16, postfx.DefaultConfig())
	defer cleanup()

	// A second output target stands in for a swapchain image.
	surface, err := newTarget(r.dev.device, "surface", 16, 16,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureUsageRenderAttachment)
	if err != nil {
		t.Fatalf("newTarget failed: %v", err)
	}
	defer surface.destroy(r.dev.device)

	frame := testFrame()
	res, verts := prepare(r, frame)
	for i := 0; i < 2; i++ {
		if err := r.RenderToView(context.Background(), frame, res, verts, surface.view, gputypes.TextureFormatBGRA8Unorm); err != nil {
			t.Fatalf("RenderToView failed: %v", err)
		}
	}
	if n := len(r.post.blits); n != 1 {
		t.Errorf("blit pipelines = %d, want 1 cached for BGRA8", n)
	}
}

func TestRendererClosed(t *testing.T) {
	r, cleanup := newTestRenderer(t, 16, 16, postfx.DefaultConfig())
	defer cleanup()

	r.Close()
	r.Close()

	frame := testFrame()
	res, verts := prepare(r, frame)
	if _, err := r.Render(context.Background(), frame, res, verts); !errors.Is(err, ErrClosed) {
		t.Errorf("Render err = %v, want ErrClosed", err)
	}
	if err := r.Resize(8, 8); !errors.Is(err, ErrClosed) {
		t.Errorf("Resize err = %v, want ErrClosed", err)
	}
}

func TestSkyUniforms(t *testing.T) {
	cam := scene.LookAt(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, 90, 1, 0.1, 100)
	buf := skyUniforms(cam)
	if len(buf) != skyUniformSize {
		t.Fatalf("len = %d, want %d", len(buf), skyUniformSize)
	}
}
