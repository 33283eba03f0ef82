// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package brushview

import (
	"context"
	"image"

	"github.com/gogpu/brushview/internal/batch"
	"github.com/gogpu/brushview/internal/parallel"
	"github.com/gogpu/brushview/internal/software"
	"github.com/gogpu/brushview/postfx"
	"github.com/gogpu/brushview/scene"
)

// backend is one way of executing the pass sequence. Calls are serialized
// by the Renderer.
type backend interface {
	name() string
	// layers is the number of bound albedo layers, used to clamp vertex
	// layer indices during batching.
	layers() uint32
	loadMaterials(m preparedMaterials) error
	setPost(cfg postfx.Config)
	resize(w, h int) error
	size() (int, int)
	render(ctx context.Context, frame *scene.Frame, res *batch.Result) (*image.RGBA, error)
	renderToSurface(ctx context.Context, frame *scene.Frame, res *batch.Result, view any) error
	fillStats(st *Stats)
	close()
}

// softwareBackend runs the pass sequence on the CPU.
type softwareBackend struct {
	r         *software.Renderer
	pool      *parallel.WorkerPool
	chain     *postfx.Chain
	materials *software.Materials
}

func newSoftwareBackend(o *options, pool *parallel.WorkerPool) (*softwareBackend, error) {
	r, err := software.New(o.width, o.height, pool, Logger())
	if err != nil {
		return nil, err
	}
	return &softwareBackend{r: r, pool: pool, chain: postfx.NewChain(o.post)}, nil
}

func (b *softwareBackend) name() string { return BackendSoftware.String() }

func (b *softwareBackend) layers() uint32 { return b.materials.Layers() }

func (b *softwareBackend) loadMaterials(m preparedMaterials) error {
	layers := make([]image.Image, len(m.layers))
	for i, l := range m.layers {
		layers[i] = l
	}
	var lightmap image.Image
	if m.lightmap != nil {
		lightmap = m.lightmap
	}
	var sky [6]image.Image
	for i, f := range m.sky {
		if f != nil {
			sky[i] = f
		}
	}
	b.materials = software.NewMaterials(layers, lightmap, sky)
	b.r.SetMaterials(b.materials)
	return nil
}

func (b *softwareBackend) setPost(cfg postfx.Config) { b.chain = postfx.NewChain(cfg) }

// resize replaces the renderer; its targets are sized at creation.
func (b *softwareBackend) resize(w, h int) error {
	r, err := software.New(w, h, b.pool, Logger())
	if err != nil {
		return err
	}
	r.SetMaterials(b.materials)
	b.r = r
	return nil
}

func (b *softwareBackend) size() (int, int) { return b.r.Size() }

func (b *softwareBackend) render(ctx context.Context, frame *scene.Frame, res *batch.Result) (*image.RGBA, error) {
	img, err := b.r.Render(ctx, frame, res, b.chain)
	if err != nil {
		return nil, err
	}
	return img.RGBA(), nil
}

func (b *softwareBackend) renderToSurface(context.Context, *scene.Frame, *batch.Result, any) error {
	return ErrNoSurface
}

func (b *softwareBackend) fillStats(st *Stats) {
	s := b.r.Stats()
	st.Fragments = s.Fragments
	st.Discarded = s.Discarded
	st.PostPasses = len(b.chain.Stages())
}

func (b *softwareBackend) close() {}
