// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package brushview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/brushview/internal/batch"
	"github.com/gogpu/brushview/internal/parallel"
	"github.com/gogpu/brushview/postfx"
	"github.com/gogpu/brushview/scene"
)

// maxReissues bounds how often one Render call restarts a frame abandoned
// by concurrent resizes.
const maxReissues = 3

// Pass indices for the per-pass arrays of Stats.
const (
	PassSky         = int(batch.PassSky)
	PassOpaque      = int(batch.PassOpaque)
	PassTransparent = int(batch.PassTransparent)
	NumPasses       = int(batch.NumPasses)
)

// Stats describes the last rendered frame.
type Stats struct {
	Backend string
	// Frames counts completed frames since creation.
	Frames uint64
	// Abandoned counts frames restarted because of a resize.
	Abandoned int

	Triangles [NumPasses]int
	Batches   int
	// ClampedEntities and ClampedLayers count vertices whose indices were
	// out of range.
	ClampedEntities int
	ClampedLayers   int

	// Draws is the number of draw calls per pass (GPU backends).
	Draws [NumPasses]int
	// Fragments is the number of shaded fragments per pass and Discarded
	// the number of alpha-tested ones (software backend).
	Fragments [NumPasses]int
	Discarded int
	// PostPasses is the number of post passes including the final blit on
	// the GPU, or the number of enabled stages in software.
	PostPasses    int
	BufferGrowths int

	FrameTime time.Duration
}

// Renderer draws frames. Render, RenderToSurface, LoadMaterials and
// SetPost must be called from one control goroutine; Resize, Size and
// Stats may be called from any goroutine.
type Renderer struct {
	// mu serializes frames and backend access.
	mu      sync.Mutex
	backend backend
	builder *batch.Builder
	pool    *parallel.WorkerPool

	// state guards the fields below, which Resize touches while a frame
	// holds mu.
	state    sync.Mutex
	pending  *image.Point
	inFlight context.CancelCauseFunc
	stats    Stats
	closed   bool
}

// New creates a renderer.
//
// With BackendAuto a GPU device is tried first; if none can be opened the
// software backend is used and a warning is logged. Pipeline creation
// failures are never masked: a GPU that opens but cannot build its
// pipelines makes New fail.
func New(opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.width, o.height)
	}
	if err := o.post.Validate(); err != nil {
		return nil, err
	}

	pool := parallel.NewWorkerPool(o.workers)
	r := &Renderer{
		builder: batch.NewBuilder(pool),
		pool:    pool,
	}

	b, err := openBackend(&o, r.builder, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	r.backend = b
	r.stats.Backend = b.name()
	Logger().Info("brushview: renderer created", "backend", b.name(), "width", o.width, "height", o.height)
	return r, nil
}

func openBackend(o *options, builder *batch.Builder, pool *parallel.WorkerPool) (backend, error) {
	switch o.backend {
	case BackendSoftware:
		return newSoftwareBackend(o, pool)
	case BackendGPU, BackendNoop:
		return newGPUBackend(o, builder)
	case BackendAuto:
		b, err := newGPUBackend(o, builder)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, ErrGPUUnavailable) {
			return nil, err
		}
		Logger().Warn("brushview: falling back to software rendering", "err", err)
		return newSoftwareBackend(o, pool)
	default:
		return nil, fmt.Errorf("brushview: unknown backend %d", int(o.backend))
	}
}

// LoadMaterials resamples and binds the textures of a map.
func (r *Renderer) LoadMaterials(m *Materials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isClosed() {
		return ErrClosed
	}
	if m == nil {
		m = &Materials{}
	}
	if err := r.backend.loadMaterials(m.prepare()); err != nil {
		return fmt.Errorf("brushview: load materials: %w", err)
	}
	Logger().Info("brushview: materials loaded", "layers", len(m.Layers))
	return nil
}

// SetPost replaces the post-process configuration.
func (r *Renderer) SetPost(cfg postfx.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isClosed() {
		return ErrClosed
	}
	r.backend.setPost(cfg)
	return nil
}

// Render draws frame offscreen and returns the final image.
//
// A frame is abandoned when Resize is called while it is in flight; it is
// then reissued at the new size. A cancelled ctx abandons the frame and
// returns ctx.Err().
func (r *Renderer) Render(ctx context.Context, frame *scene.Frame) (*image.RGBA, error) {
	var img *image.RGBA
	err := r.run(ctx, frame, func(fctx context.Context, res *batch.Result) error {
		var err error
		img, err = r.backend.render(fctx, frame, res)
		return err
	})
	return img, err
}

// RenderToSurface draws frame into a host surface view, typically the
// current swapchain image of the window given to WithDeviceProvider. view
// must be a hal.TextureView in the provider's surface format.
func (r *Renderer) RenderToSurface(ctx context.Context, frame *scene.Frame, view any) error {
	return r.run(ctx, frame, func(fctx context.Context, res *batch.Result) error {
		return r.backend.renderToSurface(fctx, frame, res, view)
	})
}

// run batches frame and executes draw, reissuing it when a resize
// abandons it.
func (r *Renderer) run(ctx context.Context, frame *scene.Frame, draw func(context.Context, *batch.Result) error) error {
	if frame == nil {
		return ErrNilFrame
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isClosed() {
		return ErrClosed
	}

	for attempt := 0; ; attempt++ {
		if err := r.applyPending(); err != nil {
			return err
		}
		start := time.Now()

		fctx, cancel := context.WithCancelCause(ctx)
		r.state.Lock()
		r.inFlight = cancel
		stale := r.pending != nil
		r.state.Unlock()

		// A Resize between applyPending and the store above saw no frame
		// in flight; restart so the frame picks up its size.
		var (
			res *batch.Result
			err error
		)
		if stale {
			cancel(ErrFrameAbandoned)
			err = context.Cause(fctx)
		} else {
			res = r.builder.Build(frame, r.backend.layers())
			err = draw(fctx, res)
		}

		r.state.Lock()
		r.inFlight = nil
		r.state.Unlock()
		cause := context.Cause(fctx)
		cancel(nil)

		if err == nil {
			r.recordFrame(res, time.Since(start))
			return nil
		}
		if !errors.Is(cause, ErrFrameAbandoned) || ctx.Err() != nil {
			return err
		}
		r.state.Lock()
		r.stats.Abandoned++
		r.state.Unlock()
		if attempt >= maxReissues {
			return ErrFrameAbandoned
		}
		Logger().Debug("brushview: frame abandoned, reissuing", "attempt", attempt+1)
	}
}

func (r *Renderer) recordFrame(res *batch.Result, elapsed time.Duration) {
	if res.ClampedEntities > 0 || res.ClampedLayers > 0 {
		Logger().Warn("brushview: clamped out-of-range indices",
			"entities", res.ClampedEntities, "layers", res.ClampedLayers)
	}
	r.state.Lock()
	defer r.state.Unlock()
	st := &r.stats
	st.Frames++
	st.Batches = len(res.Batches)
	st.ClampedEntities = res.ClampedEntities
	st.ClampedLayers = res.ClampedLayers
	for p, tris := range res.Triangles {
		st.Triangles[p] = len(tris)
	}
	st.FrameTime = elapsed
	r.backend.fillStats(st)
}

// Resize changes the target size. It may be called from any goroutine; a
// frame in flight is abandoned and reissued at the new size.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	r.state.Lock()
	if r.closed {
		r.state.Unlock()
		return ErrClosed
	}
	r.pending = &image.Point{X: width, Y: height}
	cancel := r.inFlight
	r.state.Unlock()

	if cancel != nil {
		cancel(ErrFrameAbandoned)
		return nil
	}
	// No frame in flight: apply now unless Render holds the lock, in which
	// case its next frame picks up the pending size before drawing.
	if r.mu.TryLock() {
		defer r.mu.Unlock()
		return r.applyPending()
	}
	return nil
}

// applyPending resizes the backend to the latest requested size. Callers
// hold mu.
func (r *Renderer) applyPending() error {
	r.state.Lock()
	p := r.pending
	r.pending = nil
	r.state.Unlock()
	if p == nil {
		return nil
	}
	if w, h := r.backend.size(); w == p.X && h == p.Y {
		return nil
	}
	if err := r.backend.resize(p.X, p.Y); err != nil {
		return fmt.Errorf("brushview: resize: %w", err)
	}
	Logger().Debug("brushview: resized", "width", p.X, "height", p.Y)
	return nil
}

// Size returns the target size, including a resize not yet applied.
func (r *Renderer) Size() (int, int) {
	r.state.Lock()
	if p := r.pending; p != nil {
		r.state.Unlock()
		return p.X, p.Y
	}
	r.state.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.size()
}

// Backend returns the name of the active backend.
func (r *Renderer) Backend() string {
	r.state.Lock()
	defer r.state.Unlock()
	return r.stats.Backend
}

// Stats returns the statistics of the last completed frame.
func (r *Renderer) Stats() Stats {
	r.state.Lock()
	defer r.state.Unlock()
	return r.stats
}

func (r *Renderer) isClosed() bool {
	r.state.Lock()
	defer r.state.Unlock()
	return r.closed
}

// Close releases the backend and the worker pool. Safe to call multiple
// times.
func (r *Renderer) Close() {
	r.state.Lock()
	if r.closed {
		r.state.Unlock()
		return
	}
	r.closed = true
	if r.inFlight != nil {
		r.inFlight(ErrClosed)
	}
	r.state.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.close()
	r.pool.Close()
}
