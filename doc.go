// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package brushview renders legacy brush, model and sprite scenes with
// weighted blended order-independent transparency and a post-process chain.
//
// # Quick Start
//
//	r, err := brushview.New(brushview.WithSize(1280, 720))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	img, err := r.Render(ctx, frame)
//
// A frame is a camera, an entity transform store and a list of triangle
// meshes whose vertices carry a typed [scene.Surface]. Every frame runs the
// same pass sequence:
//
//   - depth/mask prepass for sky faces, then the skybox where they drew
//   - opaque pass for lit world brushes and models
//   - transparency accumulation for every other surface
//   - resolve of the accumulated transparency over the opaque image
//   - the configured post-process stages and the final blit
//
// # Backends
//
// The GPU backend runs on gogpu/wgpu. When no adapter is available the
// renderer falls back to the software backend, which executes the same
// passes on the CPU. [WithDeviceProvider] shares the device of a gogpu
// window so frames can be drawn straight into its surface with
// [Renderer.RenderToSurface].
//
// # Resizing
//
// [Renderer.Resize] may be called from any goroutine. A frame in flight
// when the size changes is abandoned and reissued at the new size.
//
// # Logging
//
// brushview is silent by default. Call [SetLogger] to enable structured
// logging through log/slog.
package brushview
