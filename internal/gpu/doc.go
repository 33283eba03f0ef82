// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu renders brushview frames through the gogpu/wgpu HAL.
//
// A frame is drawn in a fixed pass sequence:
//
//	upload    frame uniforms, entity matrices, packed vertices
//	scene     depth/stencil prepass for sky faces, skybox, opaque surfaces
//	accum     weighted blended transparency into accum + reveal targets
//	resolve   average transparent color composited over the scene
//	post      bloom, stylization, chromatic aberration, final blit
//
// The scene pass writes an RGBA16Float color target, an R32Float linear
// depth target and a Depth24PlusStencil8 attachment. The accumulation pass
// shares that depth attachment read-only, so transparent fragments behind
// opaque geometry are rejected by the hardware depth test.
//
// Pipelines are created once per Renderer. Shader compilation failure is
// fatal: New returns an error wrapping ErrShaderCompile and never renders
// partially.
//
// # Devices
//
// OpenNoop opens the no-op HAL backend used by tests, Open opens a real
// backend, and FromProvider borrows the device of a gogpu window through
// gpucontext.DeviceProvider. A borrowed device is never destroyed by Close.
package gpu
