// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import "errors"

var (
	// ErrShaderCompile is returned when a WGSL module or a pipeline built
	// from it cannot be created.
	ErrShaderCompile = errors.New("gpu: shader compilation failed")

	// ErrNoAdapter is returned when a backend exposes no adapters.
	ErrNoAdapter = errors.New("gpu: no adapter available")

	// ErrBackendUnavailable is returned when the requested HAL backend is
	// not compiled in.
	ErrBackendUnavailable = errors.New("gpu: backend not available")

	// ErrInvalidSize is returned for non-positive target dimensions.
	ErrInvalidSize = errors.New("gpu: invalid target size")

	// ErrNoHAL is returned when a device provider does not expose HAL
	// device and queue handles.
	ErrNoHAL = errors.New("gpu: provider does not expose HAL types")

	// ErrClosed is returned by operations on a closed renderer.
	ErrClosed = errors.New("gpu: renderer closed")
)
