// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package brushview

import "errors"

var (
	// ErrFrameAbandoned is the cancellation cause of a frame that was in
	// flight when the render targets were resized. Render reissues such
	// frames; it is returned only when reissuing keeps failing.
	ErrFrameAbandoned = errors.New("brushview: frame abandoned by resize")

	// ErrNilFrame is returned when Render is called without a frame.
	ErrNilFrame = errors.New("brushview: nil frame")

	// ErrInvalidSize is returned for non-positive target dimensions.
	ErrInvalidSize = errors.New("brushview: invalid size")

	// ErrClosed is returned by operations on a closed renderer.
	ErrClosed = errors.New("brushview: renderer closed")

	// ErrNoSurface is returned by RenderToSurface when the renderer cannot
	// draw into the given view, either because the backend has no GPU
	// device or because the view is not a HAL texture view.
	ErrNoSurface = errors.New("brushview: surface rendering unavailable")

	// ErrGPUUnavailable is returned when the GPU backend was requested
	// explicitly but no device could be opened.
	ErrGPUUnavailable = errors.New("brushview: GPU backend unavailable")
)
