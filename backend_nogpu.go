// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

package brushview

import (
	"log/slog"

	"github.com/gogpu/brushview/internal/batch"
)

// AdapterInfo describes a GPU adapter.
type AdapterInfo struct {
	Name    string
	Backend string
	Type    string
}

// ListAdapters returns no adapters in builds without GPU support.
func ListAdapters(Backend) ([]AdapterInfo, error) {
	return nil, ErrGPUUnavailable
}

func propagateLogger(*slog.Logger) {}

func newGPUBackend(*options, *batch.Builder) (backend, error) {
	return nil, ErrGPUUnavailable
}
