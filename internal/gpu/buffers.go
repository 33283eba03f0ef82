// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// minBufferSize is the smallest allocation of a growable buffer.
const minBufferSize = 256

// growBuffer is a GPU buffer that is reallocated at the next power of two
// when a write does not fit. The entity storage buffer uses it so the
// entity count is not capped; the vertex buffer uses it so steady-state
// frames allocate nothing.
type growBuffer struct {
	label string
	usage gputypes.BufferUsage

	buf  hal.Buffer
	size uint64
	// used is the byte length of the last write.
	used uint64
	// grows counts reallocations, for Stats.
	grows int
}

func newGrowBuffer(label string, usage gputypes.BufferUsage, initial uint64) *growBuffer {
	return &growBuffer{label: label, usage: usage | gputypes.BufferUsageCopyDst, size: initial}
}

// write uploads data, growing the buffer first when needed.
func (b *growBuffer) write(device hal.Device, queue hal.Queue, data []byte) error {
	need := max(uint64(len(data)), 4)
	if b.buf == nil || need > b.size {
		size := nextPow2(max(need, b.size, minBufferSize))
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: b.label,
			Size:  size,
			Usage: b.usage,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", b.label, err)
		}
		if b.buf != nil {
			device.DestroyBuffer(b.buf)
			b.grows++
			slogger().Debug("gpu: buffer grown", "buffer", b.label, "size", size)
		}
		b.buf = buf
		b.size = size
	}
	if len(data) > 0 {
		queue.WriteBuffer(b.buf, 0, data)
	}
	b.used = uint64(len(data))
	return nil
}

// binding returns a binding of the written range. Storage bindings cannot
// be zero-sized, so an empty write binds the first four bytes.
func (b *growBuffer) binding() gputypes.BufferBinding {
	return gputypes.BufferBinding{Buffer: b.buf.NativeHandle(), Offset: 0, Size: max(b.used, 4)}
}

func (b *growBuffer) destroy(device hal.Device) {
	if b.buf != nil {
		device.DestroyBuffer(b.buf)
		b.buf = nil
	}
}

func nextPow2(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// createAndUploadBuffer creates a per-frame GPU buffer and uploads data.
func createAndUploadBuffer(device hal.Device, queue hal.Queue, label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	queue.WriteBuffer(buf, 0, data)
	return buf, nil
}
