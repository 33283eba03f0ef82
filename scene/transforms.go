// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "github.com/go-gl/mathgl/mgl32"

// DefaultEntityCapacity matches the legacy constant-buffer limit. It is only
// the initial allocation: Transforms grows past it on demand.
const DefaultEntityCapacity = 1024

// Transforms stores one model matrix per entity, addressed by the entity
// index carried on every vertex.
//
// The store is the single CPU to GPU synchronization point of a frame: it is
// filled by the controller before the frame is submitted and read-only
// afterwards.
type Transforms struct {
	matrices []mgl32.Mat4
}

// NewTransforms returns an empty store with room for capacity entities.
// A non-positive capacity selects DefaultEntityCapacity.
func NewTransforms(capacity int) *Transforms {
	if capacity <= 0 {
		capacity = DefaultEntityCapacity
	}
	return &Transforms{matrices: make([]mgl32.Mat4, 0, capacity)}
}

// Set stores m at entity index i, growing the store as needed. Gaps created
// by growth are filled with identity matrices.
func (t *Transforms) Set(i int, m mgl32.Mat4) {
	if i < 0 {
		return
	}
	for len(t.matrices) <= i {
		t.matrices = append(t.matrices, mgl32.Ident4())
	}
	t.matrices[i] = m
}

// Append stores m at the next free index and returns that index.
func (t *Transforms) Append(m mgl32.Mat4) int {
	t.matrices = append(t.matrices, m)
	return len(t.matrices) - 1
}

// At returns the matrix for entity i. Out-of-range indices are clamped to
// the nearest valid entry; an empty store yields identity.
func (t *Transforms) At(i int) mgl32.Mat4 {
	if t == nil || len(t.matrices) == 0 {
		return mgl32.Ident4()
	}
	return t.matrices[t.Clamp(i)]
}

// Clamp maps an arbitrary entity index into [0, Len()-1]. It returns 0 for an
// empty store.
func (t *Transforms) Clamp(i int) int {
	if t == nil || i <= 0 || len(t.matrices) == 0 {
		return 0
	}
	if i >= len(t.matrices) {
		return len(t.matrices) - 1
	}
	return i
}

// Len returns the number of stored entities.
func (t *Transforms) Len() int {
	if t == nil {
		return 0
	}
	return len(t.matrices)
}

// Matrices returns the backing slice. Callers must treat it as read-only.
func (t *Transforms) Matrices() []mgl32.Mat4 {
	if t == nil {
		return nil
	}
	return t.matrices
}

// Reset empties the store while keeping its allocation.
func (t *Transforms) Reset() {
	t.matrices = t.matrices[:0]
}
