// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import "sync"

// BufferPool recycles packed vertex buffers between frames. After warmup
// a steady scene packs without allocating.
//
// Usage:
//
//	buf := pool.Get(n)
//	defer pool.Put(buf)
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

// Get returns a buffer of exactly n bytes. Its
// contents are unspecified.
func (p *BufferPool) Get(n int) []byte {
	if v, ok := p.pool.Get().(*[]byte); ok && cap(*v) >= n {
		return (*v)[:n]
	}
	return make([]byte, n)
}

// Put returns buf to the pool. nil and empty buffers are dropped.
func (p *BufferPool) Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:0]
	p.pool.Put(&buf)
}
