// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shade

import "math"

// SpriteLayer returns the texture-array layer of the current animation
// frame: base advanced by floor(time*rate) mod count.
func SpriteLayer(base uint32, time float64, rate float32, count uint32) uint32 {
	if count <= 1 || rate <= 0 || time <= 0 {
		return base
	}
	frame := uint64(math.Floor(time*float64(rate))) % uint64(count)
	return base + uint32(frame)
}

// ClampLayer bounds a layer index to the number of bound layers.
func ClampLayer(layer, count uint32) uint32 {
	if count == 0 {
		return 0
	}
	return min(layer, count-1)
}
