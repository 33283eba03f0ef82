// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package postfx

// Downsample halves the image in both dimensions with a 2x2 box filter,
// producing the next mip level. Odd edges are clamped. A 1x1 image is
// returned as a copy.
func Downsample(src *Image) *Image {
	w, h := max(src.Width/2, 1), max(src.Height/2, 1)
	out := NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := x*2, y*2
			sum := src.At(sx, sy).
				Add(src.At(sx+1, sy)).
				Add(src.At(sx, sy+1)).
				Add(src.At(sx+1, sy+1))
			out.Pix[y*w+x] = sum.Mul(0.25)
		}
	}
	return out
}

// MipChain returns src followed by every successive Downsample down to 1x1.
func MipChain(src *Image) []*Image {
	chain := []*Image{src}
	for cur := src; cur.Width > 1 || cur.Height > 1; {
		cur = Downsample(cur)
		chain = append(chain, cur)
	}
	return chain
}

// MipLevels returns the number of levels in a full chain for the given size.
func MipLevels(w, h int) int {
	n := 1
	for w > 1 || h > 1 {
		w, h = max(w/2, 1), max(h/2, 1)
		n++
	}
	return n
}
