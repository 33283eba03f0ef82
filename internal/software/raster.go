// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// varying is the per-vertex data interpolated across a triangle.
type varying struct {
	uv     mgl32.Vec2
	lm     mgl32.Vec2
	normal mgl32.Vec3
	world  mgl32.Vec3
}

func (a varying) scale(s float32) varying {
	return varying{a.uv.Mul(s), a.lm.Mul(s), a.normal.Mul(s), a.world.Mul(s)}
}

func (a varying) add(b varying) varying {
	return varying{a.uv.Add(b.uv), a.lm.Add(b.lm), a.normal.Add(b.normal), a.world.Add(b.world)}
}

func (a varying) lerp(b varying, t float32) varying {
	return a.scale(1 - t).add(b.scale(t))
}

type clipVert struct {
	pos mgl32.Vec4
	v   varying
}

// clipNear clips a polygon against the near plane z >= -w.
func clipNear(in []clipVert) []clipVert {
	out := make([]clipVert, 0, len(in)+2)
	for i := range in {
		a, b := in[i], in[(i+1)%len(in)]
		da, db := a.pos[2]+a.pos[3], b.pos[2]+b.pos[3]
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			out = append(out, clipVert{
				pos: a.pos.Add(b.pos.Sub(a.pos).Mul(t)),
				v:   a.v.lerp(b.v, t),
			})
		}
	}
	return out
}

// screenVert is a vertex after perspective divide and viewport mapping.
// v holds varyings pre-divided by w.
type screenVert struct {
	x, y, z, invW float32
	v             varying
}

func toScreen(c clipVert, w, h int) screenVert {
	invW := 1 / c.pos[3]
	return screenVert{
		x:    (c.pos[0]*invW + 1) / 2 * float32(w),
		y:    (1 - c.pos[1]*invW) / 2 * float32(h),
		z:    (c.pos[2]*invW + 1) / 2,
		invW: invW,
		v:    c.v.scale(invW),
	}
}

// fragment is one covered pixel.
type fragment struct {
	x, y  int
	depth float32
	v     varying
	// duvdx and duvdy are the screen-space texcoord derivatives.
	duvdx, duvdy mgl32.Vec2
}

// setup is a screen-space triangle ready for rasterization.
type setup struct {
	p    [3]screenVert
	area float32
	// topLeft[i] reports whether edge i, opposite vertex i, owns pixel
	// centers lying exactly on it.
	topLeft                [3]bool
	minX, minY, maxX, maxY int
}

func newSetup(a, b, c screenVert, w, h int) (setup, bool) {
	s := setup{p: [3]screenVert{a, b, c}}
	s.area = edge(a, b, c.x, c.y)
	if s.area == 0 || math.IsNaN(float64(s.area)) {
		return s, false
	}
	sign := float32(1)
	if s.area < 0 {
		sign = -1
	}
	for i := range s.topLeft {
		a, b := s.p[(i+1)%3], s.p[(i+2)%3]
		dx, dy := (b.x-a.x)*sign, (b.y-a.y)*sign
		s.topLeft[i] = dy < 0 || (dy == 0 && dx > 0)
	}
	s.minX = max(int(math.Floor(float64(min(a.x, b.x, c.x)))), 0)
	s.minY = max(int(math.Floor(float64(min(a.y, b.y, c.y)))), 0)
	s.maxX = min(int(math.Ceil(float64(max(a.x, b.x, c.x)))), w-1)
	s.maxY = min(int(math.Ceil(float64(max(a.y, b.y, c.y)))), h-1)
	return s, s.minX <= s.maxX && s.minY <= s.maxY
}

func edge(a, b screenVert, x, y float32) float32 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}

// bary returns the screen-space barycentric weights at (x, y).
func (s *setup) bary(x, y float32) (l0, l1, l2 float32) {
	l0 = edge(s.p[1], s.p[2], x, y) / s.area
	l1 = edge(s.p[2], s.p[0], x, y) / s.area
	l2 = edge(s.p[0], s.p[1], x, y) / s.area
	return l0, l1, l2
}

// covers applies the top-left fill rule so pixels on a shared edge belong
// to exactly one triangle.
func (s *setup) covers(l [3]float32) bool {
	for i, v := range l {
		if v < 0 || (v == 0 && !s.topLeft[i]) {
			return false
		}
	}
	return true
}

func (s *setup) interp(l0, l1, l2 float32) (varying, float32) {
	invW := l0*s.p[0].invW + l1*s.p[1].invW + l2*s.p[2].invW
	v := s.p[0].v.scale(l0).add(s.p[1].v.scale(l1)).add(s.p[2].v.scale(l2))
	return v.scale(1 / invW), invW
}

func (s *setup) uvAt(x, y float32) mgl32.Vec2 {
	l0, l1, l2 := s.bary(x, y)
	v, _ := s.interp(l0, l1, l2)
	return v.uv
}

// raster visits every covered pixel center in rows [y0, y1).
func (s *setup) raster(y0, y1 int, visit func(f *fragment)) {
	var f fragment
	for y := max(s.minY, y0); y <= s.maxY && y < y1; y++ {
		py := float32(y) + 0.5
		for x := s.minX; x <= s.maxX; x++ {
			px := float32(x) + 0.5
			l0, l1, l2 := s.bary(px, py)
			if !s.covers([3]float32{l0, l1, l2}) {
				continue
			}
			z := l0*s.p[0].z + l1*s.p[1].z + l2*s.p[2].z
			if z < 0 || z > 1 {
				continue
			}
			v, _ := s.interp(l0, l1, l2)
			f = fragment{
				x: x, y: y, depth: z, v: v,
				duvdx: s.uvAt(px+1, py).Sub(v.uv),
				duvdy: s.uvAt(px, py+1).Sub(v.uv),
			}
			visit(&f)
		}
	}
}

// triangulate clips a clip-space triangle and returns its screen setups.
func triangulate(tri [3]clipVert, w, h int) []setup {
	poly := clipNear(tri[:])
	if len(poly) < 3 {
		return nil
	}
	sv := make([]screenVert, len(poly))
	for i, c := range poly {
		sv[i] = toScreen(c, w, h)
	}
	var out []setup
	for i := 1; i+1 < len(sv); i++ {
		if s, ok := newSetup(sv[0], sv[i], sv[i+1], w, h); ok {
			out = append(out, s)
		}
	}
	return out
}
