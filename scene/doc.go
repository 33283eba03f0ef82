// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene holds the per-frame state consumed by the brushview
// rendering core.
//
// A frame is produced once per tick by an external controller (demo
// playback, free-fly camera, editor) and is read-only to the renderer
// for the duration of that frame:
//
//	frame := &scene.Frame{
//	    Camera:     scene.LookAt(eye, target, up, fovy, aspect, 4, 8192),
//	    Transforms: transforms,
//	    Flags:      scene.FlagFullBright,
//	    Time:       elapsed.Seconds(),
//	    Meshes:     meshes,
//	}
//
// Vertices carry a strongly typed [Surface] describing how the fragment is
// shaded. The compact bit-packed encoding used by the GPU lives in
// internal/wire and is never exposed here.
package scene
