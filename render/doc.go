// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render turns staged pixel buffers into GPU textures.
//
// # Architecture
//
// The Materializer maps a pixbuf.Buffer to a texture format, lays out the
// upload bytes and calls a Device:
//
//	Materializer ──> Device ──┬── HALDevice     (gogpu/wgpu hal)
//	                          ├── ContextDevice (gpucontext texture creator)
//	                          └── MemoryDevice  (host memory, headless)
//
// Format mapping:
//
//	Integer, 1 channel  -> R8Unorm
//	Integer, 3 channels -> RGBA8Unorm (alpha 255)
//	Integer, 4 channels -> RGBA8Unorm
//	Float,   1 channel  -> R32Float
//	Float,   3 channels -> RGBA32Float (alpha 1)
//	Float,   4 channels -> RGBA32Float
//
// # Threading
//
// Textures must be created on the goroutine owning the graphics context.
// Thread provides such a goroutine locked to its OS thread; FrameQueue lets
// an existing frame loop run posted work between frames. Both implement the
// loader's Dispatcher so asynchronous loads complete on the GPU goroutine.
package render
