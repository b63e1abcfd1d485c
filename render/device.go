// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// ErrGPU is wrapped by every error originating in a Device.
var ErrGPU = errors.New("render: gpu failure")

// Handle identifies a texture owned by a Device. The zero Handle is invalid.
type Handle uint64

// IsValid reports whether h refers to a texture.
func (h Handle) IsValid() bool { return h != 0 }

// Texture is a GPU texture created from a pixel buffer.
// The zero Texture is the "no texture" value.
type Texture struct {
	Handle Handle
	Width  int
	Height int
	Format gputypes.TextureFormat
}

// IsValid reports whether t refers to a texture.
func (t Texture) IsValid() bool { return t.Handle.IsValid() }

// TextureDescriptor describes parameters for creating a texture.
// This mirrors the WebGPU GPUTextureDescriptor for 2D, single-mip,
// single-sample textures.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage gputypes.TextureUsage
}

// DefaultTextureDescriptor returns a descriptor for a sampled texture that
// can be written from the host.
func DefaultTextureDescriptor(width, height uint32, format gputypes.TextureFormat) TextureDescriptor {
	return TextureDescriptor{
		Width:  width,
		Height: height,
		Format: format,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
}

// BytesPerPixel returns the host size of one texel for the formats produced
// by the Materializer, or 0 for other formats.
func BytesPerPixel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatR32Float:
		return 4
	case gputypes.TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// Device creates, updates and destroys textures.
//
// All methods must be called on the goroutine that owns the graphics
// context. pixels is tightly packed, row-major, top-left origin, in the
// descriptor's format.
type Device interface {
	// CreateTexture creates a texture and uploads pixels into it.
	CreateTexture(desc TextureDescriptor, pixels []byte) (Handle, error)

	// WriteTexture replaces the whole content of an existing texture.
	WriteTexture(h Handle, pixels []byte) error

	// DestroyTexture releases a texture. Unknown handles are ignored.
	DestroyTexture(h Handle)
}

// FormatSupporter is implemented by devices that cannot create every
// texture format. The Materializer converts to RGBA8Unorm when a format is
// not supported.
type FormatSupporter interface {
	SupportsFormat(format gputypes.TextureFormat) bool
}
