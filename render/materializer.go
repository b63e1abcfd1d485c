// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imgload/pixbuf"
)

// Materializer uploads pixel buffers to a Device.
//
// Every call is a fresh upload: nothing is cached between calls, and the
// host buffer is never released or modified. Like the Device, a
// Materializer must only be used on the goroutine owning the graphics
// context.
type Materializer struct {
	dev Device
}

// NewMaterializer returns a Materializer uploading to dev.
func NewMaterializer(dev Device) *Materializer {
	return &Materializer{dev: dev}
}

// Device returns the device textures are created on.
func (m *Materializer) Device() Device { return m.dev }

// TextureFormatFor returns the texture format used for a buffer of the
// given storage format and channel count, or TextureFormatUndefined.
func TextureFormatFor(format pixbuf.Format, channels int) gputypes.TextureFormat {
	switch format {
	case pixbuf.FormatInteger:
		switch channels {
		case 1:
			return gputypes.TextureFormatR8Unorm
		case 3, 4:
			return gputypes.TextureFormatRGBA8Unorm
		}
	case pixbuf.FormatFloat:
		switch channels {
		case 1:
			return gputypes.TextureFormatR32Float
		case 3, 4:
			return gputypes.TextureFormatRGBA32Float
		}
	}
	return gputypes.TextureFormatUndefined
}

// Materialize creates a texture from the staged content of buf.
//
// Returns pixbuf.ErrNotLoaded without touching the device when buf is
// empty. Device failures are wrapped with ErrGPU.
func (m *Materializer) Materialize(buf *pixbuf.Buffer) (Texture, error) {
	desc, pixels, err := m.prepare(buf)
	if err != nil {
		return Texture{}, err
	}

	h, err := m.dev.CreateTexture(desc, pixels)
	if err != nil {
		return Texture{}, fmt.Errorf("%w: create %dx%d %v: %w", ErrGPU, desc.Width, desc.Height, desc.Format, err)
	}

	slogger().Info("render: texture created",
		"handle", uint64(h), "width", desc.Width, "height", desc.Height, "format", desc.Format)
	return Texture{
		Handle: h,
		Width:  int(desc.Width),
		Height: int(desc.Height),
		Format: desc.Format,
	}, nil
}

// Rematerialize uploads buf again, reusing prev when its size and format
// match and replacing it otherwise. The returned texture supersedes prev;
// on error prev is left intact.
func (m *Materializer) Rematerialize(prev Texture, buf *pixbuf.Buffer) (Texture, error) {
	if !prev.IsValid() {
		return m.Materialize(buf)
	}

	desc, pixels, err := m.prepare(buf)
	if err != nil {
		return prev, err
	}

	if prev.Width == int(desc.Width) && prev.Height == int(desc.Height) && prev.Format == desc.Format {
		if err := m.dev.WriteTexture(prev.Handle, pixels); err != nil {
			return prev, fmt.Errorf("%w: write texture %d: %w", ErrGPU, prev.Handle, err)
		}
		slogger().Debug("render: texture rewritten", "handle", uint64(prev.Handle), "bytes", len(pixels))
		return prev, nil
	}

	h, err := m.dev.CreateTexture(desc, pixels)
	if err != nil {
		return prev, fmt.Errorf("%w: create %dx%d %v: %w", ErrGPU, desc.Width, desc.Height, desc.Format, err)
	}
	m.dev.DestroyTexture(prev.Handle)

	slogger().Info("render: texture replaced",
		"old", uint64(prev.Handle), "handle", uint64(h), "width", desc.Width, "height", desc.Height, "format", desc.Format)
	return Texture{
		Handle: h,
		Width:  int(desc.Width),
		Height: int(desc.Height),
		Format: desc.Format,
	}, nil
}

// Release destroys tex if it is valid.
func (m *Materializer) Release(tex Texture) {
	if tex.IsValid() {
		m.dev.DestroyTexture(tex.Handle)
	}
}

func (m *Materializer) supports(format gputypes.TextureFormat) bool {
	fs, ok := m.dev.(FormatSupporter)
	return !ok || fs.SupportsFormat(format)
}

// prepare picks the texture format for buf and lays out the upload bytes.
func (m *Materializer) prepare(buf *pixbuf.Buffer) (TextureDescriptor, []byte, error) {
	if buf == nil || buf.IsEmpty() {
		return TextureDescriptor{}, nil, pixbuf.ErrNotLoaded
	}

	format := TextureFormatFor(buf.Format(), buf.Channels())
	if format == gputypes.TextureFormatUndefined {
		return TextureDescriptor{}, nil, fmt.Errorf("%w: %v with %d channels", pixbuf.ErrFormatMismatch, buf.Format(), buf.Channels())
	}
	if !m.supports(format) {
		if buf.Format() == pixbuf.FormatFloat {
			slogger().Warn("render: float texture not supported by device, quantizing to RGBA8", "format", format)
		}
		format = gputypes.TextureFormatRGBA8Unorm
	}

	var (
		pixels []byte
		err    error
	)
	switch format {
	case gputypes.TextureFormatR8Unorm:
		pixels, err = buf.Data()
	case gputypes.TextureFormatRGBA8Unorm:
		if buf.Format() == pixbuf.FormatInteger && buf.Channels() == 4 {
			pixels, err = buf.Data()
		} else {
			pixels, err = buf.ToRGBA8()
		}
	case gputypes.TextureFormatR32Float, gputypes.TextureFormatRGBA32Float:
		pixels, err = floatPixels(buf)
	}
	if err != nil {
		return TextureDescriptor{}, nil, err
	}

	desc := DefaultTextureDescriptor(uint32(buf.Width()), uint32(buf.Height()), format) //nolint:gosec // dimensions are positive ints
	if u := buf.SourceURL(); u != "" {
		desc.Label = u
	}
	return desc, pixels, nil
}

// floatPixels encodes float data as little-endian float32 texels, expanding
// three channels to four with alpha 1.
func floatPixels(buf *pixbuf.Buffer) ([]byte, error) {
	data, err := buf.DataHDR()
	if err != nil {
		return nil, err
	}

	if buf.Channels() != 3 {
		out := make([]byte, len(data)*4)
		for i, v := range data {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
		return out, nil
	}

	n := buf.Width() * buf.Height()
	out := make([]byte, n*16)
	one := math.Float32bits(1)
	for i := range n {
		px := out[i*16:]
		binary.LittleEndian.PutUint32(px[0:], math.Float32bits(data[i*3]))
		binary.LittleEndian.PutUint32(px[4:], math.Float32bits(data[i*3+1]))
		binary.LittleEndian.PutUint32(px[8:], math.Float32bits(data[i*3+2]))
		binary.LittleEndian.PutUint32(px[12:], one)
	}
	return out, nil
}
