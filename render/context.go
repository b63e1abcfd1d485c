// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// ErrNoTextureCreator is returned when a drawer has no texture creator.
var ErrNoTextureCreator = errors.New("render: drawer has no texture creator")

// ContextDevice is a Device on a gpucontext texture creator, as exposed by
// a host application's TextureDrawer. Only RGBA8Unorm textures are
// supported; the Materializer converts other formats.
type ContextDevice struct {
	creator gpucontext.TextureCreator

	mu       sync.Mutex
	next     Handle
	textures map[Handle]gpucontext.Texture
}

// NewContextDevice returns a Device creating textures through creator.
func NewContextDevice(creator gpucontext.TextureCreator) *ContextDevice {
	return &ContextDevice{
		creator:  creator,
		textures: make(map[Handle]gpucontext.Texture),
	}
}

// ContextDeviceFromDrawer returns a Device on the texture creator of drawer.
func ContextDeviceFromDrawer(drawer gpucontext.TextureDrawer) (*ContextDevice, error) {
	creator := drawer.TextureCreator()
	if creator == nil {
		return nil, ErrNoTextureCreator
	}
	return NewContextDevice(creator), nil
}

// SupportsFormat implements FormatSupporter.
func (d *ContextDevice) SupportsFormat(format gputypes.TextureFormat) bool {
	return format == gputypes.TextureFormatRGBA8Unorm
}

// CreateTexture implements Device.
func (d *ContextDevice) CreateTexture(desc TextureDescriptor, pixels []byte) (Handle, error) {
	if !d.SupportsFormat(desc.Format) {
		return 0, fmt.Errorf("render: context device cannot create %v textures", desc.Format)
	}
	if err := checkUpload(desc, pixels); err != nil {
		return 0, err
	}

	tex, err := d.creator.NewTextureFromRGBA(int(desc.Width), int(desc.Height), pixels)
	if err != nil {
		return 0, fmt.Errorf("create texture: %w", err)
	}

	d.mu.Lock()
	d.next++
	h := d.next
	d.textures[h] = tex
	d.mu.Unlock()
	return h, nil
}

// WriteTexture implements Device. The texture must implement
// gpucontext.TextureUpdater.
func (d *ContextDevice) WriteTexture(h Handle, pixels []byte) error {
	tex, ok := d.Texture(h)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, h)
	}
	updater, ok := tex.(gpucontext.TextureUpdater)
	if !ok {
		return fmt.Errorf("render: texture %d does not support updates", h)
	}
	if err := updater.UpdateData(pixels); err != nil {
		return fmt.Errorf("update texture: %w", err)
	}
	return nil
}

// DestroyTexture implements Device.
func (d *ContextDevice) DestroyTexture(h Handle) {
	d.mu.Lock()
	tex, ok := d.textures[h]
	delete(d.textures, h)
	d.mu.Unlock()
	if !ok {
		return
	}
	if destroyer, ok := tex.(interface{ Destroy() }); ok {
		destroyer.Destroy()
	} else {
		slogger().Warn("render: texture has no Destroy method", "handle", uint64(h))
	}
}

// Texture returns the host texture behind h, for drawing with
// gpucontext.TextureDrawer.DrawTexture.
func (d *ContextDevice) Texture(h Handle) (gpucontext.Texture, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex, ok := d.textures[h]
	return tex, ok
}

var (
	_ Device          = (*ContextDevice)(nil)
	_ FormatSupporter = (*ContextDevice)(nil)
)
