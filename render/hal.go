// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// halTexture is a texture and its default view.
type halTexture struct {
	tex  hal.Texture
	view hal.TextureView
	desc TextureDescriptor
}

// HALDevice is a Device on a wgpu HAL device and queue.
//
// The device and queue are borrowed: HALDevice never destroys them.
type HALDevice struct {
	device hal.Device
	queue  hal.Queue

	mu       sync.Mutex
	next     Handle
	textures map[Handle]*halTexture
}

// NewHALDevice returns a Device creating textures on device and uploading
// through queue.
func NewHALDevice(device hal.Device, queue hal.Queue) *HALDevice {
	return &HALDevice{
		device:   device,
		queue:    queue,
		textures: make(map[Handle]*halTexture),
	}
}

// HALDeviceFromProvider builds a HALDevice from a host exposing
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func HALDeviceFromProvider(provider any) (*HALDevice, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrGPU)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrGPU)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrGPU)
	}
	return NewHALDevice(device, queue), nil
}

// SupportsFormat implements FormatSupporter.
func (d *HALDevice) SupportsFormat(format gputypes.TextureFormat) bool {
	return BytesPerPixel(format) != 0
}

// CreateTexture implements Device.
func (d *HALDevice) CreateTexture(desc TextureDescriptor, pixels []byte) (Handle, error) {
	if err := checkUpload(desc, pixels); err != nil {
		return 0, err
	}

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("create texture: %w", err)
	}

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         desc.Label,
		Format:        desc.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return 0, fmt.Errorf("create texture view: %w", err)
	}

	if err := d.write(tex, desc, pixels); err != nil {
		d.device.DestroyTextureView(view)
		d.device.DestroyTexture(tex)
		return 0, err
	}

	d.mu.Lock()
	d.next++
	h := d.next
	d.textures[h] = &halTexture{tex: tex, view: view, desc: desc}
	d.mu.Unlock()

	slogger().Debug("render: hal texture uploaded",
		"handle", uint64(h), "width", desc.Width, "height", desc.Height, "bytes", len(pixels))
	return h, nil
}

// WriteTexture implements Device.
func (d *HALDevice) WriteTexture(h Handle, pixels []byte) error {
	d.mu.Lock()
	t, ok := d.textures[h]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, h)
	}
	if err := checkUpload(t.desc, pixels); err != nil {
		return err
	}
	return d.write(t.tex, t.desc, pixels)
}

func (d *HALDevice) write(tex hal.Texture, desc TextureDescriptor, pixels []byte) error {
	bytesPerRow := desc.Width * uint32(BytesPerPixel(desc.Format)) //nolint:gosec // at most 16
	err := d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Aspect:   gputypes.TextureAspectAll,
		},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: desc.Height,
		},
		&hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		return fmt.Errorf("write texture: %w", err)
	}
	return nil
}

// DestroyTexture implements Device.
func (d *HALDevice) DestroyTexture(h Handle) {
	d.mu.Lock()
	t, ok := d.textures[h]
	delete(d.textures, h)
	d.mu.Unlock()
	if !ok {
		return
	}
	d.device.DestroyTextureView(t.view)
	d.device.DestroyTexture(t.tex)
}

// View returns the default view of texture h for binding.
func (d *HALDevice) View(h Handle) (hal.TextureView, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[h]
	if !ok {
		return nil, false
	}
	return t.view, true
}

// Close destroys every texture still alive. The HAL device is not touched.
func (d *HALDevice) Close() {
	d.mu.Lock()
	textures := d.textures
	d.textures = make(map[Handle]*halTexture)
	d.mu.Unlock()

	for _, t := range textures {
		d.device.DestroyTextureView(t.view)
		d.device.DestroyTexture(t.tex)
	}
}

var (
	_ Device          = (*HALDevice)(nil)
	_ FormatSupporter = (*HALDevice)(nil)
)
