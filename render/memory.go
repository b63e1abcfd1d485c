package render

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownTexture is returned by devices for handles they do not own.
var ErrUnknownTexture = errors.New("render: unknown texture")

// MemoryTexture is a texture held by a MemoryDevice.
type MemoryTexture struct {
	Desc   TextureDescriptor
	Pixels []byte
	Writes int
}

// MemoryDevice is a headless Device keeping textures in host memory.
// It is used by tools without a window and as a test double. Failures can
// be injected with FailNext.
//
// MemoryDevice is safe for concurrent use.
type MemoryDevice struct {
	mu       sync.Mutex
	next     Handle
	textures map[Handle]*MemoryTexture
	failNext error

	creates  int
	destroys int
}

// NewMemoryDevice returns an empty MemoryDevice.
func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{textures: make(map[Handle]*MemoryTexture)}
}

// FailNext makes the next CreateTexture or WriteTexture call fail with err.
func (d *MemoryDevice) FailNext(err error) {
	d.mu.Lock()
	d.failNext = err
	d.mu.Unlock()
}

func (d *MemoryDevice) takeFailure() error {
	err := d.failNext
	d.failNext = nil
	return err
}

// CreateTexture implements Device.
func (d *MemoryDevice) CreateTexture(desc TextureDescriptor, pixels []byte) (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.creates++
	if err := d.takeFailure(); err != nil {
		return 0, err
	}
	if err := checkUpload(desc, pixels); err != nil {
		return 0, err
	}

	d.next++
	d.textures[d.next] = &MemoryTexture{Desc: desc, Pixels: append([]byte(nil), pixels...)}
	return d.next, nil
}

// WriteTexture implements Device.
func (d *MemoryDevice) WriteTexture(h Handle, pixels []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.takeFailure(); err != nil {
		return err
	}
	tex, ok := d.textures[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, h)
	}
	if err := checkUpload(tex.Desc, pixels); err != nil {
		return err
	}
	tex.Pixels = append(tex.Pixels[:0], pixels...)
	tex.Writes++
	return nil
}

// DestroyTexture implements Device.
func (d *MemoryDevice) DestroyTexture(h Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.textures[h]; ok {
		delete(d.textures, h)
		d.destroys++
	}
}

// Texture returns a copy of the texture h.
func (d *MemoryDevice) Texture(h Handle) (MemoryTexture, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, ok := d.textures[h]
	if !ok {
		return MemoryTexture{}, false
	}
	c := *tex
	c.Pixels = append([]byte(nil), tex.Pixels...)
	return c, true
}

// Live returns the number of textures not yet destroyed.
func (d *MemoryDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// Creates returns the number of CreateTexture calls, including failed ones.
func (d *MemoryDevice) Creates() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creates
}

// Destroys returns the number of textures destroyed.
func (d *MemoryDevice) Destroys() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroys
}

// checkUpload validates that pixels covers desc exactly.
func checkUpload(desc TextureDescriptor, pixels []byte) error {
	if desc.Width == 0 || desc.Height == 0 {
		return fmt.Errorf("render: empty texture %dx%d", desc.Width, desc.Height)
	}
	bpp := BytesPerPixel(desc.Format)
	if bpp == 0 {
		return fmt.Errorf("render: unsupported texture format %v", desc.Format)
	}
	if want := int(desc.Width) * int(desc.Height) * bpp; len(pixels) != want {
		return fmt.Errorf("render: upload is %d bytes, want %d", len(pixels), want)
	}
	return nil
}

var _ Device = (*MemoryDevice)(nil)
