package imgload

import (
	"sync"

	"github.com/gogpu/imgload/codec"
	"github.com/gogpu/imgload/loader"
	"github.com/gogpu/imgload/render"
)

// Option configures an Image during creation.
//
// Example:
//
//	// Default loader, no GPU device: data can be staged and saved only.
//	img := imgload.New()
//
//	// Upload through a wgpu HAL device.
//	img := imgload.New(imgload.WithDevice(render.NewHALDevice(device, queue)))
type Option func(*options)

// options holds optional configuration for Image creation.
type options struct {
	loader       *loader.Loader
	materializer *render.Materializer
	codec        *codec.Codec
}

// defaultLoader is shared by images created without WithLoader.
var defaultLoader = sync.OnceValue(func() *loader.Loader { return loader.New() })

// defaultCodec is used by SaveImage when no codec is configured.
var defaultCodec = sync.OnceValue(func() *codec.Codec { return codec.New() })

// WithLoader sets the loader used for every load.
// Default is a process-wide loader on the host filesystem.
func WithLoader(l *loader.Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithMaterializer sets the materializer used to upload textures.
func WithMaterializer(m *render.Materializer) Option {
	return func(o *options) {
		o.materializer = m
	}
}

// WithDevice uploads textures to dev through a new Materializer.
func WithDevice(dev render.Device) Option {
	return func(o *options) {
		o.materializer = render.NewMaterializer(dev)
	}
}

// WithCodec sets the codec SaveImage encodes with.
//
// Example:
//
//	img := imgload.New(imgload.WithCodec(codec.New(codec.WithJPEGQuality(75))))
func WithCodec(c *codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}
