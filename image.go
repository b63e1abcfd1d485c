package imgload

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/gogpu/imgload/codec"
	"github.com/gogpu/imgload/loader"
	"github.com/gogpu/imgload/pixbuf"
	"github.com/gogpu/imgload/render"
)

// State is the lifecycle stage of an Image.
type State int

const (
	// StateEmpty means no data is staged.
	StateEmpty State = iota

	// StateLoading means an asynchronous load is in flight.
	StateLoading

	// StateLoaded means data is staged and matches the last load.
	StateLoaded

	// StateEdited means staged data was replaced or modified after loading.
	StateEdited

	// StateMaterialized means the staged data has been uploaded.
	StateMaterialized
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateLoading:
		return "Loading"
	case StateLoaded:
		return "Loaded"
	case StateEdited:
		return "Edited"
	case StateMaterialized:
		return "Materialized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Image is a staged pixel buffer and the texture it was last uploaded to.
//
// Load methods fill the buffer and upload it; LoadData methods only fill
// it. A failed load leaves the buffer empty. The texture survives
// ClearData, so host memory can be released once uploaded.
//
// Image is not safe for concurrent use. Upload methods must be called on
// the goroutine owning the graphics context.
type Image struct {
	buf   *pixbuf.Buffer
	tex   render.Texture
	state State
	task  *loader.Task

	loader       *loader.Loader
	materializer *render.Materializer
	codec        *codec.Codec
}

// New returns an empty Image.
func New(opts ...Option) *Image {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.loader == nil {
		o.loader = defaultLoader()
	}
	if o.codec == nil {
		o.codec = defaultCodec()
	}
	return &Image{
		buf:          pixbuf.New(),
		loader:       o.loader,
		materializer: o.materializer,
		codec:        o.codec,
	}
}

// NewSized returns an Image with established dimensions and no data, ready
// for SetImageData or SetImageDataHDR.
func NewSized(width, height, channels int, format pixbuf.Format, opts ...Option) (*Image, error) {
	buf, err := pixbuf.NewSized(width, height, channels, format)
	if err != nil {
		return nil, err
	}
	img := New(opts...)
	img.buf = buf
	return img, nil
}

// Loader returns the loader the image loads with.
func (i *Image) Loader() *loader.Loader { return i.loader }

// Buffer returns the staged buffer. Changes made through it are staged
// edits.
func (i *Image) Buffer() *pixbuf.Buffer { return i.buf }

// State returns the lifecycle stage.
func (i *Image) State() State { return i.state }

// Texture returns the last uploaded texture, or the zero Texture.
func (i *Image) Texture() render.Texture { return i.tex }

// Width returns the staged width, or the texture width once data has been
// cleared.
func (i *Image) Width() int {
	if i.buf.HasDimensions() {
		return i.buf.Width()
	}
	return i.tex.Width
}

// Height returns the staged height, or the texture height once data has
// been cleared.
func (i *Image) Height() int {
	if i.buf.HasDimensions() {
		return i.buf.Height()
	}
	return i.tex.Height
}

// ImageURL returns the URL the staged data was downloaded from, if any.
func (i *Image) ImageURL() string { return i.buf.SourceURL() }

// GenerateDownloadedImagePath returns a unique file path for a downloaded
// image of the given type. See loader.GenerateDownloadedImagePath.
func (i *Image) GenerateDownloadedImagePath(imageType string) string {
	return loader.GenerateDownloadedImagePath(imageType)
}

// Load reads the image file at path and uploads it.
func (i *Image) Load(path string) error {
	if err := i.LoadData(path); err != nil {
		return err
	}
	return i.UseData()
}

// LoadImage reads the project image rel and uploads it.
func (i *Image) LoadImage(rel string) error {
	if err := i.LoadImageData(rel); err != nil {
		return err
	}
	return i.UseData()
}

// LoadImageFromURL downloads the image at url and uploads it.
// cutParameters drops the query string when naming the cached download.
func (i *Image) LoadImageFromURL(ctx context.Context, url string, cutParameters bool) error {
	if err := i.LoadDataFromURL(ctx, url, cutParameters); err != nil {
		return err
	}
	return i.UseData()
}

// LoadData reads the image file at path into the staged buffer.
func (i *Image) LoadData(path string) error {
	return i.stage(i.loader.LoadPath(path))
}

// LoadImageData reads the project image rel into the staged buffer.
func (i *Image) LoadImageData(rel string) error {
	return i.stage(i.loader.LoadAsset(rel))
}

// LoadDataFromURL downloads the image at url into the staged buffer.
func (i *Image) LoadDataFromURL(ctx context.Context, url string, cutParameters bool) error {
	return i.stage(i.loader.LoadURL(ctx, url, cutParameters))
}

// LoadDataAsync loads req on the loader's workers and stages the result
// when it completes. done, if not nil, is called after staging, on the
// loader's dispatcher when one is configured and on a worker goroutine
// otherwise. The image must not be used until then.
//
// Cancelling the returned task, or calling CancelLoad, drops the result.
func (i *Image) LoadDataAsync(ctx context.Context, req loader.Request, done func(error)) *loader.Task {
	i.CancelLoad()
	i.state = StateLoading

	i.task = i.loader.LoadAsync(ctx, req, func(buf *pixbuf.Buffer, err error) {
		err = i.stage(buf, err)
		if done != nil {
			done(err)
		}
	})
	return i.task
}

// CancelLoad cancels the last asynchronous load and drops its result if it
// has not been staged yet. A load in flight leaves the image empty.
func (i *Image) CancelLoad() {
	if i.task == nil {
		return
	}
	i.task.Cancel()
	i.task = nil
	if i.state == StateLoading {
		i.buf.Clear()
		i.state = StateEmpty
	}
}

// stage replaces the staged buffer with the result of a load.
func (i *Image) stage(buf *pixbuf.Buffer, err error) error {
	if err != nil {
		i.buf.Clear()
		i.state = StateEmpty
		return err
	}
	i.buf.MoveFrom(buf)
	i.state = StateLoaded
	Logger().Debug("imgload: staged",
		"width", i.buf.Width(), "height", i.buf.Height(),
		"channels", i.buf.Channels(), "format", i.buf.Format())
	return nil
}

// UseData uploads the staged data, replacing the previous texture. The
// staged data is kept.
func (i *Image) UseData() error {
	if i.buf.IsEmpty() {
		return ErrNotLoaded
	}
	if i.materializer == nil {
		return ErrNoDevice
	}
	tex, err := i.materializer.Rematerialize(i.tex, i.buf)
	if err != nil {
		return err
	}
	i.tex = tex
	i.state = StateMaterialized
	return nil
}

// Release destroys the texture. Staged data is kept.
func (i *Image) Release() {
	if i.materializer != nil {
		i.materializer.Release(i.tex)
	}
	i.tex = render.Texture{}
	if i.state == StateMaterialized {
		i.state = StateLoaded
	}
}

// SetImageData replaces the staged pixels, keeping the current dimensions.
// The image takes ownership of data.
func (i *Image) SetImageData(data []byte) error {
	if err := i.buf.ReplaceData(data); err != nil {
		return err
	}
	i.state = StateEdited
	return nil
}

// SetImageDataSized replaces the staged pixels and dimensions. The image
// takes ownership of data.
func (i *Image) SetImageDataSized(data []byte, width, height, channels int) error {
	if err := i.buf.SetData(data, width, height, channels); err != nil {
		return err
	}
	i.state = StateEdited
	return nil
}

// SetImageDataHDR replaces the staged pixels with float data, keeping the
// current dimensions. The image takes ownership of data.
func (i *Image) SetImageDataHDR(data []float32) error {
	if err := i.buf.SetDataHDR(data); err != nil {
		return err
	}
	i.state = StateEdited
	return nil
}

// ImageData returns the staged integer pixels. Writing to the returned
// slice edits the staged data; call UseData to upload it.
func (i *Image) ImageData() ([]byte, error) { return i.buf.Data() }

// ImageDataHDR returns the staged float pixels. Writing to the returned
// slice edits the staged data; call UseData to upload it.
func (i *Image) ImageDataHDR() ([]float32, error) { return i.buf.DataHDR() }

// ClearData releases the staged data. The texture is kept.
func (i *Image) ClearData() {
	i.CancelLoad()
	i.buf.Clear()
	i.state = StateEmpty
}

// SaveImage encodes the staged data into the project images folder. The
// format is chosen by the extension of fileName; absolute names are
// written as given. It returns the path written.
func (i *Image) SaveImage(fileName string) (string, error) {
	if i.buf.IsEmpty() {
		return "", ErrNotLoaded
	}
	typ := codec.TypeFromName(fileName)
	if typ == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}

	name := fileName
	if !filepath.IsAbs(name) {
		dir, err := i.loader.Assets().ImagesDir()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrIO, err)
		}
		name = filepath.Join(dir, fileName)
	}

	var out bytes.Buffer
	if err := i.codec.Encode(&out, i.buf, typ); err != nil {
		return "", fmt.Errorf("imgload: encode %s: %w", fileName, err)
	}
	if err := i.loader.FS().WriteFile(name, out.Bytes()); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}

	Logger().Info("imgload: image saved", "path", name, "type", typ, "bytes", out.Len())
	return name, nil
}
