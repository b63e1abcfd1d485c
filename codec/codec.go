// Package codec decodes encoded image files into pixel buffers and encodes
// pixel buffers back to files.
//
// Integer formats: PNG, JPEG, GIF, BMP, TIFF, WebP and TGA.
// Float formats: Radiance RGBE (.hdr).
//
// The container format is sniffed from the content first and only falls back
// to the file name for formats without a reliable signature (TGA).
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/gogpu/imgload/pixbuf"
)

// Codec errors.
var (
	// ErrUnsupportedFormat is returned when the image format is not supported.
	ErrUnsupportedFormat = errors.New("codec: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("codec: empty data")

	// ErrTooLarge is returned when the declared image size exceeds the
	// decode limit or the data is too short to hold it.
	ErrTooLarge = errors.New("codec: image too large")
)

// DefaultMaxPixels is the default decode limit, 8192x8192 pixels.
const DefaultMaxPixels = 8192 * 8192

// Type names returned by Sniff.
const (
	TypePNG  = "png"
	TypeJPEG = "jpg"
	TypeGIF  = "gif"
	TypeBMP  = "bmp"
	TypeTIFF = "tif"
	TypeWebP = "webp"
	TypeTGA  = "tga"
	TypeHDR  = "hdr"
)

// Codec decodes and encodes images. The zero value is not usable; use New.
type Codec struct {
	jpegQuality int
	maxPixels   int
}

// Option configures a Codec.
type Option func(*Codec)

// WithJPEGQuality sets the JPEG encoding quality (1-100). Default is 90.
func WithJPEGQuality(quality int) Option {
	return func(c *Codec) {
		c.jpegQuality = min(max(quality, 1), 100)
	}
}

// WithMaxPixels sets the largest width*height Decode accepts. Images
// declaring more are rejected with ErrTooLarge before any pixel memory is
// allocated. Default is DefaultMaxPixels.
func WithMaxPixels(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxPixels = n
		}
	}
}

// New returns a Codec configured with opts.
func New(opts ...Option) *Codec {
	c := &Codec{jpegQuality: 90, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sniff returns the image type of data. Content signatures win over the
// extension of name; name is only consulted when no signature matches.
// Returns "" if the type cannot be determined.
func Sniff(data []byte, name string) string {
	if isRadiance(data) {
		return TypeHDR
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.Extension
	}
	return TypeFromName(name)
}

// TypeFromName returns the image type for the extension of name,
// normalizing aliases (jpeg, tiff). Returns "" for unknown extensions.
func TypeFromName(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch ext {
	case "png", "gif", "bmp", "webp", "tga", "hdr":
		return ext
	case "jpg", "jpeg":
		return TypeJPEG
	case "tif", "tiff":
		return TypeTIFF
	case "pic", "rgbe":
		return TypeHDR
	default:
		return ""
	}
}

// Decode decodes data into a new buffer. name is the source file name or URL
// path and only serves as a type hint.
//
// HDR sources produce FormatFloat buffers with 3 channels. Everything else
// produces FormatInteger buffers with 1 (gray), 3 (opaque) or 4 channels.
func (c *Codec) Decode(data []byte, name string) (*pixbuf.Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	typ := Sniff(data, name)
	if typ == TypeHDR {
		return c.decodeRadiance(data)
	}

	img, err := c.decodeImage(typ, data)
	if err != nil {
		return nil, err
	}
	return FromImage(img)
}

// decoder pairs a format's decode function with its header-only config
// reader.
type decoder struct {
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

var decoders = map[string]decoder{
	TypePNG:  {png.Decode, png.DecodeConfig},
	TypeJPEG: {jpeg.Decode, jpeg.DecodeConfig},
	TypeGIF:  {gif.Decode, gif.DecodeConfig},
	TypeBMP:  {bmp.Decode, bmp.DecodeConfig},
	TypeTIFF: {tiff.Decode, tiff.DecodeConfig},
	TypeWebP: {webp.Decode, webp.DecodeConfig},
	TypeTGA:  {tga.Decode, tga.DecodeConfig},
}

func (c *Codec) decodeImage(typ string, data []byte) (image.Image, error) {
	d, ok := decoders[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, typ)
	}

	cfg, err := d.config(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", typ, err)
	}
	if err := c.checkSize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, err := d.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", typ, err)
	}
	return img, nil
}

// checkSize rejects dimensions whose product exceeds the decode limit.
func (c *Codec) checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", pixbuf.ErrInvalidDimensions, width, height)
	}
	if width > c.maxPixels/height {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, width, height, c.maxPixels)
	}
	return nil
}
