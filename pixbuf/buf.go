package pixbuf

import (
	"errors"
	"fmt"
	"math"
)

// Common errors for buffer operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive,
	// the channel count is not 1, 3 or 4, or the data length does not match.
	ErrInvalidDimensions = errors.New("pixbuf: invalid dimensions")

	// ErrFormatMismatch is returned when an accessor or setter does not match
	// the stored format, or when a setter needs dimensions that were never
	// established.
	ErrFormatMismatch = errors.New("pixbuf: format mismatch")

	// ErrNotLoaded is returned when an operation needs staged data but the
	// buffer is empty.
	ErrNotLoaded = errors.New("pixbuf: no data loaded")
)

// Buffer is a host-memory pixel buffer in either integer or float format.
//
// A Buffer exclusively owns its data. Setters that take a slice take
// ownership of it: the caller must not read or write the slice afterwards.
// Use the Copy* variants to keep the caller's slice independent. Accessors
// return the owned slice; writing to it is a staged edit.
//
// Thread safety: Buffer is not safe for concurrent mutation. SetData*,
// Clear and GPU upload of the same buffer must be serialized by the caller.
type Buffer struct {
	width    int
	height   int
	channels int
	format   Format

	data []byte    // FormatInteger
	hdr  []float32 // FormatFloat

	sourceURL string
	fromURL   bool
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// NewSized returns a buffer with established dimensions and format but no
// data. SetDataHDR and ReplaceData can be used on it directly.
func NewSized(width, height, channels int, format Format) (*Buffer, error) {
	if err := checkDimensions(width, height, channels); err != nil {
		return nil, err
	}
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: format %v", ErrFormatMismatch, format)
	}
	return &Buffer{
		width:    width,
		height:   height,
		channels: channels,
		format:   format,
	}, nil
}

// FromBytes creates an integer buffer taking ownership of data.
func FromBytes(data []byte, width, height, channels int) (*Buffer, error) {
	b := New()
	if err := b.SetData(data, width, height, channels); err != nil {
		return nil, err
	}
	return b, nil
}

// FromFloats creates a float buffer taking ownership of data.
func FromFloats(data []float32, width, height, channels int) (*Buffer, error) {
	b := New()
	if err := b.SetDataHDRSized(data, width, height, channels); err != nil {
		return nil, err
	}
	return b, nil
}

func checkDimensions(width, height, channels int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if !ValidChannels(channels) {
		return fmt.Errorf("%w: %d channels", ErrInvalidDimensions, channels)
	}
	return nil
}

func checkLength(n, width, height, channels int) error {
	if want := width * height * channels; n != want {
		return fmt.Errorf("%w: got %d values, want %d for %dx%dx%d",
			ErrInvalidDimensions, n, want, width, height, channels)
	}
	return nil
}

// SetData replaces the buffer contents with 8-bit data, taking ownership
// of data. The previous contents are released first. On error the buffer
// is left unchanged.
func (b *Buffer) SetData(data []byte, width, height, channels int) error {
	if err := checkDimensions(width, height, channels); err != nil {
		return err
	}
	if err := checkLength(len(data), width, height, channels); err != nil {
		return err
	}
	b.release()
	b.width, b.height, b.channels = width, height, channels
	b.format = FormatInteger
	b.data = data
	return nil
}

// CopyData is like SetData but copies data instead of taking ownership.
func (b *Buffer) CopyData(data []byte, width, height, channels int) error {
	return b.SetData(append([]byte(nil), data...), width, height, channels)
}

// ReplaceData replaces the 8-bit contents keeping the current dimensions,
// taking ownership of data. Dimensions must already be established.
func (b *Buffer) ReplaceData(data []byte) error {
	if !b.HasDimensions() {
		return fmt.Errorf("%w: dimensions not established", ErrFormatMismatch)
	}
	return b.SetData(data, b.width, b.height, b.channels)
}

// SetDataHDR replaces the buffer contents with float data using the current
// dimensions, taking ownership of data. Dimensions must already be
// established by a load, NewSized or a previous set; otherwise
// ErrFormatMismatch is returned.
func (b *Buffer) SetDataHDR(data []float32) error {
	if !b.HasDimensions() {
		return fmt.Errorf("%w: float layout needs established dimensions", ErrFormatMismatch)
	}
	return b.SetDataHDRSized(data, b.width, b.height, b.channels)
}

// SetDataHDRSized replaces the buffer contents with float data of the given
// dimensions, taking ownership of data.
func (b *Buffer) SetDataHDRSized(data []float32, width, height, channels int) error {
	if err := checkDimensions(width, height, channels); err != nil {
		return err
	}
	if err := checkLength(len(data), width, height, channels); err != nil {
		return err
	}
	b.release()
	b.width, b.height, b.channels = width, height, channels
	b.format = FormatFloat
	b.hdr = data
	return nil
}

// CopyDataHDR is like SetDataHDR but copies data instead of taking ownership.
func (b *Buffer) CopyDataHDR(data []float32) error {
	return b.SetDataHDR(append([]float32(nil), data...))
}

// Data returns the staged 8-bit data.
// Returns ErrNotLoaded if the buffer is empty and an error matching both
// ErrFormatMismatch and ErrNotLoaded if it holds float data.
func (b *Buffer) Data() ([]byte, error) {
	if b.IsEmpty() {
		return nil, ErrNotLoaded
	}
	if b.format != FormatInteger {
		return nil, fmt.Errorf("%w: buffer holds %v data: %w", ErrFormatMismatch, b.format, ErrNotLoaded)
	}
	return b.data, nil
}

// DataHDR returns the staged float data.
// Returns ErrNotLoaded if the buffer is empty and an error matching both
// ErrFormatMismatch and ErrNotLoaded if it holds 8-bit data.
func (b *Buffer) DataHDR() ([]float32, error) {
	if b.IsEmpty() {
		return nil, ErrNotLoaded
	}
	if b.format != FormatFloat {
		return nil, fmt.Errorf("%w: buffer holds %v data: %w", ErrFormatMismatch, b.format, ErrNotLoaded)
	}
	return b.hdr, nil
}

// Clear releases the staged data and resets all metadata, including the
// source URL. Clear is idempotent.
func (b *Buffer) Clear() {
	b.release()
	b.width, b.height, b.channels = 0, 0, 0
	b.format = FormatNone
	b.sourceURL = ""
	b.fromURL = false
}

func (b *Buffer) release() {
	b.data = nil
	b.hdr = nil
}

// Width returns the image width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the image height in pixels.
func (b *Buffer) Height() int { return b.height }

// Channels returns the number of interleaved channels.
func (b *Buffer) Channels() int { return b.channels }

// Format returns the storage format.
func (b *Buffer) Format() Format { return b.format }

// Len returns the number of channel values (width*height*channels) when
// populated, or 0.
func (b *Buffer) Len() int {
	if b.IsEmpty() {
		return 0
	}
	return b.width * b.height * b.channels
}

// ByteSize returns the host size of the staged data in bytes.
func (b *Buffer) ByteSize() int {
	return b.Len() * b.format.BytesPerChannel()
}

// IsEmpty returns true if no data is staged.
func (b *Buffer) IsEmpty() bool {
	return b.data == nil && b.hdr == nil
}

// HasDimensions returns true if width, height and channels are known.
func (b *Buffer) HasDimensions() bool {
	return b.width > 0 && b.height > 0 && ValidChannels(b.channels)
}

// SourceURL returns the URL the data was downloaded from, if any.
func (b *Buffer) SourceURL() string { return b.sourceURL }

// LoadedFromURL returns true if the data was downloaded from a URL.
func (b *Buffer) LoadedFromURL() bool { return b.fromURL }

// SetSource records the URL the data was downloaded from.
// An empty url marks the data as loaded from a local source.
func (b *Buffer) SetSource(url string) {
	b.sourceURL = url
	b.fromURL = url != ""
}

// MoveFrom transfers the contents and metadata of src into b, leaving src
// empty. Any previous contents of b are released.
func (b *Buffer) MoveFrom(src *Buffer) {
	if src == b {
		return
	}
	*b = *src
	*src = Buffer{}
}

// Clone creates a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	c := *b
	if b.data != nil {
		c.data = append([]byte(nil), b.data...)
	}
	if b.hdr != nil {
		c.hdr = append([]float32(nil), b.hdr...)
	}
	return &c
}

// Value returns channel c of pixel i normalized to [0, 1] for integer data.
// Float data is returned as stored. Returns 0 when out of range or empty.
func (b *Buffer) Value(i, c int) float32 {
	if c < 0 || c >= b.channels || i < 0 || i >= b.width*b.height {
		return 0
	}
	off := i*b.channels + c
	switch {
	case b.data != nil:
		return float32(b.data[off]) / 255
	case b.hdr != nil:
		return b.hdr[off]
	default:
		return 0
	}
}

// Luminance returns the Rec. 601 luma of pixel i. Single-channel buffers
// return the channel itself.
func (b *Buffer) Luminance(i int) float32 {
	if b.channels == 1 {
		return b.Value(i, 0)
	}
	return 0.299*b.Value(i, 0) + 0.587*b.Value(i, 1) + 0.114*b.Value(i, 2)
}

// Alpha returns the alpha of pixel i, or 1 for buffers without alpha.
func (b *Buffer) Alpha(i int) float32 {
	if b.channels != 4 {
		return 1
	}
	return b.Value(i, 3)
}

// WidenToRGBA converts a 1- or 3-channel buffer to 4 channels in place,
// replicating gray into RGB and filling alpha with full opacity.
// 4-channel buffers are left untouched.
func (b *Buffer) WidenToRGBA() error {
	if b.IsEmpty() {
		return ErrNotLoaded
	}
	if b.channels == 4 {
		return nil
	}
	n := b.width * b.height
	src := b.channels
	switch b.format {
	case FormatInteger:
		out := make([]byte, n*4)
		for i := range n {
			widen(out[i*4:i*4+4], b.data[i*src:i*src+src], 255)
		}
		b.data = out
	case FormatFloat:
		out := make([]float32, n*4)
		for i := range n {
			widen(out[i*4:i*4+4], b.hdr[i*src:i*src+src], 1)
		}
		b.hdr = out
	}
	b.channels = 4
	return nil
}

func widen[T byte | float32](dst, src []T, opaque T) {
	if len(src) == 1 {
		dst[0], dst[1], dst[2] = src[0], src[0], src[0]
	} else {
		copy(dst, src[:3])
	}
	dst[3] = opaque
}

// ToRGBA8 returns a new tightly packed 4-channel 8-bit copy of the staged
// data. Float values are clamped to [0, 1] before quantization.
func (b *Buffer) ToRGBA8() ([]byte, error) {
	if b.IsEmpty() {
		return nil, ErrNotLoaded
	}
	n := b.width * b.height
	out := make([]byte, n*4)
	for i := range n {
		px := out[i*4 : i*4+4]
		switch b.channels {
		case 1:
			v := b.byteAt(i, 0)
			px[0], px[1], px[2], px[3] = v, v, v, 255
		case 3:
			px[0], px[1], px[2], px[3] = b.byteAt(i, 0), b.byteAt(i, 1), b.byteAt(i, 2), 255
		case 4:
			px[0], px[1], px[2], px[3] = b.byteAt(i, 0), b.byteAt(i, 1), b.byteAt(i, 2), b.byteAt(i, 3)
		}
	}
	return out, nil
}

func (b *Buffer) byteAt(i, c int) byte {
	if b.data != nil {
		return b.data[i*b.channels+c]
	}
	return QuantizeUnit(b.hdr[i*b.channels+c])
}

// QuantizeUnit maps a float in [0, 1] to a byte, clamping out-of-range
// values and treating NaN as 0.
func QuantizeUnit(v float32) byte {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(math.Round(float64(v) * 255))
}
