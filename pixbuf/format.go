// Package pixbuf provides the host-memory pixel buffer that images are staged
// in between loading and GPU upload.
//
// A Buffer holds either 8-bit-per-channel data or 32-bit float data (HDR),
// never both. Layout is always tightly packed, row-major, top-left origin,
// with interleaved channels.
package pixbuf

// Format represents the per-channel storage format of a Buffer.
type Format uint8

const (
	// FormatNone is the format of an empty buffer.
	FormatNone Format = iota

	// FormatInteger stores one byte per channel.
	FormatInteger

	// FormatFloat stores one float32 per channel (HDR).
	FormatFloat

	// formatCount is the number of formats (for internal use).
	formatCount
)

// FormatInfo contains metadata about a storage format.
type FormatInfo struct {
	// BytesPerChannel is the host size of a single channel value.
	BytesPerChannel int

	// BitsPerChannel is the number of bits per channel value.
	BitsPerChannel int

	// IsHDR indicates values are not clamped to [0, 1].
	IsHDR bool
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatNone:    {},
	FormatInteger: {BytesPerChannel: 1, BitsPerChannel: 8},
	FormatFloat:   {BytesPerChannel: 4, BitsPerChannel: 32, IsHDR: true},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerChannel returns the host size of one channel value.
func (f Format) BytesPerChannel() int {
	return f.Info().BytesPerChannel
}

// IsHDR returns true for floating-point formats.
func (f Format) IsHDR() bool {
	return f.Info().IsHDR
}

// IsValid returns true if the format can hold pixel data.
func (f Format) IsValid() bool {
	return f == FormatInteger || f == FormatFloat
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatNone:
		return "None"
	case FormatInteger:
		return "Integer"
	case FormatFloat:
		return "Float"
	default:
		return "Unknown"
	}
}

// ValidChannels reports whether n is a supported channel count (1, 3 or 4).
func ValidChannels(n int) bool {
	return n == 1 || n == 3 || n == 4
}

// ImageBytes returns the number of host bytes needed for an image of the
// given dimensions in this format.
func (f Format) ImageBytes(width, height, channels int) int {
	return width * height * channels * f.BytesPerChannel()
}
