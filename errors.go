package imgload

import (
	"errors"

	"github.com/gogpu/imgload/codec"
	"github.com/gogpu/imgload/loader"
	"github.com/gogpu/imgload/pixbuf"
	"github.com/gogpu/imgload/render"
)

// Errors returned by the package. Errors from sub-packages are re-exported
// so callers can match every failure kind with errors.Is against imgload.
var (
	// ErrIO is returned when a file or folder cannot be read or written.
	ErrIO = loader.ErrIO

	// ErrNetwork is returned when a download fails.
	ErrNetwork = loader.ErrNetwork

	// ErrDecode is returned when content is not a decodable image.
	ErrDecode = loader.ErrDecode

	// ErrInvalidDimensions is returned for non-positive sizes, unsupported
	// channel counts or data of the wrong length.
	ErrInvalidDimensions = pixbuf.ErrInvalidDimensions

	// ErrFormatMismatch is returned when integer data is accessed as float
	// or the reverse.
	ErrFormatMismatch = pixbuf.ErrFormatMismatch

	// ErrNotLoaded is returned when an operation needs staged data.
	ErrNotLoaded = pixbuf.ErrNotLoaded

	// ErrGPU is returned when texture creation or upload fails.
	ErrGPU = render.ErrGPU

	// ErrUnsupportedFormat is returned when saving to an unknown extension.
	ErrUnsupportedFormat = codec.ErrUnsupportedFormat

	// ErrDimensionMismatch is returned when a mask and its image differ in
	// size.
	ErrDimensionMismatch = errors.New("imgload: mask size differs from image")

	// ErrNoDevice is returned when materializing an Image created without
	// a device.
	ErrNoDevice = errors.New("imgload: no texture device")
)
