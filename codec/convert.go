package codec

import (
	"image"
	"image/color"

	"github.com/gogpu/imgload/pixbuf"
)

// FromImage converts a standard library image into a tightly packed integer
// buffer. Gray images keep one channel, opaque images get three, and
// everything else is converted to non-premultiplied RGBA.
func FromImage(img image.Image) (*pixbuf.Buffer, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var (
		channels int
		data     []byte
	)
	switch src := img.(type) {
	case *image.Gray:
		channels = 1
		data = packRows(src.Pix, src.Stride, width, height, 1)
	case *image.NRGBA:
		channels = 4
		data = packRows(src.Pix, src.Stride, width, height, 4)
	default:
		if isOpaque(img) {
			channels = 3
		} else {
			channels = 4
		}
		data = make([]byte, width*height*channels)
		for y := range height {
			for x := range width {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				i := (y*width + x) * channels
				data[i], data[i+1], data[i+2] = c.R, c.G, c.B
				if channels == 4 {
					data[i+3] = c.A
				}
			}
		}
	}

	return pixbuf.FromBytes(data, width, height, channels)
}

func packRows(pix []byte, stride, width, height, bpp int) []byte {
	row := width * bpp
	out := make([]byte, row*height)
	if stride == row {
		copy(out, pix)
		return out
	}
	for y := range height {
		copy(out[y*row:(y+1)*row], pix[y*stride:y*stride+row])
	}
	return out
}

func isOpaque(img image.Image) bool {
	if _, ok := img.(*image.YCbCr); ok {
		return true
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// ToImage converts a buffer into a standard library image for encoding.
// One-channel buffers become *image.Gray; everything else becomes
// *image.NRGBA. Float data is clamped to [0, 1].
func ToImage(buf *pixbuf.Buffer) (image.Image, error) {
	rect := image.Rect(0, 0, buf.Width(), buf.Height())

	if buf.Channels() == 1 {
		gray := image.NewGray(rect)
		n := buf.Width() * buf.Height()
		switch buf.Format() {
		case pixbuf.FormatInteger:
			data, err := buf.Data()
			if err != nil {
				return nil, err
			}
			copy(gray.Pix, data)
		default:
			data, err := buf.DataHDR()
			if err != nil {
				return nil, err
			}
			for i := range n {
				gray.Pix[i] = pixbuf.QuantizeUnit(data[i])
			}
		}
		return gray, nil
	}

	rgba, err := buf.ToRGBA8()
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{Pix: rgba, Stride: buf.Width() * 4, Rect: rect}, nil
}
