package codec

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/imgload/pixbuf"
)

// Encode writes buf to w in the format named by typ. typ is a type name as
// returned by TypeFromName ("png", "jpg", "webp", "bmp", "tif", "hdr").
//
// Float buffers are clamped to [0, 1] for the 8-bit formats; integer buffers
// are normalized to [0, 1] for HDR.
func (c *Codec) Encode(w io.Writer, buf *pixbuf.Buffer, typ string) error {
	if buf.IsEmpty() {
		return pixbuf.ErrNotLoaded
	}
	if typ == TypeHDR {
		return encodeRadiance(w, buf)
	}

	img, err := ToImage(buf)
	if err != nil {
		return err
	}

	switch typ {
	case TypePNG:
		err = png.Encode(w, img)
	case TypeJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: c.jpegQuality})
	case TypeWebP:
		err = nativewebp.Encode(w, img, nil)
	case TypeBMP:
		err = bmp.Encode(w, img)
	case TypeTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: encode %q", ErrUnsupportedFormat, typ)
	}
	if err != nil {
		return fmt.Errorf("codec: encode %s: %w", typ, err)
	}
	return nil
}
