package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gogpu/imgload/pixbuf"
)

// Radiance RGBE (.hdr) support.
//
// Reads flat and new-style run-length encoded scanlines with the standard
// "-Y height +X width" orientation. Writes run-length planes made of literal
// runs, or flat scanlines when the width is outside the RLE range.

var radianceMagic = [][]byte{[]byte("#?RADIANCE"), []byte("#?RGBE")}

func isRadiance(data []byte) bool {
	for _, m := range radianceMagic {
		if bytes.HasPrefix(data, m) {
			return true
		}
	}
	return false
}

func (c *Codec) decodeRadiance(data []byte) (*pixbuf.Buffer, error) {
	r := bytes.NewReader(data)
	br := bufio.NewReader(r)

	width, height, err := readRadianceHeader(br)
	if err != nil {
		return nil, err
	}
	if err := c.checkSize(width, height); err != nil {
		return nil, err
	}
	body := r.Len() + br.Buffered()
	if need := minRadianceScanline(width); body/need < height {
		return nil, fmt.Errorf("%w: %dx%d needs at least %d bytes of scanlines, have %d",
			ErrTooLarge, width, height, need*height, body)
	}

	out := make([]float32, width*height*3)
	scan := make([]byte, width*4)
	for y := range height {
		if err := readRadianceScanline(br, scan, width); err != nil {
			return nil, fmt.Errorf("codec: decode hdr: scanline %d: %w", y, err)
		}
		row := out[y*width*3 : (y+1)*width*3]
		for x := range width {
			rgbeToFloat(row[x*3:x*3+3], scan[x*4:x*4+4])
		}
	}

	return pixbuf.FromFloats(out, width, height, 3)
}

func readRadianceHeader(br *bufio.Reader) (width, height int, err error) {
	line, err := br.ReadString('\n')
	if err != nil || !isRadiance([]byte(line)) {
		return 0, 0, fmt.Errorf("%w: missing radiance signature", ErrUnsupportedFormat)
	}

	for {
		line, err = br.ReadString('\n')
		if err != nil {
			return 0, 0, fmt.Errorf("codec: decode hdr: header: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "FORMAT="); ok && v != "32-bit_rle_rgbe" {
			return 0, 0, fmt.Errorf("%w: hdr format %q", ErrUnsupportedFormat, v)
		}
	}

	line, err = br.ReadString('\n')
	if err != nil {
		return 0, 0, fmt.Errorf("codec: decode hdr: resolution: %w", err)
	}
	if _, err := fmt.Sscanf(line, "-Y %d +X %d", &height, &width); err != nil {
		return 0, 0, fmt.Errorf("%w: hdr resolution %q", ErrUnsupportedFormat, strings.TrimSpace(line))
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", pixbuf.ErrInvalidDimensions, width, height)
	}
	return width, height, nil
}

// minRadianceScanline returns the fewest bytes a scanline of width pixels
// can be encoded in: the RLE marker plus one two-byte run per 127 pixels in
// each of the four planes, or four bytes per pixel when RLE is not allowed.
func minRadianceScanline(width int) int {
	if width < 8 || width >= 0x8000 {
		return width * 4
	}
	return 4 + 4*2*((width+126)/127)
}

func readRadianceScanline(br *bufio.Reader, scan []byte, width int) error {
	head := scan[:4]
	if _, err := io.ReadFull(br, head); err != nil {
		return err
	}

	rle := width >= 8 && width < 0x8000 &&
		head[0] == 2 && head[1] == 2 && head[2]&0x80 == 0
	if !rle {
		_, err := io.ReadFull(br, scan[4:])
		return err
	}
	if n := int(head[2])<<8 | int(head[3]); n != width {
		return fmt.Errorf("rle width %d, want %d", n, width)
	}

	// Each of the four components is stored as a separate run-length plane.
	plane := make([]byte, width)
	for c := range 4 {
		for x := 0; x < width; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count) - 128
				if x+n > width {
					return fmt.Errorf("run overflows scanline")
				}
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				for i := range n {
					plane[x+i] = v
				}
				x += n
				continue
			}
			n := int(count)
			if n == 0 || x+n > width {
				return fmt.Errorf("bad literal run %d", n)
			}
			if _, err := io.ReadFull(br, plane[x:x+n]); err != nil {
				return err
			}
			x += n
		}
		for x := range width {
			scan[x*4+c] = plane[x]
		}
	}
	return nil
}

func rgbeToFloat(dst []float32, rgbe []byte) {
	if rgbe[3] == 0 {
		dst[0], dst[1], dst[2] = 0, 0, 0
		return
	}
	f := float32(math.Ldexp(1, int(rgbe[3])-(128+8)))
	dst[0] = float32(rgbe[0]) * f
	dst[1] = float32(rgbe[1]) * f
	dst[2] = float32(rgbe[2]) * f
}

func floatToRGBE(dst []byte, r, g, b float32) {
	v := max(r, g, b)
	if v < 1e-32 {
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, 0
		return
	}
	m, e := math.Frexp(float64(v))
	scale := m * 256 / float64(v)
	dst[0] = byte(math.Max(0, float64(r)*scale))
	dst[1] = byte(math.Max(0, float64(g)*scale))
	dst[2] = byte(math.Max(0, float64(b)*scale))
	dst[3] = byte(e + 128)
}

func encodeRadiance(w io.Writer, buf *pixbuf.Buffer) error {
	width, height, ch := buf.Width(), buf.Height(), buf.Channels()

	var sample func(i, c int) float32
	switch buf.Format() {
	case pixbuf.FormatFloat:
		data, err := buf.DataHDR()
		if err != nil {
			return err
		}
		sample = func(i, c int) float32 { return data[i*ch+c] }
	default:
		if _, err := buf.Data(); err != nil {
			return err
		}
		sample = buf.Value
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y %d +X %d\n", height, width)

	scan := make([]byte, width*4)
	for y := range height {
		for x := range width {
			i := y*width + x
			r := sample(i, 0)
			g, b := r, r
			if ch >= 3 {
				g, b = sample(i, 1), sample(i, 2)
			}
			floatToRGBE(scan[x*4:x*4+4], r, g, b)
		}
		if err := writeRadianceScanline(bw, scan, width); err != nil {
			return fmt.Errorf("codec: encode hdr: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("codec: encode hdr: %w", err)
	}
	return nil
}

func writeRadianceScanline(w *bufio.Writer, scan []byte, width int) error {
	if width < 8 || width >= 0x8000 {
		_, err := w.Write(scan)
		return err
	}
	if _, err := w.Write([]byte{2, 2, byte(width >> 8), byte(width)}); err != nil {
		return err
	}
	chunk := make([]byte, 0, 129)
	for c := range 4 {
		for x := 0; x < width; x += 128 {
			n := min(128, width-x)
			chunk = append(chunk[:0], byte(n))
			for i := range n {
				chunk = append(chunk, scan[(x+i)*4+c])
			}
			if _, err := w.Write(chunk); err != nil {
				return err
			}
		}
	}
	return nil
}
