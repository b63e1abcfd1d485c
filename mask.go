package imgload

import (
	"fmt"
	"path/filepath"

	"github.com/gogpu/imgload/pixbuf"
	"github.com/gogpu/imgload/render"
)

// Mask is a per-pixel coverage in [0, 1] used as the alpha of an image.
// 0 is fully transparent, 1 fully opaque.
type Mask struct {
	width  int
	height int
	data   []float32
}

// NewMaskFromBuffer creates a mask from the Rec. 601 luminance of buf,
// scaled by its alpha when it has one.
func NewMaskFromBuffer(buf *pixbuf.Buffer) (*Mask, error) {
	if buf == nil || buf.IsEmpty() {
		return nil, ErrNotLoaded
	}
	m := &Mask{
		width:  buf.Width(),
		height: buf.Height(),
		data:   make([]float32, buf.Width()*buf.Height()),
	}
	for i := range m.data {
		m.data[i] = clampUnit(buf.Luminance(i) * buf.Alpha(i))
	}
	return m, nil
}

// Width returns the mask width.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height.
func (m *Mask) Height() int { return m.height }

// At returns the mask value at (x, y).
// Returns 0 for coordinates outside the mask bounds.
func (m *Mask) At(x, y int) float32 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.data[y*m.width+x]
}

// Invert inverts all mask values (1 - value).
func (m *Mask) Invert() {
	for i := range m.data {
		m.data[i] = 1 - m.data[i]
	}
}

// Apply replaces the alpha of primary with the mask. Buffers with 1 or 3
// channels are widened to RGBA first.
func (m *Mask) Apply(primary *pixbuf.Buffer) error {
	if primary == nil || primary.IsEmpty() {
		return ErrNotLoaded
	}
	if primary.Width() != m.width || primary.Height() != m.height {
		return fmt.Errorf("%w: image %dx%d, mask %dx%d",
			ErrDimensionMismatch, primary.Width(), primary.Height(), m.width, m.height)
	}
	if err := primary.WidenToRGBA(); err != nil {
		return err
	}

	if primary.Format() == pixbuf.FormatFloat {
		hdr, err := primary.DataHDR()
		if err != nil {
			return err
		}
		for i, v := range m.data {
			hdr[i*4+3] = v
		}
		return nil
	}

	data, err := primary.Data()
	if err != nil {
		return err
	}
	for i, v := range m.data {
		data[i*4+3] = pixbuf.QuantizeUnit(v)
	}
	return nil
}

// CompositeMask replaces the alpha of primary with the luminance of mask.
// Both must have the same size; on ErrDimensionMismatch primary is left
// unchanged.
func CompositeMask(primary, mask *pixbuf.Buffer) error {
	m, err := NewMaskFromBuffer(mask)
	if err != nil {
		return err
	}
	return m.Apply(primary)
}

// LoadMaskImage loads the mask at maskPath, composites it into the staged
// data and uploads the result. Relative paths are project images, absolute
// paths are read as given.
//
// The staged data and the device are untouched when the mask cannot be
// loaded or its size differs.
func (i *Image) LoadMaskImage(maskPath string) (render.Texture, error) {
	if i.buf.IsEmpty() {
		return render.Texture{}, ErrNotLoaded
	}

	var (
		mask *pixbuf.Buffer
		err  error
	)
	if filepath.IsAbs(maskPath) {
		mask, err = i.loader.LoadPath(maskPath)
	} else {
		mask, err = i.loader.LoadAsset(maskPath)
	}
	if err != nil {
		return render.Texture{}, err
	}

	if err := CompositeMask(i.buf, mask); err != nil {
		return render.Texture{}, err
	}
	i.state = StateEdited
	if err := i.UseData(); err != nil {
		return render.Texture{}, err
	}
	return i.tex, nil
}

func clampUnit(v float32) float32 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
