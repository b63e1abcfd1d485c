package pixbuf

import (
	"errors"
	"testing"
)

func TestSetData(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		width    int
		height   int
		channels int
		wantErr  error
	}{
		{"RGBA 2x2", 16, 2, 2, 4, nil},
		{"RGB 3x1", 9, 3, 1, 3, nil},
		{"gray 1x1", 1, 1, 1, 1, nil},
		{"zero width", 0, 0, 2, 4, ErrInvalidDimensions},
		{"negative height", 8, 2, -1, 4, ErrInvalidDimensions},
		{"two channels", 8, 2, 2, 2, ErrInvalidDimensions},
		{"five channels", 20, 2, 2, 5, ErrInvalidDimensions},
		{"short data", 15, 2, 2, 4, ErrInvalidDimensions},
		{"long data", 17, 2, 2, 4, ErrInvalidDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			err := b.SetData(make([]byte, tt.length), tt.width, tt.height, tt.channels)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetData() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !b.IsEmpty() {
					t.Error("failed SetData() left data staged")
				}
				return
			}
			if b.Width() != tt.width || b.Height() != tt.height || b.Channels() != tt.channels {
				t.Errorf("dims = %dx%dx%d, want %dx%dx%d",
					b.Width(), b.Height(), b.Channels(), tt.width, tt.height, tt.channels)
			}
			if b.Format() != FormatInteger {
				t.Errorf("Format() = %v, want Integer", b.Format())
			}
			if b.Len() != tt.length {
				t.Errorf("Len() = %d, want %d", b.Len(), tt.length)
			}
		})
	}
}

func TestSetDataRoundTrip(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	b, err := FromBytes(src, 2, 1, 4)
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	got, err := b.Data()
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if len(got) != len(src) {
		t.Fatalf("len(Data()) = %d, want %d", len(got), len(src))
	}
	for i := range src {
		if got[i] != src[i] {
			t.Errorf("Data()[%d] = %d, want %d", i, got[i], src[i])
		}
	}
	// Data returns the owned slice: writes through it are staged edits.
	got[0] = 99
	again, _ := b.Data()
	if again[0] != 99 {
		t.Errorf("edit through Data() not visible, got %d", again[0])
	}
}

func TestCopyDataIsIndependent(t *testing.T) {
	src := []byte{10, 20, 30}
	b := New()
	if err := b.CopyData(src, 1, 1, 3); err != nil {
		t.Fatalf("CopyData() error = %v", err)
	}
	src[0] = 0
	got, _ := b.Data()
	if got[0] != 10 {
		t.Errorf("CopyData() aliased caller slice: got %d, want 10", got[0])
	}
}

func TestSetDataHDR(t *testing.T) {
	t.Run("without dimensions", func(t *testing.T) {
		b := New()
		err := b.SetDataHDR([]float32{0.5})
		if !errors.Is(err, ErrFormatMismatch) {
			t.Errorf("SetDataHDR() error = %v, want ErrFormatMismatch", err)
		}
	})

	t.Run("after NewSized", func(t *testing.T) {
		b, err := NewSized(2, 2, 1, FormatFloat)
		if err != nil {
			t.Fatalf("NewSized() error = %v", err)
		}
		src := []float32{0, 0.25, 2.5, -1}
		if err := b.SetDataHDR(src); err != nil {
			t.Fatalf("SetDataHDR() error = %v", err)
		}
		got, err := b.DataHDR()
		if err != nil {
			t.Fatalf("DataHDR() error = %v", err)
		}
		for i := range src {
			if got[i] != src[i] {
				t.Errorf("DataHDR()[%d] = %v, want %v", i, got[i], src[i])
			}
		}
	})

	t.Run("after integer load", func(t *testing.T) {
		b, _ := FromBytes(make([]byte, 6), 2, 1, 3)
		if err := b.SetDataHDR(make([]float32, 6)); err != nil {
			t.Fatalf("SetDataHDR() error = %v", err)
		}
		if b.Format() != FormatFloat {
			t.Errorf("Format() = %v, want Float", b.Format())
		}
		if _, err := b.Data(); !errors.Is(err, ErrFormatMismatch) {
			t.Errorf("Data() error = %v, want ErrFormatMismatch", err)
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		b, _ := NewSized(2, 2, 4, FormatFloat)
		err := b.SetDataHDR(make([]float32, 15))
		if !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("SetDataHDR() error = %v, want ErrInvalidDimensions", err)
		}
	})
}

func TestReplaceData(t *testing.T) {
	b := New()
	if err := b.ReplaceData([]byte{1}); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("ReplaceData() on empty error = %v, want ErrFormatMismatch", err)
	}
	b, _ = NewSized(1, 2, 1, FormatInteger)
	if err := b.ReplaceData([]byte{7, 8}); err != nil {
		t.Fatalf("ReplaceData() error = %v", err)
	}
	got, _ := b.Data()
	if got[1] != 8 {
		t.Errorf("Data()[1] = %d, want 8", got[1])
	}
}

func TestClear(t *testing.T) {
	b, _ := FromBytes(make([]byte, 4), 1, 1, 4)
	b.SetSource("https://example.com/a.png")
	b.Clear()
	b.Clear()

	if !b.IsEmpty() {
		t.Error("IsEmpty() = false after Clear()")
	}
	if b.Width() != 0 || b.Height() != 0 || b.Channels() != 0 {
		t.Errorf("dims = %dx%dx%d after Clear(), want zero", b.Width(), b.Height(), b.Channels())
	}
	if b.Format() != FormatNone {
		t.Errorf("Format() = %v, want None", b.Format())
	}
	if b.SourceURL() != "" || b.LoadedFromURL() {
		t.Error("source URL survived Clear()")
	}
	if _, err := b.Data(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Data() error = %v, want ErrNotLoaded", err)
	}
	if _, err := b.DataHDR(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("DataHDR() error = %v, want ErrNotLoaded", err)
	}
	if err := b.SetDataHDR([]float32{1, 1, 1, 1}); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("SetDataHDR() after Clear() error = %v, want ErrFormatMismatch", err)
	}
}

func TestCrossFormatAccess(t *testing.T) {
	ib, _ := FromBytes(make([]byte, 3), 1, 1, 3)
	_, err := ib.DataHDR()
	if !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("DataHDR() on integer error = %v, want ErrFormatMismatch", err)
	}
	if !errors.Is(err, ErrNotLoaded) {
		t.Errorf("DataHDR() on integer error = %v, want it to match ErrNotLoaded", err)
	}

	fb, _ := FromFloats(make([]float32, 3), 1, 1, 3)
	if _, err := fb.Data(); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("Data() on float error = %v, want ErrFormatMismatch", err)
	}
}

func TestNewSized(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		ch      int
		wantErr error
	}{
		{"integer", FormatInteger, 4, nil},
		{"float", FormatFloat, 3, nil},
		{"none", FormatNone, 4, ErrFormatMismatch},
		{"unknown", Format(9), 4, ErrFormatMismatch},
		{"bad channels", FormatInteger, 0, ErrInvalidDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewSized(4, 4, tt.ch, tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewSized() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !b.IsEmpty() {
				t.Error("NewSized() buffer has staged data")
			}
		})
	}
}

func TestClone(t *testing.T) {
	b, _ := FromFloats([]float32{0.1, 0.2, 0.3}, 1, 1, 3)
	b.SetSource("https://example.com/x.hdr")
	c := b.Clone()
	orig, _ := b.DataHDR()
	orig[0] = 9

	got, _ := c.DataHDR()
	if got[0] != 0.1 {
		t.Errorf("Clone() shares data: got %v", got[0])
	}
	if c.SourceURL() != b.SourceURL() {
		t.Errorf("Clone().SourceURL() = %q, want %q", c.SourceURL(), b.SourceURL())
	}
}

func TestMoveFrom(t *testing.T) {
	src, _ := FromBytes([]byte{1, 2, 3, 4}, 1, 1, 4)
	dst := New()
	dst.MoveFrom(src)
	if !src.IsEmpty() {
		t.Error("source not empty after MoveFrom()")
	}
	if dst.Len() != 4 {
		t.Errorf("Len() = %d, want 4", dst.Len())
	}
}

func TestWidenToRGBA(t *testing.T) {
	tests := []struct {
		name string
		buf  func() *Buffer
		want []float32
	}{
		{
			name: "gray bytes",
			buf:  func() *Buffer { b, _ := FromBytes([]byte{51}, 1, 1, 1); return b },
			want: []float32{0.2, 0.2, 0.2, 1},
		},
		{
			name: "rgb bytes",
			buf:  func() *Buffer { b, _ := FromBytes([]byte{255, 0, 102}, 1, 1, 3); return b },
			want: []float32{1, 0, 0.4, 1},
		},
		{
			name: "rgb floats",
			buf:  func() *Buffer { b, _ := FromFloats([]float32{2, 0.5, 0}, 1, 1, 3); return b },
			want: []float32{2, 0.5, 0, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.buf()
			if err := b.WidenToRGBA(); err != nil {
				t.Fatalf("WidenToRGBA() error = %v", err)
			}
			if b.Channels() != 4 {
				t.Fatalf("Channels() = %d, want 4", b.Channels())
			}
			for c, want := range tt.want {
				if got := b.Value(0, c); got != want {
					t.Errorf("Value(0, %d) = %v, want %v", c, got, want)
				}
			}
		})
	}
}

func TestToRGBA8(t *testing.T) {
	b, _ := FromFloats([]float32{-1, 0.5, 3}, 1, 1, 3)
	got, err := b.ToRGBA8()
	if err != nil {
		t.Fatalf("ToRGBA8() error = %v", err)
	}
	want := []byte{0, 128, 255, 255}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToRGBA8()[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	if _, err := New().ToRGBA8(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("ToRGBA8() on empty error = %v, want ErrNotLoaded", err)
	}
}

func TestLuminance(t *testing.T) {
	b, _ := FromBytes([]byte{255, 255, 255, 128, 255, 0, 0, 255}, 2, 1, 4)
	if got := b.Luminance(0); got < 0.999 || got > 1.001 {
		t.Errorf("Luminance(white) = %v, want 1", got)
	}
	if got := b.Luminance(1); got < 0.298 || got > 0.300 {
		t.Errorf("Luminance(red) = %v, want 0.299", got)
	}
	if got := b.Alpha(0); got < 0.50 || got > 0.51 {
		t.Errorf("Alpha(0) = %v, want ~0.502", got)
	}
}
