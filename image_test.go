package imgload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/gogpu/imgload/assets"
	"github.com/gogpu/imgload/loader"
	"github.com/gogpu/imgload/pixbuf"
	"github.com/gogpu/imgload/render"
)

// encodePNG encodes img, failing the test on error.
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// translucentPNG returns a w×h RGBA image with alpha below 255.
func translucentPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 128})
		}
	}
	return encodePNG(t, img)
}

// grayPNG returns a single row gray image with the given values.
func grayPNG(t *testing.T, values ...uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, len(values), 1))
	copy(img.Pix, values)
	return encodePNG(t, img)
}

type testEnv struct {
	fs     *assets.HackpadFS
	loader *loader.Loader
	dev    *render.MemoryDevice
}

func newTestEnv(t *testing.T, opts ...loader.Option) *testEnv {
	t.Helper()
	fsys, err := assets.NewMemFS()
	if err != nil {
		t.Fatal(err)
	}
	opts = append([]loader.Option{
		loader.WithFS(fsys),
		loader.WithConfig(assets.Config{Scaling: "none"}),
		loader.WithDownloadDir("downloads"),
	}, opts...)
	return &testEnv{
		fs:     fsys,
		loader: loader.New(opts...),
		dev:    render.NewMemoryDevice(),
	}
}

func (e *testEnv) write(t *testing.T, name string, data []byte) {
	t.Helper()
	if err := e.fs.WriteFile(name, data); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) image() *Image {
	return New(WithLoader(e.loader), WithDevice(e.dev))
}

func TestLogoScenario(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "assets/images/logo.png", translucentPNG(t, 4, 3))
	img := env.image()

	if err := img.LoadImage("logo.png"); err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	data, err := img.ImageData()
	if err != nil {
		t.Fatalf("ImageData() error = %v", err)
	}
	if len(data) != 4*3*4 || img.Buffer().Channels() != 4 {
		t.Errorf("ImageData() = %d bytes, %d channels, want 48, 4", len(data), img.Buffer().Channels())
	}
	if !img.Texture().IsValid() {
		t.Fatal("Texture() invalid after LoadImage")
	}
	if img.State() != StateMaterialized {
		t.Errorf("State() = %v, want Materialized", img.State())
	}

	img.ClearData()
	if _, err := img.ImageData(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("ImageData() after ClearData error = %v, want ErrNotLoaded", err)
	}
	if img.State() != StateEmpty {
		t.Errorf("State() = %v, want Empty", img.State())
	}
	if !img.Texture().IsValid() || img.Width() != 4 || img.Height() != 3 {
		t.Errorf("texture after ClearData = %+v, size %dx%d", img.Texture(), img.Width(), img.Height())
	}
}

func TestLoadFailureLeavesEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "assets/images/logo.png", translucentPNG(t, 2, 2))
	env.write(t, "broken.png", []byte("not an image"))
	img := env.image()

	if err := img.LoadImageData("logo.png"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		load func() error
		want error
	}{
		{"missing file", func() error { return img.LoadData("nope.png") }, ErrIO},
		{"missing asset", func() error { return img.LoadImage("nope.png") }, ErrIO},
		{"undecodable", func() error { return img.Load("broken.png") }, ErrDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := img.LoadImageData("logo.png"); err != nil {
				t.Fatal(err)
			}
			if err := tt.load(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if img.State() != StateEmpty || !img.Buffer().IsEmpty() {
				t.Errorf("State() = %v, empty = %v, want Empty", img.State(), img.Buffer().IsEmpty())
			}
		})
	}
	if n := env.dev.Creates(); n != 0 {
		t.Errorf("Creates() = %d, want 0", n)
	}
}

func TestStateTransitions(t *testing.T) {
	env := newTestEnv(t)
	img := env.image()

	if img.State() != StateEmpty {
		t.Fatalf("State() = %v, want Empty", img.State())
	}
	if err := img.UseData(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("UseData() on empty error = %v, want ErrNotLoaded", err)
	}

	steps := []struct {
		name string
		do   func() error
		want State
	}{
		{"set sized", func() error { return img.SetImageDataSized([]byte{1, 2, 3, 4, 5, 6}, 2, 1, 3) }, StateEdited},
		{"use", img.UseData, StateMaterialized},
		{"replace", func() error { return img.SetImageData([]byte{6, 5, 4, 3, 2, 1}) }, StateEdited},
		{"reuse", img.UseData, StateMaterialized},
		{"release", func() error { img.Release(); return nil }, StateLoaded},
		{"clear", func() error { img.ClearData(); return nil }, StateEmpty},
	}
	for _, s := range steps {
		if err := s.do(); err != nil {
			t.Fatalf("%s: error = %v", s.name, err)
		}
		if img.State() != s.want {
			t.Errorf("%s: State() = %v, want %v", s.name, img.State(), s.want)
		}
	}

	if env.dev.Creates() != 1 || env.dev.Live() != 0 {
		t.Errorf("Creates() = %d, Live() = %d, want 1, 0", env.dev.Creates(), env.dev.Live())
	}
}

func TestRematerializeAfterEdit(t *testing.T) {
	env := newTestEnv(t)
	img := env.image()

	if err := img.SetImageDataSized([]byte{10, 20, 30, 40}, 1, 1, 4); err != nil {
		t.Fatal(err)
	}
	if err := img.UseData(); err != nil {
		t.Fatal(err)
	}

	data, err := img.ImageData()
	if err != nil {
		t.Fatal(err)
	}
	data[0] = 99
	if err := img.UseData(); err != nil {
		t.Fatal(err)
	}

	tex, _ := env.dev.Texture(img.Texture().Handle)
	if tex.Pixels[0] != 99 || tex.Writes != 1 {
		t.Errorf("texture = %v with %d writes, want fresh upload of edit", tex.Pixels, tex.Writes)
	}
}

func TestNewSized(t *testing.T) {
	env := newTestEnv(t)
	img, err := NewSized(2, 1, 1, pixbuf.FormatFloat, WithLoader(env.loader), WithDevice(env.dev))
	if err != nil {
		t.Fatalf("NewSized() error = %v", err)
	}
	if img.Width() != 2 || img.Height() != 1 {
		t.Errorf("size = %dx%d, want 2x1", img.Width(), img.Height())
	}
	if err := img.SetImageDataHDR([]float32{0.25, 4}); err != nil {
		t.Fatalf("SetImageDataHDR() error = %v", err)
	}
	if _, err := img.ImageData(); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("ImageData() on float error = %v, want ErrFormatMismatch", err)
	}
	if err := img.UseData(); err != nil {
		t.Fatal(err)
	}
	if f := img.Texture().Format.String(); f != "R32Float" {
		t.Errorf("texture format = %s, want R32Float", f)
	}

	if _, err := NewSized(0, 1, 4, pixbuf.FormatInteger); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewSized(0, ...) error = %v, want ErrInvalidDimensions", err)
	}
}

func TestUseDataWithoutDevice(t *testing.T) {
	env := newTestEnv(t)
	img := New(WithLoader(env.loader))
	if err := img.SetImageDataSized([]byte{1}, 1, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := img.UseData(); !errors.Is(err, ErrNoDevice) {
		t.Errorf("UseData() error = %v, want ErrNoDevice", err)
	}
	if img.State() != StateEdited {
		t.Errorf("State() = %v, want Edited", img.State())
	}
}

func TestUseDataDeviceFailure(t *testing.T) {
	env := newTestEnv(t)
	img := env.image()
	if err := img.SetImageDataSized([]byte{1, 2, 3, 4}, 1, 1, 4); err != nil {
		t.Fatal(err)
	}
	env.dev.FailNext(errors.New("out of memory"))
	if err := img.UseData(); !errors.Is(err, ErrGPU) {
		t.Errorf("UseData() error = %v, want ErrGPU", err)
	}
	if img.Texture().IsValid() {
		t.Error("Texture() valid after failed upload")
	}
}

func TestSaveImage(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "assets/images/logo.png", translucentPNG(t, 3, 2))
	img := env.image()
	if err := img.LoadImageData("logo.png"); err != nil {
		t.Fatal(err)
	}
	want, _ := img.ImageData()
	want = append([]byte(nil), want...)

	path, err := img.SaveImage("copy.png")
	if err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}
	if path != "assets/images/copy.png" {
		t.Errorf("SaveImage() path = %q, want assets/images/copy.png", path)
	}
	if !env.fs.Exists(path) {
		t.Fatal("saved file missing")
	}

	back := env.image()
	if err := back.LoadImageData("copy.png"); err != nil {
		t.Fatalf("LoadImageData(copy) error = %v", err)
	}
	got, _ := back.ImageData()
	if !bytes.Equal(got, want) {
		t.Errorf("saved pixels = %v, want %v", got, want)
	}
}

func TestSaveImageHDR(t *testing.T) {
	env := newTestEnv(t)
	img, err := NewSized(2, 1, 3, pixbuf.FormatFloat, WithLoader(env.loader))
	if err != nil {
		t.Fatal(err)
	}
	if err := img.SetImageDataHDR([]float32{1, 2, 4, 0.5, 0.25, 8}); err != nil {
		t.Fatal(err)
	}
	if _, err := img.SaveImage("sky.hdr"); err != nil {
		t.Fatalf("SaveImage(hdr) error = %v", err)
	}

	back := New(WithLoader(env.loader))
	if err := back.LoadImageData("sky.hdr"); err != nil {
		t.Fatal(err)
	}
	got, err := back.ImageDataHDR()
	if err != nil {
		t.Fatalf("ImageDataHDR() error = %v", err)
	}
	if len(got) != 6 || got[2] != 4 || got[5] != 8 {
		t.Errorf("ImageDataHDR() = %v", got)
	}
}

func TestSaveImageErrors(t *testing.T) {
	env := newTestEnv(t)
	img := env.image()

	if _, err := img.SaveImage("a.png"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("SaveImage(empty) error = %v, want ErrNotLoaded", err)
	}
	if err := img.SetImageDataSized([]byte{1, 2, 3}, 1, 1, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := img.SaveImage("a.xyz"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("SaveImage(xyz) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := img.SaveImage("a.gif"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("SaveImage(gif) error = %v, want ErrUnsupportedFormat", err)
	}
}

// waitDrain drains q until it has run n functions or the deadline passes.
func waitDrain(t *testing.T, q *render.FrameQueue, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for ran := 0; ran < n; {
		ran += q.Drain()
		if time.Now().After(deadline) {
			t.Fatalf("drained %d functions, want %d", ran, n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLoadDataAsync(t *testing.T) {
	q := &render.FrameQueue{}
	env := newTestEnv(t, loader.WithDispatcher(q))
	env.write(t, "assets/images/logo.png", translucentPNG(t, 2, 2))
	img := env.image()

	var (
		called bool
		gotErr error
	)
	task := img.LoadDataAsync(context.Background(), loader.AssetRequest("logo.png"), func(err error) {
		called, gotErr = true, err
	})
	if img.State() != StateLoading {
		t.Errorf("State() = %v, want Loading", img.State())
	}

	<-task.Done()
	waitDrain(t, q, 1)

	if !called || gotErr != nil {
		t.Fatalf("done called = %v, err = %v", called, gotErr)
	}
	if img.State() != StateLoaded || img.Width() != 2 {
		t.Errorf("State() = %v, Width() = %d, want Loaded, 2", img.State(), img.Width())
	}
	if err := img.UseData(); err != nil {
		t.Errorf("UseData() error = %v", err)
	}
}

func TestLoadDataAsyncError(t *testing.T) {
	q := &render.FrameQueue{}
	env := newTestEnv(t, loader.WithDispatcher(q))
	img := env.image()

	var gotErr error
	task := img.LoadDataAsync(context.Background(), loader.PathRequest("missing.png"), func(err error) {
		gotErr = err
	})
	<-task.Done()
	waitDrain(t, q, 1)

	if !errors.Is(gotErr, ErrIO) {
		t.Errorf("done error = %v, want ErrIO", gotErr)
	}
	if img.State() != StateEmpty {
		t.Errorf("State() = %v, want Empty", img.State())
	}
}

func TestCancelLoad(t *testing.T) {
	q := &render.FrameQueue{}
	env := newTestEnv(t, loader.WithDispatcher(q))
	env.write(t, "assets/images/logo.png", translucentPNG(t, 2, 2))
	img := env.image()

	task := img.LoadDataAsync(context.Background(), loader.AssetRequest("logo.png"), func(error) {
		t.Error("done called after CancelLoad")
	})
	<-task.Done()
	img.CancelLoad()
	q.Drain()

	if img.State() != StateEmpty || !img.Buffer().IsEmpty() {
		t.Errorf("State() = %v, want Empty with no data", img.State())
	}
}

func TestImageURL(t *testing.T) {
	env := newTestEnv(t)
	img := env.image()
	if img.ImageURL() != "" {
		t.Errorf("ImageURL() = %q, want empty", img.ImageURL())
	}
	a, b := img.GenerateDownloadedImagePath("png"), img.GenerateDownloadedImagePath("")
	if a == b {
		t.Errorf("GenerateDownloadedImagePath() returned %q twice", a)
	}
}
