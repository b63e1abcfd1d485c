// Command imgload loads an image, optionally applies a mask, uploads it to a
// headless texture device and saves the staged result.
//
// Usage:
//
//	imgload -asset logo.png -mask mask.png -save logo_masked.webp
//	imgload -url https://example.com/a.jpg -cut=false -v
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/imgload"
	"github.com/gogpu/imgload/assets"
	"github.com/gogpu/imgload/loader"
	"github.com/gogpu/imgload/render"
)

func main() {
	var (
		configFile = flag.String("config", assets.ConfigFile, "project configuration file")
		path       = flag.String("path", "", "image file to load")
		asset      = flag.String("asset", "", "project image to load, relative to the images folder")
		url        = flag.String("url", "", "image URL to download")
		cut        = flag.Bool("cut", true, "ignore URL parameters when caching downloads")
		mask       = flag.String("mask", "", "mask image whose luminance becomes the alpha")
		invert     = flag.Bool("invert-mask", false, "invert the mask before applying it")
		save       = flag.String("save", "", "file name to save the staged image as")
		timeout    = flag.Duration("timeout", time.Minute, "load timeout")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	imgload.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	req, err := request(*path, *asset, *url, *cut)
	if err != nil {
		log.Fatal(err)
	}

	fsys := assets.NewOSFS()
	cfg, err := loadConfig(fsys, *configFile)
	if err != nil {
		log.Fatal(err)
	}

	gpu := render.NewThread()
	defer gpu.Close()
	dev := render.NewMemoryDevice()

	l := loader.New(
		loader.WithFS(fsys),
		loader.WithConfig(cfg),
		loader.WithDispatcher(gpu),
	)
	if err := l.Err(); err != nil {
		log.Fatal(err)
	}
	img := imgload.New(imgload.WithLoader(l), imgload.WithDevice(dev))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	loaded := make(chan error, 1)
	img.LoadDataAsync(ctx, req, func(err error) {
		// Runs on the GPU thread.
		if err == nil {
			err = applyMask(img, *mask, *invert)
		}
		if err == nil && img.State() != imgload.StateMaterialized {
			err = img.UseData()
		}
		loaded <- err
	})

	if err := awaitLoad(ctx, gpu, img, loaded); err != nil {
		log.Fatalf("load %s: %v", req, err)
	}

	tex := img.Texture()
	log.Printf("%s: %dx%d %v texture %d", req, tex.Width, tex.Height, tex.Format, tex.Handle)

	if *save != "" {
		var name string
		err := gpu.Do(func() error {
			var err error
			name, err = img.SaveImage(*save)
			return err
		})
		if err != nil {
			log.Fatalf("save %s: %v", *save, err)
		}
		log.Printf("saved %s", name)
	}
}

// awaitLoad waits for the result of an asynchronous load. When ctx ends
// first the load is cancelled on gpu, the goroutine that owns img.
func awaitLoad(ctx context.Context, gpu *render.Thread, img *imgload.Image, loaded <-chan error) error {
	select {
	case err := <-loaded:
		return err
	case <-ctx.Done():
		_ = gpu.Do(func() error {
			img.CancelLoad()
			return nil
		})
		return ctx.Err()
	}
}

func request(path, asset, url string, cut bool) (loader.Request, error) {
	switch {
	case path != "" && asset == "" && url == "":
		return loader.PathRequest(path), nil
	case asset != "" && path == "" && url == "":
		return loader.AssetRequest(asset), nil
	case url != "" && path == "" && asset == "":
		return loader.URLRequest(url, cut), nil
	default:
		return loader.Request{}, errors.New("exactly one of -path, -asset or -url is required")
	}
}

// loadConfig reads name if it exists and returns the defaults otherwise.
func loadConfig(fsys assets.FS, name string) (assets.Config, error) {
	if !fsys.Exists(name) {
		var cfg assets.Config
		return cfg, cfg.Resolve()
	}
	return assets.LoadConfig(fsys, name)
}

func applyMask(img *imgload.Image, maskPath string, invert bool) error {
	if maskPath == "" {
		return nil
	}
	if !invert {
		_, err := img.LoadMaskImage(maskPath)
		return err
	}

	buf, err := img.Loader().LoadAsset(maskPath)
	if err != nil {
		buf, err = img.Loader().LoadPath(maskPath)
	}
	if err != nil {
		return err
	}
	m, err := imgload.NewMaskFromBuffer(buf)
	if err != nil {
		return err
	}
	m.Invert()
	return m.Apply(img.Buffer())
}
