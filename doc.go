// Package imgload loads images into host memory and uploads them to the GPU.
//
// # Overview
//
// An Image stages pixel data in a pixbuf.Buffer, either 8-bit integer or
// 32-bit float (HDR), and materializes it as a GPU texture on request. Slow
// I/O runs anywhere; texture creation happens only on the goroutine owning
// the graphics context.
//
// # Quick Start
//
//	import "github.com/gogpu/imgload"
//
//	img := imgload.New(imgload.WithDevice(dev))
//
//	// <root>/assets/images/logo.png, decoded and uploaded.
//	if err := img.LoadImage("logo.png"); err != nil {
//	    return err
//	}
//	tex := img.Texture()
//
//	// Host memory is no longer needed once uploaded.
//	img.ClearData()
//
// # Staged loading
//
// The LoadData family only fills the host buffer. Edits made through
// SetImageData, ImageData or CompositeMask are uploaded by UseData:
//
//	img.LoadDataAsync(ctx, loader.URLRequest(url, true), func(err error) {
//	    // Runs on the loader's dispatcher, e.g. a render.Thread.
//	    if err == nil {
//	        err = img.UseData()
//	    }
//	})
//
// # Architecture
//
// The module is organized into:
//   - pixbuf: the pixel buffer store
//   - codec: format sniffing, decoding and encoding
//   - assets: project configuration, asset folders, filesystem
//   - transport: HTTP fetching and the URL download cache
//   - loader: sync and async loads on a bounded worker pool
//   - render: the texture materializer and GPU devices
//
// # Concurrency
//
// Image and pixbuf.Buffer are not safe for concurrent mutation. Loaders are
// safe for concurrent use. Materialization must happen on the goroutine
// owning the graphics context; render.Thread provides one.
package imgload
