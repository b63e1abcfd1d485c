package loader

import (
	"github.com/gogpu/imgload/assets"
	"github.com/gogpu/imgload/transport"
)

// Option configures a Loader during creation.
//
// Example:
//
//	// Defaults: host filesystem, HTTP transport, one worker per CPU.
//	l := loader.New()
//
//	// Project layout from imgload.toml, completions on the GPU thread.
//	l := loader.New(loader.WithConfig(cfg), loader.WithDispatcher(gpuThread))
type Option func(*options)

type options struct {
	fs          assets.FS
	transport   transport.Transport
	decoder     Decoder
	resolver    *assets.Resolver
	config      *assets.Config
	downloadDir string
	workers     int
	dispatcher  Dispatcher
}

// WithFS sets the filesystem images are read from and downloads are cached
// in. Default is the host filesystem.
func WithFS(fsys assets.FS) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithTransport sets the transport used for URL loads.
// Default is transport.NewHTTP().
func WithTransport(t transport.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithCodec sets the decoder. Default is codec.New().
func WithCodec(d Decoder) Option {
	return func(o *options) {
		o.decoder = d
	}
}

// WithAssets sets the resolver for project-relative loads. It takes
// precedence over WithConfig.
func WithAssets(r *assets.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithConfig applies a project configuration: asset resolution, download
// directory and worker count. Explicit options win over config values.
func WithConfig(cfg assets.Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

// WithDownloadDir sets the directory downloads are cached in.
// Default is DefaultDownloadDir().
func WithDownloadDir(dir string) Option {
	return func(o *options) {
		o.downloadDir = dir
	}
}

// WithWorkers bounds the number of asynchronous loads running at once.
// Default is runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithDispatcher sets where asynchronous completions are delivered.
// Without a dispatcher, callbacks run on the worker goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(o *options) {
		o.dispatcher = d
	}
}
