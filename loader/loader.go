// Package loader reads images from files, project assets and URLs into
// host pixel buffers, synchronously or on a bounded pool of workers.
//
// Loading never touches the GPU. Asynchronous completions are handed to a
// Dispatcher so that the receiver can upload on the goroutine owning the
// graphics context.
package loader

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/gogpu/imgload/assets"
	"github.com/gogpu/imgload/codec"
	"github.com/gogpu/imgload/pixbuf"
	"github.com/gogpu/imgload/transport"
)

// Load errors. Returned errors wrap one of these together with the cause.
var (
	// ErrIO is returned when a file or folder cannot be read.
	ErrIO = errors.New("loader: i/o failure")

	// ErrNetwork is returned when a download fails.
	ErrNetwork = errors.New("loader: network failure")

	// ErrDecode is returned when the content is not a decodable image.
	ErrDecode = errors.New("loader: decode failure")
)

// Decoder turns encoded image bytes into a buffer. name is a type hint.
type Decoder interface {
	Decode(data []byte, name string) (*pixbuf.Buffer, error)
}

// Dispatcher runs posted functions on the goroutine that owns the graphics
// context. render.Thread and render.FrameQueue implement it.
type Dispatcher interface {
	Post(fn func())
}

// Loader loads images into pixel buffers.
//
// A Loader is safe for concurrent use.
type Loader struct {
	fs         assets.FS
	decoder    Decoder
	resolver   *assets.Resolver
	downloads  *transport.DownloadCache
	sem        *semaphore.Weighted
	workers    int
	dispatcher Dispatcher
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := assets.Config{}
	if o.config != nil {
		cfg = *o.config
	}
	if err := cfg.Resolve(); err != nil {
		slogger().Warn("loader: invalid config, asset loads will fail", "err", err)
	}

	if o.fs == nil {
		o.fs = assets.NewOSFS()
	}
	if o.transport == nil {
		o.transport = transport.NewHTTP()
	}
	if o.decoder == nil {
		o.decoder = codec.New()
	}
	if o.resolver == nil {
		o.resolver = assets.NewResolver(o.fs, cfg)
	}
	if o.downloadDir == "" {
		o.downloadDir = cfg.DownloadDir
	}
	if o.downloadDir == "" {
		o.downloadDir = DefaultDownloadDir()
	}
	if o.workers <= 0 && o.config != nil {
		o.workers = cfg.Workers
	}
	if o.workers <= 0 {
		o.workers = runtime.NumCPU()
	}

	return &Loader{
		fs:         o.fs,
		decoder:    o.decoder,
		resolver:   o.resolver,
		downloads:  transport.NewDownloadCache(o.fs, o.downloadDir, o.transport),
		sem:        semaphore.NewWeighted(int64(o.workers)),
		workers:    o.workers,
		dispatcher: o.dispatcher,
	}
}

// FS returns the filesystem the loader reads from.
func (l *Loader) FS() assets.FS { return l.fs }

// Assets returns the project asset resolver.
func (l *Loader) Assets() *assets.Resolver { return l.resolver }

// Err returns the configuration error that fails asset loads and saves, if
// any. Callers building a Loader from user configuration check it once
// after New.
func (l *Loader) Err() error { return l.resolver.Err() }

// DownloadDir returns the directory downloads are cached in.
func (l *Loader) DownloadDir() string { return l.downloads.Dir() }

// Workers returns the asynchronous load limit.
func (l *Loader) Workers() int { return l.workers }

// LoadPath reads and decodes the file at path.
func (l *Loader) LoadPath(path string) (*pixbuf.Buffer, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	buf, err := l.decode(data, path)
	if err != nil {
		return nil, err
	}
	slogger().Debug("loader: loaded", "path", path,
		"width", buf.Width(), "height", buf.Height(), "channels", buf.Channels(), "format", buf.Format())
	return buf, nil
}

// LoadAsset loads rel from the project images folder. With mipmap scaling
// the folder is assets/mipmaps/<device resolution>, otherwise assets/images.
func (l *Loader) LoadAsset(rel string) (*pixbuf.Buffer, error) {
	path, err := l.resolver.Resolve(rel)
	if err != nil {
		return nil, fmt.Errorf("%w: asset %s: %w", ErrIO, rel, err)
	}
	return l.LoadPath(path)
}

// LoadURL downloads and decodes url. A previous download of the same cache
// key is reused without a fetch. With cutParameters, query and fragment do
// not take part in the cache key. Content that fails to decode is dropped
// from the cache, so a later call fetches again.
func (l *Loader) LoadURL(ctx context.Context, url string, cutParameters bool) (*pixbuf.Buffer, error) {
	d, err := l.downloads.Get(ctx, url, cutParameters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	buf, err := l.decode(d.Data, d.Path)
	if err != nil {
		if rerr := l.downloads.Remove(d.Key); rerr != nil {
			slogger().Warn("loader: cannot drop undecodable download", "path", d.Path, "err", rerr)
		}
		return nil, err
	}
	buf.SetSource(url)
	slogger().Debug("loader: loaded", "url", url, "cached", d.Cached,
		"width", buf.Width(), "height", buf.Height(), "channels", buf.Channels(), "format", buf.Format())
	return buf, nil
}

// Load performs req synchronously.
func (l *Loader) Load(ctx context.Context, req Request) (*pixbuf.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch req.Source {
	case SourcePath:
		return l.LoadPath(req.Path)
	case SourceAsset:
		return l.LoadAsset(req.Path)
	case SourceURL:
		return l.LoadURL(ctx, req.URL, req.CutParameters)
	default:
		return nil, fmt.Errorf("%w: unknown source %v", ErrIO, req.Source)
	}
}

func (l *Loader) decode(data []byte, name string) (*pixbuf.Buffer, error) {
	buf, err := l.decoder.Decode(data, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	return buf, nil
}
