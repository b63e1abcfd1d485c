package loader

import "fmt"

// Source identifies where a Request reads from.
type Source uint8

const (
	// SourcePath reads a file by explicit path.
	SourcePath Source = iota

	// SourceAsset reads a file relative to the project images folder.
	SourceAsset

	// SourceURL downloads the image.
	SourceURL
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourcePath:
		return "path"
	case SourceAsset:
		return "asset"
	case SourceURL:
		return "url"
	default:
		return fmt.Sprintf("Source(%d)", s)
	}
}

// Request describes a single image load.
type Request struct {
	Source Source

	// Path is the file path for SourcePath, or the project-relative name
	// for SourceAsset.
	Path string

	// URL is the address for SourceURL.
	URL string

	// CutParameters makes URL loads ignore query and fragment when looking
	// up the download cache.
	CutParameters bool
}

// PathRequest returns a request for the file at path.
func PathRequest(path string) Request {
	return Request{Source: SourcePath, Path: path}
}

// AssetRequest returns a request for the project image rel.
func AssetRequest(rel string) Request {
	return Request{Source: SourceAsset, Path: rel}
}

// URLRequest returns a request for url.
func URLRequest(url string, cutParameters bool) Request {
	return Request{Source: SourceURL, URL: url, CutParameters: cutParameters}
}

func (r Request) String() string {
	if r.Source == SourceURL {
		return "url:" + r.URL
	}
	return r.Source.String() + ":" + r.Path
}
