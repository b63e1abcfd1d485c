package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gogpu/imgload/transport"
)

// downloadCounter numbers generated download paths for the whole process.
var downloadCounter atomic.Uint64

// DefaultDownloadDir returns the default directory for downloaded images.
func DefaultDownloadDir() string {
	return filepath.Join(os.TempDir(), "imgload")
}

// GenerateDownloadedImagePath returns a fresh path for a downloaded image
// of the given type ("png" when empty). Every call in the process returns a
// distinct path, including concurrent calls.
func GenerateDownloadedImagePath(imageType string) string {
	n := downloadCounter.Add(1) - 1
	imageType = strings.TrimPrefix(imageType, ".")
	if imageType == "" {
		imageType = "png"
	}
	name := fmt.Sprintf("downloaded_%d_%d.%s", os.Getpid(), n, imageType)
	return filepath.Join(DefaultDownloadDir(), name)
}

// CacheKey returns the download cache file name for url.
// See transport.CacheKey.
func CacheKey(url string, cutParameters bool) string {
	return transport.CacheKey(url, cutParameters)
}
