// Package assets locates project image folders and provides the filesystem
// that images are read from and saved to.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	hpos "github.com/hack-pad/hackpadfs/os"
)

// FS is the filesystem collaborator used for loading and saving images.
// Names are OS-style paths.
type FS interface {
	// ReadFile returns the full contents of the named file.
	ReadFile(name string) ([]byte, error)

	// WriteFile replaces the named file with data, creating parent
	// directories as needed. Readers see either the old or the new content.
	WriteFile(name string, data []byte) error

	// Remove deletes the named file. Removing a missing file is not an
	// error.
	Remove(name string) error

	// Exists reports whether the named file or directory exists.
	Exists(name string) bool
}

// HackpadFS adapts a hackpadfs filesystem to FS.
type HackpadFS struct {
	fsys hackpadfs.FS
	toFS func(name string) (string, error)
}

// NewFS wraps fsys. Names are cleaned and made non-rooted, so "/a/b" and
// "a/b" refer to the same file.
func NewFS(fsys hackpadfs.FS) *HackpadFS {
	return &HackpadFS{fsys: fsys, toFS: normPath}
}

// NewOSFS returns an FS backed by the host filesystem. Relative names are
// resolved against the working directory.
func NewOSFS() *HackpadFS {
	osfs := hpos.NewFS()
	return &HackpadFS{
		fsys: osfs,
		toFS: func(name string) (string, error) {
			abs, err := filepath.Abs(name)
			if err != nil {
				return "", err
			}
			return osfs.FromOSPath(abs)
		},
	}
}

// NewMemFS returns an empty in-memory FS.
func NewMemFS() (*HackpadFS, error) {
	fsys, err := mem.NewFS()
	if err != nil {
		return nil, fmt.Errorf("assets: mem fs: %w", err)
	}
	return NewFS(fsys), nil
}

// normPath cleans p and makes it non-rooted, as all io/fs paths must be.
func normPath(p string) (string, error) {
	p = path.Clean(filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ".", nil
	}
	return p, nil
}

// ReadFile implements FS.
func (f *HackpadFS) ReadFile(name string) ([]byte, error) {
	p, err := f.toFS(name)
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", name, err)
	}
	data, err := hackpadfs.ReadFile(f.fsys, p)
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", name, err)
	}
	return data, nil
}

// tmpSeq numbers temporary files written by WriteFile.
var tmpSeq atomic.Uint64

// WriteFile implements FS. The data is written to a temporary sibling and
// renamed over name.
func (f *HackpadFS) WriteFile(name string, data []byte) error {
	p, err := f.toFS(name)
	if err != nil {
		return fmt.Errorf("assets: write %s: %w", name, err)
	}
	if dir := path.Dir(p); dir != "." {
		if err := hackpadfs.MkdirAll(f.fsys, dir, 0o755); err != nil {
			return fmt.Errorf("assets: mkdir %s: %w", dir, err)
		}
	}

	tmp := fmt.Sprintf("%s.%d-%d.tmp", p, os.Getpid(), tmpSeq.Add(1))
	if err := hackpadfs.WriteFullFile(f.fsys, tmp, data, 0o644); err != nil {
		_ = hackpadfs.Remove(f.fsys, tmp)
		return fmt.Errorf("assets: write %s: %w", name, err)
	}
	if err := hackpadfs.Rename(f.fsys, tmp, p); err != nil {
		_ = hackpadfs.Remove(f.fsys, tmp)
		return fmt.Errorf("assets: write %s: %w", name, err)
	}
	return nil
}

// Remove implements FS.
func (f *HackpadFS) Remove(name string) error {
	p, err := f.toFS(name)
	if err != nil {
		return fmt.Errorf("assets: remove %s: %w", name, err)
	}
	if err := hackpadfs.Remove(f.fsys, p); err != nil && !errors.Is(err, hackpadfs.ErrNotExist) {
		return fmt.Errorf("assets: remove %s: %w", name, err)
	}
	return nil
}

// Exists implements FS.
func (f *HackpadFS) Exists(name string) bool {
	p, err := f.toFS(name)
	if err != nil {
		return false
	}
	_, err = hackpadfs.Stat(f.fsys, p)
	return err == nil
}
