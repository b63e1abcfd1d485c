package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver errors.
var (
	// ErrUnknownScaling is returned for a scaling mode outside none, auto
	// and mipmap.
	ErrUnknownScaling = errors.New("assets: unknown scaling mode")

	// ErrFolderNotFound is returned when the resolved images folder does
	// not exist.
	ErrFolderNotFound = errors.New("assets: images folder not found")
)

// Scaling selects how project images are organized on disk.
type Scaling uint8

const (
	// ScalingNone loads from <root>/assets/images.
	ScalingNone Scaling = iota

	// ScalingAuto loads from <root>/assets/images; the renderer scales.
	ScalingAuto

	// ScalingMipmap loads from <root>/assets/mipmaps/<device resolution>.
	ScalingMipmap

	scalingInvalid
)

// ParseScaling parses a scaling mode name. Matching is case-insensitive.
func ParseScaling(s string) (Scaling, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return ScalingNone, nil
	case "auto":
		return ScalingAuto, nil
	case "mipmap":
		return ScalingMipmap, nil
	default:
		return scalingInvalid, fmt.Errorf("%w: %q", ErrUnknownScaling, s)
	}
}

// String returns the config name of the mode.
func (s Scaling) String() string {
	switch s {
	case ScalingNone:
		return "none"
	case ScalingAuto:
		return "auto"
	case ScalingMipmap:
		return "mipmap"
	default:
		return "unknown"
	}
}

// Resolver maps project-relative image names to paths according to the
// project's scaling mode.
type Resolver struct {
	fs               FS
	root             string
	scaling          Scaling
	err              error
	deviceResolution string
}

// NewResolver creates a Resolver for cfg, applying Config.Resolve defaults.
// An invalid configuration is not an error here; it is reported by Err and
// fails every later resolution.
func NewResolver(fsys FS, cfg Config) *Resolver {
	err := cfg.Resolve()
	scaling, serr := ParseScaling(cfg.Scaling)
	if err == nil {
		err = serr
	}
	return &Resolver{
		fs:               fsys,
		root:             cfg.Root,
		scaling:          scaling,
		err:              err,
		deviceResolution: cfg.DeviceResolution,
	}
}

// Err returns the configuration error that fails every resolution, if any.
func (r *Resolver) Err() error { return r.err }

// FS returns the filesystem the resolver checks folders against.
func (r *Resolver) FS() FS { return r.fs }

// Root returns the project location.
func (r *Resolver) Root() string { return r.root }

// Scaling returns the configured scaling mode.
func (r *Resolver) Scaling() Scaling { return r.scaling }

// ImagesDir returns the project's images folder for the scaling mode.
// It does not check that the folder exists.
func (r *Resolver) ImagesDir() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	switch r.scaling {
	case ScalingNone, ScalingAuto:
		return filepath.Join(r.root, "assets", "images"), nil
	case ScalingMipmap:
		if r.deviceResolution == "" {
			return "", fmt.Errorf("%w: mipmap scaling without device resolution", ErrUnknownScaling)
		}
		return filepath.Join(r.root, "assets", "mipmaps", r.deviceResolution), nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownScaling, r.scaling)
	}
}

// Resolve returns the path of the project image rel. The images folder must
// exist.
func (r *Resolver) Resolve(rel string) (string, error) {
	dir, err := r.ImagesDir()
	if err != nil {
		return "", err
	}
	if !r.fs.Exists(dir) {
		return "", fmt.Errorf("%w: %s", ErrFolderNotFound, dir)
	}
	return filepath.Join(dir, rel), nil
}
