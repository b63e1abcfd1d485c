package assets

import (
	"fmt"
	"runtime"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// ConfigFile is the conventional name of the project configuration file.
const ConfigFile = "imgload.toml"

// Config holds the project settings that drive image folder resolution,
// download placement and loader concurrency.
type Config struct {
	// Root is the project location. "~" is expanded.
	Root string `toml:"root"`

	// Scaling is one of "none", "auto" or "mipmap".
	Scaling string `toml:"scaling"`

	// DeviceResolution names the mipmap folder used with "mipmap" scaling.
	DeviceResolution string `toml:"device_resolution"`

	// DownloadDir is where downloaded images are cached. Empty means the
	// loader default. "~" is expanded.
	DownloadDir string `toml:"download_dir"`

	// Workers bounds concurrent asynchronous loads.
	Workers int `toml:"workers"`
}

// LoadConfig reads and parses a TOML config file from fsys and fills in
// defaults.
func LoadConfig(fsys FS, name string) (Config, error) {
	data, err := fsys.ReadFile(name)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", name, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", name, err)
	}
	if err := cfg.Resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve fills in empty fields with defaults and expands "~" in paths.
// An unrecognized Scaling value is kept as is and reported when an images
// folder is resolved.
func (c *Config) Resolve() error {
	if c.Root == "" {
		c.Root = "."
	}
	root, err := homedir.Expand(c.Root)
	if err != nil {
		return fmt.Errorf("config: root %q: %w", c.Root, err)
	}
	c.Root = root

	if c.DownloadDir != "" {
		dir, err := homedir.Expand(c.DownloadDir)
		if err != nil {
			return fmt.Errorf("config: download_dir %q: %w", c.DownloadDir, err)
		}
		c.DownloadDir = dir
	}

	if c.Scaling == "" {
		c.Scaling = ScalingNone.String()
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return nil
}
