// Package config loads and validates the wutag configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wutag/wutag/internal/errors"
)

// ConfigFileName is the name of the configuration file inside the config dir.
const ConfigFileName = "wutag.yml"

// EnvConfig overrides the configuration file location.
const EnvConfig = "WUTAG_CONFIG"

// DefaultMaxDepth is the default filesystem traversal depth.
const DefaultMaxDepth = 2

// defaultPalette is assigned round-robin to new tags without an explicit
// color. Hex values of the original terminal palette.
var defaultPalette = []string{
	"#CC0000", // red
	"#4E9A06", // green
	"#3465A4", // blue
	"#C4A000", // yellow
	"#06989A", // cyan
	"#D3D7CF", // white
	"#75507B", // magenta
	"#EF2929", // bright red
	"#8AE234", // bright green
	"#FCE94F", // bright yellow
	"#729FCF", // bright blue
	"#AD7FA8", // bright magenta
	"#34E2E2", // bright cyan
}

// Config represents the wutag configuration. Unknown keys in the file are
// ignored rather than rejected.
type Config struct {
	// MaxDepth is the default recursion depth for filesystem traversal.
	MaxDepth int `yaml:"max_depth"`

	// BaseColor is the color paths are displayed in.
	BaseColor string `yaml:"base_color"`

	// BorderColor is used when tags are displayed with a border.
	BorderColor string `yaml:"border_color"`

	// Colors is the palette new tags draw their color from.
	Colors []string `yaml:"colors"`

	// Ignores lists path patterns always excluded from traversal.
	Ignores []string `yaml:"ignores"`

	// Format is the default output format for listing views.
	Format string `yaml:"format"`

	// FollowSymlinks dereferences symlinks during traversal.
	FollowSymlinks bool `yaml:"follow_symlinks"`

	// KeepUnusedTags retains tags (and their colors) after their last
	// association is removed. Disable to garbage-collect them on commit.
	KeepUnusedTags bool `yaml:"keep_unused_tags"`

	// Encryption configures the registry encryption layer.
	Encryption EncryptionConfig `yaml:"encryption"`
}

// EncryptionConfig configures encryption at rest for the registry snapshot.
type EncryptionConfig struct {
	// Enabled turns on snapshot encryption.
	Enabled bool `yaml:"enabled"`
	// KeyFile points at a file holding the hex-encoded 256-bit key.
	// The WUTAG_KEY environment variable takes precedence.
	KeyFile string `yaml:"key_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxDepth:       DefaultMaxDepth,
		BaseColor:      "#83A598",
		BorderColor:    "#A89984",
		Colors:         append([]string(nil), defaultPalette...),
		Ignores:        []string{".git", ".hg", ".svn"},
		Format:         "text",
		KeepUnusedTags: true,
	}
}

// Load reads the configuration from the default location, or the path in
// WUTAG_CONFIG when set. A missing file yields the defaults.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Default(), nil
		}
		path = filepath.Join(dir, "wutag", ConfigFileName)
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from an explicit path. A missing file
// yields the defaults; a malformed file is a fatal config error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("failed to parse %s", path), err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxDepth < 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, "max_depth must not be negative, got %d", c.MaxDepth)
	}
	if len(c.Colors) == 0 {
		c.Colors = append([]string(nil), defaultPalette...)
	}
	return nil
}

// PaletteColor returns the palette color for the n-th created tag.
func (c *Config) PaletteColor(n int) string {
	if len(c.Colors) == 0 {
		return defaultPalette[n%len(defaultPalette)]
	}
	return c.Colors[n%len(c.Colors)]
}
