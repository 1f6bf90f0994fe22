package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ossyrian/pacparse/internal/tim2"
)

// Defaults for keys that have one.
const (
	DefaultMetadataFile = "PAC0.BIN"
	DefaultPayloadFile  = "PAC1.BIN"
	DefaultRootName     = "data"
	DefaultColorKey     = "00ff00"
	DefaultMaxDepth     = 4
)

// ErrInvalidColorKey is returned for a color_key that is not six hex digits.
var ErrInvalidColorKey = errors.New("color key must be six hex digits or \"none\"")

// Config holds app configuration
type Config struct {
	// InputDir holds the metadata and payload files
	InputDir  string `mapstructure:"input"`
	OutputDir string `mapstructure:"output"`

	// MetadataFile and PayloadFile are resolved against InputDir unless absolute
	MetadataFile string `mapstructure:"metadata_file"`
	PayloadFile  string `mapstructure:"payload_file"`
	RootName     string `mapstructure:"root_name"`

	Recursive bool `mapstructure:"recursive"`
	MaxDepth  int  `mapstructure:"max_depth"`
	Verify    bool `mapstructure:"verify"`
	Jobs      int  `mapstructure:"jobs"`

	// PNG renders a PNG next to every .tm2 output
	PNG      bool   `mapstructure:"png"`
	PNGScale int    `mapstructure:"png_scale"`
	ColorKey string `mapstructure:"color_key"`

	DryRun       bool   `mapstructure:"dry_run"`
	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}

// MetadataPath is the full path of the metadata file.
func (c *Config) MetadataPath() string {
	return c.resolve(c.MetadataFile, DefaultMetadataFile)
}

// PayloadPath is the full path of the payload file.
func (c *Config) PayloadPath() string {
	return c.resolve(c.PayloadFile, DefaultPayloadFile)
}

func (c *Config) resolve(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.InputDir, name)
}

// OutputPath is where extracted files go. It defaults to the input directory.
func (c *Config) OutputPath() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	if c.InputDir != "" {
		return c.InputDir
	}
	return "."
}

// Root is the label given to the metadata tree's root directory.
func (c *Config) Root() string {
	if c.RootName == "" {
		return DefaultRootName
	}
	return c.RootName
}

// Key parses ColorKey. "none" disables keying and yields nil.
func (c *Config) Key() (*tim2.Pixel, error) {
	s := strings.TrimPrefix(strings.TrimSpace(c.ColorKey), "#")
	if s == "" {
		s = DefaultColorKey
	}
	if strings.EqualFold(s, "none") {
		return nil, nil
	}

	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColorKey, c.ColorKey)
	}

	key := tim2.RGB(b[0], b[1], b[2])
	return &key, nil
}

// Validate checks numeric settings.
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.PNGScale < 0 {
		return fmt.Errorf("png_scale must not be negative, got %d", c.PNGScale)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if _, err := c.Key(); err != nil {
		return err
	}
	return nil
}
