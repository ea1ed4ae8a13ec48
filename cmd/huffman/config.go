package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chronos-tachyon/huffman/v2"
)

// Config holds the settings that may come from a --config file.  Flags given
// on the command line override the file.
type Config struct {
	// UnitLen is the unit width in bits.  Zero means unset; encoding
	// then requires --unit-len.
	UnitLen int `yaml:"unit_len"`

	// TreeSizeWidth is the width in bytes of the tree size field.  Must
	// match between encode and decode.
	TreeSizeWidth int `yaml:"tree_size_width"`

	// ChunkSize is the number of bytes read per chunk.
	ChunkSize int `yaml:"chunk_size"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		TreeSizeWidth: huffman.DefaultTreeSizeWidth,
		ChunkSize:     huffman.DefaultChunkSize,
		LogLevel:      "warn",
	}
}

// LoadFile loads configuration from a YAML file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.UnitLen < 0 || c.UnitLen > huffman.MaxUnitLen {
		errs = append(errs, fmt.Errorf("unit_len must be in [1, %d], got %d", huffman.MaxUnitLen, c.UnitLen))
	}
	if c.TreeSizeWidth < 1 || c.TreeSizeWidth > huffman.MaxTreeSizeWidth {
		errs = append(errs, fmt.Errorf("tree_size_width must be in [1, %d], got %d", huffman.MaxTreeSizeWidth, c.TreeSizeWidth))
	}
	if c.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Options converts the configuration into codec options.
func (c *Config) Options(logger *slog.Logger) huffman.Options {
	return huffman.Options{
		UnitLen:       c.UnitLen,
		TreeSizeWidth: c.TreeSizeWidth,
		ChunkSize:     c.ChunkSize,
		Logger:        logger,
	}
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", name)
	}
}
