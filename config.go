// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package brushview

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/brushview/postfx"
)

// Config is the file form of the renderer options.
//
//	width: 1280
//	height: 720
//	backend: software
//	post:
//	  bloom: {enabled: true, iterations: 3}
//	  style: palette
//	  palette: ["#000000", "#ff8800", "#ffffff"]
type Config struct {
	Width   int           `yaml:"width"`
	Height  int           `yaml:"height"`
	Backend string        `yaml:"backend"`
	Workers int           `yaml:"workers"`
	Post    postfx.Config `yaml:"post"`
}

// DefaultConfig returns the configuration New uses without options.
func DefaultConfig() Config {
	o := defaultOptions()
	return Config{
		Width:   o.width,
		Height:  o.height,
		Backend: o.backend.String(),
		Post:    o.post,
	}
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
// Keys absent from data keep their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("brushview: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("brushview: load config: %w", err)
	}
	return ParseConfig(data)
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, c.Width, c.Height)
	}
	if _, err := ParseBackend(c.Backend); err != nil {
		return err
	}
	return c.Post.Validate()
}

// Options converts c into renderer options.
func (c Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	b, _ := ParseBackend(c.Backend)
	return []Option{
		WithSize(c.Width, c.Height),
		WithBackend(b),
		WithWorkers(c.Workers),
		WithPost(c.Post),
	}, nil
}
