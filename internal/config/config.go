// Copyright (c) 2024 The interfaces Authors
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

// Package config loads the optional `iface.toml` project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

const FileName = "iface.toml"

// Formats lists the output encodings `format` may name.
var Formats = []string{"json", "text", "msgpack"}

type Config struct {
	IncludePaths []string `toml:"include_paths"`
	Format       string   `toml:"format"`
	Output       string   `toml:"output"`
	Codegen      Codegen  `toml:"codegen"`

	// Path of the file the config was loaded from. Empty for Default.
	Path string `toml:"-"`
}

type Codegen struct {
	PluginPath []string `toml:"plugin_path"`
	OutputDir  string   `toml:"output_dir"`
}

func Default() *Config {
	return &Config{Format: "json"}
}

// Find looks for iface.toml in startDir and each of its parents. It
// reports false if no config file exists.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes and validates the config file at path. Relative paths in
// the file are resolved against its directory.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.Path = path
	base := filepath.Dir(path)
	cfg.IncludePaths = resolveAll(base, cfg.IncludePaths)
	cfg.Codegen.PluginPath = resolveAll(base, cfg.Codegen.PluginPath)
	cfg.Output = resolve(base, cfg.Output)
	cfg.Codegen.OutputDir = resolve(base, cfg.Codegen.OutputDir)
	return cfg, nil
}

// Discover loads the config file found from startDir, or returns Default
// if there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func (cfg *Config) validate() error {
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if !slices.Contains(Formats, cfg.Format) {
		return fmt.Errorf("unknown format %q (expected one of %s)", cfg.Format, strings.Join(Formats, ", "))
	}
	for _, dir := range cfg.IncludePaths {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("include_paths contains an empty entry")
		}
	}
	for _, dir := range cfg.Codegen.PluginPath {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("codegen.plugin_path contains an empty entry")
		}
	}
	return nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func resolveAll(base string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		out = append(out, resolve(base, path))
	}
	return out
}
