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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaDcz/interfaces/internal/config"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
include_paths = ["idl", "/abs/idl"]
format = "MsgPack"
output = "out/model.bin"

[codegen]
plugin_path = ["plugins"]
output_dir = "gen"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, []string{filepath.Join(dir, "idl"), "/abs/idl"}, cfg.IncludePaths)
	assert.Equal(t, "msgpack", cfg.Format)
	assert.Equal(t, filepath.Join(dir, "out/model.bin"), cfg.Output)
	assert.Equal(t, []string{filepath.Join(dir, "plugins")}, cfg.Codegen.PluginPath)
	assert.Equal(t, filepath.Join(dir, "gen"), cfg.Codegen.OutputDir)
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t, t.TempDir(), ""))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Empty(t, cfg.IncludePaths)
	assert.Empty(t, cfg.Output)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `format = `, "failed to parse TOML"},
		{"format", `format = "yaml"`, `unknown format "yaml"`},
		{"unknown key", "format = \"json\"\nincludes = []", "unknown keys: includes"},
		{"empty include", `include_paths = [""]`, "include_paths contains an empty entry"},
		{"empty plugin dir", "[codegen]\nplugin_path = [\" \"]", "codegen.plugin_path contains an empty entry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.Load(writeConfig(t, t.TempDir(), tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	path := writeConfig(t, root, `format = "text"`)

	found, ok, err := config.Find(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, path, found)

	cfg, err := config.Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Format)
}

func TestDiscoverWithoutConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, ok, err := config.Find(dir)
	require.NoError(t, err)
	if ok {
		// A config file above the temp directory is outside this test's control.
		t.Skip("found an iface.toml above the temporary directory")
	}

	cfg, err := config.Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
