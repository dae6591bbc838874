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

package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	wasm "github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/MaDcz/interfaces/compiler"
	"github.com/MaDcz/interfaces/encoding/irjson"
)

const pluginPathEnv = "IFACE_CODEGEN_PLUGIN_PATH"

// codegenRequest is passed to the plugin's generate export. Package holds
// the IR in its JSON encoding.
type codegenRequest struct {
	Language string          `json:"language"`
	Package  json.RawMessage `json:"package"`
}

type codegenResponse struct {
	Error       string       `json:"error,omitempty"`
	OutputFiles []outputFile `json:"output_files"`
}

type outputFile struct {
	Path    []string `json:"path"`
	Content string   `json:"content"`
}

type cmdCodegen struct {
	e            *env
	includePaths []string
	outDir       string
	pluginPath   string
}

func (*cmdCodegen) help() *commandHelp {
	return &commandHelp{
		usage:   "codegen [--plugin-path DIRS] [-o DIR] [-I DIR]... FILE LANG",
		summary: "Generate code for a file with a WebAssembly plugin",
	}
}

func (cmd *cmdCodegen) flags(flags *pflag.FlagSet) {
	flags.StringArrayVarP(&cmd.includePaths, "include", "I", nil, "search DIR for included files (repeatable)")
	flags.StringVarP(&cmd.outDir, "output", "o", "", "write generated files under DIR")
	flags.StringVar(&cmd.pluginPath, "plugin-path", "", "list of directories to search for plugins, separated like $PATH")
}

func (cmd *cmdCodegen) run(ctx context.Context, argv []string) int {
	if len(argv) != 2 {
		return usageError(cmd.e.stderr, cmd.help())
	}
	srcPath, language := argv[0], argv[1]

	cfg, err := cmd.e.loadConfig()
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}
	outDir := cmd.outDir
	if outDir == "" {
		outDir = cfg.Codegen.OutputDir
	}
	if outDir == "" {
		fmt.Fprintln(cmd.e.stderr, "No output directory specified (set --output=)")
		return 1
	}
	pluginPath, err := locatePlugin(cmd.pluginDirs(cfg.Codegen.PluginPath), language)
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}

	src, err := cmd.e.readSource(srcPath)
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}
	result, err := compiler.Compile(src, cmd.e.compileOptions(cmd.includePaths, cfg, srcPath)...)
	if err != nil {
		cmd.e.report(err, src)
		return 1
	}
	pkgJSON, err := irjson.Compact(result.Package)
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}
	requestBuf, err := json.Marshal(codegenRequest{
		Language: language,
		Package:  pkgJSON,
	})
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}

	response, err := cmd.runPlugin(ctx, pluginPath, requestBuf)
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}
	if response.Error != "" {
		fmt.Fprintln(cmd.e.stderr, strings.TrimRight(response.Error, "\n"))
		return 1
	}
	if len(response.OutputFiles) == 0 {
		fmt.Fprintln(cmd.e.stderr, "Plugin did not generate any output files")
		return 1
	}
	if err := writeOutputFiles(outDir, response.OutputFiles); err != nil {
		cmd.e.report(err, nil)
		return 1
	}
	return 0
}

func (cmd *cmdCodegen) pluginDirs(configured []string) []string {
	if cmd.pluginPath != "" {
		return filepath.SplitList(cmd.pluginPath)
	}
	if path := os.Getenv(pluginPathEnv); path != "" {
		return filepath.SplitList(path)
	}
	return configured
}

func locatePlugin(dirs []string, language string) (string, error) {
	if len(dirs) == 0 {
		return "", fmt.Errorf("No plugin path set, use --plugin-path= or $%s", pluginPathEnv)
	}
	basename := fmt.Sprintf("iface-codegen-%s.wasm", language)
	for _, dir := range dirs {
		pluginPath := filepath.Join(dir, basename)
		if _, err := os.Stat(pluginPath); err == nil {
			return pluginPath, nil
		}
	}
	return "", fmt.Errorf("Codegen plugin %s not found in plugin path", basename)
}

// runPlugin hosts one generate call. The plugin allocates the request
// buffer, and leaves a pointer to a length-prefixed response at the
// address it was given.
func (cmd *cmdCodegen) runPlugin(ctx context.Context, pluginPath string, requestBuf []byte) (*codegenResponse, error) {
	runtimeConfig := wasm.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(16384)
	runtime := wasm.NewRuntimeWithConfig(ctx, runtimeConfig)
	defer runtime.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		return nil, err
	}

	pluginBin, err := os.ReadFile(pluginPath)
	if err != nil {
		return nil, err
	}
	pluginExe, err := runtime.CompileModule(ctx, pluginBin)
	if err != nil {
		return nil, err
	}
	moduleConfig := wasm.NewModuleConfig().
		WithStderr(cmd.e.stderr).
		WithStartFunctions("_initialize")
	plugin, err := runtime.InstantiateModule(ctx, pluginExe, moduleConfig)
	if err != nil {
		return nil, err
	}

	wasmAlloc, err := exportedFunction(plugin, "iface_codegen_allocate")
	if err != nil {
		return nil, err
	}
	wasmGenerate, err := exportedFunction(plugin, "iface_codegen_generate")
	if err != nil {
		return nil, err
	}
	mem := plugin.Memory()
	if mem == nil {
		return nil, fmt.Errorf("Plugin %s does not export a memory", pluginPath)
	}

	results, err := wasmAlloc.Call(ctx, uint64(len(requestBuf)))
	if err != nil {
		return nil, err
	}
	requestPtr := uint32(results[0])
	if !mem.Write(requestPtr, requestBuf) {
		return nil, fmt.Errorf("Failed to write request message")
	}

	results, err = wasmAlloc.Call(ctx, 4)
	if err != nil {
		return nil, err
	}
	responsePtrPtr := uint32(results[0])

	results, err = wasmGenerate.Call(ctx, uint64(requestPtr), uint64(len(requestBuf)), uint64(responsePtrPtr))
	if err != nil {
		return nil, err
	}
	rc := uint32(results[0])

	responsePtr, ok := mem.ReadUint32Le(responsePtrPtr)
	if !ok {
		return nil, fmt.Errorf("Failed to read response message pointer")
	}
	header, ok := mem.Read(responsePtr, 4)
	if !ok {
		return nil, fmt.Errorf("Failed to read response message length")
	}
	responseBuf, ok := mem.Read(responsePtr+4, binary.LittleEndian.Uint32(header))
	if !ok {
		return nil, fmt.Errorf("Failed to read response message")
	}
	response, err := decodeResponse(responseBuf)
	if err != nil {
		return nil, err
	}
	if rc != 0 && response.Error == "" {
		response.Error = fmt.Sprintf("Plugin failed with status %d", rc)
	}
	return response, nil
}

func exportedFunction(plugin api.Module, name string) (api.Function, error) {
	fn := plugin.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("Plugin does not export %s", name)
	}
	return fn, nil
}

func decodeResponse(buf []byte) (*codegenResponse, error) {
	var response codegenResponse
	if err := json.Unmarshal(buf, &response); err != nil {
		return nil, fmt.Errorf("Invalid plugin response: %w", err)
	}
	return &response, nil
}

func outputPath(outDir string, file outputFile) (string, error) {
	parts := file.Path
	if len(parts) == 0 {
		return "", fmt.Errorf("Invalid output path %#v: empty", parts)
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("Invalid output path %#v: bad path component %q", parts, part)
		}
		if part[0] == '/' || filepath.IsAbs(part) {
			return "", fmt.Errorf("Invalid output path %#v: absolute path component %q", parts, part)
		}
		if strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("Invalid output path %#v: component %q contains a path separator", parts, part)
		}
	}
	return filepath.Join(append([]string{outDir}, parts...)...), nil
}

// writeOutputFiles validates every path before writing any file.
func writeOutputFiles(outDir string, files []outputFile) error {
	paths := make([]string, 0, len(files))
	for _, file := range files {
		path, err := outputPath(outDir, file)
		if err != nil {
			return err
		}
		paths = append(paths, path)
	}
	for ii, file := range files {
		if err := os.MkdirAll(filepath.Dir(paths[ii]), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(paths[ii], []byte(file.Content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
