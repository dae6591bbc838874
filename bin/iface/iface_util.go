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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/MaDcz/interfaces/compiler"
	"github.com/MaDcz/interfaces/encoding/irjson"
	"github.com/MaDcz/interfaces/encoding/irpack"
	"github.com/MaDcz/interfaces/encoding/irtext"
	"github.com/MaDcz/interfaces/internal/config"
	"github.com/MaDcz/interfaces/ir"
	"github.com/MaDcz/interfaces/syntax"
)

const stdinPath = "<stdin>"

// env is the process state shared by every command.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	// Where to start searching for iface.toml. Empty means the working
	// directory.
	workDir string

	debug      bool
	noColor    bool
	configPath string
}

func (e *env) logger() *slog.Logger {
	if !e.debug {
		return nil
	}
	return slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func (e *env) loadConfig() (*config.Config, error) {
	if e.configPath != "" {
		return config.Load(e.configPath)
	}
	return config.Discover(e.workDir)
}

func (e *env) useColor() bool {
	return !e.noColor && !color.NoColor
}

func (e *env) readSource(srcPath string) ([]byte, error) {
	if srcPath == "-" {
		return io.ReadAll(e.stdin)
	}
	return os.ReadFile(srcPath)
}

// compileOptions selects include paths in order of precedence: flags, then
// the config file, then the directories of the root files.
func (e *env) compileOptions(flagPaths []string, cfg *config.Config, srcPaths ...string) []compiler.CompileOption {
	includePaths := flagPaths
	if len(includePaths) == 0 {
		includePaths = cfg.IncludePaths
	}
	if len(includePaths) == 0 {
		for _, srcPath := range srcPaths {
			dir := "."
			if srcPath != "-" {
				dir = filepath.Dir(srcPath)
			}
			if !slices.Contains(includePaths, dir) {
				includePaths = append(includePaths, dir)
			}
		}
	}
	opts := []compiler.CompileOption{
		compiler.WithIncludePaths(includePaths),
	}
	if len(srcPaths) == 1 {
		opts = append(opts, compiler.WithSourcePath(srcPaths[0]))
	}
	if logger := e.logger(); logger != nil {
		opts = append(opts, compiler.WithLogger(logger))
	}
	return opts
}

// readSources reads every root named on the command line. At most one may
// be "-"; its contents are also returned for diagnostics.
func (e *env) readSources(srcPaths []string) ([]compiler.Source, []byte, error) {
	var stdinSrc []byte
	sources := make([]compiler.Source, 0, len(srcPaths))
	stdinSeen := false
	for _, srcPath := range srcPaths {
		if srcPath == "-" {
			if stdinSeen {
				return nil, nil, fmt.Errorf("Standard input can be read only once")
			}
			stdinSeen = true
		}
		src, err := e.readSource(srcPath)
		if err != nil {
			return nil, nil, err
		}
		if srcPath == "-" {
			stdinSrc = src
		}
		sources = append(sources, compiler.Source{Path: srcPath, Src: src})
	}
	return sources, stdinSrc, nil
}

// report prints err as a diagnostic. stdinSrc is the source read from
// stdin, if any; other files are re-read to locate the error.
func (e *env) report(err error, stdinSrc []byte) {
	fmt.Fprintln(e.stderr, formatDiagnostic(err, stdinSrc, e.useColor()))
}

func formatDiagnostic(err error, stdinSrc []byte, useColor bool) string {
	codeColor := color.New(color.FgRed, color.Bold)
	if useColor {
		codeColor.EnableColor()
	} else {
		codeColor.DisableColor()
	}

	var compileErr *compiler.Error
	if !errors.As(err, &compileErr) {
		return fmt.Sprintf("iface: %v", err)
	}
	code := codeColor.Sprintf("E%d", compileErr.Code())
	file := compileErr.File()
	if file == "" {
		return fmt.Sprintf("%s: %s", code, compileErr.Message())
	}

	span := compileErr.Span()
	if span == (syntax.Span{}) {
		return fmt.Sprintf("%s: %s: %s", displayPath(file), code, compileErr.Message())
	}
	var src []byte
	if file == stdinPath {
		src = stdinSrc
	} else if src, err = os.ReadFile(file); err != nil {
		return fmt.Sprintf("%s: %s: %s", displayPath(file), code, compileErr.Message())
	}
	line, col := syntax.LineCol(src, span.Start())
	return fmt.Sprintf("%s:%d:%d: %s: %s", displayPath(file), line, col, code, compileErr.Message())
}

// displayPath shortens absolute paths under the working directory.
func displayPath(file string) string {
	if !filepath.IsAbs(file) {
		return file
	}
	wd, err := os.Getwd()
	if err != nil {
		return file
	}
	rel, err := filepath.Rel(wd, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}
	return rel
}

// outputFormat picks the encoding named by the flag, else the one implied
// by the output file extension, else the configured default.
func outputFormat(flagFormat, outPath string, cfg *config.Config) (string, error) {
	format := strings.ToLower(flagFormat)
	if format == "" {
		switch strings.ToLower(filepath.Ext(outPath)) {
		case ".json":
			format = "json"
		case ".txt", ".irtext":
			format = "text"
		case ".msgpack", ".mpk":
			format = "msgpack"
		default:
			format = cfg.Format
		}
	}
	switch format {
	case "json", "text", "msgpack":
		return format, nil
	}
	return "", fmt.Errorf("Unsupported output format %q (choose 'json', 'text' or 'msgpack')", format)
}

func encodeOutput(format string, pkg *ir.Package) ([]byte, error) {
	switch format {
	case "json":
		return irjson.Encode(pkg)
	case "text":
		return []byte(irtext.Encode(pkg)), nil
	case "msgpack":
		return irpack.Encode(pkg)
	}
	panic("unreachable")
}

func writeOutput(outPath string, data []byte, stdout io.Writer) error {
	if outPath == "" || outPath == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(outPath, openFlags, 0o666)
	if err != nil {
		return err
	}
	_, writeErr := fp.Write(data)
	closeErr := fp.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}
