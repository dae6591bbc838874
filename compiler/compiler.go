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

// Package compiler resolves parsed interface definitions into the IR.
//
// Compilation runs in two passes over the event stream of the parsed
// source. The index pass walks the root file and every file it includes,
// transitively, to populate a Registry of fully-qualified type names. The
// build pass then walks the root file again and constructs the IR,
// resolving every type reference against the complete registry.
package compiler

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/MaDcz/interfaces/ir"
	"github.com/MaDcz/interfaces/syntax"
)

const stdinPath = "<stdin>"

var discardLogger = slog.New(slog.DiscardHandler)

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	includePaths []string
	registry     *Registry
	logger       *slog.Logger
	fsys         fs.FS
	sourcePath   string
}

// WithIncludePaths sets the ordered search directories for `include`.
func WithIncludePaths(includePaths []string) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.includePaths = slices.Clone(includePaths)
	})
}

// WithRegistry compiles against reg instead of a new registry. The
// registry must not be shared between concurrent compilations.
func WithRegistry(reg *Registry) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.registry = reg
	})
}

func WithLogger(logger *slog.Logger) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.logger = logger
	})
}

// WithFS reads included files from fsys instead of the OS filesystem.
func WithFS(fsys fs.FS) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.fsys = fsys
	})
}

// WithSourcePath names the root source. It is reported in errors, and it
// takes part in include cycle detection.
func WithSourcePath(sourcePath string) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.sourcePath = sourcePath
	})
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	return compileOptions
}

type CompileResult struct {
	Package  *ir.Package
	Registry *Registry
	// Every file indexed during compilation, in the order indexing
	// started. A root that an earlier root included is listed once.
	Files []string
}

// Source is one root file of a compilation. An empty or "-" Path names
// standard input.
type Source struct {
	Path string
	Src  []byte
}

// Compile indexes src and the files it includes, then builds its IR.
func Compile(src []byte, opts ...CompileOption) (*CompileResult, error) {
	return NewCompileOptions(opts...).Compile(src)
}

// CompileFile is Compile for the contents of the file at filePath.
func CompileFile(filePath string, opts ...CompileOption) (*CompileResult, error) {
	return NewCompileOptions(opts...).CompileFile(filePath)
}

// CompileFiles compiles several root files into one package. All roots
// share one registry, and a file included by more than one root is
// indexed once.
func CompileFiles(filePaths []string, opts ...CompileOption) (*CompileResult, error) {
	return NewCompileOptions(opts...).CompileFiles(filePaths)
}

// CompileSources is CompileFiles for sources that were already read.
func CompileSources(sources []Source, opts ...CompileOption) (*CompileResult, error) {
	return NewCompileOptions(opts...).CompileSources(sources)
}

// Index runs only the index pass and returns the populated registry.
func Index(src []byte, opts ...CompileOption) (*Registry, error) {
	return NewCompileOptions(opts...).Index(src)
}

func (opts *CompileOptions) Compile(src []byte) (*CompileResult, error) {
	return opts.CompileSources([]Source{{Path: opts.sourcePath, Src: src}})
}

func (opts *CompileOptions) CompileFile(filePath string) (*CompileResult, error) {
	return opts.CompileFiles([]string{filePath})
}

func (opts *CompileOptions) CompileFiles(filePaths []string) (*CompileResult, error) {
	sources := make([]Source, 0, len(filePaths))
	for _, filePath := range filePaths {
		src, err := opts.readRoot(filePath)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Path: filePath, Src: src})
	}
	return opts.CompileSources(sources)
}

func (opts *CompileOptions) CompileSources(sources []Source) (*CompileResult, error) {
	if len(sources) == 0 {
		return nil, errNoSources
	}
	c := opts.newCompileCtx()

	type root struct {
		path string
		file *syntax.File
	}
	var roots []root
	seen := make(map[string]struct{}, len(sources))
	for _, source := range sources {
		rootPath := c.rootKey(source.Path)
		if _, dup := seen[rootPath]; dup {
			continue
		}
		seen[rootPath] = struct{}{}
		file, err := c.indexRoot(rootPath, source.Src)
		if err != nil {
			return nil, err
		}
		roots = append(roots, root{rootPath, file})
	}

	fileBuilder := NewFileBuilder()
	for _, root := range roots {
		if err := c.build(root.path, root.file, fileBuilder); err != nil {
			return nil, err
		}
	}
	pkg, err := fileBuilder.Build(c.registry)
	if err != nil {
		return nil, inFile(err, roots[0].path)
	}
	return &CompileResult{
		Package:  pkg,
		Registry: c.registry,
		Files:    c.loader.Files(),
	}, nil
}

func (opts *CompileOptions) Index(src []byte) (*Registry, error) {
	c := opts.newCompileCtx()
	if _, err := c.indexRoot(c.rootKey(opts.sourcePath), src); err != nil {
		return nil, err
	}
	return c.registry, nil
}

func (opts *CompileOptions) readRoot(filePath string) ([]byte, error) {
	return NewLoader(nil, opts.fsys).Read(filePath)
}

type compileCtx struct {
	registry *Registry
	loader   *Loader
	logger   *slog.Logger
}

func (opts *CompileOptions) newCompileCtx() *compileCtx {
	logger := opts.logger
	if logger == nil {
		logger = discardLogger
	}
	registry := opts.registry
	if registry == nil {
		registry = NewRegistry()
	}
	registry.logger = logger
	loader := NewLoader(opts.includePaths, opts.fsys)
	loader.logger = logger
	return &compileCtx{
		registry: registry,
		loader:   loader,
		logger:   logger,
	}
}

// indexRoot parses a root file and indexes it, unless an earlier root
// already included it.
func (c *compileCtx) indexRoot(rootPath string, src []byte) (*syntax.File, error) {
	enter, err := c.loader.Enter(rootPath, syntax.Span{})
	if err != nil {
		return nil, err
	}
	file, err := syntax.Parse(src)
	if err != nil {
		return nil, errSyntax(rootPath, err)
	}
	if !enter {
		return file, nil
	}
	if err := c.index(rootPath, file); err != nil {
		return nil, err
	}
	c.loader.Leave(rootPath)
	return file, nil
}

// rootKey names the root file the way the loader names included files,
// so that an include of the root is seen as a cycle.
func (c *compileCtx) rootKey(sourcePath string) string {
	if sourcePath == "" || sourcePath == "-" {
		return stdinPath
	}
	key, err := c.loader.key(sourcePath)
	if err != nil {
		return filepath.Clean(sourcePath)
	}
	return key
}
