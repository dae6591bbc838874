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

package compiler

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/MaDcz/interfaces/syntax"
)

// Loader resolves include paths against an ordered list of search
// directories and tracks which files are being or have been indexed.
//
// Paths are cleaned absolute OS paths, or cleaned slash-separated paths
// when the loader reads from an fs.FS.
type Loader struct {
	searchDirs []string
	fsys       fs.FS
	logger     *slog.Logger

	chain      []string
	inProgress map[string]struct{}
	completed  map[string]struct{}
	files      []string
}

func NewLoader(searchDirs []string, fsys fs.FS) *Loader {
	return &Loader{
		searchDirs: slices.Clone(searchDirs),
		fsys:       fsys,
		logger:     discardLogger,
		inProgress: make(map[string]struct{}),
		completed:  make(map[string]struct{}),
	}
}

func (l *Loader) SearchDirs() []string {
	return slices.Clone(l.searchDirs)
}

// Files returns every file entered so far, in the order they were first
// entered.
func (l *Loader) Files() []string {
	return slices.Clone(l.files)
}

func (l *Loader) key(filePath string) (string, error) {
	if l.fsys != nil {
		return path.Clean(filepath.ToSlash(filePath)), nil
	}
	return filepath.Abs(filePath)
}

func (l *Loader) exists(filePath string) bool {
	var info fs.FileInfo
	var err error
	if l.fsys != nil {
		info, err = fs.Stat(l.fsys, filePath)
	} else {
		info, err = os.Stat(filePath)
	}
	return err == nil && !info.IsDir()
}

// Resolve returns the path of the first `<dir>/<rel>` that exists.
func (l *Loader) Resolve(rel string, span syntax.Span) (string, error) {
	for _, dir := range l.searchDirs {
		var candidate string
		if l.fsys != nil {
			candidate = path.Join(filepath.ToSlash(dir), rel)
		} else {
			candidate = filepath.Join(dir, filepath.FromSlash(rel))
		}
		if !l.exists(candidate) {
			continue
		}
		key, err := l.key(candidate)
		if err != nil {
			return "", errIo(candidate, err)
		}
		return key, nil
	}
	return "", errIncludeNotFound(rel, l.searchDirs, span)
}

// Read reads a file fully.
func (l *Loader) Read(filePath string) ([]byte, error) {
	var src []byte
	var err error
	if l.fsys != nil {
		src, err = fs.ReadFile(l.fsys, filePath)
	} else {
		src, err = os.ReadFile(filePath)
	}
	if err != nil {
		return nil, errIo(filePath, err)
	}
	return src, nil
}

// Enter marks filePath as in progress. It reports false if the file was
// already fully indexed, and fails if the file is already in progress.
func (l *Loader) Enter(filePath string, span syntax.Span) (bool, error) {
	if _, done := l.completed[filePath]; done {
		l.logger.Debug("skipping indexed file", "file", filePath)
		return false, nil
	}
	if _, cyclic := l.inProgress[filePath]; cyclic {
		start := slices.Index(l.chain, filePath)
		chain := append(slices.Clone(l.chain[start:]), filePath)
		return false, errCyclicInclude(chain, span)
	}
	l.logger.Debug("indexing file", "file", filePath, "depth", len(l.chain))
	l.inProgress[filePath] = struct{}{}
	l.chain = append(l.chain, filePath)
	l.files = append(l.files, filePath)
	return true, nil
}

// Leave marks the innermost in-progress file as completed.
func (l *Loader) Leave(filePath string) {
	top := len(l.chain) - 1
	if top < 0 || l.chain[top] != filePath {
		panic("compiler: include stack mismatch")
	}
	l.chain = l.chain[:top]
	delete(l.inProgress, filePath)
	l.completed[filePath] = struct{}{}
	l.logger.Debug("indexed file", "file", filePath)
}
