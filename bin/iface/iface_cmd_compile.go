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
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"github.com/MaDcz/interfaces/compiler"
	"github.com/MaDcz/interfaces/internal/config"
)

const watchDebounce = 100 * time.Millisecond

type cmdCompile struct {
	e            *env
	includePaths []string
	outPath      string
	format       string
	watch        bool
}

func (*cmdCompile) help() *commandHelp {
	return &commandHelp{
		usage:   "compile [-I DIR]... [-o OUT] [-f json|text|msgpack] [--watch] FILE|-...",
		summary: "Compile interface files into one IR package and write it",
	}
}

func (cmd *cmdCompile) flags(flags *pflag.FlagSet) {
	flags.StringArrayVarP(&cmd.includePaths, "include", "I", nil, "search DIR for included files (repeatable)")
	flags.StringVarP(&cmd.outPath, "output", "o", "", "write the IR to OUT instead of stdout")
	flags.StringVarP(&cmd.format, "format", "f", "", "output encoding (default: from OUT's extension, else the config file)")
	flags.BoolVar(&cmd.watch, "watch", false, "recompile whenever an input file changes")
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	if len(argv) == 0 {
		return usageError(cmd.e.stderr, cmd.help())
	}
	srcPaths := argv

	cfg, err := cmd.e.loadConfig()
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}
	outPath := cmd.outPath
	if outPath == "" {
		outPath = cfg.Output
	}
	format, err := outputFormat(cmd.format, outPath, cfg)
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}

	if !cmd.watch {
		if _, ok := cmd.compileOnce(srcPaths, outPath, format, cfg); !ok {
			return 1
		}
		return 0
	}
	if slices.Contains(srcPaths, "-") {
		fmt.Fprintln(cmd.e.stderr, "Cannot watch stdin; pass a file path")
		return 1
	}
	return cmd.watchLoop(ctx, srcPaths, func() []string {
		files, _ := cmd.compileOnce(srcPaths, outPath, format, cfg)
		return files
	})
}

// compileOnce runs one full compilation of every root and writes its
// output. It returns the files that took part, which is only the roots
// on failure.
func (cmd *cmdCompile) compileOnce(srcPaths []string, outPath, format string, cfg *config.Config) ([]string, bool) {
	files := srcPaths
	sources, stdinSrc, err := cmd.e.readSources(srcPaths)
	if err != nil {
		cmd.e.report(err, nil)
		return files, false
	}
	opts := cmd.e.compileOptions(cmd.includePaths, cfg, srcPaths...)
	result, err := compiler.CompileSources(sources, opts...)
	if err != nil {
		cmd.e.report(err, stdinSrc)
		return files, false
	}
	data, err := encodeOutput(format, result.Package)
	if err != nil {
		cmd.e.report(err, nil)
		return result.Files, false
	}
	if err := writeOutput(outPath, data, cmd.e.stdout); err != nil {
		cmd.e.report(err, nil)
		return result.Files, false
	}
	return result.Files, true
}

// watchLoop calls build once, then again after the files it reported stop
// changing. Directories are watched rather than files so that editors
// which replace a file on save are still seen.
func (cmd *cmdCompile) watchLoop(ctx context.Context, srcPaths []string, build func() []string) int {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}
	defer watcher.Close()

	watchedDirs := make(map[string]struct{})
	inputs := make(map[string]struct{})
	track := func(files []string) {
		clear(inputs)
		for _, file := range slices.Concat(files, srcPaths) {
			abs, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			inputs[abs] = struct{}{}
			dir := filepath.Dir(abs)
			if _, ok := watchedDirs[dir]; ok {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				cmd.e.report(err, nil)
				continue
			}
			watchedDirs[dir] = struct{}{}
		}
	}
	track(build())

	var debounce *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return 0
		case event, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			if _, ok := inputs[filepath.Clean(event.Name)]; !ok {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(watchDebounce)
			fire = debounce.C
		case <-fire:
			fire = nil
			fmt.Fprintln(cmd.e.stderr, "Inputs changed, recompiling")
			track(build())
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			cmd.e.report(err, nil)
		}
	}
}
