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
	"runtime"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/MaDcz/interfaces/compiler"
)

type cmdCheck struct {
	e            *env
	includePaths []string
	jobs         int
}

func (*cmdCheck) help() *commandHelp {
	return &commandHelp{
		usage:   "check [-I DIR]... [-j N] FILE|-...",
		summary: "Compile each file independently and report every failure",
	}
}

func (cmd *cmdCheck) flags(flags *pflag.FlagSet) {
	flags.StringArrayVarP(&cmd.includePaths, "include", "I", nil, "search DIR for included files (repeatable)")
	flags.IntVarP(&cmd.jobs, "jobs", "j", 0, "compile at most N files at once (default: GOMAXPROCS)")
}

func (cmd *cmdCheck) run(ctx context.Context, argv []string) int {
	if len(argv) == 0 {
		return usageError(cmd.e.stderr, cmd.help())
	}
	cfg, err := cmd.e.loadConfig()
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}

	stdinRoots := 0
	for _, srcPath := range argv {
		if srcPath == "-" {
			stdinRoots += 1
		}
	}
	if stdinRoots > 1 {
		fmt.Fprintln(cmd.e.stderr, "Standard input can be read only once")
		return 1
	}

	jobs := cmd.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Failures are collected rather than returned so that one bad file
	// does not cancel the others.
	failures := make([]error, len(argv))
	sources := make([][]byte, len(argv))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for ii, srcPath := range argv {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := cmd.e.readSource(srcPath)
			if err != nil {
				failures[ii] = err
				return nil
			}
			sources[ii] = src
			opts := cmd.e.compileOptions(cmd.includePaths, cfg, srcPath)
			_, failures[ii] = compiler.Compile(src, opts...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		cmd.e.report(err, nil)
		return 1
	}

	failed := 0
	for ii, err := range failures {
		if err != nil {
			cmd.e.report(err, sources[ii])
			failed += 1
		}
	}
	if failed > 0 {
		fmt.Fprintf(cmd.e.stderr, "%d of %d files failed\n", failed, len(argv))
		return 1
	}
	return 0
}
