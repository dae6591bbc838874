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
	"strings"
	"text/tabwriter"

	"github.com/gobwas/glob"
	"github.com/spf13/pflag"

	"github.com/MaDcz/interfaces/compiler"
)

type cmdTypes struct {
	e            *env
	includePaths []string
	match        string
	builtins     bool
}

func (*cmdTypes) help() *commandHelp {
	return &commandHelp{
		usage:   "types [-I DIR]... [--match GLOB] [--builtins] FILE|-",
		summary: "List the types visible to a file and its includes",
	}
}

func (cmd *cmdTypes) flags(flags *pflag.FlagSet) {
	flags.StringArrayVarP(&cmd.includePaths, "include", "I", nil, "search DIR for included files (repeatable)")
	flags.StringVar(&cmd.match, "match", "", "only list names matching GLOB, where '*' stops at '.'")
	flags.BoolVar(&cmd.builtins, "builtins", false, "also list built-in types")
}

func (cmd *cmdTypes) run(ctx context.Context, argv []string) int {
	if len(argv) != 1 {
		return usageError(cmd.e.stderr, cmd.help())
	}
	srcPath := argv[0]

	var pattern glob.Glob
	if cmd.match != "" {
		var err error
		if pattern, err = glob.Compile(cmd.match, '.'); err != nil {
			fmt.Fprintf(cmd.e.stderr, "Invalid --match pattern %q: %v\n", cmd.match, err)
			return 1
		}
	}

	cfg, err := cmd.e.loadConfig()
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}
	src, err := cmd.e.readSource(srcPath)
	if err != nil {
		cmd.e.report(err, nil)
		return 1
	}
	reg, err := compiler.Index(src, cmd.e.compileOptions(cmd.includePaths, cfg, srcPath)...)
	if err != nil {
		cmd.e.report(err, src)
		return 1
	}

	tw := tabwriter.NewWriter(cmd.e.stdout, 0, 4, 2, ' ', 0)
	for info := range reg.All() {
		if info.Builtin && !cmd.builtins {
			continue
		}
		if pattern != nil && !pattern.Match(info.Name) {
			continue
		}
		treatment, err := info.ResolvedTreatment()
		if err != nil {
			cmd.e.report(err, src)
			return 1
		}
		label := treatment.String()
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, label, typeState(info))
	}
	if err := tw.Flush(); err != nil {
		cmd.e.report(err, nil)
		return 1
	}
	return 0
}

func typeState(info *compiler.TypeInfo) string {
	if info.Builtin {
		return "builtin"
	}
	var states []string
	if info.Declared() {
		states = append(states, "declared")
	}
	if info.Defined() {
		states = append(states, "defined")
	}
	return strings.Join(states, ",")
}
