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
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type command interface {
	help() *commandHelp
	flags(flags *pflag.FlagSet)
	run(ctx context.Context, argv []string) int
}

type commandHelp struct {
	usage   string
	summary string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	rc := runMain(ctx, os.Args[1:], &env{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	})
	stop()
	os.Exit(rc)
}

func runMain(ctx context.Context, args []string, e *env) int {
	rc := 0
	ifaceCmd := &cobra.Command{
		Use:           "iface [options] COMMAND",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	ifaceCmd.SetArgs(args)
	ifaceCmd.SetIn(e.stdin)
	ifaceCmd.SetOut(e.stdout)
	ifaceCmd.SetErr(e.stderr)
	ifaceCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(e.stderr, ifaceCmd.UsageString())
		rc = 1
		return nil
	}

	globalFlags := ifaceCmd.PersistentFlags()
	globalFlags.BoolVar(&e.debug, "debug", false, "trace compilation to stderr")
	globalFlags.BoolVar(&e.noColor, "no-color", false, "disable colored diagnostics")
	globalFlags.StringVar(&e.configPath, "config", "", "read settings from this iface.toml instead of searching for one")

	commands := []command{
		&cmdCompile{e: e},
		&cmdCheck{e: e},
		&cmdTypes{e: e},
		&cmdCodegen{e: e},
	}
	for _, cmd := range commands {
		help := cmd.help()
		cobraCmd := &cobra.Command{
			Use:   help.usage,
			Short: help.summary,
			RunE: func(_ *cobra.Command, args []string) error {
				rc = cmd.run(ctx, args)
				return nil
			},
		}
		ifaceCmd.AddCommand(cobraCmd)
		cmd.flags(cobraCmd.Flags())
	}

	if _, err := ifaceCmd.ExecuteC(); err != nil {
		fmt.Fprintln(e.stderr, err)
		return 1
	}
	return rc
}

// usageError prints the usage line of a command that was given the wrong
// arguments.
func usageError(w io.Writer, help *commandHelp) int {
	fmt.Fprintf(w, "usage: iface %s\n", help.usage)
	return 1
}
