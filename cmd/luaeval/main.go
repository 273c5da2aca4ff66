// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

// Command luaeval is a developer tool for driving the compiler and VM
// by hand: compile a script, dump its bytecode, or run it against
// --keys/--argv the way a Redis-compatible server's EVAL would.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"
	"zombiezen.com/go/log"

	"github.com/lumendb/luascript"
	"github.com/lumendb/luascript/internal/luavm"
)

func main() {
	rootCommand := &cobra.Command{
		Use:           "luaeval",
		Short:         "compile and run Lua 5.1 scripts",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	showDebug := rootCommand.PersistentFlags().Bool("debug", false, "show debugging output")
	rootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogging(*showDebug)
		return nil
	}

	rootCommand.AddCommand(
		newRunCommand(),
		newDumpCommand(),
		newCompileCommand(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err != nil {
		initLogging(*showDebug)
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}
}

var initLogOnce sync.Once

func initLogging(showDebug bool) {
	initLogOnce.Do(func() {
		minLogLevel := log.Info
		if showDebug {
			minLogLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLogLevel,
			Output: log.New(os.Stderr, "luaeval: ", log.StdFlags, nil),
		})
	})
}

func readScript(args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := os.ReadFile("/dev/stdin")
		return data, "=stdin", err
	}
	data, err := os.ReadFile(args[0])
	return data, args[0], err
}

type runOptions struct {
	keys []string
	argv []string
}

func newRunCommand() *cobra.Command {
	opts := new(runOptions)
	c := &cobra.Command{
		Use:           "run FILE",
		Short:         "compile and execute a script, printing its first return value",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c.Flags().StringSliceVar(&opts.keys, "keys", nil, "KEYS table entries")
	c.Flags().StringSliceVar(&opts.argv, "argv", nil, "ARGV table entries")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		source, name, err := readScript(args)
		if err != nil {
			return err
		}
		m, cerr := luascript.Compile(source, name)
		if cerr != nil {
			return cerr
		}
		vm := luascript.New(luascript.Config{
			Limits: luavm.DefaultLimits(),
			Output: os.Stdout,
		})
		result, cerr := vm.Execute(cmd.Context(), m, opts.keys, opts.argv)
		if cerr != nil {
			return cerr
		}
		if result != nil {
			fmt.Println(luavm.ToStringValue(result))
		}
		return nil
	}
	return c
}

func newCompileCommand() *cobra.Command {
	c := &cobra.Command{
		Use:           "compile FILE",
		Short:         "compile a script and report success or the compile error",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		source, name, err := readScript(args)
		if err != nil {
			return err
		}
		if _, cerr := luascript.Compile(source, name); cerr != nil {
			return cerr
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	}
	return c
}

func newDumpCommand() *cobra.Command {
	c := &cobra.Command{
		Use:           "dump FILE",
		Short:         "compile a script and print its bytecode",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		source, name, err := readScript(args)
		if err != nil {
			return err
		}
		m, cerr := luascript.Compile(source, name)
		if cerr != nil {
			return cerr
		}
		dumpPrototype(cmd.OutOrStdout(), m.Prototype(), 0)
		return nil
	}
	return c
}
