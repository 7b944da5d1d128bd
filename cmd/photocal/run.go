package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Command errors.
var (
	ErrUsage          = errors.New("invalid usage")
	ErrUnknownCommand = errors.New("unknown command")
)

// run dispatches to a subcommand and returns the process exit code.
// Without a command name the server is started, so "photocal --port 9000"
// and "photocal serve --port 9000" are equivalent.
func run(ctx context.Context, args []string, env *Environment) int {
	cmd, rest := "serve", args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, rest = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return report(env, runServe(ctx, rest, env))
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version":
		fmt.Fprintf(env.Stdout, "photocal %s\n", Version)
		return ExitSuccess
	case "help":
		return report(env, runHelp(rest, env))
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return exitCodeFor(fmt.Errorf("%w: %s", ErrUnknownCommand, cmd))
	}
}

// report prints err, if any, and converts it to an exit code.
func report(env *Environment, err error) int {
	if err != nil {
		fmt.Fprintln(env.Stderr, "error:", err)
	}
	return exitCodeFor(err)
}
