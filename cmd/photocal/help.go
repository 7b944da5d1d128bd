package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: photocal [command] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Start the calendar service (default)")
	fmt.Fprintln(w, "  doctor     Check Chrome, assets and configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'photocal help <command>' for details on a specific command.")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: photocal serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve POST /make: upload photos as multipart fields named jan..dec")
	fmt.Fprintln(w, "(and cover) and receive the calendar as a PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -p, --port <n>            Listen port (default 8080, env PORT)")
	fmt.Fprintln(w, "      --asset-dir <dir>     Shared assets searched after the upload")
	fmt.Fprintln(w, "      --static-dir <dir>    Directory served under / (default ./dist)")
	fmt.Fprintln(w, "      --print-config        Print the effective configuration and exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent renders (0 = auto)")
	fmt.Fprintln(w, "      --timeout <d>         Per-render timeout, e.g. 90s")
	fmt.Fprintln(w, "      --strict-export       Export failures return 500 instead of an empty PDF")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logging:")
	fmt.Fprintln(w, "      --log-level <s>       debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      console, json")
	fmt.Fprintln(w, "  -v, --verbose             Same as --log-level debug")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  PORT, PHOTOCAL_CONFIG, PHOTOCAL_ASSET_DIR, PHOTOCAL_STATIC_DIR,")
	fmt.Fprintln(w, "  PHOTOCAL_WORKERS, PHOTOCAL_TIMEOUT, PHOTOCAL_STRICT_EXPORT,")
	fmt.Fprintln(w, "  PHOTOCAL_LOG_LEVEL, PHOTOCAL_LOG_FORMAT")
	fmt.Fprintln(w, "  Flags override environment, which overrides the config file.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: photocal doctor [--json] [-c <config>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the browser, temp directory, assets, port and static directory.")
	fmt.Fprintln(w, "Exits 1 when a check fails; warnings do not change the exit code.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: photocal version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: photocal help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	return nil
}
