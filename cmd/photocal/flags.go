package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	verbose bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common       commonFlags
	port         int
	assetDir     string
	staticDir    string
	workers      int
	timeout      string
	strictExport bool
	logLevel     string
	logFormat    string
	printConfig  bool
	version      bool
	help         bool

	// changed reports whether a flag was given on the command line.
	changed func(name string) bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging (same as --log-level debug)")
}

// newServeFlagSet registers the serve flags on a fresh FlagSet.
func newServeFlagSet(f *serveFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	addCommonFlags(fs, &f.common)
	fs.IntVarP(&f.port, "port", "p", 0, "listen port (overrides PORT)")
	fs.StringVar(&f.assetDir, "asset-dir", "", "shared asset directory searched after the upload")
	fs.StringVar(&f.staticDir, "static-dir", "", "directory served under /")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent renders (0 = auto)")
	fs.StringVar(&f.timeout, "timeout", "", "per-render timeout, e.g. 90s")
	fs.BoolVar(&f.strictExport, "strict-export", false, "answer export failures with 500 instead of an empty PDF")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn, or error")
	fs.StringVar(&f.logFormat, "log-format", "", "console or json")
	fs.BoolVar(&f.printConfig, "print-config", false, "print the effective configuration and exit")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")
	fs.BoolVarP(&f.help, "help", "h", false, "show help")
	return fs
}

// parseServeFlags parses serve command flags.
// Returns the flags, remaining positional args, and any error.
func parseServeFlags(args []string) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newServeFlagSet(f)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.changed = fs.Changed
	return f, fs.Args(), nil
}
