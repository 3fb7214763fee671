// Package main is the entry point for the nib editor.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dshills/nib/internal/app"
	"github.com/dshills/nib/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath     string
		logLevel    string
		showVersion bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to configuration file")
	flag.StringVar(&cfgPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "nib - scriptable terminal editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: nib [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("nib %s (%s)\n", version, commit)
		return 0
	}

	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	var filename string
	if flag.NArg() > 0 {
		filename = flag.Arg(0)
	}

	application, err := app.New(cfg, cfgPath, filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
