// Copyright (c) 2024 Neomantra Corp
//
// tera-tui launches an interactive browser over a loaded schema
// Registry. Grounded on the teacher's cmd/ launchers: parse flags with
// pflag, load state, then hand off to a long-running run loop.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	tera "github.com/neomantra/tera-go"
	"github.com/neomantra/tera-go/internal/tui"
)

func main() {
	var defsDir string
	var showHelp bool

	pflag.StringVarP(&defsDir, "defs", "d", "", "Directory of .def/.map schema files to load (required)")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s -d <defs-dir>\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}
	if defsDir == "" {
		fmt.Fprintf(os.Stderr, "missing schema directory, use --defs\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	reg := tera.NewRegistry(logger)
	if err := reg.LoadDir(os.DirFS(defsDir), "."); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load schema directory: %s\n", err.Error())
		os.Exit(1)
	}

	if err := tui.Run(reg); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %s\n", err.Error())
		os.Exit(1)
	}
}
