// Copyright (c) 2024 Neomantra Corp
//
// tera-codec is the command-line entry point for encoding, decoding, and
// inspecting TERA wire frames, and for querying capture files. Grounded
// on the teacher's cmd/dbn-go-file/main.go cobra layout: one rootCmd,
// one subcommand var per operation, flags registered in main().

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	tera "github.com/neomantra/tera-go"
)

var (
	defsDir     string
	defaultName string
	logger      *slog.Logger
)

func requireNoError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

func loadRegistry() *tera.Registry {
	if defsDir == "" {
		fmt.Fprintf(os.Stderr, "error: --defs is required\n")
		os.Exit(1)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	reg := tera.NewRegistry(logger)
	if defaultName != "" {
		reg.SetDefaultName(defaultName)
	}
	requireNoError(reg.LoadDir(os.DirFS(defsDir), "."))
	return reg
}

func main() {
	cobra.OnInitialize()

	rootCmd.PersistentFlags().StringVarP(&defsDir, "defs", "d", "", "Directory of .def/.map schema files")
	rootCmd.PersistentFlags().StringVarP(&defaultName, "default-name", "n", "", "Default message name for ambiguous identifiers")

	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringVarP(&encodeMessage, "name", "m", "", "Message name or opcode (required)")
	encodeCmd.Flags().StringVarP(&encodeVersion, "version", "", "*", "Desired schema version")
	encodeCmd.Flags().StringVarP(&encodeOut, "out", "o", "-", "Output file (\"-\" for stdout)")
	encodeCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(decodeCmd)

	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectVersion, "version", "", "*", "Desired schema version")

	rootCmd.AddCommand(captureDumpCmd)
	captureDumpCmd.Flags().BoolVarP(&captureJSON, "json", "j", false, "Print every decoded record as JSON instead of a summary")
	captureDumpCmd.Flags().StringVarP(&captureFrom, "from", "", "", "ISO8601 timestamp: with --json, only include frames captured on or after this date")
	captureDumpCmd.Flags().StringVarP(&captureTo, "to", "", "", "ISO8601 timestamp: with --json, only include frames captured on or before this date")

	rootCmd.AddCommand(queryCmd)

	rootCmd.AddCommand(fetchSchemaCmd)
	fetchSchemaCmd.Flags().BoolVarP(&fetchSchemaYes, "yes", "y", false, "Overwrite dest without confirmation")

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tera-codec",
	Short: "tera-codec encodes, decodes, and inspects TERA wire frames",
	Long:  "tera-codec encodes, decodes, and inspects TERA wire frames",
}
