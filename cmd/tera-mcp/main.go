// Copyright (c) 2024 Neomantra Corp
//
// tera-mcp is a Model Context Protocol (MCP) server exposing a loaded
// TERA schema Registry: list_messages, describe_schema, decode_frame.
// Grounded on the teacher's cmd/dbn-go-mcp-meta/main.go (pflag config,
// slog setup, mcp_server.NewMCPServer/ServeStdio/SSE dispatch).

package main

import (
	"fmt"
	"log/slog"
	"os"

	mcp_server "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	tera "github.com/neomantra/tera-go"
	"github.com/neomantra/tera-go/internal/mcpserver"
)

const (
	serverVersion = "0.0.1"

	defaultSSEHostPort = ":8890"

	serverInstructions = `tera-mcp provides read-only access to a loaded TERA message schema registry.

Recommended workflow:
1. Use list_messages to discover known message names, opcodes, and loaded versions.
2. Use describe_schema to see a message's augmented field layout (including inserted count/offset meta fields).
3. Use decode_frame to turn a hex-encoded wire frame into a JSON record, resolving the schema from the frame's own opcode header.`
)

type config struct {
	DefFilesDir string
	DefaultName string

	LogJSON bool
	Verbose bool

	UseSSE      bool
	SSEHostPort string
}

func main() {
	var cfg config
	var showHelp bool

	pflag.StringVarP(&cfg.DefFilesDir, "defs", "d", "", "Directory of .def/.map schema files to load (required)")
	pflag.StringVarP(&cfg.DefaultName, "default-name", "n", "", "Default message name, used when an identifier has no other way to pick one")
	pflag.BoolVarP(&cfg.LogJSON, "log-json", "j", false, "Log in JSON (default is plaintext)")
	pflag.StringVarP(&cfg.SSEHostPort, "port", "p", "", "host:port to listen to SSE connections")
	pflag.BoolVarP(&cfg.UseSSE, "sse", "", false, "Use SSE transport (default is STDIO transport)")
	pflag.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose logging")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s -d <defs-dir> [opts]\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}

	if cfg.DefFilesDir == "" {
		fmt.Fprintf(os.Stderr, "missing schema directory, use --defs\n")
		os.Exit(1)
	}
	if cfg.SSEHostPort == "" {
		cfg.SSEHostPort = defaultSSEHostPort
	}

	logLevel := slog.LevelInfo
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	var logger *slog.Logger
	if cfg.LogJSON {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	}

	reg := tera.NewRegistry(logger)
	if cfg.DefaultName != "" {
		reg.SetDefaultName(cfg.DefaultName)
	}
	if err := reg.LoadDir(os.DirFS(cfg.DefFilesDir), "."); err != nil {
		logger.Error("failed to load schema directory", "dir", cfg.DefFilesDir, "error", err.Error())
		os.Exit(1)
	}

	if err := run(cfg, reg, logger); err != nil {
		logger.Error("run loop error", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config, reg *tera.Registry, logger *slog.Logger) error {
	mcpServer := mcp_server.NewMCPServer("tera-mcp", serverVersion,
		mcp_server.WithRecovery(),
		mcp_server.WithInstructions(serverInstructions),
	)

	srv := mcpserver.NewServer(reg, logger)
	srv.RegisterTools(mcpServer)

	if cfg.UseSSE {
		sseServer := mcp_server.NewSSEServer(mcpServer)
		logger.Info("MCP SSE server started", "hostPort", cfg.SSEHostPort)
		if err := sseServer.Start(cfg.SSEHostPort); err != nil {
			return fmt.Errorf("MCP SSE server error: %w", err)
		}
	} else {
		logger.Info("MCP STDIO server started")
		if err := mcp_server.ServeStdio(mcpServer); err != nil {
			return fmt.Errorf("MCP STDIO server error: %w", err)
		}
	}
	return nil
}
