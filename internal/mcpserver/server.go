// Copyright (c) 2024 Neomantra Corp
//
// MCP server exposing the loaded Registry to LLM clients: list message
// names, describe a schema's field layout, and decode a hex-encoded
// frame. Grounded on the teacher's internal/mcp_meta/server.go (the
// Server-struct-plus-RegisterTools shape) and internal/mcp_data/tools.go
// (the mcp.NewTool/mcpServer.AddTool registration style).

package mcpserver

import (
	"log/slog"

	tera "github.com/neomantra/tera-go"
)

// Server holds the shared state MCP tool handlers need.
type Server struct {
	Registry *tera.Registry
	Logger   *slog.Logger
}

// NewServer returns a Server backed by reg.
func NewServer(reg *tera.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Registry: reg, Logger: logger}
}
