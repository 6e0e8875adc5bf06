// Copyright (c) 2024 Neomantra Corp

package mcpserver

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	mcp_server "github.com/mark3labs/mcp-go/server"

	tera "github.com/neomantra/tera-go"
)

// RegisterTools registers every tool this server exposes onto mcpServer.
func (s *Server) RegisterTools(mcpServer *mcp_server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("list_messages",
			mcp.WithDescription("Lists every message name known to the loaded schema registry, with their opcode and loaded versions."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
		),
		s.listMessagesHandler,
	)
	mcpServer.AddTool(
		mcp.NewTool("describe_schema",
			mcp.WithDescription("Describes the augmented field layout (including inserted count/offset meta fields) of one message version."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("name", mcp.Required(), mcp.Description("Message name, e.g. S_LOGIN")),
			mcp.WithString("version", mcp.Description("Desired version, or \"*\" for the newest loaded (default)")),
		),
		s.describeSchemaHandler,
	)
	mcpServer.AddTool(
		mcp.NewTool("decode_frame",
			mcp.WithDescription("Decodes a hex-encoded wire frame (including its 4-byte header) into a JSON record, resolving the schema from the frame's own opcode."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("hex", mcp.Required(), mcp.Description("Hex-encoded frame bytes")),
		),
		s.decodeFrameHandler,
	)
}

func (s *Server) listMessagesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := s.Registry.MessageNames()
	sort.Strings(names)

	type entry struct {
		Name     string `json:"name"`
		Opcode   *int   `json:"opcode,omitempty"`
		Versions []int  `json:"versions"`
	}
	out := make([]entry, 0, len(names))
	for _, name := range names {
		e := entry{Name: name, Versions: s.Registry.Versions(name)}
		if code, ok := s.Registry.OpcodeForName(name); ok {
			e.Opcode = &code
		}
		out = append(out, e)
	}

	jbytes, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal results: %s", err), nil
	}
	s.Logger.Info("list_messages", "count", len(out))
	return mcp.NewToolResultText(string(jbytes)), nil
}

func (s *Server) describeSchemaHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name must be set"), nil
	}
	version := "*"
	if v, err := request.RequireString("version"); err == nil && v != "" {
		version = v
	}

	schema, err := s.Registry.Resolve(name, version)
	if err != nil {
		return mcp.NewToolResultErrorf("failed to resolve schema: %s", err), nil
	}

	jbytes, err := json.Marshal(describeFields(schema.Fields))
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal results: %s", err), nil
	}
	s.Logger.Info("describe_schema", "name", name, "version", version)
	return mcp.NewToolResultText(string(jbytes)), nil
}

func (s *Server) decodeFrameHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hexStr, err := request.RequireString("hex")
	if err != nil {
		return mcp.NewToolResultError("hex must be set"), nil
	}
	buf, err := hex.DecodeString(hexStr)
	if err != nil {
		return mcp.NewToolResultErrorf("invalid hex: %s", err), nil
	}
	if len(buf) < 4 {
		return mcp.NewToolResultError("frame too short to contain a header"), nil
	}
	opcode := int(buf[2]) | int(buf[3])<<8
	name, ok := s.Registry.NameForOpcode(opcode)
	if !ok {
		return mcp.NewToolResultErrorf("no message mapped to opcode %d", opcode), nil
	}
	schema, err := s.Registry.Resolve(name, "*")
	if err != nil {
		return mcp.NewToolResultErrorf("failed to resolve schema: %s", err), nil
	}
	record, err := tera.Decode(s.Registry, schema, buf)
	if err != nil {
		return mcp.NewToolResultErrorf("decode failed: %s", err), nil
	}

	jbytes, err := json.Marshal(record)
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal results: %s", err), nil
	}
	s.Logger.Info("decode_frame", "name", name, "opcode", opcode)
	return mcp.NewToolResultText(string(jbytes)), nil
}

type fieldDescription struct {
	Name   string             `json:"name"`
	Kind   string             `json:"kind"`
	Path   string             `json:"path,omitempty"`
	Fields []fieldDescription `json:"fields,omitempty"`
}

func describeFields(fields []*tera.Field) []fieldDescription {
	out := make([]fieldDescription, 0, len(fields))
	for _, f := range fields {
		d := fieldDescription{Name: f.Name, Kind: f.Kind.String(), Path: f.Path}
		if len(f.Fields) > 0 {
			d.Fields = describeFields(f.Fields)
		}
		out = append(out, d)
	}
	return out
}
